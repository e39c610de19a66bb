// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package badger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/meetkb/core"
	"github.com/poiesic/meetkb/storage"
)

// JobRepository implements storage.JobRepository for BadgerDB.
type JobRepository struct {
	backend *Backend
}

var _ storage.JobRepository = (*JobRepository)(nil)

// NewJobRepository creates a new JobRepository.
//
// Returns storage.JobRepository interface to enforce abstraction.
func NewJobRepository(backend *Backend) storage.JobRepository {
	return &JobRepository{
		backend: backend,
	}
}

// SaveJob persists a transcription job record, keeping the original
// CreatedAt when the job already exists.
func (r *JobRepository) SaveJob(ctx context.Context, job *core.TranscriptionJob) error {
	if job.Name == "" {
		return fmt.Errorf("%w: job name is empty", core.ErrValidation)
	}
	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeJobKey(job.Name)
		existing, err := readJob(tx, key)
		if err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		now := time.Now().UTC()
		switch {
		case existing != nil:
			job.CreatedAt = existing.CreatedAt
		case job.CreatedAt.IsZero():
			job.CreatedAt = now
		}
		job.UpdatedAt = now

		if err := tx.Set(key, storage.MarshalJob(job)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// GetJob retrieves the job record for name.
func (r *JobRepository) GetJob(ctx context.Context, name string) (*core.TranscriptionJob, error) {
	var job *core.TranscriptionJob
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		job, err = readJob(tx, makeJobKey(name))
		return err
	}, false)
	if err != nil {
		return nil, fmt.Errorf("job %q: %w", name, err)
	}
	return job, nil
}

// ListJobs returns every job record ordered by name.
func (r *JobRepository) ListJobs(ctx context.Context) ([]*core.TranscriptionJob, error) {
	var jobs []*core.TranscriptionJob
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeJobPrefix()
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			err := iter.Item().Value(func(val []byte) error {
				job, err := storage.UnmarshalJob(val)
				if err != nil {
					return err
				}
				jobs = append(jobs, job)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	}, false)
	return jobs, err
}

// DeleteJob removes the job record for name.
func (r *JobRepository) DeleteJob(ctx context.Context, name string) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeJobKey(name)
		if _, err := tx.Get(key); err != nil {
			return err
		}
		if err := tx.Delete(key); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

func readJob(tx *badger.Txn, key []byte) (*core.TranscriptionJob, error) {
	item, err := tx.Get(key)
	if err != nil {
		return nil, err
	}
	var job *core.TranscriptionJob
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		job, unmarshalErr = storage.UnmarshalJob(val)
		return unmarshalErr
	})
	return job, err
}
