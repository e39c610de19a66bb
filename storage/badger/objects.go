package badger

import (
	"context"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/meetkb/storage"
)

// ObjectStore implements storage.ObjectStore for BadgerDB.
type ObjectStore struct {
	backend *Backend
}

var _ storage.ObjectStore = (*ObjectStore)(nil)

// NewObjectStore creates a new ObjectStore over backend.
//
// Returns storage.ObjectStore interface to enforce abstraction.
func NewObjectStore(backend *Backend) storage.ObjectStore {
	return newObjectStore(backend)
}

func newObjectStore(backend *Backend) *ObjectStore {
	return &ObjectStore{backend: backend}
}

func validateLocation(bucket, key string) error {
	if strings.TrimSpace(bucket) == "" || strings.TrimSpace(key) == "" {
		return fmt.Errorf("%w: bucket=%q key=%q", storage.ErrInvalidLocation, bucket, key)
	}
	if strings.Contains(bucket, ":") {
		return fmt.Errorf("%w: bucket %q contains ':'", storage.ErrInvalidLocation, bucket)
	}
	return nil
}

// PutObject stores data under bucket/key, replacing any previous object.
func (s *ObjectStore) PutObject(ctx context.Context, bucket, key string, data []byte) error {
	if err := validateLocation(bucket, key); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(makeObjectKey(bucket, key), data); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// GetObject retrieves the object at bucket/key.
func (s *ObjectStore) GetObject(ctx context.Context, bucket, key string) ([]byte, error) {
	if err := validateLocation(bucket, key); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var data []byte
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeObjectKey(bucket, key))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	}, false)
	if err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", bucket, key, err)
	}
	return data, nil
}

// DeleteObject removes bucket/key. Missing objects are ignored.
func (s *ObjectStore) DeleteObject(ctx context.Context, bucket, key string) error {
	if err := validateLocation(bucket, key); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Delete(makeObjectKey(bucket, key)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// ListObjects returns the keys in bucket starting with prefix.
// Badger iterates in byte order, so the result is already sorted.
func (s *ObjectStore) ListObjects(ctx context.Context, bucket, prefix string) ([]string, error) {
	if strings.TrimSpace(bucket) == "" {
		return nil, fmt.Errorf("%w: empty bucket", storage.ErrInvalidLocation)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var keys []string
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = makePartialObjectKey(bucket, prefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			keys = append(keys, objectKeyFromKey(bucket, iter.Item().KeyCopy(nil)))
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return keys, nil
}
