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

package storage

import (
	"fmt"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/meetkb/core"
)

// IndexEntry is the docstore record for one indexed chunk.
type IndexEntry struct {
	Id              core.ID
	KnowledgeBaseID string
	Key             string
	Text            string
}

// IndexDocstore is the metadata sub-artifact of a persisted vector index.
// Checksum is the core.Checksum of the vectors sub-artifact it was written with.
type IndexDocstore struct {
	Model      string
	Dimensions int
	Checksum   uint64
	Entries    []IndexEntry
}

// encoder appends mus-encoded values to a growing buffer.
type encoder struct {
	bs []byte
}

func (e *encoder) next(n int) []byte {
	start := len(e.bs)
	e.bs = append(e.bs, make([]byte, n)...)
	return e.bs[start:]
}

func (e *encoder) int(v int) {
	varint.Int.Marshal(v, e.next(varint.Int.Size(v)))
}

func (e *encoder) int64(v int64) {
	varint.Int64.Marshal(v, e.next(varint.Int64.Size(v)))
}

func (e *encoder) uint64(v uint64) {
	raw.Uint64.Marshal(v, e.next(raw.Uint64.Size(v)))
}

func (e *encoder) float32(v float32) {
	raw.Float32.Marshal(v, e.next(raw.Float32.Size(v)))
}

func (e *encoder) string(v string) {
	ord.String.Marshal(v, e.next(ord.String.Size(v)))
}

// time stores microseconds since the epoch; the zero time is stored as 0.
func (e *encoder) time(t time.Time) {
	if t.IsZero() {
		e.int64(0)
		return
	}
	e.int64(t.UnixMicro())
}

// decoder reads mus-encoded values, latching the first error.
type decoder struct {
	bs  []byte
	n   int
	err error
}

func (d *decoder) fail(err error) {
	if d.err == nil {
		d.err = fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
}

func (d *decoder) int() int {
	if d.err != nil {
		return 0
	}
	v, n, err := varint.Int.Unmarshal(d.bs[d.n:])
	if err != nil {
		d.fail(err)
		return 0
	}
	d.n += n
	return v
}

func (d *decoder) int64() int64 {
	if d.err != nil {
		return 0
	}
	v, n, err := varint.Int64.Unmarshal(d.bs[d.n:])
	if err != nil {
		d.fail(err)
		return 0
	}
	d.n += n
	return v
}

func (d *decoder) uint64() uint64 {
	if d.err != nil {
		return 0
	}
	v, n, err := raw.Uint64.Unmarshal(d.bs[d.n:])
	if err != nil {
		d.fail(err)
		return 0
	}
	d.n += n
	return v
}

func (d *decoder) float32() float32 {
	if d.err != nil {
		return 0
	}
	v, n, err := raw.Float32.Unmarshal(d.bs[d.n:])
	if err != nil {
		d.fail(err)
		return 0
	}
	d.n += n
	return v
}

func (d *decoder) string() string {
	if d.err != nil {
		return ""
	}
	v, n, err := ord.String.Unmarshal(d.bs[d.n:])
	if err != nil {
		d.fail(err)
		return ""
	}
	d.n += n
	return v
}

func (d *decoder) time() time.Time {
	micros := d.int64()
	if micros == 0 {
		return time.Time{}
	}
	return time.UnixMicro(micros).UTC()
}

// count reads a length prefix and rejects values that cannot fit in the
// remaining bytes given at least minSize bytes per element.
func (d *decoder) count(minSize int) int {
	n := d.int()
	if d.err != nil {
		return 0
	}
	if n < 0 || n*minSize > len(d.bs)-d.n {
		d.err = fmt.Errorf("%w: %w: %d elements", ErrSerializationFailed, ErrTruncatedData, n)
		return 0
	}
	return n
}

func (d *decoder) finish() error {
	if d.err == nil && d.n != len(d.bs) {
		d.err = fmt.Errorf("%w: %d trailing bytes", ErrSerializationFailed, len(d.bs)-d.n)
	}
	return d.err
}

// MarshalIndexVectors serializes the vectors sub-artifact. Every vector must
// have the same dimension.
func MarshalIndexVectors(vectors [][]float32) ([]byte, error) {
	dim := 0
	if len(vectors) > 0 {
		dim = len(vectors[0])
	}
	e := &encoder{bs: make([]byte, 0, 8+len(vectors)*dim*4)}
	e.int(len(vectors))
	e.int(dim)
	for i, vec := range vectors {
		if len(vec) != dim {
			return nil, fmt.Errorf("%w: vector %d has dimension %d, want %d", ErrSerializationFailed, i, len(vec), dim)
		}
		for _, v := range vec {
			e.float32(v)
		}
	}
	return e.bs, nil
}

// UnmarshalIndexVectors deserializes the vectors sub-artifact.
func UnmarshalIndexVectors(data []byte) ([][]float32, error) {
	d := &decoder{bs: data}
	count := d.count(0)
	dim := d.int()
	if d.err == nil && (dim < 0 || count*dim*4 > len(data)-d.n) {
		return nil, fmt.Errorf("%w: %w: %d vectors of dimension %d", ErrSerializationFailed, ErrTruncatedData, count, dim)
	}
	vectors := make([][]float32, count)
	for i := range vectors {
		vec := make([]float32, dim)
		for j := range vec {
			vec[j] = d.float32()
		}
		vectors[i] = vec
	}
	if err := d.finish(); err != nil {
		return nil, err
	}
	return vectors, nil
}

// MarshalIndexDocstore serializes the docstore sub-artifact.
func MarshalIndexDocstore(docstore *IndexDocstore) []byte {
	e := &encoder{}
	e.string(docstore.Model)
	e.int(docstore.Dimensions)
	e.uint64(docstore.Checksum)
	e.int(len(docstore.Entries))
	for _, entry := range docstore.Entries {
		e.uint64(uint64(entry.Id))
		e.string(entry.KnowledgeBaseID)
		e.string(entry.Key)
		e.string(entry.Text)
	}
	return e.bs
}

// UnmarshalIndexDocstore deserializes the docstore sub-artifact.
func UnmarshalIndexDocstore(data []byte) (*IndexDocstore, error) {
	d := &decoder{bs: data}
	docstore := &IndexDocstore{
		Model:      d.string(),
		Dimensions: d.int(),
		Checksum:   d.uint64(),
	}
	// id + three length prefixes
	count := d.count(11)
	docstore.Entries = make([]IndexEntry, count)
	for i := range docstore.Entries {
		docstore.Entries[i] = IndexEntry{
			Id:              core.ID(d.uint64()),
			KnowledgeBaseID: d.string(),
			Key:             d.string(),
			Text:            d.string(),
		}
	}
	if err := d.finish(); err != nil {
		return nil, err
	}
	return docstore, nil
}

// MarshalJob serializes a TranscriptionJob to bytes.
func MarshalJob(job *core.TranscriptionJob) []byte {
	e := &encoder{}
	e.string(job.Name)
	e.string(job.Document.KnowledgeBaseID)
	e.string(job.Document.Key)
	e.string(job.SourceMediaURI)
	e.string(job.OutputLocation)
	e.int(int(job.Status))
	e.int(job.AttemptCount)
	e.string(job.FailureReason)
	e.time(job.CreatedAt)
	e.time(job.UpdatedAt)
	return e.bs
}

// UnmarshalJob deserializes a TranscriptionJob from bytes.
func UnmarshalJob(data []byte) (*core.TranscriptionJob, error) {
	d := &decoder{bs: data}
	job := &core.TranscriptionJob{
		Name: d.string(),
		Document: core.DocumentIdentity{
			KnowledgeBaseID: d.string(),
			Key:             d.string(),
		},
		SourceMediaURI: d.string(),
		OutputLocation: d.string(),
		Status:         core.JobStatus(d.int()),
		AttemptCount:   d.int(),
		FailureReason:  d.string(),
		CreatedAt:      d.time(),
		UpdatedAt:      d.time(),
	}
	if err := d.finish(); err != nil {
		return nil, err
	}
	return job, nil
}
