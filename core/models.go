package core

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// SingleUploadPrefix is the namespace prefix used for documents uploaded
// outside of any knowledge base.
const SingleUploadPrefix = "single-uploads"

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Checksum returns a 64 bit BLAKE2b digest of data.
func Checksum(data []byte) uint64 {
	h, _ := blake2b.New(8, nil)
	h.Write(data)
	return binary.LittleEndian.Uint64(h.Sum(nil))
}

// Buckets names the storage locations a knowledge base writes to.
type Buckets struct {
	Uploads     string `toml:"uploads"`
	Transcripts string `toml:"transcripts"`
	Summaries   string `toml:"summaries"`
	Embeddings  string `toml:"embeddings"`
}

// KnowledgeBase is a named, pre-configured collection of documents sharing
// storage locations and a namespace prefix.
type KnowledgeBase struct {
	ID      string  `toml:"-"`
	Prefix  string  `toml:"prefix"`
	Buckets Buckets `toml:"buckets"`
}

// DocumentIdentity uniquely names one ingested artifact's derived data.
// An empty KnowledgeBaseID denotes a single-document upload.
type DocumentIdentity struct {
	KnowledgeBaseID string
	Key             string
}

// String renders the identity as "kb/key", using the single upload prefix
// when no knowledge base is set.
func (d DocumentIdentity) String() string {
	kb := d.KnowledgeBaseID
	if kb == "" {
		kb = SingleUploadPrefix
	}
	return kb + "/" + d.Key
}

// Chunk is a contiguous window of source text sized for embedding.
type Chunk struct {
	Id     ID
	Source DocumentIdentity
	Text   string
}

// JobStatus is the lifecycle state of a transcription job.
type JobStatus int

const (
	JobStatusSubmitted JobStatus = iota + 1
	JobStatusInProgress
	JobStatusCompleted
	JobStatusFailed
	JobStatusTimedOut
)

func (s JobStatus) String() string {
	switch s {
	case JobStatusSubmitted:
		return "SUBMITTED"
	case JobStatusInProgress:
		return "IN_PROGRESS"
	case JobStatusCompleted:
		return "COMPLETED"
	case JobStatusFailed:
		return "FAILED"
	case JobStatusTimedOut:
		return "TIMED_OUT"
	default:
		return "UNKNOWN"
	}
}

// Terminal reports whether no further transitions are possible.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed || s == JobStatusTimedOut
}

// TranscriptionJob tracks one asynchronous speech-to-text request.
type TranscriptionJob struct {
	Name           string
	Document       DocumentIdentity
	SourceMediaURI string
	OutputLocation string
	Status         JobStatus
	AttemptCount   int
	FailureReason  string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Resolver looks up knowledge base configuration by id. The empty id
// resolves to the single-upload namespace.
type Resolver interface {
	Resolve(id string) (*KnowledgeBase, error)
}
