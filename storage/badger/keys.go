package badger

import (
	"fmt"
	"strings"
)

// Key prefixes for different data types
const (
	objectPrefix = "obj"
	jobPrefix    = "trjob"
)

// makeObjectKey generates the key for an object.
// Format: prefix:bucket:key
// Bucket names never contain ':', so the first two separators are unambiguous.
func makeObjectKey(bucket, key string) []byte {
	return []byte(fmt.Sprintf("%s:%s:%s", objectPrefix, bucket, key))
}

// makePartialObjectKey generates a partial key for listing objects in a
// bucket whose keys start with keyPrefix.
func makePartialObjectKey(bucket, keyPrefix string) []byte {
	return makeObjectKey(bucket, keyPrefix)
}

// objectKeyFromKey recovers the object key from a stored bucket key.
func objectKeyFromKey(bucket string, stored []byte) string {
	return strings.TrimPrefix(string(stored), fmt.Sprintf("%s:%s:", objectPrefix, bucket))
}

// makeJobKey generates a key for a transcription job record by name.
func makeJobKey(name string) []byte {
	return []byte(fmt.Sprintf("%s:%s", jobPrefix, name))
}

// makeJobPrefix generates the prefix shared by all job records.
func makeJobPrefix() []byte {
	return []byte(jobPrefix + ":")
}
