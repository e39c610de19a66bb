package storage

import (
	"strings"

	"github.com/poiesic/meetkb/core"
)

// Sub-artifact suffixes of a persisted vector index. Together with the
// ".index." infix they form an externally visible naming contract.
const (
	IndexVectorsSuffix  = "faiss"
	IndexDocstoreSuffix = "pkl"

	TranscriptExt = ".txt"
	SummaryExt    = ".md"
	VideoExt      = ".mp4"
)

// IndexSuffixes lists the sub-artifacts every complete index has.
var IndexSuffixes = []string{IndexVectorsSuffix, IndexDocstoreSuffix}

// TranscriptKey returns {prefix}/{key}.txt.
func TranscriptKey(prefix, key string) string {
	return prefix + "/" + key + TranscriptExt
}

// SummaryKey returns {prefix}/{key}.md.
func SummaryKey(prefix, key string) string {
	return prefix + "/" + key + SummaryExt
}

// IndexKey returns {prefix}/{key}.index.{suffix}.
func IndexKey(prefix, key, suffix string) string {
	return prefix + "/" + key + ".index." + suffix
}

// IndexLocalName is the name the index decoder expects for a downloaded
// sub-artifact, independent of where it was stored.
func IndexLocalName(suffix string) string {
	return "index." + suffix
}

// UploadKey returns {prefix}/{sanitized filename}.
func UploadKey(prefix, filename string) string {
	return prefix + "/" + core.SanitizeName(filename)
}

// DocumentKeyFromObject strips prefix/ and ext from an object key. ok is
// false when the object does not match.
func DocumentKeyFromObject(prefix, objectKey, ext string) (key string, ok bool) {
	rest, found := strings.CutPrefix(objectKey, prefix+"/")
	if !found {
		return "", false
	}
	key, found = strings.CutSuffix(rest, ext)
	if !found || key == "" {
		return "", false
	}
	return key, true
}
