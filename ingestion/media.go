package ingestion

import (
	"path/filepath"
	"strings"
)

// MediaKind is the processing path an upload takes.
type MediaKind int

const (
	MediaUnknown MediaKind = iota
	MediaVideo
	MediaStructuredDocument
	MediaPlainText
)

func (k MediaKind) String() string {
	switch k {
	case MediaVideo:
		return "video"
	case MediaStructuredDocument:
		return "structured-document"
	case MediaPlainText:
		return "text"
	default:
		return "unknown"
	}
}

// Classify resolves an upload's kind from its final extension, case
// insensitively.
func Classify(filename string) MediaKind {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), ".")) {
	case "mp4", "mov", "avi":
		return MediaVideo
	case "docx":
		return MediaStructuredDocument
	case "txt", "vtt":
		return MediaPlainText
	default:
		return MediaUnknown
	}
}
