package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestObjectKeys(t *testing.T) {
	assert.Equal(t, "sales/q3-review.txt", TranscriptKey("sales", "q3-review"))
	assert.Equal(t, "sales/q3-review.md", SummaryKey("sales", "q3-review"))
	assert.Equal(t, "sales/q3-review.index.faiss", IndexKey("sales", "q3-review", IndexVectorsSuffix))
	assert.Equal(t, "sales/q3-review.index.pkl", IndexKey("sales", "q3-review", IndexDocstoreSuffix))
	assert.Equal(t, "single-uploads/my-notes-.docx", UploadKey("single-uploads", "my notes!.docx"))
	assert.Equal(t, "index.faiss", IndexLocalName(IndexVectorsSuffix))
}

func TestDocumentKeyFromObject(t *testing.T) {
	tests := []struct {
		name      string
		objectKey string
		ext       string
		wantKey   string
		wantOK    bool
	}{
		{"transcript", "sales/standup.txt", ".txt", "standup", true},
		{"index", "sales/standup.index.faiss", ".index.faiss", "standup", true},
		{"other prefix", "hr/standup.txt", ".txt", "", false},
		{"wrong extension", "sales/standup.md", ".txt", "", false},
		{"bare extension", "sales/.txt", ".txt", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, ok := DocumentKeyFromObject("sales", tt.objectKey, tt.ext)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantKey, key)
		})
	}
}
