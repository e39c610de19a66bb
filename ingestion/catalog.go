package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"slices"
	"strings"

	"github.com/poiesic/meetkb/core"
	"github.com/poiesic/meetkb/storage"
)

// SummaryEntry is one summary in a knowledge base listing.
type SummaryEntry struct {
	RecordingID     string `json:"recording_id"`
	Title           string `json:"title"`
	SummaryMarkdown string `json:"summary_markdown"`
	TranscriptURL   string `json:"transcript_url"`
	VideoURL        string `json:"video_url"`
}

// Catalog lists the documents a knowledge base holds.
type Catalog struct {
	objects storage.ObjectStore
	kbs     core.Resolver
	logger  *slog.Logger
}

// NewCatalog creates a Catalog.
func NewCatalog(objects storage.ObjectStore, kbs core.Resolver) (*Catalog, error) {
	if objects == nil {
		return nil, ErrObjectStoreRequired
	}
	if kbs == nil {
		return nil, ErrResolverRequired
	}
	return &Catalog{
		objects: objects,
		kbs:     kbs,
		logger:  slog.Default().With("component", "catalog"),
	}, nil
}

// ListFiles returns the sorted keys of documents that have an index or a
// transcript in kbID.
func (c *Catalog) ListFiles(ctx context.Context, kbID string) ([]string, error) {
	kb, err := c.kbs.Resolve(kbID)
	if err != nil {
		return nil, err
	}

	sources := []struct {
		bucket string
		ext    string
	}{
		{kb.Buckets.Embeddings, ".index." + storage.IndexVectorsSuffix},
		{kb.Buckets.Transcripts, storage.TranscriptExt},
	}

	seen := make(map[string]bool)
	for _, src := range sources {
		objects, err := c.objects.ListObjects(ctx, src.bucket, kb.Prefix+"/")
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", src.bucket, err)
		}
		for _, obj := range objects {
			if key, ok := storage.DocumentKeyFromObject(kb.Prefix, obj, src.ext); ok {
				seen[path.Base(key)] = true
			}
		}
	}

	files := make([]string, 0, len(seen))
	for key := range seen {
		files = append(files, key)
	}
	slices.Sort(files)
	return files, nil
}

// ListSummaries returns every .md or .txt summary in kbID with links to its
// transcript and video. A file named "{recording}_{title words}" is split
// into its recording id and a space-separated title.
func (c *Catalog) ListSummaries(ctx context.Context, kbID string) ([]SummaryEntry, error) {
	kb, err := c.kbs.Resolve(kbID)
	if err != nil {
		return nil, err
	}
	bucket := kb.Buckets.Summaries

	objects, err := c.objects.ListObjects(ctx, bucket, kb.Prefix+"/")
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", bucket, err)
	}

	entries := make([]SummaryEntry, 0, len(objects))
	for _, obj := range objects {
		fileID := path.Base(obj)
		var ok bool
		if fileID, ok = trimAnySuffix(fileID, storage.SummaryExt, storage.TranscriptExt); !ok {
			continue
		}

		data, err := c.objects.GetObject(ctx, bucket, obj)
		if err != nil {
			return nil, fmt.Errorf("read summary %s: %w", obj, err)
		}

		recordingID, title := fileID, fileID
		if parts := strings.Split(fileID, "_"); len(parts) > 1 {
			recordingID = parts[0]
			title = strings.Join(parts[1:], " ")
		}

		entries = append(entries, SummaryEntry{
			RecordingID:     recordingID,
			Title:           title,
			SummaryMarkdown: string(data),
			TranscriptURL:   objectURL(kb.Buckets.Transcripts, kb.Prefix, fileID+storage.TranscriptExt),
			VideoURL:        objectURL(kb.Buckets.Uploads, kb.Prefix, fileID+storage.VideoExt),
		})
	}
	c.logger.Debug("listed summaries", "kb", kbID, "count", len(entries))
	return entries, nil
}

func trimAnySuffix(s string, suffixes ...string) (string, bool) {
	for _, suffix := range suffixes {
		if trimmed, ok := strings.CutSuffix(s, suffix); ok {
			return trimmed, true
		}
	}
	return s, false
}

func objectURL(bucket, prefix, name string) string {
	return "https://" + bucket + ".s3.amazonaws.com/" + prefix + "/" + name
}
