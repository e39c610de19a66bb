// Package chunking splits transcripts into overlapping windows sized for
// embedding.
package chunking

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/textsplitter"
)

// ErrInvalidPreset indicates a size/overlap pair the splitter cannot honor.
var ErrInvalidPreset = errors.New("invalid chunk preset")

// Preset is a window size and overlap, both measured in runes.
type Preset struct {
	Size    int
	Overlap int
}

var (
	// ContextPreset is used when a transcript is indexed together with its summary.
	ContextPreset = Preset{Size: 500, Overlap: 50}

	// TranscriptPreset is used when only the transcript is indexed.
	TranscriptPreset = Preset{Size: 1000, Overlap: 200}
)

// Validate requires a positive size and an overlap smaller than it.
func (p Preset) Validate() error {
	if p.Size <= 0 {
		return fmt.Errorf("%w: size must be positive, got %d", ErrInvalidPreset, p.Size)
	}
	if p.Overlap < 0 || p.Overlap >= p.Size {
		return fmt.Errorf("%w: overlap %d must be in [0, %d)", ErrInvalidPreset, p.Overlap, p.Size)
	}
	return nil
}

// Chunker splits text with langchaingo's recursive character splitter,
// preferring paragraph, then line, then word boundaries.
type Chunker struct {
	preset   Preset
	splitter textsplitter.TextSplitter
}

// New creates a Chunker for preset.
func New(preset Preset) (*Chunker, error) {
	if err := preset.Validate(); err != nil {
		return nil, err
	}
	return &Chunker{
		preset: preset,
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(preset.Size),
			textsplitter.WithChunkOverlap(preset.Overlap),
		),
	}, nil
}

// Preset returns the chunker's window configuration.
func (c *Chunker) Preset() Preset {
	return c.preset
}

// Chunk splits text into ordered windows. Empty or whitespace-only input
// yields no chunks. Output is deterministic for a given input.
func (c *Chunker) Chunk(text string) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	parts, err := c.splitter.SplitText(text)
	if err != nil {
		return nil, fmt.Errorf("split text: %w", err)
	}
	chunks := parts[:0]
	for _, part := range parts {
		if strings.TrimSpace(part) != "" {
			chunks = append(chunks, part)
		}
	}
	return chunks, nil
}
