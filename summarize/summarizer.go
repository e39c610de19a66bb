// Package summarize turns meeting transcripts into structured markdown
// summaries.
package summarize

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/meetkb/ai"
)

var (
	// ErrGeneratorRequired is returned when a generator is not provided.
	ErrGeneratorRequired = errors.New("generator required")

	// ErrEmptyTranscript is returned when there is nothing to summarize.
	ErrEmptyTranscript = errors.New("transcript is empty")
)

// GenerateOptions are the decoding settings for summaries.
var GenerateOptions = ai.GenerateOptions{
	MaxTokens:   2048,
	Temperature: 0.4,
	TopP:        1.0,
}

const summaryPromptTemplate = `You are an assistant that writes meeting summaries as structured technical documentation.
From the meeting transcript below, extract:
- **Title** of the meeting (for example, Q3 Planning Readout)
- **Date** of the meeting
- **Purpose** of the meeting
- **Key Areas** discussed, as bullet points
- **Pain Points**, **Desired Functionality**, **Data Inputs/Outputs** and **Open Questions**, when mentioned
- **Process Flow** steps, if any were discussed

Format the whole response as markdown with headings and indentation.

%s`

// Summarizer produces markdown summaries with a single generation call.
type Summarizer struct {
	generator ai.Generator
	logger    *slog.Logger
}

// NewSummarizer creates a Summarizer.
func NewSummarizer(generator ai.Generator) (*Summarizer, error) {
	if generator == nil {
		return nil, ErrGeneratorRequired
	}
	return &Summarizer{
		generator: generator,
		logger:    slog.Default().With("component", "summarizer"),
	}, nil
}

// Summarize returns a markdown summary of transcript.
func (s *Summarizer) Summarize(ctx context.Context, transcript string) (string, error) {
	if strings.TrimSpace(transcript) == "" {
		return "", ErrEmptyTranscript
	}

	s.logger.Debug("summarizing transcript", "length", len(transcript))
	summary, err := s.generator.Generate(ctx, fmt.Sprintf(summaryPromptTemplate, transcript), GenerateOptions)
	if err != nil {
		s.logger.Error("failed to summarize transcript", "err", err)
		return "", fmt.Errorf("summarize: %w", err)
	}
	return strings.TrimSpace(summary), nil
}
