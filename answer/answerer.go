package answer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/meetkb/ai"
	"github.com/poiesic/meetkb/vectorindex"
)

// DefaultK is how many chunks are retrieved per question.
const DefaultK = 5

// GenerateOptions are the decoding settings for answers.
var GenerateOptions = ai.GenerateOptions{
	MaxTokens:   2048,
	Temperature: 0.5,
	TopP:        1.0,
}

// Searchable is an index that can be queried with text.
// *vectorindex.Index implements it.
type Searchable interface {
	SearchText(ctx context.Context, embedder ai.Embedder, text string, k int) ([]vectorindex.Match, error)
}

var _ Searchable = (*vectorindex.Index)(nil)

// Answerer answers questions from a summary plus retrieved transcript context.
type Answerer struct {
	embedder  ai.Embedder
	generator ai.Generator
	k         int
	logger    *slog.Logger
}

// Option configures an Answerer.
type Option func(*Answerer) error

// WithK sets how many chunks are retrieved.
// Default is DefaultK.
func WithK(k int) Option {
	return func(a *Answerer) error {
		if k < 1 {
			return fmt.Errorf("k must be positive, got %d", k)
		}
		a.k = k
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(a *Answerer) error {
		if logger == nil {
			logger = slog.Default()
		}
		a.logger = logger
		return nil
	}
}

// NewAnswerer creates an Answerer using the provider's embedder and generator.
func NewAnswerer(embedder ai.Embedder, generator ai.Generator, opts ...Option) (*Answerer, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if generator == nil {
		return nil, ErrGeneratorRequired
	}

	a := &Answerer{
		embedder:  embedder,
		generator: generator,
		k:         DefaultK,
		logger:    slog.Default().With("component", "answerer"),
	}

	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, err
		}
	}

	return a, nil
}

// Answer answers question using summary and the chunks of idx most similar
// to it.
func (a *Answerer) Answer(ctx context.Context, summary string, idx Searchable, question string) Result {
	return a.AnswerWithMonitor(ctx, summary, idx, question, nil)
}

// AnswerWithMonitor answers like Answer, reporting each stage to monitor.
func (a *Answerer) AnswerWithMonitor(ctx context.Context, summary string, idx Searchable, question string, monitor Monitor) Result {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	monitor.Start(question)

	result := a.answer(ctx, summary, idx, question, monitor)
	if !result.OK {
		a.logger.Error("failed to answer question", "kind", result.ErrorKind, "err", result.Err)
	}
	monitor.Finish(result)
	return result
}

func (a *Answerer) answer(ctx context.Context, summary string, idx Searchable, question string, monitor Monitor) Result {
	if idx == nil {
		return failed(ErrorKindRetrieval, ErrNoIndex)
	}

	// 1. Retrieve context
	matches, err := idx.SearchText(ctx, a.embedder, question, a.k)
	if err != nil {
		return failed(ErrorKindRetrieval, fmt.Errorf("retrieve context: %w", err))
	}
	monitor.AfterRetrieval(matches)
	a.logger.Debug("retrieved context", "matches", len(matches), "k", a.k)

	// 2. Generate
	prompt := buildPrompt(summary, buildContext(matches), question)
	monitor.BeforeGeneration(prompt)

	text, err := a.generator.Generate(ctx, prompt, GenerateOptions)
	if err != nil {
		if ai.IsRateLimited(err) {
			return failed(ErrorKindRateLimited, err)
		}
		return failed(ErrorKindGeneration, err)
	}
	return Result{OK: true, Text: text}
}
