package meetkb

import (
	"context"
	"time"

	"github.com/poiesic/meetkb/ai"
)

// deadlineGenerator bounds every Generate call.
type deadlineGenerator struct {
	next    ai.Generator
	timeout time.Duration
}

func withGenerateTimeout(next ai.Generator, timeout time.Duration) ai.Generator {
	if timeout <= 0 {
		return next
	}
	return &deadlineGenerator{next: next, timeout: timeout}
}

func (g *deadlineGenerator) Generate(ctx context.Context, prompt string, opts ai.GenerateOptions) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	return g.next.Generate(ctx, prompt, opts)
}

// deadlineEmbedder bounds every embedding call made while building or
// querying an index.
type deadlineEmbedder struct {
	next    ai.Embedder
	timeout time.Duration
}

func withEmbedTimeout(next ai.Embedder, timeout time.Duration) ai.Embedder {
	if timeout <= 0 {
		return next
	}
	return &deadlineEmbedder{next: next, timeout: timeout}
}

func (e *deadlineEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	return e.next.EmbedText(ctx, text)
}

func (e *deadlineEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	return e.next.EmbedTexts(ctx, texts)
}

func (e *deadlineEmbedder) Model() string {
	return e.next.Model()
}

// withTimeout is context.WithTimeout that treats a zero timeout as none.
func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
