package ai

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// RateLimitedGenerator waits on a token bucket before delegating each call.
type RateLimitedGenerator struct {
	next    Generator
	limiter *rate.Limiter
}

var _ Generator = (*RateLimitedGenerator)(nil)

// NewRateLimitedGenerator wraps next with a limiter allowing rps calls per
// second and a burst of one. A non-positive rps returns next unchanged.
func NewRateLimitedGenerator(next Generator, rps float64) Generator {
	if rps <= 0 {
		return next
	}
	return &RateLimitedGenerator{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
	}
}

// Generate blocks until a token is available or ctx is done.
func (g *RateLimitedGenerator) Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}
	return g.next.Generate(ctx, prompt, opts)
}
