package ai

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

type echoGenerator struct {
	calls int
}

func (g *echoGenerator) Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	g.calls++
	return prompt, nil
}

func TestNewRateLimitedGenerator_Disabled(t *testing.T) {
	next := &echoGenerator{}
	g := NewRateLimitedGenerator(next, 0)
	assert.Same(t, next, g)
}

func TestRateLimitedGenerator_Delegates(t *testing.T) {
	next := &echoGenerator{}
	g := NewRateLimitedGenerator(next, 1000)

	out, err := g.Generate(context.Background(), "hello", GenerateOptions{})
	require.NoError(t, err)
	assert.Equal(t, "hello", out)
	assert.Equal(t, 1, next.calls)
}

func TestRateLimitedGenerator_ContextCanceled(t *testing.T) {
	next := &echoGenerator{}
	g := NewRateLimitedGenerator(next, 0.001)

	// First call consumes the only token.
	_, err := g.Generate(context.Background(), "first", GenerateOptions{})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = g.Generate(ctx, "second", GenerateOptions{})
	require.Error(t, err)
	assert.Equal(t, 1, next.calls)
}

func TestIsRateLimited(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"sentinel", ErrRateLimited, true},
		{"wrapped sentinel", fmt.Errorf("bedrock: %w", ErrRateLimited), true},
		{"langchaingo rate limit", llms.NewError(llms.ErrCodeRateLimit, "bedrock", "slow down"), true},
		{"other langchaingo error", llms.NewError(llms.ErrCodeAuthentication, "bedrock", "denied"), false},
		{"plain error", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRateLimited(tt.err))
		})
	}
}

func TestGenerateOptions_CallOptions(t *testing.T) {
	assert.Empty(t, GenerateOptions{}.CallOptions())
	assert.Len(t, GenerateOptions{MaxTokens: 2048, Temperature: 0.5, TopP: 1}.CallOptions(), 3)

	var o llms.CallOptions
	for _, opt := range (GenerateOptions{MaxTokens: 10, Temperature: 0.4, TopP: 1}).CallOptions() {
		opt(&o)
	}
	assert.Equal(t, 10, o.MaxTokens)
	assert.Equal(t, 0.4, o.Temperature)
	assert.Equal(t, 1.0, o.TopP)
}
