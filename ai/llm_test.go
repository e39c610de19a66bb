package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/fake"
)

func TestModelGenerator_Generate(t *testing.T) {
	g := NewModelGenerator(fake.NewFakeLLM([]string{"  finance sends numbers by Friday \n"}), nil)

	out, err := g.Generate(context.Background(), "What is the action item?", GenerateOptions{MaxTokens: 2048})
	require.NoError(t, err)
	assert.Equal(t, "finance sends numbers by Friday", out)
}

func TestModelGenerator_MapsErrors(t *testing.T) {
	throttled := errors.New("ThrottlingException: Too many requests")
	mapped := 0
	mapper := func(err error) error {
		mapped++
		return llms.NewError(llms.ErrCodeRateLimit, "test", "throttled").WithCause(err)
	}

	// A fake model with no responses always fails.
	g := NewModelGenerator(&failingModel{err: throttled}, mapper)

	_, err := g.Generate(context.Background(), "q", GenerateOptions{})
	require.Error(t, err)
	assert.Equal(t, 1, mapped)
	assert.True(t, IsRateLimited(err))
	assert.ErrorIs(t, err, throttled)
}

func TestModelGenerator_EmptyResponse(t *testing.T) {
	g := NewModelGenerator(&failingModel{}, nil)

	_, err := g.Generate(context.Background(), "q", GenerateOptions{})
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

type failingModel struct {
	err error
}

func (m *failingModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &llms.ContentResponse{}, nil
}

func (m *failingModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return "", m.err
}
