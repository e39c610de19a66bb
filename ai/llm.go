package ai

import (
	"context"
	"log/slog"
	"strings"

	"github.com/tmc/langchaingo/llms"
)

// ErrorMapper converts provider-specific errors into langchaingo errors.
type ErrorMapper func(error) error

// ModelGenerator adapts any langchaingo llms.Model to Generator.
type ModelGenerator struct {
	model    llms.Model
	mapError ErrorMapper
	logger   *slog.Logger
}

var _ Generator = (*ModelGenerator)(nil)

// NewModelGenerator wraps model. mapError may be nil when the model already
// returns classified errors.
func NewModelGenerator(model llms.Model, mapError ErrorMapper) *ModelGenerator {
	return &ModelGenerator{
		model:    model,
		mapError: mapError,
		logger:   slog.Default().With("component", "model-generator"),
	}
}

// Generate sends prompt as a single human message and returns the first choice.
func (g *ModelGenerator) Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	g.logger.Debug("generating completion", "prompt_length", len(prompt), "max_tokens", opts.MaxTokens)

	content := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}
	resp, err := g.model.GenerateContent(ctx, content, opts.CallOptions()...)
	if err != nil {
		if g.mapError != nil {
			err = g.mapError(err)
		}
		g.logger.Error("failed to generate content", "err", err)
		return "", err
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	return strings.TrimSpace(resp.Choices[0].Content), nil
}
