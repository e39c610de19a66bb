package ai

import (
	"errors"

	"github.com/tmc/langchaingo/llms"
)

var (
	// ErrRateLimited indicates the generation service throttled the request.
	ErrRateLimited = errors.New("generation service rate limited")

	// ErrEmptyResponse indicates the model returned no choices.
	ErrEmptyResponse = errors.New("model returned an empty response")

	// ErrUnknownProviderKind indicates an unsupported Config.Kind.
	ErrUnknownProviderKind = errors.New("unknown provider kind")
)

// IsRateLimited reports whether err signals throttling, either through
// ErrRateLimited or a langchaingo rate limit error.
func IsRateLimited(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrRateLimited) || llms.IsRateLimitError(err)
}
