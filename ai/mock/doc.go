// Package mock provides test double implementations of AI service interfaces.
//
// This package contains mock implementations of ai.Embedder, ai.Generator,
// and ai.Provider for use in unit tests. The mocks allow tests to run without
// external AI service dependencies and enable controlled, deterministic behavior.
//
// # Usage in Tests
//
//	// Basic usage with default behavior
//	mockProvider := mock.NewMockProvider()
//	embeddings, err := mockProvider.Embedder().EmbedText(ctx, "test")
//
//	// Custom behavior injection
//	gen := mock.NewMockGenerator("")
//	gen.GenerateFunc = func(ctx context.Context, prompt string, opts ai.GenerateOptions) (string, error) {
//	    return "", ai.ErrRateLimited
//	}
//
//	// Check call counts
//	count := gen.CallCount()
//
// # Default Behavior
//
//   - MockEmbedder: Returns unit bag-of-words vectors, so texts sharing words are similar
//   - MockGenerator: Returns a fixed response and records the last prompt
//   - MockProvider: Aggregates mock embedder and generator
package mock
