package openai

import (
	"testing"

	"github.com/poiesic/meetkb/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProvider(t *testing.T) {
	provider, err := NewProvider(ai.DefaultOpenAIConfig())
	require.NoError(t, err)
	defer provider.Close()

	assert.Equal(t, "embeddinggemma", provider.Embedder().Model())
	_, ok := provider.Generator().(*ai.ModelGenerator)
	assert.True(t, ok, "generator should not be rate limited by default")
}

func TestNewProvider_InvalidConfig(t *testing.T) {
	cfg := ai.DefaultOpenAIConfig()
	cfg.GenerationModel = ""

	_, err := NewProvider(cfg)
	assert.Error(t, err)
}

func TestNewEmbedder(t *testing.T) {
	embedder, err := NewEmbedder(ai.DefaultOpenAIConfig())
	require.NoError(t, err)
	assert.Equal(t, "embeddinggemma", embedder.Model())
}
