package mock

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dot(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

func TestBagOfWords(t *testing.T) {
	a := BagOfWords("Action: finance to send numbers by Friday.", 4096)
	b := BagOfWords("What is the action item?", 4096)
	c := BagOfWords("zebra", 4096)

	assert.Len(t, a, 4096)
	assert.InDelta(t, 1.0, dot(a, a), 1e-5)
	assert.Greater(t, dot(a, b), dot(a, c))
	assert.Equal(t, a, BagOfWords("action FINANCE to send numbers by friday", 4096))
}

func TestBagOfWords_Empty(t *testing.T) {
	v := BagOfWords("  ...  ", 8)
	assert.Equal(t, make([]float32, 8), v)
}

func TestMockEmbedder(t *testing.T) {
	ctx := context.Background()
	m := NewMockEmbedder()

	v, err := m.EmbedText(ctx, "hello")
	require.NoError(t, err)
	assert.Len(t, v, DefaultDimensions)

	vs, err := m.EmbedTexts(ctx, []string{"a", "b"})
	require.NoError(t, err)
	assert.Len(t, vs, 2)
	assert.Equal(t, 2, m.CallCount())
	assert.Equal(t, DefaultModel, m.Model())

	m.ModelName = "other"
	assert.Equal(t, "other", m.Model())

	m.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return []float32{1}, nil
	}
	v, err = m.EmbedText(ctx, "x")
	require.NoError(t, err)
	assert.Equal(t, []float32{1}, v)

	m.Reset()
	assert.Equal(t, 0, m.CallCount())
	assert.Nil(t, m.EmbedTextFunc)
}

func TestMockProvider(t *testing.T) {
	p := NewMockProvider().(*MockProvider)
	out, err := p.Generator().Generate(context.Background(), "prompt", p.GetMockGenerator().LastOptions())
	require.NoError(t, err)
	assert.Equal(t, "mock answer", out)
	assert.Equal(t, "prompt", p.GetMockGenerator().LastPrompt())
	assert.Same(t, p.GetMockEmbedder(), p.Embedder())
	assert.NoError(t, p.Close())
}
