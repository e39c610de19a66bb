package bedrock

import (
	"context"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/poiesic/meetkb/ai"
	"github.com/tmc/langchaingo/embeddings/bedrock"
	llmbedrock "github.com/tmc/langchaingo/llms/bedrock"
)

// Embedder implements ai.Embedder with Bedrock embedding models.
type Embedder struct {
	embedder *bedrock.Bedrock
	model    string
	logger   *slog.Logger
}

var _ ai.Embedder = (*Embedder)(nil)

func newEmbedder(config *ai.Config, client *bedrockruntime.Client) (*Embedder, error) {
	embedder, err := bedrock.NewBedrock(
		bedrock.WithModel(config.EmbeddingModel),
		bedrock.WithClient(client),
		bedrock.WithStripNewLines(true),
	)
	if err != nil {
		return nil, err
	}
	return &Embedder{
		embedder: embedder,
		model:    config.EmbeddingModel,
		logger:   slog.Default().With("component", "bedrock-embedder"),
	}, nil
}

// EmbedText generates a vector embedding for a single text string.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	e.logger.Debug("generating embedding for single text", "length", len(text))

	vector, err := e.embedder.EmbedQuery(ctx, text)
	if err != nil {
		e.logger.Error("failed to generate embedding", "err", err)
		return nil, llmbedrock.MapError(err)
	}
	return vector, nil
}

// EmbedTexts generates vector embeddings for multiple text strings.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	e.logger.Debug("generating embeddings for texts", "count", len(texts))

	vectors, err := e.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		e.logger.Error("failed to generate embeddings", "count", len(texts), "err", err)
		return nil, llmbedrock.MapError(err)
	}
	return vectors, nil
}

// Model returns the configured embedding model id.
func (e *Embedder) Model() string {
	return e.model
}
