package similarity

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// EmbeddingDimensions is the vector width stored in the embeddings table.
const EmbeddingDimensions = 1536

// GeminiEmbedder produces ticket embeddings via the Gemini embedding
// models.
type GeminiEmbedder struct {
	client *genai.Client
	model  string
}

func NewGeminiEmbedder(client *genai.Client, model string) *GeminiEmbedder {
	if model == "" {
		model = "text-embedding-004"
	}
	return &GeminiEmbedder{client: client, model: model}
}

func (g *GeminiEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if g.client == nil {
		return nil, fmt.Errorf("gemini client not configured")
	}

	dims := int32(EmbeddingDimensions)
	resp, err := g.client.Models.EmbedContent(ctx, g.model,
		genai.Text(text),
		&genai.EmbedContentConfig{OutputDimensionality: &dims})
	if err != nil {
		return nil, fmt.Errorf("failed to embed content: %w", err)
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Values) == 0 {
		return nil, fmt.Errorf("embedding response was empty")
	}
	return resp.Embeddings[0].Values, nil
}
