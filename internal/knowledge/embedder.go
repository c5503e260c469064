package knowledge

import (
	"context"

	"github.com/firebase/genkit/go/ai"
)

// Embed turns text into a vector using the configured embedding model.
//
// The caller must ensure text is non-empty; this helper does not validate.
// A provider failure is reported as *EmbeddingError. A provider that
// answers with no embeddings yields a nil vector and no error.
func Embed(ctx context.Context, embedder ai.Embedder, text string) ([]float32, error) {
	resp, err := embedder.Embed(ctx, &ai.EmbedRequest{
		Input: []*ai.Document{
			ai.DocumentFromText(text, nil),
		},
	})
	if err != nil {
		return nil, &EmbeddingError{Err: err}
	}

	if len(resp.Embeddings) == 0 {
		return nil, nil
	}
	return resp.Embeddings[0].Embedding, nil
}
