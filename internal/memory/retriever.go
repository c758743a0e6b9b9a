package memory

import (
	"context"
	"fmt"

	"github.com/hearthside/companion/internal/types"
)

// Retriever provides semantic search over a character's durable memories.
type Retriever struct {
	embedder            Embedder
	repo                Repo
	topK                int
	similarityThreshold float64
}

// NewRetriever creates a Retriever.
func NewRetriever(embedder Embedder, repo Repo, topK int, threshold float64) *Retriever {
	if topK <= 0 {
		topK = 5
	}
	if threshold <= 0 {
		threshold = 0.7
	}
	return &Retriever{
		embedder:            embedder,
		repo:                repo,
		topK:                topK,
		similarityThreshold: threshold,
	}
}

// Recall returns the top-k memories of one character for a query.
func (r *Retriever) Recall(ctx context.Context, characterID, query string) ([]types.RetrievedMemory, error) {
	if query == "" {
		return nil, nil
	}
	if r.embedder == nil || r.repo == nil {
		return nil, fmt.Errorf("retriever not properly configured")
	}

	vec, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, err
	}
	return r.repo.SearchSimilar(ctx, characterID, vec, r.topK, r.similarityThreshold)
}
