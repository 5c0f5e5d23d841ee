package retriever

import (
	"context"
	"time"

	"github.com/unirag/campus-rag/vectordb"
)

// VectorRetriever implements Retriever for a single collection.
type VectorRetriever struct {
	Store      vectordb.Provider
	Collection string
	// Timeout bounds each store call; zero leaves the caller's deadline.
	Timeout time.Duration
	// Threshold drops hits scoring below it.
	Threshold float64
}

func (r *VectorRetriever) Type() string { return r.Collection }

func (r *VectorRetriever) Search(ctx context.Context, vector []float32, topK int) ([]DocumentHit, error) {
	if topK <= 0 {
		topK = 10
	}
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}
	hits, err := r.Store.SimilaritySearch(ctx, r.Collection, vector, topK)
	if err != nil {
		return nil, err
	}
	docs := make([]DocumentHit, 0, len(hits))
	for _, h := range hits {
		if r.Threshold > 0 && h.Score < r.Threshold {
			continue
		}
		docs = append(docs, vectordb.DocumentFromHit(r.Collection, h))
	}
	return docs, nil
}
