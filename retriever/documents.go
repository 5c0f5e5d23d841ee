package retriever

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"

	"github.com/unirag/campus-rag/common/logger"
	"github.com/unirag/campus-rag/config"
	"github.com/unirag/campus-rag/embedding"
	"github.com/unirag/campus-rag/fusion"
	"github.com/unirag/campus-rag/metrics"
	"github.com/unirag/campus-rag/vectordb"
)

// DocumentRetriever runs one similarity search per configured collection and
// merges the hits.
type DocumentRetriever struct {
	Embed      embedding.Provider
	Retrievers []Retriever // in collection configuration order
	Fusion     fusion.Strategy
}

// NewDocumentRetriever builds one VectorRetriever per document collection.
func NewDocumentRetriever(store vectordb.Provider, embed embedding.Provider, cfg *config.Config) (*DocumentRetriever, error) {
	strategy, err := fusion.NewStrategy(cfg.Retrieval.Fusion, cfg.Retrieval.RRFK)
	if err != nil {
		return nil, err
	}
	rs := make([]Retriever, 0, len(cfg.Collections.Documents))
	for _, name := range cfg.Collections.Documents {
		rs = append(rs, &VectorRetriever{
			Store:      store,
			Collection: name,
			Timeout:    cfg.Retrieval.StoreTimeout(),
			Threshold:  cfg.Retrieval.Threshold,
		})
	}
	return &DocumentRetriever{Embed: embed, Retrievers: rs, Fusion: strategy}, nil
}

// Search embeds the question once and searches all collections
// concurrently. The merged order depends only on configuration order and
// scores, never on completion order. A failing collection is skipped.
func (r *DocumentRetriever) Search(ctx context.Context, question string, topK int) DocumentResult {
	start := time.Now()
	res := DocumentResult{Documents: []DocumentHit{}}
	if topK <= 0 {
		topK = 5
	}
	if len(r.Retrievers) == 0 {
		res.Status = StatusEmpty
		return res
	}

	vec, err := r.Embed.GetEmbedding(ctx, question)
	if err != nil {
		logger.Warnf("documents: embedding failed: %v", err)
		res.Err = err
		res.Status = StatusFailed
		metrics.ObserveRetrieval("documents", string(res.Status), start, 0)
		return res
	}

	lists := make([][]DocumentHit, len(r.Retrievers))
	errs := make([]error, len(r.Retrievers))
	var g errgroup.Group
	for i, ret := range r.Retrievers {
		i, ret := i, ret
		g.Go(func() error {
			callStart := time.Now()
			docs, err := ret.Search(ctx, vec, topK)
			if err != nil {
				errs[i] = fmt.Errorf("%s: %w", ret.Type(), err)
				return nil
			}
			lists[i] = docs
			logger.Debugf("documents: %s returned %d hits in %v", ret.Type(), len(docs), time.Since(callStart))
			return nil
		})
	}
	_ = g.Wait()

	var failed *multierror.Error
	for i, err := range errs {
		if err == nil {
			continue
		}
		failed = multierror.Append(failed, err)
		name := r.Retrievers[i].Type()
		res.FailedCollections = append(res.FailedCollections, name)
		metrics.IncCollectionError(name)
		logger.Warnf("documents: skipping collection %s: %v", name, err)
	}

	strategy := r.Fusion
	if strategy == nil {
		strategy = fusion.DedupStrategy{}
	}
	merged := strategy.Fuse(lists)
	if len(merged) > topK {
		merged = merged[:topK]
	}
	res.Documents = merged
	res.Err = failed.ErrorOrNil()

	switch {
	case len(res.FailedCollections) == len(r.Retrievers):
		res.Status = StatusFailed
	case len(res.FailedCollections) > 0:
		res.Status = StatusPartial
	default:
		res.Status = statusOf(len(merged), nil)
	}
	metrics.ObserveRetrieval("documents", string(res.Status), start, len(merged))
	if res.Status == StatusPartial {
		logger.Infof("documents: partial result from %s", strings.Join(res.FailedCollections, ","))
	}
	return res
}
