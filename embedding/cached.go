package embedding

import (
	"context"
	"time"

	"github.com/unirag/campus-rag/cache"
)

// CachedProvider memoises embeddings of byte-identical texts.
type CachedProvider struct {
	inner Provider
	cache cache.Cache[[]float32]
	ttl   time.Duration
	ns    string
}

// NewCachedProvider wraps inner with an LRU of the given capacity. The
// namespace separates models that share one process.
func NewCachedProvider(inner Provider, namespace string, capacity int, ttl time.Duration) *CachedProvider {
	return &CachedProvider{
		inner: inner,
		cache: cache.NewLRU[[]float32](capacity, ttl),
		ttl:   ttl,
		ns:    "embedding:" + namespace,
	}
}

func (p *CachedProvider) GetEmbedding(ctx context.Context, text string) ([]float32, error) {
	key := cache.Key(p.ns, text)
	if v, ok := p.cache.Get(key); ok {
		return clone(v), nil
	}
	vec, err := p.inner.GetEmbedding(ctx, text)
	if err != nil {
		return nil, err
	}
	p.cache.Set(key, clone(vec), p.ttl)
	return vec, nil
}

func clone(v []float32) []float32 {
	out := make([]float32, len(v))
	copy(out, v)
	return out
}
