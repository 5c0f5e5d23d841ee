package embedding

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unirag/campus-rag/config"
)

func TestOpenAIProvider(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "расписание группы 4318", req["input"])
		assert.Equal(t, "text-embedding-3-small", req["model"])
		assert.EqualValues(t, 3, req["dimensions"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"object":"list","model":"text-embedding-3-small",
			"data":[{"object":"embedding","index":0,"embedding":[0.5,-0.25,1]}],
			"usage":{"prompt_tokens":4,"total_tokens":4}}`)
	}))
	defer srv.Close()

	p := NewOpenAIProvider(config.EmbeddingConfig{
		APIKey:     "sk-test",
		BaseURL:    srv.URL + "/v1/",
		Model:      "text-embedding-3-small",
		Dimensions: 3,
	})
	vec, err := p.GetEmbedding(context.Background(), "расписание группы 4318")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, -0.25, 1}, vec)
}

func TestNewProvider_Unsupported(t *testing.T) {
	_, err := NewProvider(config.EmbeddingConfig{Provider: "dashscope"})
	assert.Error(t, err)
}

type countingProvider struct {
	calls int32
	err   error
}

func (c *countingProvider) GetEmbedding(ctx context.Context, text string) ([]float32, error) {
	atomic.AddInt32(&c.calls, 1)
	if c.err != nil {
		return nil, c.err
	}
	return []float32{float32(len(text)), 1}, nil
}

func TestCachedProvider(t *testing.T) {
	inner := &countingProvider{}
	p := NewCachedProvider(inner, "m", 8, time.Minute)

	a, err := p.GetEmbedding(context.Background(), "Group 4318")
	require.NoError(t, err)
	a[0] = 99 // callers must not be able to corrupt the cache

	b, err := p.GetEmbedding(context.Background(), "Group 4318")
	require.NoError(t, err)
	assert.Equal(t, []float32{10, 1}, b)
	assert.EqualValues(t, 1, atomic.LoadInt32(&inner.calls))

	_, err = p.GetEmbedding(context.Background(), "group 4318")
	require.NoError(t, err)
	assert.EqualValues(t, 2, atomic.LoadInt32(&inner.calls), "embeddings are case-sensitive")
}

func TestCachedProvider_ErrorsAreNotCached(t *testing.T) {
	inner := &countingProvider{err: errors.New("rate limited")}
	p := NewCachedProvider(inner, "m", 8, time.Minute)
	for i := 0; i < 2; i++ {
		_, err := p.GetEmbedding(context.Background(), "q")
		assert.Error(t, err)
	}
	assert.EqualValues(t, 2, atomic.LoadInt32(&inner.calls))
}
