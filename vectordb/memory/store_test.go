package memory

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unirag/campus-rag/vectordb"
)

func TestScan_Paginates(t *testing.T) {
	s := New()
	for _, id := range []string{"1", "2", "3", "4", "5"} {
		s.Upsert("c", Record{ID: id, Payload: map[string]any{"n": id}})
	}
	filter := vectordb.Or{
		vectordb.Match{Field: "n", Value: "1"},
		vectordb.Match{Field: "n", Value: "4"},
		vectordb.Match{Field: "n", Value: "5"},
	}

	var ids []string
	token := ""
	pages := 0
	for {
		page, next, err := s.Scan(context.Background(), "c", filter, 2, token)
		require.NoError(t, err)
		pages++
		for _, p := range page {
			ids = append(ids, p.ID)
		}
		if next == "" {
			break
		}
		token = next
	}
	assert.Equal(t, []string{"1", "4", "5"}, ids)
	assert.Equal(t, 2, pages)
}

func TestSimilaritySearch(t *testing.T) {
	s := New()
	s.Upsert("c",
		Record{ID: "x", Vector: []float32{1, 0}},
		Record{ID: "y", Vector: []float32{0.7, 0.7}},
		Record{ID: "z", Vector: []float32{0, 1}},
	)
	hits, err := s.SimilaritySearch(context.Background(), "c", []float32{1, 0.1}, 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "x", hits[0].ID)
	assert.Equal(t, "y", hits[1].ID)
	assert.Greater(t, hits[0].Score, hits[1].Score)
}

func TestUnknownCollectionAndCancel(t *testing.T) {
	s := New()
	_, err := s.SimilaritySearch(context.Background(), "missing", []float32{1}, 1)
	assert.ErrorIs(t, err, vectordb.ErrCollectionNotFound)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err = s.Scan(ctx, "missing", nil, 10, "")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestUpsertReplaces(t *testing.T) {
	s := New()
	s.Upsert("c", Record{ID: "a", Payload: map[string]any{"v": "1"}})
	s.Upsert("c", Record{ID: "a", Payload: map[string]any{"v": "2"}})
	page, next, err := s.Scan(context.Background(), "c", nil, 10, "")
	require.NoError(t, err)
	assert.Empty(t, next)
	require.Len(t, page, 1)
	assert.Equal(t, "2", page[0].Payload["v"])
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"text_embeddings":[{"id":"1","vector":[1,0],"payload":{"text":"hello"}}]}`), 0o600))
	s, err := LoadFile(path)
	require.NoError(t, err)
	hits, err := s.SimilaritySearch(context.Background(), "text_embeddings", []float32{1, 0}, 5)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "hello", hits[0].Payload["text"])
}
