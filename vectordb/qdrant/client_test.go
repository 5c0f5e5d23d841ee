package qdrant

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unirag/campus-rag/config"
	"github.com/unirag/campus-rag/vectordb"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	port, _ := strconv.Atoi(u.Port())
	return New(config.VectorDBConfig{Host: u.Hostname(), Port: port, APIKey: "secret"},
		&config.HTTPClientConfig{TimeoutMs: 2000, Retry: 1, BackoffMinMs: 1, BackoffMaxMs: 2})
}

func TestCompile(t *testing.T) {
	e := vectordb.And{
		vectordb.Any{Field: "metadata.groups", Values: []string{"4318"}},
		vectordb.Or{
			vectordb.Text{Field: "metadata.room", Value: "52-17"},
			vectordb.Text{Field: "metadata.room", Value: "5217"},
		},
	}
	data, err := json.Marshal(Compile(e))
	require.NoError(t, err)
	assert.JSONEq(t, `{"must":[
		{"key":"metadata.groups","match":{"any":["4318"]}},
		{"should":[
			{"key":"metadata.room","match":{"text":"52-17"}},
			{"key":"metadata.room","match":{"text":"5217"}}
		]}
	]}`, string(data))

	data, err = json.Marshal(Compile(vectordb.Match{Field: "type", Value: "schedule"}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"must":[{"key":"type","match":{"value":"schedule"}}]}`, string(data))

	assert.Nil(t, Compile(nil))
}

func TestSimilaritySearch(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/collections/text_embeddings/points/search", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("api-key"))
		var req searchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, 3, req.Limit)
		assert.True(t, req.WithPayload)
		_, _ = io.WriteString(w, `{"result":[
			{"id":42,"score":0.9,"payload":{"text":"a"}},
			{"id":"9b2f6c1e-0000-4000-8000-000000000001","score":0.5,"payload":{"text":"b"}}
		],"status":"ok"}`)
	})

	hits, err := c.SimilaritySearch(context.Background(), "text_embeddings", []float32{0.1, 0.2}, 3)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "42", hits[0].ID)
	assert.Equal(t, "9b2f6c1e-0000-4000-8000-000000000001", hits[1].ID)
	assert.Equal(t, "a", hits[0].Payload["text"])
}

func TestScan_FollowsOffsets(t *testing.T) {
	var offsets []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/collections/schedules_embeddings/points/scroll", r.URL.Path)
		var req map[string]json.RawMessage
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		offsets = append(offsets, string(req["offset"]))
		assert.JSONEq(t, `{"must":[{"key":"metadata.day","match":{"text":"Monday"}}]}`, string(req["filter"]))

		if req["offset"] == nil {
			_, _ = io.WriteString(w, `{"result":{"points":[{"id":1,"payload":{"n":1}}],"next_page_offset":7}}`)
			return
		}
		_, _ = io.WriteString(w, `{"result":{"points":[{"id":7,"payload":{"n":2}}],"next_page_offset":null}}`)
	})

	filter := vectordb.Text{Field: "metadata.day", Value: "Monday"}
	page, next, err := c.Scan(context.Background(), "schedules_embeddings", filter, 500, "")
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "7", next)

	page, next, err = c.Scan(context.Background(), "schedules_embeddings", filter, 500, next)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "7", page[0].ID)
	assert.Empty(t, next)
	assert.Equal(t, []string{"", "7"}, offsets)
}

func TestNotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"status":{"error":"Not found: Collection missing"}}`, http.StatusNotFound)
	})
	_, err := c.SimilaritySearch(context.Background(), "missing", []float32{1}, 1)
	assert.ErrorIs(t, err, vectordb.ErrCollectionNotFound)
}

func TestScan_RejectsBadToken(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	})
	_, _, err := c.Scan(context.Background(), "c", nil, 10, "{broken")
	assert.Error(t, err)
}

func TestIDString(t *testing.T) {
	assert.Equal(t, "42", idString(json.RawMessage(`42`)))
	assert.Equal(t, "5c56c793-69f3-4fbf-87e6-c4bf54c28c26", idString(json.RawMessage(`"5c56c793-69f3-4fbf-87e6-c4bf54c28c26"`)))
}
