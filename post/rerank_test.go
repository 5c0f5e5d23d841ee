package post

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/unirag/campus-rag/config"
	"github.com/unirag/campus-rag/vectordb"
)

func TestModelReranker_Rerank(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req modelRerankReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
		}
		if r.Header.Get("Authorization") != "Bearer key" {
			t.Errorf("missing auth header")
		}
		// reversed order with increasing scores
		type item struct {
			Index          int     `json:"index"`
			RelevanceScore float64 `json:"relevance_score"`
		}
		out := struct {
			Results []item `json:"results"`
		}{}
		for i := len(req.Documents) - 1; i >= 0; i-- {
			out.Results = append(out.Results, item{Index: i, RelevanceScore: float64(i + 1)})
		}
		out.Results = append(out.Results, item{Index: 42, RelevanceScore: 99})
		_ = json.NewEncoder(w).Encode(out)
	}))
	defer srv.Close()

	rr := &ModelReranker{Endpoint: srv.URL, APIKey: "key"}
	in := []vectordb.Document{{ID: "a", Text: "x"}, {ID: "b", Text: "y"}}
	out, err := rr.Rerank(context.Background(), "q", in, 0)
	if err != nil {
		t.Fatalf("rerank error: %v", err)
	}
	if len(out) != 2 || out[0].ID != "b" || out[0].Score != 2 {
		t.Fatalf("unexpected order: %+v", out)
	}
}

func TestModelReranker_Passthrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad request", http.StatusBadRequest)
	}))
	defer srv.Close()

	in := []vectordb.Document{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	out, err := (&ModelReranker{Endpoint: srv.URL}).Rerank(context.Background(), "q", in, 2)
	if err == nil {
		t.Fatalf("expected error from failing service")
	}
	if len(out) != 2 || out[0].ID != "a" || out[1].ID != "b" {
		t.Fatalf("expected original order, got %+v", out)
	}

	out, _ = (&ModelReranker{}).Rerank(context.Background(), "q", in, 0)
	if len(out) != 3 {
		t.Fatalf("no endpoint should pass through, got %d", len(out))
	}
}

func TestKeywordReranker_Rerank(t *testing.T) {
	in := []vectordb.Document{
		{ID: "1", Text: "Canteen menu for the week", Score: 0.8},
		{ID: "2", Text: "Library opening hours: the library opens at 9", Score: 0.7},
	}
	out, err := (&KeywordReranker{}).Rerank(context.Background(), "When does the library open?", in, 0)
	if err != nil {
		t.Fatalf("rerank error: %v", err)
	}
	if out[0].ID != "2" {
		t.Fatalf("expected keyword match first, got %+v", out)
	}
	if in[0].Score != 0.8 {
		t.Fatalf("input was modified")
	}
}

func TestNewReranker(t *testing.T) {
	r, err := NewReranker(config.RerankConfig{}, nil)
	if err != nil || r != nil {
		t.Fatalf("expected nil reranker, got %v %v", r, err)
	}
	if _, err := NewReranker(config.RerankConfig{Provider: "llm"}, nil); err == nil {
		t.Fatalf("expected error for unknown provider")
	}
	r, _ = NewReranker(config.RerankConfig{Provider: "model", Endpoint: "http://x"}, nil)
	if _, ok := r.(*ModelReranker); !ok {
		t.Fatalf("expected ModelReranker, got %T", r)
	}
}
