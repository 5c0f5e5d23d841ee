// Command reranker is a local stand-in for a cross-encoder rerank service.
// It speaks the same protocol as post.ModelReranker and scores with the
// keyword reranker, which is enough to exercise retrieval.rerank.provider
// "model" without a GPU.
package main

import (
	"encoding/json"
	"net/http"
	"os"
	"strconv"

	"github.com/unirag/campus-rag/common/logger"
	"github.com/unirag/campus-rag/post"
	"github.com/unirag/campus-rag/vectordb"
)

type rerankReq struct {
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
	TopN      int      `json:"top_n"`
}

type result struct {
	Index          int     `json:"index"`
	RelevanceScore float64 `json:"relevance_score"`
}

type rerankResp struct {
	Results []result `json:"results"`
}

func handleRerank(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req rerankReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	docs := make([]vectordb.Document, len(req.Documents))
	for i, text := range req.Documents {
		docs[i] = vectordb.Document{ID: strconv.Itoa(i), Text: text}
	}
	ranked, _ := (&post.KeywordReranker{}).Rerank(r.Context(), req.Query, docs, req.TopN)

	out := rerankResp{Results: make([]result, 0, len(ranked))}
	for _, d := range ranked {
		idx, _ := strconv.Atoi(d.ID)
		out.Results = append(out.Results, result{Index: idx, RelevanceScore: d.Score})
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}

func main() {
	addr := ":8082"
	if v := os.Getenv("RERANK_ADDR"); v != "" {
		addr = v
	}
	http.HandleFunc("/rerank", handleRerank)
	logger.Infof("reranker mock listening on %s", addr)
	if err := http.ListenAndServe(addr, nil); err != nil {
		logger.Errorf("reranker mock: %v", err)
		os.Exit(1)
	}
}
