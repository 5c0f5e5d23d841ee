package post

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"unicode"

	"github.com/unirag/campus-rag/common/httpx"
	"github.com/unirag/campus-rag/common/logger"
	"github.com/unirag/campus-rag/config"
	"github.com/unirag/campus-rag/vectordb"
)

// Reranker reorders documents for a question. Implementations fall back to
// the input order on failure, so an error is informational.
type Reranker interface {
	Rerank(ctx context.Context, query string, in []vectordb.Document, topN int) ([]vectordb.Document, error)
}

// NewReranker returns nil when no reranker is configured.
func NewReranker(cfg config.RerankConfig, httpCfg *config.HTTPClientConfig) (Reranker, error) {
	switch strings.ToLower(cfg.Provider) {
	case "":
		return nil, nil
	case "keyword":
		return &KeywordReranker{}, nil
	case "model":
		return &ModelReranker{
			Endpoint: cfg.Endpoint,
			Model:    cfg.Model,
			APIKey:   cfg.APIKey,
			Client:   httpx.NewFromConfig(httpCfg),
		}, nil
	default:
		return nil, fmt.Errorf("unsupported reranker: %s", cfg.Provider)
	}
}

func topN(in []vectordb.Document, n int) []vectordb.Document {
	if n > 0 && len(in) > n {
		return append([]vectordb.Document(nil), in[:n]...)
	}
	return in
}

// KeywordReranker boosts documents containing the question's words, with a
// bonus for early and repeated occurrences.
type KeywordReranker struct {
	MinKeywordRunes int     // default 3
	BaseScoreWeight float64 // default 0.5
}

func (k *KeywordReranker) Rerank(ctx context.Context, query string, in []vectordb.Document, n int) ([]vectordb.Document, error) {
	minLen := k.MinKeywordRunes
	if minLen == 0 {
		minLen = 3
	}
	baseWeight := k.BaseScoreWeight
	if baseWeight == 0 {
		baseWeight = 0.5
	}

	var keywords []string
	for _, word := range strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-'
	}) {
		if len([]rune(word)) > minLen {
			keywords = append(keywords, word)
		}
	}

	scored := make([]vectordb.Document, len(in))
	copy(scored, in)
	for i := range scored {
		text := strings.ToLower(scored[i].Text)
		bonus := 0.0
		for _, kw := range keywords {
			pos := strings.Index(text, kw)
			if pos < 0 {
				continue
			}
			bonus += 0.1
			if pos < len(text)/4 {
				bonus += 0.1
			}
			bonus += minFloat(0.05*float64(strings.Count(text, kw)), 0.2)
		}
		scored[i].Score = scored[i].Score*baseWeight + bonus
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })

	logger.Debugf("KeywordReranker: %d keywords over %d documents", len(keywords), len(in))
	return topN(scored, n), nil
}

// ModelReranker calls a cross-encoder service with a Cohere/Jina style API
// (bge-reranker, rerank-multilingual).
//
// Request:  {"query":"...","documents":["..."],"model":"...","top_n":5}
// Response: {"results":[{"index":0,"relevance_score":0.93}]}
type ModelReranker struct {
	Endpoint string
	Model    string
	APIKey   string
	Client   *httpx.Client
}

type modelRerankReq struct {
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
	Model     string   `json:"model,omitempty"`
	TopN      int      `json:"top_n,omitempty"`
}

type modelRerankResp struct {
	Results []struct {
		Index          int     `json:"index"`
		RelevanceScore float64 `json:"relevance_score"`
	} `json:"results"`
}

func (m *ModelReranker) Rerank(ctx context.Context, query string, in []vectordb.Document, n int) ([]vectordb.Document, error) {
	if m.Endpoint == "" || len(in) == 0 {
		return topN(in, n), nil
	}
	if m.Client == nil {
		m.Client = httpx.NewFromConfig(nil)
	}

	req := modelRerankReq{Query: query, Model: m.Model, TopN: n, Documents: make([]string, len(in))}
	for i, d := range in {
		req.Documents[i] = d.Text
	}
	headers := map[string]string{}
	if m.APIKey != "" {
		headers["Authorization"] = "Bearer " + m.APIKey
	}

	var resp modelRerankResp
	if err := m.Client.DoJSON(ctx, http.MethodPost, m.Endpoint, headers, req, &resp); err != nil {
		logger.Warnf("ModelReranker: request failed, keeping retrieval order: %v", err)
		return topN(in, n), err
	}
	if len(resp.Results) == 0 {
		logger.Warnf("ModelReranker: empty ranking, keeping retrieval order")
		return topN(in, n), nil
	}

	out := make([]vectordb.Document, 0, len(resp.Results))
	seen := make(map[int]bool, len(resp.Results))
	for _, r := range resp.Results {
		if r.Index < 0 || r.Index >= len(in) || seen[r.Index] {
			continue
		}
		seen[r.Index] = true
		d := in[r.Index]
		d.Score = r.RelevanceScore
		out = append(out, d)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })

	logger.Debugf("ModelReranker: reranked %d documents with %s", len(out), m.Model)
	return topN(out, n), nil
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
