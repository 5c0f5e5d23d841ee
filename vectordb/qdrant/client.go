// Package qdrant implements vectordb.Provider over the Qdrant REST API.
package qdrant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/unirag/campus-rag/common/httpx"
	"github.com/unirag/campus-rag/config"
	"github.com/unirag/campus-rag/vectordb"
)

type Client struct {
	http    *httpx.Client
	baseURL string
	apiKey  string
}

// New creates a client for cfg.BaseURL() using the shared outbound HTTP
// policy.
func New(cfg config.VectorDBConfig, httpCfg *config.HTTPClientConfig) *Client {
	return &Client{
		http:    httpx.NewFromConfig(httpCfg),
		baseURL: strings.TrimRight(cfg.BaseURL(), "/"),
		apiKey:  cfg.APIKey,
	}
}

type searchRequest struct {
	Vector      []float32 `json:"vector"`
	Limit       int       `json:"limit"`
	WithPayload bool      `json:"with_payload"`
}

type scoredPoint struct {
	ID      json.RawMessage `json:"id"`
	Score   float64         `json:"score"`
	Payload map[string]any  `json:"payload"`
}

type searchResponse struct {
	Result []scoredPoint `json:"result"`
	Status any           `json:"status"`
}

func (c *Client) SimilaritySearch(ctx context.Context, collection string, vector []float32, limit int) ([]vectordb.Hit, error) {
	req := searchRequest{Vector: vector, Limit: limit, WithPayload: true}
	var resp searchResponse
	if err := c.post(ctx, collection, "search", req, &resp); err != nil {
		return nil, err
	}
	hits := make([]vectordb.Hit, 0, len(resp.Result))
	for _, p := range resp.Result {
		hits = append(hits, vectordb.Hit{ID: idString(p.ID), Score: p.Score, Payload: p.Payload})
	}
	return hits, nil
}

type scrollRequest struct {
	Filter      *Filter         `json:"filter,omitempty"`
	Limit       int             `json:"limit"`
	Offset      json.RawMessage `json:"offset,omitempty"`
	WithPayload bool            `json:"with_payload"`
	WithVector  bool            `json:"with_vector"`
}

type scrollResponse struct {
	Result struct {
		Points []struct {
			ID      json.RawMessage `json:"id"`
			Payload map[string]any  `json:"payload"`
		} `json:"points"`
		NextPageOffset json.RawMessage `json:"next_page_offset"`
	} `json:"result"`
}

// Scan pages through /points/scroll. The token is the raw JSON of Qdrant's
// next_page_offset (an integer or a quoted UUID).
func (c *Client) Scan(ctx context.Context, collection string, filter vectordb.Expr, pageSize int, token string) ([]vectordb.Point, string, error) {
	req := scrollRequest{Filter: Compile(filter), Limit: pageSize, WithPayload: true}
	if token != "" {
		if !gjson.Valid(token) {
			return nil, "", fmt.Errorf("invalid scan token %q", token)
		}
		req.Offset = json.RawMessage(token)
	}
	var resp scrollResponse
	if err := c.post(ctx, collection, "scroll", req, &resp); err != nil {
		return nil, "", err
	}
	points := make([]vectordb.Point, 0, len(resp.Result.Points))
	for _, p := range resp.Result.Points {
		points = append(points, vectordb.Point{ID: idString(p.ID), Payload: p.Payload})
	}
	var next string
	if off := gjson.ParseBytes(resp.Result.NextPageOffset); off.Exists() && off.Type != gjson.Null {
		next = off.Raw
	}
	return points, next, nil
}

func (c *Client) post(ctx context.Context, collection, op string, in, out any) error {
	u := fmt.Sprintf("%s/collections/%s/points/%s", c.baseURL, url.PathEscape(collection), op)
	var headers map[string]string
	if c.apiKey != "" {
		headers = map[string]string{"api-key": c.apiKey}
	}
	err := c.http.DoJSON(ctx, http.MethodPost, u, headers, in, out)
	var se *httpx.StatusError
	if errors.As(err, &se) && se.Code == http.StatusNotFound {
		return fmt.Errorf("qdrant %s %s: %w", op, collection, vectordb.ErrCollectionNotFound)
	}
	if err != nil {
		return fmt.Errorf("qdrant %s %s: %w", op, collection, err)
	}
	return nil
}

// idString renders numeric ids as digits and UUIDs without quotes.
func idString(raw json.RawMessage) string {
	return gjson.ParseBytes(raw).String()
}
