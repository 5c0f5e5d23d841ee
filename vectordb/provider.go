// Package vectordb defines the vector store capability used by retrieval:
// similarity search plus a paginated scan with a metadata filter.
package vectordb

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Hit is one similarity search result.
type Hit struct {
	ID      string
	Score   float64
	Payload map[string]any
}

// Point is one scanned record.
type Point struct {
	ID      string
	Payload map[string]any
}

// Provider is implemented by every backend. Scan returns the next page and
// a continuation token; an empty token means there are no more pages.
type Provider interface {
	SimilaritySearch(ctx context.Context, collection string, vector []float32, limit int) ([]Hit, error)
	Scan(ctx context.Context, collection string, filter Expr, pageSize int, token string) ([]Point, string, error)
}

var ErrCollectionNotFound = errors.New("collection not found")

// Document is a general text chunk decoded from a search hit.
type Document struct {
	ID         string         `json:"id"`
	Text       string         `json:"text"`
	Score      float64        `json:"score"`
	Collection string         `json:"collection"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// Source returns the URL or document id the chunk was taken from.
func (d Document) Source() string {
	for _, k := range []string{"source_url", "url", "document_id"} {
		if v, ok := d.Metadata[k].(string); ok && strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// DocumentFromHit decodes the "text" field and keeps every other payload
// key, with the nested "metadata" object flattened one level.
func DocumentFromHit(collection string, h Hit) Document {
	doc := Document{ID: h.ID, Score: h.Score, Collection: collection, Metadata: map[string]any{}}
	for k, v := range h.Payload {
		switch k {
		case "text", "page_content", "content":
			if doc.Text == "" {
				doc.Text = strings.TrimSpace(fmt.Sprint(v))
			}
		case "metadata":
			if nested, ok := v.(map[string]any); ok {
				for nk, nv := range nested {
					if _, exists := doc.Metadata[nk]; !exists {
						doc.Metadata[nk] = nv
					}
				}
			}
		default:
			doc.Metadata[k] = v
		}
	}
	return doc
}
