// Package memory is an in-process vectordb.Provider for tests, demos and
// small deployments loaded from a JSON snapshot.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"sync"

	"github.com/unirag/campus-rag/vectordb"
)

// Record is a stored point.
type Record struct {
	ID      string         `json:"id"`
	Vector  []float32      `json:"vector,omitempty"`
	Payload map[string]any `json:"payload"`
}

// Store keeps records per collection in insertion order.
type Store struct {
	mu          sync.RWMutex
	collections map[string][]Record
}

func New() *Store {
	return &Store{collections: make(map[string][]Record)}
}

// LoadFile reads a snapshot of the form {"collection": [Record, ...]}.
func LoadFile(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	var snapshot map[string][]Record
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("parse snapshot %s: %w", path, err)
	}
	s := New()
	for name, records := range snapshot {
		s.Upsert(name, records...)
	}
	return s, nil
}

// Upsert inserts records, replacing any with the same ID in place.
func (s *Store) Upsert(collection string, records ...Record) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.collections[collection]
	index := make(map[string]int, len(existing))
	for i, r := range existing {
		index[r.ID] = i
	}
	for _, r := range records {
		if i, ok := index[r.ID]; ok {
			existing[i] = r
			continue
		}
		index[r.ID] = len(existing)
		existing = append(existing, r)
	}
	s.collections[collection] = existing
}

func (s *Store) SimilaritySearch(ctx context.Context, collection string, vector []float32, limit int) ([]vectordb.Hit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	records, ok := s.collections[collection]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", vectordb.ErrCollectionNotFound, collection)
	}

	hits := make([]vectordb.Hit, 0, len(records))
	for _, r := range records {
		if len(r.Vector) == 0 {
			continue
		}
		hits = append(hits, vectordb.Hit{ID: r.ID, Score: cosine(vector, r.Vector), Payload: r.Payload})
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// Scan walks the collection in insertion order. The token is the offset of
// the next record.
func (s *Store) Scan(ctx context.Context, collection string, filter vectordb.Expr, pageSize int, token string) ([]vectordb.Point, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}
	offset := 0
	if token != "" {
		n, err := strconv.Atoi(token)
		if err != nil || n < 0 {
			return nil, "", fmt.Errorf("invalid scan token %q", token)
		}
		offset = n
	}
	if pageSize <= 0 {
		pageSize = 100
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	records, ok := s.collections[collection]
	if !ok {
		return nil, "", fmt.Errorf("%w: %s", vectordb.ErrCollectionNotFound, collection)
	}

	var page []vectordb.Point
	i := offset
	for ; i < len(records) && len(page) < pageSize; i++ {
		if vectordb.Eval(filter, records[i].Payload) {
			page = append(page, vectordb.Point{ID: records[i].ID, Payload: records[i].Payload})
		}
	}
	next := ""
	if i < len(records) {
		next = strconv.Itoa(i)
	}
	return page, next, nil
}

func cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
