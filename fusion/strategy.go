package fusion

import (
	"fmt"
	"strings"

	"github.com/unirag/campus-rag/vectordb"
)

// Strategy merges per-collection ranked lists into one list. Lists arrive in
// collection configuration order.
type Strategy interface {
	Fuse(lists [][]vectordb.Document) []vectordb.Document
	Name() string
}

const (
	StrategyDedup = "dedup"
	StrategyRRF   = "rrf"
)

// NewStrategy returns the named strategy; an empty name selects dedup.
func NewStrategy(name string, rrfK int) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", StrategyDedup:
		return DedupStrategy{}, nil
	case StrategyRRF:
		return NewRRFStrategy(rrfK), nil
	default:
		return nil, fmt.Errorf("unknown fusion strategy: %s", name)
	}
}

// textKey identifies a chunk by its exact text.
func textKey(d vectordb.Document) string {
	return d.Text
}
