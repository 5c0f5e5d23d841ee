package fusion

import (
	"sort"

	"github.com/unirag/campus-rag/vectordb"
)

// RRFStrategy implements Reciprocal Rank Fusion keyed by text. The fused
// document keeps the fields of its first occurrence and takes the RRF sum
// as its score.
type RRFStrategy struct {
	K int // RRF parameter (default: 60)
}

func NewRRFStrategy(k int) *RRFStrategy {
	if k <= 0 {
		k = 60
	}
	return &RRFStrategy{K: k}
}

func (s *RRFStrategy) Name() string { return StrategyRRF }

func (s *RRFStrategy) Fuse(lists [][]vectordb.Document) []vectordb.Document {
	type agg struct {
		doc   vectordb.Document
		score float64
	}
	scores := map[string]*agg{}
	var order []string

	for _, list := range lists {
		for idx, d := range list {
			if d.Text == "" {
				continue
			}
			k := textKey(d)
			a, ok := scores[k]
			if !ok {
				a = &agg{doc: d}
				scores[k] = a
				order = append(order, k)
			}
			// RRF: 1 / (k + rank)
			a.score += 1.0 / (float64(s.K) + float64(idx+1))
		}
	}

	out := make([]vectordb.Document, 0, len(order))
	for _, k := range order {
		a := scores[k]
		a.doc.Score = a.score
		out = append(out, a.doc)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}
