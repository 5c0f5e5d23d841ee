package fusion

import (
	"sort"

	"github.com/unirag/campus-rag/vectordb"
)

// DedupStrategy keeps the first occurrence of every text, with its
// originating collection and score, then sorts by score descending. The
// sort is stable, so equal scores keep collection order.
type DedupStrategy struct{}

func (DedupStrategy) Name() string { return StrategyDedup }

func (DedupStrategy) Fuse(lists [][]vectordb.Document) []vectordb.Document {
	seen := make(map[string]struct{})
	out := make([]vectordb.Document, 0)
	for _, list := range lists {
		for _, d := range list {
			if d.Text == "" {
				continue
			}
			k := textKey(d)
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			out = append(out, d)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}
