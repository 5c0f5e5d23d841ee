package fusion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unirag/campus-rag/vectordb"
)

func doc(collection, text string, score float64) vectordb.Document {
	return vectordb.Document{Text: text, Score: score, Collection: collection}
}

func TestDedup_FirstCollectionWins(t *testing.T) {
	lists := [][]vectordb.Document{
		{doc("text", "same chunk", 0.40), doc("text", "only text", 0.70)},
		{doc("schedules", "same chunk", 0.95), doc("schedules", "", 0.99)},
	}
	out := DedupStrategy{}.Fuse(lists)
	require.Len(t, out, 2)
	assert.Equal(t, "only text", out[0].Text)
	assert.Equal(t, "same chunk", out[1].Text)
	assert.Equal(t, "text", out[1].Collection)
	assert.InDelta(t, 0.40, out[1].Score, 1e-9)
}

func TestDedup_StableOnTies(t *testing.T) {
	lists := [][]vectordb.Document{
		{doc("a", "x", 0.5)},
		{doc("b", "y", 0.5)},
	}
	out := DedupStrategy{}.Fuse(lists)
	require.Len(t, out, 2)
	assert.Equal(t, "x", out[0].Text)
}

func TestDedup_Empty(t *testing.T) {
	out := DedupStrategy{}.Fuse(nil)
	assert.NotNil(t, out)
	assert.Empty(t, out)
}

func TestRRF(t *testing.T) {
	lists := [][]vectordb.Document{
		{doc("a", "x", 0.9), doc("a", "y", 0.8)},
		{doc("b", "y", 0.7)},
	}
	out := NewRRFStrategy(0).Fuse(lists)
	require.Len(t, out, 2)
	assert.Equal(t, "y", out[0].Text, "y appears in both lists")
	assert.Equal(t, "a", out[0].Collection)
	assert.InDelta(t, 1.0/62+1.0/61, out[0].Score, 1e-9)
}

func TestNewStrategy(t *testing.T) {
	s, err := NewStrategy("", 0)
	require.NoError(t, err)
	assert.Equal(t, StrategyDedup, s.Name())

	s, err = NewStrategy("RRF", 10)
	require.NoError(t, err)
	assert.Equal(t, StrategyRRF, s.Name())

	_, err = NewStrategy("learned", 0)
	assert.Error(t, err)
}
