package post

import (
	"fmt"
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"github.com/unirag/campus-rag/common/logger"
	"github.com/unirag/campus-rag/vectordb"
)

// DefaultEncoding is the tokenizer used by the OpenAI chat models.
const DefaultEncoding = "cl100k_base"

// TokenCounter measures and cuts text in model tokens.
type TokenCounter interface {
	Count(text string) int
	Truncate(text string, tokens int) string
}

type tiktokenCounter struct {
	enc *tiktoken.Tiktoken
}

func (t tiktokenCounter) Count(text string) int {
	return len(t.enc.Encode(text, nil, nil))
}

func (t tiktokenCounter) Truncate(text string, tokens int) string {
	ids := t.enc.Encode(text, nil, nil)
	if tokens <= 0 {
		return ""
	}
	if len(ids) <= tokens {
		return text
	}
	return t.enc.Decode(ids[:tokens])
}

// RuneCounter approximates tokens as RunesPerToken runes each. It is used
// when the BPE ranks cannot be loaded.
type RuneCounter struct {
	RunesPerToken int
}

func (r RuneCounter) per() int {
	if r.RunesPerToken <= 0 {
		return 4
	}
	return r.RunesPerToken
}

func (r RuneCounter) Count(text string) int {
	n := len([]rune(text))
	return (n + r.per() - 1) / r.per()
}

func (r RuneCounter) Truncate(text string, tokens int) string {
	if tokens <= 0 {
		return ""
	}
	runes := []rune(text)
	if limit := tokens * r.per(); len(runes) > limit {
		return string(runes[:limit])
	}
	return text
}

var (
	defaultCounterOnce sync.Once
	defaultCounter     TokenCounter
)

// DefaultCounter returns the cl100k_base counter, or a RuneCounter when the
// encoding is unavailable (offline hosts without TIKTOKEN_CACHE_DIR).
func DefaultCounter() TokenCounter {
	defaultCounterOnce.Do(func() {
		enc, err := tiktoken.GetEncoding(DefaultEncoding)
		if err != nil {
			logger.Warnf("post: tiktoken %s unavailable, counting runes: %v", DefaultEncoding, err)
			defaultCounter = RuneCounter{}
			return
		}
		defaultCounter = tiktokenCounter{enc: enc}
	})
	return defaultCounter
}

// ContextBuilder assembles the attributed context passed to the LLM.
type ContextBuilder struct {
	Counter   TokenCounter
	MaxTokens int // zero disables the budget
}

// BuildContext uses DefaultCounter with the given budget.
func BuildContext(docs []vectordb.Document, maxTokens int) string {
	return ContextBuilder{Counter: DefaultCounter(), MaxTokens: maxTokens}.Build(docs)
}

// Build renders one block per document, in order, and stops at the first
// block that no longer fits. The first block is cut rather than dropped so
// that a non-empty input never yields an empty context.
func (cb ContextBuilder) Build(docs []vectordb.Document) string {
	counter := cb.Counter
	if counter == nil {
		counter = RuneCounter{}
	}

	blocks := make([]string, 0, len(docs))
	used := 0
	for _, d := range docs {
		text := strings.TrimSpace(d.Text)
		if text == "" {
			continue
		}
		header := fmt.Sprintf("[Document %d, relevance: %.3f", len(blocks)+1, d.Score)
		if src := d.Source(); src != "" {
			header += ", source: " + src
		}
		header += "]:\n"
		block := header + text

		if cb.MaxTokens > 0 {
			sep := 0
			if len(blocks) > 0 {
				sep = counter.Count("\n\n")
			}
			cost := counter.Count(block) + sep
			if used+cost > cb.MaxTokens {
				if len(blocks) == 0 {
					room := cb.MaxTokens - counter.Count(header)
					if room > 0 {
						blocks = append(blocks, header+counter.Truncate(text, room))
					}
				}
				logger.Debugf("post: context budget %d reached after %d of %d documents", cb.MaxTokens, len(blocks), len(docs))
				break
			}
			used += cost
		}
		blocks = append(blocks, block)
	}
	return strings.Join(blocks, "\n\n")
}
