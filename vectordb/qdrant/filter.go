package qdrant

import "github.com/unirag/campus-rag/vectordb"

// Filter is the Qdrant filter object. Conditions may themselves be nested
// filters.
type Filter struct {
	Must   []any `json:"must,omitempty"`
	Should []any `json:"should,omitempty"`
}

type fieldCondition struct {
	Key   string     `json:"key"`
	Match matchValue `json:"match"`
}

type matchValue struct {
	Value any      `json:"value,omitempty"`
	Text  string   `json:"text,omitempty"`
	Any   []string `json:"any,omitempty"`
}

// Compile translates an expression into a Qdrant filter. A nil expression
// compiles to nil (no filter).
func Compile(e vectordb.Expr) *Filter {
	if e == nil {
		return nil
	}
	switch c := condition(e).(type) {
	case *Filter:
		return c
	default:
		return &Filter{Must: []any{c}}
	}
}

func condition(e vectordb.Expr) any {
	switch t := e.(type) {
	case vectordb.Match:
		return fieldCondition{Key: t.Field, Match: matchValue{Value: t.Value}}
	case vectordb.Text:
		return fieldCondition{Key: t.Field, Match: matchValue{Text: t.Value}}
	case vectordb.Any:
		return fieldCondition{Key: t.Field, Match: matchValue{Any: t.Values}}
	case vectordb.And:
		f := &Filter{Must: make([]any, 0, len(t))}
		for _, sub := range t {
			f.Must = append(f.Must, condition(sub))
		}
		return f
	case vectordb.Or:
		f := &Filter{Should: make([]any, 0, len(t))}
		for _, sub := range t {
			f.Should = append(f.Should, condition(sub))
		}
		return f
	default:
		return &Filter{}
	}
}
