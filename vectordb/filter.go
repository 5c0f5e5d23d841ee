package vectordb

import (
	"fmt"
	"strings"
)

// Expr is a filter expression over payload fields. Field names are dotted
// paths into the payload, e.g. "metadata.groups".
type Expr interface {
	expr()
}

// Match is field equality. On array fields it matches any element.
type Match struct {
	Field string
	Value string
}

// Text is a substring match. On array fields it matches any element.
type Text struct {
	Field string
	Value string
}

// Any matches when the field (or any element of it) equals one of Values.
type Any struct {
	Field  string
	Values []string
}

// And requires every sub-expression.
type And []Expr

// Or requires at least one sub-expression.
type Or []Expr

func (Match) expr() {}
func (Text) expr()  {}
func (Any) expr()   {}
func (And) expr()   {}
func (Or) expr()    {}

// String renders the expression for logs.
func String(e Expr) string {
	switch t := e.(type) {
	case nil:
		return "<all>"
	case Match:
		return fmt.Sprintf("%s == %q", t.Field, t.Value)
	case Text:
		return fmt.Sprintf("%s ~ %q", t.Field, t.Value)
	case Any:
		return fmt.Sprintf("%s in %q", t.Field, t.Values)
	case And:
		return join(t, " AND ")
	case Or:
		return join(t, " OR ")
	default:
		return fmt.Sprintf("%T", e)
	}
}

func join(exprs []Expr, sep string) string {
	parts := make([]string, len(exprs))
	for i, e := range exprs {
		parts[i] = String(e)
	}
	return "(" + strings.Join(parts, sep) + ")"
}

// Lookup resolves a dotted path inside a payload.
func Lookup(payload map[string]any, field string) (any, bool) {
	var cur any = payload
	for _, part := range strings.Split(field, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// Eval reports whether payload satisfies e. A nil expression matches
// everything. Text matching is case-insensitive.
func Eval(e Expr, payload map[string]any) bool {
	switch t := e.(type) {
	case nil:
		return true
	case Match:
		return anyValue(payload, t.Field, func(s string) bool { return s == t.Value })
	case Text:
		needle := strings.ToLower(t.Value)
		return anyValue(payload, t.Field, func(s string) bool {
			return strings.Contains(strings.ToLower(s), needle)
		})
	case Any:
		return anyValue(payload, t.Field, func(s string) bool {
			for _, v := range t.Values {
				if s == v {
					return true
				}
			}
			return false
		})
	case And:
		for _, sub := range t {
			if !Eval(sub, payload) {
				return false
			}
		}
		return true
	case Or:
		for _, sub := range t {
			if Eval(sub, payload) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

func anyValue(payload map[string]any, field string, pred func(string) bool) bool {
	v, ok := Lookup(payload, field)
	if !ok || v == nil {
		return false
	}
	switch t := v.(type) {
	case []any:
		for _, item := range t {
			if item != nil && pred(fmt.Sprint(item)) {
				return true
			}
		}
		return false
	case []string:
		for _, item := range t {
			if pred(item) {
				return true
			}
		}
		return false
	default:
		return pred(fmt.Sprint(t))
	}
}
