package milvus

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/unirag/campus-rag/vectordb"
)

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// DefaultArrayFields are the lesson payload paths stored as JSON arrays.
var DefaultArrayFields = []string{"metadata.teacher", "metadata.groups", "teacher", "groups"}

// Compiler renders vectordb expressions as Milvus boolean expressions.
//
// Some clauses cannot be pushed down. like only applies to string values,
// so a Text clause on an array field compiles to match-all. When Columns is
// set, clauses on other top-level names compile to match-all as well. The
// result then over-approximates the filter and callers re-check rows with
// vectordb.Eval.
type Compiler struct {
	ArrayFields map[string]bool
	Columns     map[string]bool
}

// NewCompiler indexes the array fields and collection columns. A nil
// columns list disables the column check.
func NewCompiler(arrayFields, columns []string) Compiler {
	c := Compiler{ArrayFields: make(map[string]bool, len(arrayFields))}
	for _, f := range arrayFields {
		c.ArrayFields[f] = true
	}
	if columns != nil {
		c.Columns = make(map[string]bool, len(columns))
		for _, col := range columns {
			c.Columns[col] = true
		}
	}
	return c
}

// Compile uses DefaultArrayFields and no column check.
func Compile(e vectordb.Expr) (string, error) {
	return NewCompiler(DefaultArrayFields, nil).Compile(e)
}

// Compile renders e for Search/Query. Dotted fields address keys of a JSON
// column: "metadata.groups" becomes metadata["groups"]. An empty string
// matches every entity.
func (c Compiler) Compile(e vectordb.Expr) (string, error) {
	switch t := e.(type) {
	case nil:
		return "", nil
	case vectordb.Match:
		ref, isJSON, err := fieldRef(t.Field)
		if err != nil || !c.known(t.Field) {
			return "", err
		}
		lit := strconv.Quote(t.Value)
		if isJSON {
			return fmt.Sprintf("(%s == %s or json_contains(%s, %s))", ref, lit, ref, lit), nil
		}
		return fmt.Sprintf("%s == %s", ref, lit), nil
	case vectordb.Text:
		ref, _, err := fieldRef(t.Field)
		if err != nil || !c.known(t.Field) || c.ArrayFields[t.Field] {
			return "", err
		}
		value := strings.ReplaceAll(t.Value, "%", "")
		return fmt.Sprintf("%s like %s", ref, strconv.Quote("%"+value+"%")), nil
	case vectordb.Any:
		ref, isJSON, err := fieldRef(t.Field)
		if err != nil {
			return "", err
		}
		if len(t.Values) == 0 {
			return "", errors.New("milvus: empty value list for " + t.Field)
		}
		if !c.known(t.Field) {
			return "", nil
		}
		lits := make([]string, len(t.Values))
		for i, v := range t.Values {
			lits[i] = strconv.Quote(v)
		}
		list := "[" + strings.Join(lits, ", ") + "]"
		if isJSON {
			return fmt.Sprintf("json_contains_any(%s, %s)", ref, list), nil
		}
		return fmt.Sprintf("%s in %s", ref, list), nil
	case vectordb.And:
		var parts []string
		for _, sub := range t {
			s, err := c.Compile(sub)
			if err != nil {
				return "", err
			}
			if s != "" {
				parts = append(parts, s)
			}
		}
		return group(parts, " and "), nil
	case vectordb.Or:
		if len(t) == 0 {
			return "", errors.New("milvus: empty disjunction")
		}
		parts := make([]string, 0, len(t))
		for _, sub := range t {
			s, err := c.Compile(sub)
			if err != nil {
				return "", err
			}
			if s == "" {
				// one branch matches everything
				return "", nil
			}
			parts = append(parts, s)
		}
		return group(parts, " or "), nil
	default:
		return "", fmt.Errorf("milvus: unsupported expression %T", e)
	}
}

// known reports whether the top-level name of field is a column.
func (c Compiler) known(field string) bool {
	if c.Columns == nil {
		return true
	}
	top, _, _ := strings.Cut(field, ".")
	return c.Columns[top]
}

func group(parts []string, sep string) string {
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	default:
		return "(" + strings.Join(parts, sep) + ")"
	}
}

func fieldRef(field string) (ref string, isJSON bool, err error) {
	segments := strings.Split(field, ".")
	if !identRe.MatchString(segments[0]) {
		return "", false, fmt.Errorf("milvus: invalid field name %q", field)
	}
	var b strings.Builder
	b.WriteString(segments[0])
	for _, key := range segments[1:] {
		if key == "" {
			return "", false, fmt.Errorf("milvus: invalid field name %q", field)
		}
		b.WriteString("[")
		b.WriteString(strconv.Quote(key))
		b.WriteString("]")
	}
	return b.String(), len(segments) > 1, nil
}
