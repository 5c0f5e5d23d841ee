package vectordb

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var lessonPayload = map[string]any{
	"document_id": "schedules/groups_4318.txt",
	"metadata": map[string]any{
		"day":     "Понедельник",
		"room":    "ауд. 52-17",
		"teacher": []any{"Иванов И.И.", "Петров П.П."},
		"groups":  []any{"4318", "4319"},
	},
}

func TestEval(t *testing.T) {
	tests := []struct {
		name string
		expr Expr
		want bool
	}{
		{"nil matches all", nil, true},
		{"match scalar", Match{Field: "document_id", Value: "schedules/groups_4318.txt"}, true},
		{"match array element", Match{Field: "metadata.groups", Value: "4319"}, true},
		{"text case-insensitive", Text{Field: "metadata.day", Value: "понедельник"}, true},
		{"text array element", Text{Field: "metadata.teacher", Value: "Петров"}, true},
		{"text miss", Text{Field: "metadata.room", Value: "5217"}, false},
		{"any hit", Any{Field: "metadata.groups", Values: []string{"1111", "4318"}}, true},
		{"any miss", Any{Field: "metadata.groups", Values: []string{"1111"}}, false},
		{"missing field", Text{Field: "metadata.department", Value: "x"}, false},
		{"path through scalar", Text{Field: "document_id.x", Value: "x"}, false},
		{"and", And{Any{Field: "metadata.groups", Values: []string{"4318"}}, Text{Field: "metadata.room", Value: "52-17"}}, true},
		{"and short", And{Any{Field: "metadata.groups", Values: []string{"4318"}}, Text{Field: "metadata.room", Value: "11-01"}}, false},
		{"or", Or{Text{Field: "metadata.room", Value: "5217"}, Text{Field: "metadata.room", Value: "52-17"}}, true},
		{"empty or", Or{}, false},
		{"empty and", And{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Eval(tt.expr, lessonPayload))
		})
	}
}

func TestString(t *testing.T) {
	e := And{Any{Field: "metadata.groups", Values: []string{"4318"}}, Or{Text{Field: "metadata.room", Value: "52-17"}}}
	assert.Equal(t, `(metadata.groups in ["4318"] AND (metadata.room ~ "52-17"))`, String(e))
}

func TestDocumentFromHit(t *testing.T) {
	doc := DocumentFromHit("text_embeddings", Hit{
		ID:    "7",
		Score: 0.81,
		Payload: map[string]any{
			"text":       "  The rector is ...  ",
			"source_url": "https://guap.ru/rector",
			"metadata":   map[string]any{"created_at": "2024-01-01", "source_url": "ignored"},
		},
	})
	assert.Equal(t, "The rector is ...", doc.Text)
	assert.Equal(t, "text_embeddings", doc.Collection)
	assert.Equal(t, "https://guap.ru/rector", doc.Source())
	assert.Equal(t, "2024-01-01", doc.Metadata["created_at"])
}
