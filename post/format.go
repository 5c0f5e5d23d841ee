// Package post turns retrieval results into answer text: the schedule and
// document renderings shown to users and the context handed to the LLM.
package post

import (
	"fmt"
	"strings"

	"github.com/unirag/campus-rag/schedule"
	"github.com/unirag/campus-rag/vectordb"
)

const (
	NoLessonsFound   = "No lessons were found for your request. Try specifying a group, room, teacher or day."
	NoDocumentsFound = "No relevant information was found for your question."

	// PreviewChars caps the text preview of a document, in runes.
	PreviewChars = 300

	maxTeachers = 2
	maxGroups   = 3
)

// FormatSchedule renders lessons grouped under day headers. Lessons are
// expected in schedule.Normalize order; numbering restarts for every day.
func FormatSchedule(lessons []schedule.Lesson) string {
	if len(lessons) == 0 {
		return NoLessonsFound
	}

	var b strings.Builder
	current := schedule.Day(-1)
	n := 0
	for _, l := range lessons {
		if l.Day != current {
			if current != -1 {
				b.WriteString("\n")
			}
			current = l.Day
			n = 0
			fmt.Fprintf(&b, "%s:\n", l.Day)
		}
		n++
		fmt.Fprintf(&b, "  %d. %s\n", n, formatLesson(l))
	}
	fmt.Fprintf(&b, "\nTotal lessons: %d", len(lessons))
	return b.String()
}

func formatLesson(l schedule.Lesson) string {
	parts := []string{l.TimeLabel()}

	subject := l.Subject
	if l.Type != schedule.TypeUnspecified {
		subject += " (" + l.Type.String() + ")"
	}
	parts = append(parts, subject)

	if specified(l.Room) {
		parts = append(parts, "room "+l.Room)
	}
	if len(l.Teachers) > 0 {
		parts = append(parts, "teacher: "+strings.Join(head(l.Teachers, maxTeachers), ", "))
	}
	if len(l.Groups) > 0 {
		parts = append(parts, "groups: "+strings.Join(head(l.Groups, maxGroups), ", "))
	}
	if l.Week != schedule.WeekUnspecified {
		parts = append(parts, l.Week.String()+" week")
	}
	return strings.Join(parts, " | ")
}

// FormatDocuments renders a numbered list with scores and text previews.
func FormatDocuments(docs []vectordb.Document) string {
	if len(docs) == 0 {
		return NoDocumentsFound
	}
	var b strings.Builder
	for i, d := range docs {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%d. [score %.3f] %s\n", i+1, d.Score, Preview(d.Text, PreviewChars))
		if src := d.Source(); src != "" {
			fmt.Fprintf(&b, "   source: %s\n", src)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// Preview collapses whitespace and cuts text to at most limit runes,
// marking the cut with an ellipsis.
func Preview(text string, limit int) string {
	text = strings.Join(strings.Fields(text), " ")
	r := []rune(text)
	if limit <= 0 || len(r) <= limit {
		return text
	}
	return strings.TrimSpace(string(r[:limit])) + "..."
}

func specified(s string) bool {
	s = strings.TrimSpace(s)
	return s != "" && s != schedule.Unspecified
}

func head(values []string, n int) []string {
	if len(values) > n {
		return values[:n]
	}
	return values
}
