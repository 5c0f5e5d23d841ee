package retriever

import (
	"strings"

	"github.com/unirag/campus-rag/config"
	"github.com/unirag/campus-rag/extractor"
	"github.com/unirag/campus-rag/schedule"
	"github.com/unirag/campus-rag/vectordb"
)

// Payload paths of schedule points in the nested layout.
const (
	FieldGroups  = "metadata.groups"
	FieldRoom    = "metadata.room"
	FieldTeacher = "metadata.teacher"
	FieldDay     = "metadata.day"
	FieldTime    = "metadata.time"
)

// FilterOptions controls how criteria become a store filter.
type FilterOptions struct {
	// TeacherMatch is config.TeacherMatchAny (default) or TeacherMatchAll.
	TeacherMatch string
	// Layout is config.LayoutNested (default), LayoutFlat or LayoutBoth.
	Layout string
}

// paths returns the payload paths of a nested field under the layout.
func (o FilterOptions) paths(field string) []string {
	flat := strings.TrimPrefix(field, "metadata.")
	switch o.Layout {
	case config.LayoutFlat:
		return []string{flat}
	case config.LayoutBoth:
		return []string{field, flat}
	default:
		return []string{field}
	}
}

// texts builds one substring clause per layout path.
func (o FilterOptions) texts(field, value string) []vectordb.Expr {
	var out []vectordb.Expr
	for _, p := range o.paths(field) {
		out = append(out, vectordb.Text{Field: p, Value: value})
	}
	return out
}

var roomPrefixes = []string{"classroom", "room", "аудитория", "ауд", "кабинет", "каб"}

// NormalizeRoom strips a leading room/classroom prefix and surrounding
// punctuation: "ауд. 52-17" -> "52-17".
func NormalizeRoom(room string) string {
	r := strings.TrimSpace(room)
	lower := strings.ToLower(r)
	for _, p := range roomPrefixes {
		if strings.HasPrefix(lower, p) {
			r = r[len(p):]
			break
		}
	}
	return strings.Trim(r, " .:№#\t")
}

// BuildFilter translates criteria into one clause per non-empty category,
// joined with AND. Candidates within a category are OR-ed, except teachers
// under config.TeacherMatchAll. Under LayoutBoth every candidate matches
// either the nested or the flat path. Empty criteria yield nil.
func BuildFilter(c extractor.Criteria, opts FilterOptions) vectordb.Expr {
	var clauses vectordb.And

	if len(c.Groups) > 0 {
		var values []string
		for _, g := range c.Groups {
			values = appendUnique(values, g, strings.ToLower(g), strings.ToUpper(g))
		}
		var groups vectordb.Or
		for _, p := range opts.paths(FieldGroups) {
			groups = append(groups, vectordb.Any{Field: p, Values: values})
		}
		clauses = append(clauses, collapse(groups))
	}

	if len(c.Rooms) > 0 {
		var rooms vectordb.Or
		for _, room := range c.Rooms {
			r := NormalizeRoom(room)
			if r == "" {
				continue
			}
			rooms = append(rooms, opts.texts(FieldRoom, r)...)
			if compact := strings.ReplaceAll(r, "-", ""); compact != r {
				rooms = append(rooms, opts.texts(FieldRoom, compact)...)
			}
		}
		if len(rooms) > 0 {
			clauses = append(clauses, rooms)
		}
	}

	if len(c.Teachers) > 0 {
		if opts.TeacherMatch == config.TeacherMatchAll {
			all := make(vectordb.And, 0, len(c.Teachers))
			for _, t := range c.Teachers {
				all = append(all, collapse(opts.texts(FieldTeacher, t)))
			}
			clauses = append(clauses, all)
		} else {
			var teachers vectordb.Or
			for _, t := range c.Teachers {
				teachers = append(teachers, opts.texts(FieldTeacher, t)...)
			}
			clauses = append(clauses, teachers)
		}
	}

	if len(c.Days) > 0 {
		var days vectordb.Or
		for _, d := range c.Days {
			forms := schedule.ParseDay(d).StoredForms()
			if len(forms) == 0 {
				forms = []string{d}
			}
			for _, f := range forms {
				days = append(days, opts.texts(FieldDay, f)...)
			}
		}
		clauses = append(clauses, days)
	}

	if len(c.TimeSlots) > 0 {
		var slots vectordb.Or
		for _, s := range c.TimeSlots {
			forms := slotForms(s)
			for _, f := range forms {
				slots = append(slots, opts.texts(FieldTime, f)...)
			}
		}
		clauses = append(clauses, slots)
	}

	switch len(clauses) {
	case 0:
		return nil
	case 1:
		return clauses[0]
	default:
		return clauses
	}
}

// collapse unwraps a single-branch disjunction.
func collapse(or []vectordb.Expr) vectordb.Expr {
	if len(or) == 1 {
		return or[0]
	}
	return vectordb.Or(or)
}

func slotForms(s string) []string {
	s = strings.TrimSpace(s)
	if len(s) == 1 && s[0] >= '1' && s[0] <= '6' {
		return schedule.Slot(s[0] - '0').StoredForms()
	}
	if slot := schedule.ParseSlot(s); slot.Valid() {
		return slot.StoredForms()
	}
	return []string{s}
}

func appendUnique(list []string, values ...string) []string {
	for _, v := range values {
		found := false
		for _, existing := range list {
			if existing == v {
				found = true
				break
			}
		}
		if !found {
			list = append(list, v)
		}
	}
	return list
}
