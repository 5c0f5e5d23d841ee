package schedule

import (
	"fmt"
	"strings"
)

// FromPayload decodes a stored schedule point. Lookups try the nested
// "metadata" object first and the top level second, because older ingests
// flattened the metadata into the payload. Missing fields decode to
// Unspecified or to the zero enum value.
func FromPayload(payload map[string]any) Lesson {
	meta, _ := payload["metadata"].(map[string]any)
	get := func(keys ...string) any {
		for _, k := range keys {
			if meta != nil {
				if v, ok := meta[k]; ok && v != nil {
					return v
				}
			}
			if v, ok := payload[k]; ok && v != nil {
				return v
			}
		}
		return nil
	}

	timeLabel := str(get("time", "time_slot"))
	l := Lesson{
		Day:        ParseDay(str(get("day"))),
		Time:       orUnspecified(timeLabel),
		Slot:       ParseSlot(timeLabel),
		Week:       ParseWeek(str(get("week", "week_parity"))),
		Type:       ParseLessonType(str(get("lesson_type", "type_of_lesson"))),
		Subject:    orUnspecified(str(get("subject"))),
		Room:       orUnspecified(str(get("room", "classroom"))),
		Teachers:   list(get("teacher", "teachers")),
		Groups:     list(get("groups", "group")),
		Department: orUnspecified(str(get("department"))),
	}
	for _, k := range []string{"document_id", "source_file", "source_url"} {
		if v := str(payload[k]); v != "" {
			l.DocumentID = v
			if family := FamilyOf(v); family != FamilyUnknown {
				l.SourceFamily = family
				break
			}
		}
	}
	return l
}

func str(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case []any:
		return strings.Join(list(t), ", ")
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

func orUnspecified(s string) string {
	if s == "" {
		return Unspecified
	}
	return s
}

// list accepts a JSON array or a comma separated string.
func list(v any) []string {
	var raw []string
	switch t := v.(type) {
	case nil:
		return []string{}
	case []string:
		raw = t
	case []any:
		for _, item := range t {
			raw = append(raw, str(item))
		}
	case string:
		raw = strings.Split(t, ",")
	default:
		raw = []string{fmt.Sprint(t)}
	}
	out := make([]string, 0, len(raw))
	for _, s := range raw {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
