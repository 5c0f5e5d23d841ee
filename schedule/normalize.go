package schedule

import "sort"

// Normalize drops lessons whose natural key was already seen (the first
// occurrence is kept verbatim) and orders the rest by weekday, then slot,
// then descending score when both lessons carry one. The sort is stable,
// so Normalize(Normalize(x)) == Normalize(x).
func Normalize(lessons []Lesson) []Lesson {
	seen := make(map[Key]struct{}, len(lessons))
	out := make([]Lesson, 0, len(lessons))
	for _, l := range lessons {
		k := l.Key()
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, l)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return Less(out[i], out[j])
	})
	return out
}

// Less is the ordering contract used by Normalize.
func Less(a, b Lesson) bool {
	if ra, rb := a.Day.Rank(), b.Day.Rank(); ra != rb {
		return ra < rb
	}
	if ra, rb := a.Slot.Rank(), b.Slot.Rank(); ra != rb {
		return ra < rb
	}
	if a.HasScore && b.HasScore {
		return a.Score > b.Score
	}
	return false
}
