// Package extractor turns a free-text question into structured schedule
// criteria using a fixed, ordered set of pattern matchers.
package extractor

import "strings"

// Criteria is the structured intent extracted from one question. Every slice
// is an ordered set and is never nil.
type Criteria struct {
	Groups             []string `json:"groups"`
	Rooms              []string `json:"rooms"`
	Teachers           []string `json:"teachers"`
	Days               []string `json:"days"`
	TimeSlots          []string `json:"time_slots"`
	HasScheduleKeyword bool     `json:"has_schedule_keyword"`
}

// NewCriteria returns criteria with every category present and empty.
func NewCriteria() Criteria {
	return Criteria{
		Groups:    []string{},
		Rooms:     []string{},
		Teachers:  []string{},
		Days:      []string{},
		TimeSlots: []string{},
	}
}

// HasFilter reports whether at least one category can drive a filtered scan.
func (c Criteria) HasFilter() bool {
	return len(c.Groups) > 0 || len(c.Rooms) > 0 || len(c.Teachers) > 0 ||
		len(c.Days) > 0 || len(c.TimeSlots) > 0
}

// HasSignal reports whether anything schedule-related was found.
func (c Criteria) HasSignal() bool {
	return c.HasScheduleKeyword || c.HasFilter()
}

// Sanitize returns a copy with blank values dropped, duplicates removed and
// nil categories replaced by empty ones. It is used for criteria that arrive
// from outside the extractor, e.g. structured tool arguments.
func (c Criteria) Sanitize() Criteria {
	out := NewCriteria()
	out.HasScheduleKeyword = c.HasScheduleKeyword
	for _, v := range c.Groups {
		out.Groups = addUnique(out.Groups, strings.ToLower(v))
	}
	for _, v := range c.Rooms {
		out.Rooms = addUnique(out.Rooms, v)
	}
	for _, v := range c.Teachers {
		out.Teachers = addUnique(out.Teachers, v)
	}
	for _, v := range c.Days {
		out.Days = addUnique(out.Days, v)
	}
	for _, v := range c.TimeSlots {
		out.TimeSlots = addUnique(out.TimeSlots, v)
	}
	return out
}

// addUnique appends v unless an equal value (ignoring case) is already
// present; the first casing wins.
func addUnique(set []string, v string) []string {
	v = strings.TrimSpace(v)
	if v == "" {
		return set
	}
	for _, existing := range set {
		if strings.EqualFold(existing, v) {
			return set
		}
	}
	return append(set, v)
}
