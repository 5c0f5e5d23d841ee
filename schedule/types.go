// Package schedule holds the typed timetable record and the rules that
// order and deduplicate lessons.
package schedule

import (
	"path"
	"regexp"
	"strconv"
	"strings"
)

// Unspecified is the sentinel rendered for any missing text field.
const Unspecified = "unspecified"

// UnknownRank sorts unknown days and slots after every known value.
const UnknownRank = 99

// Day is a teaching weekday. The zero value is DayUnknown.
type Day int

const (
	DayUnknown Day = iota
	Monday
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
)

var dayNames = [...]string{Unspecified, "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

// dayForms are lower-case substrings that identify a day in free text,
// including the Russian accusative forms used after "в"/"во".
var dayForms = [...][]string{
	nil,
	{"monday", "понедельник"},
	{"tuesday", "вторник"},
	{"wednesday", "среда", "среду", "среды", "среде"},
	{"thursday", "четверг"},
	{"friday", "пятниц"},
	{"saturday", "суббот"},
}

// dayStored lists how a day is written in stored schedule payloads.
var dayStored = [...][]string{
	nil,
	{"Monday", "Понедельник"},
	{"Tuesday", "Вторник"},
	{"Wednesday", "Среда"},
	{"Thursday", "Четверг"},
	{"Friday", "Пятница"},
	{"Saturday", "Суббота"},
}

// Days lists the known days in week order.
var Days = []Day{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday}

func (d Day) String() string {
	if d < DayUnknown || int(d) >= len(dayNames) {
		return Unspecified
	}
	return dayNames[d]
}

// Rank is 1 for Monday through 6 for Saturday and UnknownRank otherwise.
func (d Day) Rank() int {
	if d >= Monday && d <= Saturday {
		return int(d)
	}
	return UnknownRank
}

// Forms returns the lower-case substrings that identify d in free text.
func (d Day) Forms() []string {
	if d >= Monday && d <= Saturday {
		return dayForms[d]
	}
	return nil
}

// StoredForms returns the spellings of d found in schedule payloads.
func (d Day) StoredForms() []string {
	if d >= Monday && d <= Saturday {
		return dayStored[d]
	}
	return nil
}

// ParseDay recognises a day from a stored value or a canonical name.
func ParseDay(s string) Day {
	lower := strings.ToLower(strings.TrimSpace(s))
	if lower == "" {
		return DayUnknown
	}
	for _, d := range Days {
		for _, form := range d.Forms() {
			if strings.Contains(lower, form) {
				return d
			}
		}
	}
	return DayUnknown
}

// Slot is the ordinal lesson period of the day, 1..6. Zero is unknown.
type Slot int

const (
	SlotUnknown Slot = 0
	MaxSlot     Slot = 6
)

var slotRe = regexp.MustCompile(`([1-6])\s*(?:-?\s*(?:st|nd|rd|th|я|ая))?\s*(?:slot|пара)|(?:slot|пара)\s*№?\s*([1-6])`)

// ParseSlot extracts the period number from a stored time label such as
// "1 пара (09:30-11:00)" or "slot 3".
func ParseSlot(s string) Slot {
	m := slotRe.FindStringSubmatch(strings.ToLower(s))
	if m == nil {
		return SlotUnknown
	}
	digit := m[1]
	if digit == "" {
		digit = m[2]
	}
	n, err := strconv.Atoi(digit)
	if err != nil {
		return SlotUnknown
	}
	return Slot(n)
}

// Valid reports whether s is a known period.
func (s Slot) Valid() bool { return s >= 1 && s <= MaxSlot }

// Rank is the slot number for known slots and UnknownRank otherwise.
func (s Slot) Rank() int {
	if s.Valid() {
		return int(s)
	}
	return UnknownRank
}

func (s Slot) String() string {
	if !s.Valid() {
		return Unspecified
	}
	return "slot " + strconv.Itoa(int(s))
}

// StoredForms returns the spellings of a slot label found in payloads.
func (s Slot) StoredForms() []string {
	if !s.Valid() {
		return nil
	}
	n := strconv.Itoa(int(s))
	return []string{n + " пара", "slot " + n}
}

// WeekParity tags courses that alternate between upper and lower weeks.
type WeekParity int

const (
	WeekUnspecified WeekParity = iota
	WeekUpper
	WeekLower
)

func (w WeekParity) String() string {
	switch w {
	case WeekUpper:
		return "upper"
	case WeekLower:
		return "lower"
	default:
		return Unspecified
	}
}

// ParseWeek understands the ▲/▼ markers of the timetable export as well as
// spelled-out values.
func ParseWeek(s string) WeekParity {
	lower := strings.ToLower(strings.TrimSpace(s))
	switch {
	case lower == "":
		return WeekUnspecified
	case strings.Contains(lower, "▲"), strings.Contains(lower, "верх"), strings.Contains(lower, "upper"), strings.Contains(lower, "odd"):
		return WeekUpper
	case strings.Contains(lower, "▼"), strings.Contains(lower, "нижн"), strings.Contains(lower, "lower"), strings.Contains(lower, "even"):
		return WeekLower
	default:
		return WeekUnspecified
	}
}

// LessonType is the kind of class.
type LessonType int

const (
	TypeUnspecified LessonType = iota
	TypeLecture
	TypePractice
	TypeLab
	TypeSeminar
)

func (t LessonType) String() string {
	switch t {
	case TypeLecture:
		return "lecture"
	case TypePractice:
		return "practice"
	case TypeLab:
		return "lab"
	case TypeSeminar:
		return "seminar"
	default:
		return Unspecified
	}
}

// ParseLessonType accepts the abbreviations of the export (Л, ПР, ЛР) and
// full names in either language.
func ParseLessonType(s string) LessonType {
	lower := strings.ToLower(strings.TrimSpace(s))
	switch {
	case lower == "":
		return TypeUnspecified
	case lower == "лр", strings.HasPrefix(lower, "лаб"), strings.HasPrefix(lower, "lab"):
		return TypeLab
	case lower == "л", strings.HasPrefix(lower, "лек"), strings.HasPrefix(lower, "lecture"):
		return TypeLecture
	case lower == "пр", strings.HasPrefix(lower, "практ"), strings.HasPrefix(lower, "practice"):
		return TypePractice
	case strings.HasPrefix(lower, "сем"), strings.HasPrefix(lower, "seminar"):
		return TypeSeminar
	default:
		return TypeUnspecified
	}
}

// SourceFamily identifies which timetable export a record came from.
type SourceFamily int

const (
	FamilyUnknown SourceFamily = iota
	FamilyGroup
	FamilyClassroom
	FamilyTeacher
)

var familyPrefixes = map[SourceFamily]string{
	FamilyGroup:     "groups_",
	FamilyClassroom: "classrooms_",
	FamilyTeacher:   "teachers_",
}

func (f SourceFamily) String() string {
	switch f {
	case FamilyGroup:
		return "group"
	case FamilyClassroom:
		return "classroom"
	case FamilyTeacher:
		return "teacher"
	default:
		return "unknown"
	}
}

// FamilyOf classifies a source document identifier such as
// "schedules/groups_4318.txt".
func FamilyOf(documentID string) SourceFamily {
	base := strings.ToLower(path.Base(strings.ReplaceAll(strings.TrimSpace(documentID), "\\", "/")))
	for family, prefix := range familyPrefixes {
		if strings.HasPrefix(base, prefix) {
			return family
		}
	}
	return FamilyUnknown
}

// Lesson is one scheduled class occurrence.
type Lesson struct {
	Day        Day        `json:"day"`
	Time       string     `json:"time"`
	Slot       Slot       `json:"slot,omitempty"`
	Week       WeekParity `json:"week"`
	Type       LessonType `json:"lesson_type"`
	Subject    string     `json:"subject"`
	Room       string     `json:"room"`
	Teachers   []string   `json:"teachers"`
	Groups     []string   `json:"groups"`
	Department string     `json:"department,omitempty"`

	// Score is the similarity of a vector-sourced record; HasScore is false
	// for records produced by a filter scan.
	Score    float64 `json:"score,omitempty"`
	HasScore bool    `json:"-"`

	DocumentID   string       `json:"document_id,omitempty"`
	SourceFamily SourceFamily `json:"source_family"`
}

func (d Day) MarshalText() ([]byte, error)          { return []byte(d.String()), nil }
func (w WeekParity) MarshalText() ([]byte, error)   { return []byte(w.String()), nil }
func (t LessonType) MarshalText() ([]byte, error)   { return []byte(t.String()), nil }
func (f SourceFamily) MarshalText() ([]byte, error) { return []byte(f.String()), nil }

func (d *Day) UnmarshalText(b []byte) error {
	*d = ParseDay(string(b))
	return nil
}

func (w *WeekParity) UnmarshalText(b []byte) error {
	*w = ParseWeek(string(b))
	return nil
}

func (t *LessonType) UnmarshalText(b []byte) error {
	*t = ParseLessonType(string(b))
	return nil
}

func (f *SourceFamily) UnmarshalText(b []byte) error {
	*f = FamilyUnknown
	for family := FamilyGroup; family <= FamilyTeacher; family++ {
		if strings.EqualFold(string(b), family.String()) {
			*f = family
		}
	}
	return nil
}

// Key is the natural identity of a lesson within one result set.
type Key struct {
	Day     Day
	Time    string
	Subject string
	Week    WeekParity
}

// Key returns the natural key. Known slots compare by number so that
// "1 пара" and "1 пара (09:30-11:00)" identify the same period.
func (l Lesson) Key() Key {
	t := strings.ToLower(strings.TrimSpace(l.Time))
	if l.Slot.Valid() {
		t = l.Slot.String()
	}
	return Key{
		Day:     l.Day,
		Time:    t,
		Subject: strings.ToLower(strings.TrimSpace(l.Subject)),
		Week:    l.Week,
	}
}

// TimeLabel is the display form of the lesson time.
func (l Lesson) TimeLabel() string {
	if strings.TrimSpace(l.Time) != "" && l.Time != Unspecified {
		return l.Time
	}
	if l.Slot.Valid() {
		return l.Slot.String()
	}
	return Unspecified
}
