package schedule

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDay(t *testing.T) {
	tests := []struct {
		in   string
		want Day
	}{
		{"Понедельник", Monday},
		{"monday", Monday},
		{"во вторник", Tuesday},
		{"в среду", Wednesday},
		{"Четверг", Thursday},
		{"в пятницу", Friday},
		{"Суббота", Saturday},
		{"Sunday", DayUnknown},
		{"", DayUnknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseDay(tt.in), tt.in)
	}
}

func TestParseSlot(t *testing.T) {
	tests := []struct {
		in   string
		want Slot
	}{
		{"1 пара (09:30-11:00)", 1},
		{"3-я пара", 3},
		{"slot 4", 4},
		{"2nd slot", 2},
		{"6 slot", 6},
		{"7 пара", SlotUnknown},
		{"11:10-12:40", SlotUnknown},
		{"", SlotUnknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseSlot(tt.in), tt.in)
	}
}

func TestParseWeekAndType(t *testing.T) {
	assert.Equal(t, WeekUpper, ParseWeek("▲"))
	assert.Equal(t, WeekLower, ParseWeek("▼"))
	assert.Equal(t, WeekLower, ParseWeek("нижняя"))
	assert.Equal(t, WeekUnspecified, ParseWeek(""))

	assert.Equal(t, TypeLecture, ParseLessonType("Л"))
	assert.Equal(t, TypePractice, ParseLessonType("ПР"))
	assert.Equal(t, TypeLab, ParseLessonType("ЛР"))
	assert.Equal(t, TypeSeminar, ParseLessonType("seminar"))
	assert.Equal(t, TypeUnspecified, ParseLessonType("exam"))
}

func TestFamilyOf(t *testing.T) {
	assert.Equal(t, FamilyGroup, FamilyOf("schedules/groups_4318.txt"))
	assert.Equal(t, FamilyClassroom, FamilyOf("classrooms_52-17.txt"))
	assert.Equal(t, FamilyTeacher, FamilyOf(`schedules\teachers_77.txt`))
	assert.Equal(t, FamilyUnknown, FamilyOf("https://guap.ru/news/1"))
	assert.Equal(t, FamilyUnknown, FamilyOf(""))
}

func TestFromPayload(t *testing.T) {
	payload := map[string]any{
		"text":        "Понедельник. 1 пара ...",
		"type":        "schedule",
		"document_id": "schedules/groups_4318.txt",
		"metadata": map[string]any{
			"day":         "Понедельник",
			"time":        "1 пара (09:30-11:00)",
			"week":        "▲",
			"lesson_type": "Л",
			"subject":     "Математический анализ",
			"room":        "ауд. 52-17",
			"teacher":     []any{"Иванов И.И.", "Петров П.П."},
			"groups":      []any{"4318", "4319"},
		},
	}

	l := FromPayload(payload)
	assert.Equal(t, Monday, l.Day)
	assert.Equal(t, Slot(1), l.Slot)
	assert.Equal(t, WeekUpper, l.Week)
	assert.Equal(t, TypeLecture, l.Type)
	assert.Equal(t, "ауд. 52-17", l.Room)
	assert.Equal(t, []string{"Иванов И.И.", "Петров П.П."}, l.Teachers)
	assert.Equal(t, []string{"4318", "4319"}, l.Groups)
	assert.Equal(t, Unspecified, l.Department)
	assert.Equal(t, FamilyGroup, l.SourceFamily)
	assert.False(t, l.HasScore)
}

func TestFromPayload_Malformed(t *testing.T) {
	l := FromPayload(map[string]any{"metadata": "not a map", "teacher": "Сидоров, , Кузнецов"})
	assert.Equal(t, DayUnknown, l.Day)
	assert.Equal(t, SlotUnknown, l.Slot)
	assert.Equal(t, Unspecified, l.Subject)
	assert.Equal(t, Unspecified, l.Room)
	assert.Equal(t, Unspecified, l.Time)
	assert.Equal(t, []string{"Сидоров", "Кузнецов"}, l.Teachers)
	assert.NotNil(t, l.Groups)
	assert.Empty(t, l.Groups)
	assert.Equal(t, FamilyUnknown, l.SourceFamily)
}

func lesson(day Day, slot Slot, subject string) Lesson {
	return Lesson{Day: day, Slot: slot, Time: slot.String(), Subject: subject}
}

func TestNormalize_DedupFirstWins(t *testing.T) {
	first := lesson(Monday, 1, "Physics")
	first.Room = "52-17"
	first.Teachers = []string{"Ivanov"}
	second := lesson(Monday, 1, "Physics")
	second.Room = "11-01"
	second.Teachers = []string{"Petrov"}

	out := Normalize([]Lesson{first, second})
	require.Len(t, out, 1)
	assert.Equal(t, "52-17", out[0].Room)
	assert.Equal(t, []string{"Ivanov"}, out[0].Teachers)
}

func TestNormalize_WeekParityIsPartOfKey(t *testing.T) {
	upper := lesson(Monday, 1, "Physics")
	upper.Week = WeekUpper
	lower := lesson(Monday, 1, "Physics")
	lower.Week = WeekLower

	assert.Len(t, Normalize([]Lesson{upper, lower}), 2)
}

func TestNormalize_SlotLabelsCompareByNumber(t *testing.T) {
	a := Lesson{Day: Friday, Time: "2 пара (11:10-12:40)", Slot: 2, Subject: "Chemistry"}
	b := Lesson{Day: Friday, Time: "2 пара", Slot: 2, Subject: "chemistry "}
	assert.Len(t, Normalize([]Lesson{a, b}), 1)
}

func TestNormalize_Order(t *testing.T) {
	in := []Lesson{
		lesson(DayUnknown, 1, "A"),
		lesson(Wednesday, SlotUnknown, "B"),
		lesson(Wednesday, 2, "C"),
		lesson(Monday, 5, "D"),
		lesson(Monday, 1, "E"),
		lesson(Saturday, 1, "F"),
	}
	out := Normalize(in)
	var subjects []string
	for _, l := range out {
		subjects = append(subjects, l.Subject)
	}
	assert.Equal(t, []string{"E", "D", "C", "B", "F", "A"}, subjects)
}

func TestNormalize_ScoreTieBreak(t *testing.T) {
	low := lesson(Tuesday, 3, "Low")
	low.Score, low.HasScore = 0.4, true
	high := lesson(Tuesday, 3, "High")
	high.Score, high.HasScore = 0.9, true
	earlier := lesson(Monday, 6, "Earlier")
	earlier.Score, earlier.HasScore = 0.1, true

	out := Normalize([]Lesson{low, high, earlier})
	require.Len(t, out, 3)
	assert.Equal(t, "Earlier", out[0].Subject, "day rank wins over score")
	assert.Equal(t, "High", out[1].Subject)
	assert.Equal(t, "Low", out[2].Subject)
}

func TestNormalize_Idempotent(t *testing.T) {
	in := []Lesson{
		lesson(Thursday, 2, "X"),
		lesson(Monday, 3, "Y"),
		lesson(Thursday, 2, "X"),
		lesson(DayUnknown, SlotUnknown, "Z"),
	}
	once := Normalize(in)
	if diff := cmp.Diff(once, Normalize(once)); diff != "" {
		t.Errorf("Normalize is not idempotent (-once +twice):\n%s", diff)
	}
}

func TestNormalize_Empty(t *testing.T) {
	out := Normalize(nil)
	assert.NotNil(t, out)
	assert.Empty(t, out)
}

func TestLessonJSON(t *testing.T) {
	l := Lesson{Day: Tuesday, Slot: 2, Time: "2 пара", Week: WeekLower, Type: TypeLab, Subject: "Physics",
		Room: "52-17", Teachers: []string{}, Groups: []string{"4318"}, SourceFamily: FamilyGroup, HasScore: true}
	data, err := json.Marshal(l)
	require.NoError(t, err)
	assert.JSONEq(t, `{"day":"Tuesday","time":"2 пара","slot":2,"week":"lower","lesson_type":"lab",
		"subject":"Physics","room":"52-17","teachers":[],"groups":["4318"],"source_family":"group"}`, string(data))
}

func TestLessonJSON_RoundTrip(t *testing.T) {
	in := Lesson{Day: Friday, Slot: 5, Time: "5 пара", Week: WeekUpper, Type: TypeSeminar, Subject: "Law",
		Room: Unspecified, Teachers: []string{"Orlov"}, Groups: []string{}, SourceFamily: FamilyTeacher}
	data, err := json.Marshal(in)
	require.NoError(t, err)
	var out Lesson
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, in, out)
}
