package extractor

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/unirag/campus-rag/schedule"
)

// Query is the pre-processed question shared by all matchers.
type Query struct {
	Original    string
	Lower       string
	Tokens      []string // original case
	LowerTokens []string
}

// tokens keep inner hyphens and colons so that "52-17" and "09:30-11:00"
// stay whole.
var tokenRe = regexp.MustCompile(`[\p{L}\p{N}]+(?:[-:][\p{L}\p{N}]+)*`)

// NewQuery tokenizes a question.
func NewQuery(question string) *Query {
	q := &Query{Original: question, Lower: strings.ToLower(question)}
	q.Tokens = tokenRe.FindAllString(question, -1)
	q.LowerTokens = make([]string, len(q.Tokens))
	for i, t := range q.Tokens {
		q.LowerTokens[i] = strings.ToLower(t)
	}
	return q
}

// Matcher adds the candidates it recognises to c.
type Matcher interface {
	Name() string
	Match(q *Query, c *Criteria)
}

// scheduleKeywords are matched as token prefixes.
var scheduleKeywords = []string{
	"schedule", "timetable", "class", "lecture", "session", "seminar", "practice", "lesson",
	"расписан", "пара", "пары", "аудитор", "лекци", "занят", "семинар", "практик",
}

func isScheduleKeyword(lowerToken string) bool {
	for _, kw := range scheduleKeywords {
		if strings.HasPrefix(lowerToken, kw) {
			return true
		}
	}
	return false
}

// KeywordMatcher sets HasScheduleKeyword.
type KeywordMatcher struct{}

func (KeywordMatcher) Name() string { return "keyword" }

func (KeywordMatcher) Match(q *Query, c *Criteria) {
	for _, t := range q.LowerTokens {
		if isScheduleKeyword(t) {
			c.HasScheduleKeyword = true
			return
		}
	}
}

var groupRe = regexp.MustCompile(`^\p{L}?\d{3,4}\p{L}?$`)

// GroupMatcher collects group identifiers such as "4318" or "4318к".
type GroupMatcher struct{}

func (GroupMatcher) Name() string { return "group" }

func (GroupMatcher) Match(q *Query, c *Criteria) {
	for _, t := range q.LowerTokens {
		if groupRe.MatchString(t) {
			c.Groups = addUnique(c.Groups, t)
		}
	}
}

var roomRe = regexp.MustCompile(`^\d+-\d+$`)

// RoomMatcher collects room numbers written as building-room, e.g. "52-17".
type RoomMatcher struct{}

func (RoomMatcher) Name() string { return "room" }

func (RoomMatcher) Match(q *Query, c *Criteria) {
	for _, t := range q.LowerTokens {
		if roomRe.MatchString(t) {
			c.Rooms = addUnique(c.Rooms, t)
		}
	}
}

// DayMatcher records weekdays in their canonical English form.
type DayMatcher struct{}

func (DayMatcher) Name() string { return "day" }

func (DayMatcher) Match(q *Query, c *Criteria) {
	for _, d := range schedule.Days {
		for _, form := range d.Forms() {
			if strings.Contains(q.Lower, form) {
				c.Days = addUnique(c.Days, d.String())
				break
			}
		}
	}
}

var slotRe = regexp.MustCompile(`(?:^|[^\d])([1-6])(?:-?(?:st|nd|rd|th|я|ая|й))?\s*(?:slot|пар[аыуе])|(?:slot|пара)\s*№?\s*([1-6])(?:[^\d]|$)`)

// SlotMatcher records lesson periods 1..6 as digit strings.
type SlotMatcher struct{}

func (SlotMatcher) Name() string { return "slot" }

func (SlotMatcher) Match(q *Query, c *Criteria) {
	for _, m := range slotRe.FindAllStringSubmatch(q.Lower, -1) {
		digit := m[1]
		if digit == "" {
			digit = m[2]
		}
		c.TimeSlots = addUnique(c.TimeSlots, digit)
	}
}

var stopWords = map[string]struct{}{
	"what": {}, "when": {}, "where": {}, "who": {}, "whom": {}, "which": {}, "why": {}, "how": {},
	"the": {}, "and": {}, "for": {}, "with": {}, "from": {}, "about": {}, "this": {}, "that": {},
	"there": {}, "are": {}, "does": {}, "have": {}, "has": {}, "can": {}, "could": {}, "would": {},
	"show": {}, "tell": {}, "give": {}, "list": {}, "find": {}, "please": {}, "all": {}, "any": {},
	"next": {}, "today": {}, "tomorrow": {}, "room": {}, "day": {}, "week": {}, "our": {}, "my": {},
	"что": {}, "где": {}, "когда": {}, "кто": {}, "как": {}, "какие": {}, "какая": {}, "какой": {},
	"каком": {}, "покажи": {}, "подскажи": {}, "скажи": {}, "найди": {}, "пожалуйста": {}, "есть": {},
	"будет": {}, "сегодня": {}, "завтра": {}, "для": {}, "все": {}, "мне": {}, "нас": {}, "это": {},
}

var stopPrefixes = []string{"group", "teacher", "professor", "групп", "преподав", "недел", "кабинет"}

func isStopWord(lowerToken string) bool {
	if _, ok := stopWords[lowerToken]; ok {
		return true
	}
	for _, p := range stopPrefixes {
		if strings.HasPrefix(lowerToken, p) {
			return true
		}
	}
	return false
}

// TeacherMatcher collects capitalised surname candidates. It only runs when
// another matcher already produced a schedule signal, so conversational
// questions never yield teacher filters.
type TeacherMatcher struct{}

func (TeacherMatcher) Name() string { return "teacher" }

func (TeacherMatcher) Match(q *Query, c *Criteria) {
	if !c.HasSignal() {
		return
	}
	for i, t := range q.Tokens {
		if isSurnameCandidate(t, q.LowerTokens[i]) {
			c.Teachers = addUnique(c.Teachers, t)
		}
	}
}

func isSurnameCandidate(token, lower string) bool {
	if utf8.RuneCountInString(token) <= 2 {
		return false
	}
	first, _ := utf8.DecodeRuneInString(token)
	if !unicode.IsUpper(first) {
		return false
	}
	if strings.IndexFunc(token, unicode.IsDigit) >= 0 {
		return false
	}
	if schedule.ParseDay(lower) != schedule.DayUnknown {
		return false
	}
	return !isScheduleKeyword(lower) && !isStopWord(lower)
}
