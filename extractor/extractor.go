package extractor

// Extractor applies its matchers in order to a fresh Criteria.
type Extractor struct {
	matchers []Matcher
}

// New builds an extractor from an explicit matcher list.
func New(matchers ...Matcher) *Extractor {
	return &Extractor{matchers: matchers}
}

// Default returns the standard matcher chain. TeacherMatcher must stay last
// because it reads the signals found by the others.
func Default() *Extractor {
	return New(
		KeywordMatcher{},
		GroupMatcher{},
		RoomMatcher{},
		DayMatcher{},
		SlotMatcher{},
		TeacherMatcher{},
	)
}

// Extract is pure and deterministic.
func (e *Extractor) Extract(question string) Criteria {
	c := NewCriteria()
	q := NewQuery(question)
	for _, m := range e.matchers {
		m.Match(q, &c)
	}
	return c
}

var defaultExtractor = Default()

// Extract runs the default matcher chain.
func Extract(question string) Criteria {
	return defaultExtractor.Extract(question)
}
