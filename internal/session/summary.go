package session

import "github.com/resonman/ai-102-prep/internal/question"

// Summary holds the data displayed on the result screen.
type Summary struct {
	SessionID string
	Mode      string
	Total     int
	Answered  int
	Correct   int
	Wrong     []*question.Question // Wrongly answered, in session order
}

// Accuracy returns Correct/Total, or 0 for an empty session.
func (s Summary) Accuracy() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Correct) / float64(s.Total)
}

// WrongIDs returns the ids of the wrongly answered questions.
func (s Summary) WrongIDs() []string {
	ids := make([]string, len(s.Wrong))
	for i, q := range s.Wrong {
		ids[i] = q.ID
	}
	return ids
}
