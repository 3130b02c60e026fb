package store

import (
	"context"
	"time"
)

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit int       // max results (0 = unlimited)
	From  time.Time // timestamp >= From
}

// Session event actions.
const (
	ActionStarted  = "started"
	ActionFinished = "finished"
)

// SessionEventData captures one session lifecycle event.
type SessionEventData struct {
	Sequence        int64
	Timestamp       time.Time
	SessionID       string
	LearnerID       string
	Mode            string
	Action          string
	QuestionsServed int
	CorrectAnswers  int
}

// AnswerEventData captures one submitted answer.
type AnswerEventData struct {
	Sequence     int64
	Timestamp    time.Time
	SessionID    string
	LearnerID    string
	Mode         string
	QuestionID   string
	QuestionType string
	Topic        string
	Correct      bool
	Selection    string // JSON form of the selection
}

// Accuracy summarizes answered questions.
type Accuracy struct {
	Topic    string
	Answered int
	Correct  int
}

// Ratio returns Correct/Answered, or 0 with nothing answered.
func (a Accuracy) Ratio() float64 {
	if a.Answered == 0 {
		return 0
	}
	return float64(a.Correct) / float64(a.Answered)
}

// EventRepo provides append and query access to study history.
type EventRepo interface {
	// AppendSessionEvent records a session lifecycle event.
	AppendSessionEvent(ctx context.Context, data SessionEventData) error

	// AppendAnswerEvent records a submitted answer.
	AppendAnswerEvent(ctx context.Context, data AnswerEventData) error

	// RecentSessions returns finished sessions of a learner, newest first.
	RecentSessions(ctx context.Context, learnerID string, opts QueryOpts) ([]SessionEventData, error)

	// Accuracy returns the learner's overall answer accuracy.
	Accuracy(ctx context.Context, learnerID string) (Accuracy, error)

	// TopicAccuracy returns accuracy grouped by question topic.
	TopicAccuracy(ctx context.Context, learnerID string) ([]Accuracy, error)
}
