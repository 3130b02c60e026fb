package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/resonman/ai-102-prep/internal/question"
)

// Type identifies a study event.
type Type string

const (
	TypeSessionStarted  Type = "session.started"
	TypeAnswerRecorded  Type = "answer.recorded"
	TypeSessionFinished Type = "session.finished"
)

const (
	// DefaultTopic is the topic study events are published on.
	DefaultTopic = "study-events"

	source  = "ai102"
	version = "1"
)

// Event is the envelope of every study event. Exactly one payload is set,
// matching Type.
type Event struct {
	ID        string          `json:"id"`
	Type      Type            `json:"type"`
	Source    string          `json:"source"`
	Version   string          `json:"version"`
	Timestamp time.Time       `json:"timestamp"`
	LearnerID string          `json:"learner_id"`
	SessionID string          `json:"session_id"`
	Mode      string          `json:"mode"`
	Answer    *AnswerPayload  `json:"answer,omitempty"`
	Session   *SessionPayload `json:"session,omitempty"`
}

// AnswerPayload describes one evaluated submission.
type AnswerPayload struct {
	QuestionID   string             `json:"question_id"`
	QuestionType string             `json:"question_type"`
	Topic        string             `json:"topic"`
	Correct      bool               `json:"correct"`
	Selection    question.Selection `json:"selection"`
}

// SessionPayload describes a session at start or finish.
type SessionPayload struct {
	QuestionsServed int      `json:"questions_served"`
	CorrectAnswers  int      `json:"correct_answers"`
	WrongIDs        []string `json:"wrong_ids,omitempty"`
}

func newEvent(t Type, learnerID, sessionID, mode string) *Event {
	return &Event{
		ID:        uuid.NewString(),
		Type:      t,
		Source:    source,
		Version:   version,
		Timestamp: time.Now().UTC(),
		LearnerID: learnerID,
		SessionID: sessionID,
		Mode:      mode,
	}
}

// NewAnswerRecorded builds an answer.recorded event.
func NewAnswerRecorded(learnerID, sessionID, mode string, q *question.Question, sel question.Selection, correct bool) *Event {
	e := newEvent(TypeAnswerRecorded, learnerID, sessionID, mode)
	e.Answer = &AnswerPayload{
		QuestionID:   q.ID,
		QuestionType: string(q.Type),
		Topic:        q.Topic,
		Correct:      correct,
		Selection:    sel.Clone(),
	}
	return e
}

// NewSessionStarted builds a session.started event.
func NewSessionStarted(learnerID, sessionID, mode string, questions int) *Event {
	e := newEvent(TypeSessionStarted, learnerID, sessionID, mode)
	e.Session = &SessionPayload{QuestionsServed: questions}
	return e
}

// NewSessionFinished builds a session.finished event.
func NewSessionFinished(learnerID, sessionID, mode string, served, correct int, wrongIDs []string) *Event {
	e := newEvent(TypeSessionFinished, learnerID, sessionID, mode)
	e.Session = &SessionPayload{
		QuestionsServed: served,
		CorrectAnswers:  correct,
		WrongIDs:        wrongIDs,
	}
	return e
}
