package session

import "errors"

// Phase represents the current phase of an exam session.
type Phase int

const (
	PhaseLoading    Phase = iota // Question list not generated yet
	PhaseInProgress              // Serving questions
	PhaseFinished                // Last result recorded
)

func (p Phase) String() string {
	switch p {
	case PhaseInProgress:
		return "in_progress"
	case PhaseFinished:
		return "finished"
	default:
		return "loading"
	}
}

var (
	// ErrAlreadyStarted is returned by Start once the question list exists.
	ErrAlreadyStarted = errors.New("session already started")

	// ErrNotInProgress is returned when answering outside PhaseInProgress.
	ErrNotInProgress = errors.New("session not in progress")

	// ErrIncompleteAnswer is returned for a selection that leaves the
	// question unanswered or a slot unfilled. Nothing is evaluated.
	ErrIncompleteAnswer = errors.New("answer incomplete")

	// ErrNoQuestion is returned when there is no current question.
	ErrNoQuestion = errors.New("no current question")
)

// ExamMode names exam sessions in study events.
const ExamMode = "exam"
