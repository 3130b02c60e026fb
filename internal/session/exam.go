package session

import (
	"context"

	"github.com/resonman/ai-102-prep/internal/events"
	"github.com/resonman/ai-102-prep/internal/question"
	"github.com/resonman/ai-102-prep/internal/selector"
)

// Exam is a scored session over a shuffled subset of the pool. It moves
// Loading → InProgress → Finished and never back.
type Exam struct {
	g       *grader
	options selector.ExamOptions

	phase     Phase
	questions []*question.Question
	current   int
	results   map[string]bool
}

// NewExam returns an exam in PhaseLoading.
func NewExam(opts Options, exam selector.ExamOptions) *Exam {
	return &Exam{
		g:       newGrader(opts, ExamMode),
		options: exam,
		results: make(map[string]bool),
	}
}

// ID returns the session id used in study events.
func (e *Exam) ID() string { return e.g.sessionID }

func (e *Exam) Phase() Phase { return e.phase }

// Start selects the exam questions from pool. It runs once; later calls
// return ErrAlreadyStarted and keep the existing list. A selection with no
// questions finishes the exam immediately.
func (e *Exam) Start(ctx context.Context, pool []*question.Question) error {
	if e.phase != PhaseLoading {
		return ErrAlreadyStarted
	}

	e.questions = e.g.opts.Selector.Exam(pool, e.options)
	e.current = 0
	e.phase = PhaseInProgress
	e.g.opts.Logger.Info("exam started", "session_id", e.ID(), "questions", len(e.questions), "pool", len(pool))
	e.g.publish(ctx, events.NewSessionStarted(e.g.opts.Progress.LearnerID(), e.ID(), ExamMode, len(e.questions)))

	if len(e.questions) == 0 {
		e.finish(ctx)
	}
	return nil
}

// Questions returns the fixed question list of this exam.
func (e *Exam) Questions() []*question.Question {
	return e.questions
}

// Current returns the question awaiting an answer, or nil outside
// PhaseInProgress.
func (e *Exam) Current() *question.Question {
	if e.phase != PhaseInProgress {
		return nil
	}
	return e.questions[e.current]
}

// Position returns the 0-based index of the current question and the
// number of questions.
func (e *Exam) Position() (int, int) {
	return e.current, len(e.questions)
}

// Options returns the display order of the current question's options.
func (e *Exam) Options() []question.Option {
	return e.g.optionOrder(e.Current())
}

// Submit answers the current question and advances, finishing the exam
// after the last one.
func (e *Exam) Submit(ctx context.Context, sel question.Selection) (bool, error) {
	if e.phase != PhaseInProgress {
		return false, ErrNotInProgress
	}

	q := e.questions[e.current]
	correct, err := e.g.grade(ctx, q, sel)
	if err != nil {
		return false, err
	}
	e.results[q.ID] = correct

	if e.current == len(e.questions)-1 {
		e.finish(ctx)
	} else {
		e.current++
	}
	return correct, nil
}

// Result reports how q was answered in this exam.
func (e *Exam) Result(id string) (correct, answered bool) {
	correct, answered = e.results[id]
	return correct, answered
}

// Summary returns the score so far; final once the exam is finished.
func (e *Exam) Summary() Summary {
	s := Summary{
		SessionID: e.ID(),
		Mode:      ExamMode,
		Total:     len(e.questions),
		Answered:  len(e.results),
	}
	for _, q := range e.questions {
		correct, ok := e.results[q.ID]
		switch {
		case !ok:
		case correct:
			s.Correct++
		default:
			s.Wrong = append(s.Wrong, q)
		}
	}
	return s
}

func (e *Exam) finish(ctx context.Context) {
	e.phase = PhaseFinished
	s := e.Summary()
	e.g.opts.Logger.Info("exam finished", "session_id", e.ID(), "correct", s.Correct, "total", s.Total)
	e.g.publish(ctx, events.NewSessionFinished(e.g.opts.Progress.LearnerID(), e.ID(), ExamMode, s.Total, s.Correct, s.WrongIDs()))
}
