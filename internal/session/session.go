// Package session drives study sessions: scored exams, sequential practice
// and the mistake and favorite reviews. Controllers are not safe for
// concurrent use; they are driven by one caller at a time.
package session

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/resonman/ai-102-prep/internal/evaluate"
	"github.com/resonman/ai-102-prep/internal/events"
	"github.com/resonman/ai-102-prep/internal/question"
	"github.com/resonman/ai-102-prep/internal/selector"
)

// Options wires a controller to its collaborators. Progress is required;
// everything else has a default.
type Options struct {
	Progress  Progress
	Evaluator *evaluate.Evaluator
	Selector  *selector.Selector
	Events    events.Publisher
	Logger    *slog.Logger

	// RandomizeOptions shuffles the options of questions that allow it.
	RandomizeOptions bool
}

func (o Options) withDefaults() Options {
	if o.Evaluator == nil {
		o.Evaluator = evaluate.New(evaluate.SimulationCompare)
	}
	if o.Selector == nil {
		o.Selector = selector.New(nil)
	}
	if o.Events == nil {
		o.Events = events.NopPublisher{}
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// grader evaluates submissions and reports them to progress and events.
// Shared by every controller.
type grader struct {
	opts      Options
	sessionID string
	mode      string
	order     map[string][]question.Option
}

func newGrader(opts Options, mode string) *grader {
	return &grader{
		opts:      opts.withDefaults(),
		sessionID: uuid.NewString(),
		mode:      mode,
		order:     make(map[string][]question.Option),
	}
}

// optionOrder returns the display order of q's options, computed once per
// question and reused until the session ends.
func (g *grader) optionOrder(q *question.Question) []question.Option {
	if q == nil {
		return nil
	}
	if opts, ok := g.order[q.ID]; ok {
		return opts
	}
	opts := g.opts.Selector.OptionOrder(q, g.opts.RandomizeOptions)
	g.order[q.ID] = opts
	return opts
}

// grade evaluates sel against q. Incomplete selections are rejected before
// evaluation. The last answer is always stored; a wrong answer also counts
// as a mistake.
func (g *grader) grade(ctx context.Context, q *question.Question, sel question.Selection) (bool, error) {
	if q == nil {
		return false, ErrNoQuestion
	}
	if !g.opts.Evaluator.Complete(q, sel) {
		return false, ErrIncompleteAnswer
	}

	correct := g.opts.Evaluator.Evaluate(q, sel)
	g.opts.Progress.RecordAnswer(q.ID, sel)
	if !correct {
		count := g.opts.Progress.RecordMistake(q.ID)
		g.opts.Logger.Debug("mistake recorded", "question_id", q.ID, "count", count)
	}

	g.publish(ctx, events.NewAnswerRecorded(g.opts.Progress.LearnerID(), g.sessionID, g.mode, q, sel, correct))
	return correct, nil
}

// publish sends e, logging failures. Study history is best-effort.
func (g *grader) publish(ctx context.Context, e *events.Event) {
	if err := g.opts.Events.Publish(ctx, e); err != nil {
		g.opts.Logger.Warn("study event not published", "event_type", e.Type, "session_id", g.sessionID, "error", err)
	}
}
