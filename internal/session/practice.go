package session

import (
	"context"
	"fmt"

	"github.com/resonman/ai-102-prep/internal/progress"
	"github.com/resonman/ai-102-prep/internal/question"
	"github.com/resonman/ai-102-prep/internal/selector"
)

// Practice walks the whole pool in order, resuming at the sequential
// bookmark. Answers are graded and recorded but never scored.
type Practice struct {
	*Navigator
	g *grader
}

// NewPractice returns a practice session over pool.
func NewPractice(opts Options, pool []*question.Question) *Practice {
	g := newGrader(opts, progress.ModeSequential.String())
	items := g.opts.Selector.Practice(pool)
	return &Practice{
		Navigator: NewNavigator(progress.ModeSequential, items, g.opts.Progress),
		g:         g,
	}
}

// ID returns the session id used in study events.
func (p *Practice) ID() string { return p.g.sessionID }

// Options returns the display order of the current question's options.
func (p *Practice) Options() []question.Option {
	return p.g.optionOrder(p.Current())
}

// Submit grades sel against the current question. The index does not move.
func (p *Practice) Submit(ctx context.Context, sel question.Selection) (bool, error) {
	return p.g.grade(ctx, p.Current(), sel)
}

// ToggleFavorite flips the favorite flag of the current question and
// returns the new state.
func (p *Practice) ToggleFavorite() (bool, error) {
	q := p.Current()
	if q == nil {
		return false, ErrNoQuestion
	}
	return p.g.opts.Progress.ToggleFavorite(q.ID), nil
}

// Restart returns to the first question.
func (p *Practice) Restart() {
	p.restart()
}

// Review walks the learner's mistakes or favorites in pool order.
type Review struct {
	*Navigator
	g *grader
}

// NewReview returns a review over the questions of pool in the mistake or
// favorite set, depending on mode.
func NewReview(opts Options, mode progress.Mode, pool []*question.Question) (*Review, error) {
	g := newGrader(opts, mode.String())

	var items []*question.Question
	switch mode {
	case progress.ModeMistakeReview:
		items = selector.Mistakes(pool, g.opts.Progress.MistakeIDs())
	case progress.ModeFavoriteReview:
		items = selector.Favorites(pool, g.opts.Progress.FavoriteIDs())
	default:
		return nil, fmt.Errorf("%s is not a review mode", mode)
	}

	return &Review{
		Navigator: NewNavigator(mode, items, g.opts.Progress),
		g:         g,
	}, nil
}

// ID returns the session id used in study events.
func (r *Review) ID() string { return r.g.sessionID }

// Options returns the display order of the current question's options.
func (r *Review) Options() []question.Option {
	return r.g.optionOrder(r.Current())
}

// Submit grades sel against the current question. A wrong answer counts as
// another mistake.
func (r *Review) Submit(ctx context.Context, sel question.Selection) (bool, error) {
	return r.g.grade(ctx, r.Current(), sel)
}

// ToggleFavorite flips the favorite flag of the current question and
// returns the new state. Unfavoriting during a favorite review drops the
// question from the list.
func (r *Review) ToggleFavorite() (bool, error) {
	q := r.Current()
	if q == nil {
		return false, ErrNoQuestion
	}
	fav := r.g.opts.Progress.ToggleFavorite(q.ID)
	if !fav && r.mode == progress.ModeFavoriteReview {
		r.Remove(q.ID)
	}
	return fav, nil
}

// Master removes the current question from the mistake set; its mistake
// count is kept. During a mistake review the question leaves the list.
func (r *Review) Master() error {
	q := r.Current()
	if q == nil {
		return ErrNoQuestion
	}
	r.g.opts.Progress.RemoveMistake(q.ID)
	if r.mode == progress.ModeMistakeReview {
		r.Remove(q.ID)
	}
	return nil
}
