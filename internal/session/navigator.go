package session

import (
	"slices"

	"github.com/resonman/ai-102-prep/internal/progress"
	"github.com/resonman/ai-102-prep/internal/question"
)

// Navigator walks a fixed question list for one bookmark mode. The index
// is clamped to [0, Len()-1] and every move is saved as the mode's
// bookmark.
type Navigator struct {
	mode  progress.Mode
	prog  Progress
	items []*question.Question
	index int
}

// NewNavigator starts at the stored bookmark of mode, clamped to items.
func NewNavigator(mode progress.Mode, items []*question.Question, prog Progress) *Navigator {
	items = slices.DeleteFunc(slices.Clone(items), func(q *question.Question) bool { return q == nil })
	n := &Navigator{mode: mode, prog: prog, items: items}
	n.index = n.clamp(prog.Index(mode))
	return n
}

func (n *Navigator) Mode() progress.Mode { return n.mode }

func (n *Navigator) Len() int { return len(n.items) }

func (n *Navigator) Index() int { return n.index }

// Items returns the question list in navigation order.
func (n *Navigator) Items() []*question.Question { return n.items }

// Current returns the question at the index, or nil for an empty list.
func (n *Navigator) Current() *question.Question {
	if len(n.items) == 0 {
		return nil
	}
	return n.items[n.index]
}

// Next moves forward one question. It reports whether the index changed.
func (n *Navigator) Next() bool { return n.Jump(n.index + 1) }

// Prev moves back one question. It reports whether the index changed.
func (n *Navigator) Prev() bool { return n.Jump(n.index - 1) }

// Jump moves to i, clamped. It reports whether the index changed.
func (n *Navigator) Jump(i int) bool {
	i = n.clamp(i)
	if i == n.index {
		return false
	}
	n.index = i
	n.prog.RecordIndex(n.mode, i)
	return true
}

// Remove drops the question with the given id from the list. The index
// keeps pointing at the same question when an earlier one is removed and
// is re-clamped when the last one goes.
func (n *Navigator) Remove(id string) bool {
	at := slices.IndexFunc(n.items, func(q *question.Question) bool { return q != nil && q.ID == id })
	if at < 0 {
		return false
	}
	n.items = slices.Delete(slices.Clone(n.items), at, at+1)

	i := n.index
	if at < i {
		i--
	}
	i = n.clamp(i)
	if i != n.index {
		n.index = i
		n.prog.RecordIndex(n.mode, i)
	}
	return true
}

func (n *Navigator) clamp(i int) int {
	if i >= len(n.items) {
		i = len(n.items) - 1
	}
	if i < 0 {
		i = 0
	}
	return i
}

// restart moves to the first question and saves the bookmark even when
// already there.
func (n *Navigator) restart() {
	n.index = 0
	n.prog.RecordIndex(n.mode, 0)
}
