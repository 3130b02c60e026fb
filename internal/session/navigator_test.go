package session

import (
	"fmt"
	"testing"

	"github.com/resonman/ai-102-prep/internal/progress"
	"github.com/resonman/ai-102-prep/internal/question"
)

// bookmarks records RecordIndex calls and serves Index from them.
type bookmarks struct {
	Progress
	index map[progress.Mode]int
	calls []int
}

func newBookmarks() *bookmarks {
	return &bookmarks{index: map[progress.Mode]int{}}
}

func (b *bookmarks) Index(mode progress.Mode) int { return b.index[mode] }

func (b *bookmarks) RecordIndex(mode progress.Mode, i int) {
	b.index[mode] = i
	b.calls = append(b.calls, i)
}

func items(n int) []*question.Question {
	qs := make([]*question.Question, n)
	for i := range qs {
		qs[i] = singleQ(fmt.Sprintf("Q%d", i+1), "A")
	}
	return qs
}

func TestNavigatorClampsAtEnd(t *testing.T) {
	b := newBookmarks()
	b.index[progress.ModeMistakeReview] = 4
	n := NewNavigator(progress.ModeMistakeReview, items(5), b)

	if n.Index() != 4 {
		t.Fatalf("Index() = %d, want 4", n.Index())
	}
	if n.Next() {
		t.Error("Next() at last item reported a move")
	}
	if n.Index() != 4 {
		t.Errorf("Index() = %d after Next at end, want 4", n.Index())
	}
	if len(b.calls) != 0 {
		t.Errorf("bookmark written %d times for a clamped move, want 0", len(b.calls))
	}
}

func TestNavigatorClampsAtStart(t *testing.T) {
	b := newBookmarks()
	n := NewNavigator(progress.ModeFavoriteReview, items(3), b)

	if n.Prev() {
		t.Error("Prev() at first item reported a move")
	}
	if n.Jump(-7) {
		t.Error("Jump(-7) at first item reported a move")
	}
	if n.Index() != 0 {
		t.Errorf("Index() = %d, want 0", n.Index())
	}
}

func TestNavigatorPersistsMoves(t *testing.T) {
	b := newBookmarks()
	n := NewNavigator(progress.ModeSequential, items(5), b)

	n.Next()
	n.Next()
	n.Prev()
	n.Jump(99)

	want := []int{1, 2, 1, 4}
	if fmt.Sprint(b.calls) != fmt.Sprint(want) {
		t.Errorf("bookmarks = %v, want %v", b.calls, want)
	}
	if got := n.Current().ID; got != "Q5" {
		t.Errorf("Current().ID = %q, want Q5", got)
	}
}

func TestNavigatorStartsFromClampedBookmark(t *testing.T) {
	b := newBookmarks()
	b.index[progress.ModeMistakeReview] = 12
	n := NewNavigator(progress.ModeMistakeReview, items(3), b)

	if n.Index() != 2 {
		t.Errorf("Index() = %d, want 2", n.Index())
	}
}

func TestNavigatorEmpty(t *testing.T) {
	n := NewNavigator(progress.ModeFavoriteReview, nil, newBookmarks())

	if n.Current() != nil {
		t.Error("Current() on empty list should be nil")
	}
	if n.Next() || n.Prev() {
		t.Error("moves on an empty list should report no change")
	}
}

func TestNavigatorRemove(t *testing.T) {
	tests := []struct {
		name      string
		start     int
		remove    string
		wantIndex int
		wantID    string
		wantCalls int
	}{
		{"before current", 2, "Q1", 1, "Q3", 1},
		{"current in middle", 1, "Q2", 1, "Q3", 0},
		{"current at end", 3, "Q4", 2, "Q3", 1},
		{"after current", 0, "Q4", 0, "Q1", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newBookmarks()
			b.index[progress.ModeMistakeReview] = tt.start
			n := NewNavigator(progress.ModeMistakeReview, items(4), b)

			if !n.Remove(tt.remove) {
				t.Fatalf("Remove(%q) = false", tt.remove)
			}
			if n.Len() != 3 {
				t.Errorf("Len() = %d, want 3", n.Len())
			}
			if n.Index() != tt.wantIndex {
				t.Errorf("Index() = %d, want %d", n.Index(), tt.wantIndex)
			}
			if got := n.Current().ID; got != tt.wantID {
				t.Errorf("Current().ID = %q, want %q", got, tt.wantID)
			}
			if len(b.calls) != tt.wantCalls {
				t.Errorf("bookmark writes = %d, want %d", len(b.calls), tt.wantCalls)
			}
		})
	}
}

func TestNavigatorRemoveUnknown(t *testing.T) {
	n := NewNavigator(progress.ModeMistakeReview, items(2), newBookmarks())
	if n.Remove("nope") {
		t.Error("Remove of unknown id reported success")
	}
}

func TestNavigatorSkipsNilQuestions(t *testing.T) {
	qs := items(3)
	qs = append([]*question.Question{nil}, qs[0], nil, qs[1], qs[2])
	n := NewNavigator(progress.ModeSequential, qs, newBookmarks())

	if n.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", n.Len())
	}
	if got := n.Current().ID; got != "Q1" {
		t.Errorf("Current().ID = %q, want Q1", got)
	}
	if !n.Remove("Q2") {
		t.Error("Remove(Q2) reported no match")
	}
	if n.Remove("nope") {
		t.Error("Remove of unknown id reported success")
	}
	if n.Len() != 2 {
		t.Errorf("Len() = %d after Remove, want 2", n.Len())
	}
}

func TestPhaseString(t *testing.T) {
	for p, want := range map[Phase]string{
		PhaseLoading:    "loading",
		PhaseInProgress: "in_progress",
		PhaseFinished:   "finished",
	} {
		if got := p.String(); got != want {
			t.Errorf("Phase(%d).String() = %q, want %q", p, got, want)
		}
	}
}
