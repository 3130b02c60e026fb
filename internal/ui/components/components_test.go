package components

import (
	"bytes"
	"strings"
	"testing"

	"charm.land/lipgloss/v2"

	"github.com/resonman/ai-102-prep/internal/question"
)

// plain renders s through a non-terminal writer, which drops styling.
func plain(t *testing.T, s string) string {
	t.Helper()
	var buf bytes.Buffer
	if _, err := lipgloss.Fprint(&buf, s); err != nil {
		t.Fatalf("Fprint: %v", err)
	}
	return buf.String()
}

func dragDrop() *question.Question {
	return &question.Question{
		ID:          "Q7",
		Topic:       "Knowledge mining",
		Type:        question.TypeDragDrop,
		Text:        "Order the indexer steps.",
		CodeSnippet: "az search indexer run",
		Options:     []question.Option{{ID: "A", Text: "Crack documents"}, {ID: "B", Text: "Apply skillset"}},
		TextMap:     map[string]string{"first": "Step one"},
		Correct: question.CorrectAnswer{Kind: question.AnswerSlots, Bindings: []question.SlotBinding{
			{Slot: 0, Target: "first", OptionID: "A"},
			{Slot: 1, OptionID: "B"},
		}},
		Explanation: "Documents are cracked before enrichment.",
	}
}

func TestQuestionCardView(t *testing.T) {
	q := dragDrop()
	last := question.Slots(map[int]string{0: "B", 1: "A"})
	card := QuestionCard{
		Question:     q,
		Options:      q.Options,
		Index:        2,
		Total:        5,
		Favorite:     true,
		MistakeCount: 3,
		LastAnswer:   &last,
	}

	out := plain(t, card.View())
	for _, want := range []string{
		"Question 3/5",
		"Q7",
		"Knowledge mining",
		"Order the indexer steps.",
		"az search indexer run",
		"A)  Crack documents",
		"0: Step one",
		"1: position 2",
		"★",
		"✗3",
		"Last time: 0=B 1=A",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("card missing %q:\n%s", want, out)
		}
	}
}

func TestFeedback(t *testing.T) {
	q := dragDrop()

	out := plain(t, Feedback(q, question.Slots(map[int]string{0: "B", 1: "A"}), false))
	for _, want := range []string{"Incorrect", "you: 0=B 1=A", "answer: 0=A 1=B", "cracked before enrichment"} {
		if !strings.Contains(out, want) {
			t.Errorf("feedback missing %q:\n%s", want, out)
		}
	}

	out = plain(t, Feedback(q, question.Slots(map[int]string{0: "A", 1: "B"}), true))
	if !strings.Contains(out, "Correct") || strings.Contains(out, "answer:") {
		t.Errorf("unexpected correct feedback:\n%s", out)
	}
}

func TestProgressBar(t *testing.T) {
	bar := NewProgressBar("Exam", 3, 12, 40)
	if got := bar.Ratio(); got != 0.25 {
		t.Errorf("Ratio() = %v, want 0.25", got)
	}
	if out := plain(t, bar.View()); !strings.Contains(out, "Exam") || !strings.Contains(out, "3/12") {
		t.Errorf("View() = %q", out)
	}

	bar.Percent = true
	if out := plain(t, bar.View()); !strings.Contains(out, "25%") {
		t.Errorf("View() with percent = %q", out)
	}

	if got := NewProgressBar("", 5, 0, 10).Ratio(); got != 0 {
		t.Errorf("Ratio() with zero total = %v, want 0", got)
	}
	if got := NewProgressBar("", 9, 3, 10).Ratio(); got != 1 {
		t.Errorf("Ratio() overfull = %v, want 1", got)
	}
}
