package components

import (
	"fmt"
	"strings"

	"github.com/resonman/ai-102-prep/internal/prompt"
	"github.com/resonman/ai-102-prep/internal/question"
	"github.com/resonman/ai-102-prep/internal/ui/theme"
)

// QuestionCard renders one question for the line prompt.
type QuestionCard struct {
	Question *question.Question
	Options  []question.Option // Display order
	Index    int               // 0-based position in the session
	Total    int

	Favorite     bool
	MistakeCount int
	LastAnswer   *question.Selection
}

// View renders the card.
func (c QuestionCard) View() string {
	q := c.Question
	var b strings.Builder

	header := fmt.Sprintf("Question %d/%d  %s  [%s]", c.Index+1, c.Total, q.ID, q.Type)
	b.WriteString(theme.Title.Render(header))
	if c.Favorite {
		b.WriteString(" " + theme.Favorite.Render("★"))
	}
	if c.MistakeCount > 0 {
		b.WriteString(" " + theme.Incorrect.Render(fmt.Sprintf("✗%d", c.MistakeCount)))
	}
	b.WriteString("\n")
	if q.Topic != "" {
		b.WriteString(theme.Subtitle.Render(q.Topic) + "\n")
	}
	b.WriteString("\n" + theme.Body.Render(q.Text) + "\n")

	if q.CodeSnippet != "" {
		b.WriteString("\n" + theme.Code.Render(q.CodeSnippet) + "\n")
	}

	if len(c.Options) > 0 {
		b.WriteString("\n")
	}
	for _, o := range c.Options {
		line := fmt.Sprintf("  %s)  %s", o.ID, o.Text)
		if o.Group != nil {
			line += theme.Hint.Render(fmt.Sprintf("  (group %d)", *o.Group))
		}
		b.WriteString(theme.Body.Render(line) + "\n")
	}

	if n := q.SlotCount(); n > 0 {
		b.WriteString("\n" + theme.Subtitle.Render("Slots:") + "\n")
		for i := range n {
			label := q.SlotLabel(i)
			if label == "" {
				label = fmt.Sprintf("position %d", i+1)
			}
			b.WriteString(theme.Body.Render(fmt.Sprintf("  %d: %s", i, label)) + "\n")
		}
	}

	if c.LastAnswer != nil && !c.LastAnswer.IsZero() {
		b.WriteString("\n" + theme.Hint.Render("Last time: "+prompt.FormatSelection(*c.LastAnswer)) + "\n")
	}

	return b.String()
}

// Feedback renders the outcome of a submission with the correct answer
// and the explanation.
func Feedback(q *question.Question, sel question.Selection, correct bool) string {
	var b strings.Builder
	if correct {
		b.WriteString(theme.Correct.Render("✓ Correct"))
	} else {
		b.WriteString(theme.Incorrect.Render("✗ Incorrect"))
		b.WriteString(theme.Subtitle.Render(fmt.Sprintf("  you: %s  answer: %s", prompt.FormatSelection(sel), prompt.FormatCorrect(q))))
	}
	b.WriteString("\n")
	if q.Explanation != "" {
		b.WriteString(theme.Card.Render(q.Explanation) + "\n")
	}
	return b.String()
}
