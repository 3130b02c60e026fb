package components

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/resonman/ai-102-prep/internal/ui/theme"
)

// ProgressBar displays a horizontal progress bar.
type ProgressBar struct {
	Label   string
	Done    int
	Total   int
	Width   int
	Percent bool // Show a percentage instead of done/total
}

// NewProgressBar creates a progress bar for done out of total.
func NewProgressBar(label string, done, total, width int) ProgressBar {
	return ProgressBar{
		Label: label,
		Done:  done,
		Total: total,
		Width: width,
	}
}

// Ratio returns the filled fraction, in [0, 1].
func (p ProgressBar) Ratio() float64 {
	if p.Total <= 0 {
		return 0
	}
	r := float64(p.Done) / float64(p.Total)
	return min(max(r, 0), 1)
}

// View renders the progress bar.
func (p ProgressBar) View() string {
	var result string

	if p.Label != "" {
		result += theme.Body.Render(p.Label) + "  "
	}

	suffix := fmt.Sprintf("  %d/%d", p.Done, p.Total)
	if p.Percent {
		suffix = fmt.Sprintf("  %d%%", int(p.Ratio()*100))
	}

	barWidth := p.Width - lipgloss.Width(result) - len(suffix)
	if barWidth < 4 {
		barWidth = 4
	}

	filled := int(float64(barWidth) * p.Ratio())
	empty := barWidth - filled

	result += theme.ProgressFilled.Render(strings.Repeat(" ", filled))
	result += theme.ProgressEmpty.Render(strings.Repeat(" ", empty))
	result += theme.Subtitle.Render(suffix)

	return result
}
