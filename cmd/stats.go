package cmd

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/spf13/cobra"

	"github.com/resonman/ai-102-prep/internal/progress"
	"github.com/resonman/ai-102-prep/internal/store"
	"github.com/resonman/ai-102-prep/internal/ui/components"
	"github.com/resonman/ai-102-prep/internal/ui/theme"
)

// topMistakes is how many of the most missed questions stats lists.
const topMistakes = 5

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show learning statistics",
	RunE:  runStats,
}

func init() {
	statsCmd.Flags().Int("sessions", 5, "Number of recent exams to list")
}

func runStats(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.close(ctx)

	rec := a.progress.Snapshot()
	total := a.pool.Len()

	lipgloss.Fprintln(a.out, theme.Title.Render("── Progress: "+a.cfg.LearnerID+" ──"))
	lipgloss.Fprintln(a.out, components.NewProgressBar("Practice ", min(rec.SequentialIndex+1, total), total, 60).View())
	fmt.Fprintf(a.out, "Mistakes:  %d (review bookmark %d)\n", len(rec.MistakeIDs), rec.MistakeReviewIndex+1)
	fmt.Fprintf(a.out, "Favorites: %d (review bookmark %d)\n", len(rec.FavoriteIDs), rec.FavoriteReviewIndex+1)

	if ids := mostMissed(rec, topMistakes); len(ids) > 0 {
		fmt.Fprintln(a.out)
		fmt.Fprintf(a.out, "%-12s  %s\n", "Question", "Missed")
		fmt.Fprintln(a.out, strings.Repeat("─", 22))
		for _, id := range ids {
			fmt.Fprintf(a.out, "%-12s  %6d\n", id, rec.EffectiveMistakeCount(id))
		}
	}

	history := a.db.EventRepo()
	overall, err := history.Accuracy(ctx, a.cfg.LearnerID)
	if err != nil {
		return err
	}
	if overall.Answered == 0 {
		fmt.Fprintln(a.out, "\nNo answers recorded yet.")
		return nil
	}

	fmt.Fprintln(a.out)
	lipgloss.Fprintln(a.out, theme.Title.Render("── Accuracy ──"))
	lipgloss.Fprintln(a.out, accuracyBar("Overall", overall).View())

	topics, err := history.TopicAccuracy(ctx, a.cfg.LearnerID)
	if err != nil {
		return err
	}
	for _, t := range topics {
		label := t.Topic
		if label == "" {
			label = "(no topic)"
		}
		lipgloss.Fprintln(a.out, accuracyBar(label, t).View())
	}

	limit, _ := cmd.Flags().GetInt("sessions")
	sessions, err := history.RecentSessions(ctx, a.cfg.LearnerID, store.QueryOpts{Limit: limit})
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		return nil
	}

	fmt.Fprintln(a.out)
	fmt.Fprintf(a.out, "%-17s  %-10s  %s\n", "Finished", "Mode", "Score")
	fmt.Fprintln(a.out, strings.Repeat("─", 40))
	for _, s := range sessions {
		fmt.Fprintf(a.out, "%-17s  %-10s  %d/%d\n",
			s.Timestamp.Local().Format("2006-01-02 15:04"), s.Mode, s.CorrectAnswers, s.QuestionsServed)
	}
	return nil
}

func accuracyBar(label string, acc store.Accuracy) components.ProgressBar {
	bar := components.NewProgressBar(fmt.Sprintf("%-14s", label), acc.Correct, acc.Answered, 60)
	bar.Percent = true
	return bar
}

// mostMissed returns up to n mistake ids, most missed first.
func mostMissed(rec *progress.Record, n int) []string {
	ids := rec.MistakeIDs.Sorted()
	slices.SortStableFunc(ids, func(a, b string) int {
		return cmp.Compare(rec.EffectiveMistakeCount(b), rec.EffectiveMistakeCount(a))
	})
	return ids[:min(n, len(ids))]
}
