package cmd

import (
	"errors"
	"fmt"

	"charm.land/lipgloss/v2"
	"github.com/spf13/cobra"

	"github.com/resonman/ai-102-prep/internal/prompt"
	"github.com/resonman/ai-102-prep/internal/selector"
	"github.com/resonman/ai-102-prep/internal/session"
	"github.com/resonman/ai-102-prep/internal/ui/components"
	"github.com/resonman/ai-102-prep/internal/ui/theme"
)

var examCmd = &cobra.Command{
	Use:   "exam",
	Short: "Sit a randomized exam",
	Long: `Draw a shuffled exam from the pool (Simulation questions excluded) and
answer every question. The score and the questions you missed, with their
explanations, are shown at the end. Missed questions go to the mistake list.`,
	RunE: runExam,
}

func init() {
	examCmd.Flags().Int("size", 0, "Number of questions (default from AI102_EXAM_SIZE, 50)")
	examCmd.Flags().Uint64("seed", 0, "Shuffle seed for a reproducible exam (0 picks one)")
}

func runExam(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.close(ctx)

	examOpts := a.cfg.ExamOptions()
	if size, _ := cmd.Flags().GetInt("size"); size > 0 {
		examOpts.Size = size
	}
	sel := selector.New(nil)
	if seed, _ := cmd.Flags().GetUint64("seed"); seed != 0 {
		sel = selector.NewSeeded(seed)
	}

	opts, err := a.sessionOptions(sel)
	if err != nil {
		return err
	}
	exam := session.NewExam(opts, examOpts)
	if err := exam.Start(ctx, a.pool.Questions()); err != nil {
		return err
	}

	for exam.Phase() == session.PhaseInProgress {
		q := exam.Current()
		i, total := exam.Position()

		lipgloss.Fprintln(a.out, components.NewProgressBar("Exam", i, total, 60).View())
		lipgloss.Fprint(a.out, components.QuestionCard{
			Question: q,
			Options:  exam.Options(),
			Index:    i,
			Total:    total,
		}.View())

		line, ok := a.readLine("\nYour answer: ")
		if !ok {
			fmt.Fprintln(a.out, "(input closed, exam abandoned)")
			return nil
		}
		switch prompt.ParseCommand(line) {
		case prompt.CmdQuit:
			fmt.Fprintln(a.out, "Exam abandoned.")
			return nil
		case prompt.CmdHelp:
			fmt.Fprintln(a.out, prompt.Help)
			continue
		case prompt.CmdNone:
		default:
			fmt.Fprintln(a.out, "Only answers, ? and q are available during an exam.")
			continue
		}

		answer, err := prompt.ParseAnswer(q, line)
		if err != nil {
			fmt.Fprintf(a.out, "%v\n\n", err)
			continue
		}
		if _, err := exam.Submit(ctx, answer); err != nil {
			if errors.Is(err, session.ErrIncompleteAnswer) {
				fmt.Fprintln(a.out, "Answer incomplete: choose an option and fill every slot.")
				continue
			}
			return err
		}
		fmt.Fprintln(a.out)
	}

	printSummary(a, exam)
	return nil
}

func printSummary(a *app, exam *session.Exam) {
	s := exam.Summary()
	if s.Total == 0 {
		fmt.Fprintln(a.out, "No questions matched the exam filters.")
		return
	}

	lipgloss.Fprintln(a.out, theme.Title.Render(fmt.Sprintf("── Score: %d/%d (%.0f%%) ──", s.Correct, s.Total, s.Accuracy()*100)))
	for _, q := range s.Wrong {
		last, _ := a.progress.LastAnswer(q.ID)
		lipgloss.Fprintln(a.out, theme.Subtitle.Render(q.ID+"  "+q.Text))
		lipgloss.Fprint(a.out, components.Feedback(q, last, false))
	}
}
