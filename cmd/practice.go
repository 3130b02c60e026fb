package cmd

import (
	"context"
	"errors"
	"fmt"

	"charm.land/lipgloss/v2"
	"github.com/spf13/cobra"

	"github.com/resonman/ai-102-prep/internal/progress"
	"github.com/resonman/ai-102-prep/internal/prompt"
	"github.com/resonman/ai-102-prep/internal/question"
	"github.com/resonman/ai-102-prep/internal/selector"
	"github.com/resonman/ai-102-prep/internal/session"
	"github.com/resonman/ai-102-prep/internal/ui/components"
)

var practiceCmd = &cobra.Command{
	Use:   "practice",
	Short: "Practice the whole pool in order",
	Long: `Walk the pool question by question, resuming where you stopped last time.
Type an answer to check it, n/p to move, f to toggle a favorite, r to start
over from the first question and q to quit.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPractice(cmd)
	},
}

var reviewCmd = &cobra.Command{
	Use:       "review mistakes|favorites",
	Short:     "Review your mistakes or favorites",
	Long:      "Walk the questions you got wrong or marked as favorites. In the mistake review, m removes a question you have mastered.",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"mistakes", "favorites"},
	RunE:      runReview,
}

func runPractice(cmd *cobra.Command) error {
	ctx := cmd.Context()
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.close(ctx)

	opts, err := a.sessionOptions(selector.New(nil))
	if err != nil {
		return err
	}
	return studyLoop(ctx, a, session.NewPractice(opts, a.pool.Questions()))
}

func runReview(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.close(ctx)

	mode := progress.ModeMistakeReview
	if args[0] == "favorites" {
		mode = progress.ModeFavoriteReview
	}

	opts, err := a.sessionOptions(selector.New(nil))
	if err != nil {
		return err
	}
	review, err := session.NewReview(opts, mode, a.pool.Questions())
	if err != nil {
		return err
	}
	if review.Len() == 0 {
		if mode == progress.ModeMistakeReview {
			fmt.Fprintln(a.out, "No mistakes yet. Great job!")
		} else {
			fmt.Fprintln(a.out, "No favorites yet. Press f during practice to add one.")
		}
		return nil
	}
	return studyLoop(ctx, a, review)
}

// studyController is the navigation surface shared by practice and review.
type studyController interface {
	Current() *question.Question
	Index() int
	Len() int
	Next() bool
	Prev() bool
	Options() []question.Option
	Submit(ctx context.Context, sel question.Selection) (bool, error)
	ToggleFavorite() (bool, error)
}

// studyLoop reads commands and answers until the learner quits, input
// ends or the list runs empty.
func studyLoop(ctx context.Context, a *app, c studyController) error {
	show := true
	for {
		q := c.Current()
		if q == nil {
			fmt.Fprintln(a.out, "Nothing left to review.")
			return nil
		}
		if show {
			card := components.QuestionCard{
				Question:     q,
				Options:      c.Options(),
				Index:        c.Index(),
				Total:        c.Len(),
				Favorite:     a.progress.IsFavorite(q.ID),
				MistakeCount: a.progress.MistakeCount(q.ID),
			}
			if last, ok := a.progress.LastAnswer(q.ID); ok {
				card.LastAnswer = &last
			}
			lipgloss.Fprint(a.out, card.View())
			show = false
		}

		line, ok := a.readLine("\n> ")
		if !ok {
			return nil
		}

		switch prompt.ParseCommand(line) {
		case prompt.CmdQuit:
			return nil
		case prompt.CmdHelp:
			fmt.Fprintln(a.out, prompt.Help)
		case prompt.CmdNext:
			if show = c.Next(); !show {
				fmt.Fprintln(a.out, "Already at the last question.")
			}
		case prompt.CmdPrev:
			if show = c.Prev(); !show {
				fmt.Fprintln(a.out, "Already at the first question.")
			}
		case prompt.CmdFavorite:
			fav, err := c.ToggleFavorite()
			if err != nil {
				return err
			}
			if fav {
				fmt.Fprintln(a.out, "Added to favorites.")
			} else {
				fmt.Fprintln(a.out, "Removed from favorites.")
			}
			show = c.Current() != q
		case prompt.CmdRestart:
			r, ok := c.(interface{ Restart() })
			if !ok {
				fmt.Fprintln(a.out, "Restart is only available in practice.")
				continue
			}
			r.Restart()
			show = true
		case prompt.CmdMaster:
			m, ok := c.(interface{ Master() error })
			if !ok {
				fmt.Fprintln(a.out, "Only reviews can drop a mistake.")
				continue
			}
			if err := m.Master(); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%s removed from your mistakes.\n", q.ID)
			show = true
		default:
			answer, err := prompt.ParseAnswer(q, line)
			if err != nil {
				fmt.Fprintln(a.out, err)
				continue
			}
			correct, err := c.Submit(ctx, answer)
			if errors.Is(err, session.ErrIncompleteAnswer) {
				fmt.Fprintln(a.out, "Answer incomplete: choose an option and fill every slot.")
				continue
			}
			if err != nil {
				return err
			}
			lipgloss.Fprint(a.out, components.Feedback(q, answer, correct))
		}
	}
}
