package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset learner progress",
	Long:  "Clear every bookmark, mistake, favorite and remembered answer of the learner. Exam history is kept.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(cmd)
		if err != nil {
			return err
		}

		if yes, _ := cmd.Flags().GetBool("yes"); !yes {
			line, _ := a.readLine(fmt.Sprintf("Reset all progress of %q? [y/N] ", a.cfg.LearnerID))
			if answer := strings.ToLower(strings.TrimSpace(line)); answer != "y" && answer != "yes" {
				fmt.Fprintln(a.out, "Aborted.")
				return a.close(ctx)
			}
		}

		a.progress.Reset()
		if err := a.close(ctx); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Progress of %s reset.\n", a.cfg.LearnerID)
		return nil
	},
}

func init() {
	resetCmd.Flags().BoolP("yes", "y", false, "Skip the confirmation prompt")
}
