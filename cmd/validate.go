package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/resonman/ai-102-prep/internal/question"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the question pool and list rejected entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		pool, rejected, err := question.LoadFile(cfg.PoolPath)
		if err != nil && !errors.Is(err, question.ErrEmptyPool) {
			return fmt.Errorf("load question pool: %w", err)
		}
		empty := err != nil

		// Header.
		fmt.Fprintf(out, "%-16s  %s\n", "Type", "Questions")
		fmt.Fprintln(out, strings.Repeat("─", 28))

		counts := pool.CountByType()
		for _, t := range question.AllTypes {
			fmt.Fprintf(out, "%-16s  %9d\n", t, counts[t])
		}
		fmt.Fprintf(out, "\n%d questions loaded from %s\n", pool.Len(), cfg.PoolPath)

		if len(rejected) == 0 && !empty {
			return nil
		}

		fmt.Fprintf(out, "\n%d entries rejected:\n", len(rejected))
		for _, r := range rejected {
			fmt.Fprintf(out, "  %s\n", r.Error())
		}

		if empty {
			return question.ErrEmptyPool
		}
		if strict, _ := cmd.Flags().GetBool("strict"); strict {
			return fmt.Errorf("%d invalid entries in %s", len(rejected), cfg.PoolPath)
		}
		return nil
	},
}

func init() {
	validateCmd.Flags().Bool("strict", false, "Exit with an error when any entry is rejected")
}
