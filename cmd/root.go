package cmd

import (
	"github.com/spf13/cobra"

	"github.com/resonman/ai-102-prep/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "ai102",
	Short: "AI-102 exam practice in the terminal",
	Long: `ai102 walks a question pool for the Azure AI Engineer (AI-102) exam.

Practice the pool in order, sit randomized exams, and review the questions
you got wrong or marked as favorites. Progress is saved as you go.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPractice(cmd)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides AI102_DB env var)")
	rootCmd.PersistentFlags().String("pool", "", "Path to the question pool JSON (overrides AI102_POOL env var)")
	rootCmd.PersistentFlags().String("learner", "", "Learner id owning the progress record (overrides AI102_LEARNER env var)")
	rootCmd.PersistentFlags().String("store", "", "Progress backend: sqlite, redis or memory (overrides AI102_STORE env var)")

	rootCmd.AddCommand(examCmd)
	rootCmd.AddCommand(practiceCmd)
	rootCmd.AddCommand(reviewCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then the configured path, then the default XDG path.
func resolveDBPath(cmd *cobra.Command, configured string) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	if configured != "" {
		return configured, store.EnsureDir(configured)
	}
	return store.DefaultDBPath()
}
