package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vjranagit/engagesim/pkg/report"
	"github.com/vjranagit/engagesim/pkg/storage"
	"github.com/vjranagit/engagesim/pkg/types"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show journaled evaluation runs",
	Long: `Replay the evaluation journal and list one row per run, or the full
result table of a single run.

Examples:
  engagesim history                  # All runs
  engagesim history --run <run-id>   # Results of one run`,
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().String("run", "", "show the results of a single run")
}

func runHistory(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	runID, _ := cmd.Flags().GetString("run")

	var reports []types.Report
	err := storage.ReplayJournal(cfg.Storage.Path, func(r types.Report) error {
		if runID == "" || r.RunID == runID {
			reports = append(reports, r)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if len(reports) == 0 {
		printWarning(out, "no evaluation runs journaled under %s", cfg.Storage.Path)
		return nil
	}

	if runID != "" {
		return report.WriteTable(out, reports[len(reports)-1])
	}

	table := report.NewTable(out)
	table.Header([]string{"Run", "Created", "Train", "Test", "Results", "Failures"})
	for _, r := range reports {
		if err := table.Append([]string{
			r.RunID,
			r.CreatedAt.Format("2006-01-02 15:04:05"),
			fmt.Sprintf("%dh", r.TrainHours),
			fmt.Sprintf("%dh", r.TestHours),
			fmt.Sprintf("%d", len(r.Results)),
			fmt.Sprintf("%d", r.Failures()),
		}); err != nil {
			return fmt.Errorf("failed to add run %s: %w", r.RunID, err)
		}
	}
	return table.Render()
}
