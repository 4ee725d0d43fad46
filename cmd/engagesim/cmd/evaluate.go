package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vjranagit/engagesim/pkg/evaluation"
	"github.com/vjranagit/engagesim/pkg/report"
	"github.com/vjranagit/engagesim/pkg/storage"
	"github.com/vjranagit/engagesim/pkg/types"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate [variants...]",
	Short: "Score the forecaster against held-out windows",
	Long: `Generate each variant, train the forecaster on the first train_hours and
score its forecast of the next test_hours with MAE, RMSE and interval
coverage. With --from-store the datasets are read back from the configured
backend instead of regenerated. Failures are reported per variant and
metric; the run continues.

Examples:
  engagesim evaluate                                 # All variants, likes only
  engagesim evaluate noisy --metrics likes,shares    # Two metrics
  engagesim evaluate --seed 42 --workers 4 --no-charts
  engagesim evaluate --from-store right-skewed       # Score a stored dataset`,
	RunE: runEvaluate,
}

func init() {
	rootCmd.AddCommand(evaluateCmd)

	evaluateCmd.Flags().Uint64("seed", 0, "noise seed (overrides config; 0 keeps the configured seed)")
	evaluateCmd.Flags().StringSlice("metrics", nil, "metrics to evaluate (overrides config)")
	evaluateCmd.Flags().Int("workers", 0, "variants evaluated in parallel (overrides config)")
	evaluateCmd.Flags().Bool("no-charts", false, "skip chart rendering")
	evaluateCmd.Flags().Bool("no-store", false, "do not store generated datasets")
	evaluateCmd.Flags().Bool("from-store", false, "evaluate stored datasets instead of generating them")
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	evalCfg, err := cfg.ToEvaluationConfig()
	if err != nil {
		return err
	}
	if names, _ := cmd.Flags().GetStringSlice("metrics"); len(names) > 0 {
		evalCfg.Metrics = nil
		for _, name := range names {
			m, err := types.ParseMetric(name)
			if err != nil {
				return err
			}
			evalCfg.Metrics = append(evalCfg.Metrics, m)
		}
	}

	seed := cfg.Generation.Seed
	if s, _ := cmd.Flags().GetUint64("seed"); s != 0 {
		seed = s
	}
	workers := cfg.Evaluation.Workers
	if w, _ := cmd.Flags().GetInt("workers"); w > 0 {
		workers = w
	}

	fromStore, _ := cmd.Flags().GetBool("from-store")
	noStore, _ := cmd.Flags().GetBool("no-store")

	opts := []evaluation.Option{evaluation.WithLogger(logger)}
	var store storage.SeriesStore
	if fromStore || !noStore {
		store, err = openStore(ctx)
		if err != nil {
			return err
		}
		defer store.Close()
	}

	var rep types.Report
	if fromStore {
		names, err := storedNames(ctx, store, args)
		if err != nil {
			return err
		}
		harness := evaluation.NewHarness(newForecaster(), evalCfg, opts...)
		rep = harness.RunStored(ctx, store, names)
	} else {
		registry, err := loadRegistry()
		if err != nil {
			return err
		}
		variants, err := registry.Select(args)
		if err != nil {
			return err
		}
		if !noStore {
			opts = append(opts, evaluation.WithSink(store))
		}
		harness := evaluation.NewHarness(newForecaster(), evalCfg, opts...)
		rep, err = evaluation.RunParallel(ctx, harness, variants, sourceFor(seed), workers)
		if err != nil {
			return fmt.Errorf("evaluation aborted: %w", err)
		}
	}

	if err := report.WriteTable(out, rep); err != nil {
		return err
	}
	fmt.Fprintln(out)

	if cfg.Storage.Journal {
		if err := journalReport(rep); err != nil {
			printWarning(out, "journal: %v", err)
		}
	}

	if noCharts, _ := cmd.Flags().GetBool("no-charts"); cfg.Report.Charts && !noCharts {
		paths, err := report.RenderCharts(cfg.Report.Dir, rep)
		if err != nil {
			printWarning(out, "charts: %v", err)
		} else if len(paths) > 0 {
			printSuccess(out, "%d charts written to %s", len(paths), cfg.Report.Dir)
		}
		combined := filepath.Join(cfg.Report.Dir, report.CombinedChartName)
		if panels, err := report.RenderCombined(combined, rep); err != nil {
			printWarning(out, "combined chart: %v", err)
		} else if panels > 0 {
			printSuccess(out, "%d panels written to %s", panels, combined)
		}
	}

	if n := rep.Failures(); n > 0 {
		printError(out, "run %s: %d of %d evaluations failed", rep.RunID, n, len(rep.Results))
		return nil
	}
	printSuccess(out, "run %s: %d evaluations", rep.RunID, len(rep.Results))
	return nil
}

// storedNames returns the named datasets, or every dataset the store lists
func storedNames(ctx context.Context, store storage.SeriesStore, args []string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	lister, ok := store.(storage.Lister)
	if !ok {
		return nil, fmt.Errorf("%s store cannot list datasets; name them explicitly", cfg.Storage.Backend)
	}
	names, err := lister.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing stored datasets: %w", err)
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("no datasets stored in the %s backend", cfg.Storage.Backend)
	}
	return names, nil
}

func journalReport(rep types.Report) error {
	journal, err := storage.OpenJournal(cfg.Storage.Path)
	if err != nil {
		return err
	}
	if err := journal.Append(rep); err != nil {
		journal.Close()
		return err
	}
	return journal.Close()
}
