package evaluation

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/vjranagit/engagesim/pkg/simulator"
	"github.com/vjranagit/engagesim/pkg/types"
	"github.com/vjranagit/engagesim/pkg/variant"
)

// RunParallel evaluates variants on up to workers goroutines. Results keep
// the order of variants. The error is non-nil only when ctx is done.
func RunParallel(ctx context.Context, h *Harness, variants []variant.Variant, src simulator.SourceFunc, workers int) (types.Report, error) {
	if workers < 1 {
		workers = 1
	}
	report := h.newReport()
	perVariant := make([][]types.EvaluationResult, len(variants))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, v := range variants {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			perVariant[i] = h.EvaluateVariant(gctx, report.RunID, v, src)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return report, err
	}

	for _, results := range perVariant {
		report.Results = append(report.Results, results...)
	}
	h.logger.Info("parallel evaluation run complete",
		"run_id", report.RunID,
		"workers", workers,
		"results", len(report.Results),
		"failures", report.Failures(),
	)
	return report, nil
}
