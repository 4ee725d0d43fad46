// Package evaluation scores forecasters against held-out windows of
// generated engagement data.
package evaluation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/vjranagit/engagesim/pkg/forecast"
	"github.com/vjranagit/engagesim/pkg/metrics"
	"github.com/vjranagit/engagesim/pkg/simulator"
	"github.com/vjranagit/engagesim/pkg/types"
	"github.com/vjranagit/engagesim/pkg/variant"
)

// Config holds harness parameters
type Config struct {
	TrainHours int
	TestHours  int
	Confidence float64
	Metrics    []types.Metric
}

// DefaultConfig returns one week of training, two days of testing and a
// 95% interval on likes.
func DefaultConfig() Config {
	return Config{
		TrainHours: 168,
		TestHours:  48,
		Confidence: 0.95,
		Metrics:    []types.Metric{types.Likes},
	}
}

// Validate checks the configuration
func (c Config) Validate() error {
	if c.TrainHours <= 0 {
		return fmt.Errorf("train hours must be positive")
	}
	if c.TestHours <= 0 {
		return fmt.Errorf("test hours must be positive")
	}
	if c.Confidence <= 0 || c.Confidence >= 1 {
		return fmt.Errorf("confidence must be in (0, 1)")
	}
	if len(c.Metrics) == 0 {
		return fmt.Errorf("at least one metric is required")
	}
	for _, m := range c.Metrics {
		if _, err := types.ParseMetric(string(m)); err != nil {
			return err
		}
	}
	return nil
}

// Sink receives every generated dataset before it is evaluated
type Sink interface {
	Store(ctx context.Context, name string, records []types.CombinedRecord) error
}

// Loader reads a stored dataset back in timestamp order
type Loader interface {
	Load(ctx context.Context, name string) ([]types.CombinedRecord, error)
}

// Option configures a Harness
type Option func(*Harness)

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(h *Harness) {
		h.logger = logger
	}
}

// WithSink stores generated datasets
func WithSink(sink Sink) Option {
	return func(h *Harness) {
		h.sink = sink
	}
}

// Harness runs forecast evaluations
type Harness struct {
	forecaster forecast.Forecaster
	cfg        Config
	logger     *slog.Logger
	sink       Sink
}

// NewHarness creates a harness around a forecaster
func NewHarness(f forecast.Forecaster, cfg Config, opts ...Option) *Harness {
	h := &Harness{
		forecaster: f,
		cfg:        cfg,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	return h
}

// Config returns the harness configuration
func (h *Harness) Config() Config {
	return h.cfg
}

// Evaluate splits records, forecasts the test window of one metric and
// scores the forecast. The returned result always names the variant and
// metric, even on error.
func (h *Harness) Evaluate(ctx context.Context, variantName string, records []types.CombinedRecord, m types.Metric) (types.EvaluationResult, error) {
	result := types.EvaluationResult{Variant: variantName, Metric: m}

	window, err := Split(records, h.cfg.TrainHours, h.cfg.TestHours)
	if err != nil {
		return result, err
	}

	points, err := h.forecaster.FitAndForecast(ctx, forecast.History(window.Train, m), h.cfg.TestHours, h.cfg.Confidence)
	if err != nil {
		return result, fmt.Errorf("forecast %s/%s: %w", variantName, m, err)
	}

	if err := checkFinite(points); err != nil {
		return result, fmt.Errorf("forecast %s/%s: %w", variantName, m, err)
	}

	points = Clip(points)
	comparisons := Join(window.Test, m, points)
	mae, n := MAE(comparisons)
	if n == 0 {
		return result, fmt.Errorf("forecast %s/%s: no forecast points overlap the test window", variantName, m)
	}
	rmse, _ := RMSE(comparisons)

	result.MAE = mae
	result.RMSE = rmse
	result.Coverage = Coverage(comparisons)
	result.Compared = n
	result.Forecast = points
	result.Comparisons = comparisons
	return result, nil
}

// EvaluateVariant generates one variant and evaluates every configured
// metric. Failures become failed entries rather than errors.
func (h *Harness) EvaluateVariant(ctx context.Context, runID string, v variant.Variant, src simulator.SourceFunc) []types.EvaluationResult {
	logger := h.logger.With("run_id", runID, "variant", v.Name)

	records, err := v.Generate(src)
	metrics.RecordGeneration(v.Name, len(records), err)
	if err != nil {
		logger.Error("failed to generate variant", "error", err)
		return h.failAll(runID, v.Name, fmt.Errorf("failed to generate variant %s: %w", v.Name, err))
	}
	logger.Debug("generated variant", "hours", len(records))

	if h.sink != nil {
		if err := h.sink.Store(ctx, v.Name, records); err != nil {
			logger.Warn("failed to store variant", "error", err)
		}
	}

	return h.evaluateMetrics(ctx, runID, v.Name, records, logger)
}

// EvaluateStored loads a stored dataset and evaluates every configured
// metric. A dataset that cannot be loaded becomes failed entries.
func (h *Harness) EvaluateStored(ctx context.Context, runID string, loader Loader, name string) []types.EvaluationResult {
	logger := h.logger.With("run_id", runID, "variant", name)

	records, err := loader.Load(ctx, name)
	if err != nil {
		logger.Error("failed to load dataset", "error", err)
		return h.failAll(runID, name, fmt.Errorf("failed to load dataset %s: %w", name, err))
	}
	records = slices.Clone(records)
	slices.SortFunc(records, func(a, b types.CombinedRecord) int {
		return a.Timestamp.Compare(b.Timestamp)
	})
	logger.Debug("loaded dataset", "hours", len(records))

	return h.evaluateMetrics(ctx, runID, name, records, logger)
}

func (h *Harness) evaluateMetrics(ctx context.Context, runID, name string, records []types.CombinedRecord, logger *slog.Logger) []types.EvaluationResult {
	results := make([]types.EvaluationResult, 0, len(h.cfg.Metrics))
	for _, m := range h.cfg.Metrics {
		start := time.Now()
		res, err := h.Evaluate(ctx, name, records, m)
		elapsed := time.Since(start).Seconds()
		res.RunID = runID
		if err != nil {
			var insufficient *InsufficientDataError
			if errors.As(err, &insufficient) {
				logger.Warn("skipping evaluation", "metric", m, "error", err)
			} else {
				logger.Error("evaluation failed", "metric", m, "error", err)
			}
			res.Error = err.Error()
			metrics.RecordEvaluationFailure(name, string(m), elapsed)
		} else {
			logger.Info("evaluated forecast",
				"metric", m,
				"mae", res.MAE,
				"rmse", res.RMSE,
				"coverage", res.Coverage,
			)
			metrics.RecordEvaluation(name, string(m), res.MAE, res.RMSE, res.Coverage, elapsed)
		}
		results = append(results, res)
	}
	return results
}

// Run evaluates variants one after another and collects a report
func (h *Harness) Run(ctx context.Context, variants []variant.Variant, src simulator.SourceFunc) types.Report {
	report := h.newReport()
	for _, v := range variants {
		report.Results = append(report.Results, h.EvaluateVariant(ctx, report.RunID, v, src)...)
	}
	h.logger.Info("evaluation run complete",
		"run_id", report.RunID,
		"results", len(report.Results),
		"failures", report.Failures(),
	)
	return report
}

// RunStored evaluates stored datasets one after another
func (h *Harness) RunStored(ctx context.Context, loader Loader, names []string) types.Report {
	report := h.newReport()
	for _, name := range names {
		report.Results = append(report.Results, h.EvaluateStored(ctx, report.RunID, loader, name)...)
	}
	h.logger.Info("stored evaluation run complete",
		"run_id", report.RunID,
		"results", len(report.Results),
		"failures", report.Failures(),
	)
	return report
}

func (h *Harness) newReport() types.Report {
	return types.Report{
		RunID:      uuid.NewString(),
		CreatedAt:  time.Now().UTC(),
		TrainHours: h.cfg.TrainHours,
		TestHours:  h.cfg.TestHours,
		Confidence: h.cfg.Confidence,
	}
}

func (h *Harness) failAll(runID, variantName string, err error) []types.EvaluationResult {
	out := make([]types.EvaluationResult, len(h.cfg.Metrics))
	for i, m := range h.cfg.Metrics {
		out[i] = types.EvaluationResult{
			RunID:   runID,
			Variant: variantName,
			Metric:  m,
			Error:   err.Error(),
		}
		metrics.RecordEvaluationFailure(variantName, string(m), 0)
	}
	return out
}
