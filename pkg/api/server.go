package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vjranagit/engagesim/pkg/evaluation"
	"github.com/vjranagit/engagesim/pkg/forecast"
	"github.com/vjranagit/engagesim/pkg/simulator"
	"github.com/vjranagit/engagesim/pkg/storage"
	"github.com/vjranagit/engagesim/pkg/types"
	"github.com/vjranagit/engagesim/pkg/variant"
)

// Deps are the collaborators the API serves from. Store and Journal are
// optional.
type Deps struct {
	Registry   *variant.Registry
	Forecaster forecast.Forecaster
	Evaluation evaluation.Config
	Store      storage.SeriesStore
	Journal    *storage.Journal
	// Seed is used when a request carries none; zero draws fresh noise
	Seed    uint64
	Workers int
	Logger  *slog.Logger
}

// Server implements the HTTP API server
type Server struct {
	deps   Deps
	addr   string
	logger *slog.Logger
	server *http.Server
}

// NewServer creates a new API server
func NewServer(addr string, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		deps:   deps,
		addr:   addr,
		logger: logger,
	}
}

// Handler returns the API routes
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/v1/variants", s.handleVariants)
	mux.HandleFunc("/api/v1/series", s.handleSeries)
	mux.HandleFunc("/api/v1/series/stored", s.handleStoredSeries)
	mux.HandleFunc("/api/v1/evaluate", s.handleEvaluate)
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())

	return mux
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute,
	}

	return s.server.ListenAndServe()
}

// Stop stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

type variantView struct {
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Start         time.Time `json:"start"`
	DurationHours int       `json:"duration_hours"`
	Metrics       []string  `json:"metrics"`
}

// handleVariants lists registered variants
func (s *Server) handleVariants(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	variants := s.deps.Registry.List()
	out := make([]variantView, 0, len(variants))
	for _, v := range variants {
		view := variantView{
			Name:          v.Name,
			Description:   v.Description,
			Start:         v.Start,
			DurationHours: v.DurationHours,
		}
		for _, p := range v.Metrics {
			view.Metrics = append(view.Metrics, string(p.Metric))
		}
		out = append(out, view)
	}

	s.writeJSON(w, http.StatusOK, out)
}

// handleSeries generates a variant's records, storing them when a store
// is attached
func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	v, err := s.deps.Registry.Get(r.URL.Query().Get("variant"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	seed, err := s.seed(r.URL.Query().Get("seed"))
	if err != nil {
		http.Error(w, "Invalid seed", http.StatusBadRequest)
		return
	}

	records, err := v.Generate(sourceFor(seed))
	if err != nil {
		http.Error(w, fmt.Sprintf("Generation failed: %v", err), http.StatusInternalServerError)
		return
	}

	if s.deps.Store != nil {
		if err := s.deps.Store.Store(r.Context(), v.Name, records); err != nil {
			s.logger.Error("failed to store series", "variant", v.Name, "error", err)
			http.Error(w, fmt.Sprintf("Store failed: %v", err), http.StatusInternalServerError)
			return
		}
	}

	s.writeJSON(w, http.StatusOK, records)
}

// handleStoredSeries returns previously stored records
func (s *Server) handleStoredSeries(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.deps.Store == nil {
		http.Error(w, "No store configured", http.StatusNotImplemented)
		return
	}

	name := r.URL.Query().Get("variant")
	records, err := s.deps.Store.Load(r.Context(), name)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, fmt.Sprintf("Load failed: %v", err), http.StatusInternalServerError)
		return
	}

	s.writeJSON(w, http.StatusOK, records)
}

type evaluateRequest struct {
	Variants []string `json:"variants"`
	Metrics  []string `json:"metrics"`
	Seed     *uint64  `json:"seed"`
}

// handleEvaluate runs the harness over the requested variants
func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req evaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request: %v", err), http.StatusBadRequest)
		return
	}

	variants, err := s.deps.Registry.Select(req.Variants)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	cfg := s.deps.Evaluation
	if len(req.Metrics) > 0 {
		cfg.Metrics = nil
		for _, name := range req.Metrics {
			m, err := types.ParseMetric(name)
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			cfg.Metrics = append(cfg.Metrics, m)
		}
	}
	if err := cfg.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	seed := s.deps.Seed
	if req.Seed != nil {
		seed = *req.Seed
	}

	opts := []evaluation.Option{evaluation.WithLogger(s.logger)}
	if s.deps.Store != nil {
		opts = append(opts, evaluation.WithSink(s.deps.Store))
	}
	harness := evaluation.NewHarness(s.deps.Forecaster, cfg, opts...)

	report, err := evaluation.RunParallel(r.Context(), harness, variants, sourceFor(seed), s.deps.Workers)
	if err != nil {
		http.Error(w, fmt.Sprintf("Evaluation aborted: %v", err), http.StatusServiceUnavailable)
		return
	}

	if s.deps.Journal != nil {
		if err := s.deps.Journal.Append(report); err != nil {
			s.logger.Error("failed to journal report", "run_id", report.RunID, "error", err)
		}
	}

	s.writeJSON(w, http.StatusOK, report)
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

func (s *Server) seed(raw string) (uint64, error) {
	if raw == "" {
		return s.deps.Seed, nil
	}
	return strconv.ParseUint(raw, 10, 64)
}

func sourceFor(seed uint64) simulator.SourceFunc {
	if seed == 0 {
		return simulator.Unseeded()
	}
	return simulator.Seeded(seed)
}

// writeJSON encodes the whole body before writing the header. Encoding
// failures answer 500.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("failed to encode response", "error", err)
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(data, '\n')); err != nil {
		s.logger.Warn("failed to write response", "error", err)
	}
}
