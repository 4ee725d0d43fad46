package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vjranagit/engagesim/pkg/api"
	"github.com/vjranagit/engagesim/pkg/storage"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Serve variants, generated series and evaluation runs over HTTP.

Routes:
  GET  /api/v1/variants
  GET  /api/v1/series?variant=NAME[&seed=N]
  GET  /api/v1/series/stored?variant=NAME
  POST /api/v1/evaluate   {"variants":[...],"metrics":[...],"seed":N}
  GET  /health
  GET  /metrics`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("listen", "", "listen address (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	addr := cfg.Server.ListenAddr
	if l, _ := cmd.Flags().GetString("listen"); l != "" {
		addr = l
	}

	logger.Info("configuration loaded",
		"version", version,
		"listen_addr", addr,
		"storage_backend", cfg.Storage.Backend,
		"storage_path", cfg.Storage.Path,
		"forecaster", cfg.Evaluation.Forecaster,
	)

	registry, err := loadRegistry()
	if err != nil {
		return err
	}
	evalCfg, err := cfg.ToEvaluationConfig()
	if err != nil {
		return err
	}

	logger.Info("initializing storage")
	store, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer store.Close()

	var journal *storage.Journal
	if cfg.Storage.Journal {
		journal, err = storage.OpenJournal(cfg.Storage.Path)
		if err != nil {
			return err
		}
		defer journal.Close()
	}

	server := api.NewServer(addr, api.Deps{
		Registry:   registry,
		Forecaster: newForecaster(),
		Evaluation: evalCfg,
		Store:      store,
		Journal:    journal,
		Seed:       cfg.Generation.Seed,
		Workers:    cfg.Evaluation.Workers,
		Logger:     logger,
	})

	errCh := make(chan error, 1)
	go func() {
		logger.Info("API server listening", "addr", addr)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigChan:
		logger.Info("shutdown signal received, stopping server")
	case err := <-errCh:
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Stop(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
		return err
	}

	logger.Info("server stopped")
	return nil
}
