package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	httpadapter "github.com/couchcryptid/alert-risk-dashboard/internal/adapter/http"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the dashboard web server",
	Long: `Serves the dashboard page at /, the JSON API under /api/v1, and the
/healthz, /readyz, and /metrics endpoints until interrupted.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	a, err := newApp(true)
	if err != nil {
		return err
	}
	logger := a.logger

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The service reports ready once the city list has been read.
	if cities, err := a.service.Cities(ctx); err != nil {
		logger.Warn("city list not readable yet", "error", err, "path", a.cfg.CitiesFile)
	} else {
		logger.Info("city list loaded", "cities", len(cities))
	}

	srv := httpadapter.NewServer(a.cfg.HTTPAddr, a.service, logger, a.metrics)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if a.cfg.CacheWatch {
		g.Go(func() error {
			if err := a.cache.Watch(gctx, a.cfg.CitiesDir); err != nil {
				logger.Error("city data watcher stopped", "error", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), a.cfg.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("http server shutdown error", "error", err)
		}
		if a.writer != nil {
			if err := a.writer.Close(); err != nil {
				logger.Error("kafka writer close error", "error", err)
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("http server error", "error", err)
		return err
	}
	logger.Info("shutdown complete")
	return nil
}
