package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/visionforge/forge-core/internal/api"
)

func newServeCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the Forge HTTP API server",
		Long: "Serves the REST API for writing tools that integrate over HTTP.\n" +
			"Clients select their session with the X-Session-ID header.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, port)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (default: from config)")

	return cmd
}

func runServe(cmd *cobra.Command, port int) error {
	ctx := cmd.Context()

	return withDeps(func(d *Deps) error {
		logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
		slog.SetDefault(logger)

		addr := d.Config.HTTP.Address()
		if port > 0 {
			addr = fmt.Sprintf(":%d", port)
		}

		logger.Info("Configuration loaded",
			slog.String("http_address", addr),
			slog.Bool("vectors_enabled", d.VectorsEnabled),
			slog.Bool("enhancer_enabled", d.EnhancerEnabled))

		router := api.NewRouter(d.Characters, d.Continuity)

		httpServer := &http.Server{
			Addr:    addr,
			Handler: router,
		}

		g, gCtx := errgroup.WithContext(ctx)

		g.Go(func() error {
			logger.Info("Starting HTTP server", slog.String("address", addr))
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("HTTP server error: %w", err)
			}
			return nil
		})

		g.Go(func() error {
			<-gCtx.Done()
			logger.Info("Shutting down server...")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
			}
			return nil
		})

		if err := g.Wait(); err != nil {
			logger.Error("Server error", slog.String("error", err.Error()))
			return err
		}

		logger.Info("Server stopped successfully")
		return nil
	})
}
