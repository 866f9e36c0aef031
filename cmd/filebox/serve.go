package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/sagarc03/filebox/config"
	fileboxhttp "github.com/sagarc03/filebox/http"
	"github.com/sagarc03/filebox/keybackend"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the filebox HTTP server.

The API key is read from auth.keys.file (or --api-key-file) when set and
from auth.keys.inline (env: FILEBOX_AUTH_KEYS_INLINE) otherwise. The server
refuses to start without one.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().Int("port", 8000, "HTTP server port")
	serveCmd.Flags().String("host", "", "interface to listen on (default: all)")
	serveCmd.Flags().Int64("max-upload-size", 0, "maximum upload size in bytes, 0 for no limit")
	serveCmd.Flags().String("api-key-file", "", "file holding the API key")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	// ctx ends on SIGINT or SIGTERM.
	ctx := cmd.Context()

	verifier, err := keybackend.NewSecretStore(cfg.Auth.Keys)
	if err != nil {
		return fmt.Errorf("load api key: %w", err)
	}

	service, closeService, err := openService(ctx, cfg, true)
	if err != nil {
		return err
	}
	defer closeService()

	var metrics *fileboxhttp.Metrics
	if cfg.Metrics.Enabled {
		metrics = fileboxhttp.NewMetrics()
	}

	handler := fileboxhttp.NewHandler(&fileboxhttp.HandlerConfig{
		Verifier:      verifier,
		MaxUploadSize: cfg.Server.MaxUploadSize,
		CORS:          cfg.CORS,
		RateLimit:     cfg.RateLimit,
		Compress:      cfg.Server.Compress,
		Metrics:       metrics,
	}, service)

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      handler.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("starting server",
			"addr", server.Addr,
			"storage", cfg.Storage.Type,
			"database", cfg.Database.Type,
			"metrics", cfg.Metrics.Enabled,
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down server...")
	shutdownCtx := context.Background()
	if cfg.Server.ShutdownTimeout > 0 {
		var cancel context.CancelFunc
		shutdownCtx, cancel = context.WithTimeout(shutdownCtx, cfg.Server.ShutdownTimeout)
		defer cancel()
	}

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}
