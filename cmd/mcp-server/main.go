package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"

	"github.com/wolfman30/hospital-booking-mcp/cmd/mainconfig"
	"github.com/wolfman30/hospital-booking-mcp/internal/app/bootstrap"
	appconfig "github.com/wolfman30/hospital-booking-mcp/internal/config"
	"github.com/wolfman30/hospital-booking-mcp/internal/names"
	"github.com/wolfman30/hospital-booking-mcp/pkg/logging"
)

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	if cfg.Transport == appconfig.TransportStdio {
		// stdout carries the protocol.
		logger = logging.NewWithWriter(cfg.LogLevel, os.Stderr)
	}
	logger.Info("starting hospital booking MCP server",
		"env", cfg.Env,
		"port", cfg.Port,
		"transport", cfg.Transport,
		"hospital_api", cfg.HospitalAPIBaseURL,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := bootstrap.Options{}
	if table, err := loadNames(ctx, cfg, logger); err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	} else {
		opts.Names = table
	}

	app, err := bootstrap.Build(ctx, cfg, logger, opts)
	if err != nil {
		logger.Error("failed to build server", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	if cfg.Transport == appconfig.TransportStdio {
		if err := server.ServeStdio(app.MCP); err != nil {
			logger.Error("stdio transport stopped", "error", err)
			os.Exit(1)
		}
		return
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           app.Handler,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
		// No WriteTimeout: SSE streams stay open for the whole session.
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr, "sse", bootstrap.SSEPath, "messages", bootstrap.MessagePath)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		logger.Error("server error", "error", err)
		os.Exit(1)
	case <-ctx.Done():
	}

	logger.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.SSE.Shutdown(shutdownCtx); err != nil {
		logger.Warn("sse sessions did not close cleanly", "error", err)
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

// loadNames reads the transliteration table, building an S3 client only when
// the source points at a bucket.
func loadNames(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (*names.Table, error) {
	var getter names.ObjectGetter
	if names.IsS3Source(cfg.NameTableSource) {
		awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
		if err != nil {
			return nil, err
		}
		getter = mainconfig.NewS3Client(awsCfg, cfg)
	}
	return bootstrap.LoadNameTable(ctx, cfg, getter, logger), nil
}
