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

	"github.com/olegrjumin/sitescan/internal/config"
	"github.com/olegrjumin/sitescan/internal/fetcher"
	"github.com/olegrjumin/sitescan/internal/httpapi"
	"github.com/olegrjumin/sitescan/internal/httpclient"
	"github.com/olegrjumin/sitescan/internal/logging"
	"github.com/olegrjumin/sitescan/internal/refdata"
	"github.com/olegrjumin/sitescan/internal/scanner"
	"github.com/olegrjumin/sitescan/internal/service"
)

func main() {
	// Load configuration from .env and environment variables
	cfg := config.Load()

	// Initialize logger
	logger := logging.New()

	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	// Load reference data; an empty path uses the embedded dataset
	snap, err := refdata.Load(cfg.RefDataPath)
	if err != nil {
		logger.Error("Failed to load reference data", "path", cfg.RefDataPath, "error", err)
		os.Exit(1)
	}
	store := refdata.NewStore(snap)
	logger.Info("Reference data loaded", "version", snap.Version, "path", cfg.RefDataPath)

	// Initialize HTTP client for fetching pages
	clientCfg := httpclient.DefaultConfig()
	clientCfg.AllowPrivateNetworks = cfg.AllowPrivateNetworks
	httpClient := httpclient.NewClient(clientCfg)

	// Initialize the scanning pipeline
	sc := scanner.New(fetcher.New(httpClient), store, fetcher.Options{
		Timeout:      cfg.ScanTimeout,
		MaxRedirects: cfg.MaxRedirects,
		MaxBodyBytes: cfg.MaxBodyBytes,
		UserAgent:    cfg.UserAgent,
	})

	// Initialize service with scanner, logger, and options
	svc := service.New(sc, logger, service.Options{
		Timeout:  cfg.ScanTimeout,
		Coalesce: cfg.CoalesceScans,
	})

	// Create server address from config
	addr := fmt.Sprintf(":%d", cfg.Port)
	server := httpapi.NewServer(addr, logger, svc, httpapi.Limits{
		RPS:   cfg.RateLimitRPS,
		Burst: cfg.RateLimitBurst,
	})

	// SIGHUP reloads reference data; in-flight scans keep their snapshot
	reload := make(chan os.Signal, 1)
	signal.Notify(reload, syscall.SIGHUP)
	go func() {
		for range reload {
			next, err := store.ReloadFile(cfg.RefDataPath)
			if err != nil {
				logger.Error("Reference data reload failed, keeping current data", "path", cfg.RefDataPath, "error", err)
				continue
			}
			logger.Info("Reference data reloaded", "version", next.Version)
		}
	}()

	// Channel to listen for OS signals (Ctrl+C, kill, etc.)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// Start the server in a goroutine so it doesn't block
	go func() {
		logger.Info("Starting server", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	<-quit
	logger.Info("Shutting down server...")
	signal.Stop(reload)

	// Create a context with timeout for graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Attempt graceful shutdown
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("Server stopped gracefully")
}
