// Command server runs the Solana event listener: one program supervisor (C10) wiring the
// discriminator registry, per-program log subscribers, the gap scanner, the batch writer, the
// materialized-view updaters, and the metrics/health endpoints into a single long-running process.
package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"solana-event-listener/internal/config"
	"solana-event-listener/internal/logging"
	"solana-event-listener/internal/observability"
	"solana-event-listener/internal/supervisor"
)

func main() {
	loadEnvFile()

	logger := logging.New(os.Stdout, "[server] ", logging.LevelInfo)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	logger = logging.New(os.Stdout, "[server] ", logging.ParseLevel(cfg.LogLevel))

	ctx, cancel := context.WithCancel(context.Background())

	svc, err := supervisor.New(ctx, cfg, logger)
	if err != nil {
		cancel()
		logger.Fatalf("build supervisor: %v", err)
	}

	// Channel to signal completion of the main run loop.
	done := make(chan error, 1)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Infof("received signal %v, initiating graceful shutdown...", sig)
		cancel()

		select {
		case sig := <-sigCh:
			logger.Warnf("received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		case <-time.After(cfg.ShutdownGrace() + 5*time.Second):
			logger.Warnf("graceful shutdown timed out, forcing exit")
			os.Exit(1)
		case <-done:
			// Normal shutdown completed.
		}
	}()

	go startMetricsServer(cfg.MetricsAddr, logger)
	go startHealthServer(cfg.HealthAddr, svc, logger)

	err = svc.Run(ctx)
	done <- err
	cancel()

	if err != nil && err != context.Canceled {
		logger.Fatalf("server error: %v", err)
	}
	logger.Infof("shutdown complete")
}

func startMetricsServer(addr string, logger *logging.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", observability.Handler())

	logger.Infof("starting metrics server on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil && err != http.ErrServerClosed {
		logger.Errorf("metrics server error: %v", err)
	}
}

// healthResponse is the JSON body served at /health (SPEC_FULL.md §6).
type healthResponse struct {
	Healthy     bool                           `json:"healthy"`
	BufferDepth int                            `json:"buffer_depth"`
	LastFlushAt time.Time                      `json:"last_flush_at,omitempty"`
	LastError   string                         `json:"last_error,omitempty"`
	Programs    []observability.ProgramHealth `json:"per_program"`
}

func startHealthServer(addr string, svc *supervisor.Supervisor, logger *logging.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		snap := svc.Health().Snapshot(svc.BufferDepth())
		resp := healthResponse{
			Healthy:     snap.Healthy,
			BufferDepth: snap.BufferDepth,
			LastFlushAt: snap.LastFlushAt,
			LastError:   snap.LastError,
			Programs:    snap.PerProgram,
		}
		w.Header().Set("Content-Type", "application/json")
		if !snap.Healthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(resp)
	})

	logger.Infof("starting health server on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil && err != http.ErrServerClosed {
		logger.Errorf("health server error: %v", err)
	}
}

// loadEnvFile loads environment variables from a .env file if one exists, without overriding
// variables already set in the process environment.
func loadEnvFile() {
	data, err := os.ReadFile(".env")
	if err != nil {
		return
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}
