package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/Surajan01/daily-news-analysis/internal/app"
	"github.com/Surajan01/daily-news-analysis/internal/config"
	"github.com/Surajan01/daily-news-analysis/internal/logger"
	"github.com/Surajan01/daily-news-analysis/internal/metrics"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logger.Init(false)
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	logger.Init(cfg.Debug)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	if cfg.EnableHTTPMonitoring {
		go startMonitoringServer(cfg.MonitoringPort)
	}

	switch cfg.RunMode {
	case "cron":
		runCron(ctx, cfg, a)
	default:
		if err := a.Run(ctx); err != nil {
			logger.Error("run failed", "error", err)
			os.Exit(1)
		}
	}
}

// runCron keeps the process alive and fires the pipeline on schedule. An
// overlapping run is skipped rather than stacked.
func runCron(ctx context.Context, cfg *config.Config, a *app.App) {
	c := cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DefaultLogger),
		cron.Recover(cron.DefaultLogger),
	))

	_, err := c.AddFunc(cfg.CronSchedule, func() {
		if err := a.Run(ctx); err != nil {
			logger.Error("scheduled run failed", "error", err)
		}
	})
	if err != nil {
		logger.Error("invalid cron schedule", "schedule", cfg.CronSchedule, "error", err)
		os.Exit(1)
	}

	logger.Info("scheduler started", "schedule", cfg.CronSchedule)
	c.Start()

	<-ctx.Done()
	logger.Info("shutting down")
	<-c.Stop().Done()
}

func startMonitoringServer(port string) {
	http.HandleFunc("/health", healthHandler)
	http.HandleFunc("/metrics", metricsHandler)

	logger.Info("monitoring server listening", "port", port)
	if err := http.ListenAndServe(":"+port, nil); err != nil {
		logger.Error("monitoring server stopped", "error", err)
	}
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	stats := metrics.Global.GetStats()

	status := "ok"
	if !stats["is_healthy"].(bool) {
		status = "error"
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":     status,
		"last_run":   stats["last_run_time"],
		"last_error": stats["last_error"],
	})
}

func metricsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(metrics.Global.GetStats())
}
