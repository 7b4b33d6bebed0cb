package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"routescan-exporter/internal/config"
	"routescan-exporter/internal/core/usecases"
	httpShell "routescan-exporter/internal/shell/http"
	"routescan-exporter/internal/shell/scheduler"
)

// runSchedule runs exports on the configured cron schedule and serves the run API until signalled
func runSchedule(cfg *config.Config) error {
	logrus.Info("Starting routescan-exporter in schedule mode:")
	logrus.Infof("  Schedule: %s", cfg.Schedule)
	logrus.Infof("  Server: %s:%d", cfg.Server.Host, cfg.Server.Port)
	logrus.Infof("  Database Type: %s", cfg.Database.Type)
	logrus.Infof("  Kafka: enabled=%t, brokers=%v", cfg.Kafka.Enabled, cfg.Kafka.Brokers)
	logrus.Infof("  Metrics: enabled=%t, port=%d", cfg.Metrics.Enabled, cfg.Metrics.Port)
	printBanner(cfg)

	app, err := newApplication(cfg, prometheus.DefaultRegisterer)
	if err != nil {
		return err
	}
	defer app.Close()
	app.ensureRunHistory()

	exportService := usecases.NewExportService(app.exporter, app.runRepo, cfg.Export.Params())

	cronScheduler, err := scheduler.NewCronScheduler(exportService, cfg.Schedule)
	if err != nil {
		return err
	}

	router := httpShell.SetupRoutes(exportService)

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		metricsAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Metrics.Port)
		metricsMux := http.NewServeMux()
		metricsMux.Handle(cfg.Metrics.Path, promhttp.Handler())

		metricsServer = &http.Server{
			Addr:    metricsAddr,
			Handler: metricsMux,
		}

		go func() {
			logrus.Infof("Starting metrics server on %s%s", metricsAddr, cfg.Metrics.Path)
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logrus.Errorf("Metrics server error: %v", err)
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	schedulerDone := make(chan error, 1)
	go func() { schedulerDone <- cronScheduler.Start(ctx) }()

	serverErr := make(chan error, 1)
	go func() {
		logrus.Infof("Starting server on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		logrus.Info("Shutting down server...")
	case runErr = <-serverErr:
		stop()
		logrus.Errorf("Server failed: %v", runErr)
	}

	if err := <-schedulerDone; err != nil {
		logrus.Errorf("Scheduler error: %v", err)
	}
	cronScheduler.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
	}
	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logrus.Errorf("Metrics server forced to shutdown: %v", err)
		}
	}

	logrus.Info("Server exited")
	return runErr
}
