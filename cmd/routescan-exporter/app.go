package main

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"routescan-exporter/internal/clients/routescan"
	"routescan-exporter/internal/config"
	"routescan-exporter/internal/core/usecases"
	"routescan-exporter/internal/shell/messaging"
	"routescan-exporter/internal/shell/metrics"
	"routescan-exporter/internal/shell/notifier"
	"routescan-exporter/internal/shell/storage"
)

// application holds the wired exporter and the resources it owns
type application struct {
	exporter *usecases.Exporter
	runRepo  storage.ExportRunRepository
	producer *messaging.KafkaProducer
}

func newApplication(cfg *config.Config, reg prometheus.Registerer) (*application, error) {
	app := &application{}

	client := routescan.NewClient(cfg.ExportService.BaseURL, cfg.ExportService.Timeout, cfg.ExportService.DownloadTimeout)
	poller := usecases.NewPoller(client, cfg.ExportService.PollMaxRetries, cfg.ExportService.PollInterval)
	app.exporter = usecases.NewExporter(client, poller, cfg.OutputDir)

	runRepo, err := storage.NewExportRunRepository(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize run history: %w", err)
	}
	if runRepo != nil {
		app.runRepo = runRepo
		app.exporter.SetRunRepository(runRepo)
		logrus.Infof("Run history enabled (%s)", cfg.Database.Type)
	}

	if cfg.Kafka.Enabled {
		logrus.Infof("Kafka producer config - brokers: %v, topic: %s", cfg.Kafka.Brokers, cfg.Kafka.Topic)

		producer, err := messaging.NewKafkaProducer(cfg.Kafka)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("failed to initialize Kafka producer: %w", err)
		}
		app.producer = producer
		app.exporter.SetNotifier(notifier.NewKafkaCompletionNotifier(producer))
		logrus.Info("Completion notifier initialized (kafka)")
	} else {
		app.exporter.SetNotifier(notifier.NewNullCompletionNotifier())
	}

	if cfg.Metrics.Enabled {
		app.exporter.SetRecorder(metrics.NewExportMetrics(reg))
	}

	return app, nil
}

// ensureRunHistory falls back to an in-memory ledger so the run API has something to serve
func (a *application) ensureRunHistory() {
	if a.runRepo != nil {
		return
	}
	logrus.Info("No run history backend configured, keeping runs in memory")
	a.runRepo = storage.NewMemoryExportRunRepository()
	a.exporter.SetRunRepository(a.runRepo)
}

func (a *application) Close() {
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			logrus.Errorf("Error closing Kafka producer: %v", err)
		}
	}
	if a.runRepo != nil {
		if err := a.runRepo.Close(); err != nil {
			logrus.Errorf("Error closing run history: %v", err)
		}
	}
}
