package scheduler

import (
	"context"
	"errors"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"routescan-exporter/internal/core/domain"
)

// ScheduledExporter runs one export when the schedule fires
type ScheduledExporter interface {
	RunScheduledExport(ctx context.Context) (domain.ExportRun, error)
}

// CronScheduler fires exports on a cron expression
type CronScheduler struct {
	exporter ScheduledExporter
	cron     *cron.Cron
	schedule string
}

// NewCronScheduler validates the schedule and prepares the cron runner.
// Standard 5-field expressions and descriptors such as @daily are accepted.
func NewCronScheduler(exporter ScheduledExporter, schedule string) (*CronScheduler, error) {
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("invalid export schedule %q: %w", schedule, err)
	}

	logger := cron.PrintfLogger(logrus.StandardLogger())

	return &CronScheduler{
		exporter: exporter,
		cron:     cron.New(cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger))),
		schedule: schedule,
	}, nil
}

// Start registers the export entry and blocks until ctx is cancelled
func (s *CronScheduler) Start(ctx context.Context) error {
	logrus.Infof("Starting cron scheduler with schedule: %s", s.schedule)

	entryID, err := s.cron.AddFunc(s.schedule, func() { s.runExport(ctx) })
	if err != nil {
		return fmt.Errorf("failed to schedule export: %w", err)
	}
	logrus.Debugf("[DEBUG] CronScheduler - export scheduled (entry ID: %d)", entryID)

	s.cron.Start()

	<-ctx.Done()
	logrus.Info("Scheduler context cancelled, stopping")
	return nil
}

// Stop halts the cron runner and waits for a running export to return
func (s *CronScheduler) Stop() {
	logrus.Info("Stopping cron scheduler")
	<-s.cron.Stop().Done()
	logrus.Info("Cron scheduler stopped")
}

func (s *CronScheduler) runExport(ctx context.Context) {
	logrus.Info("Executing scheduled export")

	run, err := s.exporter.RunScheduledExport(ctx)
	switch {
	case errors.Is(err, domain.ErrExportInProgress):
		logrus.Info("Export already in progress, skipping scheduled run")
	case err != nil:
		logrus.Errorf("Scheduled export failed: %v", err)
	default:
		logrus.Infof("Scheduled export %s completed", run.ID)
	}
}
