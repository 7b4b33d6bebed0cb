package usecases

import (
	"context"
	"sort"

	"routescan-exporter/internal/core/domain"
)

// ExportService exposes the Exporter and its run ledger to the HTTP layer
type ExportService struct {
	exporter *Exporter
	runRepo  ExportRunRepository
	params   domain.ExportParams
}

func NewExportService(exporter *Exporter, runRepo ExportRunRepository, params domain.ExportParams) *ExportService {
	return &ExportService{
		exporter: exporter,
		runRepo:  runRepo,
		params:   params,
	}
}

// TriggerExport starts a background export with the configured parameters.
// The run outlives the caller's context.
func (s *ExportService) TriggerExport(ctx context.Context) (domain.ExportRun, error) {
	run, _, err := s.exporter.Trigger(context.WithoutCancel(ctx), s.params)
	return run, err
}

// RunScheduledExport is invoked by the scheduler; it skips when busy
func (s *ExportService) RunScheduledExport(ctx context.Context) (domain.ExportRun, error) {
	return s.exporter.TryRun(ctx, s.params)
}

func (s *ExportService) GetExportRun(ctx context.Context, id string) (domain.ExportRun, error) {
	return s.runRepo.FindByID(id)
}

// ListExportRuns returns runs newest first
func (s *ExportService) ListExportRuns(ctx context.Context) ([]domain.ExportRun, error) {
	runs, err := s.runRepo.FindAll()
	if err != nil {
		return nil, err
	}

	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].StartTime.After(runs[j].StartTime)
	})

	return runs, nil
}
