package ports

import (
	"context"

	"routescan-exporter/internal/core/domain"
)

// ExportService defines the operations the HTTP API offers on exports.
type ExportService interface {
	// TriggerExport starts an export in the background and returns its run
	TriggerExport(ctx context.Context) (domain.ExportRun, error)

	// GetExportRun retrieves a run by ID
	GetExportRun(ctx context.Context, id string) (domain.ExportRun, error)

	// ListExportRuns retrieves all recorded runs, newest first
	ListExportRuns(ctx context.Context) ([]domain.ExportRun, error)
}
