package usecases

import (
	"context"
	"io"

	"routescan-exporter/internal/core/domain"
)

// StatusChecker fetches a fresh snapshot of an export job
type StatusChecker interface {
	GetExportStatus(ctx context.Context, exportID string) (domain.ExportJob, error)
}

// Fetcher streams a remote resource into w
type Fetcher interface {
	Download(ctx context.Context, url string, w io.Writer) (int64, error)
}

// ExportAPI is the remote export service used by the Exporter
type ExportAPI interface {
	StatusChecker
	Fetcher
	CreateExport(ctx context.Context, params domain.ExportParams) (string, error)
}

type ExportRunRepository interface {
	Save(run domain.ExportRun) error
	FindByID(id string) (domain.ExportRun, error)
	FindAll() ([]domain.ExportRun, error)
}

// CompletionNotifier is told about every finished run, successful or not
type CompletionNotifier interface {
	ExportComplete(ctx context.Context, run domain.ExportRun) error
}

// Recorder receives measurements about export runs
type Recorder interface {
	ExportStarted()
	ExportFinished(run domain.ExportRun)
	PollAttempts(attempts int)
	BytesDownloaded(n int64)
}

type nopRecorder struct{}

func (nopRecorder) ExportStarted()                  {}
func (nopRecorder) ExportFinished(domain.ExportRun) {}
func (nopRecorder) PollAttempts(int)                {}
func (nopRecorder) BytesDownloaded(int64)           {}
