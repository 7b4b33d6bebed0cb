package usecases

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"routescan-exporter/internal/core/domain"
)

// Exporter runs the request -> poll -> download workflow. Only one export runs
// at a time per Exporter.
type Exporter struct {
	api        ExportAPI
	poller     *Poller
	downloader *FileDownloader
	outputDir  string

	runRepo  ExportRunRepository
	notifier CompletionNotifier
	recorder Recorder
	now      func() time.Time

	mu sync.Mutex
}

func NewExporter(api ExportAPI, poller *Poller, outputDir string) *Exporter {
	if outputDir == "" {
		outputDir = "."
	}
	return &Exporter{
		api:        api,
		poller:     poller,
		downloader: NewFileDownloader(api),
		outputDir:  outputDir,
		recorder:   nopRecorder{},
		now:        time.Now,
	}
}

// SetRunRepository enables the run ledger
func (e *Exporter) SetRunRepository(repo ExportRunRepository) {
	e.runRepo = repo
}

func (e *Exporter) SetNotifier(notifier CompletionNotifier) {
	e.notifier = notifier
}

func (e *Exporter) SetRecorder(recorder Recorder) {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	e.recorder = recorder
}

// Run performs one export, waiting for any export already in progress
func (e *Exporter) Run(ctx context.Context, params domain.ExportParams) (domain.ExportRun, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	run, params := e.begin(params)
	return e.execute(ctx, run, params)
}

// TryRun performs one export unless another one is in progress
func (e *Exporter) TryRun(ctx context.Context, params domain.ExportParams) (domain.ExportRun, error) {
	if !e.mu.TryLock() {
		return domain.ExportRun{}, domain.ErrExportInProgress
	}
	defer e.mu.Unlock()

	run, params := e.begin(params)
	return e.execute(ctx, run, params)
}

// Trigger starts an export in the background and returns its run record
// right away. The returned channel yields the finished run.
func (e *Exporter) Trigger(ctx context.Context, params domain.ExportParams) (domain.ExportRun, <-chan domain.ExportRun, error) {
	if !e.mu.TryLock() {
		return domain.ExportRun{}, nil, domain.ErrExportInProgress
	}

	run, params := e.begin(params)
	done := make(chan domain.ExportRun, 1)

	go func() {
		defer e.mu.Unlock()
		finished, err := e.execute(ctx, run, params)
		if err != nil {
			logrus.Errorf("Export run %s failed: %v", run.ID, err)
		}
		done <- finished
		close(done)
	}()

	return run, done, nil
}

func (e *Exporter) begin(params domain.ExportParams) (domain.ExportRun, domain.ExportParams) {
	params = params.WithDateTo(e.now())
	run := domain.NewExportRun(params)

	e.recorder.ExportStarted()
	e.saveRun(run)

	return run, params
}

func (e *Exporter) execute(ctx context.Context, run domain.ExportRun, params domain.ExportParams) (domain.ExportRun, error) {
	logrus.Infof("Initiating export request - address: %s, chain: %s, range: %s to %s, limit: %d",
		params.Address, params.ChainID,
		domain.FormatExportTime(params.DateFrom), domain.FormatExportTime(params.DateTo), params.Limit)

	exportID, err := e.api.CreateExport(ctx, params)
	if err != nil {
		return e.finish(ctx, run, "", fmt.Errorf("%w: %w", domain.ErrRequestFailed, err))
	}

	logrus.Infof("Export initiated successfully - ID: %s", exportID)
	run = run.WithExportID(exportID)
	e.saveRun(run)

	result, err := e.poller.Poll(ctx, exportID)
	e.recorder.PollAttempts(result.Attempts)
	if err != nil {
		return e.finish(ctx, run, "", err)
	}

	if err := os.MkdirAll(e.outputDir, 0o755); err != nil {
		return e.finish(ctx, run, "", fmt.Errorf("%w: %w", domain.ErrDownloadFailed, err))
	}

	dest := filepath.Join(e.outputDir, domain.OutputFilename(exportID))
	n, err := e.downloader.Download(ctx, result.URL, dest)
	if err != nil {
		return e.finish(ctx, run, "", err)
	}

	e.recorder.BytesDownloaded(n)
	logrus.Infof("File downloaded successfully: %s (%d bytes)", dest, n)

	return e.finish(ctx, run, dest, nil)
}

func (e *Exporter) finish(ctx context.Context, run domain.ExportRun, outputFile string, runErr error) (domain.ExportRun, error) {
	if runErr != nil {
		run = run.WithFailed(runErr.Error())
	} else {
		run = run.WithCompleted(outputFile)
	}

	e.saveRun(run)
	e.recorder.ExportFinished(run)

	if e.notifier != nil {
		if err := e.notifier.ExportComplete(context.WithoutCancel(ctx), run); err != nil {
			// A lost notification never fails the export itself
			logrus.Warnf("Failed to send completion notification for run %s: %v", run.ID, err)
		}
	}

	return run, runErr
}

func (e *Exporter) saveRun(run domain.ExportRun) {
	if e.runRepo == nil {
		return
	}
	if err := e.runRepo.Save(run); err != nil {
		logrus.Warnf("Failed to save export run %s: %v", run.ID, err)
		return
	}
	logrus.Debugf("[DEBUG] Saved export run: %s with status: %s", run.ID, run.Status)
}
