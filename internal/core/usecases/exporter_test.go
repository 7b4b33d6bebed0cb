package usecases

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"routescan-exporter/internal/clients/routescan"
	"routescan-exporter/internal/core/domain"
)

type fakeRunRepository struct {
	mu    sync.Mutex
	runs  map[string]domain.ExportRun
	saves []domain.ExportRunStatus
}

func newFakeRunRepository() *fakeRunRepository {
	return &fakeRunRepository{runs: make(map[string]domain.ExportRun)}
}

func (r *fakeRunRepository) Save(run domain.ExportRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs[run.ID] = run
	r.saves = append(r.saves, run.Status)
	return nil
}

func (r *fakeRunRepository) FindByID(id string) (domain.ExportRun, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	run, ok := r.runs[id]
	if !ok {
		return domain.ExportRun{}, domain.ErrExportRunNotFound
	}
	return run, nil
}

func (r *fakeRunRepository) FindAll() ([]domain.ExportRun, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	runs := make([]domain.ExportRun, 0, len(r.runs))
	for _, run := range r.runs {
		runs = append(runs, run)
	}
	return runs, nil
}

type fakeNotifier struct {
	runs []domain.ExportRun
	err  error
}

func (n *fakeNotifier) ExportComplete(ctx context.Context, run domain.ExportRun) error {
	n.runs = append(n.runs, run)
	return n.err
}

type fakeRecorder struct {
	started  int
	finished []domain.ExportRun
	attempts int
	bytes    int64
}

func (r *fakeRecorder) ExportStarted()                      { r.started++ }
func (r *fakeRecorder) ExportFinished(run domain.ExportRun) { r.finished = append(r.finished, run) }
func (r *fakeRecorder) PollAttempts(attempts int)           { r.attempts += attempts }
func (r *fakeRecorder) BytesDownloaded(n int64)             { r.bytes += n }

// exportServer fakes the creation, status and download endpoints
type exportServer struct {
	*httptest.Server
	createBody string
	statuses   []string
	archive    []byte

	creates   atomic.Int32
	polls     atomic.Int32
	downloads atomic.Int32
}

func newExportServer(t *testing.T, createBody string, statuses []string, archive []byte) *exportServer {
	s := &exportServer{createBody: createBody, statuses: statuses, archive: archive}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/exports/transactions":
			s.creates.Add(1)
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(s.createBody))
		case r.Method == http.MethodGet && r.URL.Path == "/exports/abc123":
			i := int(s.polls.Add(1)) - 1
			if i >= len(s.statuses) {
				i = len(s.statuses) - 1
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(routescan.ExportStatusResponse{
				Status: s.statuses[i],
				URL:    s.URL + "/files/y.zip",
			})
		case r.Method == http.MethodGet && r.URL.Path == "/files/y.zip":
			s.downloads.Add(1)
			w.Header().Set("Content-Type", "application/zip")
			w.Write(s.archive)
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	return s
}

func (s *exportServer) requests() int32 {
	return s.creates.Load() + s.polls.Load() + s.downloads.Load()
}

func testExportParams() domain.ExportParams {
	return domain.ExportParams{
		Address:      "0x1D74317d760f2c72A94386f50E8D10f2C902b899",
		ChainID:      "57073",
		DateFrom:     time.Date(2024, 12, 28, 13, 51, 6, 0, time.UTC),
		Limit:        63956,
		CSVSeparator: ",",
	}
}

func newTestExporter(serverURL, outputDir string, maxAttempts int) *Exporter {
	client := routescan.NewClient(serverURL+"/exports", 5*time.Second, 5*time.Second)
	poller := NewPoller(client, maxAttempts, time.Millisecond)
	poller.SetSleeper(func(ctx context.Context, d time.Duration) error { return nil })
	return NewExporter(client, poller, outputDir)
}

func TestExporter_EndToEnd(t *testing.T) {
	server := newExportServer(t, `{"exportId": "abc123"}`, []string{"succeeded"}, []byte("PK\x03\x04zip"))
	defer server.Close()

	dir := t.TempDir()
	exporter := newTestExporter(server.URL, dir, 60)

	repo := newFakeRunRepository()
	notifier := &fakeNotifier{}
	recorder := &fakeRecorder{}
	exporter.SetRunRepository(repo)
	exporter.SetNotifier(notifier)
	exporter.SetRecorder(recorder)

	run, err := exporter.Run(context.Background(), testExportParams())
	require.NoError(t, err)

	expectedFile := filepath.Join(dir, "transactions_abc123.zip")
	data, err := os.ReadFile(expectedFile)
	require.NoError(t, err)
	assert.Equal(t, "PK\x03\x04zip", string(data))

	assert.Equal(t, domain.RunStatusCompleted, run.Status)
	assert.Equal(t, "abc123", run.ExportID)
	require.NotNil(t, run.OutputFile)
	assert.Equal(t, expectedFile, *run.OutputFile)

	assert.Equal(t, int32(1), server.creates.Load())
	assert.Equal(t, int32(1), server.polls.Load())
	assert.Equal(t, int32(1), server.downloads.Load())

	stored, err := repo.FindByID(run.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RunStatusCompleted, stored.Status)
	assert.Equal(t, []domain.ExportRunStatus{
		domain.RunStatusRunning, domain.RunStatusRunning, domain.RunStatusCompleted,
	}, repo.saves)

	require.Len(t, notifier.runs, 1)
	assert.Equal(t, run.ID, notifier.runs[0].ID)

	assert.Equal(t, 1, recorder.started)
	require.Len(t, recorder.finished, 1)
	assert.Equal(t, 1, recorder.attempts)
	assert.Equal(t, int64(7), recorder.bytes)
}

func TestExporter_MissingExportIDMakesNoFurtherCalls(t *testing.T) {
	server := newExportServer(t, `{"status": "accepted"}`, []string{"succeeded"}, nil)
	defer server.Close()

	dir := t.TempDir()
	exporter := newTestExporter(server.URL, dir, 60)

	run, err := exporter.Run(context.Background(), testExportParams())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrRequestFailed))
	assert.True(t, errors.Is(err, routescan.ErrMissingExportID))

	assert.Equal(t, domain.RunStatusFailed, run.Status)
	require.NotNil(t, run.ErrorMessage)
	assert.Equal(t, int32(1), server.requests(), "only the creation call may be made")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestExporter_ExportFailed(t *testing.T) {
	server := newExportServer(t, `{"exportId": "abc123"}`, []string{"running", "failed"}, nil)
	defer server.Close()

	notifier := &fakeNotifier{err: errors.New("kafka unavailable")}
	exporter := newTestExporter(server.URL, t.TempDir(), 60)
	exporter.SetNotifier(notifier)

	run, err := exporter.Run(context.Background(), testExportParams())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrExportFailed))
	assert.Equal(t, domain.RunStatusFailed, run.Status)
	assert.Equal(t, int32(2), server.polls.Load())
	assert.Equal(t, int32(0), server.downloads.Load())
	assert.Len(t, notifier.runs, 1, "notifier errors must not change the outcome")
}

func TestExporter_PollTimeout(t *testing.T) {
	server := newExportServer(t, `{"exportId": "abc123"}`, []string{"running"}, nil)
	defer server.Close()

	exporter := newTestExporter(server.URL, t.TempDir(), 3)

	_, err := exporter.Run(context.Background(), testExportParams())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrPollTimeout))
	assert.Equal(t, int32(3), server.polls.Load())
}

func TestExporter_DateToDefaultsToNow(t *testing.T) {
	var dateTo string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		dateTo = r.URL.Query().Get("dateTo")
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	exporter := newTestExporter(server.URL, t.TempDir(), 1)
	exporter.now = func() time.Time { return time.Date(2025, 5, 6, 7, 8, 9, 0, time.UTC) }

	_, err := exporter.Run(context.Background(), testExportParams())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrRequestFailed))
	assert.Equal(t, "2025-05-06T07:08:09.000Z", dateTo)
}

func TestExporter_TriggerRejectsConcurrentRun(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	exporter := newTestExporter(server.URL, t.TempDir(), 1)

	run, done, err := exporter.Trigger(context.Background(), testExportParams())
	require.NoError(t, err)
	assert.Equal(t, domain.RunStatusRunning, run.Status)

	_, _, err = exporter.Trigger(context.Background(), testExportParams())
	assert.True(t, errors.Is(err, domain.ErrExportInProgress))

	_, err = exporter.TryRun(context.Background(), testExportParams())
	assert.True(t, errors.Is(err, domain.ErrExportInProgress))

	close(release)
	finished := <-done
	assert.Equal(t, run.ID, finished.ID)
	assert.Equal(t, domain.RunStatusFailed, finished.Status)
}
