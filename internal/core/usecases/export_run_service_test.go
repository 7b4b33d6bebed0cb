package usecases

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"routescan-exporter/internal/core/domain"
)

func TestExportService_ListExportRunsNewestFirst(t *testing.T) {
	repo := newFakeRunRepository()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"old", "newest", "middle"} {
		offsets := []time.Duration{0, 2 * time.Hour, time.Hour}
		run := domain.ExportRun{ID: id, Status: domain.RunStatusCompleted, StartTime: base.Add(offsets[i])}
		require.NoError(t, repo.Save(run))
	}

	service := NewExportService(nil, repo, testExportParams())

	runs, err := service.ListExportRuns(context.Background())
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, "newest", runs[0].ID)
	assert.Equal(t, "middle", runs[1].ID)
	assert.Equal(t, "old", runs[2].ID)
}

func TestExportService_GetExportRun(t *testing.T) {
	repo := newFakeRunRepository()
	require.NoError(t, repo.Save(domain.ExportRun{ID: "run-1", Status: domain.RunStatusRunning}))

	service := NewExportService(nil, repo, testExportParams())

	run, err := service.GetExportRun(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, "run-1", run.ID)

	_, err = service.GetExportRun(context.Background(), "missing")
	assert.True(t, errors.Is(err, domain.ErrExportRunNotFound))
}

func TestExportService_TriggerExport(t *testing.T) {
	server := newExportServer(t, `{"exportId": "abc123"}`, []string{"succeeded"}, []byte("zip"))
	defer server.Close()

	repo := newFakeRunRepository()
	exporter := newTestExporter(server.URL, t.TempDir(), 5)
	exporter.SetRunRepository(repo)

	service := NewExportService(exporter, repo, testExportParams())

	ctx, cancel := context.WithCancel(context.Background())
	run, err := service.TriggerExport(ctx)
	cancel()
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		stored, err := repo.FindByID(run.ID)
		return err == nil && stored.Status == domain.RunStatusCompleted
	}, 5*time.Second, 10*time.Millisecond, "background run must survive the request context")
}
