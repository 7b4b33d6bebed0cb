package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"routescan-exporter/internal/core/domain"
	"routescan-exporter/internal/core/ports"
)

// mockExportService is a mock implementation of ports.ExportService for testing
type mockExportService struct {
	triggerExportFunc  func(ctx context.Context) (domain.ExportRun, error)
	getExportRunFunc   func(ctx context.Context, id string) (domain.ExportRun, error)
	listExportRunsFunc func(ctx context.Context) ([]domain.ExportRun, error)
}

var _ ports.ExportService = (*mockExportService)(nil)

func (m *mockExportService) TriggerExport(ctx context.Context) (domain.ExportRun, error) {
	if m.triggerExportFunc != nil {
		return m.triggerExportFunc(ctx)
	}
	return domain.ExportRun{}, nil
}

func (m *mockExportService) GetExportRun(ctx context.Context, id string) (domain.ExportRun, error) {
	if m.getExportRunFunc != nil {
		return m.getExportRunFunc(ctx, id)
	}
	return domain.ExportRun{}, domain.ErrExportRunNotFound
}

func (m *mockExportService) ListExportRuns(ctx context.Context) ([]domain.ExportRun, error) {
	if m.listExportRunsFunc != nil {
		return m.listExportRunsFunc(ctx)
	}
	return nil, nil
}

func serve(t *testing.T, svc ports.ExportService, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	SetupRoutes(svc).ServeHTTP(rec, req)
	return rec
}

func sampleRun(status domain.ExportRunStatus, start time.Time) domain.ExportRun {
	run := domain.NewExportRun(domain.ExportParams{Address: "0xabc", ChainID: "57073"})
	run.StartTime = start
	switch status {
	case domain.RunStatusCompleted:
		run = run.WithExportID("abc123").WithCompleted("transactions_abc123.zip")
	case domain.RunStatusFailed:
		run = run.WithFailed("export failed")
	}
	return run
}

func TestTriggerExport_Accepted(t *testing.T) {
	run := sampleRun(domain.RunStatusRunning, time.Now().UTC())
	svc := &mockExportService{
		triggerExportFunc: func(ctx context.Context) (domain.ExportRun, error) { return run, nil },
	}

	rec := serve(t, svc, http.MethodPost, "/api/v1/exports")

	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "/api/v1/runs/"+run.ID, rec.Header().Get("Location"))

	var body ExportRunResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, run.ID, body.ID)
	assert.Equal(t, "running", body.Status)
	assert.Nil(t, body.DurationSeconds)
}

func TestTriggerExport_Conflict(t *testing.T) {
	svc := &mockExportService{
		triggerExportFunc: func(ctx context.Context) (domain.ExportRun, error) {
			return domain.ExportRun{}, domain.ErrExportInProgress
		},
	}

	rec := serve(t, svc, http.MethodPost, "/api/v1/exports")

	require.Equal(t, http.StatusConflict, rec.Code)

	var body ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Len(t, body.Errors, 1)
	assert.Equal(t, "Export In Progress", body.Errors[0].Title)
}

func TestTriggerExport_InternalError(t *testing.T) {
	svc := &mockExportService{
		triggerExportFunc: func(ctx context.Context) (domain.ExportRun, error) {
			return domain.ExportRun{}, errors.New("disk full")
		},
	}

	rec := serve(t, svc, http.MethodPost, "/api/v1/exports")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "disk full")
}

func TestGetRun(t *testing.T) {
	run := sampleRun(domain.RunStatusCompleted, time.Now().UTC().Add(-time.Minute))
	svc := &mockExportService{
		getExportRunFunc: func(ctx context.Context, id string) (domain.ExportRun, error) {
			if id == run.ID {
				return run, nil
			}
			return domain.ExportRun{}, domain.ErrExportRunNotFound
		},
	}

	rec := serve(t, svc, http.MethodGet, "/api/v1/runs/"+run.ID)
	require.Equal(t, http.StatusOK, rec.Code)

	var body ExportRunResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "completed", body.Status)
	assert.Equal(t, "abc123", body.ExportID)
	assert.Equal(t, "transactions_abc123.zip", body.OutputFile)
	require.NotNil(t, body.DurationSeconds)
	assert.InDelta(t, 60, *body.DurationSeconds, 5)

	rec = serve(t, svc, http.MethodGet, "/api/v1/runs/missing")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "missing")
}

func TestGetRuns_PaginatesAndFilters(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	runs := []domain.ExportRun{
		sampleRun(domain.RunStatusFailed, base.Add(3*time.Hour)),
		sampleRun(domain.RunStatusCompleted, base.Add(2*time.Hour)),
		sampleRun(domain.RunStatusCompleted, base.Add(time.Hour)),
	}
	svc := &mockExportService{
		listExportRunsFunc: func(ctx context.Context) ([]domain.ExportRun, error) { return runs, nil },
	}

	rec := serve(t, svc, http.MethodGet, "/api/v1/runs?limit=2")
	require.Equal(t, http.StatusOK, rec.Code)

	var page struct {
		Meta  Meta                `json:"meta"`
		Links Links               `json:"links"`
		Data  []ExportRunResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&page))
	assert.Equal(t, 3, page.Meta.Count)
	require.Len(t, page.Data, 2)
	assert.Equal(t, runs[0].ID, page.Data[0].ID)
	assert.NotEmpty(t, page.Links.Next)

	rec = serve(t, svc, http.MethodGet, "/api/v1/runs?status=completed")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&page))
	assert.Equal(t, 2, page.Meta.Count)
	for _, r := range page.Data {
		assert.Equal(t, "completed", r.Status)
	}
}

func TestGetRuns_InvalidStatus(t *testing.T) {
	rec := serve(t, &mockExportService{}, http.MethodGet, "/api/v1/runs?status=paused")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetRuns_EmptyLedger(t *testing.T) {
	rec := serve(t, &mockExportService{}, http.MethodGet, "/api/v1/runs")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"meta":{"count":0},"links":{},"data":[]}`, rec.Body.String())
}

func TestHealth(t *testing.T) {
	rec := serve(t, &mockExportService{}, http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
