package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"routescan-exporter/internal/core/domain"
	"routescan-exporter/internal/core/ports"
)

type ExportHandler struct {
	exportService ports.ExportService
}

func NewExportHandler(exportService ports.ExportService) *ExportHandler {
	return &ExportHandler{
		exportService: exportService,
	}
}

// TriggerExport starts an export in the background and answers 202 with the new run
func (h *ExportHandler) TriggerExport(w http.ResponseWriter, r *http.Request) {
	logrus.Debugf("[DEBUG] HTTP TriggerExport called - method: %s, path: %s", r.Method, r.URL.Path)

	run, err := h.exportService.TriggerExport(r.Context())
	if err != nil {
		if errors.Is(err, domain.ErrExportInProgress) {
			logrus.Debugf("[DEBUG] HTTP TriggerExport rejected - export already running")
			respondWithErrors(w, http.StatusConflict, []ErrorObject{errorExportInProgress()})
			return
		}
		logrus.Errorf("HTTP TriggerExport failed: %v", err)
		respondWithErrors(w, http.StatusInternalServerError, []ErrorObject{errorInternalServer()})
		return
	}

	logrus.Infof("Export triggered - run ID: %s", run.ID)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Location", "/api/v1/runs/"+run.ID)
	w.WriteHeader(http.StatusAccepted)

	if err := json.NewEncoder(w).Encode(ToExportRunResponse(run)); err != nil {
		logrus.Warnf("HTTP TriggerExport - failed to encode response: %v", err)
	}
}

// GetRuns lists recorded runs newest first, optionally filtered by status
func (h *ExportHandler) GetRuns(w http.ResponseWriter, r *http.Request) {
	statusFilter := r.URL.Query().Get("status")
	if statusFilter != "" && !domain.IsValidRunStatus(statusFilter) {
		respondWithErrors(w, http.StatusBadRequest, []ErrorObject{
			errorInvalidField("status", "must be one of running, completed, failed"),
		})
		return
	}

	offset, limit := parsePaginationParams(r.URL)

	runs, err := h.exportService.ListExportRuns(r.Context())
	if err != nil {
		logrus.Errorf("HTTP GetRuns failed: %v", err)
		respondWithErrors(w, http.StatusInternalServerError, []ErrorObject{errorInternalServer()})
		return
	}

	if statusFilter != "" {
		filtered := make([]domain.ExportRun, 0, len(runs))
		for _, run := range runs {
			if string(run.Status) == statusFilter {
				filtered = append(filtered, run)
			}
		}
		runs = filtered
	}

	start, end := pageBounds(offset, limit, len(runs))
	logrus.Debugf("[DEBUG] HTTP GetRuns success - %d runs, returning [%d:%d]", len(runs), start, end)

	response := buildPaginatedResponse(r.URL, offset, limit, len(runs), ToExportRunResponseList(runs[start:end]))

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

func (h *ExportHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	runID := mux.Vars(r)["id"]

	run, err := h.exportService.GetExportRun(r.Context(), runID)
	if err != nil {
		if errors.Is(err, domain.ErrExportRunNotFound) {
			respondWithErrors(w, http.StatusNotFound, []ErrorObject{errorNotFound("Export Run", runID)})
			return
		}
		logrus.Errorf("HTTP GetRun failed - run_id=%s: %v", runID, err)
		respondWithErrors(w, http.StatusInternalServerError, []ErrorObject{errorInternalServer()})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ToExportRunResponse(run))
}

func (h *ExportHandler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
