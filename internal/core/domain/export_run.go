package domain

import (
	"time"

	"github.com/google/uuid"
)

type ExportRunStatus string

const (
	RunStatusRunning   ExportRunStatus = "running"
	RunStatusCompleted ExportRunStatus = "completed"
	RunStatusFailed    ExportRunStatus = "failed"
)

// ExportRun records one request -> poll -> download cycle
type ExportRun struct {
	ID           string          `json:"id"`
	ExportID     string          `json:"export_id,omitempty"`
	Address      string          `json:"address"`
	ChainID      string          `json:"chain_id"`
	Status       ExportRunStatus `json:"status"`
	StartTime    time.Time       `json:"start_time"`
	EndTime      *time.Time      `json:"end_time,omitempty"`
	ErrorMessage *string         `json:"error_message,omitempty"`
	OutputFile   *string         `json:"output_file,omitempty"`
}

func NewExportRun(params ExportParams) ExportRun {
	return ExportRun{
		ID:        uuid.New().String(),
		Address:   params.Address,
		ChainID:   params.ChainID,
		Status:    RunStatusRunning,
		StartTime: time.Now().UTC(),
	}
}

func (r ExportRun) WithExportID(exportID string) ExportRun {
	r.ExportID = exportID
	return r
}

func (r ExportRun) WithCompleted(outputFile string) ExportRun {
	now := time.Now().UTC()
	r.Status = RunStatusCompleted
	r.EndTime = &now
	r.ErrorMessage = nil
	r.OutputFile = &outputFile
	return r
}

func (r ExportRun) WithFailed(errorMessage string) ExportRun {
	now := time.Now().UTC()
	r.Status = RunStatusFailed
	r.EndTime = &now
	r.ErrorMessage = &errorMessage
	r.OutputFile = nil
	return r
}

// Duration is the wall time of a finished run, or the time elapsed so far
func (r ExportRun) Duration() time.Duration {
	if r.EndTime == nil {
		return time.Since(r.StartTime)
	}
	return r.EndTime.Sub(r.StartTime)
}

func IsValidRunStatus(s string) bool {
	switch ExportRunStatus(s) {
	case RunStatusRunning, RunStatusCompleted, RunStatusFailed:
		return true
	default:
		return false
	}
}
