package http

import (
	"time"

	"routescan-exporter/internal/core/domain"
)

// ExportRunResponse is the API response model for ExportRun objects
type ExportRunResponse struct {
	ID              string     `json:"id"`
	ExportID        string     `json:"export_id,omitempty"`
	Address         string     `json:"address"`
	ChainID         string     `json:"chain_id"`
	Status          string     `json:"status"`
	StartTime       time.Time  `json:"start_time"`
	EndTime         *time.Time `json:"end_time,omitempty"`
	DurationSeconds *float64   `json:"duration_seconds,omitempty"`
	ErrorMessage    string     `json:"error_message,omitempty"`
	OutputFile      string     `json:"output_file,omitempty"`
}

// ToExportRunResponse converts a domain.ExportRun to its DTO.
// Duration is only reported once the run has ended.
func ToExportRunResponse(run domain.ExportRun) ExportRunResponse {
	resp := ExportRunResponse{
		ID:        run.ID,
		ExportID:  run.ExportID,
		Address:   run.Address,
		ChainID:   run.ChainID,
		Status:    string(run.Status),
		StartTime: run.StartTime,
		EndTime:   run.EndTime,
	}

	if run.EndTime != nil {
		seconds := run.Duration().Seconds()
		resp.DurationSeconds = &seconds
	}
	if run.ErrorMessage != nil {
		resp.ErrorMessage = *run.ErrorMessage
	}
	if run.OutputFile != nil {
		resp.OutputFile = *run.OutputFile
	}

	return resp
}

func ToExportRunResponseList(runs []domain.ExportRun) []ExportRunResponse {
	responses := make([]ExportRunResponse, len(runs))
	for i, run := range runs {
		responses[i] = ToExportRunResponse(run)
	}
	return responses
}
