package routescan

import (
	"errors"
	"fmt"
)

// ErrMissingExportID is returned when a creation response has no exportId
var ErrMissingExportID = errors.New("routescan: response did not contain exportId")

// CreateExportResponse is the body returned by the job-creation endpoint
type CreateExportResponse struct {
	ExportID string `json:"exportId"`
}

// ExportStatusResponse is the body returned by the job-status endpoint
type ExportStatusResponse struct {
	Status string `json:"status"`
	URL    string `json:"url,omitempty"`
}

// ErrorResponse represents an error response from the API
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// APIError is returned for any non-2xx response
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (status %d): %s", e.StatusCode, e.Body)
}

// Query parameter names understood by the export endpoint
const (
	paramChainIDs     = "includedChainIds"
	paramAddress      = "address"
	paramLimit        = "limit"
	paramDateFrom     = "dateFrom"
	paramDateTo       = "dateTo"
	paramCSVSeparator = "csvSeparator"
)
