package domain

import (
	"fmt"
	"time"
)

// ExportStatus is the state reported by the export service for a job
type ExportStatus string

const (
	StatusRunning   ExportStatus = "running"
	StatusSucceeded ExportStatus = "succeeded"
	StatusFailed    ExportStatus = "failed"
)

// IsTerminal reports whether no further transitions can occur
func (s ExportStatus) IsTerminal() bool {
	return s == StatusSucceeded || s == StatusFailed
}

// IsKnown reports whether the status is one the poller understands
func (s ExportStatus) IsKnown() bool {
	switch s {
	case StatusRunning, StatusSucceeded, StatusFailed:
		return true
	default:
		return false
	}
}

// ISO8601Millis is the date layout the export API accepts for dateFrom/dateTo
const ISO8601Millis = "2006-01-02T15:04:05.000Z"

// ExportParams describes which transactions an export job covers.
// A zero DateTo means "now" at the moment the job is requested.
type ExportParams struct {
	Address      string    `json:"address"`
	ChainID      string    `json:"chain_id"`
	DateFrom     time.Time `json:"date_from"`
	DateTo       time.Time `json:"date_to,omitempty"`
	Limit        int       `json:"limit"`
	CSVSeparator string    `json:"csv_separator"`
}

// WithDateTo returns a copy with DateTo pinned, defaulting to now when unset
func (p ExportParams) WithDateTo(now time.Time) ExportParams {
	if p.DateTo.IsZero() {
		p.DateTo = now
	}
	return p
}

// ExportJob is a snapshot of a server-side export job
type ExportJob struct {
	ID     string       `json:"id"`
	Status ExportStatus `json:"status"`
	URL    string       `json:"url,omitempty"`
}

// OutputFilename returns the artifact name for an export job
func OutputFilename(exportID string) string {
	return fmt.Sprintf("transactions_%s.zip", exportID)
}

// FormatExportTime renders t the way the export API expects it
func FormatExportTime(t time.Time) string {
	return t.UTC().Format(ISO8601Millis)
}
