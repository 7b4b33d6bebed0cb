package messaging

import (
	"encoding/json"
	"time"

	"routescan-exporter/internal/core/domain"
)

const (
	EventExportCompleted = "export-completed"
	EventExportFailed    = "export-failed"

	notificationVersion = "v1.0.0"
	notificationSource  = "routescan-exporter"
)

// NotificationMessage is the event published when an export run finishes
type NotificationMessage struct {
	Version   string                 `json:"version"`
	Source    string                 `json:"source"`
	EventType string                 `json:"event_type"`
	Timestamp string                 `json:"timestamp"` // RFC3339 format
	Context   map[string]interface{} `json:"context"`
}

// NewExportCompletionNotification creates a notification message for a finished export run
func NewExportCompletionNotification(run domain.ExportRun) *NotificationMessage {
	context := map[string]interface{}{
		"run_id":    run.ID,
		"export_id": run.ExportID,
		"address":   run.Address,
		"chain_id":  run.ChainID,
		"status":    string(run.Status),
	}

	if run.OutputFile != nil {
		context["output_file"] = *run.OutputFile
	}
	if run.ErrorMessage != nil {
		context["error_message"] = *run.ErrorMessage
	}
	if run.EndTime != nil {
		context["duration_seconds"] = run.Duration().Seconds()
	}

	eventType := EventExportCompleted
	if run.Status == domain.RunStatusFailed {
		eventType = EventExportFailed
	}

	return &NotificationMessage{
		Version:   notificationVersion,
		Source:    notificationSource,
		EventType: eventType,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Context:   context,
	}
}

// ToJSON converts the notification message to JSON bytes
func (n *NotificationMessage) ToJSON() ([]byte, error) {
	return json.Marshal(n)
}
