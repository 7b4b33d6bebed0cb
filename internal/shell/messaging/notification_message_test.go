package messaging

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"routescan-exporter/internal/core/domain"
)

func testRun() domain.ExportRun {
	return domain.NewExportRun(domain.ExportParams{
		Address: "0x1D74317d760f2c72A94386f50E8D10f2C902b899",
		ChainID: "57073",
	}).WithExportID("abc123")
}

func TestNewExportCompletionNotification_Completed(t *testing.T) {
	run := testRun().WithCompleted("out/transactions_abc123.zip")

	notification := NewExportCompletionNotification(run)

	assert.Equal(t, EventExportCompleted, notification.EventType)
	assert.Equal(t, "routescan-exporter", notification.Source)
	assert.Equal(t, run.ID, notification.Context["run_id"])
	assert.Equal(t, "abc123", notification.Context["export_id"])
	assert.Equal(t, "completed", notification.Context["status"])
	assert.Equal(t, "out/transactions_abc123.zip", notification.Context["output_file"])
	assert.NotContains(t, notification.Context, "error_message")
	assert.Contains(t, notification.Context, "duration_seconds")

	_, err := time.Parse(time.RFC3339, notification.Timestamp)
	require.NoError(t, err)
}

func TestNewExportCompletionNotification_Failed(t *testing.T) {
	run := testRun().WithFailed("export failed on server")

	notification := NewExportCompletionNotification(run)

	assert.Equal(t, EventExportFailed, notification.EventType)
	assert.Equal(t, "export failed on server", notification.Context["error_message"])
	assert.NotContains(t, notification.Context, "output_file")
}

func TestNotificationMessage_ToJSON(t *testing.T) {
	notification := NewExportCompletionNotification(testRun().WithCompleted("transactions_abc123.zip"))

	data, err := notification.ToJSON()
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "export-completed", decoded["event_type"])
	assert.Equal(t, "v1.0.0", decoded["version"])

	context, ok := decoded["context"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "57073", context["chain_id"])
}
