package notifier

import (
	"context"

	"github.com/sirupsen/logrus"

	"routescan-exporter/internal/core/domain"
)

// NullCompletionNotifier is a no-op notifier used when Kafka is not configured
type NullCompletionNotifier struct{}

// NewNullCompletionNotifier creates a new null notifier
func NewNullCompletionNotifier() *NullCompletionNotifier {
	return &NullCompletionNotifier{}
}

// ExportComplete does nothing
func (n *NullCompletionNotifier) ExportComplete(ctx context.Context, run domain.ExportRun) error {
	logrus.Debugf("No notifier configured - skipping completion notification for run: %s", run.ID)
	return nil
}
