package notifier

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"routescan-exporter/internal/core/domain"
	"routescan-exporter/internal/shell/messaging"
)

// MessageSender publishes a keyed message; satisfied by *messaging.KafkaProducer
type MessageSender interface {
	SendMessage(key string, value []byte, headers map[string]string) error
}

// KafkaCompletionNotifier publishes export completion events to Kafka
type KafkaCompletionNotifier struct {
	sender MessageSender
}

// NewKafkaCompletionNotifier creates a new Kafka based notifier
func NewKafkaCompletionNotifier(sender MessageSender) *KafkaCompletionNotifier {
	return &KafkaCompletionNotifier{
		sender: sender,
	}
}

// ExportComplete sends the completion event for a finished run, keyed by run ID
func (n *KafkaCompletionNotifier) ExportComplete(ctx context.Context, run domain.ExportRun) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	logrus.Infof("Sending completion notification via Kafka for run: %s", run.ID)

	notification := messaging.NewExportCompletionNotification(run)
	payload, err := notification.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to encode notification: %w", err)
	}

	headers := map[string]string{
		"event-type": notification.EventType,
		"export-id":  run.ExportID,
	}

	if err := n.sender.SendMessage(run.ID, payload, headers); err != nil {
		logrus.Errorf("Failed to send completion notification for run %s: %v", run.ID, err)
		return err
	}

	logrus.Infof("Completion notification sent successfully for run %s", run.ID)
	return nil
}
