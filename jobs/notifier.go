package jobs

import (
	"context"
	"log/slog"
)

// Notifier enqueues approver mail when an order step advances. It satisfies
// the orders service's notification hook.
type Notifier struct {
	client *Client
	logger *slog.Logger
}

// NewNotifier wires the queue-backed notifier.
func NewNotifier(client *Client, logger *slog.Logger) *Notifier {
	return &Notifier{client: client, logger: logger}
}

// StepAdvanced enqueues a step-notification task.
func (n *Notifier) StepAdvanced(ctx context.Context, orderNumber, stepLabel, approverEmail string) error {
	_, err := n.client.EnqueueStepNotification(ctx, StepNotificationPayload{
		OrderNumber:   orderNumber,
		StepLabel:     stepLabel,
		ApproverEmail: approverEmail,
	})
	return err
}
