package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeStepNotification mails the next approver after a step advances.
	TaskTypeStepNotification = "orders:step_notification"
	// TaskTypeStaleOrderScan flags orders whose frontier step has not moved.
	TaskTypeStaleOrderScan = "orders:stale_scan"
	// TaskTypeLowStockScan mails a reorder summary for depleted stock items.
	TaskTypeLowStockScan = "inventory:low_stock_scan"
)

// StepNotificationPayload carries the approval-reminder mail data.
type StepNotificationPayload struct {
	OrderNumber   string `json:"order_number"`
	StepLabel     string `json:"step_label"`
	ApproverEmail string `json:"approver_email"`
}

// NewStepNotificationTask constructs an Asynq task for an approver mail.
func NewStepNotificationTask(payload StepNotificationPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeStepNotification, data, asynq.Queue(QueueDefault)), nil
}

// ScanPayload carries scheduling metadata for cron-driven scans.
type ScanPayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

// NewStaleOrderScanTask constructs the nightly stale-order scan task.
func NewStaleOrderScanTask(at time.Time) (*asynq.Task, error) {
	data, err := json.Marshal(ScanPayload{ScheduledFor: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeStaleOrderScan, data, asynq.Queue(QueueDefault)), nil
}

// NewLowStockScanTask constructs the nightly low-stock scan task.
func NewLowStockScanTask(at time.Time) (*asynq.Task, error) {
	data, err := json.Marshal(ScanPayload{ScheduledFor: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeLowStockScan, data, asynq.Queue(QueueDefault)), nil
}
