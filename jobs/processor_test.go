package jobs

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nectar-erp/nectar-erp/internal/inventory"
	"github.com/nectar-erp/nectar-erp/internal/orders"
)

type sentMail struct {
	to      string
	subject string
	body    string
}

type mockMailer struct {
	sent []sentMail
	err  error
}

func (m *mockMailer) Send(_ context.Context, to, subject, body string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}

type mockStaleLister struct {
	stale  []orders.StaleOrder
	err    error
	cutoff time.Time
}

func (m *mockStaleLister) ListStale(_ context.Context, cutoff time.Time) ([]orders.StaleOrder, error) {
	m.cutoff = cutoff
	return m.stale, m.err
}

type mockLowStockLister struct {
	items []inventory.ItemView
	err   error
}

func (m *mockLowStockLister) LowStock(_ context.Context) ([]inventory.ItemView, error) {
	return m.items, m.err
}

func newTestProcessor(mailer *mockMailer, stale *mockStaleLister, lowStock *mockLowStockLister) *Processor {
	return NewProcessor(ProcessorConfig{
		Mailer:     mailer,
		Stale:      stale,
		LowStock:   lowStock,
		OpsAddress: "operations@nectar.local",
		StaleAfter: 72 * time.Hour,
		Logger:     slog.Default(),
	})
}

func scanTask(t *testing.T, taskType string) *asynq.Task {
	t.Helper()
	var (
		task *asynq.Task
		err  error
	)
	switch taskType {
	case TaskTypeStaleOrderScan:
		task, err = NewStaleOrderScanTask(time.Now())
	case TaskTypeLowStockScan:
		task, err = NewLowStockScanTask(time.Now())
	}
	require.NoError(t, err)
	return task
}

func TestHandleStepNotificationMailsApprover(t *testing.T) {
	mailer := &mockMailer{}
	p := newTestProcessor(mailer, &mockStaleLister{}, &mockLowStockLister{})

	task, err := NewStepNotificationTask(StepNotificationPayload{
		OrderNumber:   "ORD-2026-001",
		StepLabel:     "Pending Approval from Sales",
		ApproverEmail: "rahul.sharma@nectar.com",
	})
	require.NoError(t, err)

	require.NoError(t, p.HandleStepNotification(context.Background(), task))
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "rahul.sharma@nectar.com", mailer.sent[0].to)
	assert.Contains(t, mailer.sent[0].subject, "ORD-2026-001")
	assert.Contains(t, mailer.sent[0].body, "Pending Approval from Sales")
}

func TestHandleStepNotificationSkipsWithoutEmail(t *testing.T) {
	mailer := &mockMailer{}
	p := newTestProcessor(mailer, &mockStaleLister{}, &mockLowStockLister{})

	task, err := NewStepNotificationTask(StepNotificationPayload{
		OrderNumber: "ORD-2026-001",
		StepLabel:   "Order Placed",
	})
	require.NoError(t, err)

	require.NoError(t, p.HandleStepNotification(context.Background(), task))
	assert.Empty(t, mailer.sent)
}

func TestHandleStepNotificationBadPayloadSkipsRetry(t *testing.T) {
	p := newTestProcessor(&mockMailer{}, &mockStaleLister{}, &mockLowStockLister{})

	task := asynq.NewTask(TaskTypeStepNotification, []byte("{"))
	err := p.HandleStepNotification(context.Background(), task)
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestHandleStaleOrderScanMailsPerOrder(t *testing.T) {
	mailer := &mockMailer{}
	stale := &mockStaleLister{stale: []orders.StaleOrder{
		{OrderNumber: "ORD-2026-001", FrontierLabel: "Awaiting Payment Confirmation from Accounts",
			ApproverEmail: "accounts@nectar.com", UpdatedAt: time.Now().Add(-96 * time.Hour)},
		{OrderNumber: "ORD-2026-002", FrontierLabel: "Pending Approval from Sales",
			UpdatedAt: time.Now().Add(-80 * time.Hour)},
	}}
	p := newTestProcessor(mailer, stale, &mockLowStockLister{})

	require.NoError(t, p.HandleStaleOrderScan(context.Background(), scanTask(t, TaskTypeStaleOrderScan)))

	// The second stale order has no approver email and is skipped.
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "accounts@nectar.com", mailer.sent[0].to)
	assert.Contains(t, mailer.sent[0].body, "ORD-2026-001")
	assert.WithinDuration(t, time.Now().Add(-72*time.Hour), stale.cutoff, time.Minute)
}

func TestHandleStaleOrderScanSurfacesListError(t *testing.T) {
	stale := &mockStaleLister{err: errors.New("db down")}
	p := newTestProcessor(&mockMailer{}, stale, &mockLowStockLister{})

	err := p.HandleStaleOrderScan(context.Background(), scanTask(t, TaskTypeStaleOrderScan))
	assert.ErrorContains(t, err, "db down")
}

func TestHandleLowStockScanSendsOneSummary(t *testing.T) {
	mailer := &mockMailer{}
	lowStock := &mockLowStockLister{items: []inventory.ItemView{
		{Item: inventory.Item{SKU: "RM-MANGO-01", Name: "Mango Pulp", Quantity: 150, Unit: "kg", MinThreshold: 200}},
		{Item: inventory.Item{SKU: "FP-SQUASH-MNG", Name: "Mango Squash 750ml", Quantity: 60, Unit: "carton", MinThreshold: 100}},
	}}
	p := newTestProcessor(mailer, &mockStaleLister{}, lowStock)

	require.NoError(t, p.HandleLowStockScan(context.Background(), scanTask(t, TaskTypeLowStockScan)))

	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "operations@nectar.local", mailer.sent[0].to)
	assert.Contains(t, mailer.sent[0].subject, "2 item(s)")
	assert.Contains(t, mailer.sent[0].body, "RM-MANGO-01")
	assert.Contains(t, mailer.sent[0].body, "FP-SQUASH-MNG")
}

func TestHandleLowStockScanNoItemsNoMail(t *testing.T) {
	mailer := &mockMailer{}
	p := newTestProcessor(mailer, &mockStaleLister{}, &mockLowStockLister{})

	require.NoError(t, p.HandleLowStockScan(context.Background(), scanTask(t, TaskTypeLowStockScan)))
	assert.Empty(t, mailer.sent)
}
