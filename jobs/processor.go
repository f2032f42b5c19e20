package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hibiken/asynq"

	"github.com/nectar-erp/nectar-erp/internal/inventory"
	jobmetrics "github.com/nectar-erp/nectar-erp/internal/jobs"
	"github.com/nectar-erp/nectar-erp/internal/orders"
)

// StaleLister returns orders whose frontier step has not moved since cutoff.
type StaleLister interface {
	ListStale(ctx context.Context, cutoff time.Time) ([]orders.StaleOrder, error)
}

// LowStockLister returns items at or below their reorder threshold.
type LowStockLister interface {
	LowStock(ctx context.Context) ([]inventory.ItemView, error)
}

// Processor holds the dependencies task handlers need.
type Processor struct {
	mailer     Mailer
	stale      StaleLister
	lowStock   LowStockLister
	opsAddress string
	staleAfter time.Duration
	metrics    *jobmetrics.Metrics
	logger     *slog.Logger
}

// ProcessorConfig collects Processor dependencies.
type ProcessorConfig struct {
	Mailer     Mailer
	Stale      StaleLister
	LowStock   LowStockLister
	OpsAddress string
	StaleAfter time.Duration
	Metrics    *jobmetrics.Metrics
	Logger     *slog.Logger
}

// NewProcessor constructs the task processor.
func NewProcessor(cfg ProcessorConfig) *Processor {
	return &Processor{
		mailer:     cfg.Mailer,
		stale:      cfg.Stale,
		lowStock:   cfg.LowStock,
		opsAddress: cfg.OpsAddress,
		staleAfter: cfg.StaleAfter,
		metrics:    cfg.Metrics,
		logger:     cfg.Logger,
	}
}

// Handlers returns the task registrations for the worker mux.
func (p *Processor) Handlers() []TaskHandler {
	return []TaskHandler{
		{Type: TaskTypeStepNotification, Handler: p.HandleStepNotification},
		{Type: TaskTypeStaleOrderScan, Handler: p.HandleStaleOrderScan},
		{Type: TaskTypeLowStockScan, Handler: p.HandleLowStockScan},
	}
}

// HandleStepNotification mails the approver of a newly opened step.
func (p *Processor) HandleStepNotification(ctx context.Context, t *asynq.Task) error {
	var payload StepNotificationPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.ApproverEmail == "" {
		p.logger.Info("step notification skipped, no approver email",
			slog.String("order", payload.OrderNumber),
			slog.String("step", payload.StepLabel))
		return nil
	}
	subject := fmt.Sprintf("Action required: %s (%s)", payload.OrderNumber, payload.StepLabel)
	body := fmt.Sprintf(
		"Order %s has reached the step %q and is waiting on your approval.\n",
		payload.OrderNumber, payload.StepLabel)
	if err := p.mailer.Send(ctx, payload.ApproverEmail, subject, body); err != nil {
		return err
	}
	p.metrics.AddNotifications("step_notification", 1)
	return nil
}

// HandleStaleOrderScan mails a reminder for every order stuck on its frontier
// step longer than the configured window.
func (p *Processor) HandleStaleOrderScan(ctx context.Context, t *asynq.Task) (err error) {
	var payload ScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	defer func(tr *jobmetrics.Tracker) { err = tr.End(err) }(p.metrics.Track("stale_order_scan"))
	cutoff := time.Now().Add(-p.staleAfter)
	stale, err := p.stale.ListStale(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("list stale orders: %w", err)
	}
	sent := 0
	for _, so := range stale {
		if so.ApproverEmail == "" {
			continue
		}
		subject := fmt.Sprintf("Reminder: %s pending since %s", so.OrderNumber, so.UpdatedAt.Format("02 Jan 2006"))
		body := fmt.Sprintf(
			"Order %s has been waiting at %q since %s. Please approve or reject it.\n",
			so.OrderNumber, so.FrontierLabel, so.UpdatedAt.Format(time.RFC1123))
		if err := p.mailer.Send(ctx, so.ApproverEmail, subject, body); err != nil {
			p.logger.Warn("stale reminder mail",
				slog.String("order", so.OrderNumber), slog.Any("error", err))
			continue
		}
		sent++
	}
	p.metrics.AddNotifications("stale_reminder", sent)
	p.logger.Info("stale order scan complete", slog.Int("flagged", len(stale)))
	return nil
}

// HandleLowStockScan mails one consolidated reorder summary to operations.
func (p *Processor) HandleLowStockScan(ctx context.Context, t *asynq.Task) (err error) {
	var payload ScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	defer func(tr *jobmetrics.Tracker) { err = tr.End(err) }(p.metrics.Track("low_stock_scan"))
	items, err := p.lowStock.LowStock(ctx)
	if err != nil {
		return fmt.Errorf("list low stock: %w", err)
	}
	if len(items) == 0 {
		p.logger.Info("low stock scan complete", slog.Int("flagged", 0))
		return nil
	}

	var b strings.Builder
	b.WriteString("The following items are at or below their reorder threshold:\n\n")
	for _, item := range items {
		fmt.Fprintf(&b, "  %-20s %-30s %.2f %s (threshold %.2f)\n",
			item.SKU, item.Name, item.Quantity, item.Unit, item.MinThreshold)
	}
	subject := fmt.Sprintf("Low stock alert: %d item(s) need reordering", len(items))
	if err := p.mailer.Send(ctx, p.opsAddress, subject, b.String()); err != nil {
		return err
	}
	p.metrics.AddNotifications("low_stock_summary", 1)
	p.logger.Info("low stock scan complete", slog.Int("flagged", len(items)))
	return nil
}
