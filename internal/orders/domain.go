// Package orders persists distributor purchase orders and drives their
// approval pipeline through the workflow engine.
package orders

import (
	"time"

	"github.com/nectar-erp/nectar-erp/internal/workflow"
)

// OrderRecord is the database projection of an order. Version implements
// optimistic concurrency: every steps rewrite bumps it, and a stale writer
// gets a conflict instead of silently clobbering a concurrent approval.
type OrderRecord struct {
	ID              int64              `json:"id" db:"id"`
	OrderNumber     string             `json:"order_number" db:"order_number"`
	OrderType       workflow.OrderType `json:"order_type" db:"order_type"`
	DistributorName string             `json:"distributor_name" db:"distributor_name"`
	OrderDate       time.Time          `json:"order_date" db:"order_date"`
	TotalAmount     float64            `json:"total_amount" db:"total_amount"`
	Version         int64              `json:"version" db:"version"`
	CreatedAt       time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at" db:"updated_at"`
}

// OrderView is what list and detail endpoints return: the aggregate plus
// its derived status and progress.
type OrderView struct {
	OrderRecord
	Steps           []workflow.OrderStep `json:"steps"`
	Status          string               `json:"status"`
	ProgressPercent int                  `json:"progress_percent"`
}

// StatusFilter narrows order listings by derived status.
type StatusFilter string

const (
	FilterAll       StatusFilter = "all"
	FilterPending   StatusFilter = "pending"
	FilterCompleted StatusFilter = "completed"
	FilterCancelled StatusFilter = "cancelled"
)

// IsValid checks if the filter is a known value.
func (f StatusFilter) IsValid() bool {
	switch f {
	case FilterAll, FilterPending, FilterCompleted, FilterCancelled:
		return true
	default:
		return false
	}
}

// CreateOrderRequest creates an order from the step template for its type.
type CreateOrderRequest struct {
	OrderType       workflow.OrderType            `json:"order_type" validate:"required"`
	DistributorName string                        `json:"distributor_name" validate:"required,max=200"`
	OrderDate       time.Time                     `json:"order_date" validate:"required"`
	TotalAmount     float64                       `json:"total_amount" validate:"required,gt=0"`
	Approvers       map[string]workflow.Approver  `json:"approvers,omitempty" validate:"omitempty,dive"`
}

// AdvanceStepRequest applies an approve/reject decision to the frontier step.
type AdvanceStepRequest struct {
	StepLabel   string           `json:"step_label" validate:"required"`
	Outcome     workflow.Outcome `json:"outcome" validate:"required,oneof=approve reject"`
	Remarks     string           `json:"remarks,omitempty" validate:"max=500"`
	PromoteNext bool             `json:"promote_next,omitempty"`
}

// GoodsReceiptRequest records the distributor's terminal acknowledgement.
type GoodsReceiptRequest struct {
	Response workflow.Acknowledgement `json:"response" validate:"required,oneof=yes no"`
}

// ListOrdersRequest filters and paginates order listings.
type ListOrdersRequest struct {
	Search  string       `json:"search,omitempty" validate:"omitempty,max=200"`
	Status  StatusFilter `json:"status,omitempty"`
	Page    int          `json:"page" validate:"gte=0"`
	PerPage int          `json:"per_page" validate:"gte=0,lte=200"`
}

// Stats summarises the order book for the dashboard cards.
type Stats struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Completed int `json:"completed"`
	Cancelled int `json:"cancelled"`
}
