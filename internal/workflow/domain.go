// Package workflow implements the order approval and fulfilment pipeline.
//
// An Order carries a fixed, ordered sequence of steps resolved from a
// per-order-type template at creation time. Steps advance strictly left to
// right; a rejection cancels the step and everything after it. The engine is
// pure and in-memory: persistence, documents and notifications are
// collaborators layered on top.
package workflow

import "time"

// StepStatus enumerates the lifecycle of a single pipeline step.
type StepStatus string

const (
	StepCompleted  StepStatus = "completed"
	StepPending    StepStatus = "pending"
	StepInProgress StepStatus = "in-progress"
	StepCancelled  StepStatus = "cancelled"
)

// IsValid checks if the status is a known value.
func (s StepStatus) IsValid() bool {
	switch s {
	case StepCompleted, StepPending, StepInProgress, StepCancelled:
		return true
	default:
		return false
	}
}

// Terminal reports whether the step can no longer transition.
func (s StepStatus) Terminal() bool {
	return s == StepCompleted || s == StepCancelled
}

// Acknowledgement records the distributor's goods-receipt response on the
// terminal step. Empty until the distributor responds.
type Acknowledgement string

const (
	AckNone Acknowledgement = ""
	AckYes  Acknowledgement = "yes"
	AckNo   Acknowledgement = "no"
)

// Approver identifies the person a step is waiting on. Informational only;
// the engine does not enforce ownership.
type Approver struct {
	Name    string `json:"name"`
	Role    string `json:"role"`
	Contact string `json:"contact"`
	Email   string `json:"email"`
}

// OrderStep is one stage of the approval pipeline.
type OrderStep struct {
	Label       string          `json:"label"`
	Status      StepStatus      `json:"status"`
	Date        *time.Time      `json:"date,omitempty"`
	Remarks     *string         `json:"remarks,omitempty"`
	Approver    *Approver       `json:"assigned_approver,omitempty"`
	HasArtifact bool            `json:"has_artifact"`
	RequiresAck bool            `json:"requires_ack"`
	Ack         Acknowledgement `json:"acknowledgement,omitempty"`
}

// Order aggregates the step sequence with order metadata. Step order is
// fixed at creation and never reordered.
type Order struct {
	ID              int64       `json:"id"`
	OrderNumber     string      `json:"order_number"`
	OrderType       OrderType   `json:"order_type"`
	DistributorName string      `json:"distributor_name"`
	OrderDate       time.Time   `json:"order_date"`
	TotalAmount     float64     `json:"total_amount"`
	Steps           []OrderStep `json:"steps"`
}

// FrontierIndex returns the position of the frontier step, the first step
// that is neither completed nor cancelled. Returns -1 when every step is
// terminal.
func (o *Order) FrontierIndex() int {
	for i := range o.Steps {
		if !o.Steps[i].Status.Terminal() {
			return i
		}
	}
	return -1
}

// StepIndex locates a step by label, -1 if absent.
func (o *Order) StepIndex(label string) int {
	for i := range o.Steps {
		if o.Steps[i].Label == label {
			return i
		}
	}
	return -1
}

// CompletedSteps counts steps in completed status.
func (o *Order) CompletedSteps() int {
	n := 0
	for i := range o.Steps {
		if o.Steps[i].Status == StepCompleted {
			n++
		}
	}
	return n
}
