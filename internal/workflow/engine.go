package workflow

import (
	"fmt"
	"math"
	"time"
)

// Outcome is the decision applied to the frontier step.
type Outcome string

const (
	OutcomeApprove Outcome = "approve"
	OutcomeReject  Outcome = "reject"
)

// IsValid checks if the outcome is a known value.
func (o Outcome) IsValid() bool {
	return o == OutcomeApprove || o == OutcomeReject
}

// Transition carries the inputs for advancing a step.
type Transition struct {
	Outcome Outcome
	Remarks string
	// Date defaults to time.Now when zero.
	Date time.Time
	// PromoteNext moves the following step from pending to in-progress,
	// used for long-running stages awaiting document issuance.
	PromoteNext bool
}

// AdvanceStep applies an approve or reject decision to the step identified
// by label. The label must name the frontier step: the first step whose
// status is pending or in-progress. Approval completes the step; rejection
// cancels it and cascades cancellation through every later step.
func (o *Order) AdvanceStep(label string, tr Transition) error {
	if !tr.Outcome.IsValid() {
		return fmt.Errorf("%w: outcome %q", ErrInvalidTransition, tr.Outcome)
	}
	idx := o.StepIndex(label)
	if idx < 0 {
		return fmt.Errorf("%w: %q", ErrUnknownStep, label)
	}
	frontier := o.FrontierIndex()
	if frontier < 0 {
		return fmt.Errorf("%w: order %s has no open steps", ErrInvalidTransition, o.OrderNumber)
	}
	if idx != frontier {
		return fmt.Errorf("%w: step %q is not the frontier step (%q)",
			ErrInvalidTransition, label, o.Steps[frontier].Label)
	}

	at := tr.Date
	if at.IsZero() {
		at = time.Now()
	}
	step := &o.Steps[idx]
	step.Date = &at
	if tr.Remarks != "" {
		remarks := tr.Remarks
		step.Remarks = &remarks
	}

	if tr.Outcome == OutcomeReject {
		step.Status = StepCancelled
		for i := idx + 1; i < len(o.Steps); i++ {
			o.Steps[i].Status = StepCancelled
		}
		return nil
	}

	step.Status = StepCompleted
	if tr.PromoteNext && idx+1 < len(o.Steps) {
		next := &o.Steps[idx+1]
		// The acknowledgement step stays pending: it is resolved through
		// RecordGoodsReceipt, which requires the pending state.
		if next.Status == StepPending && !next.RequiresAck {
			next.Status = StepInProgress
		}
	}
	return nil
}

// RecordGoodsReceipt records the distributor's response on the terminal
// acknowledgement step. A "yes" completes the step, a "no" cancels it.
// Unlike a mid-pipeline rejection there is nothing after it to cascade to.
func (o *Order) RecordGoodsReceipt(response Acknowledgement, date time.Time) error {
	if response != AckYes && response != AckNo {
		return fmt.Errorf("%w: response %q", ErrInvalidAcknowledgement, response)
	}
	idx := -1
	for i := range o.Steps {
		if o.Steps[i].RequiresAck {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("%w: order %s has no acknowledgement step", ErrInvalidAcknowledgement, o.OrderNumber)
	}
	step := &o.Steps[idx]
	if step.Status != StepPending {
		return fmt.Errorf("%w: step %q is %s", ErrInvalidAcknowledgement, step.Label, step.Status)
	}

	if date.IsZero() {
		date = time.Now()
	}
	step.Date = &date
	step.Ack = response
	var remarks string
	if response == AckYes {
		step.Status = StepCompleted
		remarks = "Order received and confirmed by distributor"
	} else {
		step.Status = StepCancelled
		remarks = "Distributor reported order not received"
	}
	step.Remarks = &remarks
	return nil
}

// OrderStatus is the derived status of a whole order.
type OrderStatus string

const (
	OrderCancelled OrderStatus = "Cancelled"
	OrderCompleted OrderStatus = "Completed"
	OrderPending   OrderStatus = "Pending"
)

// Status derives the order status from its steps. Precedence is fixed:
// any cancelled step wins, then all-completed, then the label of the
// in-progress step, then Pending.
func (o *Order) Status() OrderStatus {
	allCompleted := true
	var inProgress *OrderStep
	for i := range o.Steps {
		switch o.Steps[i].Status {
		case StepCancelled:
			return OrderCancelled
		case StepInProgress:
			if inProgress == nil {
				inProgress = &o.Steps[i]
			}
			allCompleted = false
		case StepPending:
			allCompleted = false
		}
	}
	if len(o.Steps) > 0 && allCompleted {
		return OrderCompleted
	}
	if inProgress != nil {
		return OrderStatus(inProgress.Label)
	}
	return OrderPending
}

// ProgressPercent reports completed steps as a rounded percentage of all
// steps. Cancelled steps contribute nothing; after a rejection the value
// freezes at whatever was completed before it.
func (o *Order) ProgressPercent() int {
	if len(o.Steps) == 0 {
		return 0
	}
	return int(math.Round(100 * float64(o.CompletedSteps()) / float64(len(o.Steps))))
}
