package workflow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOrder(t *testing.T) *Order {
	t.Helper()
	order, err := NewOrder(OrderTypeDistributor, "ORD-2026-001", "Sunrise Traders",
		time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC), 45000)
	require.NoError(t, err)
	return order
}

// approveThrough approves frontier steps until count steps are completed
// beyond what was already done at creation.
func approveThrough(t *testing.T, o *Order, count int) {
	t.Helper()
	for i := 0; i < count; i++ {
		idx := o.FrontierIndex()
		require.GreaterOrEqual(t, idx, 0)
		require.NoError(t, o.AdvanceStep(o.Steps[idx].Label, Transition{Outcome: OutcomeApprove}))
	}
}

func TestNewOrderInitialState(t *testing.T) {
	order := newTestOrder(t)

	require.Len(t, order.Steps, 11)
	assert.Equal(t, StepCompleted, order.Steps[0].Status)
	require.NotNil(t, order.Steps[0].Date)
	for _, step := range order.Steps[1:] {
		assert.Equal(t, StepPending, step.Status)
	}
	assert.Equal(t, 1, order.FrontierIndex())
	assert.Equal(t, OrderPending, order.Status())
	assert.Equal(t, 9, order.ProgressPercent())
}

func TestNewOrderUnknownType(t *testing.T) {
	_, err := NewOrder(OrderType("retail"), "ORD-2026-002", "X", time.Now(), 100)
	assert.ErrorIs(t, err, ErrUnknownOrderType)
}

func TestAdvanceStepApprove(t *testing.T) {
	order := newTestOrder(t)
	at := time.Date(2026, 2, 16, 10, 0, 0, 0, time.UTC)

	err := order.AdvanceStep(LabelPendingSales, Transition{
		Outcome: OutcomeApprove,
		Remarks: "Sent to sales team for review",
		Date:    at,
	})
	require.NoError(t, err)

	step := order.Steps[1]
	assert.Equal(t, StepCompleted, step.Status)
	require.NotNil(t, step.Date)
	assert.True(t, step.Date.Equal(at))
	require.NotNil(t, step.Remarks)
	assert.Equal(t, "Sent to sales team for review", *step.Remarks)
	// Next step stays pending unless promotion is requested.
	assert.Equal(t, StepPending, order.Steps[2].Status)
}

func TestAdvanceStepDefaultsDateToNow(t *testing.T) {
	order := newTestOrder(t)
	before := time.Now()

	require.NoError(t, order.AdvanceStep(LabelPendingSales, Transition{Outcome: OutcomeApprove}))

	require.NotNil(t, order.Steps[1].Date)
	assert.False(t, order.Steps[1].Date.Before(before))
}

func TestAdvanceStepPromoteNext(t *testing.T) {
	order := newTestOrder(t)
	approveThrough(t, order, 2)

	err := order.AdvanceStep(LabelApprovedSales, Transition{Outcome: OutcomeApprove, PromoteNext: true})
	// Approved from Sales was already completed by approveThrough.
	require.ErrorIs(t, err, ErrInvalidTransition)

	err = order.AdvanceStep(LabelProformaInvoice, Transition{Outcome: OutcomeApprove, PromoteNext: true})
	require.NoError(t, err)
	assert.Equal(t, StepInProgress, order.Steps[4].Status)
	assert.Equal(t, OrderStatus(LabelAwaitingPayment), order.Status())
}

func TestAdvanceStepPromoteNextSkipsAckStep(t *testing.T) {
	order := newTestOrder(t)
	approveThrough(t, order, 8)

	err := order.AdvanceStep(LabelOnTheWay, Transition{Outcome: OutcomeApprove, PromoteNext: true})
	require.NoError(t, err)

	// The terminal acknowledgement step must stay pending so the goods
	// receipt can still be recorded.
	last := order.Steps[len(order.Steps)-1]
	assert.Equal(t, StepPending, last.Status)

	require.NoError(t, order.RecordGoodsReceipt(AckYes, time.Time{}))
	assert.Equal(t, OrderCompleted, order.Status())
}

func TestAdvanceStepInProgressFrontier(t *testing.T) {
	order := newTestOrder(t)
	approveThrough(t, order, 2)
	require.NoError(t, order.AdvanceStep(LabelProformaInvoice, Transition{Outcome: OutcomeApprove, PromoteNext: true}))

	// The in-progress step is the frontier and can itself be approved.
	require.NoError(t, order.AdvanceStep(LabelAwaitingPayment, Transition{Outcome: OutcomeApprove}))
	assert.Equal(t, StepCompleted, order.Steps[4].Status)
}

func TestAdvanceStepNonFrontier(t *testing.T) {
	order := newTestOrder(t)

	err := order.AdvanceStep(LabelApprovedSales, Transition{Outcome: OutcomeApprove})
	assert.ErrorIs(t, err, ErrInvalidTransition)

	err = order.AdvanceStep(LabelOrderPlaced, Transition{Outcome: OutcomeApprove})
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestAdvanceStepUnknownLabel(t *testing.T) {
	order := newTestOrder(t)
	err := order.AdvanceStep("Quality Check", Transition{Outcome: OutcomeApprove})
	assert.ErrorIs(t, err, ErrUnknownStep)
}

func TestAdvanceStepInvalidOutcome(t *testing.T) {
	order := newTestOrder(t)
	err := order.AdvanceStep(LabelPendingSales, Transition{Outcome: Outcome("defer")})
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestAdvanceStepNoDoubleApply(t *testing.T) {
	order := newTestOrder(t)
	tr := Transition{Outcome: OutcomeApprove, Remarks: "ok"}

	require.NoError(t, order.AdvanceStep(LabelPendingSales, tr))
	err := order.AdvanceStep(LabelPendingSales, tr)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, 2, order.CompletedSteps())
}

func TestRejectCascades(t *testing.T) {
	order := newTestOrder(t)
	approveThrough(t, order, 1)

	err := order.AdvanceStep(LabelApprovedSales, Transition{
		Outcome: OutcomeReject,
		Remarks: "Rejected: Insufficient stock",
	})
	require.NoError(t, err)

	// Steps before the rejection keep their status.
	assert.Equal(t, StepCompleted, order.Steps[0].Status)
	assert.Equal(t, StepCompleted, order.Steps[1].Status)
	// The rejected step and everything after it are cancelled.
	for i := 2; i < len(order.Steps); i++ {
		assert.Equal(t, StepCancelled, order.Steps[i].Status, "step %d", i)
	}
	assert.Equal(t, OrderCancelled, order.Status())
	assert.Equal(t, -1, order.FrontierIndex())

	// No transitions remain after a cascade.
	err = order.AdvanceStep(LabelGDNGenerated, Transition{Outcome: OutcomeApprove})
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestStatusPrecedence(t *testing.T) {
	order := newTestOrder(t)
	approveThrough(t, order, 2)
	require.NoError(t, order.AdvanceStep(LabelProformaInvoice, Transition{Outcome: OutcomeReject}))

	// Partially completed then rejected reports Cancelled, never a blend.
	assert.Equal(t, OrderCancelled, order.Status())
}

func TestStatusCompleted(t *testing.T) {
	order := newTestOrder(t)
	approveThrough(t, order, 9)
	require.NoError(t, order.RecordGoodsReceipt(AckYes, time.Time{}))

	assert.Equal(t, OrderCompleted, order.Status())
	assert.Equal(t, 100, order.ProgressPercent())
}

func TestProgressScenarios(t *testing.T) {
	// 10-step order built directly so the arithmetic matches the round
	// numbers used in the pipeline reviews.
	steps := make([]OrderStep, 10)
	for i := range steps {
		steps[i] = OrderStep{Label: string(rune('A' + i)), Status: StepPending}
	}
	order := &Order{OrderNumber: "ORD-2026-900", Steps: steps}

	// Approve steps 0-2.
	for i := 0; i < 3; i++ {
		require.NoError(t, order.AdvanceStep(order.Steps[i].Label, Transition{Outcome: OutcomeApprove}))
	}
	assert.Equal(t, 30, order.ProgressPercent())
	assert.Equal(t, OrderPending, order.Status())

	// Approve 3-4 then reject step 5.
	for i := 3; i < 5; i++ {
		require.NoError(t, order.AdvanceStep(order.Steps[i].Label, Transition{Outcome: OutcomeApprove}))
	}
	require.NoError(t, order.AdvanceStep(order.Steps[5].Label, Transition{Outcome: OutcomeReject}))

	for i := 5; i < 10; i++ {
		assert.Equal(t, StepCancelled, order.Steps[i].Status)
	}
	assert.Equal(t, 50, order.ProgressPercent())
	assert.Equal(t, OrderCancelled, order.Status())
}

func TestProgressMonotonicUnderApprovals(t *testing.T) {
	order := newTestOrder(t)
	prev := order.ProgressPercent()
	for order.FrontierIndex() >= 0 {
		idx := order.FrontierIndex()
		if order.Steps[idx].RequiresAck {
			require.NoError(t, order.RecordGoodsReceipt(AckYes, time.Time{}))
		} else {
			require.NoError(t, order.AdvanceStep(order.Steps[idx].Label, Transition{Outcome: OutcomeApprove}))
		}
		cur := order.ProgressPercent()
		assert.GreaterOrEqual(t, cur, prev)
		prev = cur
	}
	assert.Equal(t, 100, prev)
}

func TestProgressFrozenAfterReject(t *testing.T) {
	order := newTestOrder(t)
	approveThrough(t, order, 3)
	before := order.ProgressPercent()

	idx := order.FrontierIndex()
	require.NoError(t, order.AdvanceStep(order.Steps[idx].Label, Transition{Outcome: OutcomeReject}))
	assert.Equal(t, before, order.ProgressPercent())
}

func TestRecordGoodsReceiptYes(t *testing.T) {
	order := newTestOrder(t)
	approveThrough(t, order, 9)

	at := time.Date(2026, 2, 24, 0, 0, 0, 0, time.UTC)
	require.NoError(t, order.RecordGoodsReceipt(AckYes, at))

	last := order.Steps[len(order.Steps)-1]
	assert.Equal(t, StepCompleted, last.Status)
	assert.Equal(t, AckYes, last.Ack)
	require.NotNil(t, last.Remarks)
	assert.Equal(t, "Order received and confirmed by distributor", *last.Remarks)
	require.NotNil(t, last.Date)
	assert.True(t, last.Date.Equal(at))
}

func TestRecordGoodsReceiptNo(t *testing.T) {
	order := newTestOrder(t)
	approveThrough(t, order, 9)

	require.NoError(t, order.RecordGoodsReceipt(AckNo, time.Time{}))

	last := order.Steps[len(order.Steps)-1]
	assert.Equal(t, StepCancelled, last.Status)
	assert.Equal(t, AckNo, last.Ack)
	assert.Equal(t, OrderCancelled, order.Status())
	// Only the terminal leaf is cancelled, prior steps are untouched.
	for i := 0; i < len(order.Steps)-1; i++ {
		assert.Equal(t, StepCompleted, order.Steps[i].Status)
	}
}

func TestRecordGoodsReceiptRequiresPendingStep(t *testing.T) {
	order := newTestOrder(t)
	// Terminal step not yet reachable but still pending, so recording works
	// only on a pending step: force it terminal first via cascade.
	require.NoError(t, order.AdvanceStep(LabelPendingSales, Transition{Outcome: OutcomeReject}))

	err := order.RecordGoodsReceipt(AckYes, time.Time{})
	assert.ErrorIs(t, err, ErrInvalidAcknowledgement)
}

func TestRecordGoodsReceiptInvalidResponse(t *testing.T) {
	order := newTestOrder(t)
	err := order.RecordGoodsReceipt(Acknowledgement("maybe"), time.Time{})
	assert.ErrorIs(t, err, ErrInvalidAcknowledgement)
}

func TestRecordGoodsReceiptDoubleApply(t *testing.T) {
	order := newTestOrder(t)
	approveThrough(t, order, 9)

	require.NoError(t, order.RecordGoodsReceipt(AckYes, time.Time{}))
	err := order.RecordGoodsReceipt(AckYes, time.Time{})
	assert.ErrorIs(t, err, ErrInvalidAcknowledgement)
}

func TestStatusCancelledIffAnyCancelled(t *testing.T) {
	cases := []struct {
		name     string
		statuses []StepStatus
		want     OrderStatus
	}{
		{"all pending", []StepStatus{StepPending, StepPending}, OrderPending},
		{"all completed", []StepStatus{StepCompleted, StepCompleted}, OrderCompleted},
		{"one cancelled", []StepStatus{StepCompleted, StepCancelled}, OrderCancelled},
		{"cancelled beats in-progress", []StepStatus{StepInProgress, StepCancelled}, OrderCancelled},
		{"in-progress label", []StepStatus{StepCompleted, StepInProgress, StepPending}, OrderStatus("B")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			steps := make([]OrderStep, len(tc.statuses))
			for i, st := range tc.statuses {
				steps[i] = OrderStep{Label: string(rune('A' + i)), Status: st}
			}
			order := &Order{Steps: steps}
			assert.Equal(t, tc.want, order.Status())
		})
	}
}
