package orders

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nectar-erp/nectar-erp/internal/shared"
	"github.com/nectar-erp/nectar-erp/internal/workflow"
)

// ============================================================================
// MOCK REPOSITORY
// ============================================================================

type storedOrder struct {
	rec   OrderRecord
	steps []workflow.OrderStep
}

type mockRepository struct {
	orders map[int64]*storedOrder
	nextID int64
	seq    int

	saveStepsErr error
	saveCalls    int
}

func newMockRepository() *mockRepository {
	return &mockRepository{orders: map[int64]*storedOrder{}, nextID: 1}
}

func (m *mockRepository) GenerateOrderNumber(_ context.Context, date time.Time) (string, error) {
	m.seq++
	return fmt.Sprintf("ORD-%d-%03d", date.Year(), m.seq), nil
}

func (m *mockRepository) Create(_ context.Context, order *workflow.Order) (int64, error) {
	id := m.nextID
	m.nextID++
	steps := make([]workflow.OrderStep, len(order.Steps))
	copy(steps, order.Steps)
	m.orders[id] = &storedOrder{
		rec: OrderRecord{
			ID:              id,
			OrderNumber:     order.OrderNumber,
			OrderType:       order.OrderType,
			DistributorName: order.DistributorName,
			OrderDate:       order.OrderDate,
			TotalAmount:     order.TotalAmount,
			Version:         1,
		},
		steps: steps,
	}
	return id, nil
}

func (m *mockRepository) Get(_ context.Context, id int64) (*OrderRecord, error) {
	so, ok := m.orders[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	rec := so.rec
	return &rec, nil
}

func (m *mockRepository) GetByNumber(_ context.Context, orderNumber string) (*OrderRecord, error) {
	for _, so := range m.orders {
		if so.rec.OrderNumber == orderNumber {
			rec := so.rec
			return &rec, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *mockRepository) GetSteps(_ context.Context, orderID int64) ([]workflow.OrderStep, error) {
	so, ok := m.orders[orderID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	steps := make([]workflow.OrderStep, len(so.steps))
	copy(steps, so.steps)
	return steps, nil
}

func (m *mockRepository) SaveSteps(_ context.Context, orderID, expectedVersion int64, steps []workflow.OrderStep) error {
	m.saveCalls++
	if m.saveStepsErr != nil {
		return m.saveStepsErr
	}
	so, ok := m.orders[orderID]
	if !ok {
		return shared.ErrNotFound
	}
	if so.rec.Version != expectedVersion {
		return shared.ErrVersionConflict
	}
	so.rec.Version++
	so.steps = make([]workflow.OrderStep, len(steps))
	copy(so.steps, steps)
	return nil
}

func (m *mockRepository) List(_ context.Context, req ListOrdersRequest) ([]OrderRecord, int, error) {
	var records []OrderRecord
	for _, so := range m.orders {
		records = append(records, so.rec)
	}
	return records, len(records), nil
}

func (m *mockRepository) CountStats(_ context.Context) (Stats, error) {
	s := Stats{Total: len(m.orders)}
	for _, so := range m.orders {
		order := workflow.Order{Steps: so.steps}
		switch order.Status() {
		case workflow.OrderCancelled:
			s.Cancelled++
		case workflow.OrderCompleted:
			s.Completed++
		default:
			s.Pending++
		}
	}
	return s, nil
}

func (m *mockRepository) ListStale(_ context.Context, cutoff time.Time) ([]StaleOrder, error) {
	return nil, nil
}

type mockRecorder struct {
	logs []shared.TransitionLog
}

func (m *mockRecorder) Record(_ context.Context, log shared.TransitionLog) error {
	m.logs = append(m.logs, log)
	return nil
}

func (m *mockRecorder) List(_ context.Context, module, refNumber string) ([]shared.TransitionLog, error) {
	var out []shared.TransitionLog
	for _, l := range m.logs {
		if l.Module == module && l.RefNumber == refNumber {
			out = append(out, l)
		}
	}
	return out, nil
}

type mockNotifier struct {
	notified []string
}

func (m *mockNotifier) StepAdvanced(_ context.Context, orderNumber, stepLabel, approverEmail string) error {
	m.notified = append(m.notified, orderNumber+"/"+stepLabel)
	return nil
}

func newTestService() (*Service, *mockRepository, *mockRecorder, *mockNotifier) {
	repo := newMockRepository()
	recorder := &mockRecorder{}
	notifier := &mockNotifier{}
	svc := NewService(repo, recorder, notifier, nil, slog.Default())
	return svc, repo, recorder, notifier
}

func createRequest() CreateOrderRequest {
	return CreateOrderRequest{
		OrderType:       workflow.OrderTypeDistributor,
		DistributorName: "Sunrise Traders",
		OrderDate:       time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC),
		TotalAmount:     45000,
		Approvers: map[string]workflow.Approver{
			workflow.LabelPendingSales: {
				Name: "Rahul Sharma", Role: "Zonal Sales Manager",
				Contact: "+91 98765 43210", Email: "rahul.sharma@nectar.com",
			},
		},
	}
}

// ============================================================================
// TESTS
// ============================================================================

func TestCreateOrder(t *testing.T) {
	svc, _, _, _ := newTestService()

	view, err := svc.Create(context.Background(), createRequest())
	require.NoError(t, err)

	assert.Equal(t, "ORD-2026-001", view.OrderNumber)
	require.Len(t, view.Steps, 11)
	assert.Equal(t, workflow.StepCompleted, view.Steps[0].Status)
	assert.Equal(t, string(workflow.OrderPending), view.Status)
	assert.Equal(t, 9, view.ProgressPercent)

	require.NotNil(t, view.Steps[1].Approver)
	assert.Equal(t, "Rahul Sharma", view.Steps[1].Approver.Name)
}

func TestCreateOrderUnknownApproverStep(t *testing.T) {
	svc, _, _, _ := newTestService()

	req := createRequest()
	req.Approvers = map[string]workflow.Approver{"Quality Check": {Name: "X"}}

	_, err := svc.Create(context.Background(), req)
	assert.ErrorIs(t, err, workflow.ErrUnknownStep)
}

func TestAdvanceStepApproveRecordsAndNotifies(t *testing.T) {
	svc, _, recorder, notifier := newTestService()
	view, err := svc.Create(context.Background(), createRequest())
	require.NoError(t, err)

	advanced, err := svc.AdvanceStep(context.Background(), view.ID, AdvanceStepRequest{
		StepLabel: workflow.LabelPendingSales,
		Outcome:   workflow.OutcomeApprove,
		Remarks:   "Sent to sales team for review",
	})
	require.NoError(t, err)

	assert.Equal(t, workflow.StepCompleted, advanced.Steps[1].Status)
	assert.Equal(t, int64(2), advanced.Version)

	require.Len(t, recorder.logs, 1)
	assert.Equal(t, shared.TransitionApprove, recorder.logs[0].Action)
	assert.Equal(t, view.OrderNumber, recorder.logs[0].RefNumber)

	// The next frontier step's approver gets notified.
	require.Len(t, notifier.notified, 1)
	assert.Equal(t, view.OrderNumber+"/"+workflow.LabelApprovedSales, notifier.notified[0])
}

func TestAdvanceStepRejectCascadesAndSkipsNotification(t *testing.T) {
	svc, repo, recorder, notifier := newTestService()
	view, err := svc.Create(context.Background(), createRequest())
	require.NoError(t, err)

	rejected, err := svc.AdvanceStep(context.Background(), view.ID, AdvanceStepRequest{
		StepLabel: workflow.LabelPendingSales,
		Outcome:   workflow.OutcomeReject,
		Remarks:   "Rejected: Insufficient stock",
	})
	require.NoError(t, err)

	assert.Equal(t, string(workflow.OrderCancelled), rejected.Status)
	for _, step := range rejected.Steps[1:] {
		assert.Equal(t, workflow.StepCancelled, step.Status)
	}
	assert.Empty(t, notifier.notified)
	require.Len(t, recorder.logs, 1)
	assert.Equal(t, shared.TransitionReject, recorder.logs[0].Action)
	assert.Equal(t, 1, repo.saveCalls)
}

func TestAdvanceStepNonFrontierDoesNotPersist(t *testing.T) {
	svc, repo, _, _ := newTestService()
	view, err := svc.Create(context.Background(), createRequest())
	require.NoError(t, err)

	_, err = svc.AdvanceStep(context.Background(), view.ID, AdvanceStepRequest{
		StepLabel: workflow.LabelGDNGenerated,
		Outcome:   workflow.OutcomeApprove,
	})
	assert.ErrorIs(t, err, workflow.ErrInvalidTransition)
	assert.Equal(t, 0, repo.saveCalls)
}

func TestAdvanceStepVersionConflictSurfaces(t *testing.T) {
	svc, repo, _, _ := newTestService()
	view, err := svc.Create(context.Background(), createRequest())
	require.NoError(t, err)

	repo.saveStepsErr = shared.ErrVersionConflict
	_, err = svc.AdvanceStep(context.Background(), view.ID, AdvanceStepRequest{
		StepLabel: workflow.LabelPendingSales,
		Outcome:   workflow.OutcomeApprove,
	})
	assert.ErrorIs(t, err, shared.ErrVersionConflict)
}

func TestAdvanceByNumber(t *testing.T) {
	svc, _, _, _ := newTestService()
	view, err := svc.Create(context.Background(), createRequest())
	require.NoError(t, err)

	err = svc.AdvanceByNumber(context.Background(), view.OrderNumber,
		workflow.LabelPendingSales, "Sent to sales team")
	require.NoError(t, err)

	reloaded, err := svc.Get(context.Background(), view.ID)
	require.NoError(t, err)
	assert.Equal(t, workflow.StepCompleted, reloaded.Steps[1].Status)

	err = svc.AdvanceByNumber(context.Background(), "ORD-2026-999", workflow.LabelPendingSales, "")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestRecordGoodsReceipt(t *testing.T) {
	svc, _, recorder, _ := newTestService()
	view, err := svc.Create(context.Background(), createRequest())
	require.NoError(t, err)

	// Walk the order to the terminal step.
	for i := 1; i < len(view.Steps)-1; i++ {
		_, err = svc.AdvanceStep(context.Background(), view.ID, AdvanceStepRequest{
			StepLabel: view.Steps[i].Label,
			Outcome:   workflow.OutcomeApprove,
		})
		require.NoError(t, err)
	}

	received, err := svc.RecordGoodsReceipt(context.Background(), view.ID, GoodsReceiptRequest{Response: workflow.AckYes})
	require.NoError(t, err)

	assert.Equal(t, string(workflow.OrderCompleted), received.Status)
	assert.Equal(t, 100, received.ProgressPercent)
	last := recorder.logs[len(recorder.logs)-1]
	assert.Equal(t, shared.TransitionAcknowledge, last.Action)
	assert.Equal(t, "yes", last.Note)
}

func TestRecordGoodsReceiptTooEarly(t *testing.T) {
	svc, _, _, _ := newTestService()
	view, err := svc.Create(context.Background(), createRequest())
	require.NoError(t, err)

	// Goods receipt is gated on the terminal step's own state, not on it
	// being the frontier, so a pending ack step accepts the response.
	received, err := svc.RecordGoodsReceipt(context.Background(), view.ID, GoodsReceiptRequest{Response: workflow.AckNo})
	require.NoError(t, err)
	assert.Equal(t, string(workflow.OrderCancelled), received.Status)
}

func TestListAppliesDerivedStatus(t *testing.T) {
	svc, _, _, _ := newTestService()
	a, err := svc.Create(context.Background(), createRequest())
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), createRequest())
	require.NoError(t, err)

	_, err = svc.AdvanceStep(context.Background(), a.ID, AdvanceStepRequest{
		StepLabel: workflow.LabelPendingSales,
		Outcome:   workflow.OutcomeReject,
	})
	require.NoError(t, err)

	views, pagination, err := svc.List(context.Background(), ListOrdersRequest{Status: FilterAll})
	require.NoError(t, err)
	assert.Equal(t, 2, pagination.Total)

	statuses := map[string]string{}
	for _, v := range views {
		statuses[v.OrderNumber] = v.Status
	}
	assert.Equal(t, string(workflow.OrderCancelled), statuses[a.OrderNumber])
}

func TestListRejectsUnknownFilter(t *testing.T) {
	svc, _, _, _ := newTestService()
	_, _, err := svc.List(context.Background(), ListOrdersRequest{Status: StatusFilter("delayed")})
	assert.Error(t, err)
}

func TestStatsFallsBackToRepository(t *testing.T) {
	svc, _, _, _ := newTestService()
	_, err := svc.Create(context.Background(), createRequest())
	require.NoError(t, err)

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Stats{Total: 1, Pending: 1}, stats)
}
