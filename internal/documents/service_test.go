package documents

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nectar-erp/nectar-erp/internal/orders"
	"github.com/nectar-erp/nectar-erp/internal/shared"
	"github.com/nectar-erp/nectar-erp/internal/workflow"
)

type mockRepository struct {
	byStep map[string]*Document
	seq    int
}

func newMockRepository() *mockRepository {
	return &mockRepository{byStep: map[string]*Document{}}
}

func stepKey(orderNumber, stepLabel string) string {
	return orderNumber + "|" + stepLabel
}

func (m *mockRepository) GenerateDocNumber(_ context.Context, docType DocumentType, date time.Time) (string, error) {
	m.seq++
	return fmt.Sprintf("%s-%d-%03d", docType.Prefix(), date.Year(), m.seq), nil
}

func (m *mockRepository) Create(_ context.Context, doc *Document) error {
	key := stepKey(doc.OrderNumber, doc.StepLabel)
	if _, ok := m.byStep[key]; ok {
		return shared.ErrDuplicate
	}
	m.byStep[key] = doc
	return nil
}

func (m *mockRepository) GetByNumber(_ context.Context, docNumber string) (*Document, error) {
	for _, doc := range m.byStep {
		if doc.DocNumber == docNumber {
			return doc, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *mockRepository) GetByStep(_ context.Context, orderNumber, stepLabel string) (*Document, error) {
	doc, ok := m.byStep[stepKey(orderNumber, stepLabel)]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return doc, nil
}

func (m *mockRepository) ListByOrder(_ context.Context, orderNumber string) ([]Document, error) {
	var out []Document
	for _, doc := range m.byStep {
		if doc.OrderNumber == orderNumber {
			out = append(out, *doc)
		}
	}
	return out, nil
}

type mockOrderSource struct {
	view *orders.OrderView
}

func (m *mockOrderSource) GetByNumber(_ context.Context, orderNumber string) (*orders.OrderView, error) {
	if m.view == nil || m.view.OrderNumber != orderNumber {
		return nil, shared.ErrNotFound
	}
	return m.view, nil
}

func testOrderView(t *testing.T, completeThrough string) *orders.OrderView {
	t.Helper()
	order, err := workflow.NewOrder(workflow.OrderTypeDistributor, "ORD-2026-001",
		"Sunrise Traders", time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC), 45000)
	require.NoError(t, err)

	if completeThrough != "" {
		target := order.StepIndex(completeThrough)
		require.GreaterOrEqual(t, target, 0)
		for i := 1; i <= target; i++ {
			require.NoError(t, order.AdvanceStep(order.Steps[i].Label,
				workflow.Transition{Outcome: workflow.OutcomeApprove}))
		}
	}
	return &orders.OrderView{
		OrderRecord: orders.OrderRecord{
			OrderNumber:     order.OrderNumber,
			OrderType:       order.OrderType,
			DistributorName: order.DistributorName,
			OrderDate:       order.OrderDate,
			TotalAmount:     order.TotalAmount,
		},
		Steps: order.Steps,
	}
}

func newTestService(t *testing.T, view *orders.OrderView) (*Service, *mockRepository) {
	t.Helper()
	renderer, err := NewRenderer()
	require.NoError(t, err)
	repo := newMockRepository()
	svc := NewService(repo, &mockOrderSource{view: view}, renderer, slog.Default())
	svc.now = func() time.Time { return time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC) }
	return svc, repo
}

func TestGenerateProformaInvoice(t *testing.T) {
	svc, _ := newTestService(t, testOrderView(t, workflow.LabelProformaInvoice))

	actorCtx := shared.ContextWithActor(context.Background(),
		shared.Actor{Name: "Priya Nair", Role: "Sales Executive"})

	doc, err := svc.Generate(actorCtx, GenerateRequest{
		OrderNumber: "ORD-2026-001",
		StepLabel:   workflow.LabelProformaInvoice,
	})
	require.NoError(t, err)

	assert.Equal(t, "PI-2026-001", doc.DocNumber)
	assert.Equal(t, TypeProformaInvoice, doc.DocType)
	assert.Equal(t, "Priya Nair", doc.GeneratedBy)
	assert.Contains(t, doc.Payload, "PROFORMA INVOICE")
	assert.Contains(t, doc.Payload, "ORD-2026-001")
	assert.Contains(t, doc.Payload, "Sunrise Traders")
	assert.Contains(t, doc.Payload, "INR 45,000.00")
	assert.Contains(t, doc.Payload, "15 Feb 2026")
}

func TestGenerateGDN(t *testing.T) {
	svc, _ := newTestService(t, testOrderView(t, workflow.LabelGDNGenerated))

	doc, err := svc.Generate(context.Background(), GenerateRequest{
		OrderNumber: "ORD-2026-001",
		StepLabel:   workflow.LabelGDNGenerated,
	})
	require.NoError(t, err)

	assert.Equal(t, "GDN-2026-001", doc.DocNumber)
	assert.Contains(t, doc.Payload, "GOODS DISPATCH NOTE")
}

func TestGenerateIsIdempotentPerStep(t *testing.T) {
	svc, repo := newTestService(t, testOrderView(t, workflow.LabelProformaInvoice))
	req := GenerateRequest{OrderNumber: "ORD-2026-001", StepLabel: workflow.LabelProformaInvoice}

	first, err := svc.Generate(context.Background(), req)
	require.NoError(t, err)
	second, err := svc.Generate(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first.DocNumber, second.DocNumber)
	assert.Len(t, repo.byStep, 1)
}

func TestGenerateRejectsNonArtifactStep(t *testing.T) {
	svc, _ := newTestService(t, testOrderView(t, workflow.LabelApprovedSales))

	_, err := svc.Generate(context.Background(), GenerateRequest{
		OrderNumber: "ORD-2026-001",
		StepLabel:   workflow.LabelApprovedSales,
	})
	assert.ErrorIs(t, err, ErrNoArtifact)
}

func TestGenerateRequiresCompletedStep(t *testing.T) {
	svc, _ := newTestService(t, testOrderView(t, workflow.LabelApprovedSales))

	_, err := svc.Generate(context.Background(), GenerateRequest{
		OrderNumber: "ORD-2026-001",
		StepLabel:   workflow.LabelProformaInvoice,
	})
	assert.ErrorIs(t, err, ErrStepNotCompleted)
}

func TestGenerateUnknownOrder(t *testing.T) {
	svc, _ := newTestService(t, nil)

	_, err := svc.Generate(context.Background(), GenerateRequest{
		OrderNumber: "ORD-2026-404",
		StepLabel:   workflow.LabelProformaInvoice,
	})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
