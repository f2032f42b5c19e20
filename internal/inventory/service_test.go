package inventory

import (
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nectar-erp/nectar-erp/internal/shared"
)

type mockRepository struct {
	items  map[int64]*Item
	nextID int64
}

func newMockRepository() *mockRepository {
	return &mockRepository{items: map[int64]*Item{}, nextID: 1}
}

func (m *mockRepository) Create(_ context.Context, item *Item) (int64, error) {
	for _, existing := range m.items {
		if existing.SKU == item.SKU {
			return 0, shared.ErrDuplicate
		}
	}
	id := m.nextID
	m.nextID++
	cp := *item
	cp.ID = id
	m.items[id] = &cp
	return id, nil
}

func (m *mockRepository) Get(_ context.Context, id int64) (*Item, error) {
	item, ok := m.items[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := *item
	return &cp, nil
}

func (m *mockRepository) AdjustQuantity(_ context.Context, id int64, delta float64) (*Item, error) {
	item, ok := m.items[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	if item.Quantity+delta < 0 {
		return nil, ErrInsufficientStock
	}
	item.Quantity += delta
	cp := *item
	return &cp, nil
}

func (m *mockRepository) List(_ context.Context, req ListItemsRequest) ([]Item, int, error) {
	var out []Item
	for _, item := range m.items {
		if req.Category != "" && item.Category != req.Category {
			continue
		}
		if req.Search != "" && !strings.Contains(strings.ToLower(item.Name), strings.ToLower(req.Search)) {
			continue
		}
		if req.LowOnly && !item.LowStock() {
			continue
		}
		out = append(out, *item)
	}
	return out, len(out), nil
}

func (m *mockRepository) ListLowStock(_ context.Context) ([]Item, error) {
	var out []Item
	for _, item := range m.items {
		if item.LowStock() {
			out = append(out, *item)
		}
	}
	return out, nil
}

func newTestService() *Service {
	return NewService(newMockRepository(), nil, slog.Default())
}

func createRequest() CreateItemRequest {
	return CreateItemRequest{
		SKU:          "rm-mango-pulp",
		Name:         "Mango Pulp",
		Category:     CategoryRawMaterial,
		Unit:         UnitKg,
		Quantity:     500,
		MinThreshold: 100,
	}
}

func TestCreateItem(t *testing.T) {
	svc := newTestService()

	item, err := svc.Create(context.Background(), createRequest())
	require.NoError(t, err)

	assert.Equal(t, "RM-MANGO-PULP", item.SKU)
	assert.False(t, item.LowStock)
}

func TestAdjustCrossingThreshold(t *testing.T) {
	svc := newTestService()
	item, err := svc.Create(context.Background(), createRequest())
	require.NoError(t, err)

	adjusted, err := svc.Adjust(context.Background(), item.ID, AdjustQuantityRequest{
		Delta: -420, Reason: "Issued to production batch 88",
	})
	require.NoError(t, err)

	assert.Equal(t, 80.0, adjusted.Quantity)
	assert.True(t, adjusted.LowStock)
}

func TestAdjustRejectsOverdraw(t *testing.T) {
	svc := newTestService()
	item, err := svc.Create(context.Background(), createRequest())
	require.NoError(t, err)

	_, err = svc.Adjust(context.Background(), item.ID, AdjustQuantityRequest{
		Delta: -501, Reason: "Oversized issue",
	})
	assert.ErrorIs(t, err, ErrInsufficientStock)
}

func TestLowStockListing(t *testing.T) {
	svc := newTestService()
	_, err := svc.Create(context.Background(), createRequest())
	require.NoError(t, err)

	low := createRequest()
	low.SKU = "FP-JUICE-1L"
	low.Name = "Mango Juice 1L"
	low.Category = CategoryFinishedProduct
	low.Unit = UnitCarton
	low.Quantity = 20
	low.MinThreshold = 50
	_, err = svc.Create(context.Background(), low)
	require.NoError(t, err)

	items, err := svc.LowStock(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "FP-JUICE-1L", items[0].SKU)
}

func TestListRejectsUnknownCategory(t *testing.T) {
	svc := newTestService()
	_, _, err := svc.List(context.Background(), ListItemsRequest{Category: Category("packaging")})
	assert.Error(t, err)
}
