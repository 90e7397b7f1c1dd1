package profit

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/orderprofit/backend/internal/domain/profit"
	"github.com/orderprofit/backend/internal/domain/shared"
)

type memoryOverrides struct {
	mu      sync.Mutex
	items   map[string]profit.FeeOverride
	listErr error
}

func newMemoryOverrides() *memoryOverrides {
	return &memoryOverrides{items: map[string]profit.FeeOverride{}}
}

func (m *memoryOverrides) List(ctx context.Context) ([]profit.FeeOverride, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]profit.FeeOverride, 0, len(m.items))
	for _, o := range m.items {
		out = append(out, o)
	}
	return out, nil
}

func (m *memoryOverrides) Get(ctx context.Context, source string) (*profit.FeeOverride, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.items[source]
	if !ok {
		return nil, profit.ErrFeeOverrideNotFound
	}
	return &o, nil
}

func (m *memoryOverrides) Upsert(ctx context.Context, o *profit.FeeOverride) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[o.Source] = *o
	return nil
}

func (m *memoryOverrides) Delete(ctx context.Context, source string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[source]; !ok {
		return profit.ErrFeeOverrideNotFound
	}
	delete(m.items, source)
	return nil
}

func TestService_CalculateJoinsByOrderID(t *testing.T) {
	svc := NewService(testEngine(t), newMemoryOverrides(), zaptest.NewLogger(t))

	orders := []profit.Order{
		{OrderID: "o-1", Source: "Amazon", TotalChargeIncVat: dec("120")},
		{OrderID: "o-2", Source: "Amazon", TotalChargeIncVat: dec("60")},
		{OrderID: "o-3", Source: "Amazon", TotalChargeIncVat: dec("30")},
	}
	ok := enriched(map[string]string{"amazon": "0.15"}, "10", "2", "1")
	failed := profit.NewFailedResult("o-2", nil, errors.New("HTTP 500"))

	rows, err := svc.Calculate(context.Background(), orders, []profit.EnrichmentResult{ok, failed})
	require.NoError(t, err)
	require.Len(t, rows, 3)

	require.NotNil(t, rows[0].Profit)
	assert.True(t, rows[0].Profit.Profit.Equal(dec("69")))

	require.NotNil(t, rows[1].Enrichment)
	assert.Nil(t, rows[1].Profit)

	assert.Nil(t, rows[2].Enrichment)
	assert.Nil(t, rows[2].Profit)
}

func TestService_RecalculateAppliesStoredOverrides(t *testing.T) {
	ctx := context.Background()
	svc := NewService(testEngine(t), newMemoryOverrides(), zaptest.NewLogger(t))

	orders := []profit.Order{{OrderID: "o-1", Source: "Amazon", TotalChargeIncVat: dec("120")}}
	rows, err := svc.Calculate(ctx, orders, []profit.EnrichmentResult{enriched(map[string]string{"amazon": "0.15"}, "10", "2", "1")})
	require.NoError(t, err)

	_, err = svc.SetOverride(ctx, "AMAZON", dec("10"))
	require.NoError(t, err)

	again, err := svc.Recalculate(ctx, rows)
	require.NoError(t, err)
	assert.True(t, again[0].Profit.OverrideApplied)
	assert.True(t, again[0].Profit.Profit.Equal(dec("75")))
	// Input rows are untouched.
	assert.True(t, rows[0].Profit.Profit.Equal(dec("69")))

	require.NoError(t, svc.DeleteOverride(ctx, "Amazon"))
	again, err = svc.Recalculate(ctx, rows)
	require.NoError(t, err)
	assert.False(t, again[0].Profit.OverrideApplied)
}

func TestService_OverrideValidation(t *testing.T) {
	ctx := context.Background()
	svc := NewService(testEngine(t), newMemoryOverrides(), nil)

	_, err := svc.SetOverride(ctx, "ebay", dec("150"))
	assert.ErrorIs(t, err, profit.ErrInvalidFeeOverride)

	err = svc.DeleteOverride(ctx, "ebay")
	assert.ErrorIs(t, err, profit.ErrFeeOverrideNotFound)

	list, err := svc.ListOverrides(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestService_WithoutOverrideStore(t *testing.T) {
	ctx := context.Background()
	svc := NewService(testEngine(t), nil, nil)

	_, err := svc.SetOverride(ctx, "ebay", dec("5"))
	assert.ErrorIs(t, err, shared.ErrServiceUnavailable)
	assert.ErrorIs(t, svc.DeleteOverride(ctx, "ebay"), shared.ErrServiceUnavailable)

	list, err := svc.ListOverrides(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	rows, err := svc.Calculate(ctx, []profit.Order{{OrderID: "o-1", Source: "Amazon", TotalChargeIncVat: dec("120")}},
		[]profit.EnrichmentResult{enriched(map[string]string{"amazon": "0.15"}, "10", "2", "1")})
	require.NoError(t, err)
	assert.NotNil(t, rows[0].Profit)
}

func TestService_OverrideLoadFailure(t *testing.T) {
	repo := newMemoryOverrides()
	repo.listErr = errors.New("database is locked")
	svc := NewService(testEngine(t), repo, nil)

	_, err := svc.Recalculate(context.Background(), []profit.ProfitedOrder{})
	assert.ErrorContains(t, err, "database is locked")
}
