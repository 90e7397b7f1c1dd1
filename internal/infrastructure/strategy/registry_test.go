package strategy

import (
	"sync"
	"testing"

	"github.com/orderprofit/backend/internal/domain/profit"
	"github.com/orderprofit/backend/internal/domain/shared"
	"github.com/orderprofit/backend/internal/domain/shared/strategy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Mock profit formula for testing
type mockFormula struct {
	strategy.BaseStrategy
	class profit.MarketplaceClass
}

func newMockFormula(class profit.MarketplaceClass) *mockFormula {
	return &mockFormula{
		BaseStrategy: strategy.NewBaseStrategy(string(class), strategy.StrategyTypeProfit, "Mock formula"),
		class:        class,
	}
}

func (f *mockFormula) Class() profit.MarketplaceClass {
	return f.class
}

func (f *mockFormula) Compute(in strategy.ProfitInput) profit.ProfitResult {
	return profit.ProfitResult{Class: f.class}
}

func TestStrategyRegistry_RegisterAndGet(t *testing.T) {
	r := NewStrategyRegistry()

	require.NoError(t, r.RegisterProfitFormula(newMockFormula(profit.ClassDefault)))

	s, err := r.GetProfitFormula(profit.ClassDefault)
	require.NoError(t, err)
	assert.Equal(t, profit.ClassDefault, s.Class())

	_, err = r.GetProfitFormula(profit.ClassStockSync)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestStrategyRegistry_DuplicateRegistration(t *testing.T) {
	r := NewStrategyRegistry()
	require.NoError(t, r.RegisterProfitFormula(newMockFormula(profit.ClassDefault)))

	err := r.RegisterProfitFormula(newMockFormula(profit.ClassDefault))
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)
}

func TestStrategyRegistry_RejectsUnknownClass(t *testing.T) {
	r := NewStrategyRegistry()
	err := r.RegisterProfitFormula(newMockFormula("bogus"))
	assert.ErrorIs(t, err, profit.ErrUnknownMarketplaceClass)
}

func TestStrategyRegistry_Fallback(t *testing.T) {
	r := NewStrategyRegistry()
	require.NoError(t, r.RegisterProfitFormula(newMockFormula(profit.ClassDefault)))

	_, err := r.GetProfitFormula("")
	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.Nil(t, r.GetProfitFormulaOrDefault(profit.ClassDealAggregator))

	assert.ErrorIs(t, r.SetFallback(profit.ClassStockSync), shared.ErrNotFound)
	require.NoError(t, r.SetFallback(profit.ClassDefault))
	assert.Equal(t, profit.ClassDefault, r.Fallback())

	s := r.GetProfitFormulaOrDefault(profit.ClassDealAggregator)
	require.NotNil(t, s)
	assert.Equal(t, profit.ClassDefault, s.Class())

	require.NoError(t, r.UnregisterProfitFormula(profit.ClassDefault))
	assert.Equal(t, profit.MarketplaceClass(""), r.Fallback())
	assert.ErrorIs(t, r.UnregisterProfitFormula(profit.ClassDefault), shared.ErrNotFound)
}

func TestNewRegistryWithDefaults(t *testing.T) {
	r, err := NewRegistryWithDefaults()
	require.NoError(t, err)

	assert.Equal(t, profit.ClassDefault, r.Fallback())
	for _, class := range profit.AllMarketplaceClasses() {
		assert.True(t, r.IsRegistered(class), class)
	}
	assert.Len(t, r.ListProfitFormulas(), len(profit.AllMarketplaceClasses()))
	assert.Equal(t, len(profit.AllMarketplaceClasses()), r.Stats()[strategy.StrategyTypeProfit])
}

func TestStrategyRegistry_ConcurrentAccess(t *testing.T) {
	r, err := NewRegistryWithDefaults()
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, class := range profit.AllMarketplaceClasses() {
				s, err := r.GetProfitFormula(class)
				assert.NoError(t, err)
				assert.Equal(t, class, s.Class())
			}
			_ = r.ListProfitFormulas()
		}()
	}
	wg.Wait()
}
