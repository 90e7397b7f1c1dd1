package strategy

import (
	"fmt"
	"sort"
	"sync"

	"github.com/orderprofit/backend/internal/domain/profit"
	"github.com/orderprofit/backend/internal/domain/shared"
	"github.com/orderprofit/backend/internal/domain/shared/strategy"
)

// StrategyRegistry manages profit formula registrations keyed by marketplace class
type StrategyRegistry struct {
	mu              sync.RWMutex
	profitFormulas  map[profit.MarketplaceClass]strategy.ProfitFormulaStrategy
	fallbackFormula profit.MarketplaceClass
}

// NewStrategyRegistry creates a new strategy registry
func NewStrategyRegistry() *StrategyRegistry {
	return &StrategyRegistry{
		profitFormulas: make(map[profit.MarketplaceClass]strategy.ProfitFormulaStrategy),
	}
}

// RegisterProfitFormula registers a profit formula for its marketplace class
func (r *StrategyRegistry) RegisterProfitFormula(s strategy.ProfitFormulaStrategy) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	class := s.Class()
	if !class.IsValid() {
		return fmt.Errorf("%w: %q", profit.ErrUnknownMarketplaceClass, class)
	}
	if _, exists := r.profitFormulas[class]; exists {
		return fmt.Errorf("%w: profit formula for class '%s' already registered", shared.ErrAlreadyExists, class)
	}
	r.profitFormulas[class] = s
	return nil
}

// GetProfitFormula returns the formula for a class, or the fallback if class is empty
func (r *StrategyRegistry) GetProfitFormula(class profit.MarketplaceClass) (strategy.ProfitFormulaStrategy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if class == "" {
		class = r.fallbackFormula
		if class == "" {
			return nil, fmt.Errorf("%w: no fallback profit formula set", shared.ErrNotFound)
		}
	}

	s, exists := r.profitFormulas[class]
	if !exists {
		return nil, fmt.Errorf("%w: profit formula for class '%s' not found", shared.ErrNotFound, class)
	}
	return s, nil
}

// GetProfitFormulaOrDefault returns the formula for a class, or the fallback if not found
func (r *StrategyRegistry) GetProfitFormulaOrDefault(class profit.MarketplaceClass) strategy.ProfitFormulaStrategy {
	s, err := r.GetProfitFormula(class)
	if err != nil {
		s, _ = r.GetProfitFormula("")
	}
	return s
}

// ListProfitFormulas returns all registered classes
func (r *StrategyRegistry) ListProfitFormulas() []profit.MarketplaceClass {
	r.mu.RLock()
	defer r.mu.RUnlock()

	classes := make([]profit.MarketplaceClass, 0, len(r.profitFormulas))
	for class := range r.profitFormulas {
		classes = append(classes, class)
	}
	sort.Slice(classes, func(i, j int) bool { return classes[i] < classes[j] })
	return classes
}

// UnregisterProfitFormula removes a formula
func (r *StrategyRegistry) UnregisterProfitFormula(class profit.MarketplaceClass) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.profitFormulas[class]; !exists {
		return fmt.Errorf("%w: profit formula for class '%s' not found", shared.ErrNotFound, class)
	}
	delete(r.profitFormulas, class)

	if r.fallbackFormula == class {
		r.fallbackFormula = ""
	}
	return nil
}

// SetFallback sets the formula used for classes without a registration
func (r *StrategyRegistry) SetFallback(class profit.MarketplaceClass) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.profitFormulas[class]; !exists {
		return fmt.Errorf("%w: profit formula for class '%s' not found", shared.ErrNotFound, class)
	}
	r.fallbackFormula = class
	return nil
}

// Fallback returns the fallback class
func (r *StrategyRegistry) Fallback() profit.MarketplaceClass {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.fallbackFormula
}

// IsRegistered returns true if a formula is registered for the class
func (r *StrategyRegistry) IsRegistered(class profit.MarketplaceClass) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.profitFormulas[class]
	return exists
}

// Stats returns registration counts for each strategy type
func (r *StrategyRegistry) Stats() map[strategy.StrategyType]int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return map[strategy.StrategyType]int{
		strategy.StrategyTypeProfit: len(r.profitFormulas),
	}
}
