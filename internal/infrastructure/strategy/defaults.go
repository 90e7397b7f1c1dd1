package strategy

import (
	"github.com/orderprofit/backend/internal/domain/profit"
	"github.com/orderprofit/backend/internal/domain/shared/strategy"
	"github.com/orderprofit/backend/internal/infrastructure/strategy/formula"
)

// NewRegistryWithDefaults creates a registry holding one formula per
// marketplace class, with the default class as fallback.
func NewRegistryWithDefaults() (*StrategyRegistry, error) {
	r := NewStrategyRegistry()

	formulas := []strategy.ProfitFormulaStrategy{
		formula.NewDefaultFormula(),
		formula.NewConsolidatorFormula(),
		formula.NewStockSyncFormula(),
		formula.NewLargeFurnitureFormula(),
		formula.NewDealAggregatorFormula(),
	}
	for _, f := range formulas {
		if err := r.RegisterProfitFormula(f); err != nil {
			return nil, err
		}
	}

	if err := r.SetFallback(profit.ClassDefault); err != nil {
		return nil, err
	}

	return r, nil
}
