// Package strategy defines the pluggable calculation strategies used by the
// profit engine. Implementations live in infrastructure/strategy.
package strategy

// StrategyType groups strategies by what they calculate
type StrategyType string

// StrategyTypeProfit marks marketplace profit formulas
const StrategyTypeProfit StrategyType = "profit"

func (t StrategyType) String() string { return string(t) }

// Strategy is implemented by every registered strategy
type Strategy interface {
	Name() string
	Type() StrategyType
	Description() string
}

// BaseStrategy carries the descriptive fields shared by all strategies.
// Embed it and implement the calculation methods.
type BaseStrategy struct {
	name        string
	kind        StrategyType
	description string
}

// NewBaseStrategy creates a BaseStrategy
func NewBaseStrategy(name string, kind StrategyType, description string) BaseStrategy {
	return BaseStrategy{name: name, kind: kind, description: description}
}

func (s BaseStrategy) Name() string { return s.name }

func (s BaseStrategy) Type() StrategyType { return s.kind }

func (s BaseStrategy) Description() string { return s.description }
