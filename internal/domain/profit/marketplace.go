package profit

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// MarketplaceClass selects the accounting formula applied to an order
type MarketplaceClass string

const (
	// ClassDefault charges fee and VAT against the VAT-inclusive price
	ClassDefault MarketplaceClass = "default"
	// ClassConsolidator is a multi-retailer platform; the fee key is picked by sub-source
	ClassConsolidator MarketplaceClass = "consolidator"
	// ClassStockSync accounts a VAT-inclusive price ex-VAT; the fee key is picked by sub-source
	ClassStockSync MarketplaceClass = "stock_sync"
	// ClassLargeFurniture re-prices through the channel and deducts a secondary VAT term
	ClassLargeFurniture MarketplaceClass = "large_furniture"
	// ClassDealAggregator sells at an externally supplied deal price
	ClassDealAggregator MarketplaceClass = "deal_aggregator"
)

// String returns the string representation of the class
func (c MarketplaceClass) String() string {
	return string(c)
}

// IsValid returns true if the class is known
func (c MarketplaceClass) IsValid() bool {
	switch c {
	case ClassDefault, ClassConsolidator, ClassStockSync, ClassLargeFurniture, ClassDealAggregator:
		return true
	default:
		return false
	}
}

// UsesSubSource reports whether the class resolves its fee key by sub-source
func (c MarketplaceClass) UsesSubSource() bool {
	return c == ClassConsolidator || c == ClassStockSync
}

// AllMarketplaceClasses returns all valid classes
func AllMarketplaceClasses() []MarketplaceClass {
	return []MarketplaceClass{
		ClassDefault,
		ClassConsolidator,
		ClassStockSync,
		ClassLargeFurniture,
		ClassDealAggregator,
	}
}

// SubSourceRule maps a sub-source substring to a fee key
type SubSourceRule struct {
	Match  string `mapstructure:"match" json:"match"`
	FeeKey string `mapstructure:"fee_key" json:"fee_key"`
}

// Marketplace describes one sales channel
type Marketplace struct {
	Key               string           `mapstructure:"key" json:"key"`
	Name              string           `mapstructure:"name" json:"name"`
	Class             MarketplaceClass `mapstructure:"class" json:"class"`
	FeeKey            string           `mapstructure:"fee_key" json:"fee_key,omitempty"`
	FeeProperty       string           `mapstructure:"fee_property" json:"fee_property,omitempty"`
	Aliases           []string         `mapstructure:"aliases" json:"aliases,omitempty"`
	SubSources        []SubSourceRule  `mapstructure:"sub_sources" json:"sub_sources,omitempty"`
	FilterBySubSource bool             `mapstructure:"filter_by_sub_source" json:"filter_by_sub_source"`
}

// PropertyNames are the inventory extended-property names carrying cost data.
// Names are matched case-exact against upstream responses.
type PropertyNames struct {
	Cost         string `mapstructure:"cost" json:"cost"`
	CostFallback string `mapstructure:"cost_fallback" json:"cost_fallback,omitempty"`
	Freight      string `mapstructure:"freight" json:"freight"`
	Courier      string `mapstructure:"courier" json:"courier"`
	DealPrice    string `mapstructure:"deal_price" json:"deal_price"`
}

// Catalog resolves inconsistent upstream source spellings to marketplaces
// and upstream property names to fee keys. It is immutable once built.
type Catalog struct {
	properties    PropertyNames
	marketplaces  []Marketplace
	byAlias       map[string]int
	feeProperties map[string]string
	subSourceTerm map[string]struct{}
}

// NewCatalog validates the definitions and builds the lookup indexes
func NewCatalog(props PropertyNames, marketplaces []Marketplace) (*Catalog, error) {
	c := &Catalog{
		properties:    props,
		marketplaces:  make([]Marketplace, 0, len(marketplaces)),
		byAlias:       make(map[string]int),
		feeProperties: make(map[string]string),
		subSourceTerm: make(map[string]struct{}),
	}

	for _, m := range marketplaces {
		if m.Key == "" {
			return nil, fmt.Errorf("%w: marketplace key is required", ErrInvalidMarketplace)
		}
		if m.Class == "" {
			m.Class = ClassDefault
		}
		if !m.Class.IsValid() {
			return nil, fmt.Errorf("%w: %q on marketplace %q", ErrUnknownMarketplaceClass, m.Class, m.Key)
		}
		if m.FeeKey == "" && !m.Class.UsesSubSource() {
			m.FeeKey = m.Key
		}

		idx := len(c.marketplaces)
		c.marketplaces = append(c.marketplaces, m)

		names := append([]string{m.Key, m.Name}, m.Aliases...)
		for _, name := range names {
			n := NormalizeName(name)
			if n == "" {
				continue
			}
			if existing, ok := c.byAlias[n]; ok && existing != idx {
				return nil, fmt.Errorf("%w: %q", ErrDuplicateMarketplace, name)
			}
			c.byAlias[n] = idx
		}

		if m.FeeProperty != "" {
			if _, ok := c.feeProperties[m.FeeProperty]; ok {
				return nil, fmt.Errorf("%w: fee property %q", ErrDuplicateMarketplace, m.FeeProperty)
			}
			c.feeProperties[m.FeeProperty] = m.Key
		}

		for _, rule := range m.SubSources {
			if rule.Match == "" || rule.FeeKey == "" {
				return nil, fmt.Errorf("%w: sub-source rule on %q needs match and fee_key", ErrInvalidMarketplace, m.Key)
			}
			if m.FilterBySubSource {
				c.subSourceTerm[NormalizeName(rule.Match)] = struct{}{}
			}
		}
	}

	return c, nil
}

// Properties returns the cost property names
func (c *Catalog) Properties() PropertyNames {
	return c.properties
}

// Marketplaces returns a copy of the marketplace definitions sorted by key
func (c *Catalog) Marketplaces() []Marketplace {
	out := make([]Marketplace, len(c.marketplaces))
	copy(out, c.marketplaces)
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Resolve finds the marketplace for a source spelling
func (c *Catalog) Resolve(source string) (Marketplace, bool) {
	idx, ok := c.byAlias[NormalizeName(source)]
	if !ok {
		return Marketplace{}, false
	}
	return c.marketplaces[idx], true
}

// ResolveOrder finds the marketplace for an order, trying the source first
// and then the sub-source for orders whose source is a generic channel name.
func (c *Catalog) ResolveOrder(source, subSource string) (Marketplace, bool) {
	if m, ok := c.Resolve(source); ok {
		return m, true
	}
	if subSource != "" {
		return c.Resolve(subSource)
	}
	return Marketplace{}, false
}

// FeeKeyFor returns the fee key to read for a marketplace and sub-source.
// Sub-source classes match rule substrings against the normalized sub-source;
// an unmatched sub-source falls back to the marketplace's own fee key.
func (c *Catalog) FeeKeyFor(m Marketplace, subSource string) string {
	if len(m.SubSources) > 0 {
		sub := NormalizeName(subSource)
		for _, rule := range m.SubSources {
			if sub != "" && strings.Contains(sub, NormalizeName(rule.Match)) {
				return rule.FeeKey
			}
		}
	}
	return m.FeeKey
}

// FeeKeyForProperty returns the fee key carried by an inventory property name
func (c *Catalog) FeeKeyForProperty(property string) (string, bool) {
	key, ok := c.feeProperties[property]
	return key, ok
}

// IsSubSourceTerm reports whether a source search term names a sub-channel
// that the order source indexes under SubSource instead of Source
func (c *Catalog) IsSubSourceTerm(term string) bool {
	_, ok := c.subSourceTerm[NormalizeName(term)]
	return ok
}

// NormalizeName folds case, strips accents and drops every character that is
// not a letter or digit, so "Robert Dyas", "ROBERT_DYAS" and "robertdyas" agree.
func NormalizeName(s string) string {
	decomposed := norm.NFKD.String(cases.Fold().String(s))
	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
