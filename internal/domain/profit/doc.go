// Package profit contains the Profit bounded context.
// It models marketplace orders, the cost and fee data used to enrich them,
// and the per-marketplace accounting rules that turn both into profit figures.
//
// Key concepts:
//   - Order: a processed order as reported by the order management system
//   - EnrichmentResult: cost, freight, courier and fee-rate data resolved for one order
//   - MarketplaceClass: the accounting rule family a marketplace belongs to
//   - Catalog: the data-driven mapping from observed source spellings to marketplaces
//   - ProfitResult: fee, VAT, cost and profit derived for one order
package profit
