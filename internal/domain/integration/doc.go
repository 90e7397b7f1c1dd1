// Package integration contains the upstream order-management integration context.
// It defines the ports the profit pipeline consumes from the external
// order-management system.
//
// Key concepts:
//   - OrderItemResolver: Port resolving an order identifier to its product line
//   - FeeLookupClient: Port reading cost, freight, courier and fee properties of a product
//   - OrderSource: Port listing processed orders for a date range and filters
//   - Authorizer: Port exchanging application credentials for a session token
//
// Design Pattern: Ports & Adapters
//   - Ports (interfaces) are defined here in the domain layer
//   - Adapters (implementations) are in the infrastructure layer
package integration
