package profit

import "errors"

var (
	// Input errors fail a whole enrichment call before any work starts
	ErrMissingCredential = errors.New("profit: missing credential")
	ErrMissingOrderIDs   = errors.New("profit: missing order identifier list")

	// Catalog errors
	ErrUnknownMarketplaceClass = errors.New("profit: unknown marketplace class")
	ErrDuplicateMarketplace    = errors.New("profit: duplicate marketplace key or alias")
	ErrInvalidMarketplace      = errors.New("profit: invalid marketplace definition")

	// Fee override errors
	ErrInvalidFeeOverride  = errors.New("profit: fee override must be between 0 and 100 percent")
	ErrFeeOverrideNotFound = errors.New("profit: fee override not found")
)
