package neodex

import "github.com/kailas-cloud/neodex/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrConfiguration      = domain.ErrConfiguration
	ErrUnsupportedFeature = domain.ErrUnsupportedFeature
	ErrMalformedDate      = domain.ErrMalformedDate
	ErrInvalidQuery       = domain.ErrInvalidQuery
	ErrNotFound           = domain.ErrNotFound
	ErrCatalogUnavailable = domain.ErrCatalogUnavailable
	ErrMalformedRecord    = domain.ErrMalformedRecord
)
