package domain

import "errors"

var (
	// ErrConfiguration signals a missing or unusable startup setting, such as no data source.
	ErrConfiguration = errors.New("configuration error")
	// ErrUnsupportedFeature signals an unknown filter field or operator.
	ErrUnsupportedFeature = errors.New("unsupported feature")
	// ErrMalformedDate signals a date that cannot be parsed into a calendar date.
	ErrMalformedDate = errors.New("malformed date")
	// ErrInvalidQuery signals an incoherent combination of query parameters.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrNotFound signals a missing object.
	ErrNotFound = errors.New("not found")
	// ErrCatalogUnavailable signals that no dataset has been loaded.
	ErrCatalogUnavailable = errors.New("catalog unavailable")
	// ErrMalformedRecord signals an input row that cannot be materialized.
	ErrMalformedRecord = errors.New("malformed record")
)
