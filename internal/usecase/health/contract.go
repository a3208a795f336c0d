package health

import "context"

// CatalogSizer reports how many objects the loaded catalog holds.
type CatalogSizer interface {
	Len() int
}

// CachePinger checks result cache availability.
type CachePinger interface {
	Ping(ctx context.Context) error
}
