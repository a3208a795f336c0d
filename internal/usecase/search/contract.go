package search

import (
	"context"

	"github.com/kailas-cloud/neodex/internal/domain/caldate"
	"github.com/kailas-cloud/neodex/internal/domain/neo"
)

// Catalog is the read side of the in-memory index.
type Catalog interface {
	Version() string
	OrdinalsOnDate(d caldate.Date) []uint32
	Dates() []caldate.Date
	Object(ord uint32) *neo.Object
	Lookup(name string) (*neo.Object, bool)
}

// ResultCache stores finished search results keyed by catalog version and request fingerprint.
type ResultCache interface {
	Get(ctx context.Context, version, fingerprint string) ([]*neo.Object, bool)
	Put(ctx context.Context, version, fingerprint string, objs []*neo.Object)
}
