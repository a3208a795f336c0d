// Package catalog is the in-memory index over loaded near-Earth objects:
// objects by name and object ordinals by approach date.
//
// A Catalog is populated by a single loader goroutine and then only read.
// It is rebuilt wholesale on reload and never patched.
package catalog

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/kailas-cloud/neodex/internal/domain"
	"github.com/kailas-cloud/neodex/internal/domain/caldate"
	"github.com/kailas-cloud/neodex/internal/domain/neo"
)

// Catalog owns the loaded objects. Object ordinals are their first-seen positions.
type Catalog struct {
	version    string
	objects    []*neo.Object
	byName     map[string]uint32
	byDate     map[caldate.Date][]uint32
	approaches int
}

// New creates an empty catalog with a fresh version identifier.
func New() *Catalog {
	return &Catalog{
		version: uuid.NewString(),
		byName:  make(map[string]uint32),
		byDate:  make(map[caldate.Date][]uint32),
	}
}

// Version identifies this dataset snapshot.
func (c *Catalog) Version() string { return c.version }

// UpsertObject returns the object registered under attrs.Name, creating it on
// first sight. Attributes of an existing object are never overwritten.
func (c *Catalog) UpsertObject(attrs neo.Attributes) *neo.Object {
	if ord, ok := c.byName[attrs.Name]; ok {
		return c.objects[ord]
	}
	o := neo.NewObject(attrs)
	c.byName[attrs.Name] = uint32(len(c.objects))
	c.objects = append(c.objects, o)
	return o
}

// RecordApproach appends a to o and files o under a's date.
// The date bucket keeps one entry per call, duplicates included.
func (c *Catalog) RecordApproach(o *neo.Object, a neo.Approach) error {
	ord, ok := c.byName[o.Name()]
	if !ok || c.objects[ord] != o {
		return fmt.Errorf("record approach for %q: %w", o.Name(), domain.ErrNotFound)
	}
	o.AddApproach(a)
	c.byDate[a.Date()] = append(c.byDate[a.Date()], ord)
	c.approaches++
	return nil
}

// Lookup returns the object registered under name.
func (c *Catalog) Lookup(name string) (*neo.Object, bool) {
	ord, ok := c.byName[name]
	if !ok {
		return nil, false
	}
	return c.objects[ord], true
}

// Object returns the object at ordinal ord, or nil if out of range.
func (c *Catalog) Object(ord uint32) *neo.Object {
	if int(ord) >= len(c.objects) {
		return nil
	}
	return c.objects[ord]
}

// ObjectsOnDate returns the objects filed under d, one entry per recorded approach.
func (c *Catalog) ObjectsOnDate(d caldate.Date) []*neo.Object {
	ords := c.byDate[d]
	out := make([]*neo.Object, len(ords))
	for i, ord := range ords {
		out[i] = c.objects[ord]
	}
	return out
}

// OrdinalsOnDate returns the raw date bucket. Callers must not modify it.
func (c *Catalog) OrdinalsOnDate(d caldate.Date) []uint32 {
	return c.byDate[d]
}

// Dates returns every date that has a bucket, in no particular order.
func (c *Catalog) Dates() []caldate.Date {
	out := make([]caldate.Date, 0, len(c.byDate))
	for d := range c.byDate {
		out = append(out, d)
	}
	return out
}

// Len returns the number of objects.
func (c *Catalog) Len() int { return len(c.objects) }

// DateCount returns the number of date buckets.
func (c *Catalog) DateCount() int { return len(c.byDate) }

// ApproachCount returns the number of recorded approaches.
func (c *Catalog) ApproachCount() int { return c.approaches }
