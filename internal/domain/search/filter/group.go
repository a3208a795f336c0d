package filter

import (
	"fmt"

	"github.com/kailas-cloud/neodex/internal/domain"
	"github.com/kailas-cloud/neodex/internal/domain/neo"
	"github.com/kailas-cloud/neodex/internal/domain/search/field"
)

// Group holds filters partitioned by the record kind they apply to.
// Both partitions keep the order in which filters were given.
type Group struct {
	object   []Filter
	approach []Filter
}

// NewGroup partitions filters by target.
func NewGroup(filters []Filter) (Group, error) {
	if len(filters) > MaxFilters {
		return Group{}, fmt.Errorf("%w: too many filters (max %d)", domain.ErrInvalidQuery, MaxFilters)
	}
	var g Group
	for _, f := range filters {
		if f.Field().Target() == field.TargetApproach {
			g.approach = append(g.approach, f)
		} else {
			g.object = append(g.object, f)
		}
	}
	return g, nil
}

// ParseGroup parses "field:operator:value" tokens into a Group.
func ParseGroup(tokens []string, cmp Comparison) (Group, error) {
	filters := make([]Filter, 0, len(tokens))
	for _, tok := range tokens {
		f, err := Parse(tok, cmp)
		if err != nil {
			return Group{}, err
		}
		filters = append(filters, f)
	}
	return NewGroup(filters)
}

// Object returns the object-level filters.
func (g Group) Object() []Filter { return g.object }

// Approach returns the approach-level filters.
func (g Group) Approach() []Filter { return g.approach }

// Len returns the total number of filters.
func (g Group) Len() int { return len(g.object) + len(g.approach) }

// IsEmpty reports whether the group has no filters.
func (g Group) IsEmpty() bool { return g.Len() == 0 }

// Tokens renders the filters in token form, object-level first.
func (g Group) Tokens() []string {
	out := make([]string, 0, g.Len())
	for _, f := range g.object {
		out = append(out, f.String())
	}
	for _, f := range g.approach {
		out = append(out, f.String())
	}
	return out
}

// Apply runs every object-level filter, then every approach-level filter.
func (g Group) Apply(objs []*neo.Object) []*neo.Object {
	for _, f := range g.object {
		objs = f.Apply(objs)
	}
	for _, f := range g.approach {
		objs = f.Apply(objs)
	}
	return objs
}
