package neodex

import (
	"time"

	"github.com/kailas-cloud/neodex/internal/domain/neo"
)

// Approach is one close approach of an object.
type Approach struct {
	Name           string
	Date           time.Time // midnight UTC
	SpeedKmh       float64
	MissDistanceKm float64
	OrbitingBody   string
}

// Object is a near-Earth object with the approaches relevant to a query.
type Object struct {
	ID            string
	Name          string
	DiameterMinKm float64
	DiameterMaxKm float64
	Hazardous     bool
	Approaches    []Approach
}

// Query selects objects by approach date and filters.
// Dates are YYYY-MM-DD; Date takes precedence over StartDate/EndDate.
// Filters are "field:operator:value" tokens. Limit 0 means the default of 10.
type Query struct {
	Date      string
	StartDate string
	EndDate   string
	Filters   []string
	Limit     int
}

// Stats describes the loaded dataset.
type Stats struct {
	Objects    int
	Dates      int
	Approaches int
	Version    string
}

func fromApproach(a neo.Approach) Approach {
	return Approach{
		Name:           a.Name(),
		Date:           a.Date().Time(),
		SpeedKmh:       a.SpeedKmh(),
		MissDistanceKm: a.MissDistanceKm(),
		OrbitingBody:   a.OrbitingBody(),
	}
}

func fromObject(o *neo.Object) Object {
	src := o.Approaches()
	out := Object{
		ID:            o.ID(),
		Name:          o.Name(),
		DiameterMinKm: o.DiameterMinKm(),
		DiameterMaxKm: o.DiameterMaxKm(),
		Hazardous:     o.Hazardous(),
		Approaches:    make([]Approach, len(src)),
	}
	for i, a := range src {
		out.Approaches[i] = fromApproach(a)
	}
	return out
}

func fromObjects(objs []*neo.Object) []Object {
	out := make([]Object, len(objs))
	for i, o := range objs {
		out[i] = fromObject(o)
	}
	return out
}
