// Package neo defines the two record kinds held by the catalog: near-Earth
// objects and their close-approach events.
package neo

import "github.com/kailas-cloud/neodex/internal/domain/caldate"

// Attributes are the physical attributes of an object as read from one record.
type Attributes struct {
	ID            string
	Name          string
	DiameterMinKm float64
	DiameterMaxKm float64
	Hazardous     bool
}

// Object is a tracked near-Earth object with its approach history in load order.
type Object struct {
	attrs      Attributes
	approaches []Approach
}

// NewObject creates an object with no approaches.
func NewObject(attrs Attributes) *Object {
	return &Object{attrs: attrs}
}

// Reconstruct rebuilds an object with a known approach list (e.g. from a cache entry).
func Reconstruct(attrs Attributes, approaches []Approach) *Object {
	return &Object{attrs: attrs, approaches: approaches}
}

// AddApproach appends an approach. No validation is done here.
func (o *Object) AddApproach(a Approach) {
	o.approaches = append(o.approaches, a)
}

// WithApproaches returns a shallow copy of o carrying only the given approaches.
// The receiver is left untouched.
func (o *Object) WithApproaches(approaches []Approach) *Object {
	return &Object{attrs: o.attrs, approaches: approaches}
}

// ID returns the dataset identifier.
func (o *Object) ID() string { return o.attrs.ID }

// Name returns the unique object name.
func (o *Object) Name() string { return o.attrs.Name }

// DiameterMinKm returns the minimum estimated diameter.
func (o *Object) DiameterMinKm() float64 { return o.attrs.DiameterMinKm }

// DiameterMaxKm returns the maximum estimated diameter.
func (o *Object) DiameterMaxKm() float64 { return o.attrs.DiameterMaxKm }

// Hazardous reports whether the object is potentially hazardous.
func (o *Object) Hazardous() bool { return o.attrs.Hazardous }

// Attributes returns the object's attributes.
func (o *Object) Attributes() Attributes { return o.attrs }

// Approaches returns the approach list. Callers must not modify it.
func (o *Object) Approaches() []Approach { return o.approaches }

// Approach is one recorded close approach. It is immutable.
type Approach struct {
	name           string
	speedKmh       float64
	missDistanceKm float64
	date           caldate.Date
	orbitingBody   string
}

// NewApproach creates an approach record for the object with the given name.
func NewApproach(name string, speedKmh, missDistanceKm float64, date caldate.Date, orbitingBody string) Approach {
	return Approach{
		name:           name,
		speedKmh:       speedKmh,
		missDistanceKm: missDistanceKm,
		date:           date,
		orbitingBody:   orbitingBody,
	}
}

// Name returns the owning object's name.
func (a Approach) Name() string { return a.name }

// SpeedKmh returns the relative velocity in km/h.
func (a Approach) SpeedKmh() float64 { return a.speedKmh }

// MissDistanceKm returns the miss distance in kilometers.
func (a Approach) MissDistanceKm() float64 { return a.missDistanceKm }

// Date returns the approach date.
func (a Approach) Date() caldate.Date { return a.date }

// OrbitingBody returns the reference body of the approach.
func (a Approach) OrbitingBody() string { return a.orbitingBody }
