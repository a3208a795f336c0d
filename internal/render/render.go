// Package render formats search results for humans and machines.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/kailas-cloud/neodex/internal/domain/neo"
	"github.com/kailas-cloud/neodex/internal/domain/search/field"
	"github.com/kailas-cloud/neodex/internal/domain/search/request"
	"github.com/kailas-cloud/neodex/internal/usecase/search"
)

// ApproachDTO is the wire form of a close approach.
type ApproachDTO struct {
	Name           string  `json:"name"`
	Date           string  `json:"date"`
	SpeedKmh       float64 `json:"speed_kmh"`
	MissDistanceKm float64 `json:"miss_distance_km"`
	OrbitingBody   string  `json:"orbiting_body,omitempty"`
}

// ObjectDTO is the wire form of a near-Earth object.
type ObjectDTO struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	DiameterMinKm float64       `json:"diameter_min_km"`
	DiameterMaxKm float64       `json:"diameter_max_km"`
	Hazardous     bool          `json:"is_potentially_hazardous"`
	Approaches    []ApproachDTO `json:"approaches"`
}

// Response is the wire form of a search answer.
// Objects is set for NEO output, Approaches for Path output.
type Response struct {
	ReturnObject string        `json:"return_object"`
	Count        int           `json:"count"`
	Objects      []ObjectDTO   `json:"objects,omitempty"`
	Approaches   []ApproachDTO `json:"approaches,omitempty"`
}

// NewApproach converts an approach to its wire form.
func NewApproach(a neo.Approach) ApproachDTO {
	return ApproachDTO{
		Name:           a.Name(),
		Date:           a.Date().String(),
		SpeedKmh:       a.SpeedKmh(),
		MissDistanceKm: a.MissDistanceKm(),
		OrbitingBody:   a.OrbitingBody(),
	}
}

// NewObject converts an object, with its approaches, to its wire form.
func NewObject(o *neo.Object) ObjectDTO {
	approaches := o.Approaches()
	dto := ObjectDTO{
		ID:            o.ID(),
		Name:          o.Name(),
		DiameterMinKm: o.DiameterMinKm(),
		DiameterMaxKm: o.DiameterMaxKm(),
		Hazardous:     o.Hazardous(),
		Approaches:    make([]ApproachDTO, len(approaches)),
	}
	for i, a := range approaches {
		dto.Approaches[i] = NewApproach(a)
	}
	return dto
}

// NewResponse shapes search results for the requested output kind.
func NewResponse(out request.Output, objs []*neo.Object) Response {
	if out == request.OutputPath {
		approaches := search.Approaches(objs)
		resp := Response{
			ReturnObject: string(request.OutputPath),
			Count:        len(approaches),
			Approaches:   make([]ApproachDTO, len(approaches)),
		}
		for i, a := range approaches {
			resp.Approaches[i] = NewApproach(a)
		}
		return resp
	}

	resp := Response{
		ReturnObject: string(request.OutputNEO),
		Count:        len(objs),
		Objects:      make([]ObjectDTO, len(objs)),
	}
	for i, o := range objs {
		resp.Objects[i] = NewObject(o)
	}
	return resp
}

// JSON writes v as indented JSON.
func JSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

// Text writes one line per result:
//
//	NAME: <name> ID: <id> ORBITS --> <name> @ <date>,...   (NEO output)
//	NEO NAME: <name> @ <date> BY <miss distance>            (Path output)
func Text(w io.Writer, out request.Output, objs []*neo.Object) error {
	if out == request.OutputPath {
		for _, a := range search.Approaches(objs) {
			if _, err := fmt.Fprintln(w, ApproachLine(a)); err != nil {
				return err
			}
		}
		return nil
	}
	for _, o := range objs {
		if _, err := fmt.Fprintln(w, ObjectLine(o)); err != nil {
			return err
		}
	}
	return nil
}

// ObjectLine renders an object with a summary of its approaches.
func ObjectLine(o *neo.Object) string {
	orbits := make([]string, 0, len(o.Approaches()))
	for _, a := range o.Approaches() {
		orbits = append(orbits, a.Name()+" @ "+a.Date().String())
	}
	return "NAME: " + o.Name() + " ID: " + o.ID() + " ORBITS --> " + strings.Join(orbits, ",")
}

// ApproachLine renders a single approach.
func ApproachLine(a neo.Approach) string {
	return "NEO NAME: " + a.Name() + " @ " + a.Date().String() + " BY " + field.NumberValue(a.MissDistanceKm()).Text()
}
