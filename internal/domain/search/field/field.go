// Package field is the fixed registry of filterable attributes. Each field is
// bound at compile time to the record kind it reads and to its accessor.
package field

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/kailas-cloud/neodex/internal/domain"
	"github.com/kailas-cloud/neodex/internal/domain/neo"
)

// Target is the record kind a field is read from.
type Target string

// Target constants.
const (
	TargetObject   Target = "object"
	TargetApproach Target = "approach"
)

// Kind is the natural type of a field's values.
type Kind string

// Kind constants.
const (
	Bool   Kind = "bool"
	Number Kind = "number"
	Text   Kind = "text"
)

// Field identifies one filterable attribute.
type Field int

// Registered fields. The zero value is not a field.
const (
	IsHazardous Field = iota + 1
	Diameter
	DiameterMax
	Name
	Distance
	Speed
	OrbitingBody
)

var all = []Field{IsHazardous, Diameter, DiameterMax, Name, Distance, Speed, OrbitingBody}

// All returns every registered field in declaration order.
func All() []Field {
	out := make([]Field, len(all))
	copy(out, all)
	return out
}

// Lookup resolves a filter name such as "is_hazardous" to its field.
func Lookup(name string) (Field, bool) {
	for _, f := range all {
		if f.Name() == name {
			return f, true
		}
	}
	return 0, false
}

// Name returns the name used in filter tokens.
func (f Field) Name() string {
	switch f {
	case IsHazardous:
		return "is_hazardous"
	case Diameter:
		return "diameter"
	case DiameterMax:
		return "diameter_max"
	case Name:
		return "name"
	case Distance:
		return "distance"
	case Speed:
		return "speed"
	case OrbitingBody:
		return "orbiting_body"
	default:
		return ""
	}
}

// String implements fmt.Stringer.
func (f Field) String() string {
	if n := f.Name(); n != "" {
		return n
	}
	return fmt.Sprintf("field(%d)", int(f))
}

// IsValid reports whether f is a registered field.
func (f Field) IsValid() bool { return f.Name() != "" }

// Target returns the record kind the field is read from.
func (f Field) Target() Target {
	switch f {
	case Distance, Speed, OrbitingBody:
		return TargetApproach
	default:
		return TargetObject
	}
}

// Kind returns the natural type of the field.
func (f Field) Kind() Kind {
	switch f {
	case IsHazardous:
		return Bool
	case Name, OrbitingBody:
		return Text
	default:
		return Number
	}
}

// ObjectValue reads an object-level field. Approach-level fields yield the zero Value.
func (f Field) ObjectValue(o *neo.Object) Value {
	switch f {
	case IsHazardous:
		return BoolValue(o.Hazardous())
	case Diameter:
		return NumberValue(o.DiameterMinKm())
	case DiameterMax:
		return NumberValue(o.DiameterMaxKm())
	case Name:
		return TextValue(o.Name())
	default:
		return Value{}
	}
}

// ApproachValue reads an approach-level field. Object-level fields yield the zero Value.
func (f Field) ApproachValue(a neo.Approach) Value {
	switch f {
	case Distance:
		return NumberValue(a.MissDistanceKm())
	case Speed:
		return NumberValue(a.SpeedKmh())
	case OrbitingBody:
		return TextValue(a.OrbitingBody())
	default:
		return Value{}
	}
}

// Value is a typed field value.
type Value struct {
	kind Kind
	b    bool
	n    float64
	s    string
}

// BoolValue wraps a boolean.
func BoolValue(b bool) Value { return Value{kind: Bool, b: b} }

// NumberValue wraps a number.
func NumberValue(n float64) Value { return Value{kind: Number, n: n} }

// TextValue wraps a string.
func TextValue(s string) Value { return Value{kind: Text, s: s} }

// ParseValue converts raw filter input to a value of the given kind.
func ParseValue(kind Kind, raw string) (Value, error) {
	switch kind {
	case Bool:
		b, err := strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			return Value{}, fmt.Errorf("%w: %q is not a boolean", domain.ErrInvalidQuery, raw)
		}
		return BoolValue(b), nil
	case Number:
		n, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
			return Value{}, fmt.Errorf("%w: %q is not a finite number", domain.ErrInvalidQuery, raw)
		}
		return NumberValue(n), nil
	case Text:
		return TextValue(raw), nil
	default:
		return Value{}, fmt.Errorf("%w: unknown value kind %q", domain.ErrUnsupportedFeature, kind)
	}
}

// Kind returns the value's kind.
func (v Value) Kind() Kind { return v.kind }

// Text renders the value in its dataset form:
// booleans as True/False and numbers in shortest decimal form with a
// trailing ".0" on integral values.
func (v Value) Text() string {
	switch v.kind {
	case Bool:
		if v.b {
			return "True"
		}
		return "False"
	case Number:
		return formatNumber(v.n)
	default:
		return v.s
	}
}

// Compare orders two values of the same kind: false < true, numbers
// numerically and text lexically. Values of different kinds compare by text.
func (v Value) Compare(o Value) int {
	if v.kind != o.kind {
		return strings.Compare(v.Text(), o.Text())
	}
	switch v.kind {
	case Bool:
		switch {
		case v.b == o.b:
			return 0
		case !v.b:
			return -1
		default:
			return 1
		}
	case Number:
		switch {
		case v.n < o.n:
			return -1
		case v.n > o.n:
			return 1
		default:
			return 0
		}
	default:
		return strings.Compare(v.s, o.s)
	}
}

func formatNumber(n float64) string {
	abs := math.Abs(n)
	if abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(n, 'e', -1, 64)
	}
	s := strconv.FormatFloat(n, 'f', -1, 64)
	if !strings.ContainsRune(s, '.') && !math.IsInf(n, 0) && !math.IsNaN(n) {
		s += ".0"
	}
	return s
}
