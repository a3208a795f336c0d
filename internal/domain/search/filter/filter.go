package filter

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/neodex/internal/domain"
	"github.com/kailas-cloud/neodex/internal/domain/neo"
	"github.com/kailas-cloud/neodex/internal/domain/search/field"
)

// MaxFilters is the maximum number of filters per query.
const MaxFilters = 32

// Operator is a comparison operator accepted in filter tokens.
type Operator string

// Operator constants.
const (
	Equal        Operator = "="
	GreaterEqual Operator = ">="
	LessEqual    Operator = "<="
	Less         Operator = "<"
	Greater      Operator = ">"
)

// ParseOperator validates an operator symbol.
func ParseOperator(s string) (Operator, error) {
	op := Operator(s)
	switch op {
	case Equal, GreaterEqual, LessEqual, Less, Greater:
		return op, nil
	default:
		return "", fmt.Errorf("%w: operator %q", domain.ErrUnsupportedFeature, s)
	}
}

// holds reports whether a three-way comparison result satisfies the operator.
func (op Operator) holds(cmp int) bool {
	switch op {
	case Equal:
		return cmp == 0
	case GreaterEqual:
		return cmp >= 0
	case LessEqual:
		return cmp <= 0
	case Less:
		return cmp < 0
	case Greater:
		return cmp > 0
	default:
		return false
	}
}

// Comparison selects how operands are compared.
type Comparison string

// Comparison constants.
const (
	// Typed parses the filter value to the field's kind and compares naturally.
	Typed Comparison = "typed"
	// Lexical compares the text forms of both operands, so "10" < "9".
	Lexical Comparison = "lexical"
)

// IsValid checks if the comparison mode is supported.
func (c Comparison) IsValid() bool {
	return c == Typed || c == Lexical
}

// Filter is a single field predicate.
type Filter struct {
	field field.Field
	op    Operator
	raw   string
	value field.Value
	cmp   Comparison
}

// New validates and creates a Filter. An empty comparison defaults to Typed.
func New(f field.Field, op Operator, raw string, cmp Comparison) (Filter, error) {
	if !f.IsValid() {
		return Filter{}, fmt.Errorf("%w: field %v", domain.ErrUnsupportedFeature, f)
	}
	if _, err := ParseOperator(string(op)); err != nil {
		return Filter{}, err
	}
	if cmp == "" {
		cmp = Typed
	}
	if !cmp.IsValid() {
		return Filter{}, fmt.Errorf("%w: comparison mode %q", domain.ErrUnsupportedFeature, cmp)
	}

	flt := Filter{field: f, op: op, raw: raw, cmp: cmp}
	if cmp == Typed {
		v, err := field.ParseValue(f.Kind(), raw)
		if err != nil {
			return Filter{}, fmt.Errorf("filter %s: %w", f, err)
		}
		flt.value = v
	}
	return flt, nil
}

// Parse builds a Filter from a "field:operator:value" token.
func Parse(token string, cmp Comparison) (Filter, error) {
	parts := strings.SplitN(token, ":", 3)
	if len(parts) != 3 {
		return Filter{}, fmt.Errorf("%w: filter %q must be field:operator:value", domain.ErrUnsupportedFeature, token)
	}
	f, ok := field.Lookup(parts[0])
	if !ok {
		return Filter{}, fmt.Errorf("%w: filter field %q", domain.ErrUnsupportedFeature, parts[0])
	}
	op, err := ParseOperator(parts[1])
	if err != nil {
		return Filter{}, err
	}
	return New(f, op, parts[2], cmp)
}

// Field returns the filtered field.
func (f Filter) Field() field.Field { return f.field }

// Operator returns the comparison operator.
func (f Filter) Operator() Operator { return f.op }

// Value returns the raw comparison value.
func (f Filter) Value() string { return f.raw }

// Comparison returns the comparison mode.
func (f Filter) Comparison() Comparison { return f.cmp }

// String renders the filter in token form.
func (f Filter) String() string {
	return f.field.Name() + ":" + string(f.op) + ":" + f.raw
}

// MatchesObject evaluates an object-level filter against o.
func (f Filter) MatchesObject(o *neo.Object) bool {
	return f.matches(f.field.ObjectValue(o))
}

// MatchesApproach evaluates an approach-level filter against a.
func (f Filter) MatchesApproach(a neo.Approach) bool {
	return f.matches(f.field.ApproachValue(a))
}

func (f Filter) matches(actual field.Value) bool {
	if f.cmp == Lexical {
		return f.op.holds(strings.Compare(actual.Text(), f.raw))
	}
	return f.op.holds(actual.Compare(f.value))
}

// Apply narrows objs without mutating them.
// Object-level filters keep or drop whole objects. Approach-level filters keep
// an object only if some approach matches, and emit a copy restricted to the
// matching approaches.
func (f Filter) Apply(objs []*neo.Object) []*neo.Object {
	out := make([]*neo.Object, 0, len(objs))
	if f.field.Target() == field.TargetObject {
		for _, o := range objs {
			if f.MatchesObject(o) {
				out = append(out, o)
			}
		}
		return out
	}

	for _, o := range objs {
		approaches := o.Approaches()
		var kept []neo.Approach
		for _, a := range approaches {
			if f.MatchesApproach(a) {
				kept = append(kept, a)
			}
		}
		if len(kept) == 0 {
			continue
		}
		if len(kept) == len(approaches) {
			out = append(out, o)
			continue
		}
		out = append(out, o.WithApproaches(kept))
	}
	return out
}
