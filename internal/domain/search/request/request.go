package request

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kailas-cloud/neodex/internal/domain"
	"github.com/kailas-cloud/neodex/internal/domain/caldate"
	"github.com/kailas-cloud/neodex/internal/domain/search/filter"
	"github.com/kailas-cloud/neodex/internal/domain/search/mode"
)

// Output is the record kind a caller wants rendered.
type Output string

// Output constants, spelled as the CLI and API accept them.
const (
	OutputNEO  Output = "NEO"
	OutputPath Output = "Path"
)

// ParseOutput validates an output kind. Empty defaults to NEO.
func ParseOutput(s string) (Output, error) {
	switch Output(s) {
	case "", OutputNEO:
		return OutputNEO, nil
	case OutputPath:
		return OutputPath, nil
	default:
		return "", fmt.Errorf("%w: return object must be %q or %q, got %q",
			domain.ErrInvalidQuery, OutputNEO, OutputPath, s)
	}
}

// Params are raw, user-supplied query parameters.
// Dates are YYYY-MM-DD. Date takes precedence over StartDate/EndDate.
type Params struct {
	Date         string
	StartDate    string
	EndDate      string
	Filters      []string
	ReturnObject string
	Number       int
}

// Request is a validated search query.
type Request struct {
	dates   mode.DateSearch
	limit   int
	filters filter.Group
	output  Output
	cmp     filter.Comparison
}

// New validates and creates a Request from already-built parts.
func New(dates mode.DateSearch, limit int, filters filter.Group, output Output, cmp filter.Comparison) (Request, error) {
	if !dates.Mode().IsValid() {
		return Request{}, fmt.Errorf("%w: date search mode is required", domain.ErrInvalidQuery)
	}
	if limit <= 0 {
		return Request{}, fmt.Errorf("%w: number must be positive, got %d", domain.ErrInvalidQuery, limit)
	}
	if output == "" {
		output = OutputNEO
	}
	if output != OutputNEO && output != OutputPath {
		return Request{}, fmt.Errorf("%w: unknown return object %q", domain.ErrInvalidQuery, output)
	}
	if cmp == "" {
		cmp = filter.Typed
	}
	return Request{dates: dates, limit: limit, filters: filters, output: output, cmp: cmp}, nil
}

// Build normalizes raw parameters into a Request.
// Filters are parsed before anything else is resolved so that an unknown
// field is reported ahead of date or limit problems.
func Build(p Params, cmp filter.Comparison) (Request, error) {
	if cmp == "" {
		cmp = filter.Typed
	}
	if !cmp.IsValid() {
		return Request{}, fmt.Errorf("%w: comparison mode %q", domain.ErrUnsupportedFeature, cmp)
	}

	var filters filter.Group
	if len(p.Filters) > 0 {
		g, err := filter.ParseGroup(p.Filters, cmp)
		if err != nil {
			return Request{}, err
		}
		filters = g
	}

	dates, err := buildDateSearch(p)
	if err != nil {
		return Request{}, err
	}

	output, err := ParseOutput(p.ReturnObject)
	if err != nil {
		return Request{}, err
	}

	return New(dates, p.Number, filters, output, cmp)
}

func buildDateSearch(p Params) (mode.DateSearch, error) {
	if p.Date != "" {
		d, err := caldate.ParseISO(p.Date)
		if err != nil {
			return mode.DateSearch{}, fmt.Errorf("date: %w", err)
		}
		return mode.On(d), nil
	}

	if p.StartDate == "" || p.EndDate == "" {
		return mode.DateSearch{}, fmt.Errorf("%w: either date or both start_date and end_date are required",
			domain.ErrInvalidQuery)
	}
	start, err := caldate.ParseISO(p.StartDate)
	if err != nil {
		return mode.DateSearch{}, fmt.Errorf("start_date: %w", err)
	}
	end, err := caldate.ParseISO(p.EndDate)
	if err != nil {
		return mode.DateSearch{}, fmt.Errorf("end_date: %w", err)
	}
	return mode.Range(start, end), nil
}

// Dates returns the date search.
func (r *Request) Dates() mode.DateSearch { return r.dates }

// Limit returns the maximum number of results.
func (r *Request) Limit() int { return r.limit }

// Filters returns the filter group.
func (r *Request) Filters() filter.Group { return r.filters }

// Output returns the requested record kind.
func (r *Request) Output() Output { return r.output }

// Comparison returns the comparison mode the filters were built with.
func (r *Request) Comparison() filter.Comparison { return r.cmp }

// Fingerprint returns a canonical description of the request.
// Equal requests produce equal fingerprints.
func (r *Request) Fingerprint() string {
	var b strings.Builder
	b.WriteString(r.dates.String())
	b.WriteString("|limit=")
	b.WriteString(strconv.Itoa(r.limit))
	b.WriteString("|cmp=")
	b.WriteString(string(r.cmp))
	b.WriteString("|filters=")
	// Values may contain any character, so each token is quoted.
	for i, tok := range r.filters.Tokens() {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Quote(tok))
	}
	return b.String()
}
