package mode

import (
	"fmt"

	"github.com/kailas-cloud/neodex/internal/domain/caldate"
)

// Mode is the date search strategy.
type Mode string

// Date search mode constants.
const (
	// Equals matches approaches on exactly one date.
	Equals Mode = "equals"
	// Between matches approaches within an inclusive date range.
	Between Mode = "between"
)

// IsValid checks if the mode is one of the supported values.
func (m Mode) IsValid() bool {
	return m == Equals || m == Between
}

// DateSearch is the date part of a query.
type DateSearch struct {
	mode  Mode
	start caldate.Date
	end   caldate.Date
}

// On creates an Equals date search.
func On(d caldate.Date) DateSearch {
	return DateSearch{mode: Equals, start: d, end: d}
}

// Range creates a Between date search. No ordering check is made:
// a reversed range simply matches nothing.
func Range(start, end caldate.Date) DateSearch {
	return DateSearch{mode: Between, start: start, end: end}
}

// Mode returns the search strategy.
func (s DateSearch) Mode() Mode { return s.mode }

// Start returns the exact date for Equals, or the range start for Between.
func (s DateSearch) Start() caldate.Date { return s.start }

// End returns the exact date for Equals, or the range end for Between.
func (s DateSearch) End() caldate.Date { return s.end }

// Matches reports whether d satisfies the date search.
func (s DateSearch) Matches(d caldate.Date) bool {
	if s.mode == Equals {
		return d == s.start
	}
	return d.Between(s.start, s.end)
}

// String renders the date search in a stable form.
func (s DateSearch) String() string {
	if s.mode == Equals {
		return fmt.Sprintf("%s:%s", s.mode, s.start)
	}
	return fmt.Sprintf("%s:%s..%s", s.mode, s.start, s.end)
}
