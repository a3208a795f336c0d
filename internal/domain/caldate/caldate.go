// Package caldate holds the canonical calendar date used by the catalog and the searcher.
// Raw dates are converted once at the ingestion or query boundary and compared as values afterwards.
package caldate

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kailas-cloud/neodex/internal/domain"
)

// Date is a civil date without a time component. The zero value is not a valid date.
type Date struct {
	year  int
	month time.Month
	day   int
}

// New validates and creates a Date.
func New(year int, month time.Month, day int) (Date, error) {
	if year < 1 || year > 9999 {
		return Date{}, fmt.Errorf("%w: year %d out of range", domain.ErrMalformedDate, year)
	}
	if month < time.January || month > time.December {
		return Date{}, fmt.Errorf("%w: month %d out of range", domain.ErrMalformedDate, month)
	}
	if day < 1 || day > daysIn(year, month) {
		return Date{}, fmt.Errorf("%w: day %d out of range for %d-%02d", domain.ErrMalformedDate, day, year, month)
	}
	return Date{year: year, month: month, day: day}, nil
}

// MustNew is New for constants in tests and fixtures; it panics on invalid input.
func MustNew(year int, month time.Month, day int) Date {
	d, err := New(year, month, day)
	if err != nil {
		panic(err)
	}
	return d
}

// FromTime truncates t to its calendar date in t's location.
func FromTime(t time.Time) Date {
	y, m, d := t.Date()
	return Date{year: y, month: m, day: d}
}

// ParseISO parses query input in YYYY-MM-DD form.
func ParseISO(s string) (Date, error) {
	parts, err := split3(s)
	if err != nil {
		return Date{}, err
	}
	if len(parts[0]) != 4 {
		return Date{}, fmt.Errorf("%w: %q is not YYYY-MM-DD", domain.ErrMalformedDate, s)
	}
	return fromParts(s, parts[0], parts[1], parts[2])
}

// ParseRecord parses dataset input. Records use DD-MM-YY where the year is
// taken as 20YY; DD-MM-YYYY and YYYY-MM-DD are accepted as well.
func ParseRecord(s string) (Date, error) {
	parts, err := split3(s)
	if err != nil {
		return Date{}, err
	}
	switch {
	case len(parts[0]) == 4:
		return fromParts(s, parts[0], parts[1], parts[2])
	case len(parts[2]) == 2:
		return fromParts(s, "20"+parts[2], parts[1], parts[0])
	case len(parts[2]) == 4:
		return fromParts(s, parts[2], parts[1], parts[0])
	default:
		return Date{}, fmt.Errorf("%w: %q is not DD-MM-YY", domain.ErrMalformedDate, s)
	}
}

// Year returns the four-digit year.
func (d Date) Year() int { return d.year }

// Month returns the month.
func (d Date) Month() time.Month { return d.month }

// Day returns the day of month.
func (d Date) Day() int { return d.day }

// IsZero reports whether d is the zero value.
func (d Date) IsZero() bool { return d == Date{} }

// Compare returns -1, 0 or +1 depending on whether d is before, equal to or after o.
func (d Date) Compare(o Date) int {
	switch {
	case d.year != o.year:
		return sign(d.year - o.year)
	case d.month != o.month:
		return sign(int(d.month) - int(o.month))
	default:
		return sign(d.day - o.day)
	}
}

// Before reports whether d is strictly before o.
func (d Date) Before(o Date) bool { return d.Compare(o) < 0 }

// After reports whether d is strictly after o.
func (d Date) After(o Date) bool { return d.Compare(o) > 0 }

// Between reports whether start <= d <= end. A reversed range matches nothing.
func (d Date) Between(start, end Date) bool {
	return d.Compare(start) >= 0 && d.Compare(end) <= 0
}

// Time returns midnight UTC of d.
func (d Date) Time() time.Time {
	return time.Date(d.year, d.month, d.day, 0, 0, 0, 0, time.UTC)
}

// String renders d as YYYY-MM-DD.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.year, d.month, d.day)
}

// MarshalText implements encoding.TextMarshaler.
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler (ISO form only).
func (d *Date) UnmarshalText(b []byte) error {
	parsed, err := ParseISO(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func split3(s string) ([]string, error) {
	parts := strings.Split(strings.TrimSpace(s), "-")
	if len(parts) != 3 {
		return nil, fmt.Errorf("%w: %q", domain.ErrMalformedDate, s)
	}
	return parts, nil
}

func fromParts(raw, y, m, d string) (Date, error) {
	year, errY := strconv.Atoi(y)
	month, errM := strconv.Atoi(m)
	day, errD := strconv.Atoi(d)
	if errY != nil || errM != nil || errD != nil {
		return Date{}, fmt.Errorf("%w: %q", domain.ErrMalformedDate, raw)
	}
	return New(year, time.Month(month), day)
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func sign(v int) int {
	switch {
	case v < 0:
		return -1
	case v > 0:
		return 1
	default:
		return 0
	}
}
