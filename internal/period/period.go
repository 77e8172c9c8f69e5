// Package period provides the year-month value identifying a billing cycle.
//
// A Period is the unit every receipt, payment and archive path hangs off:
// it parses from and renders to the canonical "YYYY-MM" form, orders
// chronologically, and exposes the calendar bounds of the month for
// receipt labels.
package period

import (
	"errors"
	"fmt"
	"regexp"
	"time"
)

var (
	// ErrInvalidFormat is returned when a period string does not match YYYY-MM.
	ErrInvalidFormat = errors.New("invalid period format, expected YYYY-MM")

	// ErrInvalidRange is returned when the month component is outside 01-12.
	ErrInvalidRange = errors.New("invalid period month, must be between 01 and 12")
)

var periodPattern = regexp.MustCompile(`^\d{4}-\d{2}$`)

// Period is an immutable year-month value.
type Period struct {
	year  int
	month int
}

// Parse builds a Period from its canonical "YYYY-MM" textual form.
func Parse(value string) (Period, error) {
	if !periodPattern.MatchString(value) {
		return Period{}, fmt.Errorf("%w: %q", ErrInvalidFormat, value)
	}

	var year, month int
	if _, err := fmt.Sscanf(value, "%4d-%2d", &year, &month); err != nil {
		return Period{}, fmt.Errorf("%w: %q", ErrInvalidFormat, value)
	}

	if month < 1 || month > 12 {
		return Period{}, fmt.Errorf("%w: %q", ErrInvalidRange, value)
	}

	return Period{year: year, month: month}, nil
}

// Current returns the period of the present month in the given location.
func Current(loc *time.Location) Period {
	now := time.Now().In(loc)
	return Period{year: now.Year(), month: int(now.Month())}
}

// String renders the canonical "YYYY-MM" form. Parse(p.String()) == p for
// every valid period.
func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.year, p.month)
}

// Year returns the year component.
func (p Period) Year() int { return p.year }

// Month returns the month component (1-12).
func (p Period) Month() int { return p.month }

// Compare orders periods chronologically. It returns a negative value if p
// precedes other, zero if equal, positive if p follows other.
func (p Period) Compare(other Period) int {
	if p.year != other.year {
		return p.year - other.year
	}
	return p.month - other.month
}

// Start returns the first calendar day of the period.
func (p Period) Start() time.Time {
	return time.Date(p.year, time.Month(p.month), 1, 0, 0, 0, 0, time.UTC)
}

// End returns the last calendar day of the period.
func (p Period) End() time.Time {
	return p.Start().AddDate(0, 1, -1)
}
