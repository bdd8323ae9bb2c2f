package daterange

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Layout is the wire format for calendar days.
const Layout = "2006-01-02"

var (
	ErrInvalidRange = errors.New("daterange: end must be after start")
	ErrInvalidDay   = errors.New("daterange: invalid day")
)

// DateRange is a half-open interval of calendar days [Start, End).
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Day drops the time-of-day of t and returns midnight UTC of the same calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ParseDay(s string) (time.Time, error) {
	t, err := time.Parse(Layout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDay, s)
	}
	return t, nil
}

func FormatDay(t time.Time) string {
	return Day(t).Format(Layout)
}

// New normalises both bounds to calendar days and rejects empty or reversed ranges.
func New(start, end time.Time) (DateRange, error) {
	dr := DateRange{Start: Day(start), End: Day(end)}
	if err := dr.Validate(); err != nil {
		return DateRange{}, err
	}
	return dr, nil
}

// Parse builds a range from two YYYY-MM-DD strings.
func Parse(start, end string) (DateRange, error) {
	s, err := ParseDay(start)
	if err != nil {
		return DateRange{}, err
	}
	e, err := ParseDay(end)
	if err != nil {
		return DateRange{}, err
	}
	return New(s, e)
}

func (dr DateRange) Validate() error {
	if dr.Start.IsZero() || dr.End.IsZero() {
		return ErrInvalidRange
	}
	if !dr.End.After(dr.Start) {
		return ErrInvalidRange
	}
	return nil
}

func (dr DateRange) Nights() int {
	return int(dr.End.Sub(dr.Start).Hours() / 24)
}

func (dr DateRange) Overlaps(other DateRange) bool {
	return dr.Start.Before(other.End) && other.Start.Before(dr.End)
}

func (dr DateRange) Contains(other DateRange) bool {
	return !other.Start.Before(dr.Start) && !other.End.After(dr.End)
}

// ContainsDate reports start <= day(t) < end.
func (dr DateRange) ContainsDate(t time.Time) bool {
	d := Day(t)
	return !d.Before(dr.Start) && d.Before(dr.End)
}

func (dr DateRange) Adjacent(other DateRange) bool {
	return dr.End.Equal(other.Start) || dr.Start.Equal(other.End)
}

func (dr DateRange) Merge(other DateRange) (DateRange, bool) {
	if !(dr.Overlaps(other) || dr.Adjacent(other)) {
		return DateRange{}, false
	}
	start := dr.Start
	if other.Start.Before(start) {
		start = other.Start
	}
	end := dr.End
	if other.End.After(end) {
		end = other.End
	}
	return DateRange{Start: start, End: end}, true
}

// Days lists every calendar day in the range, end excluded.
func (dr DateRange) Days() []time.Time {
	if dr.Validate() != nil {
		return nil
	}
	out := make([]time.Time, 0, dr.Nights())
	for d := dr.Start; d.Before(dr.End); d = d.AddDate(0, 0, 1) {
		out = append(out, d)
	}
	return out
}

// Key identifies a range by its bounds, "2024-01-10_2024-01-13".
func (dr DateRange) Key() string {
	return FormatDay(dr.Start) + "_" + FormatDay(dr.End)
}

func (dr DateRange) String() string {
	return "[" + FormatDay(dr.Start) + ", " + FormatDay(dr.End) + ")"
}
