package availability

import (
	"errors"
	"fmt"
	"time"

	"staycal/internal/domain/blocks"
	"staycal/internal/domain/booking"
	"staycal/internal/domain/shared/daterange"
)

var ErrDateUnavailable = errors.New("availability: date unavailable")

const (
	ReasonBooked       = "booked"
	ReasonBeyondWindow = "beyond booking window"
)

type Status string

const (
	StatusAvailable    Status = "available"
	StatusBooked       Status = "booked"
	StatusBlocked      Status = "blocked"
	StatusBeyondWindow Status = "beyond_window"
)

// Day is the resolved state of one calendar date.
type Day struct {
	Date        time.Time
	Available   bool
	Status      Status
	Reason      string
	CheckInDay  bool
	CheckOutDay bool
}

// Snapshot is the slice of stored intervals a resolution runs against.
type Snapshot struct {
	Bookings []*booking.Booking
	Blocks   []*blocks.Block
}

// ConflictError names the first date that prevents a stay.
type ConflictError struct {
	Date time.Time
}

func (e *ConflictError) Error() string {
	return "date unavailable: " + daterange.FormatDay(e.Date)
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrDateUnavailable
}

// Resolver classifies dates. It holds no state besides its policy and is safe for concurrent use.
type Resolver struct {
	Policy Policy
}

func NewResolver(p Policy) Resolver {
	return Resolver{Policy: p}
}

// Resolve returns one Day per date of dr. The day before dr.Start is resolved as well so that
// the first date gets correct boundary flags.
func (r Resolver) Resolve(dr daterange.DateRange, asOf time.Time, snap Snapshot) ([]Day, error) {
	if err := dr.Validate(); err != nil {
		return nil, err
	}
	maxDate := r.Policy.MaxBookingDate(asOf)
	prev := r.classify(dr.Start.AddDate(0, 0, -1), maxDate, snap)
	out := make([]Day, 0, dr.Nights())
	for _, d := range dr.Days() {
		day := r.classify(d, maxDate, snap)
		day.CheckOutDay = day.Available && !prev.Available
		day.CheckInDay = !day.Available && prev.Available
		out = append(out, day)
		prev = day
	}
	return out, nil
}

// IsAvailable applies the same precedence as Resolve to a single date.
func (r Resolver) IsAvailable(date, asOf time.Time, snap Snapshot) bool {
	return r.classify(daterange.Day(date), r.Policy.MaxBookingDate(asOf), snap).Available
}

// FirstConflict returns a ConflictError for the first night of dr that is not available.
func (r Resolver) FirstConflict(dr daterange.DateRange, asOf time.Time, snap Snapshot) error {
	if err := dr.Validate(); err != nil {
		return err
	}
	maxDate := r.Policy.MaxBookingDate(asOf)
	for _, d := range dr.Days() {
		if !r.classify(d, maxDate, snap).Available {
			return &ConflictError{Date: d}
		}
	}
	return nil
}

func (r Resolver) classify(d, maxDate time.Time, snap Snapshot) Day {
	if d.After(maxDate) {
		return Day{Date: d, Status: StatusBeyondWindow, Reason: ReasonBeyondWindow}
	}
	for _, b := range snap.Bookings {
		if b != nil && r.Policy.Occupies(b.Status) && b.Range.ContainsDate(d) {
			return Day{Date: d, Status: StatusBooked, Reason: ReasonBooked}
		}
	}
	for _, blk := range snap.Blocks {
		if blk != nil && blk.Range.ContainsDate(d) {
			return Day{Date: d, Status: StatusBlocked, Reason: blk.Reason}
		}
	}
	return Day{Date: d, Available: true, Status: StatusAvailable}
}

// Without returns a copy of the snapshot minus the booking with id.
func (s Snapshot) Without(id booking.BookingID) Snapshot {
	out := Snapshot{Blocks: s.Blocks}
	for _, b := range s.Bookings {
		if b.ID != id {
			out.Bookings = append(out.Bookings, b)
		}
	}
	return out
}

// LookbackRange widens dr by one day at the front, which is what Resolve reads.
func LookbackRange(dr daterange.DateRange) daterange.DateRange {
	return daterange.DateRange{Start: dr.Start.AddDate(0, 0, -1), End: dr.End}
}

func (d Day) String() string {
	return fmt.Sprintf("%s %s", daterange.FormatDay(d.Date), d.Status)
}
