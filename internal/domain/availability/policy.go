package availability

import (
	"errors"
	"fmt"
	"time"

	"staycal/internal/domain/booking"
	"staycal/internal/domain/shared/daterange"
)

const DefaultWindowMonths = 12

var ErrInvalidPolicy = errors.New("availability: invalid policy")

// Policy holds the knobs of the resolver: how far ahead dates can be booked and which
// booking statuses occupy dates.
type Policy struct {
	WindowMonths int
	occupying    map[booking.Status]struct{}
}

func DefaultPolicy() Policy {
	p, _ := NewPolicy(DefaultWindowMonths, []booking.Status{booking.StatusConfirmed, booking.StatusPending})
	return p
}

func NewPolicy(windowMonths int, occupying []booking.Status) (Policy, error) {
	if windowMonths < 1 {
		return Policy{}, fmt.Errorf("%w: window must be at least one month", ErrInvalidPolicy)
	}
	if len(occupying) == 0 {
		return Policy{}, fmt.Errorf("%w: no occupying statuses", ErrInvalidPolicy)
	}
	set := make(map[booking.Status]struct{}, len(occupying))
	for _, s := range occupying {
		set[s] = struct{}{}
	}
	return Policy{WindowMonths: windowMonths, occupying: set}, nil
}

func (p Policy) Occupies(s booking.Status) bool {
	_, ok := p.occupying[s]
	return ok
}

// OccupyingStatuses lists the configured statuses in lifecycle order.
func (p Policy) OccupyingStatuses() []booking.Status {
	var out []booking.Status
	for _, s := range []booking.Status{
		booking.StatusInquiry, booking.StatusPending, booking.StatusConfirmed,
		booking.StatusCancelled, booking.StatusCompleted,
	} {
		if p.Occupies(s) {
			out = append(out, s)
		}
	}
	return out
}

// MaxBookingDate is the last bookable day: today(asOf) + window - 1 day.
func (p Policy) MaxBookingDate(asOf time.Time) time.Time {
	months := p.WindowMonths
	if months < 1 {
		months = DefaultWindowMonths
	}
	return daterange.Day(asOf).AddDate(0, months, -1)
}
