package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"staycal/internal/domain/shared/daterange"
	"staycal/internal/domain/shared/events"
)

var (
	ErrNotFound          = errors.New("booking: not found")
	ErrInvalidGuests     = errors.New("booking: guests count out of range")
	ErrInvalidTransition = errors.New("booking: invalid status transition")
	ErrInvalidStatus     = errors.New("booking: unknown status")
	ErrInvalidSource     = errors.New("booking: unknown source")
	ErrCheckInInPast     = errors.New("booking: check-in date is in the past")
	ErrGuestRequired     = errors.New("booking: guest name and email required")
)

type BookingID string

type Status string

const (
	StatusInquiry   Status = "inquiry"
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	switch st {
	case StatusInquiry, StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted:
		return st, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

// Terminal statuses accept no further transitions.
func (s Status) Terminal() bool {
	return s == StatusCancelled || s == StatusCompleted
}

type Source string

const (
	SourceWebsite  Source = "website"
	SourceExternal Source = "external"
	SourceManual   Source = "manual"
)

func ParseSource(s string) (Source, error) {
	src := Source(strings.ToLower(strings.TrimSpace(s)))
	switch src {
	case "":
		return SourceWebsite, nil
	case SourceWebsite, SourceExternal, SourceManual:
		return src, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidSource, s)
}

type Guest struct {
	Name  string
	Email string
	Phone string
}

type Payment struct {
	Method    string
	Reference string
	PaidAt    time.Time
}

func (p Payment) Paid() bool {
	return !p.PaidAt.IsZero()
}

type Booking struct {
	ID          BookingID
	Range       daterange.DateRange
	Status      Status
	GuestsCount int
	TotalPrice  decimal.Decimal
	Currency    string
	Payment     Payment
	Guest       Guest
	Notes       string
	Source      Source
	CreatedAt   time.Time
	UpdatedAt   time.Time
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id BookingID) (*Booking, error)
	// Intersecting returns bookings of any status whose stay intersects r.
	Intersecting(ctx context.Context, r daterange.DateRange) ([]*Booking, error)
	Insert(ctx context.Context, b *Booking) error
	Update(ctx context.Context, b *Booking) error
	Delete(ctx context.Context, id BookingID) error
}

type CreateParams struct {
	ID          BookingID
	Range       daterange.DateRange
	GuestsCount int
	MaxGuests   int
	TotalPrice  decimal.Decimal
	Currency    string
	Guest       Guest
	Notes       string
	Source      Source
	Status      Status
	CreatedAt   time.Time
}

func NewBooking(p CreateParams) (*Booking, error) {
	if err := p.Range.Validate(); err != nil {
		return nil, err
	}
	if p.GuestsCount < 1 || (p.MaxGuests > 0 && p.GuestsCount > p.MaxGuests) {
		return nil, ErrInvalidGuests
	}
	if strings.TrimSpace(p.Guest.Name) == "" || strings.TrimSpace(p.Guest.Email) == "" {
		return nil, ErrGuestRequired
	}
	status := p.Status
	if status == "" {
		status = StatusPending
	}
	source := p.Source
	if source == "" {
		source = SourceWebsite
	}
	now := p.CreatedAt.UTC()
	b := &Booking{
		ID:          p.ID,
		Range:       p.Range,
		Status:      status,
		GuestsCount: p.GuestsCount,
		TotalPrice:  p.TotalPrice,
		Currency:    p.Currency,
		Guest:       p.Guest,
		Notes:       p.Notes,
		Source:      source,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	b.Record(BookingCreated{
		BookingID:  b.ID,
		CheckIn:    daterange.FormatDay(b.Range.Start),
		CheckOut:   daterange.FormatDay(b.Range.End),
		Status:     b.Status,
		Guests:     b.GuestsCount,
		TotalPrice: b.TotalPrice.StringFixed(2),
		Currency:   b.Currency,
		GuestEmail: b.Guest.Email,
		At:         now,
	})
	return b, nil
}

var transitions = map[Status][]Status{
	StatusInquiry:   {StatusPending, StatusConfirmed, StatusCancelled},
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCompleted, StatusCancelled},
}

// CanTransition reports whether from -> to is an allowed lifecycle step.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ChangeStatus moves the booking along its lifecycle. Setting the current status is a no-op.
func (b *Booking) ChangeStatus(to Status, now time.Time) error {
	if b.Status == to {
		return nil
	}
	if !CanTransition(b.Status, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, b.Status, to)
	}
	from := b.Status
	b.Status = to
	b.UpdatedAt = now.UTC()
	b.Record(BookingStatusChanged{BookingID: b.ID, From: from, To: to, At: b.UpdatedAt})
	return nil
}

// ConfirmPayment stores the payment metadata and confirms the booking.
func (b *Booking) ConfirmPayment(method, reference string, now time.Time) error {
	if b.Status.Terminal() {
		return fmt.Errorf("%w: payment on %s booking", ErrInvalidTransition, b.Status)
	}
	b.Payment = Payment{Method: method, Reference: reference, PaidAt: now.UTC()}
	if err := b.ChangeStatus(StatusConfirmed, now); err != nil {
		return err
	}
	b.UpdatedAt = now.UTC()
	b.Record(PaymentConfirmed{BookingID: b.ID, Method: method, Reference: reference, At: b.UpdatedAt})
	return nil
}

// MarkDeleted records the admin removal; the caller deletes the row.
func (b *Booking) MarkDeleted(now time.Time) {
	b.Record(BookingDeleted{BookingID: b.ID, Status: b.Status, At: now.UTC()})
}

// ValidateCheckIn rejects stays starting before today.
func ValidateCheckIn(dr daterange.DateRange, now time.Time) error {
	if dr.Start.Before(daterange.Day(now)) {
		return ErrCheckInInPast
	}
	return nil
}
