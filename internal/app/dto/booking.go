package dto

import (
	"time"

	"staycal/internal/domain/booking"
	"staycal/internal/domain/shared/daterange"
)

type Booking struct {
	ID               string     `json:"id"`
	CheckIn          string     `json:"check_in_date"`
	CheckOut         string     `json:"check_out_date"`
	Nights           int        `json:"nights"`
	Status           string     `json:"status"`
	GuestsCount      int        `json:"guests_count"`
	TotalPrice       string     `json:"total_price"`
	Currency         string     `json:"currency"`
	GuestName        string     `json:"guest_name"`
	GuestEmail       string     `json:"guest_email"`
	GuestPhone       string     `json:"guest_phone,omitempty"`
	Notes            string     `json:"notes,omitempty"`
	Source           string     `json:"source"`
	PaymentMethod    string     `json:"payment_method,omitempty"`
	PaymentReference string     `json:"payment_reference,omitempty"`
	PaidAt           *time.Time `json:"paid_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

type BookingCollection struct {
	Items []Booking `json:"items"`
}

func MapBooking(b *booking.Booking) Booking {
	out := Booking{
		ID:               string(b.ID),
		CheckIn:          daterange.FormatDay(b.Range.Start),
		CheckOut:         daterange.FormatDay(b.Range.End),
		Nights:           b.Range.Nights(),
		Status:           string(b.Status),
		GuestsCount:      b.GuestsCount,
		TotalPrice:       b.TotalPrice.StringFixed(2),
		Currency:         b.Currency,
		GuestName:        b.Guest.Name,
		GuestEmail:       b.Guest.Email,
		GuestPhone:       b.Guest.Phone,
		Notes:            b.Notes,
		Source:           string(b.Source),
		PaymentMethod:    b.Payment.Method,
		PaymentReference: b.Payment.Reference,
		CreatedAt:        b.CreatedAt,
		UpdatedAt:        b.UpdatedAt,
	}
	if b.Payment.Paid() {
		paid := b.Payment.PaidAt
		out.PaidAt = &paid
	}
	return out
}

func MapBookings(list []*booking.Booking) BookingCollection {
	items := make([]Booking, 0, len(list))
	for _, b := range list {
		items = append(items, MapBooking(b))
	}
	return BookingCollection{Items: items}
}
