package booking

import "time"

type BookingCreated struct {
	BookingID  BookingID `json:"booking_id"`
	CheckIn    string    `json:"check_in"`
	CheckOut   string    `json:"check_out"`
	Status     Status    `json:"status"`
	Guests     int       `json:"guests_count"`
	TotalPrice string    `json:"total_price"`
	Currency   string    `json:"currency"`
	GuestEmail string    `json:"guest_email"`
	At         time.Time `json:"at"`
}

func (e BookingCreated) EventName() string     { return "booking.created" }
func (e BookingCreated) AggregateID() string   { return string(e.BookingID) }
func (e BookingCreated) OccurredAt() time.Time { return e.At }

type BookingStatusChanged struct {
	BookingID BookingID `json:"booking_id"`
	From      Status    `json:"from"`
	To        Status    `json:"to"`
	At        time.Time `json:"at"`
}

func (e BookingStatusChanged) EventName() string     { return "booking.status_changed" }
func (e BookingStatusChanged) AggregateID() string   { return string(e.BookingID) }
func (e BookingStatusChanged) OccurredAt() time.Time { return e.At }

type PaymentConfirmed struct {
	BookingID BookingID `json:"booking_id"`
	Method    string    `json:"payment_method"`
	Reference string    `json:"payment_reference"`
	At        time.Time `json:"at"`
}

func (e PaymentConfirmed) EventName() string     { return "booking.payment_confirmed" }
func (e PaymentConfirmed) AggregateID() string   { return string(e.BookingID) }
func (e PaymentConfirmed) OccurredAt() time.Time { return e.At }

type BookingDeleted struct {
	BookingID BookingID `json:"booking_id"`
	Status    Status    `json:"status"`
	At        time.Time `json:"at"`
}

func (e BookingDeleted) EventName() string     { return "booking.deleted" }
func (e BookingDeleted) AggregateID() string   { return string(e.BookingID) }
func (e BookingDeleted) OccurredAt() time.Time { return e.At }
