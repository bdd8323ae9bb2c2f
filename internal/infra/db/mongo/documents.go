package mongo

import (
	"time"

	"github.com/shopspring/decimal"

	domainblocks "staycal/internal/domain/blocks"
	domainbooking "staycal/internal/domain/booking"
	domainsync "staycal/internal/domain/calendarsync"
	"staycal/internal/domain/shared/daterange"
)

type bookingDocument struct {
	ID               string     `bson:"_id"`
	CheckIn          time.Time  `bson:"check_in"`
	CheckOut         time.Time  `bson:"check_out"`
	Status           string     `bson:"status"`
	GuestsCount      int        `bson:"guests_count"`
	TotalPrice       string     `bson:"total_price"`
	Currency         string     `bson:"currency"`
	PaymentMethod    string     `bson:"payment_method,omitempty"`
	PaymentReference string     `bson:"payment_reference,omitempty"`
	PaidAt           *time.Time `bson:"paid_at,omitempty"`
	GuestName        string     `bson:"guest_name"`
	GuestEmail       string     `bson:"guest_email"`
	GuestPhone       string     `bson:"guest_phone,omitempty"`
	Notes            string     `bson:"notes,omitempty"`
	Source           string     `bson:"source"`
	CreatedAt        time.Time  `bson:"created_at"`
	UpdatedAt        time.Time  `bson:"updated_at"`
}

func newBookingDocument(b *domainbooking.Booking) bookingDocument {
	doc := bookingDocument{
		ID:               string(b.ID),
		CheckIn:          b.Range.Start,
		CheckOut:         b.Range.End,
		Status:           string(b.Status),
		GuestsCount:      b.GuestsCount,
		TotalPrice:       b.TotalPrice.String(),
		Currency:         b.Currency,
		PaymentMethod:    b.Payment.Method,
		PaymentReference: b.Payment.Reference,
		GuestName:        b.Guest.Name,
		GuestEmail:       b.Guest.Email,
		GuestPhone:       b.Guest.Phone,
		Notes:            b.Notes,
		Source:           string(b.Source),
		CreatedAt:        b.CreatedAt.UTC(),
		UpdatedAt:        b.UpdatedAt.UTC(),
	}
	if b.Payment.Paid() {
		paid := b.Payment.PaidAt.UTC()
		doc.PaidAt = &paid
	}
	return doc
}

func (d bookingDocument) toAggregate() (*domainbooking.Booking, error) {
	price := decimal.Zero
	if d.TotalPrice != "" {
		var err error
		if price, err = decimal.NewFromString(d.TotalPrice); err != nil {
			return nil, err
		}
	}
	b := &domainbooking.Booking{
		ID:          domainbooking.BookingID(d.ID),
		Range:       daterange.DateRange{Start: daterange.Day(d.CheckIn), End: daterange.Day(d.CheckOut)},
		Status:      domainbooking.Status(d.Status),
		GuestsCount: d.GuestsCount,
		TotalPrice:  price,
		Currency:    d.Currency,
		Payment:     domainbooking.Payment{Method: d.PaymentMethod, Reference: d.PaymentReference},
		Guest:       domainbooking.Guest{Name: d.GuestName, Email: d.GuestEmail, Phone: d.GuestPhone},
		Notes:       d.Notes,
		Source:      domainbooking.Source(d.Source),
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
	}
	if d.PaidAt != nil {
		b.Payment.PaidAt = d.PaidAt.UTC()
	}
	return b, nil
}

type blockDocument struct {
	ID        string    `bson:"_id"`
	StartDate time.Time `bson:"start_date"`
	EndDate   time.Time `bson:"end_date"`
	Reason    string    `bson:"reason"`
	CreatedAt time.Time `bson:"created_at"`
}

func newBlockDocument(b *domainblocks.Block) blockDocument {
	return blockDocument{
		ID:        string(b.ID),
		StartDate: b.Range.Start,
		EndDate:   b.Range.End,
		Reason:    b.Reason,
		CreatedAt: b.CreatedAt.UTC(),
	}
}

func (d blockDocument) toAggregate() *domainblocks.Block {
	return &domainblocks.Block{
		ID:        domainblocks.BlockID(d.ID),
		Range:     daterange.DateRange{Start: daterange.Day(d.StartDate), End: daterange.Day(d.EndDate)},
		Reason:    d.Reason,
		CreatedAt: d.CreatedAt.UTC(),
	}
}

type syncDocument struct {
	Source         string    `bson:"_id"`
	ICalURL        string    `bson:"ical_url"`
	LastSynced     time.Time `bson:"last_synced"`
	Status         string    `bson:"status"`
	BookingsSynced int       `bson:"bookings_synced"`
	LastError      string    `bson:"last_error,omitempty"`
}

func newSyncDocument(rec domainsync.Record) syncDocument {
	return syncDocument{
		Source:         rec.Source,
		ICalURL:        rec.ICalURL,
		LastSynced:     rec.LastSynced.UTC(),
		Status:         string(rec.Status),
		BookingsSynced: rec.BookingsSynced,
		LastError:      rec.LastError,
	}
}

func (d syncDocument) toRecord() domainsync.Record {
	return domainsync.Record{
		Source:         d.Source,
		ICalURL:        d.ICalURL,
		LastSynced:     d.LastSynced.UTC(),
		Status:         domainsync.Status(d.Status),
		BookingsSynced: d.BookingsSynced,
		LastError:      d.LastError,
	}
}
