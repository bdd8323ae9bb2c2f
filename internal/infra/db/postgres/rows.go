package postgres

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"

	domainblocks "staycal/internal/domain/blocks"
	domainbooking "staycal/internal/domain/booking"
	domainsync "staycal/internal/domain/calendarsync"
	"staycal/internal/domain/shared/daterange"
)

type bookingRow struct {
	ID               string          `db:"id"`
	CheckIn          time.Time       `db:"check_in"`
	CheckOut         time.Time       `db:"check_out"`
	Status           string          `db:"status"`
	GuestsCount      int             `db:"guests_count"`
	TotalPrice       decimal.Decimal `db:"total_price"`
	Currency         string          `db:"currency"`
	PaymentMethod    string          `db:"payment_method"`
	PaymentReference string          `db:"payment_reference"`
	PaidAt           sql.NullTime    `db:"paid_at"`
	GuestName        string          `db:"guest_name"`
	GuestEmail       string          `db:"guest_email"`
	GuestPhone       string          `db:"guest_phone"`
	Notes            string          `db:"notes"`
	Source           string          `db:"source"`
	CreatedAt        time.Time       `db:"created_at"`
	UpdatedAt        time.Time       `db:"updated_at"`
}

func newBookingRow(b *domainbooking.Booking) bookingRow {
	return bookingRow{
		ID:               string(b.ID),
		CheckIn:          b.Range.Start,
		CheckOut:         b.Range.End,
		Status:           string(b.Status),
		GuestsCount:      b.GuestsCount,
		TotalPrice:       b.TotalPrice,
		Currency:         b.Currency,
		PaymentMethod:    b.Payment.Method,
		PaymentReference: b.Payment.Reference,
		PaidAt:           sql.NullTime{Time: b.Payment.PaidAt, Valid: b.Payment.Paid()},
		GuestName:        b.Guest.Name,
		GuestEmail:       b.Guest.Email,
		GuestPhone:       b.Guest.Phone,
		Notes:            b.Notes,
		Source:           string(b.Source),
		CreatedAt:        b.CreatedAt,
		UpdatedAt:        b.UpdatedAt,
	}
}

func (r bookingRow) toDomain() *domainbooking.Booking {
	b := &domainbooking.Booking{
		ID:          domainbooking.BookingID(r.ID),
		Range:       daterange.DateRange{Start: daterange.Day(r.CheckIn), End: daterange.Day(r.CheckOut)},
		Status:      domainbooking.Status(r.Status),
		GuestsCount: r.GuestsCount,
		TotalPrice:  r.TotalPrice,
		Currency:    r.Currency,
		Payment:     domainbooking.Payment{Method: r.PaymentMethod, Reference: r.PaymentReference},
		Guest:       domainbooking.Guest{Name: r.GuestName, Email: r.GuestEmail, Phone: r.GuestPhone},
		Notes:       r.Notes,
		Source:      domainbooking.Source(r.Source),
		CreatedAt:   r.CreatedAt.UTC(),
		UpdatedAt:   r.UpdatedAt.UTC(),
	}
	if r.PaidAt.Valid {
		b.Payment.PaidAt = r.PaidAt.Time.UTC()
	}
	return b
}

type blockRow struct {
	ID        string    `db:"id"`
	StartDate time.Time `db:"start_date"`
	EndDate   time.Time `db:"end_date"`
	Reason    string    `db:"reason"`
	CreatedAt time.Time `db:"created_at"`
}

func (r blockRow) toDomain() *domainblocks.Block {
	return &domainblocks.Block{
		ID:        domainblocks.BlockID(r.ID),
		Range:     daterange.DateRange{Start: daterange.Day(r.StartDate), End: daterange.Day(r.EndDate)},
		Reason:    r.Reason,
		CreatedAt: r.CreatedAt.UTC(),
	}
}

type syncRow struct {
	Source         string    `db:"source"`
	ICalURL        string    `db:"ical_url"`
	LastSynced     time.Time `db:"last_synced"`
	Status         string    `db:"status"`
	BookingsSynced int       `db:"bookings_synced"`
	LastError      string    `db:"last_error"`
}

func (r syncRow) toDomain() domainsync.Record {
	return domainsync.Record{
		Source:         r.Source,
		ICalURL:        r.ICalURL,
		LastSynced:     r.LastSynced.UTC(),
		Status:         domainsync.Status(r.Status),
		BookingsSynced: r.BookingsSynced,
		LastError:      r.LastError,
	}
}
