package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	domainbooking "staycal/internal/domain/booking"
	"staycal/internal/domain/shared/daterange"
)

const bookingColumns = `id, check_in, check_out, status, guests_count, total_price, currency,
	payment_method, payment_reference, paid_at, guest_name, guest_email, guest_phone, notes,
	source, created_at, updated_at`

type BookingRepository struct {
	db sqlx.ExtContext
}

func NewBookingRepository(db sqlx.ExtContext) *BookingRepository {
	return &BookingRepository{db: db}
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	var row bookingRow
	err := sqlx.GetContext(ctx, r.db, &row, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, string(id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domainbooking.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: booking by id: %w", mapError(err))
	}
	return row.toDomain(), nil
}

func (r *BookingRepository) Intersecting(ctx context.Context, dr daterange.DateRange) ([]*domainbooking.Booking, error) {
	var rows []bookingRow
	err := sqlx.SelectContext(ctx, r.db, &rows,
		`SELECT `+bookingColumns+` FROM bookings WHERE check_in < $2 AND check_out > $1 ORDER BY check_in, id`,
		dr.Start, dr.End)
	if err != nil {
		return nil, fmt.Errorf("postgres: intersecting bookings: %w", mapError(err))
	}
	out := make([]*domainbooking.Booking, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *BookingRepository) Insert(ctx context.Context, b *domainbooking.Booking) error {
	if err := b.Range.Validate(); err != nil {
		return err
	}
	row := newBookingRow(b)
	_, err := r.db.ExecContext(ctx, `INSERT INTO bookings (`+bookingColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		row.ID, row.CheckIn, row.CheckOut, row.Status, row.GuestsCount, row.TotalPrice, row.Currency,
		row.PaymentMethod, row.PaymentReference, row.PaidAt, row.GuestName, row.GuestEmail, row.GuestPhone,
		row.Notes, row.Source, row.CreatedAt, row.UpdatedAt)
	if err != nil {
		return fmt.Errorf("postgres: insert booking: %w", mapError(err))
	}
	return nil
}

func (r *BookingRepository) Update(ctx context.Context, b *domainbooking.Booking) error {
	if err := b.Range.Validate(); err != nil {
		return err
	}
	row := newBookingRow(b)
	res, err := r.db.ExecContext(ctx, `UPDATE bookings SET check_in = $2, check_out = $3, status = $4,
		guests_count = $5, total_price = $6, currency = $7, payment_method = $8, payment_reference = $9,
		paid_at = $10, guest_name = $11, guest_email = $12, guest_phone = $13, notes = $14, source = $15,
		updated_at = $16 WHERE id = $1`,
		row.ID, row.CheckIn, row.CheckOut, row.Status, row.GuestsCount, row.TotalPrice, row.Currency,
		row.PaymentMethod, row.PaymentReference, row.PaidAt, row.GuestName, row.GuestEmail, row.GuestPhone,
		row.Notes, row.Source, row.UpdatedAt)
	if err != nil {
		return fmt.Errorf("postgres: update booking: %w", mapError(err))
	}
	return expectOne(res, domainbooking.ErrNotFound)
}

func (r *BookingRepository) Delete(ctx context.Context, id domainbooking.BookingID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM bookings WHERE id = $1`, string(id))
	if err != nil {
		return fmt.Errorf("postgres: delete booking: %w", mapError(err))
	}
	return expectOne(res, domainbooking.ErrNotFound)
}

func expectOne(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}

var _ domainbooking.Repository = (*BookingRepository)(nil)
