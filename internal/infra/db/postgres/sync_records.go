package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	domainsync "staycal/internal/domain/calendarsync"
)

const syncColumns = `source, ical_url, last_synced, status, bookings_synced, last_error`

type SyncRecordRepository struct {
	db sqlx.ExtContext
}

func NewSyncRecordRepository(db sqlx.ExtContext) *SyncRecordRepository {
	return &SyncRecordRepository{db: db}
}

func (r *SyncRecordRepository) Get(ctx context.Context, source string) (*domainsync.Record, error) {
	var row syncRow
	err := sqlx.GetContext(ctx, r.db, &row, `SELECT `+syncColumns+` FROM calendar_sync WHERE source = $1`, source)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domainsync.ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: sync record: %w", mapError(err))
	}
	rec := row.toDomain()
	return &rec, nil
}

func (r *SyncRecordRepository) List(ctx context.Context) ([]domainsync.Record, error) {
	var rows []syncRow
	if err := sqlx.SelectContext(ctx, r.db, &rows, `SELECT `+syncColumns+` FROM calendar_sync ORDER BY source`); err != nil {
		return nil, fmt.Errorf("postgres: list sync records: %w", mapError(err))
	}
	out := make([]domainsync.Record, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *SyncRecordRepository) Upsert(ctx context.Context, rec domainsync.Record) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO calendar_sync (`+syncColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (source) DO UPDATE SET
			ical_url = EXCLUDED.ical_url,
			last_synced = EXCLUDED.last_synced,
			status = EXCLUDED.status,
			bookings_synced = EXCLUDED.bookings_synced,
			last_error = EXCLUDED.last_error`,
		rec.Source, rec.ICalURL, rec.LastSynced, string(rec.Status), rec.BookingsSynced, rec.LastError)
	if err != nil {
		return fmt.Errorf("postgres: upsert sync record: %w", mapError(err))
	}
	return nil
}

var _ domainsync.Repository = (*SyncRecordRepository)(nil)
