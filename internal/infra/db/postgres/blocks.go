package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	domainblocks "staycal/internal/domain/blocks"
	"staycal/internal/domain/shared/daterange"
)

const blockColumns = `id, start_date, end_date, reason, created_at`

type BlockRepository struct {
	db sqlx.ExtContext
}

func NewBlockRepository(db sqlx.ExtContext) *BlockRepository {
	return &BlockRepository{db: db}
}

func (r *BlockRepository) ByID(ctx context.Context, id domainblocks.BlockID) (*domainblocks.Block, error) {
	var row blockRow
	err := sqlx.GetContext(ctx, r.db, &row, `SELECT `+blockColumns+` FROM availability_blocks WHERE id = $1`, string(id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domainblocks.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: block by id: %w", mapError(err))
	}
	return row.toDomain(), nil
}

func (r *BlockRepository) Intersecting(ctx context.Context, dr daterange.DateRange) ([]*domainblocks.Block, error) {
	return r.selectBlocks(ctx,
		`SELECT `+blockColumns+` FROM availability_blocks WHERE start_date < $2 AND end_date > $1 ORDER BY start_date, id`,
		dr.Start, dr.End)
}

func (r *BlockRepository) All(ctx context.Context) ([]*domainblocks.Block, error) {
	return r.selectBlocks(ctx, `SELECT `+blockColumns+` FROM availability_blocks ORDER BY start_date, id`)
}

// OverlappingPairs lets the database find intersecting pairs; a is always the earlier block.
func (r *BlockRepository) OverlappingPairs(ctx context.Context) ([]domainblocks.Pair, error) {
	var rows []struct {
		A string `db:"a_id"`
		B string `db:"b_id"`
	}
	err := sqlx.SelectContext(ctx, r.db, &rows, `SELECT a.id AS a_id, b.id AS b_id
		FROM availability_blocks a
		JOIN availability_blocks b
		  ON (a.start_date, a.id) < (b.start_date, b.id)
		 AND a.start_date < b.end_date
		 AND b.start_date < a.end_date
		ORDER BY a.start_date, a.id, b.start_date, b.id`)
	if err != nil {
		return nil, fmt.Errorf("postgres: overlapping blocks: %w", mapError(err))
	}
	pairs := make([]domainblocks.Pair, 0, len(rows))
	for _, row := range rows {
		pairs = append(pairs, domainblocks.Pair{A: domainblocks.BlockID(row.A), B: domainblocks.BlockID(row.B)})
	}
	return pairs, nil
}

func (r *BlockRepository) Insert(ctx context.Context, b *domainblocks.Block) error {
	if err := b.Validate(); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO availability_blocks (`+blockColumns+`) VALUES ($1, $2, $3, $4, $5)`,
		string(b.ID), b.Range.Start, b.Range.End, b.Reason, b.CreatedAt)
	if err != nil {
		return fmt.Errorf("postgres: insert block: %w", mapError(err))
	}
	return nil
}

func (r *BlockRepository) Delete(ctx context.Context, id domainblocks.BlockID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM availability_blocks WHERE id = $1`, string(id))
	if err != nil {
		return fmt.Errorf("postgres: delete block: %w", mapError(err))
	}
	return expectOne(res, domainblocks.ErrNotFound)
}

func (r *BlockRepository) DeleteEndingBefore(ctx context.Context, day time.Time) (int, error) {
	return r.deleteWhere(ctx, `DELETE FROM availability_blocks WHERE end_date < $1`, daterange.Day(day))
}

// DeleteBySource compares the reason prefix literally; LIKE would treat '_' in source names as a wildcard.
func (r *BlockRepository) DeleteBySource(ctx context.Context, source string) (int, error) {
	tag := domainblocks.SourceTag(source)
	if tag == ":" {
		return 0, nil
	}
	return r.deleteWhere(ctx, `DELETE FROM availability_blocks WHERE lower(left(reason, length($1))) = lower($1)`, tag)
}

func (r *BlockRepository) selectBlocks(ctx context.Context, query string, args ...any) ([]*domainblocks.Block, error) {
	var rows []blockRow
	if err := sqlx.SelectContext(ctx, r.db, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("postgres: select blocks: %w", mapError(err))
	}
	out := make([]*domainblocks.Block, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *BlockRepository) deleteWhere(ctx context.Context, query string, args ...any) (int, error) {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("postgres: delete blocks: %w", mapError(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

var _ domainblocks.Repository = (*BlockRepository)(nil)
