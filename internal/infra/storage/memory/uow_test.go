package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staycal/internal/app/uow"
	domainblocks "staycal/internal/domain/blocks"
	domainsync "staycal/internal/domain/calendarsync"
	"staycal/internal/domain/shared/daterange"
	"staycal/internal/infra/storage/memory"
)

var now = time.Date(2024, 2, 10, 9, 0, 0, 0, time.UTC)

func block(t *testing.T, id, start, end string) *domainblocks.Block {
	t.Helper()
	dr, err := daterange.Parse(start, end)
	require.NoError(t, err)
	b, err := domainblocks.New(domainblocks.BlockID(id), dr, "Manual: Owner stay", now)
	require.NoError(t, err)
	return b
}

func TestRollbackRestoresStateFromBegin(t *testing.T) {
	ctx := context.Background()
	f := memory.NewFactory()
	require.NoError(t, f.Blocks.Insert(ctx, block(t, "keep", "2024-03-01", "2024-03-03")))

	unit, err := f.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)
	require.NoError(t, unit.Blocks().Insert(ctx, block(t, "new", "2024-04-01", "2024-04-03")))
	require.NoError(t, unit.Blocks().Delete(ctx, "keep"))
	require.NoError(t, unit.SyncRecords().Upsert(ctx, domainsync.Record{Source: "airbnb"}))
	require.NoError(t, unit.Rollback(ctx))

	all, err := f.Blocks.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, domainblocks.BlockID("keep"), all[0].ID)
	_, err = f.SyncRecords.Get(ctx, "airbnb")
	assert.ErrorIs(t, err, domainsync.ErrRecordNotFound)
}

func TestCommitKeepsWrites(t *testing.T) {
	ctx := context.Background()
	f := memory.NewFactory()

	unit, err := f.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)
	require.NoError(t, unit.Blocks().Insert(ctx, block(t, "new", "2024-04-01", "2024-04-03")))
	require.NoError(t, unit.Commit(ctx))
	require.NoError(t, unit.Rollback(ctx))

	_, err = f.Blocks.ByID(ctx, "new")
	assert.NoError(t, err)
}

func TestWithinRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	f := memory.NewFactory()

	err := uow.Within(ctx, f, uow.TxOptions{}, func(ctx context.Context, unit uow.UnitOfWork) error {
		if err := unit.Blocks().Insert(ctx, block(t, "new", "2024-04-01", "2024-04-03")); err != nil {
			return err
		}
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	all, err := f.Blocks.All(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}
