package availability

import (
	"context"

	"staycal/internal/app/uow"
	domainavailability "staycal/internal/domain/availability"
	"staycal/internal/domain/shared/daterange"
)

// LoadSnapshot reads every booking and block that can influence a resolution of dr,
// including the look-back day used for boundary flags.
func LoadSnapshot(ctx context.Context, unit uow.UnitOfWork, dr daterange.DateRange) (domainavailability.Snapshot, error) {
	window := domainavailability.LookbackRange(dr)
	bookings, err := unit.Bookings().Intersecting(ctx, window)
	if err != nil {
		return domainavailability.Snapshot{}, err
	}
	blocks, err := unit.Blocks().Intersecting(ctx, window)
	if err != nil {
		return domainavailability.Snapshot{}, err
	}
	return domainavailability.Snapshot{Bookings: bookings, Blocks: blocks}, nil
}
