package availability

import (
	"context"
	"errors"
	"time"

	"staycal/internal/app/dto"
	"staycal/internal/app/policies"
	"staycal/internal/app/queries"
	"staycal/internal/app/uow"
	domainavailability "staycal/internal/domain/availability"
	"staycal/internal/domain/shared/daterange"
)

const getAvailabilityKey = "availability.get"

// MaxQueryDays caps the length of a single availability query.
const MaxQueryDays = 731

var ErrRangeTooLong = errors.New("availability: requested range too long")

type GetAvailabilityQuery struct {
	Start time.Time `validate:"required"`
	End   time.Time `validate:"required"`
}

func (q GetAvailabilityQuery) Key() string { return getAvailabilityKey }

type GetAvailabilityHandler struct {
	UoWFactory uow.UoWFactory
	Resolver   domainavailability.Resolver
	Clock      policies.Clock
}

func (h *GetAvailabilityHandler) Handle(ctx context.Context, q GetAvailabilityQuery) ([]dto.AvailabilityDay, error) {
	dr, err := daterange.New(q.Start, q.End)
	if err != nil {
		return nil, err
	}
	if dr.Nights() > MaxQueryDays {
		return nil, ErrRangeTooLong
	}
	var days []domainavailability.Day
	err = uow.Within(ctx, h.UoWFactory, uow.TxOptions{ReadOnly: true}, func(ctx context.Context, unit uow.UnitOfWork) error {
		snap, err := LoadSnapshot(ctx, unit, dr)
		if err != nil {
			return err
		}
		days, err = h.Resolver.Resolve(dr, h.Clock.Now(), snap)
		return err
	})
	if err != nil {
		return nil, err
	}
	return dto.MapDays(days), nil
}

var _ queries.Handler[GetAvailabilityQuery, []dto.AvailabilityDay] = (*GetAvailabilityHandler)(nil)
