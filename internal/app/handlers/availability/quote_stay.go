package availability

import (
	"context"
	"time"

	"staycal/internal/app/dto"
	"staycal/internal/app/policies"
	"staycal/internal/app/queries"
	"staycal/internal/app/uow"
	domainavailability "staycal/internal/domain/availability"
	"staycal/internal/domain/shared/daterange"
)

const quoteStayKey = "availability.quote"

type QuoteStayQuery struct {
	CheckIn  time.Time `validate:"required"`
	CheckOut time.Time `validate:"required"`
}

func (q QuoteStayQuery) Key() string { return quoteStayKey }

type QuoteStayHandler struct {
	UoWFactory uow.UoWFactory
	Resolver   domainavailability.Resolver
	Pricing    policies.PricingPort
	Clock      policies.Clock
}

func (h *QuoteStayHandler) Handle(ctx context.Context, q QuoteStayQuery) (dto.Quote, error) {
	dr, err := daterange.New(q.CheckIn, q.CheckOut)
	if err != nil {
		return dto.Quote{}, err
	}
	var quote domainavailability.Quote
	err = uow.Within(ctx, h.UoWFactory, uow.TxOptions{ReadOnly: true}, func(ctx context.Context, unit uow.UnitOfWork) error {
		snap, err := LoadSnapshot(ctx, unit, dr)
		if err != nil {
			return err
		}
		quote, err = h.Resolver.PriceStay(ctx, dr, h.Clock.Now(), snap, h.Pricing)
		return err
	})
	if err != nil {
		return dto.Quote{}, err
	}
	return dto.MapQuote(quote, h.Pricing.Currency()), nil
}

var _ queries.Handler[QuoteStayQuery, dto.Quote] = (*QuoteStayHandler)(nil)
