package availability

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"staycal/internal/domain/shared/daterange"
)

// NightlyRates prices a single night.
type NightlyRates interface {
	PriceForDate(ctx context.Context, date time.Time) (decimal.Decimal, error)
}

type Night struct {
	Date  time.Time
	Price decimal.Decimal
}

type Quote struct {
	Range  daterange.DateRange
	Nights []Night
	Total  decimal.Decimal
}

// PriceStay checks every night of dr and sums the per-night prices.
func (r Resolver) PriceStay(ctx context.Context, dr daterange.DateRange, asOf time.Time, snap Snapshot, rates NightlyRates) (Quote, error) {
	if err := r.FirstConflict(dr, asOf, snap); err != nil {
		return Quote{}, err
	}
	q := Quote{Range: dr, Total: decimal.Zero}
	for _, d := range dr.Days() {
		price, err := rates.PriceForDate(ctx, d)
		if err != nil {
			return Quote{}, fmt.Errorf("availability: price %s: %w", daterange.FormatDay(d), err)
		}
		q.Nights = append(q.Nights, Night{Date: d, Price: price})
		q.Total = q.Total.Add(price)
	}
	return q, nil
}
