package policies

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// PricingPort prices one night of the property.
type PricingPort interface {
	PriceForDate(ctx context.Context, date time.Time) (decimal.Decimal, error)
	Currency() string
}
