package pricing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"staycal/internal/app/policies"
)

var ErrInvalidRules = errors.New("pricing: invalid rules")

const monthDayLayout = "01-02"

// Season overrides the nightly rate between two month-days, inclusive. A season whose
// end is before its start wraps over the new year.
type Season struct {
	Name    string          `json:"name"`
	From    string          `json:"from"`
	To      string          `json:"to"`
	Nightly decimal.Decimal `json:"nightly"`
	Weekend decimal.Decimal `json:"weekend"`

	from, to int
}

func (s Season) covers(date time.Time) bool {
	md := monthDay(date)
	if s.from <= s.to {
		return md >= s.from && md <= s.to
	}
	return md >= s.from || md <= s.to
}

// Rules is the rule-based nightly pricing engine. Friday and Saturday nights use the
// weekend rate when one is set. The first matching season wins.
type Rules struct {
	Base     decimal.Decimal
	Weekend  decimal.Decimal
	Seasons  []Season
	currency string
}

var _ policies.PricingPort = (*Rules)(nil)

func NewRules(base, weekend decimal.Decimal, currency string, seasons []Season) (*Rules, error) {
	if !base.IsPositive() {
		return nil, fmt.Errorf("%w: base nightly must be positive", ErrInvalidRules)
	}
	if weekend.IsNegative() {
		return nil, fmt.Errorf("%w: weekend nightly is negative", ErrInvalidRules)
	}
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if len(currency) != 3 {
		return nil, fmt.Errorf("%w: currency %q", ErrInvalidRules, currency)
	}
	prepared := make([]Season, 0, len(seasons))
	for _, s := range seasons {
		from, err := parseMonthDay(s.From)
		if err != nil {
			return nil, fmt.Errorf("%w: season %q: %v", ErrInvalidRules, s.Name, err)
		}
		to, err := parseMonthDay(s.To)
		if err != nil {
			return nil, fmt.Errorf("%w: season %q: %v", ErrInvalidRules, s.Name, err)
		}
		if !s.Nightly.IsPositive() {
			return nil, fmt.Errorf("%w: season %q needs a positive nightly rate", ErrInvalidRules, s.Name)
		}
		s.from, s.to = from, to
		prepared = append(prepared, s)
	}
	return &Rules{Base: base, Weekend: weekend, Seasons: prepared, currency: currency}, nil
}

func (r *Rules) Currency() string {
	return r.currency
}

func (r *Rules) PriceForDate(ctx context.Context, date time.Time) (decimal.Decimal, error) {
	if err := ctx.Err(); err != nil {
		return decimal.Zero, err
	}
	weekend := isWeekendNight(date)
	for _, s := range r.Seasons {
		if !s.covers(date) {
			continue
		}
		if weekend && s.Weekend.IsPositive() {
			return s.Weekend, nil
		}
		return s.Nightly, nil
	}
	if weekend && r.Weekend.IsPositive() {
		return r.Weekend, nil
	}
	return r.Base, nil
}

// LoadSeasons decodes the PRICING_SEASONS JSON array. Invalid JSON is logged and ignored.
func LoadSeasons(raw string, logger *slog.Logger) []Season {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var seasons []Season
	if err := json.Unmarshal([]byte(raw), &seasons); err != nil {
		if logger != nil {
			logger.Warn("invalid PRICING_SEASONS JSON, using base rates", "error", err)
		}
		return nil
	}
	return seasons
}

func isWeekendNight(d time.Time) bool {
	wd := d.Weekday()
	return wd == time.Friday || wd == time.Saturday
}

func monthDay(d time.Time) int {
	return int(d.Month())*100 + d.Day()
}

func parseMonthDay(s string) (int, error) {
	t, err := time.Parse(monthDayLayout, strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("month-day %q: expected MM-DD", s)
	}
	return monthDay(t), nil
}
