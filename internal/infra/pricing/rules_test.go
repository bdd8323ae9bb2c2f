package pricing_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staycal/internal/infra/pricing"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestRulesBaseAndWeekend(t *testing.T) {
	r, err := pricing.NewRules(dec("100"), dec("130"), "eur", nil)
	require.NoError(t, err)
	assert.Equal(t, "EUR", r.Currency())

	ctx := context.Background()
	wed, _ := r.PriceForDate(ctx, day(2024, 3, 6))
	fri, _ := r.PriceForDate(ctx, day(2024, 3, 8))
	sun, _ := r.PriceForDate(ctx, day(2024, 3, 10))
	assert.True(t, wed.Equal(dec("100")))
	assert.True(t, fri.Equal(dec("130")))
	assert.True(t, sun.Equal(dec("100")))
}

func TestRulesSeasonsIncludingYearWrap(t *testing.T) {
	seasons := pricing.LoadSeasons(`[
		{"name":"summer","from":"06-15","to":"08-31","nightly":"180","weekend":"210"},
		{"name":"holidays","from":"12-20","to":"01-05","nightly":"250"}
	]`, nil)
	require.Len(t, seasons, 2)
	r, err := pricing.NewRules(dec("100"), decimal.Zero, "EUR", seasons)
	require.NoError(t, err)

	ctx := context.Background()
	cases := map[time.Time]string{
		day(2024, 6, 14):  "100",
		day(2024, 6, 17):  "180",
		day(2024, 6, 21):  "210",
		day(2024, 12, 31): "250",
		day(2025, 1, 5):    "250",
		day(2025, 1, 6):    "100",
	}
	for d, want := range cases {
		got, err := r.PriceForDate(ctx, d)
		require.NoError(t, err)
		assert.True(t, got.Equal(dec(want)), "%s: got %s want %s", d.Format("2006-01-02"), got, want)
	}
}

func TestNewRulesValidation(t *testing.T) {
	_, err := pricing.NewRules(decimal.Zero, decimal.Zero, "EUR", nil)
	assert.ErrorIs(t, err, pricing.ErrInvalidRules)
	_, err = pricing.NewRules(dec("10"), decimal.Zero, "EURO", nil)
	assert.ErrorIs(t, err, pricing.ErrInvalidRules)
	_, err = pricing.NewRules(dec("10"), decimal.Zero, "EUR", []pricing.Season{{Name: "x", From: "13-01", To: "01-02", Nightly: dec("5")}})
	assert.ErrorIs(t, err, pricing.ErrInvalidRules)
}

func TestLoadSeasonsIgnoresGarbage(t *testing.T) {
	assert.Nil(t, pricing.LoadSeasons("{not json", nil))
	assert.Nil(t, pricing.LoadSeasons("  ", nil))
}

func TestPriceForDateHonoursCancellation(t *testing.T) {
	r, err := pricing.NewRules(dec("100"), decimal.Zero, "EUR", nil)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = r.PriceForDate(ctx, day(2024, 1, 1))
	assert.ErrorIs(t, err, context.Canceled)
}
