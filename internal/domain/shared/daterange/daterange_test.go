package daterange_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staycal/internal/domain/shared/daterange"
)

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := daterange.ParseDay(s)
	require.NoError(t, err)
	return d
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		start   string
		end     string
		wantErr error
	}{
		{name: "one night", start: "2024-01-10", end: "2024-01-11"},
		{name: "same day", start: "2024-01-10", end: "2024-01-10", wantErr: daterange.ErrInvalidRange},
		{name: "reversed", start: "2024-01-12", end: "2024-01-10", wantErr: daterange.ErrInvalidRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := daterange.New(day(t, tt.start), day(t, tt.end))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestNewDropsTimeOfDay(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	dr, err := daterange.New(
		time.Date(2024, 3, 1, 23, 30, 0, 0, loc),
		time.Date(2024, 3, 5, 1, 0, 0, 0, loc),
	)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01_2024-03-05", dr.Key())
	assert.Equal(t, 4, dr.Nights())
	assert.Equal(t, time.UTC, dr.Start.Location())
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := daterange.Parse("2024-13-01", "2024-12-02")
	assert.ErrorIs(t, err, daterange.ErrInvalidDay)
}

func TestHalfOpenSemantics(t *testing.T) {
	dr, err := daterange.Parse("2024-01-10", "2024-01-13")
	require.NoError(t, err)

	assert.True(t, dr.ContainsDate(day(t, "2024-01-10")))
	assert.True(t, dr.ContainsDate(day(t, "2024-01-12")))
	assert.False(t, dr.ContainsDate(day(t, "2024-01-13")))
	assert.False(t, dr.ContainsDate(day(t, "2024-01-09")))

	touching, _ := daterange.Parse("2024-01-13", "2024-01-15")
	assert.False(t, dr.Overlaps(touching))
	assert.True(t, dr.Adjacent(touching))

	overlapping, _ := daterange.Parse("2024-01-12", "2024-01-15")
	assert.True(t, dr.Overlaps(overlapping))
	assert.True(t, overlapping.Overlaps(dr))
}

func TestDays(t *testing.T) {
	dr, _ := daterange.Parse("2024-02-27", "2024-03-02")
	days := dr.Days()
	require.Len(t, days, 4)
	assert.Equal(t, "2024-02-29", daterange.FormatDay(days[2]))
	assert.Equal(t, "2024-03-01", daterange.FormatDay(days[3]))
}

func TestMerge(t *testing.T) {
	a, _ := daterange.Parse("2024-01-01", "2024-01-05")
	b, _ := daterange.Parse("2024-01-05", "2024-01-08")
	merged, ok := a.Merge(b)
	require.True(t, ok)
	assert.Equal(t, "2024-01-01_2024-01-08", merged.Key())

	c, _ := daterange.Parse("2024-02-01", "2024-02-02")
	_, ok = a.Merge(c)
	assert.False(t, ok)
}
