package calendarsync_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staycal/internal/domain/calendarsync"
	"staycal/internal/domain/shared/daterange"
)

func TestNormalizeSource(t *testing.T) {
	for in, want := range map[string]string{"Airbnb": "airbnb", " vrbo ": "vrbo", "booking_com": "booking_com"} {
		got, err := calendarsync.NormalizeSource(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	for _, bad := range []string{"", "air bnb", "a%b", "ümlaut"} {
		_, err := calendarsync.NormalizeSource(bad)
		assert.ErrorIs(t, err, calendarsync.ErrInvalidSource, bad)
	}
}

func TestFeedEventRangeDropsTime(t *testing.T) {
	ev := calendarsync.FeedEvent{
		Start: time.Date(2024, 5, 1, 15, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 5, 4, 11, 0, 0, 0, time.UTC),
	}
	dr, err := ev.Range()
	require.NoError(t, err)
	assert.Equal(t, "2024-05-01_2024-05-04", dr.Key())

	ev.End = ev.Start.Add(2 * time.Hour)
	_, err = ev.Range()
	assert.ErrorIs(t, err, daterange.ErrInvalidRange)
}

func TestFetchErrorUnwraps(t *testing.T) {
	cause := errors.New("connection refused")
	err := error(&calendarsync.FetchError{URL: "https://example.com/a.ics", Err: cause})
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "example.com")
}

func TestOutcomeKinds(t *testing.T) {
	outcomes := []calendarsync.Outcome{
		calendarsync.Success{NewBlocksCreated: 2},
		calendarsync.Skipped{Reason: "no url"},
		calendarsync.Failed{Err: errors.New("x")},
	}
	var kinds []calendarsync.OutcomeKind
	for _, o := range outcomes {
		kinds = append(kinds, o.Kind())
	}
	assert.Equal(t, []calendarsync.OutcomeKind{calendarsync.KindSuccess, calendarsync.KindSkipped, calendarsync.KindFailed}, kinds)
}
