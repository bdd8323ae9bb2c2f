package calendarsync

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"staycal/internal/domain/shared/daterange"
)

var (
	ErrRecordNotFound = errors.New("calendarsync: record not found")
	ErrInvalidSource  = errors.New("calendarsync: invalid source name")
)

type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
)

// Record is the per-source audit row, upserted after every sync attempt.
type Record struct {
	Source         string
	ICalURL        string
	LastSynced     time.Time
	Status         Status
	BookingsSynced int
	LastError      string
}

type Repository interface {
	Get(ctx context.Context, source string) (*Record, error)
	List(ctx context.Context) ([]Record, error)
	Upsert(ctx context.Context, rec Record) error
}

var sourcePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,31}$`)

// NormalizeSource lower-cases a source name and rejects anything outside [a-z0-9_-].
func NormalizeSource(s string) (string, error) {
	n := strings.ToLower(strings.TrimSpace(s))
	if !sourcePattern.MatchString(n) {
		return "", fmt.Errorf("%w: %q", ErrInvalidSource, s)
	}
	return n, nil
}

// FeedEvent is one VEVENT as read from an external calendar.
type FeedEvent struct {
	UID     string
	Summary string
	Start   time.Time
	End     time.Time
}

// Range drops time-of-day from both ends. End stays exclusive.
func (e FeedEvent) Range() (daterange.DateRange, error) {
	return daterange.New(e.Start, e.End)
}

// FetchError wraps any failure to download or parse a feed.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("calendarsync: fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Result summarises one successful Sync.
type Result struct {
	NewBlocksCreated int `json:"new_blocks_created"`
	TotalEventsSeen  int `json:"total_events_seen"`
}
