package policies

import (
	"context"

	"staycal/internal/domain/calendarsync"
)

// FeedFetcher downloads and parses an external iCal feed. Failures are *calendarsync.FetchError.
type FeedFetcher interface {
	Fetch(ctx context.Context, url string) ([]calendarsync.FeedEvent, error)
}
