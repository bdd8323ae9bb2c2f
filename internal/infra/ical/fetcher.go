package ical

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"staycal/internal/app/policies"
	"staycal/internal/domain/calendarsync"
)

const maxFeedBytes = 10 << 20

var (
	ErrFeedStatus   = errors.New("ical: unexpected feed status")
	ErrFeedTooLarge = errors.New("ical: feed too large")
)

// Archiver keeps a copy of every downloaded feed body.
type Archiver interface {
	Archive(ctx context.Context, url string, body []byte) error
}

// Fetcher downloads iCal feeds over HTTP and turns VEVENTs into feed events.
type Fetcher struct {
	Client   *http.Client
	Archiver Archiver
	Logger   *slog.Logger
}

var _ policies.FeedFetcher = (*Fetcher)(nil)

func NewFetcher(timeout time.Duration, archiver Archiver, logger *slog.Logger) *Fetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{Client: &http.Client{Timeout: timeout}, Archiver: archiver, Logger: logger}
}

func (f *Fetcher) Fetch(ctx context.Context, url string) ([]calendarsync.FeedEvent, error) {
	body, err := f.download(ctx, url)
	if err != nil {
		return nil, &calendarsync.FetchError{URL: url, Err: err}
	}
	if f.Archiver != nil {
		if err := f.Archiver.Archive(ctx, url, body); err != nil && f.Logger != nil {
			f.Logger.WarnContext(ctx, "feed archive failed", "url", url, "error", err)
		}
	}
	events, err := Parse(bytes.NewReader(body), f.Logger)
	if err != nil {
		return nil, &calendarsync.FetchError{URL: url, Err: err}
	}
	return events, nil
}

func (f *Fetcher) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/calendar")
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s", ErrFeedStatus, resp.Status)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes+1))
	if err != nil {
		return nil, err
	}
	if len(body) > maxFeedBytes {
		return nil, ErrFeedTooLarge
	}
	return body, nil
}

// Parse reads every VEVENT with a DTSTART. A missing DTEND means a one-day event. Events
// whose dates cannot be read are logged and skipped; only an unreadable calendar is an error.
func Parse(r io.Reader, logger *slog.Logger) ([]calendarsync.FeedEvent, error) {
	if logger == nil {
		logger = slog.Default()
	}
	cal, err := ics.ParseCalendar(r)
	if err != nil {
		return nil, fmt.Errorf("ical: parse: %w", err)
	}
	var out []calendarsync.FeedEvent
	for _, ev := range cal.Events() {
		startProp := ev.GetProperty(ics.ComponentPropertyDtStart)
		if startProp == nil {
			continue
		}
		start, err := parseValue(startProp, logger)
		if err != nil {
			logger.Warn("ical event skipped", "uid", ev.Id(), "property", "DTSTART", "error", err)
			continue
		}
		end := start.AddDate(0, 0, 1)
		if endProp := ev.GetProperty(ics.ComponentPropertyDtEnd); endProp != nil {
			if end, err = parseValue(endProp, logger); err != nil {
				logger.Warn("ical event skipped", "uid", ev.Id(), "property", "DTEND", "error", err)
				continue
			}
		}
		fe := calendarsync.FeedEvent{UID: ev.Id(), Start: start, End: end}
		if p := ev.GetProperty(ics.ComponentPropertySummary); p != nil {
			fe.Summary = strings.TrimSpace(p.Value)
		}
		out = append(out, fe)
	}
	return out, nil
}

func parseValue(p *ics.IANAProperty, logger *slog.Logger) (time.Time, error) {
	v := strings.TrimSpace(p.Value)
	if len(v) == len("20060102") {
		return time.ParseInLocation("20060102", v, time.UTC)
	}
	if strings.HasSuffix(v, "Z") {
		return time.Parse("20060102T150405Z", v)
	}
	loc := time.UTC
	if tz, ok := p.ICalParameters[string(ics.ParameterTzid)]; ok && len(tz) > 0 {
		l, err := time.LoadLocation(tz[0])
		if err != nil {
			logger.Warn("unknown ical TZID, reading as UTC", "tzid", tz[0], "value", v, "error", err)
		} else {
			loc = l
		}
	}
	t, err := time.ParseInLocation("20060102T150405", v, loc)
	if err != nil {
		return time.Time{}, err
	}
	// dates are taken in the event's own zone, not UTC
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}
