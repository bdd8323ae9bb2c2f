package dto

import (
	"time"

	"staycal/internal/domain/calendarsync"
)

type SyncRecord struct {
	Source         string    `json:"source"`
	ICalURL        string    `json:"ical_url"`
	LastSynced     time.Time `json:"last_synced"`
	SyncStatus     string    `json:"sync_status"`
	BookingsSynced int       `json:"bookings_synced"`
	LastError      string    `json:"last_error,omitempty"`
}

type SyncRecordCollection struct {
	Items []SyncRecord `json:"items"`
}

func MapSyncRecords(list []calendarsync.Record) SyncRecordCollection {
	items := make([]SyncRecord, 0, len(list))
	for _, r := range list {
		items = append(items, SyncRecord{
			Source:         r.Source,
			ICalURL:        r.ICalURL,
			LastSynced:     r.LastSynced,
			SyncStatus:     string(r.Status),
			BookingsSynced: r.BookingsSynced,
			LastError:      r.LastError,
		})
	}
	return SyncRecordCollection{Items: items}
}

// SourceOutcome flattens calendarsync.Outcome for the wire.
type SourceOutcome struct {
	Source           string `json:"source"`
	Kind             string `json:"kind"`
	NewBlocksCreated int    `json:"new_blocks_created,omitempty"`
	TotalEventsSeen  int    `json:"total_events_seen,omitempty"`
	Reason           string `json:"reason,omitempty"`
	Error            string `json:"error,omitempty"`
}

type ScheduledSyncReport struct {
	Outcomes []SourceOutcome `json:"outcomes"`
}

func MapOutcomes(list []calendarsync.SourceOutcome) ScheduledSyncReport {
	out := make([]SourceOutcome, 0, len(list))
	for _, so := range list {
		item := SourceOutcome{Source: so.Source, Kind: string(so.Outcome.Kind())}
		switch o := so.Outcome.(type) {
		case calendarsync.Success:
			item.NewBlocksCreated = o.NewBlocksCreated
			item.TotalEventsSeen = o.TotalEventsSeen
		case calendarsync.Skipped:
			item.Reason = o.Reason
		case calendarsync.Failed:
			if o.Err != nil {
				item.Error = o.Err.Error()
			}
		}
		out = append(out, item)
	}
	return ScheduledSyncReport{Outcomes: out}
}
