package calendarsync

import "time"

type CalendarSynced struct {
	Source           string    `json:"source"`
	NewBlocksCreated int       `json:"new_blocks_created"`
	TotalEventsSeen  int       `json:"total_events_seen"`
	At               time.Time `json:"at"`
}

func (e CalendarSynced) EventName() string     { return "calendar.synced" }
func (e CalendarSynced) AggregateID() string   { return e.Source }
func (e CalendarSynced) OccurredAt() time.Time { return e.At }

type CalendarSyncFailed struct {
	Source string    `json:"source"`
	Error  string    `json:"error"`
	At     time.Time `json:"at"`
}

func (e CalendarSyncFailed) EventName() string     { return "calendar.sync_failed" }
func (e CalendarSyncFailed) AggregateID() string   { return e.Source }
func (e CalendarSyncFailed) OccurredAt() time.Time { return e.At }
