package blocks

import "time"

// AggregateCalendar is the aggregate id used for events about the whole calendar.
const AggregateCalendar = "calendar"

type BlockCreated struct {
	BlockID BlockID   `json:"block_id"`
	Start   string    `json:"start_date"`
	End     string    `json:"end_date"`
	Reason  string    `json:"reason"`
	At      time.Time `json:"at"`
}

func (e BlockCreated) EventName() string     { return "blocks.created" }
func (e BlockCreated) AggregateID() string   { return AggregateCalendar }
func (e BlockCreated) OccurredAt() time.Time { return e.At }

type BlockDeleted struct {
	BlockID BlockID   `json:"block_id"`
	At      time.Time `json:"at"`
}

func (e BlockDeleted) EventName() string     { return "blocks.deleted" }
func (e BlockDeleted) AggregateID() string   { return AggregateCalendar }
func (e BlockDeleted) OccurredAt() time.Time { return e.At }

// BlocksConsolidated summarises one maintenance run.
type BlocksConsolidated struct {
	Action  string    `json:"action"`
	Source  string    `json:"source,omitempty"`
	Deleted int       `json:"deleted"`
	At      time.Time `json:"at"`
}

func (e BlocksConsolidated) EventName() string     { return "blocks.consolidated" }
func (e BlocksConsolidated) AggregateID() string   { return AggregateCalendar }
func (e BlocksConsolidated) OccurredAt() time.Time { return e.At }
