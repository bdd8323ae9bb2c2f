package calendarsync

type OutcomeKind string

const (
	KindSuccess OutcomeKind = "success"
	KindSkipped OutcomeKind = "skipped"
	KindFailed  OutcomeKind = "failed"
)

// Outcome is one of Success, Skipped or Failed.
type Outcome interface {
	Kind() OutcomeKind
	outcome()
}

type Success struct {
	NewBlocksCreated int
	TotalEventsSeen  int
}

type Skipped struct {
	Reason string
}

type Failed struct {
	Err error
}

func (Success) Kind() OutcomeKind { return KindSuccess }
func (Skipped) Kind() OutcomeKind { return KindSkipped }
func (Failed) Kind() OutcomeKind  { return KindFailed }

func (Success) outcome() {}
func (Skipped) outcome() {}
func (Failed) outcome()  {}

// SourceOutcome is the result of one source within a scheduled batch.
type SourceOutcome struct {
	Source  string
	Outcome Outcome
}
