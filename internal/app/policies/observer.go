package policies

// SyncObserver receives per-source sync outcomes and maintenance counts.
type SyncObserver interface {
	ObserveSync(source string, outcome string, created int)
	ObserveCleanup(action string, deleted int)
	ObserveConflict()
}

// NopObserver discards observations.
type NopObserver struct{}

func (NopObserver) ObserveSync(string, string, int) {}
func (NopObserver) ObserveCleanup(string, int)      {}
func (NopObserver) ObserveConflict()                {}
