package session

// SaveStatus classifies how a Save call ended.
type SaveStatus int

const (
	// StatusPersisted means the write succeeded on the first attempt.
	StatusPersisted SaveStatus = iota
	// StatusRecovered means the first write hit the quota, eviction
	// freed space, and the single retry succeeded.
	StatusRecovered
	// StatusDegraded means the write failed even after recovery. The
	// caller's in-memory state remains authoritative for this session.
	StatusDegraded
)

func (s SaveStatus) String() string {
	switch s {
	case StatusPersisted:
		return "persisted"
	case StatusRecovered:
		return "recovered"
	case StatusDegraded:
		return "degraded"
	default:
		return "unknown"
	}
}

// Outcome is the typed result of a Save. Save never returns a plain
// error: callers inspect the outcome and decide whether to surface,
// log, or ignore it.
type Outcome struct {
	Status  SaveStatus
	Evicted int
	Err     error
}

// Persisted reports whether the value made it to the backing store.
func (o Outcome) Persisted() bool {
	return o.Status != StatusDegraded
}
