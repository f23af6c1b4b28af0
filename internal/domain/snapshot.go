package domain

// LoadState is the reconciliation state of one catalog view.
type LoadState int

const (
	StateIdle LoadState = iota
	StateLoading
	StateLoaded
	StateExhausted
	StateFailed
)

// String returns a human-readable representation of the state
func (s LoadState) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateLoading:
		return "Loading"
	case StateLoaded:
		return "Loaded"
	case StateExhausted:
		return "Exhausted"
	case StateFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Snapshot is what observers of a catalog view receive.
// Entries is never emptied once it has held data, except by an explicit
// refresh that has already loaded its first page.
type Snapshot struct {
	Entries   []Podcast
	IsLoading bool
	Err       error // Last fetch/store/toggle error, nil after a clean load
	State     LoadState
	Cursor    PageCursor
}

// Retryable reports whether Err is transient.
func (s Snapshot) Retryable() bool {
	return s.Err != nil && IsRetryable(s.Err)
}

// HasData reports whether any entries are available to show.
func (s Snapshot) HasData() bool {
	return len(s.Entries) > 0
}
