// Package restore implements the one-shot restore pass: spawning the
// applications recorded in a session snapshot and steering each window that
// appears back to its recorded placement.
package restore

import (
	"time"

	"github.com/nirinit/nirinit/internal/session"
)

// State is the lifecycle of one worklist entry. The machine is
// Pending -> Launched -> {Matched | TimedOut}; the last two are terminal
// and no entry ever regresses.
type State int

const (
	StatePending State = iota
	StateLaunched
	StateMatched
	StateTimedOut
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateLaunched:
		return "launched"
	case StateMatched:
		return "matched"
	case StateTimedOut:
		return "timed_out"
	default:
		return "unknown"
	}
}

// Terminal reports whether the state accepts no further transitions.
func (s State) Terminal() bool {
	return s == StateMatched || s == StateTimedOut
}

// Pending is the per-entry restore bookkeeping. It exists only for the
// duration of one pass and is owned exclusively by the engine.
type Pending struct {
	Entry   session.WindowEntry
	Ordinal int

	// Command is the resolved argv, override map lookup first and the app
	// id as executable otherwise, plus any launch hints.
	Command []string

	State     State
	SpawnedAt time.Time
	Deadline  time.Time

	// MatchedWindowID is set once the entry reaches StateMatched.
	MatchedWindowID uint64

	// Err carries the spawn failure for entries timed out before launch.
	Err error
}

// Report summarizes one finished (or interrupted) restore pass.
type Report struct {
	PassID   string
	Duration time.Duration

	Matched  int
	TimedOut int
	Skipped  int

	// Interrupted is set when the pass was abandoned by cancellation
	// before every entry reached a terminal state.
	Interrupted bool

	Entries []*Pending
}

// Total returns the number of launchable worklist entries in the pass.
func (r *Report) Total() int { return len(r.Entries) }
