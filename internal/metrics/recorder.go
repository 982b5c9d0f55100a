// Package metrics provides observability hooks for the daemon. Components
// receive a Recorder by injection; the default NoopRecorder makes metrics
// optional without nil checks at call sites.
package metrics

import "time"

// RestoreOutcome enumerates terminal restore-entry states for counters.
type RestoreOutcome string

const (
	OutcomeMatched  RestoreOutcome = "matched"
	OutcomeTimedOut RestoreOutcome = "timed_out"
	OutcomeSkipped  RestoreOutcome = "skipped"
)

// Recorder defines observability hooks for capture, save, and restore.
type Recorder interface {
	IncSessionSaved()
	IncSessionSaveSkipped()
	ObserveCaptureDuration(d time.Duration)
	IncRestoreOutcome(outcome RestoreOutcome)
	ObserveRestorePassDuration(d time.Duration)
	IncProtocolError()
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) IncSessionSaved()                         {}
func (NoopRecorder) IncSessionSaveSkipped()                   {}
func (NoopRecorder) ObserveCaptureDuration(time.Duration)     {}
func (NoopRecorder) IncRestoreOutcome(RestoreOutcome)         {}
func (NoopRecorder) ObserveRestorePassDuration(time.Duration) {}
func (NoopRecorder) IncProtocolError()                        {}
