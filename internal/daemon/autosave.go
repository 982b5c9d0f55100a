package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nirinit/nirinit/internal/journal"
	"github.com/nirinit/nirinit/internal/logfields"
	"github.com/nirinit/nirinit/internal/session"
)

// saveTick captures the live state and persists it when it differs from the
// last written snapshot. Unchanged sessions are skipped so the file on disk
// is only touched on real changes.
func (d *Daemon) saveTick(ctx context.Context) error {
	d.saveMu.Lock()
	defer d.saveMu.Unlock()

	start := time.Now()
	state, err := d.comp.QueryState(ctx)
	if err != nil {
		d.recorder.IncProtocolError()
		slog.Warn("Autosave query failed", logfields.Error(err))
		return err
	}

	sess := session.Capture(state)
	d.recorder.ObserveCaptureDuration(time.Since(start))

	if d.haveLast && sess.Equal(d.lastSaved) {
		d.recorder.IncSessionSaveSkipped()
		slog.Debug("Session unchanged, skipping save")
		return nil
	}

	return d.write(ctx, sess, time.Since(start))
}

// seed persists the very first snapshot on a host with no prior session.
func (d *Daemon) seed(ctx context.Context, sess session.Session) {
	d.saveMu.Lock()
	defer d.saveMu.Unlock()

	if err := d.write(ctx, sess, 0); err != nil {
		slog.Error("Initial snapshot failed", logfields.Error(err))
	}
}

func (d *Daemon) write(ctx context.Context, sess session.Session, elapsed time.Duration) error {
	if err := d.store.Save(sess); err != nil {
		slog.Error("Snapshot write failed", logfields.Error(err), logfields.Path(d.store.Path()))
		return err
	}
	d.lastSaved = sess
	d.haveLast = true
	d.recorder.IncSessionSaved()

	if err := d.journal.Append(ctx, journal.Record{
		Kind:       journal.KindSave,
		State:      "written",
		DurationMS: elapsed.Milliseconds(),
		Detail:     fmt.Sprintf("%d windows, %d workspaces", len(sess.Windows), len(sess.Workspaces)),
		At:         time.Now(),
	}); err != nil {
		slog.Warn("Journal append failed", logfields.Error(err))
	}

	slog.Info("Session saved",
		slog.Int("windows", len(sess.Windows)),
		slog.Int("workspaces", len(sess.Workspaces)),
		logfields.Path(d.store.Path()))
	return nil
}
