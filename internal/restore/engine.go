package restore

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nirinit/nirinit/internal/ipc"
	"github.com/nirinit/nirinit/internal/journal"
	"github.com/nirinit/nirinit/internal/logfields"
	"github.com/nirinit/nirinit/internal/metrics"
	"github.com/nirinit/nirinit/internal/session"
)

// Dispatcher issues placement actions to the compositor.
type Dispatcher interface {
	Apply(ctx context.Context, action ipc.Action) error
}

// Engine runs restore passes. It owns the worklist exclusively for the
// duration of a pass; nothing else mutates it.
type Engine struct {
	dispatcher Dispatcher
	launcher   Launcher
	hints      *HintResolver
	journal    journal.Store
	recorder   metrics.Recorder
	timeout    time.Duration
}

// NewEngine creates an engine with a per-entry timeout of five seconds,
// no journal, and no metrics.
func NewEngine(dispatcher Dispatcher, launcher Launcher) *Engine {
	return &Engine{
		dispatcher: dispatcher,
		launcher:   launcher,
		hints:      &HintResolver{},
		journal:    journal.Nop{},
		recorder:   metrics.NoopRecorder{},
		timeout:    5 * time.Second,
	}
}

// SetTimeout overrides the per-entry match timeout.
func (e *Engine) SetTimeout(d time.Duration) {
	if d > 0 {
		e.timeout = d
	}
}

// SetJournal injects the outcome journal.
func (e *Engine) SetJournal(j journal.Store) {
	if j != nil {
		e.journal = j
	}
}

// SetRecorder injects the metrics recorder.
func (e *Engine) SetRecorder(r metrics.Recorder) {
	if r != nil {
		e.recorder = r
	}
}

// SetHints overrides the launch hint resolver.
func (e *Engine) SetHints(h *HintResolver) {
	if h != nil {
		e.hints = h
	}
}

// Run executes one restore pass: build the worklist, spawn everything
// up-front, then consume the event stream until every entry is matched or
// timed out. Individual entry failures never abort the pass; partial
// success is success. Cancellation abandons unmatched entries with no
// cleanup and leaves already-matched windows placed.
func (e *Engine) Run(ctx context.Context, sess session.Session, skip []string, overrides map[string]string, events <-chan ipc.Event) *Report {
	started := time.Now()
	report := &Report{PassID: uuid.NewString()}

	worklist, skippedEntries := BuildWorklist(sess, skip, overrides, e.hints)
	report.Entries = worklist
	report.Skipped = len(skippedEntries)
	for _, entry := range skippedEntries {
		slog.Info("Skipping app", logfields.PassID(report.PassID), logfields.AppID(entry.AppID))
		e.recorder.IncRestoreOutcome(metrics.OutcomeSkipped)
	}

	slog.Info("Starting restore pass",
		logfields.PassID(report.PassID),
		slog.Int("entries", len(worklist)),
		slog.Int("skipped", report.Skipped))

	e.spawnAll(ctx, report.PassID, worklist)
	e.matchLoop(ctx, report, events)

	if !report.Interrupted {
		e.focusRestored(ctx, worklist)
	}

	report.Duration = time.Since(started)
	e.recorder.ObserveRestorePassDuration(report.Duration)

	passState := "done"
	if report.Interrupted {
		passState = "interrupted"
	}
	if err := e.journal.Append(ctx, journal.Record{
		PassID:     report.PassID,
		Kind:       journal.KindRestorePass,
		State:      passState,
		DurationMS: report.Duration.Milliseconds(),
		Detail:     fmt.Sprintf("matched=%d timed_out=%d skipped=%d", report.Matched, report.TimedOut, report.Skipped),
	}); err != nil {
		slog.Warn("Failed to journal restore pass", logfields.Error(err))
	}

	slog.Info("Restore pass finished",
		logfields.PassID(report.PassID),
		slog.Int("matched", report.Matched),
		slog.Int("timed_out", report.TimedOut),
		slog.Int("skipped", report.Skipped),
		logfields.DurationMS(float64(report.Duration.Milliseconds())))
	return report
}

// spawnAll launches every worklist entry. A spawn failure marks the entry
// timed out immediately without consuming the timeout budget.
func (e *Engine) spawnAll(ctx context.Context, passID string, worklist []*Pending) {
	for _, p := range worklist {
		now := time.Now()
		if err := e.launcher.Launch(ctx, p.Command); err != nil {
			p.State = StateTimedOut
			p.Err = err
			slog.Warn("Failed to spawn entry",
				logfields.PassID(passID),
				logfields.AppID(p.Entry.AppID),
				logfields.Command(commandString(p.Command)),
				logfields.Error(err))
			continue
		}
		p.State = StateLaunched
		p.SpawnedAt = now
		p.Deadline = now.Add(e.timeout)
		slog.Debug("Spawned entry",
			logfields.PassID(passID),
			logfields.AppID(p.Entry.AppID),
			logfields.Ordinal(p.Ordinal),
			logfields.Command(commandString(p.Command)))
	}
}

// matchLoop consumes compositor events until no launched entries remain.
func (e *Engine) matchLoop(ctx context.Context, report *Report, events <-chan ipc.Event) {
	// Spawn-failed entries are already terminal; account for them first.
	for _, p := range report.Entries {
		if p.State == StateTimedOut {
			e.finishEntry(ctx, report, p, "spawn failed")
		}
	}

	byApp := make(map[string][]*Pending)
	for _, p := range report.Entries {
		if p.State == StateLaunched {
			byApp[p.Entry.AppID] = append(byApp[p.Entry.AppID], p)
		}
	}

	for e.launchedRemain(report) {
		timer := time.NewTimer(time.Until(e.earliestDeadline(report)))
		select {
		case <-ctx.Done():
			timer.Stop()
			report.Interrupted = true
			slog.Warn("Restore pass interrupted; abandoning unmatched entries",
				logfields.PassID(report.PassID))
			return

		case ev, ok := <-events:
			timer.Stop()
			if !ok {
				// The stream is non-restartable: without events no
				// further matches can happen.
				e.expireAll(ctx, report, "event stream closed")
				return
			}
			opened, isOpen := ev.(ipc.WindowOpened)
			if !isOpen {
				continue
			}
			e.match(ctx, report, byApp, opened)

		case <-timer.C:
			e.expireDue(ctx, report, time.Now())
		}
	}
}

// match resolves one WindowOpened event against the earliest-ordinal
// launched entry with the same app id. Unexpected windows take no action;
// the compositor's placement stands.
func (e *Engine) match(ctx context.Context, report *Report, byApp map[string][]*Pending, opened ipc.WindowOpened) {
	queue := byApp[opened.AppID]
	var target *Pending
	for len(queue) > 0 {
		head := queue[0]
		if head.State != StateLaunched {
			queue = queue[1:]
			continue
		}
		target = head
		queue = queue[1:]
		break
	}
	byApp[opened.AppID] = queue
	if target == nil {
		slog.Debug("Unmatched window opened; leaving compositor placement",
			logfields.PassID(report.PassID),
			logfields.AppID(opened.AppID),
			logfields.WindowID(opened.ID))
		return
	}

	target.State = StateMatched
	target.MatchedWindowID = opened.ID
	e.place(ctx, report.PassID, target)
	e.finishEntry(ctx, report, target, "")
}

// place issues the placement actions for one matched entry. Each action
// failure is logged and the rest still run; a partially placed window beats
// an unplaced one.
func (e *Engine) place(ctx context.Context, passID string, p *Pending) {
	id := p.MatchedWindowID
	entry := p.Entry
	warn := func(action string, err error) {
		if err != nil {
			e.recorder.IncProtocolError()
			slog.Warn("Placement action failed",
				logfields.PassID(passID),
				logfields.AppID(entry.AppID),
				logfields.WindowID(id),
				logfields.State(action),
				logfields.Error(err))
		}
	}

	if entry.WorkspaceOutput != "" {
		warn("move_to_output", e.dispatcher.Apply(ctx, ipc.Action{
			MoveWindowToMonitor: &ipc.MoveWindowToMonitorAction{ID: &id, Output: entry.WorkspaceOutput},
		}))
	}

	// Named workspaces take priority: the name is the stable identity and
	// the compositor recreates a missing named workspace on demand. The
	// index is only a best-effort pairing with the output.
	var ref *ipc.WorkspaceReference
	if entry.WorkspaceName != "" {
		r := ipc.WorkspaceRefByName(entry.WorkspaceName)
		ref = &r
	} else if entry.WorkspaceIndex != nil {
		r := ipc.WorkspaceRefByIndex(*entry.WorkspaceIndex)
		ref = &r
	}
	if ref != nil {
		warn("move_to_workspace", e.dispatcher.Apply(ctx, ipc.Action{
			MoveWindowToWorkspace: &ipc.MoveWindowToWorkspaceAction{WindowID: &id, Reference: *ref},
		}))
	}

	if entry.Floating {
		warn("move_to_floating", e.dispatcher.Apply(ctx, ipc.Action{
			MoveWindowToFloating: &ipc.WindowRefAction{ID: &id},
		}))
		if entry.X != nil && entry.Y != nil {
			warn("move_floating", e.dispatcher.Apply(ctx, ipc.Action{
				MoveFloatingWindow: &ipc.MoveFloatingWindowAction{
					ID: &id,
					X:  ipc.PositionChange{SetFixed: *entry.X},
					Y:  ipc.PositionChange{SetFixed: *entry.Y},
				},
			}))
		}
	}

	if entry.Width > 0 {
		warn("set_width", e.dispatcher.Apply(ctx, ipc.Action{
			SetWindowWidth: &ipc.SetWindowSizeAction{ID: &id, Change: ipc.SizeChange{SetFixed: entry.Width}},
		}))
	}
	if entry.Height > 0 {
		warn("set_height", e.dispatcher.Apply(ctx, ipc.Action{
			SetWindowHeight: &ipc.SetWindowSizeAction{ID: &id, Change: ipc.SizeChange{SetFixed: entry.Height}},
		}))
	}
}

// focusRestored refocuses the window that was focused at capture time.
func (e *Engine) focusRestored(ctx context.Context, worklist []*Pending) {
	for _, p := range worklist {
		if p.State == StateMatched && p.Entry.Focused {
			id := p.MatchedWindowID
			if err := e.dispatcher.Apply(ctx, ipc.Action{FocusWindow: &ipc.WindowRefAction{ID: &id}}); err != nil {
				slog.Warn("Failed to refocus window", logfields.WindowID(id), logfields.Error(err))
			}
			return
		}
	}
}

// expireDue times out every launched entry whose deadline has passed.
func (e *Engine) expireDue(ctx context.Context, report *Report, now time.Time) {
	for _, p := range report.Entries {
		if p.State == StateLaunched && !p.Deadline.After(now) {
			p.State = StateTimedOut
			e.finishEntry(ctx, report, p, "window did not appear before timeout")
		}
	}
}

// expireAll times out every remaining launched entry.
func (e *Engine) expireAll(ctx context.Context, report *Report, detail string) {
	for _, p := range report.Entries {
		if p.State == StateLaunched {
			p.State = StateTimedOut
			e.finishEntry(ctx, report, p, detail)
		}
	}
}

// finishEntry records one terminal transition in the report, journal,
// metrics, and log.
func (e *Engine) finishEntry(ctx context.Context, report *Report, p *Pending, detail string) {
	var durationMS int64
	if !p.SpawnedAt.IsZero() {
		durationMS = time.Since(p.SpawnedAt).Milliseconds()
	}

	switch p.State {
	case StateMatched:
		report.Matched++
		e.recorder.IncRestoreOutcome(metrics.OutcomeMatched)
		slog.Info("Entry matched",
			logfields.PassID(report.PassID),
			logfields.AppID(p.Entry.AppID),
			logfields.Ordinal(p.Ordinal),
			logfields.WindowID(p.MatchedWindowID),
			logfields.DurationMS(float64(durationMS)))
	case StateTimedOut:
		report.TimedOut++
		e.recorder.IncRestoreOutcome(metrics.OutcomeTimedOut)
		slog.Warn("Entry timed out",
			logfields.PassID(report.PassID),
			logfields.AppID(p.Entry.AppID),
			logfields.Ordinal(p.Ordinal),
			slog.String("detail", detail))
	}

	if err := e.journal.Append(ctx, journal.Record{
		PassID:     report.PassID,
		Kind:       journal.KindRestoreEntry,
		AppID:      p.Entry.AppID,
		State:      p.State.String(),
		DurationMS: durationMS,
		Detail:     detail,
	}); err != nil {
		slog.Warn("Failed to journal restore entry", logfields.Error(err))
	}
}

func (e *Engine) launchedRemain(report *Report) bool {
	for _, p := range report.Entries {
		if p.State == StateLaunched {
			return true
		}
	}
	return false
}

func (e *Engine) earliestDeadline(report *Report) time.Time {
	var earliest time.Time
	for _, p := range report.Entries {
		if p.State != StateLaunched {
			continue
		}
		if earliest.IsZero() || p.Deadline.Before(earliest) {
			earliest = p.Deadline
		}
	}
	return earliest
}

func commandString(argv []string) string {
	return strings.Join(argv, " ")
}
