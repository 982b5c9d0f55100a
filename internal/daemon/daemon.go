// Package daemon ties the compositor client, session store, restore engine
// and autosave scheduler together into the long-running nirinit process.
package daemon

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nirinit/nirinit/internal/config"
	nerrors "github.com/nirinit/nirinit/internal/errors"
	"github.com/nirinit/nirinit/internal/ipc"
	"github.com/nirinit/nirinit/internal/journal"
	"github.com/nirinit/nirinit/internal/logfields"
	"github.com/nirinit/nirinit/internal/metrics"
	"github.com/nirinit/nirinit/internal/restore"
	"github.com/nirinit/nirinit/internal/retry"
	"github.com/nirinit/nirinit/internal/session"
)

const shutdownGrace = 5 * time.Second

// Compositor is the slice of the IPC client the daemon depends on.
type Compositor interface {
	QueryState(ctx context.Context) (ipc.State, error)
	Apply(ctx context.Context, action ipc.Action) error
	Subscribe(ctx context.Context) (<-chan ipc.Event, error)
}

// Daemon runs the restore-then-autosave lifecycle against one compositor
// instance.
type Daemon struct {
	mu         sync.RWMutex
	cfg        *config.Config
	configPath string

	comp         Compositor
	connectRetry retry.Policy
	store        *session.Store
	launcher     restore.Launcher
	hints        *restore.HintResolver
	journal      journal.Store
	recorder     metrics.Recorder

	metricsHandler http.Handler

	scheduler *Scheduler
	saveJob   uuid.UUID
	watcher   *ConfigWatcher
	workers   WorkerGroup

	stopChan chan struct{}
	stopOnce sync.Once

	// saveMu serializes snapshot writes: the startup pass, autosave ticks
	// and the final flush never run concurrently.
	saveMu    sync.Mutex
	lastSaved session.Session
	haveLast  bool
}

// New creates a daemon with a nop journal and noop metrics; use the setters
// to swap in real implementations.
func New(cfg *config.Config, configPath string, comp Compositor, store *session.Store) *Daemon {
	launcher := restore.Launcher(restore.ExecLauncher{})
	if cfg.SpawnVia == config.SpawnViaCompositor {
		launcher = restore.CompositorLauncher{Dispatcher: comp}
	}
	return &Daemon{
		cfg:          cfg,
		configPath:   configPath,
		comp:         comp,
		connectRetry: retry.DefaultPolicy(),
		store:        store,
		launcher:     launcher,
		journal:      journal.Nop{},
		recorder:     metrics.NoopRecorder{},
		stopChan:     make(chan struct{}),
	}
}

// SetJournal injects the outcome journal.
func (d *Daemon) SetJournal(j journal.Store) {
	if j != nil {
		d.journal = j
	}
}

// SetRecorder injects the metrics recorder.
func (d *Daemon) SetRecorder(r metrics.Recorder) {
	if r != nil {
		d.recorder = r
	}
}

// SetLauncher overrides how restored applications are spawned.
func (d *Daemon) SetLauncher(l restore.Launcher) {
	if l != nil {
		d.launcher = l
	}
}

// SetHints injects the launch-hint resolver used by restore passes.
func (d *Daemon) SetHints(h *restore.HintResolver) { d.hints = h }

// SetMetricsHandler injects the HTTP handler served on MetricsAddr.
func (d *Daemon) SetMetricsHandler(h http.Handler) { d.metricsHandler = h }

// SetConnectRetry overrides the backoff used while waiting for the
// compositor socket at startup.
func (d *Daemon) SetConnectRetry(p retry.Policy) { d.connectRetry = p }

// Config returns the current configuration.
func (d *Daemon) Config() *config.Config {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.cfg
}

// Stop asks a running daemon to shut down. Safe to call more than once.
func (d *Daemon) Stop() {
	d.stopOnce.Do(func() { close(d.stopChan) })
}

// stopAwareContext returns a context that is canceled when either the parent
// context is done or the daemon stop channel is closed.
//
// Callers MUST call the returned cancel func when the derived context is no
// longer needed; otherwise the stop-listener goroutine may live for the
// lifetime of the parent context.
func (d *Daemon) stopAwareContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}

	ctx, cancel := context.WithCancel(parent)
	go func() {
		select {
		case <-d.stopChan:
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

// Run executes the daemon lifecycle: verify the compositor is reachable,
// restore (or seed) the session, then autosave until ctx is done or Stop is
// called. An unreachable compositor at startup is fatal.
func (d *Daemon) Run(ctx context.Context) error {
	ctx, cancel := d.stopAwareContext(ctx)
	defer cancel()

	// The compositor may still be bringing its socket up when the session
	// starts us; retry briefly before treating it as fatal.
	var state ipc.State
	err := d.connectRetry.Do(ctx, func() error {
		var queryErr error
		state, queryErr = d.comp.QueryState(ctx)
		return queryErr
	})
	if err != nil {
		return err
	}

	// Subscribe before restoring so no window opened during the pass is
	// missed.
	events, err := d.comp.Subscribe(ctx)
	if err != nil {
		return err
	}

	d.startupPass(ctx, state, events)

	// Keep the event stream flowing after the restore pass has returned.
	d.workers.Go(func() {
		for range events {
		}
	})

	if err := d.startScheduler(); err != nil {
		return err
	}
	d.startWatcher(ctx)
	d.startMetricsServer(ctx)

	slog.Info("Daemon running", logfields.Interval(d.Config().SaveInterval.Std()))
	<-ctx.Done()

	return d.shutdown()
}

// startupPass either restores the loaded snapshot or, on first run, persists
// the live state as the initial snapshot.
func (d *Daemon) startupPass(ctx context.Context, state ipc.State, events <-chan ipc.Event) {
	sess, err := d.store.Load()
	switch {
	case err == nil && !sess.Empty():
		d.restorePass(ctx, sess, events)
	case err == nil || nerrors.IsBenign(err):
		slog.Info("No previous session, capturing initial snapshot")
		d.seed(ctx, session.Capture(state))
	default:
		slog.Warn("Snapshot unreadable, skipping restore", logfields.Error(err))
	}
}

func (d *Daemon) restorePass(ctx context.Context, sess session.Session, events <-chan ipc.Event) {
	cfg := d.Config()

	engine := restore.NewEngine(d.comp, d.launcher)
	engine.SetTimeout(cfg.RestoreTimeout.Std())
	engine.SetJournal(d.journal)
	engine.SetRecorder(d.recorder)
	if d.hints != nil {
		engine.SetHints(d.hints)
	}

	report := engine.Run(ctx, sess, cfg.Skip.Apps, cfg.Launch, events)
	slog.Info("Restore pass finished",
		logfields.PassID(report.PassID),
		slog.Int("matched", report.Matched),
		slog.Int("timed_out", report.TimedOut),
		slog.Int("skipped", report.Skipped),
		slog.Bool("interrupted", report.Interrupted))

	// The restored snapshot is the comparison baseline for autosave.
	d.saveMu.Lock()
	d.lastSaved = sess
	d.haveLast = true
	d.saveMu.Unlock()
}

func (d *Daemon) startScheduler() error {
	scheduler, err := NewScheduler()
	if err != nil {
		return err
	}
	d.scheduler = scheduler

	interval := d.Config().SaveInterval.Std()
	id, err := scheduler.ScheduleEvery("autosave", interval, d.autosaveTask)
	if err != nil {
		return err
	}
	d.saveJob = id

	scheduler.Start()
	return nil
}

func (d *Daemon) startWatcher(ctx context.Context) {
	if d.configPath == "" {
		return
	}

	watcher, err := NewConfigWatcher(d.configPath, d)
	if err != nil {
		slog.Warn("Config watcher unavailable", logfields.Error(err))
		return
	}
	if err := watcher.Start(ctx); err != nil {
		slog.Warn("Config watcher failed to start", logfields.Error(err))
		return
	}
	d.watcher = watcher
}

func (d *Daemon) startMetricsServer(ctx context.Context) {
	addr := d.Config().MetricsAddr
	if addr == "" || d.metricsHandler == nil {
		return
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", d.metricsHandler)
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	d.workers.Go(func() {
		slog.Info("Metrics listener starting", slog.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Metrics listener failed", logfields.Error(err))
		}
	})
	d.workers.Go(func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	})
}

func (d *Daemon) shutdown() error {
	slog.Info("Daemon stopping")

	if d.watcher != nil {
		d.watcher.Stop()
	}
	if d.scheduler != nil {
		if err := d.scheduler.Stop(); err != nil {
			slog.Warn("Scheduler shutdown error", logfields.Error(err))
		}
	}

	// Final flush: the original context is already done, so bound the last
	// save with a fresh one.
	flushCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := d.saveTick(flushCtx); err != nil {
		slog.Warn("Final save failed", logfields.Error(err))
	}

	waitCtx, cancelWait := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancelWait()
	if err := d.workers.StopAndWait(waitCtx); err != nil {
		slog.Warn("Workers did not stop in time", logfields.Error(err))
	}

	slog.Info("Daemon stopped")
	return nil
}

// ReloadConfig swaps in a new configuration, rescheduling the autosave job
// when the interval changed. Called by the config watcher.
func (d *Daemon) ReloadConfig(_ context.Context, cfg *config.Config) error {
	d.mu.Lock()
	old := d.cfg
	d.cfg = cfg
	d.mu.Unlock()

	if d.scheduler != nil && old.SaveInterval != cfg.SaveInterval {
		id, err := d.scheduler.Reschedule(d.saveJob, "autosave", cfg.SaveInterval.Std(), d.autosaveTask)
		if err != nil {
			return err
		}
		d.saveJob = id
	}

	slog.Info("Configuration reloaded",
		logfields.Interval(cfg.SaveInterval.Std()),
		slog.Int("skip_apps", len(cfg.Skip.Apps)))
	return nil
}

// autosaveTask is the gocron entry point for one autosave tick.
func (d *Daemon) autosaveTask() {
	ctx, cancel := d.stopAwareContext(context.Background())
	defer cancel()
	_ = d.saveTick(ctx)
}
