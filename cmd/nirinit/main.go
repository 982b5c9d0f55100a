package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/nirinit/nirinit/internal/config"
	"github.com/nirinit/nirinit/internal/daemon"
	"github.com/nirinit/nirinit/internal/ipc"
	"github.com/nirinit/nirinit/internal/journal"
	"github.com/nirinit/nirinit/internal/metrics"
	"github.com/nirinit/nirinit/internal/restore"
	"github.com/nirinit/nirinit/internal/session"
)

var CLI struct {
	Config  string `short:"c" help:"Configuration file path (default: $XDG_CONFIG_HOME/nirinit/config.toml)"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	Daemon struct {
	} `cmd:"" help:"Run the session daemon: restore on start, then autosave periodically"`

	Save struct {
	} `cmd:"" help:"Capture the current session and write the snapshot once"`

	Restore struct {
	} `cmd:"" help:"Run a single restore pass from the stored snapshot"`

	History struct {
		Limit int    `short:"n" help:"Number of journal records to show" default:"20"`
		Pass  string `help:"Show all records for one restore pass ID"`
	} `cmd:"" help:"Show recent autosave and restore journal records"`
}

func main() {
	ctx := kong.Parse(&CLI)

	// Optional .env next to the working directory, handy during development.
	_ = godotenv.Load()

	logLevel := slog.LevelInfo
	if CLI.Verbose {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})))

	switch ctx.Command() {
	case "daemon":
		if err := runDaemon(); err != nil {
			slog.Error("Daemon failed", "error", err)
			os.Exit(1)
		}
	case "save":
		if err := runSave(); err != nil {
			slog.Error("Save failed", "error", err)
			os.Exit(1)
		}
	case "restore":
		if err := runRestore(); err != nil {
			slog.Error("Restore failed", "error", err)
			os.Exit(1)
		}
	case "history":
		if err := runHistory(CLI.History.Limit, CLI.History.Pass); err != nil {
			slog.Error("History failed", "error", err)
			os.Exit(1)
		}
	}
}

func configPath() (string, error) {
	if CLI.Config != "" {
		return CLI.Config, nil
	}
	return config.ConfigFile()
}

func loadConfig() (*config.Config, string, error) {
	path, err := configPath()
	if err != nil {
		return nil, "", err
	}
	cfg, err := config.LoadOrDefault(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func openStore() (*session.Store, error) {
	path, err := config.DataFile()
	if err != nil {
		return nil, err
	}
	return session.NewStore(path), nil
}

func openJournal(cfg *config.Config) (journal.Store, error) {
	if !cfg.Journal {
		return journal.Nop{}, nil
	}
	path, err := config.JournalFile()
	if err != nil {
		return nil, err
	}
	return journal.NewSQLiteStore(path)
}

func runDaemon() error {
	cfg, cfgPath, err := loadConfig()
	if err != nil {
		return err
	}

	client, err := ipc.New()
	if err != nil {
		return err
	}

	store, err := openStore()
	if err != nil {
		return err
	}

	jrnl, err := openJournal(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := jrnl.Close(); err != nil {
			slog.Warn("Journal close failed", "error", err)
		}
	}()

	d := daemon.New(cfg, cfgPath, client, store)
	d.SetJournal(jrnl)

	if cfg.MetricsAddr != "" {
		registry := prom.NewRegistry()
		d.SetRecorder(metrics.NewPrometheusRecorder(registry))
		d.SetMetricsHandler(metrics.HTTPHandler(registry))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return d.Run(ctx)
}

func runSave() error {
	client, err := ipc.New()
	if err != nil {
		return err
	}

	store, err := openStore()
	if err != nil {
		return err
	}

	state, err := client.QueryState(context.Background())
	if err != nil {
		return err
	}

	sess := session.Capture(state)
	if err := store.Save(sess); err != nil {
		return err
	}

	fmt.Printf("Saved %d windows across %d workspaces to %s\n",
		len(sess.Windows), len(sess.Workspaces), store.Path())
	return nil
}

func runRestore() error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}

	client, err := ipc.New()
	if err != nil {
		return err
	}

	store, err := openStore()
	if err != nil {
		return err
	}

	sess, err := store.Load()
	if err != nil {
		return err
	}

	jrnl, err := openJournal(cfg)
	if err != nil {
		return err
	}
	defer jrnl.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	events, err := client.Subscribe(ctx)
	if err != nil {
		return err
	}

	launcher := restore.Launcher(restore.ExecLauncher{})
	if cfg.SpawnVia == config.SpawnViaCompositor {
		launcher = restore.CompositorLauncher{Dispatcher: client}
	}

	engine := restore.NewEngine(client, launcher)
	engine.SetTimeout(cfg.RestoreTimeout.Std())
	engine.SetJournal(jrnl)

	report := engine.Run(ctx, sess, cfg.Skip.Apps, cfg.Launch, events)
	fmt.Printf("Restore pass %s: %d matched, %d timed out, %d skipped\n",
		report.PassID, report.Matched, report.TimedOut, report.Skipped)
	return nil
}

func runHistory(limit int, passID string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	if !cfg.Journal {
		return fmt.Errorf("journal is disabled in the configuration")
	}

	jrnl, err := openJournal(cfg)
	if err != nil {
		return err
	}
	defer jrnl.Close()

	var records []journal.Record
	if passID != "" {
		records, err = jrnl.ByPass(context.Background(), passID)
	} else {
		records, err = jrnl.Recent(context.Background(), limit)
	}
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tKIND\tAPP\tSTATE\tPASS\tDETAIL")
	for _, rec := range records {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			rec.At.Format("2006-01-02 15:04:05"),
			rec.Kind, rec.AppID, rec.State, rec.PassID, rec.Detail)
	}
	return w.Flush()
}
