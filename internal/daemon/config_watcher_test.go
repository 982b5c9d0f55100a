package daemon

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nirinit/nirinit/internal/config"
	"github.com/nirinit/nirinit/internal/session"
)

func TestConfigWatcherAppliesChanges(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("save_interval = \"5m\"\n"), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	store := session.NewStore(filepath.Join(dir, "session.json"))
	d := New(cfg, path, &fakeCompositor{}, store)

	cw, err := NewConfigWatcher(path, d)
	require.NoError(t, err)
	cw.debounceTime = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, cw.Start(ctx))
	defer cw.Stop()

	updated := "save_interval = \"5m\"\n\n[skip]\napps = [\"pavucontrol\"]\n"
	require.NoError(t, os.WriteFile(path, []byte(updated), 0o644))

	require.Eventually(t, func() bool {
		return d.Config().Skipped("pavucontrol")
	}, 5*time.Second, 20*time.Millisecond, "reloaded skip list never applied")
}

func TestConfigWatcherIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(""), 0o644))

	d := New(config.Default(), path, &fakeCompositor{}, session.NewStore(filepath.Join(dir, "session.json")))

	cw, err := NewConfigWatcher(path, d)
	require.NoError(t, err)
	cw.debounceTime = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, cw.Start(ctx))
	defer cw.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.toml"), []byte("save_interval = \"1s\"\n"), 0o644))

	time.Sleep(100 * time.Millisecond)
	require.Equal(t, config.Default().SaveInterval, d.Config().SaveInterval)
}
