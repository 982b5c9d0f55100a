package session

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	nerrors "github.com/nirinit/nirinit/internal/errors"
)

func tempStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "session.json"))
}

func TestRoundTrip(t *testing.T) {
	idx := uint8(2)
	x, y := 12.5, 40.0
	cases := []struct {
		name string
		sess Session
	}{
		{"empty", Session{CapturedAt: time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)}},
		{"duplicate app ids and optional fields", Session{
			CapturedAt: time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC),
			Workspaces: []Workspace{{Index: 1, Name: "mail", Output: "DP-1"}},
			Windows: []WindowEntry{
				{AppID: "kitty", Width: 800, Height: 600},
				{AppID: "kitty", WorkspaceName: "mail", WorkspaceIndex: &idx, WorkspaceOutput: "DP-1", Focused: true, Width: 801, Height: 601},
				{AppID: "mpv", Floating: true, X: &x, Y: &y, Width: 640, Height: 360},
				{AppID: ""},
			},
		}},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			store := tempStore(t)
			require.NoError(t, store.Save(c.sess))

			loaded, err := store.Load()
			require.NoError(t, err)
			assert.Equal(t, c.sess, loaded)
		})
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := tempStore(t).Load()
	require.Error(t, err)
	assert.True(t, nerrors.IsCategory(err, nerrors.CategorySnapshot))
	assert.True(t, nerrors.IsBenign(err))
}

func TestLoadEmptyFile(t *testing.T) {
	store := tempStore(t)
	require.NoError(t, os.WriteFile(store.Path(), nil, 0o644))

	_, err := store.Load()
	require.Error(t, err)
	assert.True(t, nerrors.IsBenign(err), "empty file means nothing to restore, not corruption")
}

func TestLoadMalformed(t *testing.T) {
	store := tempStore(t)
	require.NoError(t, os.WriteFile(store.Path(), []byte("{not json"), 0o644))

	_, err := store.Load()
	require.Error(t, err)
	assert.True(t, nerrors.IsCategory(err, nerrors.CategorySnapshot))
	assert.False(t, nerrors.IsBenign(err))
}

func TestLoadIgnoresUnknownFields(t *testing.T) {
	store := tempStore(t)
	payload := `{"windows":[{"app_id":"firefox","width":1920,"future_field":true}],"another_future_field":1}`
	require.NoError(t, os.WriteFile(store.Path(), []byte(payload), 0o644))

	sess, err := store.Load()
	require.NoError(t, err)
	require.Len(t, sess.Windows, 1)
	assert.Equal(t, "firefox", sess.Windows[0].AppID)
}

func TestSaveReplacesAtomically(t *testing.T) {
	store := tempStore(t)
	require.NoError(t, store.Save(Session{Windows: []WindowEntry{{AppID: "old"}}}))
	require.NoError(t, store.Save(Session{Windows: []WindowEntry{{AppID: "new"}}}))

	sess, err := store.Load()
	require.NoError(t, err)
	require.Len(t, sess.Windows, 1)
	assert.Equal(t, "new", sess.Windows[0].AppID)

	// No temp file left behind.
	_, err = os.Stat(store.Path() + ".tmp")
	assert.True(t, os.IsNotExist(err))
}
