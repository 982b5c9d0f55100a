package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nirinit/nirinit/internal/ipc"
)

func strPtr(s string) *string { return &s }
func u64Ptr(v uint64) *uint64 { return &v }

func TestCapture(t *testing.T) {
	state := ipc.State{
		Outputs: []ipc.Output{{Name: "DP-1"}, {Name: "HDMI-A-1"}},
		Workspaces: []ipc.Workspace{
			{ID: 10, Idx: 1, Name: strPtr("mail"), Output: strPtr("DP-1")},
			{ID: 11, Idx: 2, Output: strPtr("HDMI-A-1")},
		},
		Windows: []ipc.Window{
			{
				ID:          1,
				AppID:       strPtr("firefox"),
				Title:       strPtr("Mozilla Firefox"),
				WorkspaceID: u64Ptr(10),
				IsFocused:   true,
				Layout:      ipc.WindowLayout{WindowSize: [2]int{1920, 1080}},
			},
			{
				ID:          2,
				AppID:       strPtr("mpv"),
				WorkspaceID: u64Ptr(11),
				IsFloating:  true,
				Layout: ipc.WindowLayout{
					WindowSize:             [2]int{640, 360},
					TilePosInWorkspaceView: &[2]float64{100, 50},
				},
			},
			{
				// No app id and no workspace: still captured.
				ID:     3,
				Layout: ipc.WindowLayout{WindowSize: [2]int{300, 200}},
			},
		},
	}

	sess := Capture(state)
	require.Len(t, sess.Windows, 3)
	require.Len(t, sess.Workspaces, 2)
	assert.False(t, sess.CapturedAt.IsZero())

	ff := sess.Windows[0]
	assert.Equal(t, "firefox", ff.AppID)
	assert.Equal(t, "Mozilla Firefox", ff.Title)
	assert.Equal(t, "mail", ff.WorkspaceName)
	require.NotNil(t, ff.WorkspaceIndex)
	assert.Equal(t, uint8(1), *ff.WorkspaceIndex)
	assert.Equal(t, "DP-1", ff.WorkspaceOutput)
	assert.True(t, ff.Focused)
	assert.False(t, ff.Floating)
	assert.Equal(t, 1920, ff.Width)
	assert.Nil(t, ff.X)

	mpv := sess.Windows[1]
	assert.True(t, mpv.Floating)
	assert.Equal(t, "", mpv.WorkspaceName)
	require.NotNil(t, mpv.X)
	assert.Equal(t, 100.0, *mpv.X)
	require.NotNil(t, mpv.Y)
	assert.Equal(t, 50.0, *mpv.Y)

	anon := sess.Windows[2]
	assert.Equal(t, "", anon.AppID)
	assert.Nil(t, anon.WorkspaceIndex)
}

func TestCaptureIsComplete(t *testing.T) {
	// Capture never filters: two windows with the same app id both land in
	// the session, in compositor order.
	state := ipc.State{
		Windows: []ipc.Window{
			{ID: 1, AppID: strPtr("kitty"), Layout: ipc.WindowLayout{WindowSize: [2]int{800, 600}}},
			{ID: 2, AppID: strPtr("kitty"), Layout: ipc.WindowLayout{WindowSize: [2]int{801, 601}}},
		},
	}
	sess := Capture(state)
	require.Len(t, sess.Windows, 2)
	assert.Equal(t, 800, sess.Windows[0].Width)
	assert.Equal(t, 801, sess.Windows[1].Width)
}
