package session

import (
	"time"

	"github.com/nirinit/nirinit/internal/ipc"
)

// Capture builds a Session from live query results. It is a pure
// transformation and records everything: skip filtering is a restore-time
// concern, so the snapshot stays a complete record of the layout.
func Capture(state ipc.State) Session {
	workspaceByID := make(map[uint64]ipc.Workspace, len(state.Workspaces))
	for _, ws := range state.Workspaces {
		workspaceByID[ws.ID] = ws
	}

	sess := Session{
		CapturedAt: time.Now().UTC(),
		Workspaces: make([]Workspace, 0, len(state.Workspaces)),
		Windows:    make([]WindowEntry, 0, len(state.Windows)),
	}

	for _, ws := range state.Workspaces {
		sess.Workspaces = append(sess.Workspaces, Workspace{
			Index:  ws.Idx,
			Name:   deref(ws.Name),
			Output: deref(ws.Output),
		})
	}

	for _, w := range state.Windows {
		entry := WindowEntry{
			AppID:    deref(w.AppID),
			Title:    deref(w.Title),
			Floating: w.IsFloating,
			Focused:  w.IsFocused,
			Width:    w.Layout.WindowSize[0],
			Height:   w.Layout.WindowSize[1],
		}
		if w.WorkspaceID != nil {
			if ws, ok := workspaceByID[*w.WorkspaceID]; ok {
				idx := ws.Idx
				entry.WorkspaceName = deref(ws.Name)
				entry.WorkspaceIndex = &idx
				entry.WorkspaceOutput = deref(ws.Output)
			}
		}
		if w.IsFloating && w.Layout.TilePosInWorkspaceView != nil {
			x := w.Layout.TilePosInWorkspaceView[0]
			y := w.Layout.TilePosInWorkspaceView[1]
			entry.X = &x
			entry.Y = &y
		}
		sess.Windows = append(sess.Windows, entry)
	}

	return sess
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
