// Package session holds the in-memory session model: the point-in-time
// record of windows, workspaces, and outputs that autosave persists and the
// restore engine replays.
package session

import (
	"sort"
	"time"
)

// Workspace records the placement context of one workspace. Only the name
// is stable identity across compositor restarts; the index is a best-effort
// pairing with the output when no name exists.
type Workspace struct {
	Index  uint8  `json:"idx"`
	Name   string `json:"name,omitempty"`
	Output string `json:"output,omitempty"`
}

// WindowEntry is the persisted record of one window. Entries with the same
// app id are disambiguated only by their ordinal position in the session.
type WindowEntry struct {
	// AppID is the stable restore-matching key.
	AppID string `json:"app_id"`

	// Title is diagnostic and feeds spawn-time launch hints; it is never
	// used for matching.
	Title string `json:"title,omitempty"`

	WorkspaceName   string `json:"workspace_name,omitempty"`
	WorkspaceIndex  *uint8 `json:"workspace_idx,omitempty"`
	WorkspaceOutput string `json:"workspace_output,omitempty"`

	Floating bool `json:"is_floating,omitempty"`
	Focused  bool `json:"is_focused,omitempty"`

	Width  int `json:"width,omitempty"`
	Height int `json:"height,omitempty"`

	// X and Y are set only for floating windows.
	X *float64 `json:"x,omitempty"`
	Y *float64 `json:"y,omitempty"`
}

// Session is the root aggregate: an ordered sequence of window entries plus
// the workspace context needed to reconstruct placement. It is immutable
// once loaded for a restore pass.
type Session struct {
	CapturedAt time.Time     `json:"captured_at"`
	Workspaces []Workspace   `json:"workspaces,omitempty"`
	Windows    []WindowEntry `json:"windows"`
}

// Empty reports whether there is nothing to restore.
func (s Session) Empty() bool { return len(s.Windows) == 0 }

// Equal reports whether two sessions describe the same layout. The capture
// timestamp is ignored, and so are insertion-order differences that do not
// reflect an actual change: windows are compared as per-app-id ordinal
// sequences, not as one strict global sequence.
func (s Session) Equal(o Session) bool {
	if !workspaceSetEqual(s.Workspaces, o.Workspaces) {
		return false
	}
	a := groupByApp(s.Windows)
	b := groupByApp(o.Windows)
	if len(a) != len(b) {
		return false
	}
	for app, entries := range a {
		others, ok := b[app]
		if !ok || len(others) != len(entries) {
			return false
		}
		for i := range entries {
			if !entryEqual(entries[i], others[i]) {
				return false
			}
		}
	}
	return true
}

func groupByApp(windows []WindowEntry) map[string][]WindowEntry {
	groups := make(map[string][]WindowEntry)
	for _, w := range windows {
		groups[w.AppID] = append(groups[w.AppID], w)
	}
	return groups
}

func entryEqual(a, b WindowEntry) bool {
	return a.AppID == b.AppID &&
		a.Title == b.Title &&
		a.WorkspaceName == b.WorkspaceName &&
		uint8PtrEqual(a.WorkspaceIndex, b.WorkspaceIndex) &&
		a.WorkspaceOutput == b.WorkspaceOutput &&
		a.Floating == b.Floating &&
		a.Focused == b.Focused &&
		a.Width == b.Width &&
		a.Height == b.Height &&
		floatPtrEqual(a.X, b.X) &&
		floatPtrEqual(a.Y, b.Y)
}

func uint8PtrEqual(a, b *uint8) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func floatPtrEqual(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func workspaceSetEqual(a, b []Workspace) bool {
	if len(a) != len(b) {
		return false
	}
	as := append([]Workspace(nil), a...)
	bs := append([]Workspace(nil), b...)
	less := func(s []Workspace) func(i, j int) bool {
		return func(i, j int) bool {
			if s[i].Output != s[j].Output {
				return s[i].Output < s[j].Output
			}
			if s[i].Index != s[j].Index {
				return s[i].Index < s[j].Index
			}
			return s[i].Name < s[j].Name
		}
	}
	sort.Slice(as, less(as))
	sort.Slice(bs, less(bs))
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}
