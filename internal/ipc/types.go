package ipc

// Wire types for the compositor's control socket. The encoding is fixed by
// the compositor; these structs mirror it and are not the daemon's own
// session model (see internal/session for that).

// Window is a toplevel window as reported by the compositor.
type Window struct {
	ID          uint64       `json:"id"`
	Title       *string      `json:"title"`
	AppID       *string      `json:"app_id"`
	WorkspaceID *uint64      `json:"workspace_id"`
	IsFocused   bool         `json:"is_focused"`
	IsFloating  bool         `json:"is_floating"`
	Layout      WindowLayout `json:"layout"`
}

// WindowLayout carries the geometry the compositor knows about a window.
type WindowLayout struct {
	// WindowSize is (width, height) in logical pixels.
	WindowSize [2]int `json:"window_size"`

	// TilePosInWorkspaceView is the (x, y) position of the window's tile
	// within the workspace view, set for floating windows.
	TilePosInWorkspaceView *[2]float64 `json:"tile_pos_in_workspace_view"`
}

// Workspace is a virtual desktop bound to one output. The id and idx are
// compositor-assigned and unstable across restarts; only the name is a
// stable identity.
type Workspace struct {
	ID        uint64  `json:"id"`
	Idx       uint8   `json:"idx"`
	Name      *string `json:"name"`
	Output    *string `json:"output"`
	IsActive  bool    `json:"is_active"`
	IsFocused bool    `json:"is_focused"`
}

// Output is a connected monitor.
type Output struct {
	Name    string         `json:"name"`
	Make    string         `json:"make"`
	Model   string         `json:"model"`
	Logical *LogicalOutput `json:"logical"`
}

// LogicalOutput is the logical position and size of an output in the
// global coordinate space.
type LogicalOutput struct {
	X      int     `json:"x"`
	Y      int     `json:"y"`
	Width  int     `json:"width"`
	Height int     `json:"height"`
	Scale  float64 `json:"scale"`
}

// State is the result of a full state query.
type State struct {
	Outputs    []Output
	Workspaces []Workspace
	Windows    []Window
}
