package ipc

// Action is a placement or control command for the compositor. Each variant
// marshals to the compositor's externally-tagged form, e.g.
// {"Action":{"MoveWindowToWorkspace":{...}}}.
type Action struct {
	Spawn                 *SpawnAction                 `json:"Spawn,omitempty"`
	MoveWindowToMonitor   *MoveWindowToMonitorAction   `json:"MoveWindowToMonitor,omitempty"`
	MoveWindowToWorkspace *MoveWindowToWorkspaceAction `json:"MoveWindowToWorkspace,omitempty"`
	SetWindowWidth        *SetWindowSizeAction         `json:"SetWindowWidth,omitempty"`
	SetWindowHeight       *SetWindowSizeAction         `json:"SetWindowHeight,omitempty"`
	MoveWindowToFloating  *WindowRefAction             `json:"MoveWindowToFloating,omitempty"`
	MoveWindowToTiling    *WindowRefAction             `json:"MoveWindowToTiling,omitempty"`
	MoveFloatingWindow    *MoveFloatingWindowAction    `json:"MoveFloatingWindow,omitempty"`
	FocusWindow           *WindowRefAction             `json:"FocusWindow,omitempty"`
}

// SpawnAction asks the compositor to spawn a command.
type SpawnAction struct {
	Command []string `json:"command"`
}

// MoveWindowToMonitorAction moves a window to the named output.
type MoveWindowToMonitorAction struct {
	ID     *uint64 `json:"id"`
	Output string  `json:"output"`
}

// WorkspaceReference addresses a workspace by name or by index. Exactly one
// field is set.
type WorkspaceReference struct {
	Name  *string `json:"Name,omitempty"`
	Index *uint8  `json:"Index,omitempty"`
}

// WorkspaceRefByName references a workspace by its stable name.
func WorkspaceRefByName(name string) WorkspaceReference {
	return WorkspaceReference{Name: &name}
}

// WorkspaceRefByIndex references a workspace by its per-output index.
func WorkspaceRefByIndex(idx uint8) WorkspaceReference {
	return WorkspaceReference{Index: &idx}
}

// MoveWindowToWorkspaceAction moves a window to a workspace. The compositor
// creates a named workspace on demand when the reference does not resolve.
type MoveWindowToWorkspaceAction struct {
	WindowID  *uint64            `json:"window_id"`
	Reference WorkspaceReference `json:"reference"`
	Focus     bool               `json:"focus"`
}

// SizeChange adjusts one dimension of a window.
type SizeChange struct {
	SetFixed int `json:"SetFixed"`
}

// SetWindowSizeAction sets a window's width or height to a fixed size.
type SetWindowSizeAction struct {
	ID     *uint64    `json:"id"`
	Change SizeChange `json:"change"`
}

// WindowRefAction addresses a single window.
type WindowRefAction struct {
	ID *uint64 `json:"id"`
}

// PositionChange adjusts one coordinate of a floating window.
type PositionChange struct {
	SetFixed float64 `json:"SetFixed"`
}

// MoveFloatingWindowAction positions a floating window.
type MoveFloatingWindowAction struct {
	ID *uint64        `json:"id"`
	X  PositionChange `json:"x"`
	Y  PositionChange `json:"y"`
}

// Name returns the action's variant name for logging and error context.
func (a Action) Name() string {
	switch {
	case a.Spawn != nil:
		return "Spawn"
	case a.MoveWindowToMonitor != nil:
		return "MoveWindowToMonitor"
	case a.MoveWindowToWorkspace != nil:
		return "MoveWindowToWorkspace"
	case a.SetWindowWidth != nil:
		return "SetWindowWidth"
	case a.SetWindowHeight != nil:
		return "SetWindowHeight"
	case a.MoveWindowToFloating != nil:
		return "MoveWindowToFloating"
	case a.MoveWindowToTiling != nil:
		return "MoveWindowToTiling"
	case a.MoveFloatingWindow != nil:
		return "MoveFloatingWindow"
	case a.FocusWindow != nil:
		return "FocusWindow"
	default:
		return "Unknown"
	}
}
