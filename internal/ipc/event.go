package ipc

// Event is a typed compositor event. The set of variants is closed; the
// daemon routes events by exhaustively switching on the concrete type.
type Event interface {
	isEvent()
}

// WindowOpened fires the first time a window id is seen on the stream.
type WindowOpened struct {
	ID     uint64
	AppID  string
	Window Window
}

// WindowChanged fires when an already-known window changes (title, focus,
// geometry).
type WindowChanged struct {
	Window Window
}

// WindowClosed fires when a window goes away.
type WindowClosed struct {
	ID uint64
}

// WorkspacesChanged carries the full new workspace configuration.
type WorkspacesChanged struct {
	Workspaces []Workspace
}

// OutputsChanged carries the full new output configuration.
type OutputsChanged struct {
	Outputs []Output
}

func (WindowOpened) isEvent()      {}
func (WindowChanged) isEvent()     {}
func (WindowClosed) isEvent()      {}
func (WorkspacesChanged) isEvent() {}
func (OutputsChanged) isEvent()    {}
