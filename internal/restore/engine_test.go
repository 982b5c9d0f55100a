package restore

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nirinit/nirinit/internal/ipc"
	"github.com/nirinit/nirinit/internal/session"
)

type fakeDispatcher struct {
	mu      sync.Mutex
	actions []ipc.Action
}

func (d *fakeDispatcher) Apply(_ context.Context, action ipc.Action) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.actions = append(d.actions, action)
	return nil
}

func (d *fakeDispatcher) names() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, 0, len(d.actions))
	for _, a := range d.actions {
		out = append(out, a.Name())
	}
	return out
}

func (d *fakeDispatcher) count(name string) int {
	n := 0
	for _, got := range d.names() {
		if got == name {
			n++
		}
	}
	return n
}

type fakeLauncher struct {
	mu       sync.Mutex
	launched [][]string
	fail     map[string]error
}

func (l *fakeLauncher) Launch(_ context.Context, argv []string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(argv) > 0 {
		if err, ok := l.fail[argv[0]]; ok {
			return err
		}
	}
	l.launched = append(l.launched, argv)
	return nil
}

func newTestEngine(d *fakeDispatcher, l *fakeLauncher) *Engine {
	e := NewEngine(d, l)
	e.SetTimeout(200 * time.Millisecond)
	return e
}

func openedEvent(id uint64, appID string) ipc.Event {
	return ipc.WindowOpened{ID: id, AppID: appID, Window: ipc.Window{ID: id, AppID: &appID}}
}

func eventChan(events ...ipc.Event) <-chan ipc.Event {
	ch := make(chan ipc.Event, len(events))
	for _, ev := range events {
		ch <- ev
	}
	return ch
}

func TestSkippedAppIsNeverSpawned(t *testing.T) {
	d := &fakeDispatcher{}
	l := &fakeLauncher{}
	sess := session.Session{Windows: []session.WindowEntry{{AppID: "steam", WorkspaceName: "1"}}}

	report := newTestEngine(d, l).Run(context.Background(), sess, []string{"steam"}, nil, eventChan())

	assert.Equal(t, 0, report.Total())
	assert.Equal(t, 1, report.Skipped)
	assert.Empty(t, l.launched)
	assert.Empty(t, d.actions)
}

func TestSingleEntryPlacedExactlyOnce(t *testing.T) {
	d := &fakeDispatcher{}
	l := &fakeLauncher{}
	idx := uint8(2)
	sess := session.Session{Windows: []session.WindowEntry{{
		AppID:           "firefox",
		WorkspaceIndex:  &idx,
		WorkspaceOutput: "DP-1",
		Width:           1920,
		Height:          1080,
	}}}

	events := eventChan(openedEvent(42, "firefox"))
	report := newTestEngine(d, l).Run(context.Background(), sess, nil, nil, events)

	require.Equal(t, 1, report.Matched)
	assert.Equal(t, 0, report.TimedOut)
	require.Len(t, l.launched, 1)
	assert.Equal(t, []string{"firefox"}, l.launched[0])

	assert.Equal(t, 1, d.count("MoveWindowToMonitor"))
	assert.Equal(t, 1, d.count("MoveWindowToWorkspace"))
	assert.Equal(t, 1, d.count("SetWindowWidth"))
	assert.Equal(t, 1, d.count("SetWindowHeight"))

	// The workspace move targets index 2 on DP-1.
	for _, a := range d.actions {
		if a.MoveWindowToWorkspace != nil {
			require.NotNil(t, a.MoveWindowToWorkspace.Reference.Index)
			assert.Equal(t, uint8(2), *a.MoveWindowToWorkspace.Reference.Index)
		}
		if a.MoveWindowToMonitor != nil {
			assert.Equal(t, "DP-1", a.MoveWindowToMonitor.Output)
		}
	}
}

func TestDuplicateAppIDsMatchInOrdinalOrder(t *testing.T) {
	d := &fakeDispatcher{}
	l := &fakeLauncher{}
	sess := session.Session{Windows: []session.WindowEntry{
		{AppID: "kitty", Width: 800},
		{AppID: "kitty", Width: 900},
	}}

	events := eventChan(openedEvent(101, "kitty"), openedEvent(102, "kitty"))
	report := newTestEngine(d, l).Run(context.Background(), sess, nil, nil, events)

	require.Equal(t, 2, report.Matched)
	require.Len(t, report.Entries, 2)

	first := report.Entries[0]
	second := report.Entries[1]
	assert.Equal(t, 0, first.Ordinal)
	assert.Equal(t, 800, first.Entry.Width)
	assert.Equal(t, uint64(101), first.MatchedWindowID, "first event claims the first pending entry")
	assert.Equal(t, uint64(102), second.MatchedWindowID)
}

func TestOverrideCommandIsUsed(t *testing.T) {
	d := &fakeDispatcher{}
	l := &fakeLauncher{}
	sess := session.Session{Windows: []session.WindowEntry{{AppID: "thorium-discord.com__app-Default"}}}
	overrides := map[string]string{"thorium-discord.com__app-Default": "discord-web-app --ozone"}

	events := eventChan(openedEvent(7, "thorium-discord.com__app-Default"))
	newTestEngine(d, l).Run(context.Background(), sess, nil, overrides, events)

	require.Len(t, l.launched, 1)
	assert.Equal(t, []string{"discord-web-app", "--ozone"}, l.launched[0])
}

func TestTimeoutTerminatesPass(t *testing.T) {
	d := &fakeDispatcher{}
	l := &fakeLauncher{}
	sess := session.Session{Windows: []session.WindowEntry{{AppID: "never-shows"}}}

	done := make(chan *Report, 1)
	go func() {
		// Channel stays open and silent; only the deadline can end the pass.
		done <- newTestEngine(d, l).Run(context.Background(), sess, nil, nil, make(chan ipc.Event))
	}()

	select {
	case report := <-done:
		assert.Equal(t, 1, report.TimedOut)
		assert.Equal(t, 0, report.Matched)
		assert.Equal(t, StateTimedOut, report.Entries[0].State)
	case <-time.After(5 * time.Second):
		t.Fatal("restore pass did not terminate")
	}
}

func TestSpawnFailureTimesOutImmediately(t *testing.T) {
	d := &fakeDispatcher{}
	l := &fakeLauncher{fail: map[string]error{"missing-bin": errors.New("executable not found")}}
	sess := session.Session{Windows: []session.WindowEntry{{AppID: "missing-bin"}}}

	e := NewEngine(d, l)
	e.SetTimeout(time.Hour) // must not be consumed

	start := time.Now()
	report := e.Run(context.Background(), sess, nil, nil, eventChan())
	require.Less(t, time.Since(start), time.Second)

	assert.Equal(t, 1, report.TimedOut)
	require.Error(t, report.Entries[0].Err)
}

func TestUnexpectedWindowTakesNoAction(t *testing.T) {
	d := &fakeDispatcher{}
	l := &fakeLauncher{}
	sess := session.Session{Windows: []session.WindowEntry{{AppID: "kitty"}}}

	events := eventChan(openedEvent(1, "surprise-app"), openedEvent(2, "kitty"))
	report := newTestEngine(d, l).Run(context.Background(), sess, nil, nil, events)

	require.Equal(t, 1, report.Matched)
	assert.Equal(t, uint64(2), report.Entries[0].MatchedWindowID)
	// No placement was issued for the unexpected window.
	for _, a := range d.actions {
		if a.MoveWindowToWorkspace != nil && a.MoveWindowToWorkspace.WindowID != nil {
			assert.NotEqual(t, uint64(1), *a.MoveWindowToWorkspace.WindowID)
		}
	}
}

func TestEventStreamCloseExpiresRemaining(t *testing.T) {
	d := &fakeDispatcher{}
	l := &fakeLauncher{}
	sess := session.Session{Windows: []session.WindowEntry{{AppID: "kitty"}}}

	e := NewEngine(d, l)
	e.SetTimeout(time.Hour)

	ch := make(chan ipc.Event)
	close(ch)
	report := e.Run(context.Background(), sess, nil, nil, ch)

	assert.Equal(t, 1, report.TimedOut)
	assert.False(t, report.Interrupted)
}

func TestCancellationAbandonsUnmatched(t *testing.T) {
	d := &fakeDispatcher{}
	l := &fakeLauncher{}
	sess := session.Session{Windows: []session.WindowEntry{{AppID: "kitty"}}}

	e := NewEngine(d, l)
	e.SetTimeout(time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	report := e.Run(ctx, sess, nil, nil, make(chan ipc.Event))
	assert.True(t, report.Interrupted)
	assert.Equal(t, StateLaunched, report.Entries[0].State, "abandoned entries are not rewritten")
}

func TestFocusedEntryIsRefocused(t *testing.T) {
	d := &fakeDispatcher{}
	l := &fakeLauncher{}
	sess := session.Session{Windows: []session.WindowEntry{
		{AppID: "kitty"},
		{AppID: "firefox", Focused: true},
	}}

	events := eventChan(openedEvent(1, "kitty"), openedEvent(2, "firefox"))
	report := newTestEngine(d, l).Run(context.Background(), sess, nil, nil, events)

	require.Equal(t, 2, report.Matched)
	require.Equal(t, 1, d.count("FocusWindow"))
	for _, a := range d.actions {
		if a.FocusWindow != nil {
			require.NotNil(t, a.FocusWindow.ID)
			assert.Equal(t, uint64(2), *a.FocusWindow.ID)
		}
	}
}

func TestStateStrings(t *testing.T) {
	assert.Equal(t, "pending", StatePending.String())
	assert.Equal(t, "launched", StateLaunched.String())
	assert.Equal(t, "matched", StateMatched.String())
	assert.Equal(t, "timed_out", StateTimedOut.String())
	assert.False(t, StateLaunched.Terminal())
	assert.True(t, StateMatched.Terminal())
	assert.True(t, StateTimedOut.Terminal())
}
