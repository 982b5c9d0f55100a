package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"log/slog"
	"net"

	nerrors "github.com/nirinit/nirinit/internal/errors"
	"github.com/nirinit/nirinit/internal/logfields"
	"github.com/nirinit/nirinit/internal/util/sets"
)

// wireEvent is the externally tagged event envelope the compositor writes,
// one JSON object per line. Variants we do not care about simply decode to
// all-nil and are dropped.
type wireEvent struct {
	WindowsChanged *struct {
		Windows []Window `json:"windows"`
	} `json:"WindowsChanged,omitempty"`
	WindowOpenedOrChanged *struct {
		Window Window `json:"window"`
	} `json:"WindowOpenedOrChanged,omitempty"`
	WindowClosed *struct {
		ID uint64 `json:"id"`
	} `json:"WindowClosed,omitempty"`
	WorkspacesChanged *struct {
		Workspaces []Workspace `json:"workspaces"`
	} `json:"WorkspacesChanged,omitempty"`
	OutputsChanged *struct {
		Outputs map[string]Output `json:"outputs"`
	} `json:"OutputsChanged,omitempty"`
}

// Subscribe opens the event stream and returns a channel of typed events.
//
// The stream is lazy, infinite, and non-restartable: events arrive in the
// order the compositor emitted them, the channel closes when the socket
// closes or ctx is canceled, and callers wanting a new stream must
// subscribe again. The compositor reports opened and changed windows with
// one event kind; the subscription tracks which ids it has seen so the
// first sighting of a window surfaces as WindowOpened.
func (c *Client) Subscribe(ctx context.Context) (<-chan Event, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", c.socketPath)
	if err != nil {
		return nil, nerrors.ProtocolConnect(c.socketPath, err)
	}

	payload, err := json.Marshal("EventStream")
	if err != nil {
		conn.Close()
		return nil, nerrors.InternalError("failed to encode request", err)
	}
	if _, err := conn.Write(append(payload, '\n')); err != nil {
		conn.Close()
		return nil, nerrors.ProtocolSend("EventStream", err)
	}

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 64*1024), maxReplySize)
	if !scanner.Scan() {
		conn.Close()
		return nil, nerrors.ProtocolReply("EventStream", "connection closed before subscription ack")
	}
	var rep reply
	if err := json.Unmarshal(scanner.Bytes(), &rep); err != nil {
		conn.Close()
		return nil, nerrors.ProtocolReply("EventStream", "undecodable ack: "+err.Error())
	}
	if rep.Err != nil {
		conn.Close()
		return nil, nerrors.ProtocolReply("EventStream", *rep.Err)
	}

	events := make(chan Event)

	// Close the socket when ctx ends so the reader goroutine unblocks.
	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	go func() {
		defer close(events)
		defer conn.Close()

		seen := sets.New[uint64]()
		for scanner.Scan() {
			var we wireEvent
			if err := json.Unmarshal(scanner.Bytes(), &we); err != nil {
				slog.Debug("Dropping undecodable compositor event", logfields.Error(err))
				continue
			}
			for _, ev := range translate(we, seen) {
				select {
				case events <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return events, nil
}

// translate maps one wire event to zero or more typed events, updating the
// set of window ids already seen on this stream.
func translate(we wireEvent, seen sets.Set[uint64]) []Event {
	switch {
	case we.WindowsChanged != nil:
		// Full snapshot: windows present here are pre-existing, not
		// opened, except ids never seen after the first snapshot.
		var out []Event
		first := seen.Len() == 0
		for _, w := range we.WindowsChanged.Windows {
			if seen.Has(w.ID) {
				continue
			}
			seen.Add(w.ID)
			if !first {
				out = append(out, WindowOpened{ID: w.ID, AppID: appID(w), Window: w})
			}
		}
		return out
	case we.WindowOpenedOrChanged != nil:
		w := we.WindowOpenedOrChanged.Window
		if seen.Has(w.ID) {
			return []Event{WindowChanged{Window: w}}
		}
		seen.Add(w.ID)
		return []Event{WindowOpened{ID: w.ID, AppID: appID(w), Window: w}}
	case we.WindowClosed != nil:
		seen.Delete(we.WindowClosed.ID)
		return []Event{WindowClosed{ID: we.WindowClosed.ID}}
	case we.WorkspacesChanged != nil:
		return []Event{WorkspacesChanged{Workspaces: we.WorkspacesChanged.Workspaces}}
	case we.OutputsChanged != nil:
		outputs := make([]Output, 0, len(we.OutputsChanged.Outputs))
		for name, out := range we.OutputsChanged.Outputs {
			if out.Name == "" {
				out.Name = name
			}
			outputs = append(outputs, out)
		}
		return []Event{OutputsChanged{Outputs: outputs}}
	default:
		return nil
	}
}

func appID(w Window) string {
	if w.AppID == nil {
		return ""
	}
	return *w.AppID
}
