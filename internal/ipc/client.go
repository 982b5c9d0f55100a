// Package ipc implements the client side of the compositor's control socket:
// newline-delimited JSON requests and replies over a unix socket, plus a
// long-lived event-stream subscription.
//
// The client never retries; every socket-level failure surfaces as a
// protocol error and retry policy stays with the caller.
package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"net"
	"os"

	nerrors "github.com/nirinit/nirinit/internal/errors"
)

// SocketEnv is the environment variable the compositor uses to advertise
// its control socket path.
const SocketEnv = "NIRI_SOCKET"

// maxReplySize bounds a single reply line. Full window lists stay well
// under this.
const maxReplySize = 16 * 1024 * 1024

// Client talks to the compositor control socket. Each request uses a fresh
// connection; the compositor closes the connection after one reply.
type Client struct {
	socketPath string
}

// New returns a client for the socket advertised in the environment.
func New() (*Client, error) {
	path := os.Getenv(SocketEnv)
	if path == "" {
		return nil, nerrors.New(nerrors.CategoryProtocol, nerrors.SeverityFatal, "compositor socket not advertised").
			WithContext("env", SocketEnv)
	}
	return NewWithPath(path), nil
}

// NewWithPath returns a client for an explicit socket path.
func NewWithPath(path string) *Client {
	return &Client{socketPath: path}
}

// SocketPath returns the control socket path this client targets.
func (c *Client) SocketPath() string { return c.socketPath }

// request is the externally tagged request envelope. Query requests are
// bare JSON strings; actions wrap an Action value.
type request struct {
	raw any
}

func queryRequest(name string) request { return request{raw: name} }
func actionRequest(a Action) request   { return request{raw: map[string]Action{"Action": a}} }

// reply is the externally tagged result envelope: {"Ok": ...} or {"Err": "..."}.
type reply struct {
	Ok  json.RawMessage `json:"Ok,omitempty"`
	Err *string         `json:"Err,omitempty"`
}

// roundTrip dials, sends one request line, and reads one reply line.
func (c *Client) roundTrip(ctx context.Context, name string, req request) (json.RawMessage, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", c.socketPath)
	if err != nil {
		return nil, nerrors.ProtocolConnect(c.socketPath, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	payload, err := json.Marshal(req.raw)
	if err != nil {
		return nil, nerrors.InternalError("failed to encode request", err)
	}
	payload = append(payload, '\n')
	if _, err := conn.Write(payload); err != nil {
		return nil, nerrors.ProtocolSend(name, err)
	}

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 64*1024), maxReplySize)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, nerrors.ProtocolSend(name, err)
		}
		return nil, nerrors.ProtocolReply(name, "connection closed before reply")
	}

	var rep reply
	if err := json.Unmarshal(scanner.Bytes(), &rep); err != nil {
		return nil, nerrors.ProtocolReply(name, "undecodable reply: "+err.Error())
	}
	if rep.Err != nil {
		return nil, nerrors.ProtocolReply(name, *rep.Err)
	}
	return rep.Ok, nil
}

// Windows queries all toplevel windows.
func (c *Client) Windows(ctx context.Context) ([]Window, error) {
	ok, err := c.roundTrip(ctx, "Windows", queryRequest("Windows"))
	if err != nil {
		return nil, err
	}
	var body struct {
		Windows []Window `json:"Windows"`
	}
	if err := json.Unmarshal(ok, &body); err != nil {
		return nil, nerrors.ProtocolReply("Windows", err.Error())
	}
	return body.Windows, nil
}

// Workspaces queries all workspaces.
func (c *Client) Workspaces(ctx context.Context) ([]Workspace, error) {
	ok, err := c.roundTrip(ctx, "Workspaces", queryRequest("Workspaces"))
	if err != nil {
		return nil, err
	}
	var body struct {
		Workspaces []Workspace `json:"Workspaces"`
	}
	if err := json.Unmarshal(ok, &body); err != nil {
		return nil, nerrors.ProtocolReply("Workspaces", err.Error())
	}
	return body.Workspaces, nil
}

// Outputs queries connected outputs. The compositor keys them by name.
func (c *Client) Outputs(ctx context.Context) ([]Output, error) {
	ok, err := c.roundTrip(ctx, "Outputs", queryRequest("Outputs"))
	if err != nil {
		return nil, err
	}
	var body struct {
		Outputs map[string]Output `json:"Outputs"`
	}
	if err := json.Unmarshal(ok, &body); err != nil {
		return nil, nerrors.ProtocolReply("Outputs", err.Error())
	}
	outputs := make([]Output, 0, len(body.Outputs))
	for name, out := range body.Outputs {
		if out.Name == "" {
			out.Name = name
		}
		outputs = append(outputs, out)
	}
	return outputs, nil
}

// QueryState fetches outputs, workspaces, and windows in one call. Any
// individual failure fails the whole query.
func (c *Client) QueryState(ctx context.Context) (State, error) {
	outputs, err := c.Outputs(ctx)
	if err != nil {
		return State{}, err
	}
	workspaces, err := c.Workspaces(ctx)
	if err != nil {
		return State{}, err
	}
	windows, err := c.Windows(ctx)
	if err != nil {
		return State{}, err
	}
	return State{Outputs: outputs, Workspaces: workspaces, Windows: windows}, nil
}

// Apply issues a single action. Fire-and-forget from the caller's
// perspective, but a failed write or a rejection surfaces as an error.
func (c *Client) Apply(ctx context.Context, action Action) error {
	ok, err := c.roundTrip(ctx, action.Name(), actionRequest(action))
	if err != nil {
		return err
	}
	var handled string
	if err := json.Unmarshal(ok, &handled); err == nil && handled == "Handled" {
		return nil
	}
	return nerrors.ProtocolRejected(action.Name(), string(ok))
}
