package restore

import (
	"context"
	"os/exec"
	"syscall"

	nerrors "github.com/nirinit/nirinit/internal/errors"
	"github.com/nirinit/nirinit/internal/ipc"
)

// Launcher spawns a launch command. The engine never waits for the process
// to exit, only for the compositor event that proves a window materialized.
type Launcher interface {
	Launch(ctx context.Context, argv []string) error
}

// ExecLauncher starts processes directly, detached into their own session
// so they outlive the daemon.
type ExecLauncher struct{}

func (ExecLauncher) Launch(_ context.Context, argv []string) error {
	if len(argv) == 0 {
		return nerrors.SpawnFailed("", nil)
	}
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := cmd.Start(); err != nil {
		return nerrors.SpawnFailed(argv[0], err)
	}
	// Reap the child when it eventually exits.
	go func() { _ = cmd.Wait() }()
	return nil
}

// CompositorLauncher delegates spawning to the compositor. The compositor
// accepts the command without checking it, so a bad executable surfaces
// only as a match timeout, never as an immediate spawn failure.
type CompositorLauncher struct {
	Dispatcher Dispatcher
}

func (l CompositorLauncher) Launch(ctx context.Context, argv []string) error {
	if len(argv) == 0 {
		return nerrors.SpawnFailed("", nil)
	}
	action := ipc.Action{Spawn: &ipc.SpawnAction{Command: argv}}
	if err := l.Dispatcher.Apply(ctx, action); err != nil {
		return nerrors.SpawnFailed(argv[0], err)
	}
	return nil
}
