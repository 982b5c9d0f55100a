package restore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	nerrors "github.com/nirinit/nirinit/internal/errors"
)

func TestCompositorLauncherSpawnsViaAction(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	launcher := CompositorLauncher{Dispatcher: dispatcher}

	require.NoError(t, launcher.Launch(context.Background(), []string{"firefox", "--new-window"}))

	require.Len(t, dispatcher.actions, 1)
	action := dispatcher.actions[0]
	assert.Equal(t, "Spawn", action.Name())
	require.NotNil(t, action.Spawn)
	assert.Equal(t, []string{"firefox", "--new-window"}, action.Spawn.Command)
}

func TestCompositorLauncherEmptyArgv(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	launcher := CompositorLauncher{Dispatcher: dispatcher}

	err := launcher.Launch(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, nerrors.IsCategory(err, nerrors.CategorySpawn))
	assert.Empty(t, dispatcher.actions)
}

func TestExecLauncherEmptyArgv(t *testing.T) {
	err := ExecLauncher{}.Launch(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, nerrors.IsCategory(err, nerrors.CategorySpawn))
}
