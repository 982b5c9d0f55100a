package daemon

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchedulerRunsPeriodicTask(t *testing.T) {
	s, err := NewScheduler()
	require.NoError(t, err)

	var ticks atomic.Int64
	id, err := s.ScheduleEvery("tick", 10*time.Millisecond, func() { ticks.Add(1) })
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, id)

	s.Start()
	defer func() { require.NoError(t, s.Stop()) }()

	require.Eventually(t, func() bool {
		return ticks.Load() >= 2
	}, 5*time.Second, 5*time.Millisecond)
}

func TestSchedulerReschedule(t *testing.T) {
	s, err := NewScheduler()
	require.NoError(t, err)

	var ticks atomic.Int64
	id, err := s.ScheduleEvery("tick", time.Hour, func() { ticks.Add(1) })
	require.NoError(t, err)

	s.Start()
	defer func() { require.NoError(t, s.Stop()) }()

	// Moving the job to a short interval makes it actually fire.
	next, err := s.Reschedule(id, "tick", 10*time.Millisecond, func() { ticks.Add(1) })
	require.NoError(t, err)
	assert.NotEqual(t, id, next)

	require.Eventually(t, func() bool {
		return ticks.Load() >= 1
	}, 5*time.Second, 5*time.Millisecond)
}
