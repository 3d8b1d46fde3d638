package scheduler

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduleFires(t *testing.T) {
	clock := New(nil)
	fired := make(chan struct{})

	clock.Schedule("room-1", 20*time.Millisecond, func() { close(fired) })
	require.True(t, clock.Has("room-1"))

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("timer never fired")
	}

	// Entry is removed once fired.
	assert.Eventually(t, func() bool { return !clock.Has("room-1") }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, clock.Count())
}

func TestRescheduleReplacesTimer(t *testing.T) {
	clock := New(nil)
	var first, second atomic.Int32

	clock.Schedule("room-1", 30*time.Millisecond, func() { first.Add(1) })
	clock.Schedule("room-1", 30*time.Millisecond, func() { second.Add(1) })

	assert.Equal(t, 1, clock.Count())

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(0), first.Load(), "replaced timer must not fire")
	assert.Equal(t, int32(1), second.Load())
	assert.Equal(t, 0, clock.Count())
}

func TestCancelPreventsFiring(t *testing.T) {
	clock := New(nil)
	var fired atomic.Int32

	clock.Schedule("room-1", 30*time.Millisecond, func() { fired.Add(1) })
	clock.Cancel("room-1")

	assert.False(t, clock.Has("room-1"))
	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, int32(0), fired.Load())
}

func TestCancelThenScheduleLeavesOneTimer(t *testing.T) {
	clock := New(nil)

	clock.Schedule("room-1", time.Minute, func() {})
	clock.Cancel("room-1")
	clock.Schedule("room-1", time.Minute, func() {})

	assert.Equal(t, 1, clock.Count())
	clock.Cancel("room-1")
	assert.Equal(t, 0, clock.Count())
}

func TestCancelWithoutTimerIsNoop(t *testing.T) {
	clock := New(nil)
	clock.Cancel("never-scheduled")
	assert.Equal(t, 0, clock.Count())
}

func TestCancelAfterFiringIsNoop(t *testing.T) {
	clock := New(nil)
	fired := make(chan struct{})

	clock.Schedule("room-1", 10*time.Millisecond, func() { close(fired) })
	<-fired

	clock.Cancel("room-1")
	assert.Equal(t, 0, clock.Count())
}

func TestPanickingCallbackClearsSlot(t *testing.T) {
	clock := New(nil)
	done := make(chan struct{})

	clock.Schedule("room-1", 10*time.Millisecond, func() {
		defer close(done)
		panic("callback exploded")
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("callback never ran")
	}

	assert.Eventually(t, func() bool { return !clock.Has("room-1") }, time.Second, 5*time.Millisecond)

	// Clock still usable afterwards.
	ok := make(chan struct{})
	clock.Schedule("room-1", 10*time.Millisecond, func() { close(ok) })
	select {
	case <-ok:
	case <-time.After(time.Second):
		t.Fatal("clock unusable after panic")
	}
}

func TestIndependentKeys(t *testing.T) {
	clock := New(nil)

	clock.Schedule("room-1", time.Minute, func() {})
	clock.Schedule("room-2", time.Minute, func() {})
	assert.Equal(t, 2, clock.Count())

	clock.Cancel("room-1")
	assert.False(t, clock.Has("room-1"))
	assert.True(t, clock.Has("room-2"))

	clock.Cancel("room-2")
}
