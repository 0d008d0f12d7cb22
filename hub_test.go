package vanilla

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func newTestHub(t *testing.T) (*Hub, func()) {
	t.Helper()
	h, err := NewHub()
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = h.Run(ctx) }()
	return h, func() {
		cancel()
		h.Stop()
		select {
		case <-h.done:
		case <-time.After(time.Second):
			t.Fatal("hub did not shut down")
		}
	}
}

func TestHubSleepCompletes(t *testing.T) {
	h, stop := newTestHub(t)
	defer stop()

	done := make(chan error, 1)
	h.Spawn(func() {
		done <- h.Sleep(10 * time.Millisecond)
	})

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("sleep never completed")
	}
}

func TestHubStopWakesSleepers(t *testing.T) {
	h, err := NewHub()
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = h.Run(ctx) }()

	done := make(chan error, 1)
	h.Spawn(func() {
		done <- h.Sleep(time.Hour)
	})

	time.Sleep(20 * time.Millisecond)
	h.Stop()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrHalt)
	case <-time.After(time.Second):
		t.Fatal("stop did not wake the sleeping task")
	}
	h.Wait()
}

func TestHubSleepAfterStopReturnsErrStop(t *testing.T) {
	h, err := NewHub()
	require.NoError(t, err)
	defer h.Close()
	h.Stop()
	assert.ErrorIs(t, h.Sleep(time.Millisecond), ErrStop)
}

func TestHubRegisterDuplicateFD(t *testing.T) {
	h, err := NewHub()
	require.NoError(t, err)
	defer h.Close()
	var fds [2]int
	require.NoError(t, unix.Pipe2(fds[:], unix.O_CLOEXEC))
	defer unix.Close(fds[0])
	defer unix.Close(fds[1])

	require.NoError(t, h.Register(fds[0], PollIn, func(PollMask) {}))
	defer h.Unregister(fds[0])

	assert.ErrorIs(t, h.Register(fds[0], PollIn, func(PollMask) {}), ErrAlreadyRegistered)
}

func TestHubUnregisterUnknownFD(t *testing.T) {
	h, err := NewHub()
	require.NoError(t, err)
	defer h.Close()
	assert.ErrorIs(t, h.Unregister(99999), ErrNotRegistered)
}

func TestHubModifyUnknownFD(t *testing.T) {
	h, err := NewHub()
	require.NoError(t, err)
	defer h.Close()
	assert.ErrorIs(t, h.Modify(99999, PollIn), ErrNotRegistered)
}
