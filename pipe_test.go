package vanilla

import (
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipeRendezvousHandsOffDirectly(t *testing.T) {
	h, stop := newTestHub(t)
	defer stop()

	s, r := h.Pipe()
	result := make(chan any, 1)
	h.Spawn(func() {
		v, err := r.Recv(nil)
		require.NoError(t, err)
		result <- v
	})

	time.Sleep(10 * time.Millisecond) // let the recver park first
	require.NoError(t, s.Send("hello", nil))

	select {
	case v := <-result:
		assert.Equal(t, "hello", v)
	case <-time.After(time.Second):
		t.Fatal("recv never completed")
	}
}

func TestPipeSendTimeoutZeroWithNoRecver(t *testing.T) {
	h, stop := newTestHub(t)
	defer stop()

	s, _ := h.Pipe()
	zero := time.Duration(0)
	assert.ErrorIs(t, s.Send("x", &zero), ErrTimeout)
}

func TestPipeRecvTimeoutZeroWithNoSender(t *testing.T) {
	h, stop := newTestHub(t)
	defer stop()

	_, r := h.Pipe()
	zero := time.Duration(0)
	_, err := r.Recv(&zero)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestPipeSenderCloseWakesParkedRecver(t *testing.T) {
	h, stop := newTestHub(t)
	defer stop()

	s, r := h.Pipe()
	errCh := make(chan error, 1)
	h.Spawn(func() {
		_, err := r.Recv(nil)
		errCh <- err
	})

	time.Sleep(10 * time.Millisecond)
	s.Close()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, ErrClosed)
	case <-time.After(time.Second):
		t.Fatal("close did not wake recv")
	}
}

func TestPipeCloseIsIdempotent(t *testing.T) {
	h, stop := newTestHub(t)
	defer stop()

	s, _ := h.Pipe()
	s.Close()
	assert.NotPanics(t, func() { s.Close() })
}

func TestPipeSendAfterCloseReturnsErrClosed(t *testing.T) {
	h, stop := newTestHub(t)
	defer stop()

	s, _ := h.Pipe()
	s.Close()
	assert.ErrorIs(t, s.Send("x", nil), ErrClosed)
}

func TestPipeRecvOfSentErrorReturnsItAsError(t *testing.T) {
	h, stop := newTestHub(t)
	defer stop()

	s, r := h.Pipe()
	boom := ErrClosed // any error value works here; reuse a sentinel
	errCh := make(chan error, 1)
	h.Spawn(func() {
		_, err := r.Recv(nil)
		errCh <- err
	})
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, s.Send(boom, nil))

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, boom)
	case <-time.After(time.Second):
		t.Fatal("recv never completed")
	}
}

func TestPipeRecverAbandonmentWakesSender(t *testing.T) {
	h, stop := newTestHub(t)
	defer stop()

	s, r := h.Pipe()
	sendErr := make(chan error, 1)
	h.Spawn(func() {
		sendErr <- s.Send("x", nil)
	})

	time.Sleep(10 * time.Millisecond)
	runtime.KeepAlive(r) // keep the recver reachable until the sender has parked
	r = nil
	runtime.GC()
	runtime.GC()

	select {
	case err := <-sendErr:
		assert.ErrorIs(t, err, ErrAbandoned)
	case <-time.After(2 * time.Second):
		t.Fatal("abandonment never observed")
	}
}
