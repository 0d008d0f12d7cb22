package vanilla

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueRecvReturnsStoredValueImmediately(t *testing.T) {
	h, stop := newTestHub(t)
	defer stop()

	v := h.Value()
	v.Send(42)

	got, err := v.Recv(nil)
	require.NoError(t, err)
	assert.Equal(t, 42, got)

	// last-write-wins: still returns immediately without a Clear
	got, err = v.Recv(nil)
	require.NoError(t, err)
	assert.Equal(t, 42, got)
}

func TestValueRecvParksUntilSend(t *testing.T) {
	h, stop := newTestHub(t)
	defer stop()

	v := h.Value()
	result := make(chan any, 1)
	h.Spawn(func() {
		got, err := v.Recv(nil)
		require.NoError(t, err)
		result <- got
	})
	time.Sleep(10 * time.Millisecond)
	v.Send("ready")

	select {
	case got := <-result:
		assert.Equal(t, "ready", got)
	case <-time.After(time.Second):
		t.Fatal("recv never unparked")
	}
}

func TestValueClearMakesRecvParkAgain(t *testing.T) {
	h, stop := newTestHub(t)
	defer stop()

	v := h.Value()
	v.Send(1)
	v.Clear()

	zero := time.Duration(0)
	_, err := v.Recv(&zero)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestValueCloseWakesParkedRecv(t *testing.T) {
	h, stop := newTestHub(t)
	defer stop()

	v := h.Value()
	errCh := make(chan error, 1)
	h.Spawn(func() {
		_, err := v.Recv(nil)
		errCh <- err
	})
	time.Sleep(10 * time.Millisecond)
	v.Close()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, ErrClosed)
	case <-time.After(time.Second):
		t.Fatal("close never woke the waiting recv")
	}
}
