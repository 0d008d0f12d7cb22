package vanilla

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDealerDeliversToLongestWaitingRecver(t *testing.T) {
	h, stop := newTestHub(t)
	defer stop()

	d := h.Dealer()
	first := make(chan any, 1)
	second := make(chan any, 1)

	h.Spawn(func() {
		v, err := d.Recv(nil)
		require.NoError(t, err)
		first <- v
	})
	time.Sleep(5 * time.Millisecond)
	h.Spawn(func() {
		v, err := d.Recv(nil)
		require.NoError(t, err)
		second <- v
	})
	time.Sleep(5 * time.Millisecond)

	require.NoError(t, d.Send("one", nil))
	require.NoError(t, d.Send("two", nil))

	select {
	case v := <-first:
		assert.Equal(t, "one", v)
	case <-time.After(time.Second):
		t.Fatal("first waiter never got a value")
	}
	select {
	case v := <-second:
		assert.Equal(t, "two", v)
	case <-time.After(time.Second):
		t.Fatal("second waiter never got a value")
	}
}

func TestDealerSendParksWithNoRecver(t *testing.T) {
	h, stop := newTestHub(t)
	defer stop()

	d := h.Dealer()
	zero := time.Duration(0)
	assert.ErrorIs(t, d.Send("x", &zero), ErrTimeout)
}

func TestDealerCloseFailsQueuedRecvers(t *testing.T) {
	h, stop := newTestHub(t)
	defer stop()

	d := h.Dealer()
	errCh := make(chan error, 1)
	h.Spawn(func() {
		_, err := d.Recv(nil)
		errCh <- err
	})
	time.Sleep(10 * time.Millisecond)
	d.Close()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, ErrClosed)
	case <-time.After(time.Second):
		t.Fatal("close never woke the waiting recv")
	}
}
