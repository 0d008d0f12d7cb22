package vanilla

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPulseCoalescesTicksBetweenRecvs(t *testing.T) {
	h, stop := newTestHub(t)
	defer stop()

	p := h.Pulse(10 * time.Millisecond)
	defer p.Close()

	zero := time.Duration(0)
	_, err := p.Recv(&zero)
	assert.ErrorIs(t, err, ErrTimeout)

	require.NoError(t, h.Sleep(25*time.Millisecond))

	v, err := p.Recv(&zero)
	require.NoError(t, err)
	assert.Equal(t, true, v)

	// multiple ticks elapsed during the sleep above, but only one is pending
	_, err = p.Recv(&zero)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestPulseCloseWakesParkedRecv(t *testing.T) {
	h, stop := newTestHub(t)
	defer stop()

	p := h.Pulse(time.Hour)
	errCh := make(chan error, 1)
	h.Spawn(func() {
		_, err := p.Recv(nil)
		errCh <- err
	})
	time.Sleep(10 * time.Millisecond)
	p.Close()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, ErrClosed)
	case <-time.After(time.Second):
		t.Fatal("close never woke the waiting recv")
	}
}
