package vanilla

import (
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignalsDeliversOSSignal(t *testing.T) {
	h, stop := newTestHub(t)
	defer stop()

	recver := h.Signals(syscall.SIGUSR1)

	got := make(chan any, 1)
	h.Spawn(func() {
		v, err := recver.Recv(nil)
		require.NoError(t, err)
		got <- v
	})
	time.Sleep(10 * time.Millisecond)

	require.NoError(t, syscall.Kill(os.Getpid(), syscall.SIGUSR1))

	select {
	case v := <-got:
		sig, ok := v.(os.Signal)
		require.True(t, ok)
		assert.Equal(t, syscall.SIGUSR1, sig)
	case <-time.After(2 * time.Second):
		t.Fatal("signal was never delivered")
	}
}
