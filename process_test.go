package vanilla

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecvCapturesStdout(t *testing.T) {
	h, stop := newTestHub(t)
	defer stop()

	p, err := h.Execv([]string{"/bin/echo", "hello"}, nil, false)
	require.NoError(t, err)
	defer p.Stdin.Close()
	defer p.Stdout.Close()
	defer p.Stderr.Close()

	out, err := p.Stdout.Recv(nil)
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(out))

	v, err := p.Done.Recv(nil)
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestExecvUnknownBinaryReturnsStartError(t *testing.T) {
	h, stop := newTestHub(t)
	defer stop()

	_, err := h.Execv([]string{"/no/such/binary-xyz"}, nil, false)
	assert.Error(t, err)
}

func TestExecvEmptyArgvRejected(t *testing.T) {
	h, stop := newTestHub(t)
	defer stop()

	_, err := h.Execv(nil, nil, false)
	assert.ErrorIs(t, err, ErrEmptyArgv)
}

func TestExecvTerminateKillsChild(t *testing.T) {
	h, stop := newTestHub(t)
	defer stop()

	p, err := h.Execv([]string{"/bin/sleep", "30"}, nil, false)
	require.NoError(t, err)
	defer p.Stdin.Close()
	defer p.Stdout.Close()
	defer p.Stderr.Close()
	assert.True(t, p.CheckLiveness())

	require.NoError(t, p.Terminate())

	done := make(chan struct{})
	var result any
	h.Spawn(func() {
		result, _ = p.Done.Recv(nil)
		close(done)
	})

	select {
	case <-done:
		assert.NotNil(t, result)
	case <-time.After(5 * time.Second):
		t.Fatal("terminated child never reported Done")
	}
	assert.False(t, p.CheckLiveness())
}
