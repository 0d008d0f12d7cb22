package vanilla

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTriggerRunsFAndForwardsValue(t *testing.T) {
	h, stop := newTestHub(t)
	defer stop()

	var seen any
	seenCh := make(chan struct{})
	trig := h.NewTrigger(func(v any) {
		seen = v
		close(seenCh)
	})

	require.NoError(t, trig.Trigger("fire", nil))

	select {
	case <-seenCh:
		assert.Equal(t, "fire", seen)
	case <-time.After(time.Second):
		t.Fatal("trigger callback never ran")
	}

	v, err := trig.Output().Recv(nil)
	require.NoError(t, err)
	assert.Equal(t, "fire", v)
}

func TestTriggerMultipleFires(t *testing.T) {
	h, stop := newTestHub(t)
	defer stop()

	var count int
	trig := h.NewTrigger(func(any) { count++ })

	require.NoError(t, trig.Trigger(1, nil))
	_, err := trig.Output().Recv(nil)
	require.NoError(t, err)

	require.NoError(t, trig.Trigger(2, nil))
	_, err = trig.Output().Recv(nil)
	require.NoError(t, err)

	assert.Equal(t, 2, count)
}
