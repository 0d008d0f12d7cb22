package vanilla

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProducerYieldsSentValues(t *testing.T) {
	h, stop := newTestHub(t)
	defer stop()

	r := h.Producer(func(s *Sender) {
		_ = s.Send("one", nil)
		_ = s.Send("two", nil)
		s.Close()
	})

	v, err := r.Recv(nil)
	require.NoError(t, err)
	assert.Equal(t, "one", v)

	v, err = r.Recv(nil)
	require.NoError(t, err)
	assert.Equal(t, "two", v)

	_, err = r.Recv(nil)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestRecverMapTransformsValues(t *testing.T) {
	h, stop := newTestHub(t)
	defer stop()

	src := h.Producer(func(s *Sender) {
		_ = s.Send(2, nil)
		_ = s.Send(3, nil)
		s.Close()
	})

	doubled := src.Map(h, func(v any) any { return v.(int) * 2 })

	v, err := doubled.Recv(nil)
	require.NoError(t, err)
	assert.Equal(t, 4, v)

	v, err = doubled.Recv(nil)
	require.NoError(t, err)
	assert.Equal(t, 6, v)
}

func TestRecverConsumeCallsFForEveryValue(t *testing.T) {
	h, stop := newTestHub(t)
	defer stop()

	src := h.Producer(func(s *Sender) {
		_ = s.Send(1, nil)
		_ = s.Send(2, nil)
		s.Close()
	})

	seen := make(chan int, 2)
	src.Consume(h, func(v any) { seen <- v.(int) })

	select {
	case v := <-seen:
		assert.Equal(t, 1, v)
	case <-time.After(time.Second):
		t.Fatal("consume never observed first value")
	}
	select {
	case v := <-seen:
		assert.Equal(t, 2, v)
	case <-time.After(time.Second):
		t.Fatal("consume never observed second value")
	}
}
