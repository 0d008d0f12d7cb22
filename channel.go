package vanilla

import "time"

// Channel is an unbuffered (capacity 0) or bounded Queue whose sender and
// recver are the same object, per spec.md §4.5: any task may Send, any
// task may Recv, and pairs rendezvous in FIFO order of arrival.
type Channel struct {
	hub         *Hub
	cap         int
	buf         []any
	sendWaiters []*chanWaiter
	recvWaiters []*chanWaiter
	closed      bool
}

type chanWaiter struct {
	value    any
	done     bool
	timedOut bool
}

// Channel creates a new Channel of the given capacity (0 for unbuffered).
func (h *Hub) Channel(capacity int) *Channel {
	return &Channel{hub: h, cap: capacity}
}

// Send delivers value to the longest-waiting Recv call, buffers it if
// there is room, or parks until either happens.
func (c *Channel) Send(value any, timeout *time.Duration) error {
	h := c.hub
	h.mu.Lock()
	defer h.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	if len(c.recvWaiters) > 0 {
		w := c.recvWaiters[0]
		c.recvWaiters = c.recvWaiters[1:]
		w.value = value
		w.done = true
		h.cond.Broadcast()
		return nil
	}
	if len(c.buf) < c.cap {
		c.buf = append(c.buf, value)
		h.cond.Broadcast()
		return nil
	}
	if h.stopping {
		return ErrStop
	}
	if timeout != nil && *timeout == 0 {
		return ErrTimeout
	}

	w := &chanWaiter{value: value}
	c.sendWaiters = append(c.sendWaiters, w)
	hasTimer, handle := h.armTimer(timeout, &w.timedOut)
	for !w.done && !w.timedOut && !c.closed && !h.stopping {
		h.cond.Wait()
	}
	if hasTimer {
		h.scheduler.Remove(handle)
	}
	if !w.done {
		c.removeSendWaiter(w)
	}
	switch {
	case w.done:
		return nil
	case w.timedOut:
		return ErrTimeout
	case c.closed:
		return ErrClosed
	case h.stopping:
		return ErrHalt
	}
	return nil
}

// Recv takes the oldest buffered value or the longest-waiting Send call's
// value, or parks until one arrives.
func (c *Channel) Recv(timeout *time.Duration) (any, error) {
	h := c.hub
	h.mu.Lock()
	defer h.mu.Unlock()

	if v, ok := c.dequeue(); ok {
		return v, nil
	}
	if c.closed {
		return nil, ErrClosed
	}
	if h.stopping {
		return nil, ErrStop
	}
	if timeout != nil && *timeout == 0 {
		return nil, ErrTimeout
	}

	w := &chanWaiter{}
	c.recvWaiters = append(c.recvWaiters, w)
	hasTimer, handle := h.armTimer(timeout, &w.timedOut)
	for !w.done && !w.timedOut && !c.closed && !h.stopping {
		h.cond.Wait()
	}
	if hasTimer {
		h.scheduler.Remove(handle)
	}
	if !w.done {
		c.removeRecvWaiter(w)
	}
	switch {
	case w.done:
		return w.value, nil
	case w.timedOut:
		return nil, ErrTimeout
	case c.closed:
		return nil, ErrClosed
	case h.stopping:
		return nil, ErrHalt
	}
	return nil, nil
}

// dequeue pulls from the buffer, promoting a parked sender's value into the
// newly freed slot when one is waiting.
func (c *Channel) dequeue() (any, bool) {
	if len(c.buf) > 0 {
		v := c.buf[0]
		c.buf = c.buf[1:]
		if len(c.sendWaiters) > 0 {
			sw := c.sendWaiters[0]
			c.sendWaiters = c.sendWaiters[1:]
			c.buf = append(c.buf, sw.value)
			sw.done = true
		}
		c.hub.cond.Broadcast()
		return v, true
	}
	if len(c.sendWaiters) > 0 {
		sw := c.sendWaiters[0]
		c.sendWaiters = c.sendWaiters[1:]
		sw.done = true
		c.hub.cond.Broadcast()
		return sw.value, true
	}
	return nil, false
}

func (c *Channel) removeSendWaiter(target *chanWaiter) {
	for i, w := range c.sendWaiters {
		if w == target {
			c.sendWaiters = append(c.sendWaiters[:i], c.sendWaiters[i+1:]...)
			return
		}
	}
}

func (c *Channel) removeRecvWaiter(target *chanWaiter) {
	for i, w := range c.recvWaiters {
		if w == target {
			c.recvWaiters = append(c.recvWaiters[:i], c.recvWaiters[i+1:]...)
			return
		}
	}
}

// Close marks the Channel closed, failing every queued waiter with
// ErrClosed.
func (c *Channel) Close() {
	h := c.hub
	h.mu.Lock()
	defer h.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	h.cond.Broadcast()
}
