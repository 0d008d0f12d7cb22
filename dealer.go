package vanilla

import "time"

// Dealer is a fair 1-to-many handoff, per spec.md §4.5: a single sender,
// many recvers queued as waiters; each Send wakes exactly one waiting
// recver in FIFO order. If no recver is waiting, the sender blocks.
type Dealer struct {
	hub     *Hub
	waiters []*dealerWaiter
	sender  *dealerWaiter
	closed  bool
}

type dealerWaiter struct {
	value    any
	done     bool
	timedOut bool
}

// Dealer creates a new Dealer.
func (h *Hub) Dealer() *Dealer {
	return &Dealer{hub: h}
}

// Send hands value to the longest-waiting recver, or parks until one
// arrives.
func (d *Dealer) Send(value any, timeout *time.Duration) error {
	h := d.hub
	h.mu.Lock()
	defer h.mu.Unlock()

	if d.closed {
		return ErrClosed
	}
	if len(d.waiters) > 0 {
		w := d.waiters[0]
		d.waiters = d.waiters[1:]
		w.value = value
		w.done = true
		h.cond.Broadcast()
		return nil
	}
	if h.stopping {
		return ErrStop
	}
	if timeout != nil && *timeout == 0 {
		return ErrTimeout
	}

	sw := &dealerWaiter{value: value}
	d.sender = sw
	hasTimer, handle := h.armTimer(timeout, &sw.timedOut)
	for !sw.done && !sw.timedOut && !d.closed && !h.stopping {
		h.cond.Wait()
	}
	if hasTimer {
		h.scheduler.Remove(handle)
	}
	if d.sender == sw {
		d.sender = nil
	}
	switch {
	case sw.done:
		return nil
	case sw.timedOut:
		return ErrTimeout
	case d.closed:
		return ErrClosed
	case h.stopping:
		return ErrHalt
	}
	return nil
}

// Recv takes a value from the parked sender, or queues as a waiter until
// one arrives.
func (d *Dealer) Recv(timeout *time.Duration) (any, error) {
	h := d.hub
	h.mu.Lock()
	defer h.mu.Unlock()

	if d.sender != nil {
		sw := d.sender
		d.sender = nil
		sw.done = true
		h.cond.Broadcast()
		return sw.value, nil
	}
	if d.closed {
		return nil, ErrClosed
	}
	if h.stopping {
		return nil, ErrStop
	}
	if timeout != nil && *timeout == 0 {
		return nil, ErrTimeout
	}

	w := &dealerWaiter{}
	d.waiters = append(d.waiters, w)
	hasTimer, handle := h.armTimer(timeout, &w.timedOut)
	for !w.done && !w.timedOut && !d.closed && !h.stopping {
		h.cond.Wait()
	}
	if hasTimer {
		h.scheduler.Remove(handle)
	}
	if !w.done {
		d.removeWaiter(w)
	}
	switch {
	case w.done:
		return w.value, nil
	case w.timedOut:
		return nil, ErrTimeout
	case d.closed:
		return nil, ErrClosed
	case h.stopping:
		return nil, ErrHalt
	}
	return nil, nil
}

func (d *Dealer) removeWaiter(target *dealerWaiter) {
	for i, w := range d.waiters {
		if w == target {
			d.waiters = append(d.waiters[:i], d.waiters[i+1:]...)
			return
		}
	}
}

// Close marks the Dealer closed, failing the parked sender (if any) and
// every queued recver with ErrClosed.
func (d *Dealer) Close() {
	h := d.hub
	h.mu.Lock()
	defer h.mu.Unlock()
	if d.closed {
		return
	}
	d.closed = true
	h.cond.Broadcast()
}
