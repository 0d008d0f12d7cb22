package vanilla

import "time"

// Router is a fair many-to-1 handoff, symmetric to Dealer per spec.md
// §4.5: many senders queue as waiters; a single recver. Each Recv wakes
// the longest-waiting sender in FIFO order.
type Router struct {
	hub     *Hub
	waiters []*routerWaiter
	recver  *routerWaiter
	closed  bool
}

type routerWaiter struct {
	value    any
	done     bool
	timedOut bool
}

// Router creates a new Router.
func (h *Hub) Router() *Router {
	return &Router{hub: h}
}

// Send queues value for the recver, waking it if it is already waiting.
func (r *Router) Send(value any, timeout *time.Duration) error {
	h := r.hub
	h.mu.Lock()
	defer h.mu.Unlock()

	if r.closed {
		return ErrClosed
	}
	if r.recver != nil {
		w := r.recver
		r.recver = nil
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

	w := &routerWaiter{value: value}
	r.waiters = append(r.waiters, w)
	hasTimer, handle := h.armTimer(timeout, &w.timedOut)
	for !w.done && !w.timedOut && !r.closed && !h.stopping {
		h.cond.Wait()
	}
	if hasTimer {
		h.scheduler.Remove(handle)
	}
	if !w.done {
		r.removeWaiter(w)
	}
	switch {
	case w.done:
		return nil
	case w.timedOut:
		return ErrTimeout
	case r.closed:
		return ErrClosed
	case h.stopping:
		return ErrHalt
	}
	return nil
}

// Recv takes the longest-queued sender's value, or parks until a sender
// arrives.
func (r *Router) Recv(timeout *time.Duration) (any, error) {
	h := r.hub
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(r.waiters) > 0 {
		w := r.waiters[0]
		r.waiters = r.waiters[1:]
		w.done = true
		h.cond.Broadcast()
		return w.value, nil
	}
	if r.closed {
		return nil, ErrClosed
	}
	if h.stopping {
		return nil, ErrStop
	}
	if timeout != nil && *timeout == 0 {
		return nil, ErrTimeout
	}

	w := &routerWaiter{}
	r.recver = w
	hasTimer, handle := h.armTimer(timeout, &w.timedOut)
	for !w.done && !w.timedOut && !r.closed && !h.stopping {
		h.cond.Wait()
	}
	if hasTimer {
		h.scheduler.Remove(handle)
	}
	if r.recver == w {
		r.recver = nil
	}
	switch {
	case w.done:
		return w.value, nil
	case w.timedOut:
		return nil, ErrTimeout
	case r.closed:
		return nil, ErrClosed
	case h.stopping:
		return nil, ErrHalt
	}
	return nil, nil
}

func (r *Router) removeWaiter(target *routerWaiter) {
	for i, w := range r.waiters {
		if w == target {
			r.waiters = append(r.waiters[:i], r.waiters[i+1:]...)
			return
		}
	}
}

// Close marks the Router closed, failing the parked recver (if any) and
// every queued sender with ErrClosed.
func (r *Router) Close() {
	h := r.hub
	h.mu.Lock()
	defer h.mu.Unlock()
	if r.closed {
		return
	}
	r.closed = true
	h.cond.Broadcast()
}
