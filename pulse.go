package vanilla

import "time"

// Pulse periodically produces a single coalesced tick, per spec.md §4.5:
// at most one buffered tick is ever pending, so Recv after multiple ticks
// yields only one.
type Pulse struct {
	hub      *Hub
	interval time.Duration
	pending  bool
	closed   bool
	next     schedHandle // the armed tick, cancelled by Close
}

// Pulse creates a Pulse that ticks every interval, starting interval from
// now.
func (h *Hub) Pulse(interval time.Duration) *Pulse {
	p := &Pulse{hub: h, interval: interval}
	h.mu.Lock()
	p.scheduleNextLocked()
	h.mu.Unlock()
	return p
}

func (p *Pulse) scheduleNextLocked() {
	h := p.hub
	p.next = h.scheduler.Add(p.interval, func() {
		if p.closed {
			return
		}
		p.pending = true
		h.cond.Broadcast()
		p.scheduleNextLocked()
	})
	h.wakeReactorLocked()
}

// Recv returns true if a tick has fired since the last Recv, else parks
// until the next one does.
func (p *Pulse) Recv(timeout *time.Duration) (any, error) {
	h := p.hub
	h.mu.Lock()
	defer h.mu.Unlock()

	if p.pending {
		p.pending = false
		return true, nil
	}
	if p.closed {
		return nil, ErrClosed
	}
	if h.stopping {
		return nil, ErrStop
	}
	if timeout != nil && *timeout == 0 {
		return nil, ErrTimeout
	}

	timedOut := false
	hasTimer, handle := h.armTimer(timeout, &timedOut)
	for !p.pending && !p.closed && !timedOut && !h.stopping {
		h.cond.Wait()
	}
	if hasTimer {
		h.scheduler.Remove(handle)
	}
	if p.pending {
		p.pending = false
		return true, nil
	}
	switch {
	case p.closed:
		return nil, ErrClosed
	case timedOut:
		return nil, ErrTimeout
	case h.stopping:
		return nil, ErrHalt
	}
	return nil, nil
}

// Close stops future ticks and wakes any parked Recv with ErrClosed.
func (p *Pulse) Close() {
	h := p.hub
	h.mu.Lock()
	defer h.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	h.scheduler.Remove(p.next)
	h.cond.Broadcast()
}
