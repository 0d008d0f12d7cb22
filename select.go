package vanilla

import "time"

// SelectEndpoint is a *Sender or *Recver, the only two types accepted by
// Hub.Select.
type SelectEndpoint = any

// Select waits for the first ready endpoint among a set of Sender/Recver
// values, per spec.md §4.4.
//
// For a ready Recver, Select performs the recv itself and returns the
// received value. For a ready Sender, the returned value is always nil —
// the caller is expected to then call Send, which completes immediately
// since the rendezvous partner is now known to be waiting (this mirrors
// the reference tests, per spec.md §4.4).
//
// Readiness is re-evaluated, in argument order, every time Hub.cond wakes
// this goroutine, rather than by parking a dedicated waiter record on each
// endpoint: any mutation relevant to an endpoint's readiness already
// broadcasts on Hub.cond, so a plain recheck loop is race-free under the
// giant mutex and never leaves a stale waiter behind on timeout.
func (h *Hub) Select(endpoints []SelectEndpoint, timeout *time.Duration) (SelectEndpoint, any, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if ep, val, err, ok := trySelect(endpoints); ok {
		return ep, val, err
	}
	if h.stopping {
		return nil, nil, ErrStop
	}
	if timeout != nil && *timeout == 0 {
		return nil, nil, ErrTimeout
	}

	timedOut := false
	hasTimer := false
	var handle schedHandle
	if timeout != nil {
		hasTimer = true
		handle = h.scheduler.Add(*timeout, func() {
			timedOut = true
			h.cond.Broadcast()
		})
		h.wakeReactorLocked()
	}

	for {
		if ep, val, err, ok := trySelect(endpoints); ok {
			if hasTimer {
				h.scheduler.Remove(handle)
			}
			return ep, val, err
		}
		if timedOut {
			return nil, nil, ErrTimeout
		}
		if h.stopping {
			return nil, nil, ErrHalt
		}
		h.cond.Wait()
	}
}

// trySelect returns the first ready endpoint, in argument order, along
// with its result, per spec.md's select fairness rule (Testable Property
// 6). Must be called with Hub.mu held.
func trySelect(endpoints []SelectEndpoint) (SelectEndpoint, any, error, bool) {
	zero := time.Duration(0)
	for _, ep := range endpoints {
		switch e := ep.(type) {
		case *Sender:
			if e.selectReady() {
				return ep, nil, nil, true
			}
		case *Recver:
			if e.selectReady() {
				val, err := e.recvLocked(&zero)
				return ep, val, err, true
			}
		}
	}
	return nil, nil, nil, false
}
