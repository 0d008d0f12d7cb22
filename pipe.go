package vanilla

import (
	"runtime"
	"time"
)

// pipeCore is the shared state of a rendezvous pipe, per spec.md §3/§4.3:
// at most one sender-waiter and at most one recver-waiter at any time, a
// closed flag, and sender-abandoned/recver-abandoned flags tracked through
// endpoint reachability.
type pipeCore struct {
	hub *Hub

	closed     bool
	senderGone bool
	recverGone bool

	sendParked *sendWaiter
	recvParked *recvWaiter
}

type sendWaiter struct {
	value    any
	done     bool
	timedOut bool
}

type recvWaiter struct {
	value    any
	done     bool
	timedOut bool
}

// Sender is the send-side endpoint of a Pipe.
type Sender struct{ p *pipeCore }

// Recver is the recv-side endpoint of a Pipe.
type Recver struct{ p *pipeCore }

// Pipe creates a new rendezvous pipe, per spec.md §4.3, returning its two
// endpoints. The pipe carries no buffer: a value moves directly from a
// parked sender to a parked recver.
func (h *Hub) Pipe() (*Sender, *Recver) {
	p := &pipeCore{hub: h}
	s := &Sender{p: p}
	r := &Recver{p: p}
	runtime.SetFinalizer(s, (*Sender).finalize)
	runtime.SetFinalizer(r, (*Recver).finalize)
	return s, r
}

func (s *Sender) finalize() {
	h := s.p.hub
	h.mu.Lock()
	defer h.mu.Unlock()
	s.p.abandonSender()
}

func (r *Recver) finalize() {
	h := r.p.hub
	h.mu.Lock()
	defer h.mu.Unlock()
	r.p.abandonRecver()
}

// abandonSender marks the pipe sender-abandoned and wakes a parked recver
// with ErrAbandoned. Must be called with Hub.mu held. Idempotent.
func (p *pipeCore) abandonSender() {
	if p.senderGone || p.closed {
		return
	}
	p.senderGone = true
	p.recvParked = nil
	p.hub.cond.Broadcast()
}

func (p *pipeCore) abandonRecver() {
	if p.recverGone || p.closed {
		return
	}
	p.recverGone = true
	p.sendParked = nil
	p.hub.cond.Broadcast()
}

// Send hands value to a parked recver, or parks the caller until one
// arrives, per spec.md §4.3. A nil timeout blocks forever; 0 fails
// immediately if no recver is already waiting; a positive timeout parks for
// at most that long.
func (s *Sender) Send(value any, timeout *time.Duration) error {
	h := s.p.hub
	h.mu.Lock()
	defer h.mu.Unlock()
	return s.sendLocked(value, timeout)
}

// sendLocked is Send's body, for reuse by callers that already hold Hub.mu
// (namely Hub.Select).
func (s *Sender) sendLocked(value any, timeout *time.Duration) error {
	p := s.p
	h := p.hub

	if p.closed {
		return ErrClosed
	}
	if p.recverGone {
		return ErrAbandoned
	}
	if p.recvParked != nil {
		rw := p.recvParked
		p.recvParked = nil
		rw.value = value
		rw.done = true
		h.cond.Broadcast()
		return nil
	}
	if h.stopping {
		return ErrStop
	}
	if timeout != nil && *timeout == 0 {
		return ErrTimeout
	}

	sw := &sendWaiter{value: value}
	p.sendParked = sw
	h.cond.Broadcast()
	hasTimer, handle := s.armTimeout(timeout, sw)

	for !sw.done && !sw.timedOut && !p.closed && !p.recverGone && !h.stopping {
		h.cond.Wait()
	}
	if hasTimer {
		h.scheduler.Remove(handle)
	}
	if p.sendParked == sw {
		p.sendParked = nil
	}

	switch {
	case sw.done:
		return nil
	case sw.timedOut:
		return ErrTimeout
	case p.closed:
		return ErrClosed
	case p.recverGone:
		return ErrAbandoned
	case h.stopping:
		return ErrHalt
	}
	return nil
}

func (s *Sender) armTimeout(timeout *time.Duration, sw *sendWaiter) (bool, schedHandle) {
	if timeout == nil {
		return false, 0
	}
	h := s.p.hub
	handle := h.scheduler.Add(*timeout, func() {
		if s.p.sendParked == sw {
			s.p.sendParked = nil
			sw.timedOut = true
			h.cond.Broadcast()
		}
	})
	h.wakeReactorLocked()
	return true, handle
}

// Close transitions the pipe to closed and wakes a parked recver with
// ErrClosed. A second call is a no-op, per spec.md's Invariant 2.
func (s *Sender) Close() {
	p := s.p
	h := p.hub
	h.mu.Lock()
	defer h.mu.Unlock()
	runtime.SetFinalizer(s, nil)
	if p.closed {
		return
	}
	p.closed = true
	p.recvParked = nil
	p.sendParked = nil
	h.cond.Broadcast()
}

// Recv takes a value from a parked sender, or parks the caller until one
// arrives. When the delivered value is itself an error, Recv returns it as
// the error (not the value) — the exception-as-message channel pattern of
// spec.md §4.3.
func (r *Recver) Recv(timeout *time.Duration) (any, error) {
	h := r.p.hub
	h.mu.Lock()
	defer h.mu.Unlock()
	return r.recvLocked(timeout)
}

// recvLocked is Recv's body, for reuse by callers that already hold Hub.mu
// (namely Hub.Select).
func (r *Recver) recvLocked(timeout *time.Duration) (any, error) {
	p := r.p
	h := p.hub

	if p.closed {
		return nil, ErrClosed
	}
	if p.senderGone {
		return nil, ErrAbandoned
	}
	if p.sendParked != nil {
		sw := p.sendParked
		p.sendParked = nil
		sw.done = true
		h.cond.Broadcast()
		return asRecvResult(sw.value)
	}
	if h.stopping {
		return nil, ErrStop
	}
	if timeout != nil && *timeout == 0 {
		return nil, ErrTimeout
	}

	rw := &recvWaiter{}
	p.recvParked = rw
	h.cond.Broadcast()
	hasTimer, handle := r.armTimeout(timeout, rw)

	for !rw.done && !rw.timedOut && !p.closed && !p.senderGone && !h.stopping {
		h.cond.Wait()
	}
	if hasTimer {
		h.scheduler.Remove(handle)
	}
	if p.recvParked == rw {
		p.recvParked = nil
	}

	switch {
	case rw.done:
		return asRecvResult(rw.value)
	case rw.timedOut:
		return nil, ErrTimeout
	case p.closed:
		return nil, ErrClosed
	case p.senderGone:
		return nil, ErrAbandoned
	case h.stopping:
		return nil, ErrHalt
	}
	return nil, nil
}

// selectReady reports whether this endpoint is immediately actionable,
// per spec.md §4.4's readiness rules.
func (s *Sender) selectReady() bool {
	p := s.p
	return p.closed || p.recverGone || p.recvParked != nil
}

func (r *Recver) selectReady() bool {
	p := r.p
	return p.closed || p.senderGone || p.sendParked != nil
}

func asRecvResult(value any) (any, error) {
	if err, ok := value.(error); ok {
		return nil, err
	}
	return value, nil
}

func (r *Recver) armTimeout(timeout *time.Duration, rw *recvWaiter) (bool, schedHandle) {
	if timeout == nil {
		return false, 0
	}
	h := r.p.hub
	handle := h.scheduler.Add(*timeout, func() {
		if r.p.recvParked == rw {
			r.p.recvParked = nil
			rw.timedOut = true
			h.cond.Broadcast()
		}
	})
	h.wakeReactorLocked()
	return true, handle
}

// Close transitions the pipe to closed and wakes a parked sender with
// ErrClosed. A second call is a no-op.
func (r *Recver) Close() {
	p := r.p
	h := p.hub
	h.mu.Lock()
	defer h.mu.Unlock()
	runtime.SetFinalizer(r, nil)
	if p.closed {
		return
	}
	p.closed = true
	p.sendParked = nil
	p.recvParked = nil
	h.cond.Broadcast()
}
