package vanilla

import (
	"bytes"
	"time"

	"golang.org/x/sys/unix"
)

// Descriptor lifts a non-blocking OS file descriptor into the Pipe model,
// per spec.md §4.7: unframed byte-stream send/recv, with recv_bytes and
// recv_partition providing framing on top, and an internal buffer that
// retains bytes delivered by Recv but not yet consumed by a framing call
// across calls (the residual-buffer contract of spec.md §9's open
// question, resolved by literal retention of the undelivered prefix).
type Descriptor struct {
	hub *Hub
	fd  int

	buf []byte

	readReady  bool
	writeReady bool
	readEOF    bool
	closed     bool
}

// NewDescriptor wraps fd (already open, ownership transferred to the
// Descriptor) in non-blocking mode and registers it with the Hub's Poller.
func (h *Hub) NewDescriptor(fd int) (*Descriptor, error) {
	if err := unix.SetNonblock(fd, true); err != nil {
		return nil, err
	}
	d := &Descriptor{hub: h, fd: fd, readReady: true, writeReady: true}
	if err := h.Register(fd, PollIn|PollOut|PollRDHup, d.onEvent); err != nil {
		return nil, err
	}
	return d, nil
}

// Fd returns the wrapped file descriptor.
func (d *Descriptor) Fd() int { return d.fd }

// onEvent runs on the Hub's reactor goroutine with Hub.mu already held; it
// must not block or call back into the Hub.
func (d *Descriptor) onEvent(mask PollMask) {
	if mask&(PollIn|PollRDHup|PollHup|PollErr) != 0 {
		d.readReady = true
	}
	if mask&(PollOut|PollErr) != 0 {
		d.writeReady = true
	}
}

// Send writes data in full, buffering internally across EAGAIN and parking
// on writability as needed. EPIPE (or equivalent) is reported as
// ErrClosed.
func (d *Descriptor) Send(data []byte, timeout *time.Duration) error {
	h := d.hub
	h.mu.Lock()
	defer h.mu.Unlock()
	return d.sendLocked(data, timeout)
}

func (d *Descriptor) sendLocked(data []byte, timeout *time.Duration) error {
	h := d.hub
	deadline := newDeadline(timeout)

	remaining := data
	for len(remaining) > 0 {
		if d.closed {
			return ErrClosed
		}
		n, err := unix.Write(d.fd, remaining)
		switch {
		case err == nil:
			remaining = remaining[n:]
			continue
		case err == unix.EAGAIN:
			d.writeReady = false
		case err == unix.EPIPE, err == unix.ECONNRESET:
			d.markClosedLocked()
			return ErrClosed
		default:
			d.markClosedLocked()
			return ErrClosed
		}

		if h.stopping {
			return ErrStop
		}
		remain := deadline.remaining()
		if remain != nil && *remain == 0 {
			return ErrTimeout
		}
		timedOut := false
		hasTimer, handle := h.armTimer(remain, &timedOut)
		for !d.writeReady && !d.closed && !timedOut && !h.stopping {
			h.cond.Wait()
		}
		if hasTimer {
			h.scheduler.Remove(handle)
		}
		if timedOut {
			return ErrTimeout
		}
		if h.stopping {
			return ErrHalt
		}
	}
	return nil
}

// Recv returns whatever bytes are currently available, blocking until at
// least one byte is readable or EOF. On peer-close with an empty buffer it
// returns ErrClosed.
func (d *Descriptor) Recv(timeout *time.Duration) ([]byte, error) {
	h := d.hub
	h.mu.Lock()
	defer h.mu.Unlock()
	return d.recvLocked(timeout)
}

func (d *Descriptor) recvLocked(timeout *time.Duration) ([]byte, error) {
	h := d.hub
	deadline := newDeadline(timeout)

	for {
		if len(d.buf) > 0 {
			b := d.buf
			d.buf = nil
			return b, nil
		}
		if d.closed {
			return nil, ErrClosed
		}
		if d.readEOF {
			return nil, ErrClosed
		}

		var scratch [4096]byte
		n, err := unix.Read(d.fd, scratch[:])
		switch {
		case err == nil && n > 0:
			return append([]byte(nil), scratch[:n]...), nil
		case err == nil && n == 0:
			d.readEOF = true
			return nil, ErrClosed
		case err == unix.EAGAIN:
			d.readReady = false
		default:
			d.markClosedLocked()
			return nil, ErrClosed
		}

		if h.stopping {
			return nil, ErrStop
		}
		remain := deadline.remaining()
		if remain != nil && *remain == 0 {
			return nil, ErrTimeout
		}
		timedOut := false
		hasTimer, handle := h.armTimer(remain, &timedOut)
		for !d.readReady && !d.closed && !timedOut && !h.stopping {
			h.cond.Wait()
		}
		if hasTimer {
			h.scheduler.Remove(handle)
		}
		if timedOut {
			return nil, ErrTimeout
		}
		if h.stopping {
			return nil, ErrHalt
		}
	}
}

// RecvBytes accumulates exactly n bytes across as many Recv calls as
// needed. It returns early only when an underlying Recv fails (ErrClosed,
// or ErrTimeout/ErrStop/ErrHalt), together with whatever partial prefix had
// accumulated.
func (d *Descriptor) RecvBytes(n int, timeout *time.Duration) ([]byte, error) {
	h := d.hub
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]byte, 0, n)
	for len(out) < n {
		if len(d.buf) > 0 {
			take := n - len(out)
			if take > len(d.buf) {
				take = len(d.buf)
			}
			out = append(out, d.buf[:take]...)
			d.buf = d.buf[take:]
			continue
		}
		chunk, err := d.recvLocked(timeout)
		if err != nil {
			return out, err
		}
		d.buf = chunk
	}
	return out, nil
}

// RecvPartition accumulates bytes until sep is seen, returning the prefix
// with sep consumed and discarded. Bytes after sep remain buffered for the
// next call.
func (d *Descriptor) RecvPartition(sep []byte, timeout *time.Duration) ([]byte, error) {
	h := d.hub
	h.mu.Lock()
	defer h.mu.Unlock()

	for {
		if idx := bytes.Index(d.buf, sep); idx >= 0 {
			prefix := append([]byte(nil), d.buf[:idx]...)
			d.buf = d.buf[idx+len(sep):]
			return prefix, nil
		}
		chunk, err := d.recvLocked(timeout)
		if err != nil {
			return nil, err
		}
		d.buf = append(d.buf, chunk...)
	}
}

func (d *Descriptor) markClosedLocked() {
	if d.closed {
		return
	}
	d.closed = true
	_ = d.hub.unregisterLocked(d.fd)
	d.hub.logDescriptorClosed(d.fd, "i/o error")
}

// Close unregisters the fd from the Poller, closes it, and wakes any
// parked Send/Recv with ErrClosed. A second call is a no-op.
func (d *Descriptor) Close() error {
	h := d.hub
	h.mu.Lock()
	defer h.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	_ = h.unregisterLocked(d.fd)
	err := unix.Close(d.fd)
	h.cond.Broadcast()
	return err
}

// HumanizeMask decomposes mask into the symbolic set {in, out, hup, err,
// et, rdhup}, per spec.md §4.7's testable surface.
func HumanizeMask(mask PollMask) []string { return humanizeMask(mask) }

// deadline tracks an absolute expiry computed once per blocking call, so a
// call that loops through several EAGAIN/park cycles doesn't re-arm a full
// fresh duration on every iteration.
type deadline struct {
	none bool
	at   time.Time
}

func newDeadline(timeout *time.Duration) deadline {
	if timeout == nil {
		return deadline{none: true}
	}
	return deadline{at: time.Now().Add(*timeout)}
}

// remaining returns nil for "no timeout", or a duration (possibly 0)
// reflecting time left until the deadline.
func (d deadline) remaining() *time.Duration {
	if d.none {
		return nil
	}
	r := time.Until(d.at)
	if r < 0 {
		r = 0
	}
	return &r
}
