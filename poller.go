package vanilla

import "time"

// PollMask is the symbolic readiness bit-set from spec.md §4.6/§6:
// {in, out, hup, err, et, rdhup}.
type PollMask uint32

const (
	PollIn PollMask = 1 << iota
	PollOut
	PollHup
	PollErr
	PollET
	PollRDHup
)

// humanizeMask decomposes mask into its symbolic names, in a fixed order,
// matching the testable surface described in spec.md §4.7.
func humanizeMask(mask PollMask) []string {
	var out []string
	for _, b := range []struct {
		bit  PollMask
		name string
	}{
		{PollIn, "in"},
		{PollOut, "out"},
		{PollHup, "hup"},
		{PollErr, "err"},
		{PollET, "et"},
		{PollRDHup, "rdhup"},
	} {
		if mask&b.bit != 0 {
			out = append(out, b.name)
		}
	}
	return out
}

// PollEvent is one fd's delivered readiness mask.
type PollEvent struct {
	Fd   int
	Mask PollMask
}

// poller is the edge-triggered readiness backend a Hub drives from its
// reactor goroutine. Every implementation must be edge-triggered: a
// persistently-ready fd must not be redelivered until an EAGAIN-style
// short read/write re-arms it, per spec.md §4.6.
type poller interface {
	add(fd int, mask PollMask) error
	modify(fd int, mask PollMask) error
	remove(fd int) error
	// wait blocks up to timeout (negative means forever) for readiness
	// events, or until wake is called from another goroutine. A nil
	// return with no events simply means "recheck state", e.g. after a
	// wake call.
	wait(timeout time.Duration) ([]PollEvent, error)
	// wake interrupts a concurrent wait call. Safe to call at any time,
	// including with no wait in progress.
	wake() error
	close() error
}
