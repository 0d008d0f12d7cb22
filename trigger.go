package vanilla

import (
	"runtime"
	"time"
)

// Trigger is a three-pipe chain (source → middle → output), per spec.md
// §4.5: calling Trigger sends a value into source; f runs on delivery, and
// the value is then forwarded on to the output side. When the Trigger
// handle itself becomes unreachable, the middle pipe is torn down in both
// directions — the Go analogue of the spec's weak-reference-triggered
// abandonment, realized here via a finalizer rather than GC reachability
// of the pipe itself (Go offers no equivalent of a non-owning reference
// into a live goroutine's closure).
type Trigger struct {
	source    *Sender
	midSender *Sender
	midRecver *Recver
	output    *Recver
}

// NewTrigger builds a Trigger. f is invoked, synchronously with respect to
// the forwarding task, for every value sent into the trigger.
func (h *Hub) NewTrigger(f func(any)) *Trigger {
	srcSender, srcRecver := h.Pipe()
	midSender, midRecver := h.Pipe()
	outSender, outRecver := h.Pipe()

	h.Spawn(func() {
		for {
			v, err := srcRecver.Recv(nil)
			if err != nil {
				midSender.Close()
				return
			}
			f(v)
			if err := midSender.Send(v, nil); err != nil {
				return
			}
		}
	})
	h.Spawn(func() {
		for {
			v, err := midRecver.Recv(nil)
			if err != nil {
				outSender.Close()
				return
			}
			if err := outSender.Send(v, nil); err != nil {
				return
			}
		}
	})

	t := &Trigger{
		source:    srcSender,
		midSender: midSender,
		midRecver: midRecver,
		output:    outRecver,
	}
	runtime.SetFinalizer(t, (*Trigger).finalize)
	return t
}

// Trigger sends value into the chain's source pipe.
func (t *Trigger) Trigger(value any, timeout *time.Duration) error {
	return t.source.Send(value, timeout)
}

// Output returns the chain's output-side Recver.
func (t *Trigger) Output() *Recver {
	return t.output
}

func (t *Trigger) finalize() {
	t.midSender.Close()
	t.midRecver.Close()
}
