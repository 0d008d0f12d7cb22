package vanilla

import (
	"os"
	"os/signal"
)

// Signals returns a Recver yielding every occurrence of the given OS
// signals, fanned out through a Broadcast so multiple subscribers may
// observe the same signal — the design note in spec.md §9 of routing
// signals through a single channel and distributing via Broadcast. Go's
// os/signal package already implements the self-pipe trick internally, so
// the bridging here is a plain channel rather than a hand-rolled fd.
//
// The bridging goroutine below is a plain goroutine, not a Hub task: it
// blocks on the external OS-signal channel, which is not something the
// Hub's reactor can ever observe or wake, and only ever touches the Hub
// through Broadcast.Send, which acquires and releases Hub.mu itself.
func (h *Hub) Signals(sig ...os.Signal) *Recver {
	ch := make(chan os.Signal, 8)
	signal.Notify(ch, sig...)
	b := h.Broadcast()
	go func() {
		for s := range ch {
			b.Send(s)
		}
	}()
	return b.Subscribe()
}
