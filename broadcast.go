package vanilla

import (
	"time"

	"golang.org/x/exp/slices"
)

// Broadcast is a fan-out primitive, per spec.md §4.5: Subscribe returns a
// fresh Recver; Send delivers a value to every current subscriber using
// non-blocking attempts, pruning subscribers whose pipe has since closed.
type Broadcast struct {
	hub  *Hub
	subs []*Sender
}

// Broadcast creates a new Broadcast.
func (h *Hub) Broadcast() *Broadcast {
	return &Broadcast{hub: h}
}

// Subscribe registers a new subscriber and returns its Recver.
func (b *Broadcast) Subscribe() *Recver {
	s, r := b.hub.Pipe()
	b.hub.mu.Lock()
	b.subs = append(b.subs, s)
	b.hub.mu.Unlock()
	return r
}

// Send attempts to deliver value to every subscriber without blocking.
// A subscriber that isn't currently parked waiting simply misses the
// value. Subscribers whose pipe has closed or been abandoned are pruned.
func (b *Broadcast) Send(value any) {
	h := b.hub
	h.mu.Lock()
	defer h.mu.Unlock()

	zero := time.Duration(0)
	b.subs = slices.DeleteFunc(b.subs, func(s *Sender) bool {
		err := s.sendLocked(value, &zero)
		return err == ErrClosed || err == ErrAbandoned
	})
}

// FromRecver spawns a task that forwards every value from src into the
// Broadcast, allowing a Broadcast to be chained behind another pipe.
func (b *Broadcast) FromRecver(src *Recver) {
	b.hub.Spawn(func() {
		for {
			v, err := src.Recv(nil)
			if err != nil {
				return
			}
			b.Send(v)
		}
	})
}
