package vanilla

// Pipe wires this Recver's output into dst, spawning a task that forwards
// every received value until closure or abandonment, per spec.md §4.3. The
// forwarding task closes dst when the source is exhausted.
func (r *Recver) Pipe(h *Hub, dst *Sender) {
	h.Spawn(func() {
		forward(r, dst, func(v any) any { return v })
	})
}

// Map is Pipe with a transform applied to every forwarded value, returning
// the new output-side Recver.
func (r *Recver) Map(h *Hub, f func(any) any) *Recver {
	sender, recver := h.Pipe()
	h.Spawn(func() {
		forward(r, sender, f)
	})
	return recver
}

// Consume spawns a task that calls f for every value received from r,
// until closure or abandonment.
func (r *Recver) Consume(h *Hub, f func(any)) {
	h.Spawn(func() {
		for {
			v, err := r.Recv(nil)
			if err != nil {
				return
			}
			f(v)
		}
	})
}

func forward(src *Recver, dst *Sender, f func(any) any) {
	for {
		v, err := src.Recv(nil)
		if err != nil {
			dst.Close()
			return
		}
		if err := dst.Send(f(v), nil); err != nil {
			return
		}
	}
}
