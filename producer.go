package vanilla

// Producer spawns f(sender) as a task and returns the paired Recver, per
// spec.md §4.5 — a convenience for the common "spawn a task that only
// sends" shape.
func (h *Hub) Producer(f func(*Sender)) *Recver {
	sender, recver := h.Pipe()
	h.Spawn(func() { f(sender) })
	return recver
}
