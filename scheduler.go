package vanilla

import (
	"container/heap"
	"time"
)

// schedHandle identifies a live Scheduler entry for O(log n) cancellation.
// The zero value never matches a live entry.
type schedHandle uint64

// schedEntry is one (deadline, callback) tuple. Ties on deadline break by
// insertion order (seq), per spec.md §4.1.
type schedEntry struct {
	deadline time.Time
	seq      uint64
	handle   schedHandle
	fn       func()
	index    int // heap index, maintained by container/heap
	removed  bool
}

// schedHeap is a container/heap.Interface min-heap ordered by (deadline, seq).
type schedHeap []*schedEntry

func (h schedHeap) Len() int { return len(h) }

func (h schedHeap) Less(i, j int) bool {
	if h[i].deadline.Equal(h[j].deadline) {
		return h[i].seq < h[j].seq
	}
	return h[i].deadline.Before(h[j].deadline)
}

func (h schedHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *schedHeap) Push(x any) {
	e := x.(*schedEntry)
	e.index = len(*h)
	*h = append(*h, e)
}

func (h *schedHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*h = old[:n-1]
	return e
}

// Scheduler is an ordered set of (deadline, callback) entries: a min-deadline
// query and O(log n) removal by handle, per spec.md §4.1.
//
// Scheduler is not safe for concurrent use; every Hub serializes access to
// its Scheduler behind Hub.mu.
type Scheduler struct {
	heap    schedHeap
	byHand  map[schedHandle]*schedEntry
	nextSeq uint64
	nextH   schedHandle
}

// NewScheduler constructs an empty Scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{byHand: make(map[schedHandle]*schedEntry)}
}

// Add inserts fn to run at now+d, returning a handle stable for Remove.
func (s *Scheduler) Add(d time.Duration, fn func()) schedHandle {
	s.nextH++
	s.nextSeq++
	e := &schedEntry{
		deadline: time.Now().Add(d),
		seq:      s.nextSeq,
		handle:   s.nextH,
		fn:       fn,
	}
	heap.Push(&s.heap, e)
	s.byHand[e.handle] = e
	return e.handle
}

// Remove cancels handle; a no-op if it was already popped or never existed.
func (s *Scheduler) Remove(handle schedHandle) {
	e, ok := s.byHand[handle]
	if !ok {
		return
	}
	delete(s.byHand, handle)
	if e.index >= 0 {
		heap.Remove(&s.heap, e.index)
	}
	e.removed = true
}

// Timeout returns how long until the earliest deadline, clamped to 0 if
// already past, or -1 ("never") if the Scheduler is empty.
func (s *Scheduler) Timeout() time.Duration {
	if len(s.heap) == 0 {
		return -1
	}
	d := time.Until(s.heap[0].deadline)
	if d < 0 {
		return 0
	}
	return d
}

// Pop removes and returns the earliest entry's callback. Undefined (panics)
// if the Scheduler is empty; callers must check Len first.
func (s *Scheduler) Pop() func() {
	e := heap.Pop(&s.heap).(*schedEntry)
	delete(s.byHand, e.handle)
	return e.fn
}

// Len returns the count of live (unpopped, uncancelled) entries.
func (s *Scheduler) Len() int { return len(s.heap) }

// expireDue pops and invokes every entry whose deadline has passed.
func (s *Scheduler) expireDue() {
	now := time.Now()
	for len(s.heap) > 0 && !s.heap[0].deadline.After(now) {
		fn := s.Pop()
		fn()
	}
}
