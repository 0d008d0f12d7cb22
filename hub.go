package vanilla

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

// Hub is the cooperative scheduler described in spec.md §4.2: it runs ready
// tasks, drives a Scheduler for timers, and integrates a readiness Poller
// for descriptors.
//
// Go has no stackful user-space tasks, so a "task" here is an ordinary
// goroutine, and the spec's single-threaded invariant (exactly one task
// touches Hub-owned state at a time) is provided by Hub.mu, a giant mutex:
// every operation that reads or mutates Hub state — Sleep, a Pipe
// send/recv, Select, a Descriptor call, a derived primitive — acquires mu
// for just that call and parks, when it must, via Hub.cond.Wait, which
// releases mu while waiting and reacquires it before returning. A task's
// plain Go statements between such calls run unlocked; only calls that
// touch the Hub ever contend for mu, which is what spec.md's invariants
// actually depend on. See SPEC_FULL.md §2.
type Hub struct {
	mu   sync.Mutex
	cond *sync.Cond

	scheduler *Scheduler
	poller    poller

	fds map[int]*fdReg

	logger Logger

	stopping bool
	done     chan struct{}
	started  bool
	wg       sync.WaitGroup

	closeOnce sync.Once

	termSig chan os.Signal

	sigSubs []func(os.Signal)
}

// fdReg is the bookkeeping the Hub keeps for a raw fd registered with its
// Poller, via Register or internally by Descriptor/Process/TCP.
type fdReg struct {
	mask    PollMask
	onEvent func(PollMask)
}

// HubOption configures a Hub at construction, per the functional-options
// pattern used throughout the teacher pack.
type HubOption func(*Hub)

// WithLogger installs a structured logger, used for task panics, poll
// errors, and descriptors closed after an I/O error. The default is a
// discarding logger.
func WithLogger(l Logger) HubOption {
	return func(h *Hub) { h.logger = l }
}

// NewHub constructs a Hub. The Poller is opened eagerly so Register can be
// used before Run is called; nothing runs until Run is invoked (normally
// as `go hub.Run(ctx)`).
func NewHub(opts ...HubOption) (*Hub, error) {
	p, err := newPoller()
	if err != nil {
		return nil, err
	}
	h := &Hub{
		scheduler: NewScheduler(),
		poller:    p,
		fds:       make(map[int]*fdReg),
		logger:    noopLogger(),
		done:      make(chan struct{}),
	}
	h.cond = sync.NewCond(&h.mu)
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// Spawn creates a task running f, scheduled to run before the next poll, per
// spec.md §4.2. f runs on its own goroutine; it must touch Hub state only
// through Hub/Pipe/etc. methods, which handle their own locking — f itself
// must never lock Hub.mu directly.
func (h *Hub) Spawn(f func()) {
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		defer h.recoverTaskPanic()
		f()
	}()
}

// SpawnLater is identical to Spawn, but f does not start running until d has
// elapsed, via the Scheduler.
func (h *Hub) SpawnLater(d time.Duration, f func()) {
	h.wg.Add(1)
	h.mu.Lock()
	h.scheduler.Add(d, func() {
		go func() {
			defer h.wg.Done()
			defer h.recoverTaskPanic()
			f()
		}()
	})
	h.mu.Unlock()
	h.wakeReactor()
}

func (h *Hub) recoverTaskPanic() {
	if r := recover(); r != nil {
		h.logTaskPanic(r)
	}
}

// Sleep parks the calling task until d has elapsed, or ErrStop if the Hub
// is already shutting down. The caller must not hold Hub.mu.
func (h *Hub) Sleep(d time.Duration) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stopping {
		return ErrStop
	}
	woken := false
	handle := h.scheduler.Add(d, func() {
		woken = true
		h.cond.Broadcast()
	})
	h.wakeReactorLocked()
	for !woken && !h.stopping {
		h.cond.Wait()
	}
	if !woken {
		h.scheduler.Remove(handle)
		return ErrHalt
	}
	return nil
}

// Stop requests shutdown, per spec.md §4.2: every task parked on a
// suspension point is woken with ErrHalt; a task attempting to suspend
// after Stop has been called observes ErrStop immediately. Run's goroutine
// exits once the ready/scheduled work drains and no descriptors remain
// registered.
func (h *Hub) Stop() {
	h.mu.Lock()
	h.stopping = true
	h.cond.Broadcast()
	h.mu.Unlock()
	h.wakeReactor()
}

// StopOnTerm calls Stop upon receipt of SIGINT or SIGTERM.
func (h *Hub) StopOnTerm() {
	h.mu.Lock()
	if h.termSig == nil {
		h.termSig = make(chan os.Signal, 1)
		signal.Notify(h.termSig, os.Interrupt, syscall.SIGTERM)
		go func() {
			<-h.termSig
			h.Stop()
		}()
	}
	h.mu.Unlock()
}

// Register wires a raw fd to the Hub's Poller, per spec.md §4.2. onEvent is
// invoked with the delivered mask from the reactor goroutine, with Hub.mu
// held; it must not block. Used internally by Descriptor, Process, and the
// TCP layer, and directly by advanced callers needing raw readiness.
func (h *Hub) Register(fd int, mask PollMask, onEvent func(PollMask)) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.fds[fd]; ok {
		return ErrAlreadyRegistered
	}
	if err := h.poller.add(fd, mask); err != nil {
		return err
	}
	h.fds[fd] = &fdReg{mask: mask, onEvent: onEvent}
	h.wakeReactorLocked()
	return nil
}

// Modify changes the readiness mask for an already-registered fd.
func (h *Hub) Modify(fd int, mask PollMask) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	reg, ok := h.fds[fd]
	if !ok {
		return ErrNotRegistered
	}
	if err := h.poller.modify(fd, mask); err != nil {
		return err
	}
	reg.mask = mask
	return nil
}

// Unregister removes fd from the Poller.
func (h *Hub) Unregister(fd int) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.unregisterLocked(fd)
}

// unregisterLocked is Unregister's body, for reuse by callers (Descriptor)
// that already hold Hub.mu while tearing themselves down. It wakes the
// reactor so a stopping Run notices when the last fd is gone.
func (h *Hub) unregisterLocked(fd int) error {
	if _, ok := h.fds[fd]; !ok {
		return ErrNotRegistered
	}
	delete(h.fds, fd)
	err := h.poller.remove(fd)
	h.cond.Broadcast()
	h.wakeReactorLocked()
	return err
}

// Run drives the Hub's reactor: expiring timers and dispatching poll
// readiness until Stop is called and all work has drained. Run blocks until
// then; the conventional usage is `go hub.Run(ctx)`.
func (h *Hub) Run(ctx context.Context) error {
	h.mu.Lock()
	h.started = true
	h.mu.Unlock()
	defer close(h.done)
	defer h.Close()

	stopCh := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			h.Stop()
		case <-stopCh:
		}
	}()
	defer close(stopCh)

	for {
		h.mu.Lock()
		h.scheduler.expireDue()

		if h.stopping && h.scheduler.Len() == 0 && len(h.fds) == 0 {
			h.mu.Unlock()
			return ctx.Err()
		}

		timeout := h.scheduler.Timeout()
		h.mu.Unlock()

		events, err := h.poller.wait(timeout)
		if err != nil {
			h.mu.Lock()
			h.logPollError(err)
			h.mu.Unlock()
			continue
		}

		h.mu.Lock()
		for _, ev := range events {
			if reg, ok := h.fds[ev.Fd]; ok {
				reg.onEvent(ev.Mask)
			}
		}
		h.cond.Broadcast()
		h.mu.Unlock()
	}
}

// Wait blocks until Run has returned.
func (h *Hub) Wait() { <-h.done }

// Close releases the Poller's underlying file descriptors (the epoll
// instance and its wake pipe). Safe to call more than once, and safe to
// call whether or not Run was ever invoked; Run calls Close itself once its
// loop exits, so callers that do run the Hub don't need to call this
// directly. Callers that construct a Hub and never call Run must call Close
// themselves to avoid leaking those fds.
func (h *Hub) Close() error {
	var err error
	h.closeOnce.Do(func() {
		err = h.poller.close()
	})
	return err
}

// armTimer schedules *flag = true and a broadcast after d, returning a
// handle to cancel it if the wait is satisfied some other way first. Used
// by every derived primitive's timeout handling. Must be called with
// Hub.mu held; timeout == nil means no timer is armed.
func (h *Hub) armTimer(timeout *time.Duration, flag *bool) (bool, schedHandle) {
	if timeout == nil {
		return false, 0
	}
	handle := h.scheduler.Add(*timeout, func() {
		*flag = true
		h.cond.Broadcast()
	})
	h.wakeReactorLocked()
	return true, handle
}

func (h *Hub) wakeReactor() {
	_ = h.poller.wake()
}

func (h *Hub) wakeReactorLocked() {
	_ = h.poller.wake()
}
