// Package vanilla is a single-threaded-equivalent cooperative concurrency
// runtime: a Hub (scheduler + timer wheel + edge-triggered poller), a Pipe
// protocol (half-rendezvous synchronous channels with abandonment and
// closure semantics), a Select multiplexer, and a family of derived
// primitives (Queue, Dealer, Router, Channel, Broadcast, Value, Pulse,
// Producer, Trigger) that compose on top of Pipe. A Descriptor layer lifts
// non-blocking OS file descriptors into the Pipe model, with TCP and child
// process management built as thin compositions on top of that.
//
// # Execution model
//
// Go has no user-space stackful coroutines, so every Task is an ordinary
// goroutine. Every operation that reads or mutates Hub-owned state acquires
// a single giant mutex (see Hub.mu and the design note in SPEC_FULL.md) for
// just the duration of that call, parking via Hub.cond.Wait when it must
// wait on something — a Pipe send/recv with no partner yet, Hub.Sleep, a
// Select with nothing immediately ready, or a Descriptor I/O call that must
// wait on readiness. Task bodies must never lock Hub.mu directly; they
// interact with the Hub exclusively through its methods, which already
// serialize access to shared state.
//
// # Usage
//
//	hub, _ := vanilla.NewHub()
//	go hub.Run(context.Background())
//
//	sender, recver := hub.Pipe()
//	hub.Spawn(func() { sender.Send(12, nil) })
//	v, err := recver.Recv(nil)
//
// # Errors
//
// Operations documented as potentially blocking return one of ErrTimeout,
// ErrClosed, ErrAbandoned, ErrStop, or ErrHalt. OS-level errors from Process
// and Descriptor propagate unchanged (e.g. as *os.PathError or
// syscall.Errno).
package vanilla
