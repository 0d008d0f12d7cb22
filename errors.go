package vanilla

import "errors"

// Sentinel errors returned at the API boundary, per SPEC_FULL.md §9.
var (
	// ErrTimeout is returned when a park-operation's timeout elapses before
	// the operation could complete.
	ErrTimeout = errors.New("vanilla: timeout")

	// ErrClosed is returned to a caller on the side of a Pipe/Descriptor
	// that was explicitly closed (by either endpoint).
	ErrClosed = errors.New("vanilla: closed")

	// ErrAbandoned is returned when the opposite endpoint of a Pipe became
	// unreachable (garbage collected) without an explicit Close.
	ErrAbandoned = errors.New("vanilla: abandoned")

	// ErrStop is returned to an operation that would have had to park, but
	// the Hub is already shutting down.
	ErrStop = errors.New("vanilla: stop")

	// ErrHalt is delivered to a waiter that was already parked when the Hub
	// began shutting down, and would otherwise never be satisfied.
	ErrHalt = errors.New("vanilla: halt")

	// ErrAlreadyRegistered is returned by Hub.Register for an fd that is
	// already registered with the Poller.
	ErrAlreadyRegistered = errors.New("vanilla: fd already registered")

	// ErrNotRegistered is returned by Hub.Modify/Hub.Unregister for an fd
	// that is not currently registered with the Poller.
	ErrNotRegistered = errors.New("vanilla: fd not registered")

	// ErrEmptyArgv is returned by Hub.Execv when argv has no elements.
	ErrEmptyArgv = errors.New("vanilla: execv requires a non-empty argv")
)
