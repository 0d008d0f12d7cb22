package vanilla

import (
	"fmt"
	"os"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

// Logger is the structured logging facade used by a Hub: an alias for
// *logiface.Logger[*stumpy.Event] (see NewLogger), so only that concrete
// logger type is accepted.
type Logger = *logiface.Logger[*stumpy.Event]

// NewLogger builds the package's default structured logger: logiface,
// backed by stumpy's zero-dependency JSON writer, matching the pairing used
// by the teacher pack's logiface-stumpy package.
func NewLogger(w *os.File) Logger {
	return stumpy.L.New(
		stumpy.L.WithStumpy(stumpy.WithWriter(w)),
	)
}

// noopLogger is used when a Hub is constructed without WithLogger.
func noopLogger() Logger {
	return stumpy.L.New(
		stumpy.L.WithStumpy(stumpy.WithWriter(discardWriter{})),
	)
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

func (h *Hub) logTaskPanic(recovered any) {
	h.logger.Err().
		Str("category", "task").
		Str("panic", formatPanic(recovered)).
		Log("task panicked, discarding")
}

func (h *Hub) logPollError(err error) {
	h.logger.Warning().
		Str("category", "poll").
		Err(err).
		Log("poll error")
}

func (h *Hub) logDescriptorClosed(fd int, reason string) {
	h.logger.Debug().
		Str("category", "descriptor").
		Int64("fd", int64(fd)).
		Str("reason", reason).
		Log("descriptor closed")
}

func formatPanic(v any) string {
	if err, ok := v.(error); ok {
		return err.Error()
	}
	return fmt.Sprint(v)
}
