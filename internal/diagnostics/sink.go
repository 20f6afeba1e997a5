// Package diagnostics implements the single write-only channel spec.md §6
// mandates for worker-caught errors and convergence notices: no structured
// log format is required by the core, only a place to write lines.
package diagnostics

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"islandopt/internal/runid"
)

// Sink is the write-only diagnostic channel consumed by Island workers and
// by sade's convergence-exit notices.
type Sink interface {
	// Warn records a worker-caught error or other abnormal condition.
	Warn(format string, args ...any)
	// Info records a non-error notice, e.g. an exit-condition message.
	Info(format string, args ...any)
}

// LogSink writes timestamped lines to an io.Writer (os.Stderr by default).
// Grounded on the teacher's own core packages, which never reach for a
// structured logging library and instead write plain timestamped lines to
// stderr; see DESIGN.md.
type LogSink struct {
	mu sync.Mutex
	w  io.Writer
}

// NewLogSink returns a LogSink writing to w. If w is nil, os.Stderr is used.
func NewLogSink(w io.Writer) *LogSink {
	if w == nil {
		w = os.Stderr
	}
	return &LogSink{w: w}
}

func (s *LogSink) Warn(format string, args ...any) { s.write("WARN", format, args...) }
func (s *LogSink) Info(format string, args ...any) { s.write("INFO", format, args...) }

func (s *LogSink) write(level, format string, args ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ts := runid.FormatTime(time.Now())
	fmt.Fprintf(s.w, "%s [%s] %s\n", ts, level, fmt.Sprintf(format, args...))
}

// Noop discards every message. It is the default Sink for components
// constructed without one, so diagnostic wiring is always optional.
type Noop struct{}

func (Noop) Warn(string, ...any) {}
func (Noop) Info(string, ...any) {}
