// Package notify delivers short success and failure messages about
// mutations to whoever is presenting them.
package notify

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
)

// Kind distinguishes success from failure.
type Kind int

const (
	Success Kind = iota
	Failure
)

func (k Kind) String() string {
	if k == Failure {
		return "failure"
	}
	return "success"
}

// Event is one notification.
type Event struct {
	Kind    Kind
	Summary string
	Err     error
}

// Notifier receives events. Implementations must be safe for concurrent use.
type Notifier interface {
	Notify(Event)
}

// Func adapts a function to Notifier.
type Func func(Event)

// Notify calls f.
func (f Func) Notify(e Event) { f(e) }

// Nop discards events.
var Nop Notifier = Func(func(Event) {})

// Log writes events to a slog logger.
func Log(logger *slog.Logger) Notifier {
	return Func(func(e Event) {
		if e.Kind == Failure {
			logger.Warn(e.Summary, "error", e.Err)
			return
		}
		logger.Info(e.Summary)
	})
}

// Writer prints one line per event.
func Writer(w io.Writer) Notifier {
	var mu sync.Mutex
	return Func(func(e Event) {
		mu.Lock()
		defer mu.Unlock()
		if e.Kind == Failure {
			if e.Err != nil {
				_, _ = fmt.Fprintf(w, "✗ %s: %v\n", e.Summary, e.Err)
				return
			}
			_, _ = fmt.Fprintf(w, "✗ %s\n", e.Summary)
			return
		}
		_, _ = fmt.Fprintf(w, "✓ %s\n", e.Summary)
	})
}

// Recorder keeps every event. Useful in tests.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Notify records e.
func (r *Recorder) Notify(e Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Count returns how many events of kind k were recorded.
func (r *Recorder) Count(k Kind) int {
	n := 0
	for _, e := range r.Events() {
		if e.Kind == k {
			n++
		}
	}
	return n
}
