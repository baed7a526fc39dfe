package events

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
)

// Handler is the standard Sink. Warning-class events go to the logger
// at WARN, or accumulate as errors when the invocation runs with
// warnings-as-errors. Error-class events always accumulate.
type Handler struct {
	log    *slog.Logger
	strict bool

	mu   sync.Mutex
	errs []error
}

// NewHandler builds a Handler. A nil logger discards log output.
func NewHandler(logger *slog.Logger, warnAsErrors bool) *Handler {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Handler{log: logger, strict: warnAsErrors}
}

// Emit implements Sink.
func (h *Handler) Emit(e Event) {
	if e.Level() == LevelError || h.strict {
		h.mu.Lock()
		h.errs = append(h.errs, &EventError{Event: e})
		h.mu.Unlock()
		return
	}
	h.log.Warn(e.Message(), "event", e.Name())
}

// Err returns the accumulated escalated events, joined, or nil.
func (h *Handler) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return errors.Join(h.errs...)
}

// EventError wraps an event escalated to a failure.
type EventError struct {
	Event Event
}

func (e *EventError) Error() string {
	return fmt.Sprintf("%s: %s", e.Event.Name(), e.Event.Message())
}

type discard struct{}

func (discard) Emit(Event) {}

// Discard returns a Sink that drops every event. Useful for callers
// that only need the comparison result.
func Discard() Sink {
	return discard{}
}

// Recorder is a Sink that captures events for inspection in tests.
type Recorder struct {
	mu     sync.Mutex
	Events []Event
}

// Emit implements Sink.
func (r *Recorder) Emit(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Events = append(r.Events, e)
}

// Names returns the names of the recorded events in order.
func (r *Recorder) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.Events))
	for _, e := range r.Events {
		names = append(names, e.Name())
	}
	return names
}
