// Package events emits one structured event per task lifecycle
// transition. Sinks are pluggable; the core only requires that every
// event carries the task id, tier, event name, and attempt number.
package events

import (
	"log/slog"
	"sync"
	"time"

	"github.com/patchpilot/patchpilot/pkg/models"
)

// Event names, one per lifecycle transition.
const (
	TaskCreated   = "task_created"
	AttemptStart  = "attempt_start"
	AttemptEnd    = "attempt_end"
	PatchApplied  = "patch_applied"
	PatchRejected = "patch_rejected"
	VerifyStart   = "verify_start"
	VerifyPass    = "verify_pass"
	VerifyFail    = "verify_fail"
	Escalation    = "escalation"
	Completion    = "completion"
	Abort         = "abort"
)

// Event is one structured lifecycle record.
type Event struct {
	TaskID  string      `json:"task_id"`
	Tier    models.Tier `json:"tier"`
	Name    string      `json:"event"`
	Attempt int         `json:"attempt"`
	Detail  string      `json:"detail,omitempty"`
	Time    time.Time   `json:"time"`
}

// Sink receives lifecycle events. Implementations must be safe for
// concurrent use; the batch runner emits from many goroutines.
type Sink interface {
	Emit(e Event)
	Close() error
}

// Emitter fans events out to its sinks, stamping the time.
type Emitter struct {
	sinks []Sink
}

// NewEmitter creates an Emitter over the given sinks.
func NewEmitter(sinks ...Sink) *Emitter {
	return &Emitter{sinks: sinks}
}

// Emit stamps and delivers one event to every sink.
func (em *Emitter) Emit(task models.Task, name, detail string) {
	e := Event{
		TaskID:  task.ID,
		Tier:    task.Tier,
		Name:    name,
		Attempt: task.Attempt,
		Detail:  detail,
		Time:    time.Now(),
	}
	for _, s := range em.sinks {
		s.Emit(e)
	}
}

// Close closes every sink, keeping the first error.
func (em *Emitter) Close() error {
	var first error
	for _, s := range em.sinks {
		if err := s.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// SlogSink writes events through a slog.Logger.
type SlogSink struct {
	logger *slog.Logger
}

// NewSlogSink creates a sink over the given logger; nil uses the default.
func NewSlogSink(logger *slog.Logger) *SlogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogSink{logger: logger}
}

// Emit logs the event at info level with structured attributes.
func (s *SlogSink) Emit(e Event) {
	s.logger.Info(e.Name,
		"task_id", e.TaskID,
		"tier", string(e.Tier),
		"attempt", e.Attempt,
		"detail", e.Detail,
	)
}

// Close is a no-op for the log sink.
func (s *SlogSink) Close() error { return nil }

// MemorySink records events in memory for tests and summaries.
type MemorySink struct {
	mu     sync.Mutex
	events []Event
}

// NewMemorySink creates an empty MemorySink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// Emit appends the event.
func (s *MemorySink) Emit(e Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
}

// Events returns a copy of everything recorded so far.
func (s *MemorySink) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Event(nil), s.events...)
}

// Named returns the recorded events with the given name.
func (s *MemorySink) Named(name string) []Event {
	var out []Event
	for _, e := range s.Events() {
		if e.Name == name {
			out = append(out, e)
		}
	}
	return out
}

// Close is a no-op.
func (s *MemorySink) Close() error { return nil }

var (
	_ Sink = (*SlogSink)(nil)
	_ Sink = (*MemorySink)(nil)
)
