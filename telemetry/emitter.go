// Package telemetry instruments kernel session lifecycle events. The Emitter
// interface keeps the capture mechanism pluggable: production wiring logs
// structured events, tests capture them in memory.
package telemetry

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Event kinds recorded around session creation.
const (
	EventSessionCreationStarted = "session.creation.started"
	EventSessionCreated         = "session.created"
	EventSessionCreationFailed  = "session.creation.failed"
)

// Event is one recorded session lifecycle event.
type Event struct {
	Kind       string
	KernelName string
	Duration   time.Duration
	Err        error
}

// Emitter records session lifecycle events.
type Emitter interface {
	SessionCreationStarted(kernelName string)
	SessionCreated(kernelName string, took time.Duration)
	SessionCreationFailed(kernelName string, err error, took time.Duration)
}

// NopEmitter discards all events.
type NopEmitter struct{}

func (NopEmitter) SessionCreationStarted(string) {}

func (NopEmitter) SessionCreated(string, time.Duration) {}

func (NopEmitter) SessionCreationFailed(string, error, time.Duration) {}

// ZapEmitter logs events as structured log entries.
type ZapEmitter struct {
	logger *zap.SugaredLogger
}

// NewZapEmitter creates an emitter backed by the given logger.
func NewZapEmitter(logger *zap.SugaredLogger) *ZapEmitter {
	return &ZapEmitter{logger: logger}
}

func (e *ZapEmitter) SessionCreationStarted(kernelName string) {
	e.logger.Debugw(EventSessionCreationStarted, "kernel", kernelName)
}

func (e *ZapEmitter) SessionCreated(kernelName string, took time.Duration) {
	e.logger.Infow(EventSessionCreated, "kernel", kernelName, "took", took)
}

func (e *ZapEmitter) SessionCreationFailed(kernelName string, err error, took time.Duration) {
	e.logger.Warnw(EventSessionCreationFailed, "kernel", kernelName, "error", err, "took", took)
}

// CapturingEmitter records events in memory for test assertions.
type CapturingEmitter struct {
	mu     sync.Mutex
	events []Event
}

// NewCapturingEmitter creates an empty capturing emitter.
func NewCapturingEmitter() *CapturingEmitter {
	return &CapturingEmitter{}
}

func (e *CapturingEmitter) SessionCreationStarted(kernelName string) {
	e.record(Event{Kind: EventSessionCreationStarted, KernelName: kernelName})
}

func (e *CapturingEmitter) SessionCreated(kernelName string, took time.Duration) {
	e.record(Event{Kind: EventSessionCreated, KernelName: kernelName, Duration: took})
}

func (e *CapturingEmitter) SessionCreationFailed(kernelName string, err error, took time.Duration) {
	e.record(Event{Kind: EventSessionCreationFailed, KernelName: kernelName, Err: err, Duration: took})
}

func (e *CapturingEmitter) record(ev Event) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, ev)
}

// Events returns a copy of the captured events.
func (e *CapturingEmitter) Events() []Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Event, len(e.events))
	copy(out, e.events)
	return out
}
