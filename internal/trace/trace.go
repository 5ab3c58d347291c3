// Package trace records the lifecycle of a harness run as an ordered
// event log: dependency registrations, target registration, instance
// creation, the ready notification, and run completion.
//
// Events carry logical sequence numbers from a Clock, never wall time,
// so the same run configuration produces a byte-identical trace. The
// canonical JSON serialization in this package exists for exactly that
// purpose: golden file comparison and stable persistence.
package trace

// Event types recorded by the harness.
const (
	EventDependencyRegistered = "dependency_registered"
	EventTargetRegistered     = "target_registered"
	EventCreated              = "created"
	EventReady                = "ready"
	EventRunCompleted         = "run_completed"
)

// Clock supplies monotonic logical sequence numbers.
// testutil.DeterministicClock satisfies it.
type Clock interface {
	Next() int64
}

// Event is one lifecycle event.
type Event struct {
	Type      string         `json:"type"`
	Namespace string         `json:"namespace,omitempty"`
	Detail    map[string]any `json:"detail,omitempty"`
	Seq       int64          `json:"seq"`
}

// Trace is an append-only event log for a single run.
//
// Not safe for concurrent use; the run context appends from a single
// goroutine in strict happens-before order.
type Trace struct {
	clock  Clock
	events []Event
}

// New creates an empty trace drawing sequence numbers from clock.
func New(clock Clock) *Trace {
	return &Trace{clock: clock}
}

// Record appends an event, stamping it with the next sequence number.
func (t *Trace) Record(eventType, namespace string, detail map[string]any) {
	t.events = append(t.events, Event{
		Type:      eventType,
		Namespace: namespace,
		Detail:    detail,
		Seq:       t.clock.Next(),
	})
}

// Events returns the recorded events in order.
func (t *Trace) Events() []Event {
	return t.events
}

// Snapshot is the serialized form of a trace, keyed by the run name for
// golden file comparison.
type Snapshot struct {
	Name   string  `json:"name"`
	Events []Event `json:"events"`
}

// toCanonicalMap converts a Snapshot to plain maps for MarshalCanonical,
// which only handles primitives, []any and map[string]any.
func (s *Snapshot) toCanonicalMap() map[string]any {
	events := make([]any, len(s.Events))
	for i, ev := range s.Events {
		m := map[string]any{
			"type": ev.Type,
			"seq":  ev.Seq,
		}
		if ev.Namespace != "" {
			m["namespace"] = ev.Namespace
		}
		if len(ev.Detail) > 0 {
			m["detail"] = ev.Detail
		}
		events[i] = m
	}
	return map[string]any{
		"name":   s.Name,
		"events": events,
	}
}

// MarshalSnapshot serializes a named trace to canonical JSON.
func MarshalSnapshot(name string, t *Trace) ([]byte, error) {
	s := Snapshot{Name: name, Events: t.Events()}
	return MarshalCanonical(s.toCanonicalMap())
}
