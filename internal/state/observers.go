package state

import (
	"log/slog"
	"sync"
)

// EventKind distinguishes the two notification shapes state.State emits.
type EventKind string

const (
	// EventConnection fires when the Reader's connection to the device
	// comes up or goes down.
	EventConnection EventKind = "connection"
	// EventParameter fires whenever SetParameter stores a new value.
	EventParameter EventKind = "parameter"
)

// Event is the payload delivered to a registered observer callback.
type Event struct {
	Kind      EventKind
	Connected bool // valid when Kind == EventConnection

	Group string // valid when Kind == EventParameter
	Name  string
	Value any
}

// Observers is a registry of named callbacks, notified synchronously on the
// goroutine that mutated state. Grounded on websocket.Manager's
// mutex-guarded client map: register/unregister by name, copy the
// callbacks out before invoking so a callback registering or unregistering
// itself never deadlocks the registry.
type Observers struct {
	mu     sync.Mutex
	byName map[string]func(Event)
	logger *slog.Logger
}

// NewObservers creates an empty registry.
func NewObservers(logger *slog.Logger) *Observers {
	return &Observers{
		byName: make(map[string]func(Event)),
		logger: logger,
	}
}

// Register adds or replaces the callback under name.
func (o *Observers) Register(name string, cb func(Event)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.byName[name] = cb
}

// Unregister removes the callback under name, if any.
func (o *Observers) Unregister(name string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.byName, name)
}

// Notify invokes every registered callback with ev. Callback bodies must
// not block; a panicking callback is recovered and logged so one bad
// observer cannot take down the mutating goroutine.
func (o *Observers) Notify(ev Event) {
	o.mu.Lock()
	callbacks := make([]func(Event), 0, len(o.byName))
	for _, cb := range o.byName {
		callbacks = append(callbacks, cb)
	}
	o.mu.Unlock()

	for _, cb := range callbacks {
		o.invoke(cb, ev)
	}
}

func (o *Observers) invoke(cb func(Event), ev Event) {
	defer func() {
		if r := recover(); r != nil && o.logger != nil {
			o.logger.Error("observer callback panicked", "event_kind", ev.Kind, "recovered", r)
		}
	}()
	cb(ev)
}
