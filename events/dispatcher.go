package events

import "sync"

// Dispatcher receives pipeline events.
type Dispatcher interface {
	Dispatch(e Event)
}

// Func adapts a function to a Dispatcher.
type Func func(e Event)

// Dispatch implements Dispatcher.
func (f Func) Dispatch(e Event) { f(e) }

// Discard drops every event.
var Discard Dispatcher = Func(func(Event) {})

// Multi fans an event out to several dispatchers in order.
type Multi []Dispatcher

// Dispatch implements Dispatcher.
func (m Multi) Dispatch(e Event) {
	for _, d := range m {
		if d != nil {
			d.Dispatch(e)
		}
	}
}

// Combine returns a dispatcher for the non-nil entries of ds. It returns
// Discard when none remain.
func Combine(ds ...Dispatcher) Dispatcher {
	var out Multi
	for _, d := range ds {
		if d != nil {
			out = append(out, d)
		}
	}
	switch len(out) {
	case 0:
		return Discard
	case 1:
		return out[0]
	default:
		return out
	}
}

// Filter forwards only events whose name is listed.
func Filter(next Dispatcher, names ...string) Dispatcher {
	allowed := make(map[string]struct{}, len(names))
	for _, n := range names {
		allowed[n] = struct{}{}
	}
	return Func(func(e Event) {
		if _, ok := allowed[e.Name()]; ok {
			next.Dispatch(e)
		}
	})
}

// Collector records events in dispatch order. Safe for concurrent use.
type Collector struct {
	mu     sync.Mutex
	events []Event
}

// NewCollector creates an empty collector.
func NewCollector() *Collector { return &Collector{} }

// Dispatch implements Dispatcher.
func (c *Collector) Dispatch(e Event) {
	c.mu.Lock()
	c.events = append(c.events, e)
	c.mu.Unlock()
}

// Events returns a copy of the recorded events.
func (c *Collector) Events() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Event, len(c.events))
	copy(out, c.events)
	return out
}

// Named returns the recorded events with the given name.
func (c *Collector) Named(name string) []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []Event
	for _, e := range c.events {
		if e.Name() == name {
			out = append(out, e)
		}
	}
	return out
}

// Count returns how many events with the given name were recorded.
func (c *Collector) Count(name string) int { return len(c.Named(name)) }

// Names returns the names of the recorded events in order.
func (c *Collector) Names() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.events))
	for i, e := range c.events {
		out[i] = e.Name()
	}
	return out
}

// Reset clears the recorded events.
func (c *Collector) Reset() {
	c.mu.Lock()
	c.events = nil
	c.mu.Unlock()
}
