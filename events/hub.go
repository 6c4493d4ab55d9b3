package events

import (
	"path"
	"sync"

	"github.com/kbukum/structured/logger"
)

// Subscriber receives encoded events published to a Hub.
type Subscriber struct {
	id     string
	events chan []byte
}

// NewSubscriber creates a subscriber. Its id is matched against broadcast
// patterns, e.g. "extraction:1234" matches "extraction:*".
func NewSubscriber(id string, buffer int) *Subscriber {
	if buffer <= 0 {
		buffer = 256
	}
	return &Subscriber{id: id, events: make(chan []byte, buffer)}
}

// ID returns the subscriber's identifier.
func (s *Subscriber) ID() string { return s.id }

// Events returns the channel of encoded events. It is closed when the
// subscriber is unregistered or the hub stops.
func (s *Subscriber) Events() <-chan []byte { return s.events }

// send delivers without blocking; a full buffer drops the message.
func (s *Subscriber) send(data []byte) bool {
	select {
	case s.events <- data:
		return true
	default:
		logger.Warn("subscriber buffer full, dropping event", logger.Fields("subscriber", s.id))
		return false
	}
}

type message struct {
	pattern string
	data    []byte
}

// Hub fans encoded events out to subscribers whose id matches the publish
// pattern. Run must be started in its own goroutine.
type Hub struct {
	subscribers map[string]*Subscriber
	register    chan *Subscriber
	unregister  chan *Subscriber
	broadcast   chan message
	done        chan struct{}
	stopOnce    sync.Once
	mu          sync.RWMutex
}

// NewHub creates a hub.
func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[string]*Subscriber),
		register:    make(chan *Subscriber),
		unregister:  make(chan *Subscriber),
		broadcast:   make(chan message, 256),
		done:        make(chan struct{}),
	}
}

// Run processes registrations and broadcasts until Stop is called.
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			h.closeAll()
			return
		case s := <-h.register:
			h.mu.Lock()
			h.subscribers[s.id] = s
			h.mu.Unlock()
		case s := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.subscribers[s.id]; ok {
				delete(h.subscribers, s.id)
				close(s.events)
			}
			h.mu.Unlock()
		case msg := <-h.broadcast:
			h.publish(msg)
		}
	}
}

// Stop shuts the hub down and closes every subscriber. Safe to call twice.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

// Register adds a subscriber. It is a no-op after Stop.
func (h *Hub) Register(s *Subscriber) {
	select {
	case h.register <- s:
	case <-h.done:
	}
}

// Unregister removes a subscriber and closes its channel.
func (h *Hub) Unregister(s *Subscriber) {
	select {
	case h.unregister <- s:
	case <-h.done:
	}
}

// BroadcastToPattern queues data for every subscriber whose id matches the
// glob pattern.
func (h *Hub) BroadcastToPattern(pattern string, data []byte) {
	select {
	case h.broadcast <- message{pattern: pattern, data: data}:
	case <-h.done:
	}
}

// SubscriberCount returns the number of registered subscribers.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

func (h *Hub) publish(msg message) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for id, s := range h.subscribers {
		matched, err := path.Match(msg.pattern, id)
		if err != nil {
			logger.Error("invalid broadcast pattern", logger.Fields("pattern", msg.pattern, logger.FieldError, err.Error()))
			return
		}
		if matched {
			s.send(msg.data)
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, s := range h.subscribers {
		close(s.events)
		delete(h.subscribers, id)
	}
}

var _ Broadcaster = (*Hub)(nil)
