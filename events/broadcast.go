package events

import (
	"encoding/json"

	"github.com/kbukum/structured/logger"
)

// Broadcaster publishes encoded data to every listener matching a pattern.
type Broadcaster interface {
	BroadcastToPattern(pattern string, data []byte)
}

// Envelope is the JSON shape published by BroadcastSink.
type Envelope struct {
	Type  string         `json:"type"`
	Topic string         `json:"topic"`
	Data  map[string]any `json:"data"`
}

// BroadcastSink encodes events as JSON envelopes and publishes them to a
// topic pattern.
type BroadcastSink struct {
	b     Broadcaster
	topic string
}

// NewBroadcastSink creates a sink publishing to topic, e.g. "extraction:<id>".
func NewBroadcastSink(b Broadcaster, topic string) *BroadcastSink {
	return &BroadcastSink{b: b, topic: topic}
}

// Dispatch implements Dispatcher.
func (s *BroadcastSink) Dispatch(e Event) {
	data, err := json.Marshal(Envelope{Type: e.Name(), Topic: s.topic, Data: e.Fields()})
	if err != nil {
		logger.Warn("encode event", logger.Fields(logger.FieldEvent, e.Name(), logger.FieldError, err.Error()))
		return
	}
	s.b.BroadcastToPattern(s.topic, data)
}
