package events

import "github.com/kbukum/structured/logger"

// LogSink writes events to a logger. Chunk and tool-update events are
// logged at debug level, everything else at info.
type LogSink struct {
	log *logger.Logger
}

// NewLogSink creates a sink writing through log. A nil logger uses the
// global one.
func NewLogSink(log *logger.Logger) *LogSink {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &LogSink{log: log.WithComponent("events")}
}

// Dispatch implements Dispatcher.
func (s *LogSink) Dispatch(e Event) {
	fields := e.Fields()
	fields[logger.FieldEvent] = e.Name()
	switch e.Name() {
	case NameChunkReceived, NameToolCallUpdated:
		s.log.Debug("event", fields)
	case NameAttemptFailed:
		s.log.Warn("event", fields)
	default:
		s.log.Info("event", fields)
	}
}
