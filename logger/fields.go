package logger

import (
	"time"
)

// Field keys used by the extraction pipeline.
const (
	FieldComponent    = "component"
	FieldTraceID      = "trace_id"
	FieldSpanID       = "span_id"
	FieldExtractionID = "extraction_id"
	FieldModel        = "model"
	FieldMode         = "mode"
	FieldAttempt      = "attempt"
	FieldMaxAttempts  = "max_attempts"
	FieldFrameIndex   = "frame_index"
	FieldEmission     = "emission"
	FieldToolName     = "tool_name"
	FieldToolID       = "tool_id"
	FieldFinishReason = "finish_reason"
	FieldEvent        = "event"
	FieldProvider     = "provider"
	FieldStatus       = "status"
	FieldError        = "error"
	FieldErrorCode    = "error_code"
	FieldDuration     = "duration_ms"
)

// Fields builds a map[string]interface{} from alternating key-value pairs.
//
//	logger.Info("done", logger.Fields(logger.FieldAttempt, 2, logger.FieldStatus, "ok"))
func Fields(kvs ...interface{}) map[string]interface{} {
	m := make(map[string]interface{}, len(kvs)/2)
	for i := 0; i < len(kvs)-1; i += 2 {
		if key, ok := kvs[i].(string); ok {
			m[key] = kvs[i+1]
		}
	}
	return m
}

// MergeWithError adds an error field to an existing map.
func MergeWithError(fields map[string]interface{}, err error) map[string]interface{} {
	if fields == nil {
		fields = make(map[string]interface{})
	}
	fields[FieldError] = err.Error()
	return fields
}

// MergeWithDuration adds a duration field to an existing map.
func MergeWithDuration(fields map[string]interface{}, d time.Duration) map[string]interface{} {
	if fields == nil {
		fields = make(map[string]interface{})
	}
	fields[FieldDuration] = d.Milliseconds()
	return fields
}
