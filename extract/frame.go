package extract

import (
	"github.com/kbukum/structured/jsonbuf"
	"github.com/kbukum/structured/llm"
)

// EmissionType tells downstream stages what a frame means for the caller.
type EmissionType int

const (
	// EmissionNone carries no new object.
	EmissionNone EmissionType = iota
	// EmissionObjectReady carries an object different from the last one emitted.
	EmissionObjectReady
	// EmissionError carries a stage failure.
	EmissionError
)

func (e EmissionType) String() string {
	switch e {
	case EmissionObjectReady:
		return "object_ready"
	case EmissionError:
		return "error"
	default:
		return "none"
	}
}

// Result holds either a value or the error that prevented producing one.
type Result[T any] struct {
	value T
	err   error
	set   bool
}

// Ok wraps a value.
func Ok[T any](v T) Result[T] { return Result[T]{value: v, set: true} }

// Fail wraps an error.
func Fail[T any](err error) Result[T] { return Result[T]{err: err, set: true} }

// IsSet reports whether the result holds a value or an error.
func (r Result[T]) IsSet() bool { return r.set }

// IsOK reports whether the result holds a value.
func (r Result[T]) IsOK() bool { return r.set && r.err == nil }

// Err returns the failure, or nil.
func (r Result[T]) Err() error { return r.err }

// Value returns the value; the zero value unless IsOK.
func (r Result[T]) Value() T { return r.value }

// Get returns the value and the failure.
func (r Result[T]) Get() (T, error) { return r.value, r.err }

// Frame is one pipeline step derived from one partial response.
type Frame[T any] struct {
	// Response is the record the frame was built from.
	Response llm.PartialResponse
	// Buffer is the attempt's text so far, including Delta.
	Buffer jsonbuf.Buffer
	// Delta is the text this record added in the current mode.
	Delta string
	// Index counts forwarded frames from 0 within one attempt.
	Index int
	// Emission is set by DeserializeValidateDedupe.
	Emission EmissionType
	// Result is the decoded object or the stage failure. Unset when the
	// buffer had nothing to decode yet.
	Result Result[T]
	// Data is the parsed JSON the object was decoded from.
	Data any
}

// HasObject reports whether the frame carries a decoded object.
func (f Frame[T]) HasObject() bool { return f.Result.IsOK() }

// IsFinal reports whether the frame ends the response.
func (f Frame[T]) IsFinal() bool { return f.Response.IsFinished() }
