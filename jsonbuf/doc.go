// Package jsonbuf accumulates streamed JSON text and recovers the largest
// parseable prefix of it.
//
// A Buffer is an immutable value: Assemble returns a new Buffer with the delta
// appended and leaves the receiver untouched. Completed scans the raw text from
// the first '{' or '[' (so leading prose or a markdown fence is skipped), cuts
// it back to the last point where a value finished, and appends the closers of
// the containers still open there. Partial keys, strings, numbers and literals
// are dropped rather than guessed, so the result is either valid JSON or "".
package jsonbuf
