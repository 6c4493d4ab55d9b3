package jsonbuf

import "strings"

// Buffer holds the raw text received so far for one attempt.
type Buffer struct {
	raw string
}

// Empty returns a buffer with no content.
func Empty() Buffer { return Buffer{} }

// New returns a buffer holding raw.
func New(raw string) Buffer { return Buffer{raw: raw} }

// Assemble returns a buffer with delta appended.
func (b Buffer) Assemble(delta string) Buffer {
	if delta == "" {
		return b
	}
	return Buffer{raw: b.raw + delta}
}

// Raw returns the accumulated text.
func (b Buffer) Raw() string { return b.raw }

// Len returns the raw length in bytes.
func (b Buffer) Len() int { return len(b.raw) }

// IsEmpty reports whether the buffer holds only whitespace.
func (b Buffer) IsEmpty() bool { return strings.TrimSpace(b.raw) == "" }

// Completed returns the best-effort parseable form of the buffer, or "" when
// nothing complete can be recovered yet.
func (b Buffer) Completed() string { return Complete(b.raw) }

// String implements fmt.Stringer.
func (b Buffer) String() string { return b.raw }
