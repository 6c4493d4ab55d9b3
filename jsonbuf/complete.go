package jsonbuf

import (
	"encoding/json"
	"strings"
)

type state uint8

const (
	expectKey state = iota
	expectColon
	expectValue
	afterValue
)

type frame struct {
	object   bool
	state    state
	allowEnd bool
}

// Complete closes a truncated JSON document at its last complete value.
// Once the root container closes, text after it is ignored.
func Complete(raw string) string {
	for start := nextOpener(raw, 0); start >= 0; start = nextOpener(raw, start+1) {
		out, invalid := scan(raw, start)
		if out != "" || !invalid {
			return out
		}
	}
	return ""
}

func nextOpener(s string, from int) int {
	if from >= len(s) {
		return -1
	}
	i := strings.IndexAny(s[from:], "{[")
	if i < 0 {
		return -1
	}
	return from + i
}

// scan walks raw from the opener at start. It returns the completed text and
// whether scanning stopped on malformed input rather than on truncation.
func scan(raw string, start int) (string, bool) {
	stack := []frame{openFrame(raw[start])}
	safeEnd, safeDepth := -1, 0
	markSafe := func(end int) {
		safeEnd, safeDepth = end, len(stack)
	}
	recovered := func() string {
		if safeEnd < 0 {
			return ""
		}
		var sb strings.Builder
		sb.WriteString(raw[start:safeEnd])
		for i := safeDepth - 1; i >= 0; i-- {
			if stack[i].object {
				sb.WriteByte('}')
			} else {
				sb.WriteByte(']')
			}
		}
		return sb.String()
	}

	i := start + 1
	for i < len(raw) {
		c := raw[i]
		if isSpace(c) {
			i++
			continue
		}
		top := &stack[len(stack)-1]

		switch top.state {
		case expectKey:
			switch {
			case c == '}' && top.allowEnd:
				stack = stack[:len(stack)-1]
				if len(stack) == 0 {
					return raw[start : i+1], false
				}
				markSafe(i + 1)
				i++
			case c == '"':
				end := scanString(raw, i)
				if end < 0 {
					return recovered(), false
				}
				top.state = expectColon
				i = end
			default:
				return recovered(), true
			}

		case expectColon:
			if c != ':' {
				return recovered(), true
			}
			top.state = expectValue
			top.allowEnd = false
			i++

		case expectValue:
			if c == ']' && !top.object && top.allowEnd {
				stack = stack[:len(stack)-1]
				if len(stack) == 0 {
					return raw[start : i+1], false
				}
				markSafe(i + 1)
				i++
				continue
			}
			switch c {
			case '{', '[':
				top.state = afterValue
				stack = append(stack, openFrame(c))
				i++
			case '"':
				end := scanString(raw, i)
				if end < 0 {
					return recovered(), false
				}
				top.state = afterValue
				markSafe(end)
				i = end
			default:
				end := scanScalar(raw, i)
				if end == len(raw) {
					return recovered(), false
				}
				if end == i || !json.Valid([]byte(raw[i:end])) {
					return recovered(), true
				}
				top.state = afterValue
				markSafe(end)
				i = end
			}

		case afterValue:
			switch {
			case c == ',':
				if top.object {
					top.state = expectKey
				} else {
					top.state = expectValue
				}
				top.allowEnd = false
				i++
			case (c == '}' && top.object) || (c == ']' && !top.object):
				stack = stack[:len(stack)-1]
				if len(stack) == 0 {
					return raw[start : i+1], false
				}
				markSafe(i + 1)
				i++
			default:
				return recovered(), true
			}
		}
	}
	return recovered(), false
}

func openFrame(c byte) frame {
	if c == '{' {
		return frame{object: true, state: expectKey, allowEnd: true}
	}
	return frame{state: expectValue, allowEnd: true}
}

// scanString returns the index just past the closing quote of the string
// starting at i, or -1 if it is unterminated.
func scanString(s string, i int) int {
	for j := i + 1; j < len(s); j++ {
		switch s[j] {
		case '\\':
			j++
		case '"':
			return j + 1
		}
	}
	return -1
}

func scanScalar(s string, i int) int {
	j := i
	for j < len(s) {
		switch c := s[j]; {
		case isSpace(c), c == ',', c == '}', c == ']', c == ':':
			return j
		}
		j++
	}
	return j
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
