package schema

import (
	"fmt"
	"strings"
)

// Mode selects how the model returns structured output.
type Mode string

const (
	// ModeTools forces a tool call whose arguments are the object.
	ModeTools Mode = "tools"
	// ModeJSON asks for a bare JSON object in the content.
	ModeJSON Mode = "json"
	// ModeJSONSchema uses the provider's schema-constrained JSON output.
	ModeJSONSchema Mode = "json_schema"
	// ModeMdJSON asks for JSON inside a markdown code fence.
	ModeMdJSON Mode = "md_json"
)

var modes = []Mode{ModeTools, ModeJSON, ModeJSONSchema, ModeMdJSON}

// ParseMode parses a mode name, case-insensitively.
func ParseMode(s string) (Mode, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	if m.Valid() {
		return m, nil
	}
	return "", fmt.Errorf("unknown mode %q", s)
}

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	for _, known := range modes {
		if m == known {
			return true
		}
	}
	return false
}

// IsToolCall reports whether the object arrives as tool-call arguments.
func (m Mode) IsToolCall() bool { return m == ModeTools }

func (m Mode) String() string { return string(m) }
