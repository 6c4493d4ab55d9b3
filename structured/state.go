package structured

// State is where an extraction stands between attempts.
type State int

const (
	// StateAttempting means an attempt's stream is being consumed.
	StateAttempting State = iota
	// StateSucceeded means an attempt produced a fully valid object.
	StateSucceeded
	// StateRetrying means an attempt failed and another one will start.
	StateRetrying
	// StateExhausted means the extraction gave up: the policy declined,
	// attempts ran out, or the source failed.
	StateExhausted
)

func (s State) String() string {
	switch s {
	case StateAttempting:
		return "attempting"
	case StateSucceeded:
		return "succeeded"
	case StateRetrying:
		return "retrying"
	case StateExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further attempt follows.
func (s State) Terminal() bool { return s == StateSucceeded || s == StateExhausted }
