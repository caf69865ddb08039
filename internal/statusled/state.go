package statusled

// State is what the status LED is currently communicating. Exactly one
// value is live at a time, owned by the Engine.
type State int

// Display states, in escalation order of the join lifecycle.
const (
	StateOff State = iota
	StateNotJoined
	StatePairing
	StateJoined
	StateError
)

// String returns the API name of the state.
func (s State) String() string {
	switch s {
	case StateOff:
		return "off"
	case StateNotJoined:
		return "not_joined"
	case StatePairing:
		return "pairing"
	case StateJoined:
		return "joined"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// ParseState maps an API name back to a State.
func ParseState(name string) (State, bool) {
	switch name {
	case "off":
		return StateOff, true
	case "not_joined":
		return StateNotJoined, true
	case "pairing":
		return StatePairing, true
	case "joined":
		return StateJoined, true
	case "error":
		return StateError, true
	default:
		return StateOff, false
	}
}

// StateNames lists the accepted API names, for validation messages.
func StateNames() []string {
	return []string{"off", "not_joined", "pairing", "joined", "error"}
}
