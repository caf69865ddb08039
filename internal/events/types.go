package events

// Event type constants for kelindar/event.
const (
	TypeNetwork uint32 = iota + 1
	TypeButton
	TypeLEDStateChanged
	TypeSettingChanged
	TypeUpdate
	TypeLogEntry
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// Network lifecycle actions carried by NetworkEvent.
const (
	NetworkJoined         = "joined"
	NetworkLeft           = "left"
	NetworkPairingStarted = "pairing_started"
	NetworkPairingTimeout = "pairing_timeout"
	NetworkError          = "error"
)

// NetworkEvent reports a change in the node's mesh membership.
type NetworkEvent struct {
	Action    string `json:"action" example:"joined" doc:"Lifecycle action: joined, left, pairing_started, pairing_timeout, error"`
	Error     string `json:"error,omitempty" example:"unit failed" doc:"Detail when action is error"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for NetworkEvent.
func (e NetworkEvent) Type() uint32 { return TypeNetwork }

// Button actions carried by ButtonEvent.
const (
	ButtonShortPress   = "short_press"
	ButtonNetworkReset = "network_reset"
	ButtonFactoryReset = "factory_reset"
)

// ButtonEvent reports a completed button press.
type ButtonEvent struct {
	Action    string `json:"action" example:"network_reset" doc:"Press outcome: short_press, network_reset, factory_reset"`
	HeldMs    int64  `json:"held_ms" example:"3200" doc:"How long the button was held"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for ButtonEvent.
func (e ButtonEvent) Type() uint32 { return TypeButton }

// LEDStateChangedEvent reports a display state applied to the status LED.
type LEDStateChangedEvent struct {
	State     string `json:"state" example:"pairing" doc:"State now shown on the LED"`
	Previous  string `json:"previous" example:"not_joined" doc:"State shown before the change"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for LEDStateChangedEvent.
func (e LEDStateChangedEvent) Type() uint32 { return TypeLEDStateChanged }

// SettingChangedEvent reports a write to the settings store.
// Values are not carried; subscribers re-read what they care about.
type SettingChangedEvent struct {
	Bucket    string `json:"bucket" example:"network" doc:"Settings bucket"`
	Key       string `json:"key" example:"channel" doc:"Changed key, empty when the bucket was wiped"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for SettingChangedEvent.
func (e SettingChangedEvent) Type() uint32 { return TypeSettingChanged }

// UpdateEvent reports self-update progress.
type UpdateEvent struct {
	Status    string `json:"status" example:"downloading" doc:"Update phase"`
	Version   string `json:"version,omitempty" example:"1.4.0" doc:"Target version when known"`
	Error     string `json:"error,omitempty" doc:"Detail when the update failed"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for UpdateEvent.
func (e UpdateEvent) Type() uint32 { return TypeUpdate }

// LogEntryEvent carries one log line to SSE subscribers.
type LogEntryEvent struct {
	Seq        uint64         `json:"seq" example:"42" doc:"Monotonic sequence number for deduplication"`
	Timestamp  string         `json:"timestamp" example:"2025-01-09T10:30:00.123Z" doc:"Log timestamp"`
	Level      string         `json:"level" example:"info" doc:"Log level"`
	Module     string         `json:"module" example:"led" doc:"Source module"`
	Message    string         `json:"message" doc:"Log message"`
	Attributes map[string]any `json:"attributes,omitempty" doc:"Structured log attributes"`
}

// Type returns the event type identifier for LogEntryEvent.
func (e LogEntryEvent) Type() uint32 { return TypeLogEntry }
