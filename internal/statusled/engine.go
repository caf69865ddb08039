package statusled

import (
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/openmux/statusd/internal/ws2812"
)

// Blink and hold defaults for the display states.
const (
	notJoinedPeriod = 250 * time.Millisecond
	pairingPeriod   = 250 * time.Millisecond
	errorPeriod     = 100 * time.Millisecond
	timedStateHold  = 5 * time.Second
)

// never parks a timer that has not been armed yet.
const never = time.Duration(math.MaxInt64)

// timing groups the engine's periods so tests can shrink them.
type timing struct {
	notJoined time.Duration
	pairing   time.Duration
	fault     time.Duration
	hold      time.Duration
}

func defaultTiming() timing {
	return timing{
		notJoined: notJoinedPeriod,
		pairing:   pairingPeriod,
		fault:     errorPeriod,
		hold:      timedStateHold,
	}
}

// Engine owns the status pixel: the current display state, the blink and
// timeout timers, and the one transmitter allowed to touch the wire. All
// entry points serialize on a single mutex, so state changes, blink ticks
// and timeouts never interleave.
type Engine struct {
	mu     sync.Mutex
	tx     ws2812.Transmitter
	logger *slog.Logger

	state  State
	phase  bool
	closed bool
	timing timing

	blink   *time.Timer
	timeout *time.Timer

	notify func(previous, current State)
}

// New builds an engine around the transmitter it will own. The display
// starts at StateOff with both timers idle; nothing reaches the wire until
// the first SetState.
func New(tx ws2812.Transmitter, logger *slog.Logger) *Engine {
	e := &Engine{
		tx:     tx,
		logger: logger,
		state:  StateOff,
		timing: defaultTiming(),
	}
	e.blink = time.AfterFunc(never, e.onBlink)
	e.blink.Stop()
	e.timeout = time.AfterFunc(never, e.onTimeout)
	e.timeout.Stop()
	return e
}

// OnStateChange registers a hook invoked after every applied transition,
// including the automatic ones. Must be set before the first SetState.
func (e *Engine) OnStateChange(fn func(previous, current State)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.notify = fn
}

// SetState is the only mutator. Calling it with the current state repeats
// the entry action from scratch. Safe from any goroutine; transmission
// failures stay internal.
func (e *Engine) SetState(next State) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	previous := e.setStateLocked(next)
	fn := e.notify
	e.mu.Unlock()

	if fn != nil && previous != next {
		fn(previous, next)
	}
}

// State returns the current display state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Device names the underlying transmitter device.
func (e *Engine) Device() string {
	return e.tx.Device()
}

// Close stops both timers and then releases the transmitter, in that
// order. The closed flag flips under the lock first, so a callback that
// lost the race observes it and backs out before touching the wire.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.blink.Stop()
	e.timeout.Stop()
	e.mu.Unlock()

	return e.tx.Close()
}

// setStateLocked is the single entry procedure for a new state. Both
// external SetState calls and the timeout auto-transitions land here, so
// it must stay safe to run from the timer callbacks themselves. The
// caller holds mu.
func (e *Engine) setStateLocked(next State) (previous State) {
	previous = e.state

	// A new state always wins over whatever the old one had scheduled.
	e.blink.Stop()
	e.timeout.Stop()
	e.phase = false
	e.state = next

	switch next {
	case StateOff:
		e.transmit(ws2812.Black)
	case StateNotJoined:
		// First amber appears on the first blink tick.
		e.blink.Reset(e.timing.notJoined)
	case StatePairing:
		e.blink.Reset(e.timing.pairing)
	case StateJoined:
		e.transmit(ws2812.Green)
		e.timeout.Reset(e.timing.hold)
	case StateError:
		e.blink.Reset(e.timing.fault)
		e.timeout.Reset(e.timing.hold)
	default:
		e.transmit(ws2812.Black)
	}

	e.logger.Debug("Display state set", "state", next.String(), "previous", previous.String())
	return previous
}

// onBlink toggles the phase and pushes the matching frame. Stop can lose
// the race with a tick already in flight, so a firing for a state that no
// longer blinks falls through without re-arming.
func (e *Engine) onBlink() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return
	}

	e.phase = !e.phase

	var color ws2812.Color
	var period time.Duration
	switch e.state {
	case StateNotJoined:
		color, period = ws2812.Amber, e.timing.notJoined
	case StatePairing:
		color, period = ws2812.Blue, e.timing.pairing
	case StateError:
		color, period = ws2812.Red, e.timing.fault
	default:
		return
	}

	if e.phase {
		e.transmit(color)
	} else {
		e.transmit(ws2812.Black)
	}
	e.blink.Reset(period)
}

// onTimeout retires the two timed states. A stale firing for any other
// state is ignored.
func (e *Engine) onTimeout() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}

	var previous, current State
	fired := false
	switch e.state {
	case StateJoined:
		previous = e.setStateLocked(StateOff)
		current = StateOff
		fired = true
	case StateError:
		previous = e.setStateLocked(StatePairing)
		current = StatePairing
		fired = true
	}
	fn := e.notify
	e.mu.Unlock()

	if fired && fn != nil {
		fn(previous, current)
	}
}

// transmit pushes one frame and logs failures instead of surfacing them;
// a blinking state repeats the frame on the next tick anyway.
func (e *Engine) transmit(c ws2812.Color) {
	if err := e.tx.Transmit(c); err != nil {
		e.logger.Warn("LED transmit failed", "device", e.tx.Device(), "error", err)
	}
}
