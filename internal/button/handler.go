// Package button polls a GPIO push button and turns hold durations into
// reset actions.
package button

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/openmux/statusd/internal/events"
)

// Feedback is the visual cue the handler requests from the LED layer
// while a press is in progress.
type Feedback int

const (
	// FeedbackRestore puts the previous display state back.
	FeedbackRestore Feedback = iota
	// FeedbackAmber is the warning cue while a reset is in reach.
	FeedbackAmber
	// FeedbackRed is the destructive cue once a reset is armed.
	FeedbackRed
)

// Default hold thresholds, matching the hardware button on the gateway
// boards.
const (
	defaultPollInterval = 100 * time.Millisecond
	defaultHoldNotice   = 1 * time.Second
	defaultNetworkReset = 3 * time.Second
	defaultFactoryReset = 10 * time.Second
)

// Config wires the handler's inputs and outputs. Zero durations fall
// back to the defaults; nil callbacks disable the matching action.
type Config struct {
	GPIO         int
	PollInterval time.Duration
	NetworkReset time.Duration
	FactoryReset time.Duration

	OnShortPress   func()
	OnNetworkReset func()
	OnFactoryReset func()
	Feedback       func(Feedback)
}

// Handler polls one push button and maps hold durations onto actions: a
// short press toggles pairing, three seconds arms a network reset, ten
// seconds a factory reset. The line is active low.
type Handler struct {
	gpio         int
	pollInterval time.Duration
	holdNotice   time.Duration
	networkReset time.Duration
	factoryReset time.Duration

	onShortPress   func()
	onNetworkReset func()
	onFactoryReset func()
	feedback       func(Feedback)

	setup       func() error
	readPressed func() (bool, error)

	eventBus *events.Bus
	logger   *slog.Logger

	stopChan chan struct{}
	doneChan chan struct{}
	started  bool
}

// New creates a handler for the configured pin. Polling does not start
// until Start.
func New(cfg Config, eventBus *events.Bus, logger *slog.Logger) *Handler {
	h := &Handler{
		gpio:           cfg.GPIO,
		pollInterval:   cfg.PollInterval,
		holdNotice:     defaultHoldNotice,
		networkReset:   cfg.NetworkReset,
		factoryReset:   cfg.FactoryReset,
		onShortPress:   cfg.OnShortPress,
		onNetworkReset: cfg.OnNetworkReset,
		onFactoryReset: cfg.OnFactoryReset,
		feedback:       cfg.Feedback,
		eventBus:       eventBus,
		logger:         logger,
		stopChan:       make(chan struct{}),
		doneChan:       make(chan struct{}),
	}
	if h.pollInterval <= 0 {
		h.pollInterval = defaultPollInterval
	}
	if h.networkReset <= 0 {
		h.networkReset = defaultNetworkReset
	}
	if h.factoryReset <= 0 {
		h.factoryReset = defaultFactoryReset
	}
	h.setup = func() error { return exportGPIO(h.gpio) }
	h.readPressed = func() (bool, error) { return readPressed(h.gpio) }
	return h
}

// Start exports the GPIO and begins polling.
func (h *Handler) Start() error {
	if h.started {
		h.logger.Warn("Button handler already running, ignoring start")
		return nil
	}

	if h.setup != nil {
		if err := h.setup(); err != nil {
			return fmt.Errorf("failed to set up button GPIO: %w", err)
		}
	}

	h.started = true
	go h.run()
	h.logger.Info("Button handler started",
		"gpio", h.gpio,
		"network_reset_ms", h.networkReset.Milliseconds(),
		"factory_reset_ms", h.factoryReset.Milliseconds())
	return nil
}

// Stop halts polling and waits for the loop to exit.
func (h *Handler) Stop() {
	if !h.started {
		return
	}
	close(h.stopChan)
	<-h.doneChan
	h.started = false
	h.logger.Info("Button handler stopped")
}

func (h *Handler) run() {
	defer close(h.doneChan)

	ticker := time.NewTicker(h.pollInterval)
	defer ticker.Stop()

	var held time.Duration
	var ticks int

	for {
		select {
		case <-h.stopChan:
			return
		case <-ticker.C:
		}

		pressed, err := h.readPressed()
		if err != nil {
			h.logger.Warn("Failed to read button GPIO", "gpio", h.gpio, "error", err)
			continue
		}

		if pressed {
			held += h.pollInterval
			ticks++
			h.holdFeedback(held, ticks)
			continue
		}

		if held > 0 {
			h.release(held)
			held = 0
			ticks = 0
		}
	}
}

// holdFeedback mirrors the escalation cues of the hardware button: rapid
// amber/red alternation once the hold registers, slower alternation in
// the network-reset window, solid red once a factory reset is armed.
func (h *Handler) holdFeedback(held time.Duration, ticks int) {
	if h.feedback == nil {
		return
	}

	switch {
	case held >= h.factoryReset:
		h.feedback(FeedbackRed)
	case held >= h.networkReset:
		if (ticks/5)%2 == 1 {
			h.feedback(FeedbackAmber)
		} else {
			h.feedback(FeedbackRed)
		}
	case held >= h.holdNotice:
		if ticks%2 == 1 {
			h.feedback(FeedbackAmber)
		} else {
			h.feedback(FeedbackRed)
		}
	}
}

// release resolves a completed press. Reset actions skip the LED restore;
// the lifecycle events they trigger repaint the LED anyway.
func (h *Handler) release(held time.Duration) {
	heldMs := held.Milliseconds()

	switch {
	case held >= h.factoryReset:
		h.logger.Info("Button held, triggering factory reset", "held_ms", heldMs)
		if h.onFactoryReset != nil {
			h.onFactoryReset()
		} else {
			h.logger.Warn("Factory reset callback not set")
		}
		h.publish(events.ButtonFactoryReset, heldMs)
	case held >= h.networkReset:
		h.logger.Info("Button held, triggering network reset", "held_ms", heldMs)
		if h.onNetworkReset != nil {
			h.onNetworkReset()
		} else {
			h.logger.Warn("Network reset callback not set")
		}
		h.publish(events.ButtonNetworkReset, heldMs)
	case held >= h.holdNotice:
		if h.feedback != nil {
			h.feedback(FeedbackRestore)
		}
	default:
		h.logger.Debug("Button short press", "held_ms", heldMs)
		if h.onShortPress != nil {
			h.onShortPress()
		}
		h.publish(events.ButtonShortPress, heldMs)
	}
}

func (h *Handler) publish(action string, heldMs int64) {
	if h.eventBus == nil {
		return
	}
	h.eventBus.Publish(events.ButtonEvent{
		Action:    action,
		HeldMs:    heldMs,
		Timestamp: time.Now().Format(time.RFC3339),
	})
}
