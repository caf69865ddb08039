// Package metrics exposes statusd's Prometheus instruments on a private
// registry so the scrape surface never leaks collectors from libraries.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/openmux/statusd/internal/events"
	"github.com/openmux/statusd/internal/version"
	"github.com/openmux/statusd/internal/ws2812"
)

// Metrics owns the registry and the instrument set.
type Metrics struct {
	registry *prometheus.Registry

	ledTransitions *prometheus.CounterVec
	ledTransmits   *prometheus.CounterVec
	buttonPresses  *prometheus.CounterVec
	networkEvents  *prometheus.CounterVec
	settingWrites  *prometheus.CounterVec
	buildInfo      *prometheus.GaugeVec

	unsubscribe []func()
}

// New creates the registry and registers all instruments.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		ledTransitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "statusd_led_state_changes_total",
				Help: "Display state transitions applied to the status LED",
			},
			[]string{"previous", "state"},
		),
		ledTransmits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "statusd_led_transmits_total",
				Help: "Frames handed to the LED transmitter by result",
			},
			[]string{"result"},
		),
		buttonPresses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "statusd_button_presses_total",
				Help: "Button releases by resulting action",
			},
			[]string{"action"},
		),
		networkEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "statusd_network_events_total",
				Help: "Network lifecycle events by action",
			},
			[]string{"action"},
		),
		settingWrites: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "statusd_setting_writes_total",
				Help: "Settings store mutations by bucket",
			},
			[]string{"bucket"},
		),
		buildInfo: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "statusd_build_info",
				Help: "Build metadata, always 1",
			},
			[]string{"version", "commit"},
		),
	}

	m.registry.MustRegister(
		m.ledTransitions,
		m.ledTransmits,
		m.buttonPresses,
		m.networkEvents,
		m.settingWrites,
		m.buildInfo,
	)
	m.buildInfo.WithLabelValues(version.Version, version.Commit).Set(1)

	return m
}

// Observe subscribes the instrument set to the event bus. Call Stop to
// detach before the bus is torn down.
func (m *Metrics) Observe(eventBus *events.Bus) {
	m.unsubscribe = append(m.unsubscribe,
		eventBus.Subscribe(func(e events.LEDStateChangedEvent) {
			m.ledTransitions.WithLabelValues(e.Previous, e.State).Inc()
		}),
		eventBus.Subscribe(func(e events.ButtonEvent) {
			m.buttonPresses.WithLabelValues(e.Action).Inc()
		}),
		eventBus.Subscribe(func(e events.NetworkEvent) {
			m.networkEvents.WithLabelValues(e.Action).Inc()
		}),
		eventBus.Subscribe(func(e events.SettingChangedEvent) {
			m.settingWrites.WithLabelValues(e.Bucket).Inc()
		}),
	)
}

// Stop detaches the instruments from the event bus.
func (m *Metrics) Stop() {
	for _, unsub := range m.unsubscribe {
		unsub()
	}
	m.unsubscribe = nil
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// WrapTransmitter returns a transmitter that counts every frame pushed
// through tx, labeled ok or error.
func (m *Metrics) WrapTransmitter(tx ws2812.Transmitter) ws2812.Transmitter {
	return &countingTransmitter{next: tx, transmits: m.ledTransmits}
}

type countingTransmitter struct {
	next      ws2812.Transmitter
	transmits *prometheus.CounterVec
}

func (t *countingTransmitter) Transmit(c ws2812.Color) error {
	if err := t.next.Transmit(c); err != nil {
		t.transmits.WithLabelValues("error").Inc()
		return err
	}
	t.transmits.WithLabelValues("ok").Inc()
	return nil
}

func (t *countingTransmitter) Device() string {
	return t.next.Device()
}

func (t *countingTransmitter) Close() error {
	return t.next.Close()
}
