package metrics

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/openmux/statusd/internal/events"
	"github.com/openmux/statusd/internal/ws2812"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()

	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, req)

	if w.Code != 200 {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	return w.Body.String()
}

// waitForSample polls the scrape output until the wanted line shows up.
// Bus delivery is asynchronous, so a single scrape can race the handler.
func waitForSample(t *testing.T, m *Metrics, want string) string {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for {
		body := scrape(t, m)
		if strings.Contains(body, want) {
			return body
		}
		if time.Now().After(deadline) {
			t.Fatalf("scrape never contained %q, last body:\n%s", want, body)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHandlerServesBuildInfo(t *testing.T) {
	m := New()

	body := scrape(t, m)

	if !strings.Contains(body, "# HELP statusd_build_info") {
		t.Error("missing HELP line for statusd_build_info")
	}
	if !strings.Contains(body, "# TYPE statusd_build_info gauge") {
		t.Error("missing TYPE line for statusd_build_info")
	}
	if !strings.Contains(body, `statusd_build_info{commit="unknown",version="dev"} 1`) {
		t.Errorf("missing build info sample, body:\n%s", body)
	}
}

func TestObserveCountsBusEvents(t *testing.T) {
	m := New()
	bus := events.New()
	m.Observe(bus)
	defer m.Stop()

	bus.Publish(events.LEDStateChangedEvent{Previous: "off", State: "pairing"})
	bus.Publish(events.ButtonEvent{Action: events.ButtonShortPress})
	bus.Publish(events.NetworkEvent{Action: events.NetworkJoined})
	bus.Publish(events.SettingChangedEvent{Bucket: "network", Key: "channel"})

	waitForSample(t, m, `statusd_led_state_changes_total{previous="off",state="pairing"} 1`)
	waitForSample(t, m, `statusd_button_presses_total{action="short_press"} 1`)
	waitForSample(t, m, `statusd_network_events_total{action="joined"} 1`)
	waitForSample(t, m, `statusd_setting_writes_total{bucket="network"} 1`)
}

func TestStopDetachesFromBus(t *testing.T) {
	m := New()
	bus := events.New()
	m.Observe(bus)

	bus.Publish(events.ButtonEvent{Action: events.ButtonShortPress})
	waitForSample(t, m, `statusd_button_presses_total{action="short_press"} 1`)

	m.Stop()
	bus.Publish(events.ButtonEvent{Action: events.ButtonShortPress})
	time.Sleep(50 * time.Millisecond)

	body := scrape(t, m)
	if !strings.Contains(body, `statusd_button_presses_total{action="short_press"} 1`) {
		t.Errorf("counter moved after Stop, body:\n%s", body)
	}
}

type stubTransmitter struct {
	err    error
	frames int
	closed bool
}

func (s *stubTransmitter) Transmit(c ws2812.Color) error {
	if s.err != nil {
		return s.err
	}
	s.frames++
	return nil
}

func (s *stubTransmitter) Device() string { return "/dev/spidev0.0" }

func (s *stubTransmitter) Close() error {
	s.closed = true
	return nil
}

func TestWrapTransmitterCountsResults(t *testing.T) {
	m := New()
	stub := &stubTransmitter{}
	tx := m.WrapTransmitter(stub)

	if err := tx.Transmit(ws2812.Color{G: 60}); err != nil {
		t.Fatalf("transmit failed: %v", err)
	}
	stub.err = errors.New("spi write failed")
	if err := tx.Transmit(ws2812.Color{R: 60}); err == nil {
		t.Fatal("expected transmit error to pass through")
	}

	body := scrape(t, m)
	if !strings.Contains(body, `statusd_led_transmits_total{result="ok"} 1`) {
		t.Errorf("missing ok sample, body:\n%s", body)
	}
	if !strings.Contains(body, `statusd_led_transmits_total{result="error"} 1`) {
		t.Errorf("missing error sample, body:\n%s", body)
	}

	if got := tx.Device(); got != "/dev/spidev0.0" {
		t.Errorf("expected device passthrough, got %q", got)
	}
	if err := tx.Close(); err != nil || !stub.closed {
		t.Errorf("expected close passthrough, err=%v closed=%v", err, stub.closed)
	}
}
