package api

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/openmux/statusd/internal/events"
	"github.com/openmux/statusd/internal/metrics"
	"github.com/openmux/statusd/internal/netstack"
	"github.com/openmux/statusd/internal/settings"
	"github.com/openmux/statusd/internal/statusled"
	"github.com/openmux/statusd/internal/updater"
	"github.com/openmux/statusd/internal/ws2812"
)

type fakeTransmitter struct{}

func (f *fakeTransmitter) Transmit(c ws2812.Color) error { return nil }
func (f *fakeTransmitter) Device() string                { return "/dev/spidev0.0" }
func (f *fakeTransmitter) Close() error                  { return nil }

type fakeUnits struct{}

func (f *fakeUnits) StartUnit(_ context.Context, _ string) error   { return nil }
func (f *fakeUnits) StopUnit(_ context.Context, _ string) error    { return nil }
func (f *fakeUnits) RestartUnit(_ context.Context, _ string) error { return nil }
func (f *fakeUnits) UnitState(_ context.Context, _ string) (string, error) {
	return "active", nil
}

// stubUpdateService satisfies updater.Service without touching GitHub.
type stubUpdateService struct {
	applyErr error
}

func (s *stubUpdateService) CheckForUpdate(_ context.Context) (*updater.UpdateInfo, error) {
	return &updater.UpdateInfo{
		CurrentVersion:  "1.0.0",
		LatestVersion:   "1.0.0",
		UpdateAvailable: false,
	}, nil
}

func (s *stubUpdateService) ApplyUpdate(_ context.Context) error   { return s.applyErr }
func (s *stubUpdateService) ApplyDevBuild(_ context.Context) error { return s.applyErr }
func (s *stubUpdateService) Rollback(_ context.Context) error      { return s.applyErr }
func (s *stubUpdateService) Restart(_ context.Context) error       { return nil }
func (s *stubUpdateService) IsEnabled() bool                       { return true }
func (s *stubUpdateService) DisabledReason() string                { return "" }

func (s *stubUpdateService) GetStatus(_ context.Context) *updater.Status {
	return &updater.Status{
		State:          updater.StateIdle,
		CurrentVersion: "1.0.0",
	}
}

type testHarness struct {
	server *Server
	ts     *httptest.Server
	bus    *events.Bus
	leds   *statusled.Manager
}

func newTestHarness(t *testing.T, update updater.Service) *testHarness {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	bus := events.New()

	engine := statusled.New(&fakeTransmitter{}, logger)
	leds := statusled.NewManager(engine, bus, logger)
	leds.Start()
	t.Cleanup(func() { _ = leds.Stop() })

	store, err := settings.Open(filepath.Join(t.TempDir(), "settings.db"), bus, logger)
	if err != nil {
		t.Fatalf("failed to open settings store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	network := netstack.NewManager(netstack.Config{
		Unit:          "meshd.service",
		PairingWindow: 10 * time.Second,
	}, &fakeUnits{}, store, bus, logger)
	t.Cleanup(network.Close)

	server := NewServer(&Options{
		AuthUsername:  "test",
		AuthPassword:  "test",
		LEDs:          leds,
		Network:       network,
		Settings:      store,
		UpdateService: update,
		EventBus:      bus,
	})

	ts := httptest.NewServer(server.mux)
	t.Cleanup(ts.Close)

	return &testHarness{server: server, ts: ts, bus: bus, leds: leds}
}

// do runs one authenticated request and returns status plus body.
func (h *testHarness) do(t *testing.T, method, path, body string) (int, string) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, h.ts.URL+path, reader)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	req.SetBasicAuth("test", "test")
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}
	return resp.StatusCode, string(data)
}

func TestHealthNeedsNoAuth(t *testing.T) {
	h := newTestHarness(t, nil)

	resp, err := http.Get(h.ts.URL + "/api/health")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), `"status":"ok"`) {
		t.Errorf("unexpected health body: %s", body)
	}
}

func TestVersionNeedsNoAuth(t *testing.T) {
	h := newTestHarness(t, nil)

	resp, err := http.Get(h.ts.URL + "/api/version")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), `"version"`) {
		t.Errorf("unexpected version body: %s", body)
	}
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	h := newTestHarness(t, nil)

	resp, err := http.Get(h.ts.URL + "/api/led")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 without credentials, got %d", resp.StatusCode)
	}
	if got := resp.Header.Get("WWW-Authenticate"); !strings.Contains(got, "statusd API") {
		t.Errorf("expected challenge header, got %q", got)
	}

	status, _ := h.do(t, http.MethodGet, "/api/led", "")
	if status != http.StatusOK {
		t.Errorf("expected 200 with credentials, got %d", status)
	}
}

func TestWrongPasswordRejected(t *testing.T) {
	h := newTestHarness(t, nil)

	req, _ := http.NewRequest(http.MethodGet, h.ts.URL+"/api/led", nil)
	req.SetBasicAuth("test", "wrong")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for bad password, got %d", resp.StatusCode)
	}
}

func TestLEDGetAndSet(t *testing.T) {
	h := newTestHarness(t, nil)

	status, body := h.do(t, http.MethodGet, "/api/led", "")
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", status, body)
	}
	if !strings.Contains(body, `"state":"off"`) {
		t.Errorf("expected off state initially, got %s", body)
	}
	if !strings.Contains(body, `"device":"/dev/spidev0.0"`) {
		t.Errorf("expected device in body, got %s", body)
	}

	status, body = h.do(t, http.MethodPut, "/api/led", `{"state":"pairing"}`)
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", status, body)
	}
	if !strings.Contains(body, `"state":"pairing"`) {
		t.Errorf("expected pairing after set, got %s", body)
	}

	status, body = h.do(t, http.MethodPut, "/api/led", `{"state":"disco"}`)
	if status != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown state, got %d: %s", status, body)
	}
}

func TestNetworkPairingFlow(t *testing.T) {
	h := newTestHarness(t, nil)

	status, body := h.do(t, http.MethodGet, "/api/network", "")
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", status, body)
	}
	if !strings.Contains(body, `"joined":false`) {
		t.Errorf("expected fresh node, got %s", body)
	}

	status, body = h.do(t, http.MethodPost, "/api/network/pairing", "")
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", status, body)
	}
	if !strings.Contains(body, `"pairing":true`) {
		t.Errorf("expected open pairing window, got %s", body)
	}

	// The pairing event repaints the LED.
	deadline := time.Now().Add(2 * time.Second)
	for h.leds.State() != statusled.StatePairing {
		if time.Now().After(deadline) {
			t.Fatalf("LED never reached pairing, state %s", h.leds.State())
		}
		time.Sleep(5 * time.Millisecond)
	}

	status, body = h.do(t, http.MethodPost, "/api/network/report", `{"event":"joined"}`)
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", status, body)
	}
	if !strings.Contains(body, `"joined":true`) || !strings.Contains(body, `"pairing":false`) {
		t.Errorf("expected joined node, got %s", body)
	}

	status, body = h.do(t, http.MethodDelete, "/api/network/pairing", "")
	if status != http.StatusOK {
		t.Errorf("expected 200 closing idle window, got %d: %s", status, body)
	}

	status, body = h.do(t, http.MethodPost, "/api/network/report", `{"event":"restarted"}`)
	if status != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown event, got %d: %s", status, body)
	}
}

func TestNetworkLeaveAndReset(t *testing.T) {
	h := newTestHarness(t, nil)

	status, body := h.do(t, http.MethodPost, "/api/network/leave", "")
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", status, body)
	}
	if !strings.Contains(body, "left network") {
		t.Errorf("unexpected leave body: %s", body)
	}

	status, body = h.do(t, http.MethodPost, "/api/network/reset", "")
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", status, body)
	}
	if !strings.Contains(body, "factory reset complete") {
		t.Errorf("unexpected reset body: %s", body)
	}
}

func TestSettingsCRUDOverHTTP(t *testing.T) {
	h := newTestHarness(t, nil)

	status, body := h.do(t, http.MethodPut, "/api/settings/network/channel", "15")
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", status, body)
	}
	if !strings.Contains(body, `"value":15`) {
		t.Errorf("expected stored value echoed, got %s", body)
	}

	status, body = h.do(t, http.MethodGet, "/api/settings/network/channel", "")
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", status, body)
	}
	if !strings.Contains(body, `"value":15`) {
		t.Errorf("expected value 15, got %s", body)
	}

	// Objects and other non-scalar documents round-trip unchanged.
	status, body = h.do(t, http.MethodPut, "/api/settings/network/pan", `{"id":42,"extended":true}`)
	if status != http.StatusOK {
		t.Fatalf("expected 200 storing object, got %d: %s", status, body)
	}
	status, body = h.do(t, http.MethodGet, "/api/settings/network/pan", "")
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", status, body)
	}
	if !strings.Contains(body, `"extended":true`) || !strings.Contains(body, `"id":42`) {
		t.Errorf("expected object value echoed, got %s", body)
	}

	status, body = h.do(t, http.MethodGet, "/api/settings", "")
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", status, body)
	}
	if !strings.Contains(body, `"network"`) {
		t.Errorf("expected network bucket listed, got %s", body)
	}

	status, body = h.do(t, http.MethodGet, "/api/settings/network", "")
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", status, body)
	}
	if !strings.Contains(body, `"channel":15`) {
		t.Errorf("expected bucket items, got %s", body)
	}

	status, _ = h.do(t, http.MethodDelete, "/api/settings/network/channel", "")
	if status != http.StatusOK {
		t.Fatalf("expected 200 deleting setting, got %d", status)
	}

	status, _ = h.do(t, http.MethodGet, "/api/settings/network/channel", "")
	if status != http.StatusNotFound {
		t.Errorf("expected 404 after delete, got %d", status)
	}

	status, _ = h.do(t, http.MethodDelete, "/api/settings/network/channel", "")
	if status != http.StatusNotFound {
		t.Errorf("expected 404 deleting missing setting, got %d", status)
	}

	status, body = h.do(t, http.MethodPut, "/api/settings/network/broken", "{not json")
	if status != http.StatusBadRequest {
		t.Errorf("expected 400 for invalid JSON, got %d: %s", status, body)
	}
}

func TestStatusAggregatesComponents(t *testing.T) {
	h := newTestHarness(t, nil)

	status, body := h.do(t, http.MethodGet, "/api/status", "")
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", status, body)
	}
	for _, want := range []string{`"led"`, `"network"`, `"version"`, `"uptime_s"`, `"unit_state":"active"`} {
		if !strings.Contains(body, want) {
			t.Errorf("status body missing %s: %s", want, body)
		}
	}
}

func TestUpdateRoutes(t *testing.T) {
	h := newTestHarness(t, &stubUpdateService{
		applyErr: &updater.Error{Code: updater.ErrCodeNoUpdate, Message: "no update available"},
	})

	status, body := h.do(t, http.MethodGet, "/api/update/status", "")
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", status, body)
	}
	if !strings.Contains(body, `"state":"idle"`) {
		t.Errorf("expected idle state, got %s", body)
	}

	status, body = h.do(t, http.MethodGet, "/api/update/check", "")
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", status, body)
	}
	if !strings.Contains(body, `"update_available":false`) {
		t.Errorf("expected no update, got %s", body)
	}

	status, _ = h.do(t, http.MethodPost, "/api/update/apply", "")
	if status != http.StatusBadRequest {
		t.Errorf("expected 400 mapping NO_UPDATE, got %d", status)
	}
}

func TestMetricsEndpointNeedsNoAuth(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	bus := events.New()

	engine := statusled.New(&fakeTransmitter{}, logger)
	leds := statusled.NewManager(engine, bus, logger)
	leds.Start()
	t.Cleanup(func() { _ = leds.Stop() })

	m := metrics.New()
	server := NewServer(&Options{
		AuthUsername:      "test",
		AuthPassword:      "test",
		LEDs:              leds,
		EventBus:          bus,
		PrometheusHandler: m.Handler(),
	})
	ts := httptest.NewServer(server.mux)
	t.Cleanup(ts.Close)

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200 without auth, got %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "statusd_build_info") {
		t.Errorf("expected build info metric, got %s", body)
	}
}

func TestCORSPreflight(t *testing.T) {
	h := newTestHarness(t, nil)

	req, _ := http.NewRequest(http.MethodOptions, h.ts.URL+"/api/led", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("expected 204 for preflight, got %d", resp.StatusCode)
	}
	if resp.Header.Get("Access-Control-Allow-Origin") != "*" {
		t.Errorf("expected wildcard origin, got %q", resp.Header.Get("Access-Control-Allow-Origin"))
	}
}
