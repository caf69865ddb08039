package api

import (
	"bufio"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/openmux/statusd/internal/events"
	"github.com/openmux/statusd/internal/logging"
)

func TestEventStreamDeliversBusEvents(t *testing.T) {
	h := newTestHarness(t, nil)

	// EventSource clients cannot set headers, so auth rides the query.
	credentials := base64.StdEncoding.EncodeToString([]byte("test:test"))
	sseURL := fmt.Sprintf("%s/api/events?auth=%s", h.ts.URL, credentials)

	resp, err := http.Get(sseURL)
	if err != nil {
		t.Fatalf("failed to connect to SSE: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(resp.Header.Get("Content-Type"), "text/event-stream") {
		t.Fatalf("expected SSE content type, got %s", resp.Header.Get("Content-Type"))
	}

	messageChan := make(chan string, 16)
	go func() {
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			line := scanner.Text()
			if strings.HasPrefix(line, "data:") {
				messageChan <- line
			}
		}
	}()

	// The stream opens with the current LED state.
	select {
	case msg := <-messageChan:
		if !strings.Contains(msg, `"state":"off"`) {
			t.Errorf("unexpected initial message: %s", msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no initial SSE message received")
	}

	h.bus.Publish(events.NetworkEvent{
		Action:    events.NetworkPairingStarted,
		Timestamp: time.Now().Format(time.RFC3339),
	})

	// The pairing event arrives both directly and as the LED repaint
	// it triggers, in either order.
	deadline := time.After(2 * time.Second)
	sawNetwork := false
	for !sawNetwork {
		select {
		case msg := <-messageChan:
			if strings.Contains(msg, events.NetworkPairingStarted) {
				sawNetwork = true
			}
		case <-deadline:
			t.Fatal("published network event never arrived on the stream")
		}
	}
}

func TestEventStreamRejectsBadQueryAuth(t *testing.T) {
	h := newTestHarness(t, nil)

	resp, err := http.Get(h.ts.URL + "/api/events?auth=%%%bogus")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for bad query auth, got %d", resp.StatusCode)
	}
}

func TestLogStreamReplaysBuffer(t *testing.T) {
	h := newTestHarness(t, nil)

	// Seed the ring buffer so the stream has history to replay.
	logging.Initialize(logging.Config{Level: "info", Format: "text"})
	logging.GetLogger("test").Info("buffered before connect")

	credentials := base64.StdEncoding.EncodeToString([]byte("test:test"))
	resp, err := http.Get(fmt.Sprintf("%s/api/logs/stream?auth=%s", h.ts.URL, credentials))
	if err != nil {
		t.Fatalf("failed to connect to log stream: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(resp.Header.Get("Content-Type"), "text/event-stream") {
		t.Fatalf("expected SSE content type, got %s", resp.Header.Get("Content-Type"))
	}

	messageChan := make(chan string, 16)
	go func() {
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			line := scanner.Text()
			if strings.HasPrefix(line, "data:") {
				messageChan <- line
			}
		}
	}()

	awaitMessage := func(want string) {
		deadline := time.After(2 * time.Second)
		for {
			select {
			case msg := <-messageChan:
				if strings.Contains(msg, want) {
					return
				}
			case <-deadline:
				t.Fatalf("message %q never arrived on the stream", want)
			}
		}
	}

	// History first, then live entries published on the bus.
	awaitMessage("buffered before connect")

	h.bus.Publish(events.LogEntryEvent{
		Timestamp: time.Now().Format(time.RFC3339Nano),
		Level:     "info",
		Module:    "led",
		Message:   "display state changed",
	})
	awaitMessage("display state changed")
}
