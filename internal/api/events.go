package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/sse"

	"github.com/openmux/statusd/internal/events"
)

// registerSSERoutes registers the native Huma SSE endpoint.
func (s *Server) registerSSERoutes() {
	if s.eventBus == nil {
		return
	}

	sse.Register(s.api, huma.Operation{
		OperationID: "events-stream",
		Method:      http.MethodGet,
		Path:        "/api/events",
		Summary:     "Server-Sent Events Stream",
		Description: "Real-time stream of LED, button, network, settings, and update events",
		Tags:        []string{"events"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, map[string]any{
		"led-state":       events.LEDStateChangedEvent{},
		"button":          events.ButtonEvent{},
		"network":         events.NetworkEvent{},
		"setting-changed": events.SettingChangedEvent{},
		"update":          events.UpdateEvent{},
	}, func(ctx context.Context, _ *struct{}, send sse.Sender) {
		eventCh := make(chan any, 10)

		unsubscribers := []func(){
			events.SubscribeToChannel[events.LEDStateChangedEvent](s.eventBus, eventCh),
			events.SubscribeToChannel[events.ButtonEvent](s.eventBus, eventCh),
			events.SubscribeToChannel[events.NetworkEvent](s.eventBus, eventCh),
			events.SubscribeToChannel[events.SettingChangedEvent](s.eventBus, eventCh),
			events.SubscribeToChannel[events.UpdateEvent](s.eventBus, eventCh),
		}
		defer func() {
			for _, unsub := range unsubscribers {
				unsub()
			}
		}()

		// Open with the current LED state so clients can paint
		// immediately instead of waiting for the next transition.
		if s.options.LEDs != nil {
			current := s.options.LEDs.State().String()
			if err := send.Data(events.LEDStateChangedEvent{
				State:     current,
				Previous:  current,
				Timestamp: time.Now().Format(time.RFC3339),
			}); err != nil {
				return
			}
		}

		for {
			select {
			case <-ctx.Done():
				return
			case event := <-eventCh:
				if err := send.Data(event); err != nil {
					return
				}
			}
		}
	})
}
