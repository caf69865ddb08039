package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/openmux/statusd/internal/api/models"
	"github.com/openmux/statusd/internal/statusled"
)

// registerLEDRoutes registers status LED endpoints.
func (s *Server) registerLEDRoutes() {
	if s.options.LEDs == nil {
		s.logger.Debug("LED manager not available, skipping LED routes")
		return
	}

	huma.Register(s.api, huma.Operation{
		OperationID: "get-led",
		Method:      http.MethodGet,
		Path:        "/api/led",
		Summary:     "Get LED State",
		Description: "Get the display state currently shown on the status LED",
		Tags:        []string{"led"},
		Errors:      []int{401},
		Security:    withAuth(),
	}, func(ctx context.Context, _ *struct{}) (*models.LEDResponse, error) {
		return &models.LEDResponse{Body: s.ledSnapshot()}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "set-led",
		Method:      http.MethodPut,
		Path:        "/api/led",
		Summary:     "Set LED State",
		Description: "Force a display state on the status LED. Network lifecycle events keep repainting it afterwards.",
		Tags:        []string{"led"},
		Errors:      []int{400, 401},
		Security:    withAuth(),
	}, func(ctx context.Context, input *models.LEDSetRequest) (*models.LEDResponse, error) {
		state, ok := statusled.ParseState(input.Body.State)
		if !ok {
			return nil, huma.Error400BadRequest("Unknown LED state: " + input.Body.State)
		}

		s.options.LEDs.Set(state)
		return &models.LEDResponse{Body: s.ledSnapshot()}, nil
	})
}
