package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/openmux/statusd/internal/api/models"
)

// registerNetworkRoutes registers mesh network lifecycle endpoints.
func (s *Server) registerNetworkRoutes() {
	if s.options.Network == nil {
		s.logger.Debug("Network manager not available, skipping network routes")
		return
	}

	network := s.options.Network

	huma.Register(s.api, huma.Operation{
		OperationID: "get-network",
		Method:      http.MethodGet,
		Path:        "/api/network",
		Summary:     "Network Status",
		Description: "Get mesh membership, pairing window, and daemon unit state",
		Tags:        []string{"network"},
		Errors:      []int{401},
		Security:    withAuth(),
	}, func(ctx context.Context, _ *struct{}) (*models.NetworkResponse, error) {
		return &models.NetworkResponse{Body: network.Status(ctx)}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "start-pairing",
		Method:      http.MethodPost,
		Path:        "/api/network/pairing",
		Summary:     "Open Pairing Window",
		Description: "Start the mesh daemon if needed and open a pairing window",
		Tags:        []string{"network"},
		Errors:      []int{401, 500},
		Security:    withAuth(),
	}, func(ctx context.Context, _ *struct{}) (*models.NetworkResponse, error) {
		if err := network.StartPairing(ctx); err != nil {
			return nil, huma.Error500InternalServerError("Failed to open pairing window", err)
		}
		return &models.NetworkResponse{Body: network.Status(ctx)}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "stop-pairing",
		Method:      http.MethodDelete,
		Path:        "/api/network/pairing",
		Summary:     "Close Pairing Window",
		Description: "Close an open pairing window without waiting for the timeout",
		Tags:        []string{"network"},
		Errors:      []int{401},
		Security:    withAuth(),
	}, func(ctx context.Context, _ *struct{}) (*models.NetworkResponse, error) {
		network.StopPairing()
		return &models.NetworkResponse{Body: network.Status(ctx)}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "leave-network",
		Method:      http.MethodPost,
		Path:        "/api/network/leave",
		Summary:     "Leave Network",
		Description: "Forget mesh membership and restart the mesh daemon",
		Tags:        []string{"network"},
		Errors:      []int{401, 500},
		Security:    withAuth(),
	}, func(ctx context.Context, _ *struct{}) (*models.ActionResponse, error) {
		if err := network.Leave(ctx); err != nil {
			return nil, huma.Error500InternalServerError("Failed to leave network", err)
		}
		return &models.ActionResponse{
			Body: models.ActionData{Message: "left network"},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "factory-reset-network",
		Method:      http.MethodPost,
		Path:        "/api/network/reset",
		Summary:     "Factory Reset",
		Description: "Wipe all network settings and restart the mesh daemon",
		Tags:        []string{"network"},
		Errors:      []int{401, 500},
		Security:    withAuth(),
	}, func(ctx context.Context, _ *struct{}) (*models.ActionResponse, error) {
		if err := network.FactoryReset(ctx); err != nil {
			return nil, huma.Error500InternalServerError("Failed to factory reset", err)
		}
		return &models.ActionResponse{
			Body: models.ActionData{Message: "factory reset complete"},
		}, nil
	})

	// The mesh daemon reports join results here instead of linking
	// against the bus.
	huma.Register(s.api, huma.Operation{
		OperationID: "report-network-event",
		Method:      http.MethodPost,
		Path:        "/api/network/report",
		Summary:     "Report Network Event",
		Description: "Let the mesh daemon report a join or an error",
		Tags:        []string{"network"},
		Errors:      []int{400, 401, 500},
		Security:    withAuth(),
	}, func(ctx context.Context, input *models.NetworkReportRequest) (*models.NetworkResponse, error) {
		switch input.Body.Event {
		case "joined":
			if err := network.ReportJoined(); err != nil {
				return nil, huma.Error500InternalServerError("Failed to record join", err)
			}
		case "error":
			network.ReportError(input.Body.Detail)
		default:
			return nil, huma.Error400BadRequest("Unknown network event: " + input.Body.Event)
		}
		return &models.NetworkResponse{Body: network.Status(ctx)}, nil
	})
}
