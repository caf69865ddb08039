// Package api exposes statusd's HTTP surface: REST routes for the LED,
// mesh network, settings, and updates, plus SSE streams and metrics.
package api

import (
	"context"
	"encoding/base64"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"

	"github.com/openmux/statusd/internal/api/models"
	"github.com/openmux/statusd/internal/events"
	"github.com/openmux/statusd/internal/logging"
	"github.com/openmux/statusd/internal/netstack"
	"github.com/openmux/statusd/internal/settings"
	"github.com/openmux/statusd/internal/statusled"
	"github.com/openmux/statusd/internal/updater"
	"github.com/openmux/statusd/internal/version"
)

// Options wires the server to the rest of the daemon. Nil components
// skip their routes, so tests can bring up just the slice they need.
type Options struct {
	AuthUsername string
	AuthPassword string

	LEDs          *statusled.Manager
	Network       *netstack.Manager
	Settings      *settings.Store
	UpdateService updater.Service
	EventBus      *events.Bus

	// PrometheusHandler, when set, is mounted at GET /metrics without auth.
	PrometheusHandler http.Handler
}

// Server is the Huma v2 API server on Go 1.22+ native routing.
type Server struct {
	api        huma.API
	mux        *http.ServeMux
	httpServer *http.Server
	options    *Options
	eventBus   *events.Bus
	startTime  time.Time
	logger     *slog.Logger
}

// NewServer builds the mux, middleware chain, and all routes.
func NewServer(opts *Options) *Server {
	mux := http.NewServeMux()

	corsConfig := DefaultCORSConfig()
	AddCORSHandler(mux, corsConfig)

	config := huma.DefaultConfig("statusd API", version.Version)
	config.Info.Description = "Status LED, pairing, and lifecycle control for mesh nodes"
	// An empty servers list keeps OpenAPI paths relative so any host works.
	config.Servers = []*huma.Server{}

	config.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"basicAuth": {
			Type:   "http",
			Scheme: "basic",
		},
	}

	api := humago.New(mux, config)

	server := &Server{
		api:       api,
		mux:       mux,
		options:   opts,
		eventBus:  opts.EventBus,
		startTime: time.Now(),
		logger:    logging.GetLogger("api"),
	}

	// CORS first, then request logging, then auth.
	api.UseMiddleware(NewCORSMiddleware(corsConfig))
	api.UseMiddleware(HTTPLoggingMiddleware)
	if opts.AuthUsername != "" && opts.AuthPassword != "" {
		api.UseMiddleware(server.basicAuthMiddleware(opts.AuthUsername, opts.AuthPassword))
	}

	// Scrapers authenticate at the network layer, not with basic auth.
	if opts.PrometheusHandler != nil {
		mux.Handle("GET /metrics", opts.PrometheusHandler)
	}

	server.registerRoutes()

	return server
}

// basicAuthMiddleware enforces HTTP basic auth on operations that carry
// a security requirement. SSE clients may pass base64 credentials in
// the auth query parameter since EventSource cannot set headers.
func (s *Server) basicAuthMiddleware(username, password string) func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		op := ctx.Operation()
		if op != nil && len(op.Security) == 0 {
			next(ctx)
			return
		}

		authHeader := ctx.Header("Authorization")
		var credentials string

		if authHeader != "" {
			const prefix = "Basic "
			if !strings.HasPrefix(authHeader, prefix) {
				ctx.SetHeader("WWW-Authenticate", `Basic realm="statusd API"`)
				huma.WriteErr(s.api, ctx, http.StatusUnauthorized, "Invalid authentication type")
				return
			}
			decoded, err := base64.StdEncoding.DecodeString(authHeader[len(prefix):])
			if err != nil {
				ctx.SetHeader("WWW-Authenticate", `Basic realm="statusd API"`)
				huma.WriteErr(s.api, ctx, http.StatusUnauthorized, "Invalid credentials format", err)
				return
			}
			credentials = string(decoded)
		} else if queryAuth := ctx.Query("auth"); queryAuth != "" {
			decoded, err := base64.StdEncoding.DecodeString(queryAuth)
			if err != nil {
				ctx.SetHeader("WWW-Authenticate", `Basic realm="statusd API"`)
				huma.WriteErr(s.api, ctx, http.StatusUnauthorized, "Invalid credentials format", err)
				return
			}
			credentials = string(decoded)
		}

		if credentials == "" {
			ctx.SetHeader("WWW-Authenticate", `Basic realm="statusd API"`)
			huma.WriteErr(s.api, ctx, http.StatusUnauthorized, "Authentication required")
			return
		}

		parts := strings.SplitN(credentials, ":", 2)
		if len(parts) != 2 || parts[0] != username || parts[1] != password {
			ctx.SetHeader("WWW-Authenticate", `Basic realm="statusd API"`)
			huma.WriteErr(s.api, ctx, http.StatusUnauthorized, "Invalid credentials")
			return
		}

		next(ctx)
	}
}

// GetMux returns the underlying mux for additional setup.
func (s *Server) GetMux() *http.ServeMux {
	return s.mux
}

// GetAPI returns the Huma API instance.
func (s *Server) GetAPI() huma.API {
	return s.api
}

// Start serves on addr and blocks until the listener closes.
func (s *Server) Start(addr string) error {
	s.logger.Info("Starting statusd API server", "addr", addr)
	s.logger.Info("OpenAPI documentation available", "url", "http://"+addr+"/docs")

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: s.mux,
	}

	return s.httpServer.ListenAndServe()
}

// Stop shuts the server down without waiting for open connections,
// which matters because SSE clients hold theirs forever.
func (s *Server) Stop() error {
	s.logger.Info("Stopping API server")

	if s.httpServer != nil {
		return s.httpServer.Close()
	}
	return nil
}

// registerRoutes sets up all API endpoints.
func (s *Server) registerRoutes() {
	// Health check endpoint, no auth required.
	huma.Register(s.api, huma.Operation{
		OperationID: "health-check",
		Method:      http.MethodGet,
		Path:        "/api/health",
		Summary:     "Health",
		Description: "Check API health status",
		Tags:        []string{"health"},
		Security:    []map[string][]string{},
	}, func(ctx context.Context, input *struct{}) (*models.HealthResponse, error) {
		return &models.HealthResponse{
			Body: models.HealthData{
				Status:  "ok",
				Message: "API is healthy",
			},
		}, nil
	})

	// Version endpoint, no auth required.
	huma.Register(s.api, huma.Operation{
		OperationID: "get-version",
		Method:      http.MethodGet,
		Path:        "/api/version",
		Summary:     "Version",
		Description: "Get application version information",
		Tags:        []string{"system"},
		Security:    []map[string][]string{},
	}, func(ctx context.Context, input *struct{}) (*models.VersionResponse, error) {
		versionInfo := version.Get()
		return &models.VersionResponse{
			Body: models.VersionData{
				Version:   versionInfo.Version,
				Commit:    versionInfo.Commit,
				Date:      versionInfo.Date,
				GoVersion: versionInfo.GoVersion,
				Platform:  versionInfo.Platform,
			},
		}, nil
	})

	s.registerStatusRoutes()
	s.registerLEDRoutes()
	s.registerNetworkRoutes()
	s.registerSettingsRoutes()
	s.registerUpdateRoutes()
	s.registerSSERoutes()
	s.registerLogRoutes()
}

// ledSnapshot builds the LED body reused by the LED and status routes.
func (s *Server) ledSnapshot() models.LEDData {
	return models.LEDData{
		State:     s.options.LEDs.State().String(),
		Device:    s.options.LEDs.Device(),
		Available: statusled.StateNames(),
	}
}

// registerStatusRoutes registers the aggregate snapshot endpoint.
func (s *Server) registerStatusRoutes() {
	if s.options.LEDs == nil || s.options.Network == nil {
		return
	}

	huma.Register(s.api, huma.Operation{
		OperationID: "get-status",
		Method:      http.MethodGet,
		Path:        "/api/status",
		Summary:     "Node Status",
		Description: "Aggregate snapshot of the LED, mesh network, and daemon",
		Tags:        []string{"system"},
		Errors:      []int{401},
		Security:    withAuth(),
	}, func(ctx context.Context, _ *struct{}) (*models.StatusResponse, error) {
		return &models.StatusResponse{
			Body: models.StatusData{
				LED:     s.ledSnapshot(),
				Network: s.options.Network.Status(ctx),
				Version: version.Version,
				Uptime:  int64(time.Since(s.startTime).Seconds()),
			},
		}, nil
	})
}

// withAuth returns the security requirement for basic auth.
func withAuth() []map[string][]string {
	return []map[string][]string{
		{"basicAuth": {}},
	}
}
