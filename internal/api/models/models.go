// Package models holds the request and response bodies shared across
// API route files.
package models

import "github.com/openmux/statusd/internal/netstack"

// Health check models.
type HealthData struct {
	Status  string `json:"status" example:"ok" doc:"Service status"`
	Message string `json:"message" example:"API is healthy" doc:"Status message"`
}

type HealthResponse struct {
	Body HealthData
}

// Version models.
type VersionData struct {
	Version   string `json:"version" example:"dev" doc:"Application version"`
	Commit    string `json:"commit" example:"abc1234" doc:"Git commit SHA"`
	Date      string `json:"date" example:"2026-08-27T10:00:00Z" doc:"Build timestamp"`
	GoVersion string `json:"go_version" example:"go1.24.0" doc:"Go compiler version"`
	Platform  string `json:"platform" example:"linux/arm64" doc:"Target platform"`
}

type VersionResponse struct {
	Body VersionData
}

// LED models.
type LEDData struct {
	State     string   `json:"state" example:"pairing" doc:"State currently shown on the LED"`
	Device    string   `json:"device" example:"/dev/spidev0.0" doc:"Output device driving the LED"`
	Available []string `json:"available" doc:"Display states the LED understands"`
}

type LEDResponse struct {
	Body LEDData
}

type LEDSetRequest struct {
	Body struct {
		State string `json:"state" example:"pairing" doc:"Display state to show: off, not_joined, pairing, joined, error"`
	}
}

// Network models.
type NetworkResponse struct {
	Body netstack.Status
}

type NetworkReportRequest struct {
	Body struct {
		Event  string `json:"event" example:"joined" doc:"Outcome reported by the mesh daemon: joined or error"`
		Detail string `json:"detail,omitempty" example:"channel scan failed" doc:"Error detail when the event is error"`
	}
}

// Aggregate status models.
type StatusData struct {
	LED     LEDData         `json:"led" doc:"Status LED snapshot"`
	Network netstack.Status `json:"network" doc:"Mesh network snapshot"`
	Version string          `json:"version" example:"1.2.0" doc:"Running version"`
	Uptime  int64           `json:"uptime_s" example:"86400" doc:"Seconds since the daemon started"`
}

type StatusResponse struct {
	Body StatusData
}

// Settings models.
type SettingsBucketsData struct {
	Buckets []string `json:"buckets" doc:"Buckets holding at least one setting"`
}

type SettingsBucketsResponse struct {
	Body SettingsBucketsData
}

type SettingsItemsData struct {
	Bucket string         `json:"bucket" example:"network" doc:"Bucket name"`
	Items  map[string]any `json:"items" doc:"All settings in the bucket"`
}

type SettingsItemsResponse struct {
	Body SettingsItemsData
}

type SettingValueData struct {
	Bucket string `json:"bucket" example:"network" doc:"Bucket name"`
	Key    string `json:"key" example:"channel" doc:"Setting key"`
	Value  any    `json:"value" doc:"Stored JSON value"`
}

type SettingValueResponse struct {
	Body SettingValueData
}

// ActionData acknowledges a state-changing request.
type ActionData struct {
	Message string `json:"message" example:"pairing window opened" doc:"What happened"`
}

type ActionResponse struct {
	Body ActionData
}
