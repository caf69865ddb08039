package updater

import (
	"context"
	"time"
)

// State names one phase of the update lifecycle.
type State string

// Update lifecycle phases.
const (
	StateIdle        State = "idle"
	StateChecking    State = "checking"
	StateAvailable   State = "available"
	StateDownloading State = "downloading"
	StateApplying    State = "applying"
	StateRestarting  State = "restarting"
	StateError       State = "error"
	StateRolledBack  State = "rolled_back"
)

// Service is the update surface the API and CLI drive.
type Service interface {
	// CheckForUpdate queries the release feed without downloading anything.
	CheckForUpdate(ctx context.Context) (*UpdateInfo, error)

	// ApplyUpdate downloads the newest release, swaps the binary, and
	// triggers a restart.
	ApplyUpdate(ctx context.Context) error

	// ApplyDevBuild installs the rolling dev release regardless of version.
	ApplyDevBuild(ctx context.Context) error

	// Rollback restores the previously backed up binary.
	Rollback(ctx context.Context) error

	// GetStatus reports the current lifecycle phase and version info.
	GetStatus(ctx context.Context) *Status

	// Restart asks systemd for a restart without touching the binary.
	Restart(ctx context.Context) error

	// IsEnabled reports whether self-update is operational. False when
	// the binary's directory was not writable at startup.
	IsEnabled() bool

	// DisabledReason explains a false IsEnabled, empty otherwise.
	DisabledReason() string
}

// UpdateInfo describes the newest known release.
type UpdateInfo struct {
	CurrentVersion  string    `json:"current_version"`
	LatestVersion   string    `json:"latest_version"`
	ReleaseNotes    string    `json:"release_notes"`
	ReleaseURL      string    `json:"release_url"`
	PublishedAt     time.Time `json:"published_at"`
	AssetSize       int       `json:"asset_size"`
	UpdateAvailable bool      `json:"update_available"`
}

// Status is a snapshot of the updater's state machine.
type Status struct {
	State           State      `json:"state"`
	CurrentVersion  string     `json:"current_version"`
	TargetVersion   string     `json:"target_version,omitempty"`
	Error           string     `json:"error,omitempty"`
	LastChecked     *time.Time `json:"last_checked,omitempty"`
	BackupAvailable bool       `json:"backup_available"`
	BackupVersion   string     `json:"backup_version,omitempty"`
}

// Options configures the updater service.
type Options struct {
	Repository string // GitHub repo slug, e.g. "openmux/statusd"
	Prerelease bool   // Include prereleases when checking
}
