package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"

	"github.com/openmux/statusd/cmd"
	"github.com/openmux/statusd/internal/api"
	"github.com/openmux/statusd/internal/button"
	"github.com/openmux/statusd/internal/config"
	"github.com/openmux/statusd/internal/events"
	"github.com/openmux/statusd/internal/logging"
	"github.com/openmux/statusd/internal/metrics"
	"github.com/openmux/statusd/internal/netstack"
	"github.com/openmux/statusd/internal/settings"
	"github.com/openmux/statusd/internal/statusled"
	"github.com/openmux/statusd/internal/systemd"
	"github.com/openmux/statusd/internal/updater"
	"github.com/openmux/statusd/internal/ws2812"
)

// unitJobTimeout bounds systemd job round-trips started from button
// presses and startup recovery.
const unitJobTimeout = 15 * time.Second

// Options for the CLI - flat structure with toml mapping.
type Options struct {
	Config string `help:"Path to configuration file" short:"c" default:"/etc/statusd/config.toml"`

	// Server settings
	Port string `help:"Address to listen on" short:"p" default:":8800" toml:"server.port" env:"SERVER_PORT"`

	// Auth settings
	AuthUsername string `help:"Basic auth username (empty disables auth)" toml:"auth.username" env:"AUTH_USERNAME"`
	AuthPassword string `help:"Basic auth password" toml:"auth.password" env:"AUTH_PASSWORD"`

	// LED settings
	LEDDevice string `help:"Status LED SPI device (auto, none, or a spidev path)" default:"auto" toml:"led.device" env:"LED_DEVICE"`

	// Button settings
	ButtonGPIO int `help:"GPIO line of the pairing button (0 disables)" default:"4" toml:"button.gpio" env:"BUTTON_GPIO"`

	// Settings store
	DBPath string `help:"Settings database path" default:"/var/lib/statusd/settings.db" toml:"settings.db_path" env:"DB_PATH"`

	// Network settings
	NetworkUnit           string `help:"systemd unit of the mesh daemon" default:"meshd.service" toml:"network.unit" env:"NETWORK_UNIT"`
	NetworkPairingWindowS int    `help:"Pairing window length in seconds" default:"180" toml:"network.pairing_window_s" env:"NETWORK_PAIRING_WINDOW_S"`

	// Update settings
	UpdateRepo       string `help:"GitHub repository for self-updates" default:"openmux/statusd" toml:"update.repo" env:"UPDATE_REPO"`
	UpdatePrerelease bool   `help:"Follow prerelease updates" default:"false" toml:"update.prerelease" env:"UPDATE_PRERELEASE"`

	// Logging settings
	LoggingLevel    string `help:"Global logging level (debug, info, warn, error)" default:"info" toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat   string `help:"Logging format (text, json)" default:"text" toml:"logging.format" env:"LOGGING_FORMAT"`
	LoggingLED      string `help:"Status LED logging level" default:"info" toml:"logging.led" env:"LOGGING_LED"`
	LoggingButton   string `help:"Button logging level" default:"info" toml:"logging.button" env:"LOGGING_BUTTON"`
	LoggingNetwork  string `help:"Network logging level" default:"info" toml:"logging.network" env:"LOGGING_NETWORK"`
	LoggingSettings string `help:"Settings store logging level" default:"info" toml:"logging.settings" env:"LOGGING_SETTINGS"`
	LoggingAPI      string `help:"API logging level" default:"info" toml:"logging.api" env:"LOGGING_API"`
	LoggingUpdater  string `help:"Updater logging level" default:"info" toml:"logging.updater" env:"LOGGING_UPDATER"`
}

func main() {
	// Declared before New so the closure can reach the cobra root for
	// flag-precedence checks; the closure only runs inside cli.Run().
	var cli humacli.CLI
	cli = humacli.New(func(hooks humacli.Hooks, opts *Options) {
		if loadErr := config.Load(opts, cli.Root()); loadErr != nil {
			slog.Warn("Failed to load config", "error", loadErr)
		}

		logging.Initialize(logging.Config{
			Level:  opts.LoggingLevel,
			Format: opts.LoggingFormat,
			Modules: map[string]string{
				"led":      opts.LoggingLED,
				"button":   opts.LoggingButton,
				"network":  opts.LoggingNetwork,
				"settings": opts.LoggingSettings,
				"api":      opts.LoggingAPI,
				"updater":  opts.LoggingUpdater,
			},
		})

		logger := logging.GetLogger("main")

		eventBus := events.New()

		// Log lines ride the bus so the SSE stream can pick them up after
		// its ring-buffer replay; Seq lets clients join the two without
		// duplicates.
		logging.SetLogCallback(func(entry logging.LogEntry) {
			eventBus.Publish(events.LogEntryEvent{
				Seq:        entry.Seq,
				Timestamp:  entry.Timestamp.Format(time.RFC3339Nano),
				Level:      entry.Level,
				Module:     entry.Module,
				Message:    entry.Message,
				Attributes: entry.Attributes,
			})
		})

		instruments := metrics.New()
		instruments.Observe(eventBus)

		// The LED is this device's only face. A node that cannot drive it
		// is undiagnosable in the field, so startup aborts instead of
		// limping on.
		ledLogger := logging.GetLogger("led")
		tx, err := ws2812.New(opts.LEDDevice, ledLogger)
		if err != nil {
			logger.Error("Failed to open status LED device", "device", opts.LEDDevice, "error", err)
			os.Exit(1)
		}
		engine := statusled.New(instruments.WrapTransmitter(tx), ledLogger)
		leds := statusled.NewManager(engine, eventBus, ledLogger)

		if mkdirErr := os.MkdirAll(filepath.Dir(opts.DBPath), 0o755); mkdirErr != nil {
			logger.Error("Failed to create settings directory", "path", filepath.Dir(opts.DBPath), "error", mkdirErr)
			os.Exit(1)
		}
		store, err := settings.Open(opts.DBPath, eventBus, logging.GetLogger("settings"))
		if err != nil {
			logger.Error("Failed to open settings store", "path", opts.DBPath, "error", err)
			os.Exit(1)
		}

		// Without a system bus the LED and settings still work; unit
		// control degrades to reported errors.
		var units netstack.UnitManager
		sysd, sysdErr := systemd.NewManager(context.Background())
		if sysdErr != nil {
			logger.Warn("System bus unreachable, mesh unit control disabled", "error", sysdErr)
			units = systemd.Unavailable{Err: sysdErr}
		} else {
			units = sysd
		}

		network := netstack.NewManager(netstack.Config{
			Unit:          opts.NetworkUnit,
			PairingWindow: time.Duration(opts.NetworkPairingWindowS) * time.Second,
		}, units, store, eventBus, logging.GetLogger("network"))

		updateService, updErr := updater.NewService(&updater.Options{
			Repository: opts.UpdateRepo,
			Prerelease: opts.UpdatePrerelease,
		}, eventBus)
		if updErr != nil {
			logger.Warn("Update service unavailable", "error", updErr)
		}

		var pairButton *button.Handler
		if opts.ButtonGPIO > 0 {
			buttonLogger := logging.GetLogger("button")
			pairButton = button.New(button.Config{
				GPIO: opts.ButtonGPIO,
				OnShortPress: func() {
					ctx, cancel := context.WithTimeout(context.Background(), unitJobTimeout)
					defer cancel()
					if toggleErr := network.TogglePairing(ctx); toggleErr != nil {
						buttonLogger.Warn("Pairing toggle failed", "error", toggleErr)
					}
				},
				OnNetworkReset: func() {
					ctx, cancel := context.WithTimeout(context.Background(), unitJobTimeout)
					defer cancel()
					if leaveErr := network.Leave(ctx); leaveErr != nil {
						buttonLogger.Warn("Network reset failed", "error", leaveErr)
					}
				},
				OnFactoryReset: func() {
					ctx, cancel := context.WithTimeout(context.Background(), unitJobTimeout)
					defer cancel()
					if resetErr := network.FactoryReset(ctx); resetErr != nil {
						buttonLogger.Warn("Factory reset failed", "error", resetErr)
					}
				},
				Feedback: func(cue button.Feedback) {
					switch cue {
					case button.FeedbackAmber:
						leds.FeedbackShow(statusled.StateNotJoined)
					case button.FeedbackRed:
						leds.FeedbackShow(statusled.StateError)
					default:
						leds.FeedbackRestore()
					}
				},
			}, eventBus, buttonLogger)
		}

		server := api.NewServer(&api.Options{
			AuthUsername:      opts.AuthUsername,
			AuthPassword:      opts.AuthPassword,
			LEDs:              leds,
			Network:           network,
			Settings:          store,
			UpdateService:     updateService,
			EventBus:          eventBus,
			PrometheusHandler: instruments.Handler(),
		})

		// Log levels re-apply on config file edits without a restart.
		watcher := config.NewLoggingWatcher(opts.Config, logger)
		watcher.OnReload(logging.Reconfigure)

		watchdogCtx, stopWatchdog := context.WithCancel(context.Background())

		hooks.OnStart(func() {
			leds.Start()

			startCtx, cancel := context.WithTimeout(context.Background(), unitJobTimeout)
			if startErr := network.Start(startCtx); startErr != nil {
				logger.Warn("Failed to recover network state", "error", startErr)
			}
			cancel()

			if pairButton != nil {
				if startErr := pairButton.Start(); startErr != nil {
					logger.Warn("Failed to start button handler", "gpio", opts.ButtonGPIO, "error", startErr)
				}
			}

			if watchErr := watcher.Start(); watchErr != nil {
				logger.Warn("Config watcher unavailable", "path", opts.Config, "error", watchErr)
			}

			go systemd.RunWatchdog(watchdogCtx, logger)
			systemd.NotifyReady(logger)

			logger.Info("Starting HTTP server", "port", opts.Port)
			if startErr := server.Start(opts.Port); startErr != nil && !errors.Is(startErr, http.ErrServerClosed) {
				logger.Error("Failed to start HTTP server", "error", startErr)
				os.Exit(1)
			}
		})

		hooks.OnStop(func() {
			logger.Info("Shutting down")
			systemd.NotifyStopping(logger)
			stopWatchdog()

			if stopErr := server.Stop(); stopErr != nil {
				logger.Error("Error stopping HTTP server", "error", stopErr)
			}
			if stopErr := watcher.Stop(); stopErr != nil {
				logger.Warn("Error stopping config watcher", "error", stopErr)
			}
			if pairButton != nil {
				pairButton.Stop()
			}
			network.Close()
			if stopErr := leds.Stop(); stopErr != nil {
				logger.Warn("Error stopping status LED", "error", stopErr)
			}
			instruments.Stop()
			if closeErr := store.Close(); closeErr != nil {
				logger.Warn("Error closing settings store", "error", closeErr)
			}
			if sysd != nil {
				sysd.Close()
			}
		})
	})

	cli.Root().AddCommand(
		cmd.CreateStatusCmd(),
		cmd.CreateLEDCmd(),
		cmd.CreatePairCmd(),
		cmd.CreateResetCmd(),
		cmd.CreateVersionCmd(),
	)

	cli.Run()
}
