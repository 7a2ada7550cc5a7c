package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/yok-tottii/speaktome-client/internal/audio"
	"github.com/yok-tottii/speaktome-client/internal/config"
	"github.com/yok-tottii/speaktome-client/internal/history"
	"github.com/yok-tottii/speaktome-client/internal/hotkey"
	"github.com/yok-tottii/speaktome-client/internal/inject"
	"github.com/yok-tottii/speaktome-client/internal/logger"
	"github.com/yok-tottii/speaktome-client/internal/notification"
	"github.com/yok-tottii/speaktome-client/internal/reactor"
	"github.com/yok-tottii/speaktome-client/internal/recording"
	"github.com/yok-tottii/speaktome-client/internal/transcriber"
	"github.com/yok-tottii/speaktome-client/internal/tray"
)

const (
	version = "1.0.0"
	appName = "SpeakToMe"

	// Bound on how long shutdown waits for an in-flight cycle
	shutdownGrace = 5 * time.Second
)

// App holds all application state
type App struct {
	logger      *logger.Logger
	config      *config.Config
	combo       hotkey.Combo
	trayMgr     *tray.Manager
	hotkeyMgr   *hotkey.Manager
	audioDriver *audio.PortAudioDriver
	client      *transcriber.Client
	injector    *inject.Injector
	notifier    *notification.NotificationManager
	history     *history.Log
	loop        *reactor.Loop
	orch        *recording.Orchestrator

	shutdownOnce sync.Once
}

func init() {
	// macOS requires the main thread for the systray run loop
	runtime.LockOSThread()
}

func main() {
	// A local .env augments the environment before config is read
	_ = godotenv.Load()

	configPath := flag.String("config", config.GetConfigPath(), "path to config file")
	serverURL := flag.String("server", "", "transcription server URL (overrides config)")
	flag.Parse()

	app := &App{}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// First run: persist the defaults so the user has a file to edit
	if _, err := os.Stat(*configPath); os.IsNotExist(err) {
		if saveErr := cfg.Save(*configPath); saveErr != nil {
			log.Printf("Could not write default config to %s: %v", *configPath, saveErr)
		} else {
			log.Printf("Wrote default config to %s", *configPath)
		}
	}

	cfg.ApplyEnv()
	if *serverURL != "" {
		cfg.ServerURL = *serverURL
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	app.config = cfg

	loggerConfig := logger.DefaultConfig()
	loggerConfig.Level = logger.ParseLevel(cfg.Logging.Level)
	if cfg.Logging.Dir != "" {
		dir, err := config.ExpandPath(cfg.Logging.Dir)
		if err != nil {
			log.Fatalf("Invalid log directory: %v", err)
		}
		loggerConfig.LogDir = dir
	}

	app.logger, err = logger.New(loggerConfig)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer app.logger.Close()

	app.logger.Info("%s v%s starting", appName, version)
	app.logger.Info("Config loaded from %s", *configPath)

	app.combo, err = cfg.Combo()
	if err != nil {
		app.fatal("Failed to parse hotkey combo", err)
	}
	for _, conflict := range hotkey.CheckConflicts(app.combo) {
		app.logger.Warn("Hotkey %s conflicts with %s (%s)",
			hotkey.FormatCombo(app.combo), conflict.Name, conflict.Description)
	}

	app.trayMgr = tray.NewManager(tray.Config{
		OnReady: app.onReady,
		OnQuit:  app.shutdown,
	})

	// Blocking call; the rest of startup happens in onReady
	app.trayMgr.Run()
}

// onReady brings up the pipeline once the systray is initialized
func (a *App) onReady() {
	var err error

	a.audioDriver, err = audio.NewPortAudioDriver(a.logger)
	if err != nil {
		a.fatal("Failed to initialize audio", err)
	}

	audioConfig := audio.Config{
		DeviceID:   a.config.Audio.DeviceID,
		SampleRate: a.config.Audio.SampleRate,
		Channels:   a.config.Audio.Channels,
		ChunkSize:  a.config.Audio.ChunkSize,
		Latency:    audio.HighStability,
	}
	if err := a.audioDriver.Initialize(audioConfig); err != nil {
		a.fatal("Failed to initialize capture device", err)
	}

	if devices, err := a.audioDriver.ListDevices(); err == nil {
		for _, dev := range devices {
			marker := ""
			if dev.IsDefault {
				marker = " (default)"
			}
			a.logger.Debug("Input device %d: %s%s", dev.ID, dev.Name, marker)
		}
	}

	clientConfig := transcriber.DefaultConfig()
	clientConfig.ServerURL = a.config.ServerURL
	clientConfig.Model = a.config.Model
	clientConfig.Language = a.config.Language
	a.client = transcriber.New(clientConfig, a.logger)

	// The initial connect is part of startup; failing it is fatal, like a
	// failed hotkey registration. Later connection loss is per-cycle.
	if err := a.client.Connect(); err != nil {
		a.fatal("Failed to connect to transcription server", err)
	}

	a.injector = inject.New(inject.Config{
		Method:          a.config.Injection.Method,
		FocusDelay:      time.Duration(a.config.Injection.FocusDelayMs) * time.Millisecond,
		AddSpaceAfter:   a.config.Injection.AddSpaceAfter,
		CapitalizeFirst: a.config.Injection.CapitalizeFirst,
	}, a.logger)

	a.notifier = notification.NewNotificationManager(appName, a.config.NotificationsEnabled)
	a.history = history.New(0)

	a.loop = reactor.New(a.logger)
	a.loop.Start()

	orchConfig := recording.Config{
		SampleRate:  a.config.Audio.SampleRate,
		Channels:    a.config.Audio.Channels,
		MinDuration: time.Duration(a.config.Recording.MinDurationMs) * time.Millisecond,
		MaxDuration: time.Duration(a.config.Recording.MaxDurationS) * time.Second,
	}
	a.orch = recording.New(orchConfig, a.audioDriver, a.client, a.injector, a, a.loop, a.logger)
	a.orch.SetStateChangeListener(a.onStateChange)

	a.hotkeyMgr = hotkey.New()
	if err := a.hotkeyMgr.Register(a.combo); err != nil {
		a.fatal("Failed to register global hotkey", err)
	}

	// Bridge hotkey events from the listener to the orchestrator
	go func() {
		for range a.hotkeyMgr.Events() {
			a.orch.HandleHotkey()
		}
	}()

	// Clean shutdown on SIGINT/SIGTERM
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		a.logger.Info("Received %v, shutting down", sig)
		a.shutdown()
		a.trayMgr.Quit()
	}()

	a.logger.Info("Ready. Press %s to record.", hotkey.FormatCombo(a.combo))
}

// onStateChange runs on the reactor goroutine after every transition
func (a *App) onStateChange(state recording.State) {
	switch state {
	case recording.Capturing:
		a.trayMgr.SetState(tray.StateRecording)
		if err := a.notifier.RecordingStarted(); err != nil {
			a.logger.Debug("Notification failed: %v", err)
		}
	case recording.Finalizing:
		a.trayMgr.SetState(tray.StateProcessing)
		if err := a.notifier.RecordingStopped(); err != nil {
			a.logger.Debug("Notification failed: %v", err)
		}
	case recording.Idle:
		a.trayMgr.SetState(tray.StateIdle)
	}
}

// Report receives exactly one result per recording cycle: one log line and
// one notification per outcome, plus a history entry.
func (a *App) Report(result recording.Result) {
	a.history.Add(history.Entry{
		ID:       result.SessionID,
		Duration: result.Duration,
		Bytes:    result.Bytes,
		Outcome:  string(result.Outcome),
		Text:     result.Text,
	})

	var notifyErr error

	switch result.Outcome {
	case recording.OutcomeSuccess:
		if result.AutoStopped {
			a.logger.Warn("Recording auto-stopped at the maximum duration")
			if err := a.notifier.RecordingTimeExceeded(); err != nil {
				a.logger.Debug("Notification failed: %v", err)
			}
		}
		if result.Text == "" {
			a.logger.Info("Cycle finished with an empty transcription (%v of audio)", result.Duration)
			return
		}
		a.logger.Info("Transcribed and injected %d characters (%v of audio, %d bytes sent)",
			len([]rune(result.Text)), result.Duration, result.Bytes)
		notifyErr = a.notifier.TranscriptionInjected(result.Text)

	case recording.OutcomeTooShort:
		a.logger.Info("Recording too short (%v), nothing sent", result.Duration)
		notifyErr = a.notifier.RecordingTooShort()

	case recording.OutcomeDeviceError:
		a.logger.Error("Capture device failed: %v", result.Err)
		notifyErr = a.notifier.DeviceFailed(fmt.Sprintf("%v", result.Err))

	case recording.OutcomeConnectionError:
		a.logger.Error("Transcription connection failed: %v", result.Err)
		notifyErr = a.notifier.ConnectionFailed(fmt.Sprintf("%v", result.Err))

	case recording.OutcomeProtocolError:
		a.logger.Error("Transcription failed: %v", result.Err)
		notifyErr = a.notifier.TranscriptionFailed(fmt.Sprintf("%v", result.Err))

	case recording.OutcomeInjectionError:
		a.logger.Error("Text injection failed: %v (transcription was: %s)", result.Err, result.Text)
		notifyErr = a.notifier.InjectionFailed(result.Text)

	case recording.OutcomeAborted:
		a.logger.Warn("Recording aborted by shutdown")
		notifyErr = a.notifier.RecordingAborted()
	}

	if notifyErr != nil {
		a.logger.Debug("Notification failed: %v", notifyErr)
	}
}

// shutdown tears the pipeline down in dependency order: listener first so
// no new cycles start, then the orchestrator, reactor, connection, device.
func (a *App) shutdown() {
	a.shutdownOnce.Do(func() {
		a.logger.Info("Shutting down")

		if a.hotkeyMgr != nil {
			if err := a.hotkeyMgr.Close(); err != nil {
				a.logger.Warn("Failed to close hotkey listener: %v", err)
			}
		}

		if a.orch != nil {
			if err := a.orch.Shutdown(shutdownGrace); err != nil {
				// A cycle is stuck mid-pipeline; force-closing the
				// connection unblocks a pending transcribe round-trip.
				a.logger.Warn("Orchestrator did not stop in time: %v", err)
				if a.client != nil {
					_ = a.client.ForceClose()
				}
			}
		}

		if a.loop != nil {
			_ = a.loop.Close()
		}

		if a.client != nil {
			if err := a.client.Disconnect(); err != nil {
				a.logger.Warn("Failed to disconnect cleanly: %v", err)
			}
		}

		if a.audioDriver != nil {
			if err := a.audioDriver.Close(); err != nil {
				a.logger.Warn("Failed to release audio: %v", err)
			}
		}

		if a.history != nil {
			a.logger.Info("Session finished after %d recording cycles", a.history.Len())
		}
	})
}

// fatal logs a startup failure, cleans up what exists, and exits. Startup
// failures are the only process-fatal errors.
func (a *App) fatal(msg string, err error) {
	a.logger.Error("%s: %v", msg, err)
	a.shutdown()
	a.logger.Close()
	fmt.Fprintf(os.Stderr, "%s: %v\n", msg, err)
	os.Exit(1)
}
