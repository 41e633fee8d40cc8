package main

import (
	"errors"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/control"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/pipeline"
	"github.com/ayusman/mudra/internal/server"
	"github.com/ayusman/mudra/internal/store"
	"github.com/ayusman/mudra/internal/tray"
)

func main() {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to get home directory")
	}
	dataDir := filepath.Join(homeDir, ".mudra")
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		log.Fatal().Err(err).Msg("failed to create data directory")
	}

	cfg, err := config.Load(dataDir)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	setupLogging(cfg.LogLevel)

	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = filepath.Join(dataDir, "mudra.db")
	}
	st, err := store.New(dbPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", dbPath).Msg("failed to open store")
	}
	defer st.Close()

	tunables := loadTunables(cfg, st)

	camera := capture.NewCamera(cfg.CameraID)
	pipe := pipeline.New(pipeline.Config{
		CaptureFPS: cfg.CaptureFPS,
		Tunables:   tunables,
	}, camera, func() (detector.Detector, error) {
		dcfg := detector.DefaultConfig()
		dcfg.PreferGPU = cfg.PreferGPU
		return detector.NewMediaPipeDetector(dcfg)
	})

	staticDir := cfg.StaticDir
	if staticDir == "" {
		staticDir = findWebDir(dataDir)
	}

	srv := server.New(server.Config{
		StaticDir: staticDir,
		Store:     st,
		Camera:    camera,
		Pipeline:  pipe,
	})

	pipe.SetEnabled(st.Settings().GetBool(store.SettingEnabled, true))
	pipe.Start()
	defer pipe.Stop()

	go func() {
		log.Info().Str("addr", cfg.ListenAddr).Msg("starting server")
		if err := srv.ListenAndServe(cfg.ListenAddr); err != nil {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	if cfg.Tray {
		runTray(pipe, st)
		return
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Info().Str("signal", sig.String()).Msg("shutting down")
}

// setupLogging configures the global zerolog logger.
func setupLogging(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(lvl).
		With().Timestamp().Logger()
}

// loadTunables applies the active tuning profile on top of the configured
// defaults. No active profile means the config values stand.
func loadTunables(cfg *config.Config, st *store.Store) control.Tunables {
	profile, err := st.Profiles().GetActive()
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Warn().Err(err).Msg("failed to load active tuning profile")
		}
		return cfg.Tunables
	}
	log.Info().Str("profile", profile.Name).Msg("using active tuning profile")
	return profile.Tunables
}

// runTray blocks in the system tray loop until the user quits.
func runTray(pipe *pipeline.Pipeline, st *store.Store) {
	t := tray.New()
	t.OnToggle(func(enabled bool) {
		pipe.SetEnabled(enabled)
		if err := st.Settings().SetBool(store.SettingEnabled, enabled); err != nil {
			log.Warn().Err(err).Msg("failed to persist enabled state")
		}
	})
	t.OnQuit(func() {
		log.Info().Msg("quit requested from tray")
	})
	pipe.Subscribe(func(state control.ControlState) {
		if state.HandDetected {
			t.SetGesture(string(state.Gesture))
		} else {
			t.SetGesture("")
		}
	})
	go func() {
		for range time.Tick(2 * time.Second) {
			status := pipe.Status()
			t.SetStatus(string(status.Model), string(status.Camera))
		}
	}()
	t.Run()
}

// findWebDir searches for the settings UI directory in common locations.
func findWebDir(dataDir string) string {
	for _, p := range []string{"web", "../web", "../../web"} {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}

	homeWebDir := filepath.Join(dataDir, "web")
	if info, err := os.Stat(homeWebDir); err == nil && info.IsDir() {
		return homeWebDir
	}
	return ""
}
