// Command crate is a terminal audio playlist browser. It scans directories
// for sounds and plays them with configurable key bindings.
package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kingpin/v2"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"

	"github.com/olivier-w/crate/internal/config"
	"github.com/olivier-w/crate/internal/logger"
	"github.com/olivier-w/crate/internal/playback"
	"github.com/olivier-w/crate/internal/player"
)

var (
	app        = kingpin.New("crate", "Terminal audio playlist browser")
	configPath = app.Flag("config", "Path to config file").Envar("CRATE_CONFIG").String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logFile    = app.Flag("log-file", "Path to log file, - for stderr").Envar("CRATE_LOG_FILE").String()
	windowSize = app.Flag("window-size", "Rows per playlist page, overrides the config file").Int()
	dirs       = app.Arg("sources", "Directories or playlist files to load instead of the configured ones").Strings()
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	kingpin.MustParse(app.Parse(os.Args[1:]))

	loggerConfig := logger.Config{
		Level: "info",
		File:  *logFile,
	}
	if *verbose {
		loggerConfig.Level = "debug"
	}
	closer, err := logger.Init(loggerConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	err = run()
	closer.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run loads the configuration, opens the audio device and drives the UI
// until the user quits.
func run() error {
	store, err := config.NewStore(*configPath)
	if err != nil {
		return err
	}

	var notice string
	cfg, err := store.Load()
	if err != nil {
		if !errors.Is(err, config.ErrInvalidConfiguration) {
			return err
		}
		zlog.Warn().Err(err).Str("path", store.Path()).Msg("using default configuration")
		notice = "Config file unreadable, using defaults"
	}
	if *windowSize > 0 {
		cfg.WindowSize = *windowSize
	}
	zlog.Info().Str("config", store.Path()).Int("sources", len(cfg.SoundPaths)).
		Int("window_size", cfg.WindowSize).Msg("starting")

	dev, err := player.NewDevice()
	if err != nil {
		return err
	}
	port := playback.PortFunc(func(source string) (playback.Stream, error) {
		s, err := dev.Load(source)
		if err != nil {
			return nil, err
		}
		return s, nil
	})

	opts := startupOptions{
		store:  store,
		cfg:    cfg,
		port:   port,
		notice: notice,
		cwd:    ".",
	}
	if len(*dirs) > 0 {
		// Directories given on the command line are not saved.
		opts.roots = *dirs
	}

	program := tea.NewProgram(newStartupModel(opts), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return errors.Wrap(err, "running UI")
	}
	return nil
}
