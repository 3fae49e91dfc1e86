package main

import (
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/handiism/spotify-preview-downloader/internal/config"
	"github.com/handiism/spotify-preview-downloader/internal/logger"
	"github.com/handiism/spotify-preview-downloader/internal/tui"
)

func main() {
	_ = godotenv.Load()
	os.Exit(run(os.Args[1:], os.Stderr, tui.Run))
}

func run(args []string, stderr io.Writer, startTUI func(*config.Settings) error) int {
	app := kingpin.New("preview-tui", "Interactive Spotify preview downloader.")
	configPath := app.Flag("config", "Path to a JSON or YAML config file.").Short('c').Envar("PREVIEW_DL_CONFIG").String()
	logFile := app.Flag("log-file", "Write JSON logs to this file.").String()
	if _, err := app.Parse(args); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	// The alt screen owns the terminal, so logs only go to a file.
	if *logFile != "" {
		closer, err := logger.Init(logger.Config{Output: "file", File: *logFile, Level: "debug"})
		if err != nil {
			fmt.Fprintf(stderr, "Error configuring logger: %v\n", err)
			return 1
		}
		defer closer.Close()
	} else {
		zlog.Logger = zlog.Logger.Level(zerolog.Disabled)
	}

	settings, err := config.Load(*configPath)
	if err != nil {
		zlog.Error().Err(err).Msg("Error loading config")
		fmt.Fprintf(stderr, "Error loading config: %v\n", err)
		return 1
	}
	zlog.Info().Str("downloads_path", settings.DownloadsPath).Msg("Starting TUI")

	if err := startTUI(settings); err != nil {
		zlog.Error().Err(err).Msg("TUI exited")
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
