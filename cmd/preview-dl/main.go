// Command preview-dl saves the audio previews of a Spotify playlist.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/handiism/spotify-preview-downloader/internal/config"
	"github.com/handiism/spotify-preview-downloader/internal/download"
	"github.com/handiism/spotify-preview-downloader/internal/logger"
)

const (
	exitOK          = 0
	exitFailure     = 1
	exitInterrupted = 130
)

type options struct {
	playlist    string
	output      string
	config      string
	m3u         bool
	tags        bool
	coverArt    bool
	concurrency int
	verbose     bool
	dryRun      bool
	logLevel    string
	logFile     string
	saveConfig  string
}

func newApp(opts *options) *kingpin.Application {
	app := kingpin.New("preview-dl", "Download the audio previews of a Spotify playlist.")
	app.HelpFlag.Short('h')

	app.Arg("playlist", "Playlist URL, spotify:playlist: URI or bare identifier.").Required().StringVar(&opts.playlist)
	app.Flag("output", "Base output directory; previews go to <output>/<playlist id>.").Short('o').StringVar(&opts.output)
	app.Flag("config", "Path to a JSON or YAML config file.").Short('c').Envar("PREVIEW_DL_CONFIG").StringVar(&opts.config)
	app.Flag("playlist", "Write a playlist file next to the previews.").BoolVar(&opts.m3u)
	app.Flag("tags", "Write ID3 tags into each preview.").BoolVar(&opts.tags)
	app.Flag("cover-art", "Save the playlist cover art to the folder and tags.").BoolVar(&opts.coverArt)
	app.Flag("concurrency", "Parallel downloads (1 keeps them sequential).").IntVar(&opts.concurrency)
	app.Flag("verbose", "Show verbose output.").Short('v').BoolVar(&opts.verbose)
	app.Flag("dry-run", "List the previews without downloading.").BoolVar(&opts.dryRun)
	app.Flag("log-level", "Log level (debug, info, warn, error).").Default("info").EnumVar(&opts.logLevel, "debug", "info", "warn", "error")
	app.Flag("log-file", "Write JSON logs to this file instead of the console.").StringVar(&opts.logFile)
	app.Flag("save-config", "Write the effective settings to this JSON or YAML file.").StringVar(&opts.saveConfig)

	return app
}

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	var opts options
	kingpin.MustParse(newApp(&opts).Parse(os.Args[1:]))

	// Handle interrupts
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nInterrupted, cancelling...")
		cancel()
	}()

	os.Exit(run(ctx, &opts, os.Stdout))
}

func run(ctx context.Context, opts *options, out io.Writer) int {
	logCfg := logger.Config{Output: "stderr", Level: opts.logLevel}
	if opts.verbose {
		logCfg.Level = "debug"
	}
	if opts.logFile != "" {
		logCfg.Output, logCfg.File = "file", opts.logFile
	}
	log, closer, err := logger.New(logCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error configuring logger: %v\n", err)
		return exitFailure
	}
	defer closer.Close()

	settings, err := loadSettings(opts)
	if err != nil {
		log.Error().Err(err).Msg("Error loading config")
		return exitFailure
	}

	if opts.saveConfig != "" {
		if err := settings.Save(opts.saveConfig); err != nil {
			log.Error().Err(err).Msg("Error saving config")
			return exitFailure
		}
		log.Info().Str("path", opts.saveConfig).Msg("Saved settings")
	}

	manager := download.NewManager(settings, func(event download.ProgressEvent) {
		logEvent(log, event)
	})
	log = log.With().Str("run", manager.RunID()).Logger()

	if err := manager.Initialize(ctx, opts.playlist); err != nil {
		if ctx.Err() != nil {
			log.Warn().Msg("Download cancelled")
			return exitInterrupted
		}
		log.Error().Err(err).Msg("Error initializing")
		return exitFailure
	}

	if opts.dryRun {
		pl := manager.Playlist()
		for _, track := range pl.Tracks {
			fmt.Fprintf(out, "%02d  %s  ->  %s\n", track.Number, track.Title, track.Path)
		}
		log.Info().Int("tracks", len(pl.Tracks)).Msg("Dry run, nothing downloaded")
		return exitOK
	}

	report, err := manager.StartDownloads(ctx)
	if err != nil {
		if ctx.Err() != nil {
			log.Warn().Msg("Download cancelled")
			return exitInterrupted
		}
		log.Error().Err(err).Msg("Error during download")
		return exitFailure
	}

	received, _, _ := manager.GetProgress()
	log.Info().
		Int("saved", len(report.Downloaded)).
		Int("failed", len(report.Failed)).
		Int("total", report.Total).
		Str("dir", report.Directory).
		Float64("mb", float64(received)/1024/1024).
		Msg("Complete")

	return exitOK
}

// loadSettings layers config file, environment and flags, in that order.
func loadSettings(opts *options) (*config.Settings, error) {
	settings, err := config.Load(opts.config)
	if err != nil {
		return nil, err
	}

	if opts.output != "" {
		settings.DownloadsPath = filepath.Join(opts.output, "{playlist}")
	}
	if opts.m3u {
		settings.CreatePlaylist = true
	}
	if opts.tags {
		settings.ModifyTags = true
	}
	if opts.coverArt {
		settings.SaveCoverArtInFolder = true
		settings.SaveCoverArtInTags = true
	}
	if opts.concurrency > 0 {
		settings.MaxConcurrentTracksDownload = opts.concurrency
	}

	return settings, settings.Validate()
}

func logEvent(log zerolog.Logger, event download.ProgressEvent) {
	switch event.Level {
	case download.LevelVerbose:
		log.Debug().Msg(event.Message)
	case download.LevelWarning:
		log.Warn().Msg(event.Message)
	case download.LevelError:
		log.Error().Msg(event.Message)
	case download.LevelSuccess:
		log.Info().Bool("success", true).Msg(event.Message)
	default:
		log.Info().Msg(event.Message)
	}
}
