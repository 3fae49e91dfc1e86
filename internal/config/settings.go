package config

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v3"

	"github.com/handiism/spotify-preview-downloader/internal/model"
)

// Environment variables that override file values.
const (
	EnvOrigin        = "PREVIEW_DL_ORIGIN"
	EnvDownloadsPath = "PREVIEW_DL_DOWNLOADS_PATH"
	EnvConcurrency   = "PREVIEW_DL_CONCURRENCY"
	EnvUserAgent     = "PREVIEW_DL_USER_AGENT"
)

// Settings holds all configuration options.
type Settings struct {
	// Source settings
	ServiceOrigin         string  `json:"service_origin" yaml:"service_origin" default:"https://open.spotify.com" validate:"required,url"`
	UserAgent             string  `json:"user_agent" yaml:"user_agent" default:"SpotifyPreviewDownloader"`
	RequestTimeoutSeconds int     `json:"request_timeout_seconds" yaml:"request_timeout_seconds" default:"60" validate:"gte=0"`
	RequestsPerSecond     float64 `json:"requests_per_second" yaml:"requests_per_second" validate:"gte=0"`

	// Download settings
	DownloadsPath               string  `json:"downloads_path" yaml:"downloads_path" default:"data/rawData/{playlist}" validate:"required"`
	MaxConcurrentTracksDownload int     `json:"max_concurrent_tracks" yaml:"max_concurrent_tracks" default:"1" validate:"gte=1,lte=32"`
	DownloadMaxRetries          int     `json:"download_max_retries" yaml:"download_max_retries" default:"1" validate:"gte=1,lte=10"`
	DownloadRetryCooldown       float64 `json:"download_retry_cooldown" yaml:"download_retry_cooldown" default:"0.2" validate:"gte=0"`
	DownloadRetryExponent       float64 `json:"download_retry_exponent" yaml:"download_retry_exponent" default:"4" validate:"gte=1"`

	// File naming
	FileNameFormat         string `json:"file_name_format" yaml:"file_name_format" default:"{title}.mp3" validate:"required"`
	CoverArtFileNameFormat string `json:"cover_art_file_name_format" yaml:"cover_art_file_name_format" default:"cover"`
	PlaylistFileNameFormat string `json:"playlist_file_name_format" yaml:"playlist_file_name_format" default:"{playlist}"`

	// Cover art settings
	SaveCoverArtInFolder bool `json:"save_cover_art_in_folder" yaml:"save_cover_art_in_folder"`
	SaveCoverArtInTags   bool `json:"save_cover_art_in_tags" yaml:"save_cover_art_in_tags"`
	CoverArtMaxSize      int  `json:"cover_art_max_size" yaml:"cover_art_max_size" default:"640" validate:"gte=16"`

	// Playlist settings
	CreatePlaylist bool   `json:"create_playlist" yaml:"create_playlist"`
	PlaylistFormat string `json:"playlist_format" yaml:"playlist_format" default:"m3u" validate:"oneof=m3u pls wpl zpl"`
	M3UExtended    bool   `json:"m3u_extended" yaml:"m3u_extended" default:"true"`

	// Tag settings
	ModifyTags bool `json:"modify_tags" yaml:"modify_tags"`
}

// DefaultSettings returns settings with default values.
//
// Previews land in data/rawData/<sanitized identifier>/<title>.mp3, one at a
// time, one attempt each, with tagging, cover art and playlist files off.
func DefaultSettings() *Settings {
	s := &Settings{}
	defaults.MustSet(s)
	return s
}

// Load reads settings from a JSON or YAML file (chosen by extension).
// A missing file yields the defaults. Values absent from the file keep
// their defaults. Environment overrides are applied before validation.
// A leading ~ in path or DownloadsPath expands to the home directory.
func Load(path string) (*Settings, error) {
	settings := DefaultSettings()

	path, err := homedir.Expand(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to expand config path")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, errors.Wrap(err, "failed to read config file")
		}
	} else if err := unmarshal(path, data, settings); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	if err := settings.ApplyEnv(); err != nil {
		return nil, err
	}

	if settings.DownloadsPath, err = homedir.Expand(settings.DownloadsPath); err != nil {
		return nil, errors.Wrap(err, "failed to expand downloads path")
	}

	if err := settings.Validate(); err != nil {
		return nil, err
	}

	return settings, nil
}

// Save writes settings to a JSON or YAML file (chosen by extension).
func (s *Settings) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(err, "failed to create config directory")
	}

	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(s)
	} else {
		data, err = json.MarshalIndent(s, "", "  ")
	}
	if err != nil {
		return errors.Wrap(err, "failed to encode settings")
	}

	return os.WriteFile(path, data, 0644)
}

// ApplyEnv overrides settings with PREVIEW_DL_* environment variables.
func (s *Settings) ApplyEnv() error {
	if v := os.Getenv(EnvOrigin); v != "" {
		s.ServiceOrigin = v
	}
	if v := os.Getenv(EnvDownloadsPath); v != "" {
		s.DownloadsPath = v
	}
	if v := os.Getenv(EnvUserAgent); v != "" {
		s.UserAgent = v
	}
	if v := os.Getenv(EnvConcurrency); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrapf(err, "invalid %s", EnvConcurrency)
		}
		s.MaxConcurrentTracksDownload = n
	}
	return nil
}

// Validate checks field constraints.
func (s *Settings) Validate() error {
	if err := validator.New().Struct(s); err != nil {
		return errors.Wrap(err, "config validation failed")
	}
	return nil
}

// RequestTimeout returns the HTTP timeout as a duration.
func (s *Settings) RequestTimeout() time.Duration {
	return time.Duration(s.RequestTimeoutSeconds) * time.Second
}

// RetryCooldown returns the wait before retry number tries (0-based).
func (s *Settings) RetryCooldown(tries int) time.Duration {
	seconds := s.DownloadRetryCooldown * math.Pow(s.DownloadRetryExponent, float64(tries))
	return time.Duration(seconds * float64(time.Second))
}

// ToPathConfig converts settings to PathConfig.
func (s *Settings) ToPathConfig() *model.PathConfig {
	return &model.PathConfig{
		DownloadsPath:          filepath.FromSlash(s.DownloadsPath),
		CoverArtFileNameFormat: s.CoverArtFileNameFormat,
		PlaylistFileNameFormat: s.PlaylistFileNameFormat,
		PlaylistFormat:         model.ParsePlaylistFormat(s.PlaylistFormat),
	}
}

// ToTrackConfig converts settings to TrackConfig.
func (s *Settings) ToTrackConfig() *model.TrackConfig {
	return &model.TrackConfig{
		FileNameFormat: s.FileNameFormat,
	}
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

func unmarshal(path string, data []byte, s *Settings) error {
	if isYAML(path) {
		return yaml.Unmarshal(data, s)
	}
	return json.Unmarshal(data, s)
}
