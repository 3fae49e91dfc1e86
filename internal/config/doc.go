// Package config provides configuration management for the preview
// downloader.
//
// Defaults come from struct tags (creasty/defaults) and are validated with
// go-playground/validator. Files may be JSON or YAML:
//
//	settings, err := config.Load("preview-dl.yaml")
//	// missing file: defaults, then PREVIEW_DL_* environment overrides
//
//	settings.DownloadsPath = "/music/previews/{playlist}"
//	err = settings.Save("preview-dl.yaml")
//
// DownloadsPath placeholders: {playlist} (sanitized identifier) and
// {name} (playlist display name).
package config
