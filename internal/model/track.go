package model

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Track represents a single playlist entry that exposes a preview clip.
//
// The file path is computed when creating a track via NewTrack, from the
// playlist's directory and the TrackConfig file name format.
//
// Example:
//
//	cfg := &TrackConfig{FileNameFormat: "{title}.mp3"}
//	track := NewTrack(pl, 1, "Song: Name!", "Artist", 30, previewURL, cfg)
//	// track.FileName = "song_name_.mp3"
type Track struct {
	// Playlist is a reference to the parent playlist.
	Playlist *Playlist

	// Number is the 1-based position among the retained tracks.
	Number int

	// Title is the track title as shown on the page.
	Title string

	// Subtitle is the artist line as shown on the page.
	Subtitle string

	// URI is the spotify:track URI, if present.
	URI string

	// Duration is the full track length in seconds (not the preview length).
	Duration float64

	// Explicit reports whether the page marks the track as explicit.
	Explicit bool

	// PreviewURL is the URL of the preview clip. It is taken from the page
	// without validation and may be empty.
	PreviewURL string

	// FileName is the computed base file name, e.g. "song_name_.mp3".
	FileName string

	// Path is the computed local file path where the preview will be saved.
	Path string
}

// TrackConfig holds track path formatting settings.
//
// The FileNameFormat supports placeholders:
//   - {title} - Track title, sanitized and lower-cased
//   - {artist} - Track subtitle, sanitized and lower-cased
//   - {tracknum} - Track number (2 digits, zero-padded)
type TrackConfig struct {
	// FileNameFormat is the template for track filenames.
	// Must include the file extension (typically ".mp3").
	FileNameFormat string
}

// NewTrack creates a new Track with computed path.
func NewTrack(playlist *Playlist, number int, title, subtitle string, duration float64, previewURL string, cfg *TrackConfig) *Track {
	track := &Track{
		Playlist:   playlist,
		Number:     number,
		Title:      title,
		Subtitle:   subtitle,
		Duration:   duration,
		PreviewURL: previewURL,
	}

	track.FileName = track.parseFileName(cfg)
	track.Path = limitFilePath(playlist.Path, strings.TrimSuffix(track.FileName, filepath.Ext(track.FileName)), filepath.Ext(track.FileName))

	return track
}

// parseFileName computes the filename from the config template.
func (t *Track) parseFileName(cfg *TrackConfig) string {
	fileName := cfg.FileNameFormat
	fileName = strings.ReplaceAll(fileName, "{title}", SanitizeTitle(t.Title))
	fileName = strings.ReplaceAll(fileName, "{artist}", SanitizeTitle(t.Subtitle))
	fileName = strings.ReplaceAll(fileName, "{tracknum}", fmt.Sprintf("%02d", t.Number))
	return sanitizeFileName(fileName)
}
