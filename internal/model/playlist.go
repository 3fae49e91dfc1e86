package model

import (
	"path/filepath"
	"strings"
)

// Playlist represents a Spotify playlist scraped from its embed page.
//
// Paths are computed by NewPlaylist from a PathConfig. The {playlist}
// placeholder expands to the sanitized identifier, so two runs against the
// same identifier write into the same directory.
//
// Example:
//
//	cfg := &PathConfig{DownloadsPath: "data/rawData/{playlist}"}
//	pl := NewPlaylist("abc?si=123", "Road Trip", "", cfg)
//	// pl.Path = "data/rawData/abc_si_123"
type Playlist struct {
	// Identifier is the playlist token exactly as used in the embed URL.
	Identifier string

	// SanitizedID is Identifier with every non-alphanumeric run replaced by "_".
	SanitizedID string

	// Name is the playlist display name from the page metadata. May be empty.
	Name string

	// CoverArtURL is the URL of the largest cover image. Empty if none.
	CoverArtURL string

	// Tracks holds the tracks that expose a preview clip, in page order.
	Tracks []*Track

	// Path is the local directory where previews are written.
	Path string

	// ArtworkPath is the local file path for the cover art.
	// Empty if the playlist has no artwork.
	ArtworkPath string

	// PlaylistPath is the local file path for the playlist file.
	PlaylistPath string
}

// PathConfig holds path formatting settings for playlists.
//
// Supported placeholders:
//   - {playlist} - sanitized playlist identifier
//   - {name} - playlist display name
type PathConfig struct {
	// DownloadsPath is the directory template, e.g. "data/rawData/{playlist}".
	DownloadsPath string

	// CoverArtFileNameFormat is the cover art filename template (without extension).
	CoverArtFileNameFormat string

	// PlaylistFileNameFormat is the playlist filename template (without extension).
	PlaylistFileNameFormat string

	// PlaylistFormat determines the playlist file type and extension.
	PlaylistFormat PlaylistFormat
}

// PlaylistFormat represents supported playlist file formats.
type PlaylistFormat int

const (
	// PlaylistFormatM3U creates .m3u playlist files (most widely supported).
	PlaylistFormatM3U PlaylistFormat = iota

	// PlaylistFormatPLS creates .pls playlist files (used by Winamp).
	PlaylistFormatPLS

	// PlaylistFormatWPL creates .wpl playlist files (Windows Media Player).
	PlaylistFormatWPL

	// PlaylistFormatZPL creates .zpl playlist files (Zune Media Player).
	PlaylistFormatZPL
)

// ParsePlaylistFormat maps a settings value ("m3u", "pls", "wpl", "zpl")
// to a PlaylistFormat. Unknown values fall back to M3U.
func ParsePlaylistFormat(s string) PlaylistFormat {
	switch strings.ToLower(s) {
	case "pls":
		return PlaylistFormatPLS
	case "wpl":
		return PlaylistFormatWPL
	case "zpl":
		return PlaylistFormatZPL
	default:
		return PlaylistFormatM3U
	}
}

// Extension returns the file extension for the playlist format, including the dot.
func (pf PlaylistFormat) Extension() string {
	switch pf {
	case PlaylistFormatPLS:
		return ".pls"
	case PlaylistFormatWPL:
		return ".wpl"
	case PlaylistFormatZPL:
		return ".zpl"
	default:
		return ".m3u"
	}
}

// NewPlaylist creates a Playlist with computed paths based on cfg.
func NewPlaylist(identifier, name, coverArtURL string, cfg *PathConfig) *Playlist {
	pl := &Playlist{
		Identifier:  identifier,
		SanitizedID: SanitizeIdentifier(identifier),
		Name:        name,
		CoverArtURL: coverArtURL,
	}

	pl.Path = pl.parseFolderPath(cfg)
	pl.PlaylistPath = pl.parsePlaylistPath(cfg)
	pl.ArtworkPath = pl.parseArtworkPath(cfg)

	return pl
}

// HasArtwork returns true if the playlist has cover art available for download.
func (p *Playlist) HasArtwork() bool {
	return p.CoverArtURL != ""
}

// DisplayName returns Name, or the identifier when the page carried no name.
func (p *Playlist) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	return p.Identifier
}

func (p *Playlist) expand(format string) string {
	format = strings.ReplaceAll(format, "{playlist}", p.SanitizedID)
	format = strings.ReplaceAll(format, "{name}", sanitizeFileName(p.Name))
	return format
}

// parseFolderPath computes the playlist folder path from the config template.
func (p *Playlist) parseFolderPath(cfg *PathConfig) string {
	path := filepath.Clean(p.expand(cfg.DownloadsPath))

	// Limit path length for cross-platform compatibility (Windows MAX_PATH)
	if len(path) >= 248 {
		path = path[:247]
	}

	return path
}

// parsePlaylistPath computes the full playlist file path.
func (p *Playlist) parsePlaylistPath(cfg *PathConfig) string {
	fileName := sanitizeFileName(p.expand(cfg.PlaylistFileNameFormat))
	if fileName == "" {
		fileName = p.SanitizedID
	}
	return limitFilePath(p.Path, fileName, cfg.PlaylistFormat.Extension())
}

// parseArtworkPath computes the full cover art file path.
func (p *Playlist) parseArtworkPath(cfg *PathConfig) string {
	if !p.HasArtwork() {
		return ""
	}

	fileName := sanitizeFileName(p.expand(cfg.CoverArtFileNameFormat))
	if fileName == "" {
		fileName = "cover"
	}
	return limitFilePath(p.Path, fileName, ".jpg")
}

// limitFilePath joins dir and fileName+ext, shortening the name when the
// result would exceed the Windows MAX_PATH limit.
func limitFilePath(dir, fileName, ext string) string {
	filePath := filepath.Join(dir, fileName+ext)
	if len(filePath) >= 260 {
		maxLen := 259 - len(dir) - 1 - len(ext)
		if maxLen > 0 && maxLen < len(fileName) {
			filePath = filepath.Join(dir, fileName[:maxLen]+ext)
		}
	}
	return filePath
}
