package audio

import (
	"fmt"
	"strings"
	"time"

	"github.com/handiism/spotify-preview-downloader/internal/model"
)

// PlaylistFormat is an alias of model.PlaylistFormat so callers of this
// package need not import model for the constants.
type PlaylistFormat = model.PlaylistFormat

const (
	FormatM3U = model.PlaylistFormatM3U
	FormatPLS = model.PlaylistFormatPLS
	FormatWPL = model.PlaylistFormatWPL
	FormatZPL = model.PlaylistFormatZPL
)

// PlaylistCreator generates a playlist file listing downloaded previews.
//
// Entries are relative file names: the playlist file lives in the same
// directory as the previews.
//
//	creator := NewPlaylistCreator(FormatM3U, true)
//	content := creator.CreatePlaylist(pl, pl.Tracks)
//	os.WriteFile(pl.PlaylistPath, []byte(content), 0644)
type PlaylistCreator struct {
	format   PlaylistFormat
	extended bool // M3U only: include #EXTINF lines
}

// NewPlaylistCreator creates a new PlaylistCreator. extended only affects M3U.
func NewPlaylistCreator(format PlaylistFormat, extended bool) *PlaylistCreator {
	return &PlaylistCreator{
		format:   format,
		extended: extended,
	}
}

// CreatePlaylist renders tracks (normally the successfully downloaded subset
// of pl.Tracks) in the configured format.
func (p *PlaylistCreator) CreatePlaylist(pl *model.Playlist, tracks []*model.Track) string {
	switch p.format {
	case FormatPLS:
		return p.createPLS(tracks)
	case FormatWPL:
		return p.createWPL(pl, tracks)
	case FormatZPL:
		return p.createZPL(pl, tracks)
	default:
		return p.createM3U(tracks)
	}
}

// createM3U generates an M3U playlist:
//
//	#EXTM3U
//	#EXTINF:201,Artist - Title
//	title.mp3
func (p *PlaylistCreator) createM3U(tracks []*model.Track) string {
	var sb strings.Builder

	if p.extended {
		sb.WriteString("#EXTM3U\n")
	}

	for _, track := range tracks {
		if p.extended {
			fmt.Fprintf(&sb, "#EXTINF:%d,%s - %s\n", int(track.Duration), track.Subtitle, track.Title)
		}
		sb.WriteString(track.FileName + "\n")
	}

	return sb.String()
}

// createPLS generates an INI-style PLS playlist.
func (p *PlaylistCreator) createPLS(tracks []*model.Track) string {
	var sb strings.Builder

	sb.WriteString("[playlist]\n")
	for i, track := range tracks {
		idx := i + 1
		fmt.Fprintf(&sb, "File%d=%s\n", idx, track.FileName)
		fmt.Fprintf(&sb, "Title%d=%s\n", idx, track.Title)
		fmt.Fprintf(&sb, "Length%d=%d\n", idx, int(track.Duration))
	}
	fmt.Fprintf(&sb, "NumberOfEntries=%d\n", len(tracks))
	sb.WriteString("Version=2\n")

	return sb.String()
}

// createWPL generates a Windows Media Player (SMIL) playlist.
func (p *PlaylistCreator) createWPL(pl *model.Playlist, tracks []*model.Track) string {
	var sb strings.Builder

	sb.WriteString("<?wpl version=\"1.0\"?>\n")
	sb.WriteString("<smil>\n")
	sb.WriteString("  <head>\n")
	fmt.Fprintf(&sb, "    <title>%s</title>\n", escapeXML(pl.DisplayName()))
	sb.WriteString("  </head>\n")
	sb.WriteString("  <body>\n")
	sb.WriteString("    <seq>\n")
	for _, track := range tracks {
		fmt.Fprintf(&sb, "      <media src=\"%s\"/>\n", escapeXML(track.FileName))
	}
	sb.WriteString("    </seq>\n")
	sb.WriteString("  </body>\n")
	sb.WriteString("</smil>\n")

	return sb.String()
}

// createZPL generates a Zune playlist, WPL plus per-track metadata.
func (p *PlaylistCreator) createZPL(pl *model.Playlist, tracks []*model.Track) string {
	var sb strings.Builder

	sb.WriteString("<?zpl version=\"2.0\"?>\n")
	sb.WriteString("<smil>\n")
	sb.WriteString("  <head>\n")
	fmt.Fprintf(&sb, "    <title>%s</title>\n", escapeXML(pl.DisplayName()))
	sb.WriteString("    <meta name=\"Generator\" content=\"SpotifyPreviewDownloader\"/>\n")
	fmt.Fprintf(&sb, "    <meta name=\"ItemCount\" content=\"%d\"/>\n", len(tracks))
	sb.WriteString("  </head>\n")
	sb.WriteString("  <body>\n")
	sb.WriteString("    <seq>\n")
	for _, track := range tracks {
		duration := time.Duration(track.Duration * float64(time.Second))
		fmt.Fprintf(&sb, "      <media src=\"%s\" albumTitle=\"%s\" trackTitle=\"%s\" trackArtist=\"%s\" duration=\"%d\"/>\n",
			escapeXML(track.FileName),
			escapeXML(pl.DisplayName()),
			escapeXML(track.Title),
			escapeXML(track.Subtitle),
			duration.Milliseconds())
	}
	sb.WriteString("    </seq>\n")
	sb.WriteString("  </body>\n")
	sb.WriteString("</smil>\n")

	return sb.String()
}

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	"\"", "&quot;",
	"'", "&apos;",
)

func escapeXML(s string) string {
	return xmlEscaper.Replace(s)
}
