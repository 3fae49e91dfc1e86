package spotify

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/tidwall/gjson"
	"golang.org/x/net/html"

	"github.com/handiism/spotify-preview-downloader/internal/model"
	"github.com/handiism/spotify-preview-downloader/internal/spotify/dto"
)

const (
	// nextDataID is the id of the script element carrying the page state.
	nextDataID = "__NEXT_DATA__"

	entityPath = "props.pageProps.state.data.entity"
)

var (
	// ErrNoEmbeddedData is returned when the page has no __NEXT_DATA__ script.
	ErrNoEmbeddedData = errors.New("no embedded JSON data found in page")

	// ErrMalformedData is returned when the script content is not valid JSON.
	ErrMalformedData = errors.New("embedded JSON data is malformed")

	// ErrTrackListNotFound is returned when props.pageProps.state.data.entity.trackList
	// is missing or is not an array.
	ErrTrackListNotFound = errors.New("no track list found in embedded data")
)

// Parser extracts playlist information from Spotify embed pages.
//
// The embed page ships its state as JSON inside
// <script id="__NEXT_DATA__" type="application/json">. The Parser pulls that
// script out, walks props.pageProps.state.data.entity.trackList and keeps
// the tracks that carry a non-null audioPreview, in page order.
//
// Every failure is reported as one of ErrNoEmbeddedData, ErrMalformedData or
// ErrTrackListNotFound (test with errors.Is).
//
// Example usage:
//
//	parser := NewParser(pathConfig, trackConfig)
//	pl, err := parser.ParseEmbedPage("5pNNCxNEhl5tKxkI9kFAoW", html)
//	if err != nil {
//	    return err
//	}
//	for _, track := range pl.Tracks {
//	    fmt.Println(track.Title, track.PreviewURL)
//	}
type Parser struct {
	pathConfig  *model.PathConfig
	trackConfig *model.TrackConfig
}

// NewParser creates a new Parser with the given configuration.
//
// The configs are used to compute the local paths of the parsed playlist
// and its tracks.
func NewParser(pathCfg *model.PathConfig, trackCfg *model.TrackConfig) *Parser {
	return &Parser{
		pathConfig:  pathCfg,
		trackConfig: trackCfg,
	}
}

// ParseEmbedPage extracts the playlist and its previewable tracks from
// embed page markup. identifier is recorded on the playlist and names
// its directory.
func (p *Parser) ParseEmbedPage(identifier, htmlContent string) (*model.Playlist, error) {
	entity, items, err := decodeEntity(htmlContent)
	if err != nil {
		return nil, err
	}

	je := dto.ParseEntity(entity, filterPreviews(items))
	return je.ToPlaylist(identifier, p.pathConfig, p.trackConfig), nil
}

// ExtractTracks returns the trackList elements of an embed page that carry
// a non-null audioPreview, in their original order. On any failure the
// returned slice is empty and the error says why.
func ExtractTracks(htmlContent string) ([]dto.JSONTrack, error) {
	_, items, err := decodeEntity(htmlContent)
	if err != nil {
		return []dto.JSONTrack{}, err
	}

	kept := filterPreviews(items)
	tracks := make([]dto.JSONTrack, 0, len(kept))
	for _, item := range kept {
		tracks = append(tracks, dto.ParseTrack(item))
	}
	return tracks, nil
}

// decodeEntity locates the embedded JSON and resolves the playlist entity
// and its raw trackList elements.
func decodeEntity(htmlContent string) (gjson.Result, []gjson.Result, error) {
	data, err := extractNextData(htmlContent)
	if err != nil {
		return gjson.Result{}, nil, err
	}

	if !gjson.Valid(data) {
		return gjson.Result{}, nil, ErrMalformedData
	}

	entity := gjson.Get(data, entityPath)
	trackList := entity.Get("trackList")
	if !trackList.IsArray() {
		return gjson.Result{}, nil, ErrTrackListNotFound
	}

	return entity, trackList.Array(), nil
}

// filterPreviews keeps the items whose audioPreview is present and not null.
func filterPreviews(items []gjson.Result) []gjson.Result {
	kept := make([]gjson.Result, 0, len(items))
	for _, item := range items {
		if dto.HasPreview(item) {
			kept = append(kept, item)
		}
	}
	return kept
}

// extractNextData returns the text content of the first
// <script id="__NEXT_DATA__"> element.
func extractNextData(htmlContent string) (string, error) {
	z := html.NewTokenizer(strings.NewReader(htmlContent))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return "", ErrNoEmbeddedData

		case html.StartTagToken:
			name, hasAttr := z.TagName()
			if string(name) != "script" || !hasAttr || !hasID(z, nextDataID) {
				continue
			}
			if z.Next() != html.TextToken {
				// empty script element
				return "", ErrMalformedData
			}
			return string(z.Text()), nil
		}
	}
}

func hasID(z *html.Tokenizer, id string) bool {
	for {
		key, val, more := z.TagAttr()
		if string(key) == "id" && string(val) == id {
			return true
		}
		if !more {
			return false
		}
	}
}
