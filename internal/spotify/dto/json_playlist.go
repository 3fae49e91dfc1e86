package dto

import (
	"github.com/tidwall/gjson"

	"github.com/handiism/spotify-preview-downloader/internal/model"
)

// JSONEntity represents the playlist entity under
// props.pageProps.state.data.entity.
type JSONEntity struct {
	Name      string            `json:"name"`
	URI       string            `json:"uri"`
	CoverArt  []JSONImageSource `json:"coverArt"`
	TrackList []JSONTrack       `json:"trackList"`
}

// JSONImageSource is one entry of coverArt.sources.
type JSONImageSource struct {
	URL    string `json:"url"`
	Width  int64  `json:"width"`
	Height int64  `json:"height"`
}

// ParseEntity reads the entity metadata and the given (already filtered)
// track elements.
func ParseEntity(entity gjson.Result, tracks []gjson.Result) JSONEntity {
	je := JSONEntity{
		Name: entity.Get("name").String(),
		URI:  entity.Get("uri").String(),
	}
	if je.Name == "" {
		je.Name = entity.Get("title").String()
	}

	for _, src := range entity.Get("coverArt.sources").Array() {
		je.CoverArt = append(je.CoverArt, JSONImageSource{
			URL:    src.Get("url").String(),
			Width:  src.Get("width").Int(),
			Height: src.Get("height").Int(),
		})
	}

	for _, item := range tracks {
		je.TrackList = append(je.TrackList, ParseTrack(item))
	}

	return je
}

// LargestCoverArt returns the URL of the widest cover image, or "".
func (je *JSONEntity) LargestCoverArt() string {
	var best JSONImageSource
	for _, src := range je.CoverArt {
		if src.URL != "" && (best.URL == "" || src.Width > best.Width) {
			best = src
		}
	}
	return best.URL
}

// ToPlaylist converts JSONEntity to a model.Playlist.
func (je *JSONEntity) ToPlaylist(identifier string, pathCfg *model.PathConfig, trackCfg *model.TrackConfig) *model.Playlist {
	pl := model.NewPlaylist(identifier, je.Name, je.LargestCoverArt(), pathCfg)

	for i := range je.TrackList {
		pl.Tracks = append(pl.Tracks, je.TrackList[i].ToTrack(pl, i+1, trackCfg))
	}

	return pl
}
