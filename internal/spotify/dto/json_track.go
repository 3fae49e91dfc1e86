package dto

import (
	"github.com/tidwall/gjson"

	"github.com/handiism/spotify-preview-downloader/internal/model"
)

// JSONTrack represents one element of the embed page trackList.
//
// Fields are read leniently: a value of the wrong JSON type yields its
// string/number coercion or the zero value instead of an error.
type JSONTrack struct {
	URI          string            `json:"uri"`
	UID          string            `json:"uid"`
	Title        string            `json:"title"`
	Subtitle     string            `json:"subtitle"`
	Duration     int64             `json:"duration"` // milliseconds
	IsExplicit   bool              `json:"isExplicit"`
	EntityType   string            `json:"entityType"`
	AudioPreview *JSONAudioPreview `json:"audioPreview"`
}

// JSONAudioPreview is the preview clip descriptor attached to a track.
type JSONAudioPreview struct {
	Format string `json:"format"`
	URL    string `json:"url"`
}

// HasPreview reports whether the raw track carries a non-null audioPreview.
func HasPreview(item gjson.Result) bool {
	ap := item.Get("audioPreview")
	return ap.Exists() && ap.Type != gjson.Null
}

// ParseTrack reads a trackList element.
func ParseTrack(item gjson.Result) JSONTrack {
	jt := JSONTrack{
		URI:        item.Get("uri").String(),
		UID:        item.Get("uid").String(),
		Title:      item.Get("title").String(),
		Subtitle:   item.Get("subtitle").String(),
		Duration:   item.Get("duration").Int(),
		IsExplicit: item.Get("isExplicit").Bool(),
		EntityType: item.Get("entityType").String(),
	}
	if HasPreview(item) {
		ap := item.Get("audioPreview")
		jt.AudioPreview = &JSONAudioPreview{
			Format: ap.Get("format").String(),
			URL:    ap.Get("url").String(),
		}
	}
	return jt
}

// ToTrack converts JSONTrack to a model.Track.
func (jt *JSONTrack) ToTrack(pl *model.Playlist, number int, cfg *model.TrackConfig) *model.Track {
	var previewURL string
	if jt.AudioPreview != nil {
		previewURL = jt.AudioPreview.URL
	}

	track := model.NewTrack(pl, number, jt.Title, jt.Subtitle, float64(jt.Duration)/1000, previewURL, cfg)
	track.URI = jt.URI
	track.Explicit = jt.IsExplicit
	return track
}
