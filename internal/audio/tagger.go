package audio

import (
	"strconv"

	"github.com/bogem/id3v2"
	"github.com/cockroachdb/errors"

	"github.com/handiism/spotify-preview-downloader/internal/model"
)

// TagEditAction defines how to handle individual ID3 tags.
type TagEditAction int

const (
	// TagEmpty clears the tag value.
	TagEmpty TagEditAction = iota

	// TagModify updates the tag with the value from the playlist page.
	TagModify

	// TagDoNotModify leaves the existing tag value unchanged.
	TagDoNotModify
)

// TagConfig holds tagging configuration for each ID3 field.
type TagConfig struct {
	// Artist controls the TPE1 frame (track subtitle).
	Artist TagEditAction

	// Album controls the TALB frame (playlist name).
	Album TagEditAction

	// TrackNumber controls the TRCK frame (position in the playlist).
	TrackNumber TagEditAction

	// TrackTitle controls the TIT2 frame.
	TrackTitle TagEditAction

	// Comments controls the COMM frame, which records the track URI.
	Comments TagEditAction
}

// DefaultTagConfig returns a configuration that writes every supported frame.
func DefaultTagConfig() *TagConfig {
	return &TagConfig{
		Artist:      TagModify,
		Album:       TagModify,
		TrackNumber: TagModify,
		TrackTitle:  TagModify,
		Comments:    TagModify,
	}
}

// Tagger writes ID3 tags to downloaded preview files.
//
//	tagger := NewTagger(DefaultTagConfig())
//	err := tagger.SaveTags(track, artworkBytes)
type Tagger struct {
	config *TagConfig
}

// NewTagger creates a new Tagger. A nil config means DefaultTagConfig().
func NewTagger(config *TagConfig) *Tagger {
	if config == nil {
		config = DefaultTagConfig()
	}
	return &Tagger{config: config}
}

// SaveTags writes ID3 tags to track.Path, embedding artwork when non-nil.
// The file must already exist.
func (t *Tagger) SaveTags(track *model.Track, artwork []byte) error {
	tag, err := id3v2.Open(track.Path, id3v2.Options{Parse: true})
	if err != nil {
		return errors.Wrapf(err, "open tags of %s", track.Path)
	}
	defer tag.Close()

	tag.SetDefaultEncoding(id3v2.EncodingUTF8)
	t.updateStringTags(tag, track)

	if artwork != nil {
		updateArtwork(tag, artwork)
	}

	if err := tag.Save(); err != nil {
		return errors.Wrapf(err, "save tags of %s", track.Path)
	}
	return nil
}

func (t *Tagger) updateStringTags(tag *id3v2.Tag, track *model.Track) {
	switch t.config.Artist {
	case TagEmpty:
		tag.SetArtist("")
	case TagModify:
		tag.SetArtist(track.Subtitle)
	}

	switch t.config.Album {
	case TagEmpty:
		tag.SetAlbum("")
	case TagModify:
		if track.Playlist != nil {
			tag.SetAlbum(track.Playlist.DisplayName())
		}
	}

	switch t.config.TrackNumber {
	case TagEmpty:
		tag.DeleteFrames("TRCK")
	case TagModify:
		tag.AddTextFrame("TRCK", id3v2.EncodingUTF8, strconv.Itoa(track.Number))
	}

	switch t.config.TrackTitle {
	case TagEmpty:
		tag.SetTitle("")
	case TagModify:
		tag.SetTitle(track.Title)
	}

	switch t.config.Comments {
	case TagEmpty:
		tag.DeleteFrames(tag.CommonID("Comments"))
	case TagModify:
		if track.URI != "" {
			tag.DeleteFrames(tag.CommonID("Comments"))
			tag.AddCommentFrame(id3v2.CommentFrame{
				Encoding:    id3v2.EncodingUTF8,
				Language:    "eng",
				Description: "source",
				Text:        track.URI,
			})
		}
	}
}

// updateArtwork replaces any attached pictures with a front cover.
func updateArtwork(tag *id3v2.Tag, artwork []byte) {
	tag.DeleteFrames(tag.CommonID("Attached picture"))
	tag.AddAttachedPicture(id3v2.PictureFrame{
		Encoding:    id3v2.EncodingUTF8,
		MimeType:    "image/jpeg",
		PictureType: id3v2.PTFrontCover,
		Description: "Cover",
		Picture:     artwork,
	})
}
