// Package audio post-processes downloaded previews: ID3 tagging and
// playlist file generation.
//
// # ID3 Tagging
//
//	tagger := audio.NewTagger(audio.DefaultTagConfig())
//	err := tagger.SaveTags(track, artworkBytes)
//
// Written frames: artist (track subtitle), album (playlist name), title,
// track number, a comment holding the track URI and the cover picture.
//
// # Playlist Generation
//
//	creator := audio.NewPlaylistCreator(audio.FormatM3U, true)
//	content := creator.CreatePlaylist(pl, downloaded)
//
// Supported formats: M3U (optionally extended), PLS, WPL and ZPL.
package audio
