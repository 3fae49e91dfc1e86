// Package model defines the core data structures used throughout
// the preview downloader.
//
// # Playlist
//
// Playlist represents a scraped playlist with computed file paths:
//
//	pl := model.NewPlaylist("abc?si=123", "Road Trip", coverURL, pathConfig)
//	fmt.Println(pl.Path) // data/rawData/abc_si_123
//
// # Track
//
// Track represents a playlist entry with a preview clip:
//
//	track := model.NewTrack(pl, 1, "Song: Name!", "Artist", 200, previewURL, trackConfig)
//	fmt.Println(track.Path) // data/rawData/abc_si_123/song_name_.mp3
//
// # Sanitization
//
// SanitizeIdentifier and SanitizeTitle collapse every run of characters
// outside [A-Za-z0-9] into a single underscore. SanitizeTitle also
// lower-cases. Both are idempotent.
package model
