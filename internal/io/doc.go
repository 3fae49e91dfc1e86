// Package ioutils provides file system and image helpers.
//
//	// Ensure the playlist directory exists
//	err := ioutils.EnsureDir("data/rawData/abc_si_123")
//
//	// Write a playlist file
//	err := ioutils.WriteFile(ctx, "data/rawData/abc_si_123/abc_si_123.m3u", content)
//
// ImageService resizes and re-encodes cover art:
//
//	svc := ioutils.NewImageService()
//	resized, _ := svc.ResizeImage(ctx, imageData, 500, 500)
package ioutils
