// Package http provides the HTTP client used to fetch embed pages and
// preview clips.
//
// The Client in this package handles:
//   - User-Agent headers
//   - Per-request headers (the embed page is requested with a JSON Content-Type)
//   - File downloads with progress tracking
//   - Timeout handling and optional request pacing
//
// Any non-2xx response is returned as a *StatusError.
//
// # Basic Usage
//
//	client := http.NewClient(http.WithTimeout(30 * time.Second))
//
//	// Fetch HTML page
//	html, err := client.GetString(ctx, embedURL, http.WithHeader("Content-Type", "application/json"))
//
//	// Download file with progress callback
//	n, err := client.DownloadFile(ctx, previewURL, "/path/to/file.mp3", func(written, total int64) {
//	    fmt.Printf("%d bytes\n", written)
//	})
package http
