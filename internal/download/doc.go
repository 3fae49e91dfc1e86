// Package download drives a playlist from its embed page to preview files
// on disk.
//
// # Manager
//
// The Manager coordinates one run:
//
//  1. Resolve the playlist identifier from a URI, URL or bare id
//  2. Fetch the embed page and extract tracks that carry a preview clip
//  3. Create the playlist directory
//  4. Download every preview, one after another by default
//  5. Optionally save cover art, tag the files and write a playlist file
//
// # Basic Usage
//
//	manager := download.NewManager(settings, func(event download.ProgressEvent) {
//	    fmt.Println(event.Message)
//	})
//
//	report, err := manager.Run(ctx, "spotify:playlist:37i9dQZF1DXcBWIGoYBM5M")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("%d/%d saved\n", len(report.Downloaded), report.Total)
//
// # Failure Handling
//
// Runs are fail-soft. A page that cannot be fetched or parsed yields a
// Report with zero tracks and a Reason; a track that fails to download is
// listed in Report.Failed and the run moves on. Errors are returned only
// for unusable input, an uncreatable directory or cancellation.
//
// # Concurrency
//
// settings.MaxConcurrentTracksDownload bounds parallel downloads. The
// default of 1 keeps downloads strictly sequential, so two tracks that
// share a file name always resolve to the later one in playlist order.
//
// # Retry Logic
//
// settings.DownloadMaxRetries counts attempts per track, with a cooldown
// of DownloadRetryCooldown * DownloadRetryExponent^n seconds between them.
package download
