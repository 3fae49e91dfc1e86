package download

import (
	"github.com/cockroachdb/errors"

	"github.com/handiism/spotify-preview-downloader/internal/model"
)

var (
	// ErrFetchFailed marks a Report.Reason caused by failing to fetch the embed page.
	ErrFetchFailed = errors.New("failed to fetch playlist page")

	// ErrNoPreviews marks a Report.Reason for a page that parsed fine but
	// had no track with a preview clip.
	ErrNoPreviews = errors.New("no tracks with audio previews")

	errNotInitialized = errors.New("download manager not initialized")
)

// Failure records a track whose preview could not be saved.
type Failure struct {
	Track *model.Track
	Err   error
}

// Report summarizes one run over a playlist.
type Report struct {
	// RunID identifies the run in logs.
	RunID string

	// Identifier is the playlist identifier that was requested.
	Identifier string

	// Directory is where previews were written. Empty when nothing was created.
	Directory string

	// Total is the number of tracks with a preview clip.
	Total int

	// Downloaded lists the saved tracks in playlist order.
	Downloaded []*model.Track

	// Failed lists the tracks that could not be saved, in playlist order.
	Failed []Failure

	// Reason explains a run with zero tracks. Test it with errors.Is against
	// ErrFetchFailed, ErrNoPreviews or the spotify parse errors.
	Reason error
}

// OK reports whether every track was saved.
func (r *Report) OK() bool {
	return len(r.Failed) == 0
}
