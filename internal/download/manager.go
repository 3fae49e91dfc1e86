package download

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/handiism/spotify-preview-downloader/internal/audio"
	"github.com/handiism/spotify-preview-downloader/internal/config"
	"github.com/handiism/spotify-preview-downloader/internal/http"
	ioutils "github.com/handiism/spotify-preview-downloader/internal/io"
	"github.com/handiism/spotify-preview-downloader/internal/model"
	"github.com/handiism/spotify-preview-downloader/internal/spotify"
)

// ProgressLevel indicates the severity/type of a progress message.
type ProgressLevel int

const (
	LevelInfo ProgressLevel = iota
	LevelVerbose
	LevelWarning
	LevelError
	LevelSuccess
)

// String returns the lower-case level name.
func (l ProgressLevel) String() string {
	switch l {
	case LevelVerbose:
		return "verbose"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	case LevelSuccess:
		return "success"
	default:
		return "info"
	}
}

// ProgressEvent represents a download progress update.
type ProgressEvent struct {
	Message string
	Level   ProgressLevel
}

// Manager drives one playlist through fetch, extract and download.
type Manager struct {
	settings        *config.Settings
	httpClient      *http.Client
	parser          *spotify.Parser
	tagger          *audio.Tagger
	playlistCreator *audio.PlaylistCreator
	imageService    *ioutils.ImageService

	runID    string
	playlist *model.Playlist
	reason   error

	receivedBytes   int64
	totalFiles      int32
	downloadedFiles int32

	onProgress func(ProgressEvent)
	mu         sync.Mutex
}

// NewManager creates a new download Manager.
func NewManager(settings *config.Settings, onProgress func(ProgressEvent)) *Manager {
	pathCfg := settings.ToPathConfig()

	return &Manager{
		settings: settings,
		httpClient: http.NewClient(
			http.WithTimeout(settings.RequestTimeout()),
			http.WithUserAgent(settings.UserAgent),
			http.WithRateLimit(settings.RequestsPerSecond),
		),
		parser:          spotify.NewParser(pathCfg, settings.ToTrackConfig()),
		tagger:          audio.NewTagger(audio.DefaultTagConfig()),
		playlistCreator: audio.NewPlaylistCreator(pathCfg.PlaylistFormat, settings.M3UExtended),
		imageService:    ioutils.NewImageService(),
		runID:           uuid.NewString(),
		onProgress:      onProgress,
	}
}

// RunID returns the identifier of this manager's run.
func (m *Manager) RunID() string {
	return m.runID
}

// Playlist returns the playlist found by Initialize, or nil before it.
func (m *Manager) Playlist() *model.Playlist {
	return m.playlist
}

// Run initializes from input and downloads every preview.
func (m *Manager) Run(ctx context.Context, input string) (*Report, error) {
	if err := m.Initialize(ctx, input); err != nil {
		return nil, err
	}
	return m.StartDownloads(ctx)
}

// Initialize resolves the playlist identifier from input, fetches the embed
// page and extracts the tracks carrying a preview.
//
// Only unusable input or cancellation is returned as an error. A failed
// fetch or an unparseable page is reported as a LevelError event and leaves
// an empty playlist, so StartDownloads finishes without writing anything.
func (m *Manager) Initialize(ctx context.Context, input string) error {
	id, err := spotify.ResolveIdentifier(input)
	if err != nil {
		return err
	}

	m.reason = nil
	m.playlist = model.NewPlaylist(id, "", "", m.settings.ToPathConfig())
	atomic.StoreInt32(&m.totalFiles, 0)
	atomic.StoreInt32(&m.downloadedFiles, 0)
	atomic.StoreInt64(&m.receivedBytes, 0)

	embedURL := spotify.EmbedURL(m.settings.ServiceOrigin, id)
	m.progress(ProgressEvent{Message: fmt.Sprintf("Fetching playlist page: %s", embedURL), Level: LevelVerbose})

	html, err := m.httpClient.GetString(ctx, embedURL, http.WithHeader("Content-Type", "application/json"))
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		m.reason = errors.Mark(err, ErrFetchFailed)
		m.progress(ProgressEvent{Message: fmt.Sprintf("Error fetching playlist data: %v", err), Level: LevelError})
		return nil
	}

	pl, err := m.parser.ParseEmbedPage(id, html)
	if err != nil {
		m.reason = err
		m.progress(ProgressEvent{Message: fmt.Sprintf("Error parsing playlist page: %v", err), Level: LevelError})
		return nil
	}

	m.playlist = pl
	atomic.StoreInt32(&m.totalFiles, int32(len(pl.Tracks)))
	if len(pl.Tracks) == 0 {
		m.reason = ErrNoPreviews
	}

	m.progress(ProgressEvent{Message: fmt.Sprintf("Found playlist: %s (%d tracks with previews)", pl.DisplayName(), len(pl.Tracks)), Level: LevelInfo})
	return nil
}

// StartDownloads saves the preview of every track found by Initialize.
//
// With no tracks it reports "No tracks with audio previews found." and
// creates nothing. Otherwise the playlist directory is created and tracks
// are downloaded in order; with MaxConcurrentTracksDownload == 1 each
// download finishes before the next starts. A failed track is reported and
// recorded in the Report; the remaining tracks still run.
//
// The error is non-nil only when the directory cannot be created or ctx is
// cancelled. The Report is returned in both cases.
func (m *Manager) StartDownloads(ctx context.Context) (*Report, error) {
	if m.playlist == nil {
		return nil, errNotInitialized
	}

	pl := m.playlist
	report := &Report{
		RunID:      m.runID,
		Identifier: pl.Identifier,
		Total:      len(pl.Tracks),
	}

	if len(pl.Tracks) == 0 {
		report.Reason = m.reason
		if report.Reason == nil {
			report.Reason = ErrNoPreviews
		}
		m.progress(ProgressEvent{Message: "No tracks with audio previews found.", Level: LevelInfo})
		return report, nil
	}

	if ioutils.DirExists(pl.Path) {
		m.progress(ProgressEvent{Message: fmt.Sprintf("Writing into existing directory %s", pl.Path), Level: LevelVerbose})
	}
	if err := ioutils.EnsureDir(pl.Path); err != nil {
		m.progress(ProgressEvent{Message: fmt.Sprintf("Error creating directory: %v", err), Level: LevelError})
		return report, err
	}
	report.Directory = pl.Path

	m.warnCollisions(pl.Tracks)
	artwork := m.prepareArtwork(ctx, pl)

	results := m.downloadTracks(ctx, pl.Tracks, artwork)
	for i, err := range results {
		if err != nil {
			report.Failed = append(report.Failed, Failure{Track: pl.Tracks[i], Err: err})
		} else {
			report.Downloaded = append(report.Downloaded, pl.Tracks[i])
		}
	}

	if m.settings.CreatePlaylist && len(report.Downloaded) > 0 {
		content := m.playlistCreator.CreatePlaylist(pl, report.Downloaded)
		if err := ioutils.WriteFile(ctx, pl.PlaylistPath, []byte(content)); err != nil {
			m.progress(ProgressEvent{Message: fmt.Sprintf("Error creating playlist: %v", err), Level: LevelWarning})
		} else {
			m.progress(ProgressEvent{Message: fmt.Sprintf("Created playlist for %s", pl.DisplayName()), Level: LevelSuccess})
		}
	}

	if err := ctx.Err(); err != nil {
		return report, err
	}

	if report.OK() {
		m.progress(ProgressEvent{Message: fmt.Sprintf("Successfully downloaded %d previews to %s", len(report.Downloaded), pl.Path), Level: LevelSuccess})
	} else {
		m.progress(ProgressEvent{Message: fmt.Sprintf("Finished %s, %d of %d previews failed", pl.DisplayName(), len(report.Failed), report.Total), Level: LevelWarning})
	}

	return report, nil
}

// GetProgress returns current download progress.
func (m *Manager) GetProgress() (received int64, filesReceived, filesTotal int32) {
	return atomic.LoadInt64(&m.receivedBytes),
		atomic.LoadInt32(&m.downloadedFiles), atomic.LoadInt32(&m.totalFiles)
}

// downloadTracks returns one error slot per track, in track order.
func (m *Manager) downloadTracks(ctx context.Context, tracks []*model.Track, artwork []byte) []error {
	results := make([]error, len(tracks))

	if m.settings.MaxConcurrentTracksDownload <= 1 {
		for i, track := range tracks {
			if err := ctx.Err(); err != nil {
				results[i] = err
				continue
			}
			results[i] = m.downloadTrack(ctx, track, artwork)
		}
		return results
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.settings.MaxConcurrentTracksDownload)
	for i, track := range tracks {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i] = err
				return nil
			}
			results[i] = m.downloadTrack(gctx, track, artwork)
			return nil // continue with other tracks
		})
	}
	_ = g.Wait()

	return results
}

func (m *Manager) downloadTrack(ctx context.Context, track *model.Track, artwork []byte) error {
	var (
		err       error
		lastBytes int64
	)
	onProgress := func(written, total int64) {
		atomic.AddInt64(&m.receivedBytes, written-lastBytes)
		lastBytes = written
	}

	// at least one attempt, even with unvalidated settings
	attempts := max(1, m.settings.DownloadMaxRetries)
	for tries := 0; tries < attempts; tries++ {
		lastBytes = 0
		_, err = m.httpClient.DownloadFile(ctx, track.PreviewURL, track.Path, onProgress)
		if err == nil || ctx.Err() != nil {
			break
		}
		if tries+1 < attempts {
			m.progress(ProgressEvent{Message: fmt.Sprintf("Retry %d/%d for %s", tries+1, attempts-1, track.Title), Level: LevelWarning})
			m.waitForRetry(ctx, tries)
		}
	}

	if err != nil {
		m.progress(ProgressEvent{Message: fmt.Sprintf("Error downloading %s: %v", track.FileName, err), Level: LevelError})
		return err
	}

	atomic.AddInt32(&m.downloadedFiles, 1)

	if m.settings.ModifyTags || artwork != nil {
		if err := m.tagger.SaveTags(track, artwork); err != nil {
			m.progress(ProgressEvent{Message: fmt.Sprintf("Error tagging %s: %v", track.FileName, err), Level: LevelWarning})
		}
	}

	m.progress(ProgressEvent{Message: fmt.Sprintf("Downloaded: %s", track.FileName), Level: LevelInfo})
	return nil
}

// prepareArtwork downloads the cover art when any cover option is enabled,
// saves it next to the previews if requested, and returns the bytes to
// embed in tags (nil when tags should not carry artwork).
func (m *Manager) prepareArtwork(ctx context.Context, pl *model.Playlist) []byte {
	if !(m.settings.SaveCoverArtInFolder || m.settings.SaveCoverArtInTags) || !pl.HasArtwork() {
		return nil
	}

	artwork, err := m.httpClient.DownloadBytes(ctx, pl.CoverArtURL)
	if err != nil {
		m.progress(ProgressEvent{Message: fmt.Sprintf("Error downloading cover art: %v", err), Level: LevelWarning})
		return nil
	}

	size := m.settings.CoverArtMaxSize
	if resized, err := m.imageService.ResizeImage(ctx, artwork, size, size); err == nil {
		artwork = resized
	} else {
		m.progress(ProgressEvent{Message: fmt.Sprintf("Could not resize cover art: %v", err), Level: LevelVerbose})
	}

	if m.settings.SaveCoverArtInFolder {
		if err := ioutils.WriteFile(ctx, pl.ArtworkPath, artwork); err != nil {
			m.progress(ProgressEvent{Message: fmt.Sprintf("Error saving cover art: %v", err), Level: LevelWarning})
		}
	}

	m.progress(ProgressEvent{Message: fmt.Sprintf("Downloaded cover art for %s", pl.DisplayName()), Level: LevelVerbose})

	if !m.settings.SaveCoverArtInTags {
		return nil
	}
	return artwork
}

// warnCollisions reports tracks whose file names coincide. The later track
// overwrites the earlier one on disk.
func (m *Manager) warnCollisions(tracks []*model.Track) {
	seen := make(map[string]*model.Track, len(tracks))
	for _, track := range tracks {
		if prev, ok := seen[track.Path]; ok {
			m.progress(ProgressEvent{
				Message: fmt.Sprintf("%q and %q both save as %s; the later one overwrites the earlier", prev.Title, track.Title, track.FileName),
				Level:   LevelWarning,
			})
		}
		seen[track.Path] = track
	}
}

func (m *Manager) waitForRetry(ctx context.Context, tries int) {
	select {
	case <-ctx.Done():
	case <-time.After(m.settings.RetryCooldown(tries)):
	}
}

func (m *Manager) progress(event ProgressEvent) {
	if m.onProgress == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onProgress(event)
}
