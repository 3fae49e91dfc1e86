package download

import (
	"context"
	"encoding/json"
	"fmt"
	nethttp "net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/handiism/spotify-preview-downloader/internal/config"
	"github.com/handiism/spotify-preview-downloader/internal/http"
	"github.com/handiism/spotify-preview-downloader/internal/spotify"
)

type fakeTrack struct {
	title      string
	hasPreview bool
	status     int // status for the preview request, 0 means 200
}

type fakeSpotify struct {
	*httptest.Server

	pageStatus      atomic.Int32
	pageBody        atomic.Value
	tracks          []fakeTrack
	pageContentType atomic.Value
	pageUserAgent   atomic.Value
	previewHits     sync.Map

	previewDelay atomic.Int64
	inflight     int32
	maxInflight  int32
}

func newFakeSpotify(t *testing.T, tracks ...fakeTrack) *fakeSpotify {
	t.Helper()

	fs := &fakeSpotify{tracks: tracks}
	mux := nethttp.NewServeMux()
	mux.HandleFunc("/embed/playlist/", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		fs.pageContentType.Store(r.Header.Get("Content-Type"))
		fs.pageUserAgent.Store(r.Header.Get("User-Agent"))
		if status := fs.pageStatus.Load(); status != 0 {
			w.WriteHeader(int(status))
			return
		}
		if body, _ := fs.pageBody.Load().(string); body != "" {
			fmt.Fprint(w, body)
			return
		}
		fmt.Fprint(w, fs.embedPage())
	})
	mux.HandleFunc("/preview/", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		var i int
		_, err := fmt.Sscanf(strings.TrimPrefix(r.URL.Path, "/preview/"), "%d", &i)
		if err != nil || i >= len(fs.tracks) {
			nethttp.NotFound(w, r)
			return
		}
		hits, _ := fs.previewHits.LoadOrStore(i, new(int32))
		atomic.AddInt32(hits.(*int32), 1)

		n := atomic.AddInt32(&fs.inflight, 1)
		defer atomic.AddInt32(&fs.inflight, -1)
		for {
			peak := atomic.LoadInt32(&fs.maxInflight)
			if n <= peak || atomic.CompareAndSwapInt32(&fs.maxInflight, peak, n) {
				break
			}
		}
		time.Sleep(time.Duration(fs.previewDelay.Load()))

		if status := fs.tracks[i].status; status != 0 {
			w.WriteHeader(status)
			return
		}
		fmt.Fprint(w, previewBody(i))
	})

	fs.Server = httptest.NewServer(mux)
	t.Cleanup(fs.Close)
	return fs
}

func (fs *fakeSpotify) embedPage() string {
	items := make([]map[string]any, 0, len(fs.tracks))
	for i, tr := range fs.tracks {
		item := map[string]any{
			"uri":      fmt.Sprintf("spotify:track:%d", i),
			"title":    tr.title,
			"subtitle": "Artist",
			"duration": 30000,
		}
		if tr.hasPreview {
			item["audioPreview"] = map[string]any{"format": "MP3_96", "url": fmt.Sprintf("%s/preview/%d", fs.URL, i)}
		} else {
			item["audioPreview"] = nil
		}
		items = append(items, item)
	}

	data := map[string]any{
		"props": map[string]any{"pageProps": map[string]any{"state": map[string]any{"data": map[string]any{
			"entity": map[string]any{"name": "Test Playlist", "trackList": items},
		}}}},
	}
	raw, _ := json.Marshal(data)
	return `<html><head><script id="__NEXT_DATA__" type="application/json">` + string(raw) + `</script></head></html>`
}

func (fs *fakeSpotify) hits(i int) int32 {
	v, ok := fs.previewHits.Load(i)
	if !ok {
		return 0
	}
	return atomic.LoadInt32(v.(*int32))
}

func previewBody(i int) string {
	return fmt.Sprintf("preview-bytes-%d", i)
}

func testSettings(t *testing.T, origin string) *config.Settings {
	t.Helper()
	s := config.DefaultSettings()
	s.ServiceOrigin = origin
	s.DownloadsPath = filepath.Join(t.TempDir(), "rawData", "{playlist}")
	s.DownloadRetryCooldown = 0
	return s
}

type eventLog struct {
	mu     sync.Mutex
	events []ProgressEvent
}

func (l *eventLog) record(e ProgressEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

func (l *eventLog) messages(level ProgressLevel) []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []string
	for _, e := range l.events {
		if e.Level == level {
			out = append(out, e.Message)
		}
	}
	return out
}

func (l *eventLog) contains(substr string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.events {
		if strings.Contains(e.Message, substr) {
			return true
		}
	}
	return false
}

func TestManager_Run_DownloadsEveryPreview(t *testing.T) {
	fs := newFakeSpotify(t,
		fakeTrack{title: "Song: Name!", hasPreview: true},
		fakeTrack{title: "Locked", hasPreview: false},
		fakeTrack{title: "Another One", hasPreview: true},
	)
	settings := testSettings(t, fs.URL)
	log := &eventLog{}

	m := NewManager(settings, log.record)
	report, err := m.Run(context.Background(), "abc")
	require.NoError(t, err)

	assert.Equal(t, 2, report.Total)
	assert.Len(t, report.Downloaded, 2)
	assert.True(t, report.OK())
	assert.NoError(t, report.Reason)
	assert.Equal(t, m.RunID(), report.RunID)
	assert.NotEmpty(t, report.RunID)

	dir := filepath.Join(filepath.Dir(settings.DownloadsPath), "abc")
	assert.Equal(t, dir, report.Directory)

	got, err := os.ReadFile(filepath.Join(dir, "song_name_.mp3"))
	require.NoError(t, err)
	assert.Equal(t, previewBody(0), string(got))

	got, err = os.ReadFile(filepath.Join(dir, "another_one.mp3"))
	require.NoError(t, err)
	assert.Equal(t, previewBody(2), string(got))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	assert.Equal(t, int32(0), fs.hits(1))
	assert.Equal(t, "application/json", fs.pageContentType.Load())
	assert.Equal(t, settings.UserAgent, fs.pageUserAgent.Load())

	received, done, total := m.GetProgress()
	assert.Equal(t, int64(len(previewBody(0))+len(previewBody(2))), received)
	assert.Equal(t, int32(2), done)
	assert.Equal(t, int32(2), total)

	assert.True(t, log.contains("Downloaded: song_name_.mp3"))
	assert.NotEmpty(t, log.messages(LevelSuccess))
	assert.Empty(t, log.messages(LevelError))
}

func TestManager_Run_FailedTrackDoesNotStopOthers(t *testing.T) {
	fs := newFakeSpotify(t,
		fakeTrack{title: "First", hasPreview: true},
		fakeTrack{title: "Broken", hasPreview: true, status: nethttp.StatusInternalServerError},
		fakeTrack{title: "Third", hasPreview: true},
	)
	settings := testSettings(t, fs.URL)
	log := &eventLog{}

	report, err := NewManager(settings, log.record).Run(context.Background(), "abc")
	require.NoError(t, err)

	assert.False(t, report.OK())
	assert.Len(t, report.Downloaded, 2)
	require.Len(t, report.Failed, 1)
	assert.Equal(t, "Broken", report.Failed[0].Track.Title)

	var statusErr *http.StatusError
	require.True(t, errors.As(report.Failed[0].Err, &statusErr))
	assert.Equal(t, nethttp.StatusInternalServerError, statusErr.Code)

	assert.FileExists(t, filepath.Join(report.Directory, "first.mp3"))
	assert.FileExists(t, filepath.Join(report.Directory, "third.mp3"))
	assert.NoFileExists(t, filepath.Join(report.Directory, "broken.mp3"))

	errs := log.messages(LevelError)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "broken.mp3")

	// default settings make a single attempt
	assert.Equal(t, int32(1), fs.hits(1))
}

func TestManager_Run_RetriesFailedDownloads(t *testing.T) {
	fs := newFakeSpotify(t, fakeTrack{title: "Flaky", hasPreview: true, status: nethttp.StatusBadGateway})
	settings := testSettings(t, fs.URL)
	settings.DownloadMaxRetries = 3
	log := &eventLog{}

	report, err := NewManager(settings, log.record).Run(context.Background(), "abc")
	require.NoError(t, err)

	require.Len(t, report.Failed, 1)
	assert.Equal(t, int32(3), fs.hits(0))
	assert.Len(t, log.messages(LevelWarning), 3) // two retries plus the summary
}

func TestManager_Run_PageNotFound(t *testing.T) {
	fs := newFakeSpotify(t, fakeTrack{title: "Unused", hasPreview: true})
	fs.pageStatus.Store(nethttp.StatusNotFound)
	settings := testSettings(t, fs.URL)
	log := &eventLog{}

	m := NewManager(settings, log.record)
	report, err := m.Run(context.Background(), "abc")
	require.NoError(t, err)

	assert.Equal(t, 0, report.Total)
	assert.Empty(t, report.Downloaded)
	assert.Empty(t, report.Directory)
	assert.True(t, errors.Is(report.Reason, ErrFetchFailed))
	assert.NoDirExists(t, filepath.Join(filepath.Dir(settings.DownloadsPath), "abc"))

	require.NotNil(t, m.Playlist())
	assert.Empty(t, m.Playlist().Tracks)
	assert.Len(t, log.messages(LevelError), 1)
	assert.True(t, log.contains("No tracks with audio previews found."))
	assert.Equal(t, int32(0), fs.hits(0))
}

func TestManager_Run_NoEmbeddedData(t *testing.T) {
	fs := newFakeSpotify(t)
	fs.pageBody.Store("<html><body>maintenance</body></html>")
	settings := testSettings(t, fs.URL)
	log := &eventLog{}

	report, err := NewManager(settings, log.record).Run(context.Background(), "abc")
	require.NoError(t, err)

	assert.True(t, errors.Is(report.Reason, spotify.ErrNoEmbeddedData))
	assert.NoDirExists(t, filepath.Join(filepath.Dir(settings.DownloadsPath), "abc"))
	assert.True(t, log.contains("Error parsing playlist page"))
	assert.True(t, log.contains("No tracks with audio previews found."))
}

func TestManager_Run_NoPreviews(t *testing.T) {
	fs := newFakeSpotify(t, fakeTrack{title: "Locked", hasPreview: false})
	settings := testSettings(t, fs.URL)
	log := &eventLog{}

	report, err := NewManager(settings, log.record).Run(context.Background(), "abc")
	require.NoError(t, err)

	assert.True(t, errors.Is(report.Reason, ErrNoPreviews))
	assert.Empty(t, report.Directory)
	assert.Empty(t, log.messages(LevelError))
	assert.True(t, log.contains("No tracks with audio previews found."))
}

func TestManager_Run_IdentifierIsSanitizedForDirectory(t *testing.T) {
	fs := newFakeSpotify(t, fakeTrack{title: "Song", hasPreview: true})
	settings := testSettings(t, fs.URL)

	report, err := NewManager(settings, nil).Run(context.Background(), "abc?si=123")
	require.NoError(t, err)

	assert.Equal(t, "abc?si=123", report.Identifier)
	assert.Equal(t, "abc_si_123", filepath.Base(report.Directory))
	assert.FileExists(t, filepath.Join(report.Directory, "song.mp3"))
}

func TestManager_Run_CollidingNamesKeepLaterTrack(t *testing.T) {
	fs := newFakeSpotify(t,
		fakeTrack{title: "Hello!", hasPreview: true},
		fakeTrack{title: "Hello?", hasPreview: true},
	)
	settings := testSettings(t, fs.URL)
	log := &eventLog{}

	report, err := NewManager(settings, log.record).Run(context.Background(), "abc")
	require.NoError(t, err)
	assert.Len(t, report.Downloaded, 2)

	got, err := os.ReadFile(filepath.Join(report.Directory, "hello_.mp3"))
	require.NoError(t, err)
	assert.Equal(t, previewBody(1), string(got))

	warnings := log.messages(LevelWarning)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "hello_.mp3")
}

func TestManager_Run_Concurrent(t *testing.T) {
	var tracks []fakeTrack
	for i := range 10 {
		tracks = append(tracks, fakeTrack{title: fmt.Sprintf("Track %d", i), hasPreview: true})
	}
	fs := newFakeSpotify(t, tracks...)
	settings := testSettings(t, fs.URL)
	settings.MaxConcurrentTracksDownload = 4

	report, err := NewManager(settings, nil).Run(context.Background(), "abc")
	require.NoError(t, err)

	require.Len(t, report.Downloaded, 10)
	for i, track := range report.Downloaded {
		assert.Equal(t, fmt.Sprintf("Track %d", i), track.Title)
		got, err := os.ReadFile(track.Path)
		require.NoError(t, err)
		assert.Equal(t, previewBody(i), string(got))
	}
}

func TestManager_Run_SequentialByDefault(t *testing.T) {
	var tracks []fakeTrack
	for i := range 5 {
		tracks = append(tracks, fakeTrack{title: fmt.Sprintf("Track %d", i), hasPreview: true})
	}
	fs := newFakeSpotify(t, tracks...)
	fs.previewDelay.Store(int64(20 * time.Millisecond))

	report, err := NewManager(testSettings(t, fs.URL), nil).Run(context.Background(), "abc")
	require.NoError(t, err)

	assert.Len(t, report.Downloaded, 5)
	assert.Equal(t, int32(1), atomic.LoadInt32(&fs.maxInflight))
}

func TestManager_Run_ZeroRetriesStillAttemptsOnce(t *testing.T) {
	fs := newFakeSpotify(t, fakeTrack{title: "One", hasPreview: true})
	settings := testSettings(t, fs.URL)
	settings.DownloadMaxRetries = 0

	report, err := NewManager(settings, nil).Run(context.Background(), "abc")
	require.NoError(t, err)

	require.Len(t, report.Downloaded, 1)
	assert.Equal(t, int32(1), fs.hits(0))
	assert.FileExists(t, filepath.Join(report.Directory, "one.mp3"))
}

func TestManager_Initialize_ResetsProgress(t *testing.T) {
	fs := newFakeSpotify(t, fakeTrack{title: "One", hasPreview: true})
	settings := testSettings(t, fs.URL)

	m := NewManager(settings, nil)
	_, err := m.Run(context.Background(), "abc")
	require.NoError(t, err)

	received, done, total := m.GetProgress()
	assert.Equal(t, int64(len(previewBody(0))), received)
	assert.Equal(t, int32(1), done)
	assert.Equal(t, int32(1), total)

	fs.pageStatus.Store(nethttp.StatusNotFound)
	require.NoError(t, m.Initialize(context.Background(), "abc"))

	received, done, total = m.GetProgress()
	assert.Zero(t, received)
	assert.Zero(t, done)
	assert.Zero(t, total)
}

func TestManager_Run_WritesPlaylistFile(t *testing.T) {
	fs := newFakeSpotify(t,
		fakeTrack{title: "One", hasPreview: true},
		fakeTrack{title: "Two", hasPreview: true},
	)
	settings := testSettings(t, fs.URL)
	settings.CreatePlaylist = true
	settings.M3UExtended = false

	m := NewManager(settings, nil)
	_, err := m.Run(context.Background(), "abc")
	require.NoError(t, err)

	got, err := os.ReadFile(m.Playlist().PlaylistPath)
	require.NoError(t, err)
	assert.Equal(t, "abc.m3u", filepath.Base(m.Playlist().PlaylistPath))
	assert.Contains(t, string(got), "one.mp3")
	assert.Contains(t, string(got), "two.mp3")
}

func TestManager_Run_CancelledContext(t *testing.T) {
	fs := newFakeSpotify(t, fakeTrack{title: "One", hasPreview: true})
	settings := testSettings(t, fs.URL)

	m := NewManager(settings, nil)
	require.NoError(t, m.Initialize(context.Background(), "abc"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := m.StartDownloads(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, report)
	require.Len(t, report.Failed, 1)
	assert.ErrorIs(t, report.Failed[0].Err, context.Canceled)
	assert.Equal(t, int32(0), fs.hits(0))
}

func TestManager_Initialize_InvalidInput(t *testing.T) {
	m := NewManager(config.DefaultSettings(), nil)
	err := m.Initialize(context.Background(), "  ")
	require.Error(t, err)
	assert.True(t, errors.Is(err, spotify.ErrInvalidInput))
	assert.Nil(t, m.Playlist())
}

func TestManager_StartDownloads_NotInitialized(t *testing.T) {
	m := NewManager(config.DefaultSettings(), nil)
	report, err := m.StartDownloads(context.Background())
	assert.Nil(t, report)
	assert.ErrorIs(t, err, errNotInitialized)
}

func TestProgressLevel_String(t *testing.T) {
	assert.Equal(t, "info", LevelInfo.String())
	assert.Equal(t, "verbose", LevelVerbose.String())
	assert.Equal(t, "warning", LevelWarning.String())
	assert.Equal(t, "error", LevelError.String())
	assert.Equal(t, "success", LevelSuccess.String())
}
