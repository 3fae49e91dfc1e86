package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/page", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Seen-Content-Type", r.Header.Get("Content-Type"))
		w.Header().Set("X-Seen-User-Agent", r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte("<html>ok</html>"))
	})
	mux.HandleFunc("/audio.mp3", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Seen-User-Agent", r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte("ID3-audio-bytes"))
	})
	mux.HandleFunc("/missing", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_GetString(t *testing.T) {
	srv := newTestServer(t)
	client := NewClient()

	var seen string
	body, err := client.GetString(context.Background(), srv.URL+"/page",
		WithHeader("Content-Type", "application/json"),
		func(r *http.Request) { seen = r.Header.Get("Content-Type") },
	)
	require.NoError(t, err)
	assert.Equal(t, "<html>ok</html>", body)
	assert.Equal(t, "application/json", seen)
}

func TestClient_GetString_NotFound(t *testing.T) {
	srv := newTestServer(t)
	client := NewClient()

	_, err := client.GetString(context.Background(), srv.URL+"/missing")
	require.Error(t, err)

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusNotFound, se.Code)
}

func TestClient_DownloadFile(t *testing.T) {
	srv := newTestServer(t)
	client := NewClient(WithTimeout(5*time.Second), WithUserAgent("test-agent"))
	dest := filepath.Join(t.TempDir(), "preview.mp3")

	// existing content is overwritten
	require.NoError(t, os.WriteFile(dest, []byte("old content that is longer"), 0644))

	var lastWritten int64
	n, err := client.DownloadFile(context.Background(), srv.URL+"/audio.mp3", dest, func(written, total int64) {
		lastWritten = written
	})
	require.NoError(t, err)
	assert.Equal(t, int64(len("ID3-audio-bytes")), n)
	assert.Equal(t, n, lastWritten)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "ID3-audio-bytes", string(data))
}

func TestClient_UserAgentOnlyOnPageFetch(t *testing.T) {
	var (
		mu   sync.Mutex
		seen []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen = append(seen, r.URL.Path+" "+r.Header.Get("User-Agent"))
		mu.Unlock()
		_, _ = w.Write([]byte("x"))
	}))
	t.Cleanup(srv.Close)

	client := NewClient(WithUserAgent("test-agent"))
	ctx := context.Background()

	_, err := client.GetString(ctx, srv.URL+"/page")
	require.NoError(t, err)
	_, err = client.DownloadFile(ctx, srv.URL+"/audio.mp3", filepath.Join(t.TempDir(), "a.mp3"), nil)
	require.NoError(t, err)
	_, err = client.DownloadBytes(ctx, srv.URL+"/cover.jpg")
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seen, 3)
	assert.Equal(t, "/page test-agent", seen[0])
	assert.NotContains(t, seen[1], "test-agent")
	assert.NotContains(t, seen[2], "test-agent")
}

func TestClient_DownloadFile_NonSuccessCreatesNothing(t *testing.T) {
	srv := newTestServer(t)
	client := NewClient()
	dest := filepath.Join(t.TempDir(), "missing.mp3")

	_, err := client.DownloadFile(context.Background(), srv.URL+"/missing", dest, nil)
	require.Error(t, err)

	_, statErr := os.Stat(dest)
	assert.True(t, os.IsNotExist(statErr))
}

func TestClient_DownloadFile_EmptyURL(t *testing.T) {
	client := NewClient()
	_, err := client.DownloadFile(context.Background(), "", filepath.Join(t.TempDir(), "x.mp3"), nil)
	assert.Error(t, err)
}

func TestClient_RateLimitCancelled(t *testing.T) {
	srv := newTestServer(t)
	client := NewClient(WithRateLimit(0.001))

	// first request consumes the single burst token
	_, err := client.Get(context.Background(), srv.URL+"/page")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = client.Get(ctx, srv.URL+"/page")
	assert.Error(t, err)
}

func TestProgressWriter(t *testing.T) {
	var calls int
	pw := &ProgressWriter{
		Writer:   &discard{},
		Total:    10,
		OnUpdate: func(written, total int64) { calls++ },
	}
	_, _ = pw.Write([]byte("hello"))
	_, _ = pw.Write([]byte("world"))
	assert.Equal(t, int64(10), pw.Written)
	assert.Equal(t, 2, calls)
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }
