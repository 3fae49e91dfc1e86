package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/handiism/spotify-preview-downloader/internal/config"
)

func TestRun_StartsTUIWithLoadedSettings(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "settings.yml")
	require.NoError(t, os.WriteFile(cfg, []byte("max_concurrent_tracks: 3\n"), 0o644))

	var got *config.Settings
	code := run([]string{"--config", cfg, "--log-file", filepath.Join(dir, "tui.log")}, &bytes.Buffer{}, func(s *config.Settings) error {
		got = s
		return nil
	})

	assert.Equal(t, 0, code)
	require.NotNil(t, got)
	assert.Equal(t, 3, got.MaxConcurrentTracksDownload)
}

func TestRun_ErrorPathsFlushLogFile(t *testing.T) {
	tests := []struct {
		name    string
		config  string
		tuiErr  error
		wantLog string
	}{
		{name: "invalid config", config: "max_concurrent_tracks: 99\n", wantLog: "Error loading config"},
		{name: "tui failure", config: "", tuiErr: errors.New("no tty"), wantLog: "TUI exited"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			cfg := filepath.Join(dir, "settings.yml")
			require.NoError(t, os.WriteFile(cfg, []byte(tt.config), 0o644))
			logPath := filepath.Join(dir, "tui.log")

			var stderr bytes.Buffer
			code := run([]string{"--config", cfg, "--log-file", logPath}, &stderr, func(*config.Settings) error {
				return tt.tuiErr
			})

			assert.Equal(t, 1, code)
			assert.NotEmpty(t, stderr.String())

			data, err := os.ReadFile(logPath)
			require.NoError(t, err)
			assert.Contains(t, string(data), tt.wantLog)
		})
	}
}

func TestRun_BadFlag(t *testing.T) {
	var stderr bytes.Buffer
	assert.Equal(t, 1, run([]string{"--nope"}, &stderr, func(*config.Settings) error { return nil }))
	assert.Contains(t, stderr.String(), "nope")
}
