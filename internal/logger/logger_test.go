package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"debug":   zerolog.DebugLevel,
		"DEBUG":   zerolog.DebugLevel,
		"":        zerolog.InfoLevel,
		"info":    zerolog.InfoLevel,
		"warn":    zerolog.WarnLevel,
		"warning": zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"chatty":  zerolog.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, parseLevel(in), "level %q", in)
	}
}

func TestNew_FileOutputWritesJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "run.log")

	log, closer, err := New(Config{Output: "file", File: path, Level: "warn"})
	require.NoError(t, err)

	log.Info().Msg("dropped")
	log.Warn().Str("track", "song.mp3").Msg("retrying")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "retrying", entry["message"])
	assert.Equal(t, "song.mp3", entry["track"])
	assert.Contains(t, entry, "time")
}

func TestNew_Errors(t *testing.T) {
	_, _, err := New(Config{Output: "file"})
	assert.Error(t, err)

	_, _, err = New(Config{Output: "syslog"})
	assert.Error(t, err)
}

func TestNew_ConsoleOutput(t *testing.T) {
	_, closer, err := New(Config{Output: "stderr", NoColor: true})
	require.NoError(t, err)
	assert.NoError(t, closer.Close())
}
