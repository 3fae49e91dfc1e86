package tui

import (
	"fmt"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/handiism/spotify-preview-downloader/internal/config"
	"github.com/handiism/spotify-preview-downloader/internal/download"
	"github.com/handiism/spotify-preview-downloader/internal/model"
)

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	got, ok := next.(Model)
	require.True(t, ok)
	return got, cmd
}

func TestModel_TogglesOptions(t *testing.T) {
	m := NewModel(config.DefaultSettings())
	assert.False(t, m.playlist)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlP})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlT})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlL})

	assert.True(t, m.playlist)
	assert.True(t, m.tags)
	assert.True(t, m.verbose)
	assert.False(t, m.coverArt)

	s := m.runSettings()
	assert.True(t, s.CreatePlaylist)
	assert.True(t, s.ModifyTags)
	assert.False(t, m.settings.CreatePlaylist, "base settings stay untouched")
}

func TestModel_EnterWithoutInputStaysIdle(t *testing.T) {
	m := NewModel(nil)
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, StateInput, m.state)
}

func TestModel_ProgressLogs(t *testing.T) {
	m := NewModel(nil)

	m, cmd := update(t, m, ProgressMsg{Event: download.ProgressEvent{Message: "hidden", Level: download.LevelVerbose}})
	assert.NotNil(t, cmd, "keeps listening for events")
	assert.Empty(t, m.logs)

	for i := range maxLogs + 5 {
		m, _ = update(t, m, ProgressMsg{Event: download.ProgressEvent{Message: fmt.Sprintf("event %d", i), Level: download.LevelInfo}})
	}
	require.Len(t, m.logs, maxLogs)
	assert.Equal(t, "event 5", m.logs[0].Message)
	assert.Equal(t, fmt.Sprintf("event %d", maxLogs+4), m.logs[maxLogs-1].Message)
}

func TestModel_InitError(t *testing.T) {
	m := NewModel(nil)
	m.state = StateInitializing

	m, _ = update(t, m, InitDoneMsg{Err: errors.New("invalid playlist identifier")})
	assert.Equal(t, StateError, m.state)
	assert.Contains(t, m.View(), "invalid playlist identifier")
}

func TestModel_DownloadDone(t *testing.T) {
	pl := model.NewPlaylist("abc", "Road Trip", "", &model.PathConfig{DownloadsPath: "data/rawData/{playlist}"})
	cfg := &model.TrackConfig{FileNameFormat: "{title}.mp3"}
	ok := model.NewTrack(pl, 1, "Kept", "", 30, "u1", cfg)
	bad := model.NewTrack(pl, 2, "Broken Song", "", 30, "u2", cfg)

	m := NewModel(nil)
	m.state = StateDownloading
	m.playlistName = pl.DisplayName()

	m, _ = update(t, m, DownloadDoneMsg{
		Report: &download.Report{
			Total:      2,
			Directory:  pl.Path,
			Downloaded: []*model.Track{ok},
			Failed:     []download.Failure{{Track: bad, Err: errors.New("500")}},
		},
		Files:  1,
		TotalF: 2,
	})

	assert.Equal(t, StateComplete, m.state)
	view := m.View()
	assert.Contains(t, view, "Road Trip")
	assert.Contains(t, view, "Previews: 1/2")
	assert.Contains(t, view, "Broken Song")
}

func TestModel_DownloadDoneWithoutTracks(t *testing.T) {
	m := NewModel(nil)
	m.state = StateDownloading

	m, _ = update(t, m, DownloadDoneMsg{Report: &download.Report{}})
	assert.Equal(t, StateComplete, m.state)
	assert.Contains(t, m.View(), "No tracks with audio previews found.")
}

func TestModel_CancelAndReset(t *testing.T) {
	m := NewModel(nil)
	m.state = StateDownloading

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, StateError, m.state)
	assert.Error(t, m.ctx.Err())

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	assert.Equal(t, StateInput, m.state)
	assert.NoError(t, m.ctx.Err())
	assert.Empty(t, m.logs)
}

func TestModel_QuitFromInput(t *testing.T) {
	m := NewModel(nil)
	_, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
}
