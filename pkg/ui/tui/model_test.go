package tui

import (
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"eromedl/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func send(m *Model, msgs ...tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	for _, msg := range msgs {
		_, cmd = m.Update(msg)
	}
	return cmd
}

func file(name string, status models.FileStatus, bytes int64) models.DownloadResult {
	return models.DownloadResult{
		Item:   models.MediaItem{FileName: name, URL: "https://cdn.test/" + name},
		Status: status,
		Bytes:  bytes,
	}
}

func TestModelAlbumLifecycle(t *testing.T) {
	model := NewModel(3)
	m := &model

	send(m,
		AlbumStartMsg{URL: "https://www.erome.com/a/x", Index: 1, Total: 2},
		StateMsg{State: models.StateFetching},
		AlbumFetchedMsg{Album: &models.Album{Title: "Beach Day", MediaURLs: []string{"a", "b", "c"}}},
		StateMsg{State: models.StateDownloading},
		FileStartMsg{Name: "a.mp4", Total: 1000},
		FileProgressMsg{Name: "a.mp4", Written: 500},
	)

	assert.Equal(t, "Beach Day", m.albumTitle)
	assert.Equal(t, 3, m.albumFiles)
	assert.Equal(t, models.StateDownloading, m.stage)

	active := m.GetActiveFiles()
	require.Len(t, active, 1)
	assert.Equal(t, int64(500), active[0].Downloaded)

	send(m,
		FileDoneMsg{Result: file("a.mp4", models.FileDownloaded, 1000)},
		FileDoneMsg{Result: file("b.jpg", models.FileSkipped, 0)},
		FileDoneMsg{Result: models.DownloadResult{Item: models.MediaItem{FileName: "c.jpg"}, Status: models.FileFailed, Error: errors.New("404")}},
	)

	assert.Empty(t, m.GetActiveFiles())
	assert.Len(t, m.GetFinishedFiles(), 3)
	assert.Equal(t, 0, m.activeFiles)
	assert.Equal(t, 1, m.filesDownloaded)
	assert.Equal(t, 1, m.filesSkipped)
	assert.Equal(t, 1, m.filesFailed)
	assert.Equal(t, int64(1000), m.totalSize)

	send(m, AlbumDoneMsg{Result: &models.AlbumResult{State: models.StateDone, ZipPath: "downloads/Beach Day.zip"}})
	assert.Equal(t, 1, m.albumsDone)

	// The next album starts with an empty file list but keeps session totals
	send(m, AlbumStartMsg{URL: "https://www.erome.com/a/y", Index: 2, Total: 2})
	assert.Empty(t, m.GetFinishedFiles())
	assert.Equal(t, "", m.albumTitle)
	assert.Equal(t, 1, m.filesDownloaded)
}

func TestModelWaitAndDone(t *testing.T) {
	model := NewModel(1)
	m := &model

	send(m, WaitMsg{Reason: "cooldown", Duration: 20 * time.Second})
	assert.Equal(t, "cooldown", m.waitReason)
	assert.WithinDuration(t, time.Now().Add(20*time.Second), m.waitUntil, time.Second)

	send(m, StateMsg{State: models.StateDone})
	assert.Empty(t, m.waitReason)

	cmd := send(m, DoneMsg{Summary: "1 album", Err: nil})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.True(t, m.finished)
}

func TestModelLogTrimming(t *testing.T) {
	model := NewModel(1)
	m := &model

	for i := 0; i < 60; i++ {
		send(m, LogMsg{Level: "INFO", Message: "line"})
	}
	assert.Len(t, m.logMessages, 50)

	send(m, tea.KeyMsg{Type: tea.KeyCtrlL})
	assert.Empty(t, m.logMessages)
}

func TestModelView(t *testing.T) {
	model := NewModel(2)
	m := &model

	assert.Equal(t, "Initializing...", m.View())

	send(m,
		tea.WindowSizeMsg{Width: 160, Height: 60},
		AlbumStartMsg{URL: "https://www.erome.com/a/x", Index: 1, Total: 1},
		AlbumFetchedMsg{Album: &models.Album{Title: "Beach Day", MediaURLs: []string{"a"}}},
		FileStartMsg{Name: "a.mp4", Total: 2048},
		WaitMsg{Reason: "next file", Duration: 3 * time.Second},
	)

	view := m.View()
	assert.Contains(t, view, "Beach Day")
	assert.Contains(t, view, "a.mp4")
	assert.Contains(t, view, "next file")
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		bytes    int64
		expected string
	}{
		{500, "500 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{1024 * 1024, "1.0 MB"},
		{5 * 1024 * 1024 * 1024, "5.0 GB"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, FormatBytes(tt.bytes))
	}
}

func TestFormatSpeed(t *testing.T) {
	assert.Equal(t, "1.0 KB/s", FormatSpeed(1024))
	assert.Equal(t, "1.0 MB/s", FormatSpeed(1024*1024))
	assert.Equal(t, "512.0 KB/s", FormatSpeed(512*1024))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
}
