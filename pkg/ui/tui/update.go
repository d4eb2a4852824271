package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"eromedl/pkg/models"
)

// Message types for the TUI

// AlbumStartMsg is sent when the pipeline picks up an album
type AlbumStartMsg struct {
	URL   string
	Index int
	Total int
}

// StateMsg is sent on every album stage transition
type StateMsg struct {
	URL   string
	State models.AlbumState
}

// AlbumFetchedMsg carries the parsed album page
type AlbumFetchedMsg struct {
	Album *models.Album
}

// AlbumDoneMsg is sent when an album reaches a final state
type AlbumDoneMsg struct {
	Result *models.AlbumResult
}

// FileStartMsg is sent when a file body starts streaming
type FileStartMsg struct {
	Name  string
	Total int64
}

// FileProgressMsg is sent as chunks are written
type FileProgressMsg struct {
	Name    string
	Written int64
}

// FileDoneMsg is sent when a file is downloaded, skipped or failed
type FileDoneMsg struct {
	Result models.DownloadResult
}

// WaitMsg is sent before a pacing pause
type WaitMsg struct {
	Reason   string
	Duration time.Duration
}

// LogMsg is sent to add a log message
type LogMsg struct {
	Level   string
	Message string
}

// DoneMsg is sent once the whole run is over
type DoneMsg struct {
	Summary string
	Err     error
}

// TickMsg is sent periodically to update the UI
type TickMsg time.Time

// Update handles all messages and updates the model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.mu.Lock()
		m.width = msg.Width
		m.height = msg.Height
		m.mu.Unlock()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case TickMsg:
		// Regular redraw for wait countdowns and speeds
		return m, tickCmd()

	case AlbumStartMsg:
		m.StartAlbum(msg.URL, msg.Index, msg.Total)
		m.AddLogMessage("INFO", fmt.Sprintf("[%d/%d] %s", msg.Index, msg.Total, msg.URL))
		return m, nil

	case StateMsg:
		m.SetStage(msg.State)
		return m, nil

	case AlbumFetchedMsg:
		m.SetAlbum(msg.Album)
		m.AddLogMessage("INFO", fmt.Sprintf("%s: %d files", msg.Album.Title, len(msg.Album.MediaURLs)))
		return m, nil

	case AlbumDoneMsg:
		m.FinishAlbum(msg.Result)
		if msg.Result.State == models.StateDone {
			m.AddLogMessage("SUCCESS", "Archived: "+msg.Result.ZipPath)
		} else {
			m.AddLogMessage("ERROR", fmt.Sprintf("Album failed: %v", msg.Result.Error))
		}
		return m, nil

	case FileStartMsg:
		m.StartFile(msg.Name, msg.Total)
		return m, nil

	case FileProgressMsg:
		m.UpdateFile(msg.Name, msg.Written)
		return m, nil

	case FileDoneMsg:
		m.FinishFile(msg.Result)
		switch msg.Result.Status {
		case models.FileSkipped:
			m.AddLogMessage("INFO", "Skipped: "+msg.Result.Item.FileName)
		case models.FileFailed:
			m.AddLogMessage("ERROR", fmt.Sprintf("Failed: %s - %v", msg.Result.Item.FileName, msg.Result.Error))
		}
		return m, nil

	case WaitMsg:
		m.StartWait(msg.Reason, msg.Duration)
		return m, nil

	case LogMsg:
		m.AddLogMessage(msg.Level, msg.Message)
		return m, nil

	case DoneMsg:
		m.Finish(msg.Summary, msg.Err)
		return m, tea.Quit
	}

	return m, nil
}

// handleKeyPress handles keyboard input
func (m *Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "Q", "ctrl+c":
		return m, tea.Quit

	case "?":
		m.showHelp = !m.showHelp
		return m, nil

	case "ctrl+l":
		// Clear logs
		m.mu.Lock()
		m.logMessages = nil
		m.mu.Unlock()
		return m, nil
	}

	return m, nil
}

// Commands

// tickCmd returns a command that sends a tick message
func tickCmd() tea.Cmd {
	return tea.Tick(time.Millisecond*200, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}
