package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"eromedl/pkg/models"
	"eromedl/pkg/ui"
)

// TUI is the full-screen Reporter. Events are forwarded to the bubbletea
// program as messages.
type TUI struct {
	program *tea.Program
	model   *Model
}

var _ ui.Reporter = (*TUI)(nil)

// NewTUI creates a new TUI instance
func NewTUI(maxConcurrent int, opts ...tea.ProgramOption) *TUI {
	model := NewModel(maxConcurrent)
	opts = append([]tea.ProgramOption{tea.WithAltScreen()}, opts...)
	program := tea.NewProgram(&model, opts...)

	return &TUI{
		program: program,
		model:   &model,
	}
}

// Start runs the program until the user quits or Finish is called
func (t *TUI) Start() error {
	_, err := t.program.Run()
	return err
}

// Stop stops the TUI gracefully
func (t *TUI) Stop() {
	t.program.Quit()
}

// Send sends a message to the TUI
func (t *TUI) Send(msg tea.Msg) {
	if t.program != nil {
		t.program.Send(msg)
	}
}

// Finish shows the run outcome and closes the program
func (t *TUI) Finish(summary string, err error) {
	t.Send(DoneMsg{Summary: summary, Err: err})
}

func (t *TUI) AlbumStarted(albumURL string, index, total int) {
	t.Send(AlbumStartMsg{URL: albumURL, Index: index, Total: total})
}

func (t *TUI) StateChanged(albumURL string, state models.AlbumState) {
	t.Send(StateMsg{URL: albumURL, State: state})
}

func (t *TUI) AlbumFetched(album *models.Album) {
	t.Send(AlbumFetchedMsg{Album: album})
}

func (t *TUI) AlbumFinished(res *models.AlbumResult) {
	t.Send(AlbumDoneMsg{Result: res})
}

func (t *TUI) FileStarted(name string, total int64) {
	t.Send(FileStartMsg{Name: name, Total: total})
}

func (t *TUI) FileProgress(name string, written int64) {
	t.Send(FileProgressMsg{Name: name, Written: written})
}

func (t *TUI) FileFinished(res models.DownloadResult) {
	t.Send(FileDoneMsg{Result: res})
}

func (t *TUI) Waiting(reason string, d time.Duration) {
	t.Send(WaitMsg{Reason: reason, Duration: d})
}

// Log sends a log message to the TUI
func (t *TUI) Log(level, format string, args ...interface{}) {
	t.Send(LogMsg{Level: level, Message: fmt.Sprintf(format, args...)})
}

// LogInfo logs an info message
func (t *TUI) LogInfo(format string, args ...interface{}) {
	t.Log("INFO", format, args...)
}

// LogSuccess logs a success message
func (t *TUI) LogSuccess(format string, args ...interface{}) {
	t.Log("SUCCESS", format, args...)
}

// LogWarning logs a warning message
func (t *TUI) LogWarning(format string, args ...interface{}) {
	t.Log("WARN", format, args...)
}

// LogError logs an error message
func (t *TUI) LogError(format string, args ...interface{}) {
	t.Log("ERROR", format, args...)
}
