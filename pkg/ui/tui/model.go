package tui

import (
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"eromedl/pkg/models"
)

// FileState represents the state of a file download
type FileState int

const (
	FileActive FileState = iota
	FileCompleted
	FileSkipped
	FileFailed
)

// FileItem represents a single file of the current album
type FileItem struct {
	Name       string
	Size       int64
	Downloaded int64
	State      FileState
	StartTime  time.Time
	Error      error
}

// Speed returns the average transfer rate in bytes per second
func (f *FileItem) Speed() float64 {
	elapsed := time.Since(f.StartTime).Seconds()
	if elapsed <= 0 {
		return 0
	}
	return float64(f.Downloaded) / elapsed
}

// Model represents the TUI model
type Model struct {
	// UI components
	spinner      spinner.Model
	progressBars map[string]progress.Model

	// Current album
	albumURL   string
	albumTitle string
	albumIndex int
	albumTotal int
	albumFiles int
	stage      models.AlbumState

	// Files of the current album
	files         map[string]*FileItem
	fileOrder     []string
	activeFiles   int
	maxConcurrent int

	// Session stats
	albumsDone       int
	albumsFailed     int
	filesDownloaded  int
	filesSkipped     int
	filesFailed      int
	totalSize        int64
	sessionStartTime time.Time

	// Pacing
	waitReason string
	waitStart  time.Time
	waitUntil  time.Time

	// UI state
	width          int
	height         int
	showHelp       bool
	finished       bool
	summary        string
	finalErr       error
	logMessages    []LogMessage
	maxLogMessages int

	// Mutex for thread safety
	mu sync.RWMutex
}

// LogMessage represents a log entry
type LogMessage struct {
	Time    time.Time
	Level   string
	Message string
	Color   lipgloss.Color
}

// NewModel creates a new TUI model
func NewModel(maxConcurrent int) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(neonCyan)

	return Model{
		spinner:          s,
		progressBars:     make(map[string]progress.Model),
		files:            make(map[string]*FileItem),
		maxConcurrent:    maxConcurrent,
		sessionStartTime: time.Now(),
		maxLogMessages:   50,
	}
}

// Init initializes the model
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tickCmd())
}

// StartAlbum resets per-album state for the next album
func (m *Model) StartAlbum(albumURL string, index, total int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.albumURL = albumURL
	m.albumTitle = ""
	m.albumIndex = index
	m.albumTotal = total
	m.albumFiles = 0
	m.stage = models.StatePending
	m.files = make(map[string]*FileItem)
	m.fileOrder = nil
	m.progressBars = make(map[string]progress.Model)
	m.activeFiles = 0
}

// SetStage records the current album's pipeline stage
func (m *Model) SetStage(state models.AlbumState) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stage = state
	if state != models.StateCooldown {
		m.waitReason = ""
	}
}

// SetAlbum records the fetched album details
func (m *Model) SetAlbum(album *models.Album) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.albumTitle = album.Title
	m.albumFiles = len(album.MediaURLs)
}

// FinishAlbum counts a finished album
func (m *Model) FinishAlbum(res *models.AlbumResult) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if res.State == models.StateDone {
		m.albumsDone++
	} else {
		m.albumsFailed++
	}
	m.stage = res.State
	m.waitReason = ""
}

// StartFile adds an active file download
func (m *Model) StartFile(name string, size int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.files[name]; !ok {
		m.fileOrder = append(m.fileOrder, name)
	}
	m.files[name] = &FileItem{
		Name:      name,
		Size:      size,
		State:     FileActive,
		StartTime: time.Now(),
	}
	m.activeFiles++

	p := progress.New(progress.WithDefaultGradient())
	p.Width = 40
	m.progressBars[name] = p
}

// UpdateFile updates the bytes written for a file
func (m *Model) UpdateFile(name string, written int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if f, ok := m.files[name]; ok {
		f.Downloaded = written
	}
}

// FinishFile records the outcome of a file. Skipped and failed files never
// went through StartFile, so they are added here.
func (m *Model) FinishFile(res models.DownloadResult) {
	m.mu.Lock()
	defer m.mu.Unlock()

	name := res.Item.FileName
	f, ok := m.files[name]
	if !ok {
		f = &FileItem{Name: name, Size: res.Item.ExpectedSize, StartTime: time.Now()}
		m.files[name] = f
		m.fileOrder = append(m.fileOrder, name)
	} else if f.State == FileActive {
		m.activeFiles--
	}
	f.Error = res.Error

	switch res.Status {
	case models.FileDownloaded:
		f.State = FileCompleted
		f.Downloaded = res.Bytes
		m.filesDownloaded++
		m.totalSize += res.Bytes
	case models.FileSkipped:
		f.State = FileSkipped
		m.filesSkipped++
	default:
		f.State = FileFailed
		m.filesFailed++
	}
}

// StartWait records a pacing pause
func (m *Model) StartWait(reason string, d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.waitReason = reason
	m.waitStart = time.Now()
	m.waitUntil = m.waitStart.Add(d)
}

// Finish marks the run as complete
func (m *Model) Finish(summary string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.finished = true
	m.summary = summary
	m.finalErr = err
}

// AddLogMessage adds a log message
func (m *Model) AddLogMessage(level, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	color := dimWhite
	switch level {
	case "ERROR":
		color = lipgloss.Color("#FF0000")
	case "WARN":
		color = neonOrange
	case "SUCCESS":
		color = neonGreen
	case "INFO":
		color = neonCyan
	}

	m.logMessages = append(m.logMessages, LogMessage{
		Time:    time.Now(),
		Level:   level,
		Message: message,
		Color:   color,
	})

	// Keep only the last N messages
	if len(m.logMessages) > m.maxLogMessages {
		m.logMessages = m.logMessages[len(m.logMessages)-m.maxLogMessages:]
	}
}

// GetActiveFiles returns the files currently downloading
func (m *Model) GetActiveFiles() []*FileItem {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.filesIn(FileActive)
}

// GetFinishedFiles returns files that completed, were skipped or failed
func (m *Model) GetFinishedFiles() []*FileItem {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.filesIn(FileCompleted, FileSkipped, FileFailed)
}

func (m *Model) filesIn(states ...FileState) []*FileItem {
	var out []*FileItem
	for _, name := range m.fileOrder {
		f := m.files[name]
		if f == nil {
			continue
		}
		for _, s := range states {
			if f.State == s {
				out = append(out, f)
				break
			}
		}
	}
	return out
}

// averageSpeed returns session bytes per second; caller holds mu
func (m *Model) averageSpeed() float64 {
	elapsed := time.Since(m.sessionStartTime).Seconds()
	if elapsed <= 0 {
		return 0
	}
	return float64(m.totalSize) / elapsed
}

// FormatBytes formats bytes to human readable format
func FormatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

// FormatSpeed formats speed in bytes per second
func FormatSpeed(bytesPerSecond float64) string {
	return fmt.Sprintf("%s/s", FormatBytes(int64(bytesPerSecond)))
}
