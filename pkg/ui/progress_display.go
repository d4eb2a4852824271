package ui

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"eromedl/pkg/models"
)

// ProgressDisplay is the console Reporter. It keeps a single in-place
// progress line for the file being downloaded and prints one line per
// album event. In debug mode every file gets its own line instead.
type ProgressDisplay struct {
	mu sync.Mutex

	album       string
	albumIndex  int
	albumTotal  int
	currentFile string
	fileTotal   int64
	fileWritten int64
	fileStart   time.Time
	lineActive  bool
	isDebug     bool
}

// NewProgressDisplay creates a new progress display
func NewProgressDisplay(debug bool) *ProgressDisplay {
	return &ProgressDisplay{isDebug: debug}
}

var _ Reporter = (*ProgressDisplay)(nil)

// AlbumStarted prints the album header
func (p *ProgressDisplay) AlbumStarted(albumURL string, index, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.album = albumURL
	p.albumIndex = index
	p.albumTotal = total
	p.println(fmt.Sprintf("%s %s", Magenta(fmt.Sprintf("[%d/%d]", index, total)), albumURL))
}

// StateChanged prints stage transitions in debug mode
func (p *ProgressDisplay) StateChanged(albumURL string, state models.AlbumState) {
	if !p.isDebug {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.println(fmt.Sprintf("%s %s", Dim("→"), state))
}

// AlbumFetched prints what the album page contained
func (p *ProgressDisplay) AlbumFetched(album *models.Album) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.println(fmt.Sprintf("  %s %s • %d videos • %d images • %d files",
		Cyan("album"), album.Title, album.Videos, album.Images, len(album.MediaURLs)))
}

// AlbumFinished prints the album summary
func (p *ProgressDisplay) AlbumFinished(res *models.AlbumResult) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if res.State != models.StateDone {
		p.println(fmt.Sprintf("  %s %v", Red("✗"), res.Error))
		return
	}

	line := fmt.Sprintf("  %s %d downloaded • %d skipped • %s",
		Green("✓"), res.Downloaded, res.Skipped, FormatBytes(res.Bytes))
	if res.Failed > 0 {
		line += " • " + Red(fmt.Sprintf("%d failed", res.Failed))
	}
	if res.ZipPath != "" {
		line += " • " + Dim(res.ZipPath)
	}
	p.println(line)
}

// FileStarted begins the in-place progress line for a file
func (p *ProgressDisplay) FileStarted(name string, total int64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.currentFile = name
	p.fileTotal = total
	p.fileWritten = 0
	p.fileStart = time.Now()
	if !p.isDebug {
		p.printProgress()
	}
}

// FileProgress updates the in-place progress line
func (p *ProgressDisplay) FileProgress(name string, written int64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if name != p.currentFile {
		return
	}
	p.fileWritten = written
	if !p.isDebug {
		p.printProgress()
	}
}

// FileFinished clears the progress line and reports skips and failures
func (p *ProgressDisplay) FileFinished(res models.DownloadResult) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if res.Item.FileName == p.currentFile {
		p.currentFile = ""
	}

	switch res.Status {
	case models.FileSkipped:
		p.println(fmt.Sprintf("  %s %s %s", Yellow("#"), res.Item.FileName, Dim("[already downloaded]")))
	case models.FileFailed:
		p.println(fmt.Sprintf("  %s %s: %v", Red("✗"), res.Item.URL, res.Error))
	case models.FileDownloaded:
		if p.isDebug {
			p.println(fmt.Sprintf("  %s %s • %s • %s",
				Green("✓"), res.Item.FileName, FormatBytes(res.Bytes), formatDuration(res.Duration)))
		} else {
			p.clearLine()
		}
	}
}

// Waiting announces a pacing pause
func (p *ProgressDisplay) Waiting(reason string, d time.Duration) {
	if !p.isDebug && d < time.Second {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.println(fmt.Sprintf("  %s waiting %s %s", Dim("…"), formatDuration(d), Dim(reason)))
}

func (p *ProgressDisplay) LogInfo(format string, args ...interface{}) {
	p.log(Cyan("*"), format, args...)
}

func (p *ProgressDisplay) LogSuccess(format string, args ...interface{}) {
	p.log(Green("✓"), format, args...)
}

func (p *ProgressDisplay) LogWarning(format string, args ...interface{}) {
	p.log(Yellow("!"), format, args...)
}

// LogError is printed even in quiet mode
func (p *ProgressDisplay) LogError(format string, args ...interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clearLine()
	fmt.Fprintf(Output(), "%s %s\n", Red("✗"), fmt.Sprintf(format, args...))
}

func (p *ProgressDisplay) log(prefix, format string, args ...interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.println(prefix + " " + fmt.Sprintf(format, args...))
}

// println writes a full line, first clearing any active progress line
func (p *ProgressDisplay) println(line string) {
	if IsQuietMode() {
		return
	}
	p.clearLine()
	fmt.Fprintln(Output(), line)
}

func (p *ProgressDisplay) clearLine() {
	if !p.lineActive {
		return
	}
	fmt.Fprintf(Output(), "\r%s\r", strings.Repeat(" ", 100))
	p.lineActive = false
}

// printProgress redraws the single-line file progress bar
func (p *ProgressDisplay) printProgress() {
	if IsQuietMode() {
		return
	}

	const barWidth = 20
	filled := 0
	if p.fileTotal > 0 {
		filled = int(p.fileWritten * barWidth / p.fileTotal)
		if filled > barWidth {
			filled = barWidth
		}
	}
	bar := strings.Repeat("━", filled) + strings.Repeat("─", barWidth-filled)

	var speed string
	if elapsed := time.Since(p.fileStart).Seconds(); elapsed > 0 {
		speed = FormatBytes(int64(float64(p.fileWritten)/elapsed)) + "/s"
	}

	line := fmt.Sprintf("\r  %s [%s] %s/%s • %s",
		Cyan(p.currentFile),
		bar,
		FormatBytes(p.fileWritten),
		FormatBytes(p.fileTotal),
		speed,
	)
	fmt.Fprintf(Output(), "\r%s\r%s", strings.Repeat(" ", 100), line)
	p.lineActive = true
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	} else if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	} else if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}
