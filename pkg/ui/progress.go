package ui

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"eromedl/pkg/models"
)

const (
	ProgressBar   = "█"
	ProgressEmpty = "░"
)

// StatusTracker accumulates totals across every album of a run
type StatusTracker struct {
	mu sync.Mutex

	AlbumsTotal     int
	AlbumsDone      int
	AlbumsFailed    int
	FilesDownloaded int
	FilesSkipped    int
	FilesFailed     int
	Bytes           int64
	StartTime       time.Time
}

// NewStatusTracker creates a new status tracker
func NewStatusTracker() *StatusTracker {
	return &StatusTracker{
		StartTime: time.Now(),
	}
}

// SetAlbumsTotal records how many albums the run will attempt
func (st *StatusTracker) SetAlbumsTotal(n int) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.AlbumsTotal = n
}

// Record folds an album result into the totals
func (st *StatusTracker) Record(res *models.AlbumResult) {
	if res == nil {
		return
	}
	st.mu.Lock()
	defer st.mu.Unlock()

	if res.State == models.StateDone {
		st.AlbumsDone++
	} else {
		st.AlbumsFailed++
	}
	st.FilesDownloaded += res.Downloaded
	st.FilesSkipped += res.Skipped
	st.FilesFailed += res.Failed
	st.Bytes += res.Bytes
}

// Processed returns the number of albums that reached a final state
func (st *StatusTracker) Processed() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.AlbumsDone + st.AlbumsFailed
}

// GetAlbumProgress returns a formatted progress bar over the run's albums
func (st *StatusTracker) GetAlbumProgress() string {
	st.mu.Lock()
	done, total := st.AlbumsDone+st.AlbumsFailed, st.AlbumsTotal
	st.mu.Unlock()

	const width = 20
	filled := 0
	if total > 0 {
		filled = done * width / total
	}
	if filled > width {
		filled = width
	}

	bar := strings.Repeat(ProgressBar, filled) +
		strings.Repeat(ProgressEmpty, width-filled)

	return fmt.Sprintf("[%s] %d/%d", bar, done, total)
}

// GetElapsedTime returns the elapsed time since tracking started
func (st *StatusTracker) GetElapsedTime() time.Duration {
	return time.Since(st.StartTime)
}

// Summary renders the run totals on one line
func (st *StatusTracker) Summary() string {
	st.mu.Lock()
	defer st.mu.Unlock()

	return fmt.Sprintf("%d albums archived, %d failed • %d files downloaded, %d skipped, %d failed • %s in %s",
		st.AlbumsDone, st.AlbumsFailed,
		st.FilesDownloaded, st.FilesSkipped, st.FilesFailed,
		FormatBytes(st.Bytes),
		time.Since(st.StartTime).Round(time.Second),
	)
}
