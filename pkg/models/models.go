package models

import "time"

// Album is one album page resolved to its downloadable media
type Album struct {
	URL       string   `json:"url"`
	Title     string   `json:"title"`
	Profile   string   `json:"profile,omitempty"`
	MediaURLs []string `json:"media_urls"`
	Videos    int      `json:"videos"`
	Images    int      `json:"images"`
}

// MediaItem is a single file belonging to an album
type MediaItem struct {
	URL          string `json:"url"`
	FileName     string `json:"file_name"`
	ExpectedSize int64  `json:"expected_size"`
	Path         string `json:"path"`
}

// AlbumState is the pipeline stage an album is in
type AlbumState int

const (
	StatePending AlbumState = iota
	StateFetching
	StateDownloading
	StateArchiving
	StateQueueUpdate
	StateCooldown
	StateDone
	StateFailed
)

var stateNames = map[AlbumState]string{
	StatePending:     "pending",
	StateFetching:    "fetching",
	StateDownloading: "downloading",
	StateArchiving:   "archiving",
	StateQueueUpdate: "queue-update",
	StateCooldown:    "cooldown",
	StateDone:        "done",
	StateFailed:      "failed",
}

func (s AlbumState) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// Terminal reports whether no further stage follows
func (s AlbumState) Terminal() bool {
	return s == StateDone || s == StateFailed
}

// FileStatus is the outcome of one media download
type FileStatus string

const (
	FileDownloaded FileStatus = "downloaded"
	FileSkipped    FileStatus = "skipped"
	FileFailed     FileStatus = "failed"
)

// DownloadResult records what happened to one media file
type DownloadResult struct {
	Item     MediaItem
	Status   FileStatus
	Bytes    int64
	Duration time.Duration
	Error    error
}

// AlbumResult summarises one processed album
type AlbumResult struct {
	Album      *Album
	State      AlbumState
	Downloaded int
	Skipped    int
	Failed     int
	Bytes      int64
	ZipPath    string
	Duration   time.Duration
	Error      error
}

// Add folds a per-file result into the album totals
func (r *AlbumResult) Add(res DownloadResult) {
	switch res.Status {
	case FileDownloaded:
		r.Downloaded++
	case FileSkipped:
		r.Skipped++
	case FileFailed:
		r.Failed++
	}
	r.Bytes += res.Bytes
}

// Total returns the number of files accounted for
func (r *AlbumResult) Total() int {
	return r.Downloaded + r.Skipped + r.Failed
}
