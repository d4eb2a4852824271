package ui

import (
	"time"

	"eromedl/pkg/models"
)

// Reporter receives pipeline events. The file methods mirror the download
// coordinator's progress hooks, so a Reporter can be installed there directly.
type Reporter interface {
	AlbumStarted(albumURL string, index, total int)
	StateChanged(albumURL string, state models.AlbumState)
	AlbumFetched(album *models.Album)
	AlbumFinished(res *models.AlbumResult)

	FileStarted(name string, total int64)
	FileProgress(name string, written int64)
	FileFinished(res models.DownloadResult)

	Waiting(reason string, d time.Duration)

	LogInfo(format string, args ...interface{})
	LogSuccess(format string, args ...interface{})
	LogWarning(format string, args ...interface{})
	LogError(format string, args ...interface{})
}

// NopReporter discards every event
type NopReporter struct{}

func (NopReporter) AlbumStarted(string, int, int)          {}
func (NopReporter) StateChanged(string, models.AlbumState) {}
func (NopReporter) AlbumFetched(*models.Album)             {}
func (NopReporter) AlbumFinished(*models.AlbumResult)      {}
func (NopReporter) FileStarted(string, int64)              {}
func (NopReporter) FileProgress(string, int64)             {}
func (NopReporter) FileFinished(models.DownloadResult)     {}
func (NopReporter) Waiting(string, time.Duration)          {}
func (NopReporter) LogInfo(string, ...interface{})         {}
func (NopReporter) LogSuccess(string, ...interface{})      {}
func (NopReporter) LogWarning(string, ...interface{})      {}
func (NopReporter) LogError(string, ...interface{})        {}
