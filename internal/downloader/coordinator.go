package downloader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"eromedl/pkg/config"
	errs "eromedl/pkg/errors"
	"eromedl/pkg/logger"
	"eromedl/pkg/models"
	"eromedl/pkg/ratelimit"
	"eromedl/pkg/storage"
)

// Requester sends an HTTP request with the given extra headers
type Requester interface {
	Do(ctx context.Context, method, rawURL string, headers map[string]string) (*http.Response, error)
}

// Progress receives per-file download events
type Progress interface {
	FileStarted(name string, total int64)
	FileProgress(name string, written int64)
	FileFinished(res models.DownloadResult)
}

type nopProgress struct{}

func (nopProgress) FileStarted(string, int64)          {}
func (nopProgress) FileProgress(string, int64)         {}
func (nopProgress) FileFinished(models.DownloadResult) {}

// AlbumDownloadSummary collects the per-file outcomes of one album
type AlbumDownloadSummary struct {
	Results      []models.DownloadResult
	Downloaded   int
	Skipped      int
	Failed       int
	Bytes        int64
	PeakInFlight int
}

func (s *AlbumDownloadSummary) add(res models.DownloadResult) {
	s.Results = append(s.Results, res)
	switch res.Status {
	case models.FileDownloaded:
		s.Downloaded++
	case models.FileSkipped:
		s.Skipped++
	case models.FileFailed:
		s.Failed++
	}
	s.Bytes += res.Bytes
}

// Coordinator downloads the media of an album into a directory
type Coordinator struct {
	client    Requester
	pacer     ratelimit.Limiter
	tolerance int64
	chunkSize int
	parallel  bool
	timeout   time.Duration
	progress  Progress
	logger    logger.Logger
}

// NewCoordinator creates a coordinator. pacer is waited on after every file;
// nil disables pacing.
func NewCoordinator(client Requester, cfg *config.DownloadConfig, pacer ratelimit.Limiter, log logger.Logger) *Coordinator {
	if log == nil {
		log = logger.GetLogger()
	}
	chunk := cfg.ChunkSize
	if chunk <= 0 {
		chunk = 1024
	}
	return &Coordinator{
		client:    client,
		pacer:     pacer,
		tolerance: cfg.SizeTolerance,
		chunkSize: chunk,
		parallel:  cfg.Parallel,
		timeout:   cfg.DownloadTimeout,
		progress:  nopProgress{},
		logger:    log.WithField("component", "downloader"),
	}
}

// SetProgress installs a progress receiver; nil restores the no-op receiver
func (c *Coordinator) SetProgress(p Progress) {
	if p == nil {
		p = nopProgress{}
	}
	c.progress = p
}

// DownloadAlbum downloads every media URL into destDir. At most
// maxConcurrency downloads are in flight. Files are handled one at a time
// unless parallel mode is enabled. A failed file never stops the album.
func (c *Coordinator) DownloadAlbum(ctx context.Context, albumURL string, mediaURLs []string, maxConcurrency int, destDir string) AlbumDownloadSummary {
	if maxConcurrency < 1 {
		maxConcurrency = 1
	}
	g := &gate{sem: semaphore.NewWeighted(int64(maxConcurrency))}

	c.logger.InfoWithFields("Downloading album", map[string]interface{}{
		"album":    albumURL,
		"files":    len(mediaURLs),
		"parallel": c.parallel,
		"limit":    maxConcurrency,
	})

	var summary AlbumDownloadSummary
	if c.parallel && maxConcurrency > 1 {
		summary = c.downloadParallel(ctx, g, albumURL, mediaURLs, maxConcurrency, destDir)
	} else {
		summary = c.downloadSequential(ctx, g, albumURL, mediaURLs, destDir)
	}
	summary.PeakInFlight = int(g.peak.Load())
	return summary
}

func (c *Coordinator) downloadSequential(ctx context.Context, g *gate, albumURL string, mediaURLs []string, destDir string) AlbumDownloadSummary {
	var summary AlbumDownloadSummary
	for _, mediaURL := range mediaURLs {
		if ctx.Err() != nil {
			break
		}

		res, err := g.run(ctx, func() models.DownloadResult {
			return c.DownloadFile(ctx, albumURL, mediaURL, destDir)
		})
		if err != nil {
			break
		}
		summary.add(res)

		if err := c.pace(ctx); err != nil {
			break
		}
	}
	return summary
}

func (c *Coordinator) downloadParallel(ctx context.Context, g *gate, albumURL string, mediaURLs []string, workers int, destDir string) AlbumDownloadSummary {
	pool := NewWorkerPool(ctx, workers, func(ctx context.Context, job FileJob) models.DownloadResult {
		res, err := g.run(ctx, func() models.DownloadResult {
			return c.DownloadFile(ctx, job.AlbumURL, job.MediaURL, job.DestDir)
		})
		if err != nil {
			return models.DownloadResult{
				Item:   models.MediaItem{URL: job.MediaURL},
				Status: models.FileFailed,
				Error:  err,
			}
		}
		return res
	}, c.logger)
	pool.Start()

	ordered := make([]*models.DownloadResult, len(mediaURLs))
	done := make(chan struct{})
	go func() {
		defer close(done)
		for jr := range pool.Results() {
			res := jr.Result
			ordered[jr.Job.Index] = &res
		}
	}()

	for i, mediaURL := range mediaURLs {
		if err := pool.Submit(FileJob{Index: i, AlbumURL: albumURL, MediaURL: mediaURL, DestDir: destDir}); err != nil {
			break
		}
		if err := c.pace(ctx); err != nil {
			break
		}
	}
	pool.Stop()
	<-done

	var summary AlbumDownloadSummary
	for _, res := range ordered {
		if res != nil {
			summary.add(*res)
		}
	}
	return summary
}

func (c *Coordinator) pace(ctx context.Context) error {
	if c.pacer == nil {
		return ctx.Err()
	}
	return c.pacer.Wait(ctx)
}

// DownloadFile fetches one media file into destDir. An existing file within
// the size tolerance of the remote length is skipped; when the file exists
// a HEAD request is tried first so a skip costs no GET.
func (c *Coordinator) DownloadFile(ctx context.Context, albumURL, mediaURL, destDir string) models.DownloadResult {
	start := time.Now()
	name := storage.FileName(mediaURL)
	item := models.MediaItem{URL: mediaURL, FileName: name, Path: filepath.Join(destDir, name)}

	finish := func(status models.FileStatus, written int64, err error) models.DownloadResult {
		res := models.DownloadResult{
			Item:     item,
			Status:   status,
			Bytes:    written,
			Duration: time.Since(start),
			Error:    err,
		}
		logger.LogDownload(c.logger, albumURL, name, written, status == models.FileSkipped, err)
		c.progress.FileFinished(res)
		return res
	}

	if name == "" {
		return finish(models.FileFailed, 0, errs.New(errs.ErrorTypeValidation, fmt.Sprintf("no file name in %q", mediaURL), 0))
	}

	headers := map[string]string{"Referer": albumURL}
	existing, exists := storage.ExistingSize(item.Path)

	if exists {
		if expected, ok := c.headLength(ctx, mediaURL, headers); ok {
			item.ExpectedSize = expected
			if storage.WithinTolerance(existing, expected, c.tolerance) {
				return finish(models.FileSkipped, 0, nil)
			}
		}
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	resp, err := c.client.Do(ctx, http.MethodGet, mediaURL, headers)
	if err != nil {
		return finish(models.FileFailed, 0, err)
	}
	defer resp.Body.Close()

	if err := errs.FromStatus(resp.StatusCode, mediaURL); err != nil {
		c.logger.WithField("url", mediaURL).WithField("status", resp.StatusCode).Error("Failed to download")
		return finish(models.FileFailed, 0, err)
	}

	expected := resp.ContentLength
	if expected < 0 {
		expected = 0
	}
	item.ExpectedSize = expected

	if exists && storage.WithinTolerance(existing, expected, c.tolerance) {
		return finish(models.FileSkipped, 0, nil)
	}

	c.progress.FileStarted(name, expected)
	written, err := c.writeBody(resp.Body, item.Path, name)
	if err != nil {
		return finish(models.FileFailed, written, err)
	}
	return finish(models.FileDownloaded, written, nil)
}

// headLength asks the server for the declared length of mediaURL
func (c *Coordinator) headLength(ctx context.Context, mediaURL string, headers map[string]string) (int64, bool) {
	resp, err := c.client.Do(ctx, http.MethodHead, mediaURL, headers)
	if err != nil {
		return 0, false
	}
	resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 || resp.ContentLength < 0 {
		return 0, false
	}
	return resp.ContentLength, true
}

// writeBody streams body into a part file in fixed-size chunks
func (c *Coordinator) writeBody(body io.Reader, path, name string) (int64, error) {
	part, err := storage.CreatePartFile(path)
	if err != nil {
		return 0, errs.Wrap(errs.ErrorTypeFilesystem, "failed to open destination", err)
	}

	buf := make([]byte, c.chunkSize)
	var written int64
	for {
		n, readErr := body.Read(buf)
		if n > 0 {
			if _, err := part.Write(buf[:n]); err != nil {
				part.Abort()
				return written, errs.Wrap(errs.ErrorTypeFilesystem, "failed to write chunk", err)
			}
			written += int64(n)
			c.progress.FileProgress(name, written)
		}
		if errors.Is(readErr, io.EOF) {
			break
		}
		if readErr != nil {
			part.Abort()
			return written, errs.Wrap(errs.ErrorTypeNetwork, "failed to read body", readErr)
		}
	}

	if err := part.Commit(); err != nil {
		return written, errs.Wrap(errs.ErrorTypeFilesystem, "failed to finalize file", err)
	}
	return written, nil
}

// gate is the admission semaphore plus a record of peak concurrency
type gate struct {
	sem      *semaphore.Weighted
	inFlight atomic.Int32
	peak     atomic.Int32
}

func (g *gate) run(ctx context.Context, fn func() models.DownloadResult) (models.DownloadResult, error) {
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return models.DownloadResult{}, err
	}
	defer g.sem.Release(1)

	n := g.inFlight.Add(1)
	defer g.inFlight.Add(-1)
	for {
		p := g.peak.Load()
		if n <= p || g.peak.CompareAndSwap(p, n) {
			break
		}
	}

	return fn(), nil
}
