package scraper

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"eromedl/internal/downloader"
	"eromedl/pkg/config"
	"eromedl/pkg/erome"
	errs "eromedl/pkg/errors"
	"eromedl/pkg/logger"
	"eromedl/pkg/models"
	"eromedl/pkg/queue"
	"eromedl/pkg/ratelimit"
	"eromedl/pkg/storage"
	"eromedl/pkg/ui"
)

// Scraper runs albums through fetch, download, archive, queue update and
// cooldown
type Scraper struct {
	fetcher    AlbumFetcher
	downloader AlbumDownloader
	storage    *storage.Manager
	queue      *queue.WorkQueue
	cooldown   ratelimit.Limiter
	reporter   ui.Reporter
	notifier   *ui.Notifier
	tracker    *ui.StatusTracker
	config     *config.Config
	logger     logger.Logger
}

// New wires a Scraper from configuration
func New(cfg *config.Config) (*Scraper, error) {
	log := logger.GetLogger()

	store, err := storage.NewManager(cfg.Output.BaseDirectory, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage manager: %w", err)
	}

	q, err := queue.Load(cfg.Output.QueueFile, log.WithField("component", "queue"))
	if err != nil {
		return nil, fmt.Errorf("failed to load queue: %w", err)
	}

	client := erome.NewClient(cfg, log)
	filePacer := ratelimit.NewRandomInterval(cfg.Pacing.FileDelayMin, cfg.Pacing.FileDelayMax)
	cooldown := ratelimit.NewRandomInterval(cfg.Pacing.CooldownMin, cfg.Pacing.CooldownMax)

	s := &Scraper{
		fetcher:    client,
		downloader: downloader.NewCoordinator(client, &cfg.Download, filePacer, log),
		storage:    store,
		queue:      q,
		cooldown:   cooldown,
		notifier:   ui.NewNotifier(cfg.Notifications.Enabled, cfg.Notifications.OnComplete, cfg.Notifications.OnError),
		tracker:    ui.NewStatusTracker(),
		config:     cfg,
		logger:     log.WithField("component", "pipeline"),
	}
	s.SetReporter(nil)

	filePacer.OnWait = func(d time.Duration) {
		logger.LogWait(s.logger, "next file", d)
		s.reporter.Waiting("next file", d)
	}
	cooldown.OnWait = func(d time.Duration) {
		s.logger.WithField("wait", d.Round(time.Second)).Info("Waiting before finishing album")
		s.reporter.Waiting("cooldown", d)
	}
	client.OnRetry = func(pageURL string, attempt int, err error, wait time.Duration) {
		s.reporter.LogWarning("Attempt %d/%d failed: %v", attempt, cfg.Retry.MaxAttempts, err)
		s.reporter.Waiting("retry", wait)
	}

	return s, nil
}

// SetReporter installs the progress sink; nil restores the no-op reporter
func (s *Scraper) SetReporter(r ui.Reporter) {
	if r == nil {
		r = ui.NopReporter{}
	}
	s.reporter = r
	s.downloader.SetProgress(r)
}

// SetNotifier replaces the desktop notifier
func (s *Scraper) SetNotifier(n *ui.Notifier) {
	s.notifier = n
}

// Notifier returns the desktop notifier
func (s *Scraper) Notifier() *ui.Notifier {
	return s.notifier
}

// Queue returns the work queue
func (s *Scraper) Queue() *queue.WorkQueue {
	return s.queue
}

// Tracker returns the run totals
func (s *Scraper) Tracker() *ui.StatusTracker {
	return s.tracker
}

// albumRun carries one album through the pipeline
type albumRun struct {
	s      *Scraper
	result *models.AlbumResult
	start  time.Time
}

func (a *albumRun) transition(to models.AlbumState) {
	logger.LogStateTransition(a.s.logger, a.result.Album.URL, a.result.State.String(), to.String())
	a.result.State = to
	a.s.reporter.StateChanged(a.result.Album.URL, to)
}

func (a *albumRun) fail(err error) (*models.AlbumResult, error) {
	a.result.Error = err
	a.transition(models.StateFailed)
	a.finish()
	return a.result, err
}

func (a *albumRun) finish() {
	a.result.Duration = time.Since(a.start)
	a.s.tracker.Record(a.result)
	a.s.reporter.AlbumFinished(a.result)
	a.s.notifier.AlbumFinished(a.result)
}

// DumpAlbum processes one album. The host check and a page fetch that
// exhausts its retries fail the album and are returned as errors. Archive
// and queue failures are logged and the album still completes; an album
// whose archive could not be written stays queued for the next run.
func (s *Scraper) DumpAlbum(ctx context.Context, albumURL, profile string) (*models.AlbumResult, error) {
	run := &albumRun{
		s:      s,
		result: &models.AlbumResult{Album: &models.Album{URL: albumURL, Profile: profile}, State: models.StatePending},
		start:  time.Now(),
	}
	log := s.logger.WithField("album", albumURL)

	if _, err := s.fetcher.ValidateURL(albumURL); err != nil {
		return run.fail(err)
	}

	run.transition(models.StateFetching)
	album, err := s.fetcher.FetchAlbum(ctx, albumURL, erome.Options{
		SkipVideos: s.config.Download.SkipVideos,
		SkipImages: s.config.Download.SkipImages,
	})
	if err != nil {
		log.WithError(err).Error("Failed to fetch album")
		return run.fail(err)
	}
	album.Profile = profile
	run.result.Album = album
	s.reporter.AlbumFetched(album)

	run.transition(models.StateDownloading)
	dir, err := s.storage.EnsureAlbumDir(profile, album.Title)
	if err != nil {
		return run.fail(errs.Wrap(errs.ErrorTypeFilesystem, "failed to create album directory", err))
	}
	if len(album.MediaURLs) == 0 {
		log.Warn("Album has no media")
	}

	summary := s.downloader.DownloadAlbum(ctx, albumURL, album.MediaURLs, s.config.Download.MaxConnections, dir)
	for _, res := range summary.Results {
		run.result.Add(res)
	}
	if err := ctx.Err(); err != nil {
		// Leave the partial directory and the queue entry for the next run
		return run.fail(err)
	}

	run.transition(models.StateArchiving)
	zipPath, err := s.storage.ArchiveAndRemove(dir)
	if err != nil {
		log.WithError(err).Error("Failed to archive album")
		s.reporter.LogError("Failed to archive %s: %v", dir, err)
	}
	run.result.ZipPath = zipPath

	run.transition(models.StateQueueUpdate)
	if zipPath == "" {
		log.Warn("Album not archived, keeping it in the queue")
		s.reporter.LogWarning("Keeping %s in the queue", albumURL)
	} else if err := s.queue.MarkDone(albumURL); err != nil {
		log.WithError(err).Error("Failed to update queue")
		s.reporter.LogError("Failed to update queue: %v", err)
	}

	run.transition(models.StateCooldown)
	if err := s.cooldown.Wait(ctx); err != nil {
		return run.fail(err)
	}

	run.transition(models.StateDone)
	log.InfoWithFields("Album completed", map[string]interface{}{
		"downloaded": run.result.Downloaded,
		"skipped":    run.result.Skipped,
		"failed":     run.result.Failed,
		"bytes":      run.result.Bytes,
		"zip":        zipPath,
	})
	run.finish()
	return run.result, nil
}

// DumpProfile discovers a profile's albums, rewrites the queue with them and
// processes each into a directory named after the profile
func (s *Scraper) DumpProfile(ctx context.Context, profileURL string) ([]*models.AlbumResult, error) {
	u, err := s.fetcher.ValidateURL(profileURL)
	if err != nil {
		return nil, err
	}
	profile := ProfileName(u.Path)
	if profile == storage.DefaultTitle {
		s.logger.WithField("profile", profileURL).Warn("No profile name in URL, using default")
		s.reporter.LogWarning("No profile name in %s, saving under %q", profileURL, profile)
	}

	s.reporter.LogInfo("Collecting albums of %s", profile)
	albums, err := s.fetcher.FetchProfileAlbums(ctx, profileURL)
	if err != nil {
		return nil, fmt.Errorf("failed to collect profile albums: %w", err)
	}

	s.logger.InfoWithFields("Profile albums collected", map[string]interface{}{
		"profile": profile,
		"albums":  len(albums),
	})
	if len(albums) == 0 {
		s.reporter.LogWarning("No albums found for %s", profile)
		return nil, nil
	}

	if err := s.queue.Replace(albums); err != nil {
		return nil, fmt.Errorf("failed to write queue: %w", err)
	}

	return s.processAll(ctx, albums, profile)
}

// Run adds extraURLs to the queue and processes everything pending, in
// order. URLs on another host are rejected before anything is queued.
func (s *Scraper) Run(ctx context.Context, extraURLs []string) ([]*models.AlbumResult, error) {
	for _, raw := range extraURLs {
		if _, err := s.fetcher.ValidateURL(raw); err != nil {
			return nil, err
		}
	}

	if added, err := s.queue.Add(extraURLs...); err != nil {
		return nil, fmt.Errorf("failed to add URLs to queue: %w", err)
	} else if added > 0 {
		s.reporter.LogInfo("Queued %d new URL(s)", added)
	}

	pending := s.queue.Pending()
	if len(pending) == 0 {
		s.reporter.LogInfo("Queue is empty")
		return nil, nil
	}

	return s.processAll(ctx, pending, "")
}

// processAll runs each album in turn, stopping at the first failure unless
// continue_on_error is set. Cancellation always stops.
func (s *Scraper) processAll(ctx context.Context, urls []string, profile string) ([]*models.AlbumResult, error) {
	s.tracker.SetAlbumsTotal(len(urls))

	var results []*models.AlbumResult
	var failures []error
	for i, albumURL := range urls {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		s.reporter.AlbumStarted(albumURL, i+1, len(urls))
		res, err := s.DumpAlbum(ctx, albumURL, profile)
		results = append(results, res)
		if err == nil {
			continue
		}

		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return results, err
		}
		if !s.config.Download.ContinueOnError {
			return results, err
		}
		s.reporter.LogError("Skipping %s: %v", albumURL, err)
		failures = append(failures, fmt.Errorf("%s: %w", albumURL, err))
	}

	return results, errors.Join(failures...)
}

// ProfileName derives the directory name for a profile from its URL path
func ProfileName(urlPath string) string {
	name := path.Base(strings.TrimRight(urlPath, "/"))
	if name == "." || name == "/" {
		name = ""
	}
	return storage.SanitizeTitle(name)
}
