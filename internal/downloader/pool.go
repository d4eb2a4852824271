package downloader

import (
	"context"
	"fmt"
	"sync"

	"eromedl/pkg/logger"
	"eromedl/pkg/models"
)

// FileJob is one media file queued for a worker
type FileJob struct {
	Index    int
	AlbumURL string
	MediaURL string
	DestDir  string
}

// JobResult pairs a finished job with its outcome
type JobResult struct {
	Job    FileJob
	Result models.DownloadResult
}

// ProcessFunc downloads a single file
type ProcessFunc func(ctx context.Context, job FileJob) models.DownloadResult

// WorkerPool runs file jobs on a fixed number of goroutines
type WorkerPool struct {
	numWorkers  int
	jobQueue    chan FileJob
	resultQueue chan JobResult
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	process     ProcessFunc
	logger      logger.Logger
}

// NewWorkerPool creates a pool whose workers stop when ctx is cancelled
func NewWorkerPool(ctx context.Context, numWorkers int, process ProcessFunc, log logger.Logger) *WorkerPool {
	if numWorkers < 1 {
		numWorkers = 1
	}
	if log == nil {
		log = logger.GetLogger()
	}
	ctx, cancel := context.WithCancel(ctx)

	return &WorkerPool{
		numWorkers:  numWorkers,
		jobQueue:    make(chan FileJob, numWorkers),
		resultQueue: make(chan JobResult, numWorkers),
		ctx:         ctx,
		cancel:      cancel,
		process:     process,
		logger:      log,
	}
}

// Start launches the workers
func (wp *WorkerPool) Start() {
	wp.logger.DebugWithFields("Starting worker pool", map[string]interface{}{
		"num_workers": wp.numWorkers,
	})

	for i := 0; i < wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

// Stop closes the job queue, waits for in-flight jobs and closes Results.
// Results must be drained concurrently or Stop can block.
func (wp *WorkerPool) Stop() {
	close(wp.jobQueue)
	wp.wg.Wait()
	close(wp.resultQueue)
	wp.cancel()

	wp.logger.Debug("Worker pool stopped")
}

// Submit queues a job, blocking while all workers are busy
func (wp *WorkerPool) Submit(job FileJob) error {
	select {
	case wp.jobQueue <- job:
		return nil
	case <-wp.ctx.Done():
		return fmt.Errorf("worker pool is shutting down: %w", wp.ctx.Err())
	}
}

// Results returns the result channel
func (wp *WorkerPool) Results() <-chan JobResult {
	return wp.resultQueue
}

func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()

	for job := range wp.jobQueue {
		if wp.ctx.Err() != nil {
			// Drain without processing so Stop can finish
			continue
		}

		wp.logger.DebugWithFields("Worker processing job", map[string]interface{}{
			"worker_id": id,
			"url":       job.MediaURL,
		})

		result := wp.process(wp.ctx, job)

		// Results are always delivered; the consumer drains until close
		wp.resultQueue <- JobResult{Job: job, Result: result}
	}
}
