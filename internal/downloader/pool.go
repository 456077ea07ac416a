package downloader

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/Hmiku8338/e621-dl/pkg/dedup"
	"github.com/Hmiku8338/e621-dl/pkg/e621"
	errs "github.com/Hmiku8338/e621-dl/pkg/errors"
	"github.com/Hmiku8338/e621-dl/pkg/hash"
	"github.com/Hmiku8338/e621-dl/pkg/logger"
	"github.com/Hmiku8338/e621-dl/pkg/ratelimit"
)

// Status describes the outcome of a download job.
type Status string

const (
	StatusDownloaded Status = "downloaded"
	StatusSkipped    Status = "skipped"
	StatusLinked     Status = "linked"
	StatusFailed     Status = "failed"
)

// DownloadJob represents a single download task
type DownloadJob struct {
	PostID int
	// Post carries pre-fetched metadata; when nil the worker fetches it.
	Post *e621.Post
}

// DownloadResult represents the result of a download job
type DownloadResult struct {
	Job      DownloadJob
	Status   Status
	Path     string
	Error    error
	Duration time.Duration
	Size     int
}

// PostClient is the API capability the pool needs
type PostClient interface {
	GetPost(ctx context.Context, postID int) (*e621.Post, error)
	DownloadFile(ctx context.Context, url string) ([]byte, error)
}

// PostStorage is the file storage capability the pool needs
type PostStorage interface {
	IsDownloaded(postID int) bool
	IsRegular(postID int, ext string) bool
	PathFor(postID int, ext string) string
	Save(r io.Reader, postID int, ext string) (string, error)
	Link(postID int, ext, canonical string) (string, error)
}

// Options control per-job behavior.
type Options struct {
	// LinkDuplicates creates a symlink to the canonical file when the
	// content is already present; otherwise duplicates are skipped.
	LinkDuplicates bool
	// VerifyHash re-hashes downloaded payloads against the
	// service-reported fingerprint.
	VerifyHash bool
}

// WorkerPool manages concurrent download workers. The dedup index is the
// only state shared across workers; all access goes through its
// synchronized operations.
type WorkerPool struct {
	numWorkers  int
	jobQueue    chan DownloadJob
	resultQueue chan DownloadResult
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	client      PostClient
	storage     PostStorage
	index       *dedup.Index
	rateLimiter ratelimit.Limiter
	opts        Options
	logger      logger.Logger
}

// NewWorkerPool creates a new download worker pool
func NewWorkerPool(
	ctx context.Context,
	numWorkers int,
	client PostClient,
	storage PostStorage,
	index *dedup.Index,
	rateLimiter ratelimit.Limiter,
	opts Options,
	log logger.Logger,
) *WorkerPool {
	ctx, cancel := context.WithCancel(ctx)

	if log == nil {
		log = logger.GetLogger()
	}

	return &WorkerPool{
		numWorkers:  numWorkers,
		jobQueue:    make(chan DownloadJob, numWorkers*2), // Buffer size = 2x workers
		resultQueue: make(chan DownloadResult, numWorkers),
		ctx:         ctx,
		cancel:      cancel,
		client:      client,
		storage:     storage,
		index:       index,
		rateLimiter: rateLimiter,
		opts:        opts,
		logger:      log,
	}
}

// Start initializes and starts all workers
func (wp *WorkerPool) Start() {
	wp.logger.DebugWithFields("starting worker pool", map[string]interface{}{
		"num_workers": wp.numWorkers,
	})

	for i := 0; i < wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

// Stop gracefully shuts down the worker pool. In-flight jobs are allowed
// to finish so no partial files are left behind.
func (wp *WorkerPool) Stop() {
	close(wp.jobQueue)
	wp.wg.Wait()
	close(wp.resultQueue)
	wp.cancel()

	wp.logger.Debug("worker pool stopped")
}

// Submit adds a new download job to the queue
func (wp *WorkerPool) Submit(job DownloadJob) error {
	select {
	case wp.jobQueue <- job:
		return nil
	case <-wp.ctx.Done():
		return fmt.Errorf("worker pool is shutting down")
	}
}

// Results returns the result channel for consuming download results
func (wp *WorkerPool) Results() <-chan DownloadResult {
	return wp.resultQueue
}

// worker is the main worker routine
func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()

	for job := range wp.jobQueue {
		// Cancellation stops pulling new jobs; the current one finishes.
		select {
		case <-wp.ctx.Done():
			return
		default:
		}

		result := wp.processJob(job, id)

		select {
		case wp.resultQueue <- result:
		case <-wp.ctx.Done():
			return
		}
	}
}

// processJob handles a single download job
func (wp *WorkerPool) processJob(job DownloadJob, workerID int) DownloadResult {
	start := time.Now()
	result := DownloadResult{
		Job:    job,
		Status: StatusFailed,
	}

	fail := func(err error) DownloadResult {
		result.Error = err
		result.Duration = time.Since(start)
		wp.logger.ErrorWithFields("download job failed", map[string]interface{}{
			"worker_id": workerID,
			"post_id":   job.PostID,
			"error":     err.Error(),
		})
		return result
	}

	// Already present under its final name. Register its fingerprint so
	// later duplicates in the same run resolve against it. An entry that
	// is itself a symlink from an earlier save-space pass is never
	// canonical; duplicates must not link through a link.
	if wp.storage.IsDownloaded(job.PostID) {
		if job.Post != nil && job.Post.File.MD5 != "" && wp.storage.IsRegular(job.Post.ID, job.Post.File.Ext) {
			wp.index.Insert(job.Post.File.MD5, wp.storage.PathFor(job.Post.ID, job.Post.File.Ext))
		}
		result.Status = StatusSkipped
		result.Duration = time.Since(start)
		return result
	}

	post := job.Post
	if post == nil {
		wp.rateLimiter.Wait()
		fetched, err := wp.client.GetPost(wp.ctx, job.PostID)
		if err != nil {
			return fail(fmt.Errorf("fetch metadata: %w", err))
		}
		post = fetched
	}

	if post.File.URL == "" {
		return fail(errs.Newf(errs.ErrorTypeAuth, "post %d has no accessible file URL", post.ID))
	}

	targetPath := wp.storage.PathFor(post.ID, post.File.Ext)

	// Content already known: no download needed.
	if post.File.MD5 != "" {
		if canonical, ok := wp.index.Lookup(post.File.MD5); ok {
			return wp.resolveDuplicate(post, canonical, start)
		}
	}

	wp.rateLimiter.Wait()
	data, err := wp.client.DownloadFile(wp.ctx, post.File.URL)
	if err != nil {
		return fail(fmt.Errorf("download payload: %w", err))
	}
	result.Size = len(data)

	fingerprint := hash.Bytes(data)
	if wp.opts.VerifyHash && post.File.MD5 != "" && fingerprint != post.File.MD5 {
		return fail(errs.Newf(errs.ErrorTypeParsing,
			"payload fingerprint %s does not match service fingerprint %s", fingerprint, post.File.MD5))
	}

	// Claim the fingerprint before writing: the first writer becomes
	// canonical, a concurrent loser never writes a second regular file.
	if canonical, existed := wp.index.Insert(fingerprint, targetPath); existed {
		return wp.resolveDuplicate(post, canonical, start)
	}

	path, err := wp.storage.Save(bytes.NewReader(data), post.ID, post.File.Ext)
	if err != nil {
		// Release the claim so the fingerprint does not point at a file
		// that was never written; a later task with the same content can
		// then claim it and write the canonical copy itself.
		wp.index.Remove(fingerprint, targetPath)
		return fail(fmt.Errorf("save payload: %w", err))
	}

	result.Status = StatusDownloaded
	result.Path = path
	result.Duration = time.Since(start)

	wp.logger.DebugWithFields("downloaded post", map[string]interface{}{
		"worker_id": workerID,
		"post_id":   post.ID,
		"path":      path,
		"size":      result.Size,
	})

	return result
}

// resolveDuplicate handles a post whose content is already canonical
// somewhere: link to it in link mode, skip otherwise.
func (wp *WorkerPool) resolveDuplicate(post *e621.Post, canonical string, start time.Time) DownloadResult {
	result := DownloadResult{
		Job:    DownloadJob{PostID: post.ID, Post: post},
		Status: StatusSkipped,
	}

	if wp.opts.LinkDuplicates {
		path, err := wp.storage.Link(post.ID, post.File.Ext, canonical)
		if err != nil {
			result.Status = StatusFailed
			result.Error = fmt.Errorf("link duplicate: %w", err)
			result.Duration = time.Since(start)
			return result
		}
		result.Status = StatusLinked
		result.Path = path
	}

	result.Duration = time.Since(start)
	return result
}

// GetQueueSize returns the current number of jobs in the queue
func (wp *WorkerPool) GetQueueSize() int {
	return len(wp.jobQueue)
}

// GetActiveWorkers returns the number of active workers
func (wp *WorkerPool) GetActiveWorkers() int {
	return wp.numWorkers
}
