package scraper

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/Hmiku8338/e621-dl/internal/downloader"
	"github.com/Hmiku8338/e621-dl/pkg/config"
	"github.com/Hmiku8338/e621-dl/pkg/dedup"
	"github.com/Hmiku8338/e621-dl/pkg/e621"
	"github.com/Hmiku8338/e621-dl/pkg/logger"
	"github.com/Hmiku8338/e621-dl/pkg/ratelimit"
	"github.com/Hmiku8338/e621-dl/pkg/storage"
)

// Scraper orchestrates the fetch, download and deduplication pipeline.
type Scraper struct {
	client      APIClient
	rateLimiter ratelimit.Limiter
	config      *config.Config
	logger      logger.Logger
}

// New creates a new Scraper instance with a real HTTP-backed API client.
func New(cfg *config.Config) (*Scraper, error) {
	log := logger.GetLogger()

	var creds *e621.Credentials
	if cfg.API.Username != "" && cfg.API.APIKey != "" {
		creds = &e621.Credentials{
			Username: cfg.API.Username,
			APIKey:   cfg.API.APIKey,
		}
	}

	client := e621.NewClient(
		cfg.API.BaseURL,
		cfg.API.UserAgent,
		cfg.Download.DownloadTimeout,
		cfg.RateLimit.MaxRetries,
		creds,
		log,
	)

	return NewWithClient(cfg, client), nil
}

// NewWithClient creates a Scraper around an existing API client. Tests
// use this with an in-memory client.
func NewWithClient(cfg *config.Config, client APIClient) *Scraper {
	rps := cfg.RateLimit.RequestsPerSecond
	if rps <= 0 {
		rps = 2
	}

	return &Scraper{
		client:      client,
		rateLimiter: ratelimit.NewTokenBucket(rps, time.Second),
		config:      cfg,
		logger:      logger.GetLogger(),
	}
}

// FetchOne downloads a single post by identifier into the base directory.
func (s *Scraper) FetchOne(ctx context.Context, postID int) (*Summary, error) {
	return s.run(ctx, s.config.Output.BaseDirectory, func(submit func(downloader.DownloadJob) error) error {
		return submit(downloader.DownloadJob{PostID: postID})
	})
}

// FetchMany downloads several posts by identifier into the base
// directory. Failures of individual posts never abort the others.
func (s *Scraper) FetchMany(ctx context.Context, postIDs []int) (*Summary, error) {
	return s.run(ctx, s.config.Output.BaseDirectory, func(submit func(downloader.DownloadJob) error) error {
		for _, id := range postIDs {
			if err := submit(downloader.DownloadJob{PostID: id}); err != nil {
				return err
			}
		}
		return nil
	})
}

// Search downloads posts matching the given tag set, up to maxPosts.
func (s *Scraper) Search(ctx context.Context, tags []string, maxPosts int) (*Summary, error) {
	if maxPosts <= 0 {
		maxPosts = s.config.Download.MaxPosts
	}

	query := QueryString(tags)
	dir := s.config.Output.BaseDirectory
	if s.config.Output.CreateQueryFolders && query != "" {
		dir = filepath.Join(dir, sanitizeDirName(query))
	}

	s.logger.InfoWithFields("starting tag search", map[string]interface{}{
		"tags":      query,
		"max_posts": maxPosts,
		"dir":       dir,
	})

	cursor := NewPaginationCursor(s.client, query, maxPosts, s.config.Download.PageSize)

	summary, err := s.run(ctx, dir, func(submit func(downloader.DownloadJob) error) error {
		for {
			s.rateLimiter.Wait()
			posts, err := cursor.Next(ctx)
			if err != nil {
				return fmt.Errorf("pagination failed: %w", err)
			}
			if len(posts) == 0 {
				return nil
			}
			for i := range posts {
				post := posts[i]
				if err := submit(downloader.DownloadJob{PostID: post.ID, Post: &post}); err != nil {
					return err
				}
			}
		}
	})
	if err != nil {
		return summary, err
	}

	if s.config.Download.SaveSpace {
		if _, err := s.Clean(ctx, []string{s.config.Output.BaseDirectory}); err != nil {
			return summary, fmt.Errorf("save-space pass failed: %w", err)
		}
	}

	return summary, nil
}

// FetchPool downloads every post of a pool, scheduling tasks in the
// service-reported member order.
func (s *Scraper) FetchPool(ctx context.Context, poolID int) (*Summary, error) {
	pool, err := s.client.GetPool(ctx, poolID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch pool %d: %w", poolID, err)
	}

	ids := dedupeOrdered(pool.PostIDs)

	dir := s.config.Output.BaseDirectory
	if s.config.Output.CreateQueryFolders && pool.Name != "" {
		dir = filepath.Join(dir, sanitizeDirName(pool.Name))
	}

	s.logger.InfoWithFields("starting pool download", map[string]interface{}{
		"pool_id": pool.ID,
		"name":    pool.Name,
		"posts":   len(ids),
		"dir":     dir,
	})

	summary, err := s.run(ctx, dir, func(submit func(downloader.DownloadJob) error) error {
		for _, id := range ids {
			if err := submit(downloader.DownloadJob{PostID: id}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return summary, err
	}

	if s.config.Download.SaveSpace {
		if _, err := s.Clean(ctx, []string{s.config.Output.BaseDirectory}); err != nil {
			return summary, fmt.Errorf("save-space pass failed: %w", err)
		}
	}

	return summary, nil
}

// CleanSummary aggregates a maintenance pass over one or more trees.
type CleanSummary struct {
	Scanned    int
	Replaced   int
	AlreadyOK  int
	Failed     int
	BytesSaved int64
	Errors     []dedup.ReplaceError
}

// Clean runs the maintenance pass: hash every regular file under each
// directory, pick one canonical file per fingerprint and replace the
// rest with symlinks. No network access is involved. The scan completes
// before any replacement starts.
func (s *Scraper) Clean(ctx context.Context, dirs []string) (*CleanSummary, error) {
	summary := &CleanSummary{}

	for _, dir := range dirs {
		entries, err := dedup.Scan(ctx, dir, s.config.Download.ConcurrentDownloads, s.logger)
		if err != nil {
			return summary, fmt.Errorf("failed to scan %s: %w", dir, err)
		}
		summary.Scanned += len(entries)

		index, duplicates := dedup.BuildIndex(entries)
		stats, failures := dedup.ReplaceWithSymlinks(index, duplicates, s.logger)

		summary.Replaced += stats.Replaced
		summary.AlreadyOK += stats.AlreadyOK
		summary.Failed += stats.Failed
		summary.BytesSaved += stats.BytesSaved
		summary.Errors = append(summary.Errors, failures...)

		s.logger.InfoWithFields("clean pass finished", map[string]interface{}{
			"dir":         dir,
			"files":       len(entries),
			"replaced":    stats.Replaced,
			"failed":      stats.Failed,
			"bytes_saved": stats.BytesSaved,
		})
	}

	return summary, nil
}

// run executes a download run: it builds the storage manager and dedup
// index for the target directory, starts the bounded worker pool, feeds
// it via produce and folds worker results into a summary. Production is
// sequential; workers may run ahead of it but never behind.
func (s *Scraper) run(ctx context.Context, dir string, produce func(submit func(downloader.DownloadJob) error) error) (*Summary, error) {
	storageManager, err := storage.NewManager(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage manager: %w", err)
	}

	index := dedup.NewIndex()

	pool := downloader.NewWorkerPool(
		ctx,
		s.config.Download.ConcurrentDownloads,
		s.client,
		storageManager,
		index,
		s.rateLimiter,
		downloader.Options{
			LinkDuplicates: s.config.Download.SaveSpace,
			VerifyHash:     s.config.Download.VerifyHash,
		},
		s.logger,
	)
	pool.Start()

	summary := &Summary{}
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for result := range pool.Results() {
			summary.add(result)
		}
	}()

	produceErr := produce(pool.Submit)

	pool.Stop()
	wg.Wait()

	s.logger.InfoWithFields("download run finished", map[string]interface{}{
		"dir":        dir,
		"downloaded": summary.Downloaded,
		"skipped":    summary.Skipped,
		"linked":     summary.Linked,
		"failed":     summary.Failed,
	})

	if produceErr != nil {
		return summary, produceErr
	}
	return summary, nil
}

// dedupeOrdered removes repeated identifiers while preserving first-seen
// order, guarding against duplicates at pool page boundaries.
func dedupeOrdered(ids []int) []int {
	seen := make(map[int]struct{}, len(ids))
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// sanitizeDirName makes a query or pool name safe to use as a directory.
func sanitizeDirName(name string) string {
	name = strings.ReplaceAll(name, string(filepath.Separator), "_")
	return strings.Trim(name, ". ")
}
