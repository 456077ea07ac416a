package scraper

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Hmiku8338/e621-dl/internal/downloader"
	errs "github.com/Hmiku8338/e621-dl/pkg/errors"
)

// Failure records one failed task.
type Failure struct {
	PostID int
	Kind   errs.ErrorType
	Err    error
}

// Summary aggregates per-task outcomes of a download run.
type Summary struct {
	Downloaded int
	Skipped    int
	Linked     int
	Failed     int
	Failures   []Failure
}

// add folds a single worker result into the summary.
func (s *Summary) add(result downloader.DownloadResult) {
	switch result.Status {
	case downloader.StatusDownloaded:
		s.Downloaded++
	case downloader.StatusSkipped:
		s.Skipped++
	case downloader.StatusLinked:
		s.Linked++
	case downloader.StatusFailed:
		s.Failed++
		s.Failures = append(s.Failures, Failure{
			PostID: result.Job.PostID,
			Kind:   failureKind(result.Error),
			Err:    result.Error,
		})
	}
}

// OK reports whether the run completed without task failures.
func (s *Summary) OK() bool {
	return s.Failed == 0
}

// String renders the final one-line summary.
func (s *Summary) String() string {
	parts := []string{
		fmt.Sprintf("%d downloaded", s.Downloaded),
		fmt.Sprintf("%d skipped", s.Skipped),
	}
	if s.Linked > 0 {
		parts = append(parts, fmt.Sprintf("%d linked", s.Linked))
	}
	parts = append(parts, fmt.Sprintf("%d failed", s.Failed))
	return strings.Join(parts, ", ")
}

// failureKind extracts the error taxonomy kind from a task error.
func failureKind(err error) errs.ErrorType {
	if err == nil {
		return errs.ErrorTypeUnknown
	}
	var apiErr *errs.Error
	if errors.As(err, &apiErr) {
		return apiErr.Type
	}
	return errs.ErrorTypeUnknown
}
