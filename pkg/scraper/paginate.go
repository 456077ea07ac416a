package scraper

import (
	"context"

	"github.com/Hmiku8338/e621-dl/pkg/e621"
)

// PaginationCursor walks a tag search largest-id-first using the
// service's decreasing identifier cursor. The sequence is lazy, finite
// and non-restartable: each page requests identifiers strictly below the
// smallest one seen so far, so no identifier is ever emitted twice even
// if posts are appended between requests. It stops when a page comes
// back short (exhausted) or the requested maximum has been emitted.
type PaginationCursor struct {
	client    APIClient
	tags      string
	pageSize  int
	remaining int
	beforeID  int
	exhausted bool
}

// NewPaginationCursor creates a cursor over a tag query emitting at most
// maxPosts posts.
func NewPaginationCursor(client APIClient, tags string, maxPosts, pageSize int) *PaginationCursor {
	if pageSize <= 0 || pageSize > e621.MaxPageSize {
		pageSize = e621.DefaultPageSize
	}
	return &PaginationCursor{
		client:    client,
		tags:      tags,
		pageSize:  pageSize,
		remaining: maxPosts,
	}
}

// Next returns the next page of posts, or an empty slice once the cursor
// is exhausted. An empty first page is a valid empty sequence, not an
// error.
func (c *PaginationCursor) Next(ctx context.Context) ([]e621.Post, error) {
	if c.exhausted || c.remaining <= 0 {
		return nil, nil
	}

	limit := c.pageSize
	if c.remaining < limit {
		limit = c.remaining
	}

	posts, err := c.client.SearchPosts(ctx, c.tags, limit, c.beforeID)
	if err != nil {
		c.exhausted = true
		return nil, err
	}

	if len(posts) < limit {
		c.exhausted = true
	}
	if len(posts) == 0 {
		return nil, nil
	}

	if len(posts) > c.remaining {
		posts = posts[:c.remaining]
		c.exhausted = true
	}
	c.remaining -= len(posts)

	// The service orders pages largest-id-first; the last entry holds
	// the smallest identifier of the page.
	smallest := posts[len(posts)-1].ID
	for _, p := range posts {
		if p.ID < smallest {
			smallest = p.ID
		}
	}
	c.beforeID = smallest

	return posts, nil
}
