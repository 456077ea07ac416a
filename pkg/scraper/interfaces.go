package scraper

import (
	"context"

	"github.com/Hmiku8338/e621-dl/pkg/e621"
)

// APIClient defines the interface for e621 API operations
type APIClient interface {
	GetPost(ctx context.Context, postID int) (*e621.Post, error)
	SearchPosts(ctx context.Context, tags string, limit, beforeID int) ([]e621.Post, error)
	GetPool(ctx context.Context, poolID int) (*e621.Pool, error)
	DownloadFile(ctx context.Context, url string) ([]byte, error)
}
