package e621

import (
	"fmt"
	"net/url"
	"strconv"
)

const (
	// DefaultBaseURL is the base URL for the e621 API
	DefaultBaseURL = "https://e621.net"

	// DefaultPageSize is the default number of posts fetched per page
	DefaultPageSize = 320

	// MaxPageSize is the maximum number of posts the service returns per page
	MaxPageSize = 320
)

// GetPostURL constructs the URL for fetching a single post
func GetPostURL(baseURL string, postID int) string {
	return fmt.Sprintf("%s/posts/%d.json", baseURL, postID)
}

// GetPoolURL constructs the URL for fetching a pool
func GetPoolURL(baseURL string, poolID int) string {
	return fmt.Sprintf("%s/pools/%d.json", baseURL, poolID)
}

// GetSearchURL constructs the URL for a tag search page. A beforeID > 0
// requests posts with identifiers strictly below it (the service's "b"
// page cursor); beforeID <= 0 requests the newest page.
func GetSearchURL(baseURL, tags string, limit, beforeID int) string {
	if limit <= 0 {
		limit = DefaultPageSize
	} else if limit > MaxPageSize {
		limit = MaxPageSize
	}

	params := url.Values{}
	params.Set("tags", tags)
	params.Set("limit", strconv.Itoa(limit))
	if beforeID > 0 {
		params.Set("page", "b"+strconv.Itoa(beforeID))
	}

	return fmt.Sprintf("%s/posts.json?%s", baseURL, params.Encode())
}
