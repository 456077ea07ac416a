// Package e621 provides a client for the e621 JSON API.
//
// This package includes:
//   - A configurable HTTP client with basic-auth credentials and retries
//   - Type-safe models for posts and pools
//   - Helper functions for constructing API endpoints
//   - Typed errors mapped from HTTP status codes
//
// Example usage:
//
//	client := e621.NewClient("", "my-agent/1.0", 30*time.Second, 3, nil, nil)
//
//	post, err := client.GetPost(ctx, 12345)
//	if err != nil {
//	    var apiErr *errors.Error
//	    if errors.As(err, &apiErr) && apiErr.Type == errors.ErrorTypeNotFound {
//	        // post does not exist
//	    }
//	}
//
//	data, err := client.DownloadFile(ctx, post.File.URL)
package e621
