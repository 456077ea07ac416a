package e621

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	errs "github.com/Hmiku8338/e621-dl/pkg/errors"
	"github.com/Hmiku8338/e621-dl/pkg/logger"
	"github.com/Hmiku8338/e621-dl/pkg/retry"
)

// Credentials holds the username and API key used for authenticated requests.
type Credentials struct {
	Username string
	APIKey   string
}

// Client is an HTTP client for the e621 JSON API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	creds      *Credentials
	retrier    *retry.HTTPRetrier
	logger     logger.Logger
}

// NewClient creates a new API client. creds may be nil for anonymous access.
func NewClient(baseURL, userAgent string, timeout time.Duration, maxRetries int, creds *Credentials, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL:   baseURL,
		userAgent: userAgent,
		creds:     creds,
		retrier:   retry.NewHTTPRetrier(maxRetries, log),
		logger:    log,
	}
}

// BaseURL returns the base URL the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// doRequest performs an HTTP request with the configured headers
func (c *Client) doRequest(req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	if c.creds != nil && c.creds.Username != "" && c.creds.APIKey != "" {
		req.SetBasicAuth(c.creds.Username, c.creds.APIKey)
	}

	start := time.Now()
	c.logger.DebugWithFields("sending HTTP request", map[string]interface{}{
		"method": req.Method,
		"url":    req.URL.String(),
	})

	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"method":   req.Method,
			"url":      req.URL.String(),
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, &errs.Error{
			Type:    errs.ErrorTypeNetwork,
			Message: fmt.Sprintf("network error: %v", err),
			Code:    0,
		}
	}

	c.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
		"method":   req.Method,
		"url":      req.URL.String(),
		"status":   resp.StatusCode,
		"duration": duration,
	})

	return resp, nil
}

// get performs a GET request with retry on retryable failures
func (c *Client) get(ctx context.Context, url string) (*http.Response, error) {
	var resp *http.Response

	err := c.retrier.DoWithErrorType(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return &errs.Error{
				Type:    errs.ErrorTypeUnknown,
				Message: fmt.Sprintf("failed to create request: %v", err),
			}
		}

		r, err := c.doRequest(req)
		if err != nil {
			return err
		}

		if err := c.checkResponseStatus(r); err != nil {
			r.Body.Close()
			return err
		}

		resp = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	return resp, nil
}

// getJSON performs a GET request and decodes the JSON response
func (c *Client) getJSON(ctx context.Context, url string, target interface{}) error {
	resp, err := c.get(ctx, url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &errs.Error{
			Type:    errs.ErrorTypeNetwork,
			Message: fmt.Sprintf("failed to read response body: %v", err),
			Code:    resp.StatusCode,
		}
	}

	if err := json.Unmarshal(body, target); err != nil {
		bodyPreview := string(body)
		if len(bodyPreview) > 200 {
			bodyPreview = bodyPreview[:200] + "..."
		}

		c.logger.ErrorWithFields("failed to parse JSON response", map[string]interface{}{
			"url":          url,
			"status":       resp.StatusCode,
			"error":        err.Error(),
			"body_preview": bodyPreview,
		})
		return &errs.Error{
			Type:    errs.ErrorTypeParsing,
			Message: fmt.Sprintf("failed to parse JSON: %v", err),
			Code:    resp.StatusCode,
		}
	}

	return nil
}

// checkResponseStatus checks the HTTP response status and returns appropriate errors
func (c *Client) checkResponseStatus(resp *http.Response) error {
	switch resp.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusUnauthorized, http.StatusForbidden:
		c.logger.WarnWithFields("authentication error", map[string]interface{}{
			"status": resp.StatusCode,
			"url":    resp.Request.URL.String(),
		})
		return &errs.Error{
			Type:    errs.ErrorTypeAuth,
			Message: "authentication required",
			Code:    resp.StatusCode,
		}
	case http.StatusNotFound:
		c.logger.WarnWithFields("resource not found", map[string]interface{}{
			"status": resp.StatusCode,
			"url":    resp.Request.URL.String(),
		})
		return &errs.Error{
			Type:    errs.ErrorTypeNotFound,
			Message: "resource not found",
			Code:    resp.StatusCode,
		}
	case http.StatusTooManyRequests:
		c.logger.WarnWithFields("rate limit exceeded", map[string]interface{}{
			"status": resp.StatusCode,
			"url":    resp.Request.URL.String(),
		})
		return &errs.Error{
			Type:    errs.ErrorTypeRateLimit,
			Message: "rate limit exceeded",
			Code:    resp.StatusCode,
		}
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		c.logger.ErrorWithFields("server error", map[string]interface{}{
			"status": resp.StatusCode,
			"url":    resp.Request.URL.String(),
		})
		return &errs.Error{
			Type:    errs.ErrorTypeServerError,
			Message: "server error",
			Code:    resp.StatusCode,
		}
	default:
		if resp.StatusCode >= 400 {
			c.logger.ErrorWithFields("unexpected API error", map[string]interface{}{
				"status": resp.StatusCode,
				"url":    resp.Request.URL.String(),
			})
			return &errs.Error{
				Type:    errs.ErrorTypeUnknown,
				Message: fmt.Sprintf("unexpected status code: %d", resp.StatusCode),
				Code:    resp.StatusCode,
			}
		}
		return nil
	}
}

// GetPost fetches a single post by its identifier.
func (c *Client) GetPost(ctx context.Context, postID int) (*Post, error) {
	url := GetPostURL(c.baseURL, postID)

	var response postResponse
	if err := c.getJSON(ctx, url, &response); err != nil {
		c.logger.ErrorWithFields("failed to fetch post", map[string]interface{}{
			"post_id": postID,
			"error":   err.Error(),
		})
		return nil, err
	}

	return &response.Post, nil
}

// SearchPosts fetches one page of a tag search. A beforeID > 0 restricts
// the page to posts with identifiers strictly below it. Results come
// back largest-id-first, the service's natural ordering.
func (c *Client) SearchPosts(ctx context.Context, tags string, limit, beforeID int) ([]Post, error) {
	url := GetSearchURL(c.baseURL, tags, limit, beforeID)

	var response postsResponse
	if err := c.getJSON(ctx, url, &response); err != nil {
		c.logger.ErrorWithFields("failed to search posts", map[string]interface{}{
			"tags":      tags,
			"before_id": beforeID,
			"error":     err.Error(),
		})
		return nil, err
	}

	return response.Posts, nil
}

// GetPool fetches a pool with its ordered member post identifiers.
func (c *Client) GetPool(ctx context.Context, poolID int) (*Pool, error) {
	url := GetPoolURL(c.baseURL, poolID)

	var pool Pool
	if err := c.getJSON(ctx, url, &pool); err != nil {
		c.logger.ErrorWithFields("failed to fetch pool", map[string]interface{}{
			"pool_id": poolID,
			"error":   err.Error(),
		})
		return nil, err
	}

	return &pool, nil
}

// DownloadFile downloads a payload from the given URL.
func (c *Client) DownloadFile(ctx context.Context, fileURL string) ([]byte, error) {
	resp, err := c.get(ctx, fileURL)
	if err != nil {
		c.logger.ErrorWithFields("failed to download file", map[string]interface{}{
			"url":   fileURL,
			"error": err.Error(),
		})
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.ErrorWithFields("failed to read file data", map[string]interface{}{
			"url":   fileURL,
			"error": err.Error(),
		})
		return nil, &errs.Error{
			Type:    errs.ErrorTypeNetwork,
			Message: fmt.Sprintf("failed to download file: %v", err),
		}
	}

	c.logger.DebugWithFields("downloaded file", map[string]interface{}{
		"url":  fileURL,
		"size": len(data),
	})

	return data, nil
}
