package e621

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetPostURL(t *testing.T) {
	url := GetPostURL(DefaultBaseURL, 12345)
	assert.Equal(t, "https://e621.net/posts/12345.json", url)
}

func TestGetPoolURL(t *testing.T) {
	url := GetPoolURL(DefaultBaseURL, 2045)
	assert.Equal(t, "https://e621.net/pools/2045.json", url)
}

func TestGetSearchURL(t *testing.T) {
	t.Run("first page", func(t *testing.T) {
		url := GetSearchURL(DefaultBaseURL, "wolf score:>=50", 100, 0)
		assert.Equal(t, "https://e621.net/posts.json?limit=100&tags=wolf+score%3A%3E%3D50", url)
	})

	t.Run("with cursor", func(t *testing.T) {
		url := GetSearchURL(DefaultBaseURL, "wolf", 100, 9000)
		assert.Contains(t, url, "page=b9000")
	})

	t.Run("zero limit uses default", func(t *testing.T) {
		url := GetSearchURL(DefaultBaseURL, "wolf", 0, 0)
		assert.Contains(t, url, "limit=320")
	})

	t.Run("oversized limit is clamped", func(t *testing.T) {
		url := GetSearchURL(DefaultBaseURL, "wolf", 1000, 0)
		assert.Contains(t, url, "limit=320")
	})
}
