package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.API.BaseURL != "https://e621.net" {
		t.Errorf("Expected default base URL, got %s", cfg.API.BaseURL)
	}
	if cfg.RateLimit.RequestsPerSecond != 2 {
		t.Errorf("Expected 2 requests per second, got %d", cfg.RateLimit.RequestsPerSecond)
	}
	if cfg.Download.ConcurrentDownloads != 4 {
		t.Errorf("Expected 4 concurrent downloads, got %d", cfg.Download.ConcurrentDownloads)
	}
	if cfg.Download.PageSize != 320 {
		t.Errorf("Expected page size 320, got %d", cfg.Download.PageSize)
	}
	if cfg.Output.BaseDirectory != "." {
		t.Errorf("Expected base directory '.', got %s", cfg.Output.BaseDirectory)
	}
	if !cfg.Download.VerifyHash {
		t.Error("Expected hash verification on by default")
	}
	if cfg.Download.SaveSpace {
		t.Error("Expected save-space off by default")
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Default config should validate: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "valid defaults",
			mutate:  func(c *Config) {},
			wantErr: "",
		},
		{
			name:    "missing base URL",
			mutate:  func(c *Config) { c.API.BaseURL = "" },
			wantErr: "base URL",
		},
		{
			name:    "missing user agent",
			mutate:  func(c *Config) { c.API.UserAgent = "" },
			wantErr: "user agent",
		},
		{
			name:    "zero requests per second",
			mutate:  func(c *Config) { c.RateLimit.RequestsPerSecond = 0 },
			wantErr: "requests per second",
		},
		{
			name:    "negative retries",
			mutate:  func(c *Config) { c.RateLimit.MaxRetries = -1 },
			wantErr: "max retries",
		},
		{
			name:    "zero concurrency",
			mutate:  func(c *Config) { c.Download.ConcurrentDownloads = 0 },
			wantErr: "concurrent downloads",
		},
		{
			name:    "excessive concurrency",
			mutate:  func(c *Config) { c.Download.ConcurrentDownloads = 64 },
			wantErr: "concurrent downloads",
		},
		{
			name:    "page size above service maximum",
			mutate:  func(c *Config) { c.Download.PageSize = 400 },
			wantErr: "page size",
		},
		{
			name:    "zero max posts",
			mutate:  func(c *Config) { c.Download.MaxPosts = 0 },
			wantErr: "max posts",
		},
		{
			name:    "empty output directory",
			mutate:  func(c *Config) { c.Output.BaseDirectory = "" },
			wantErr: "output directory",
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Logging.Level = "loud" },
			wantErr: "log level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Expected no error, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Expected validation error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %q", tt.wantErr, err.Error())
			}
		})
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("E621DL_USERNAME", "envuser")
	t.Setenv("E621DL_API_KEY", "envkey1234567890")
	t.Setenv("E621DL_OUTPUT_DIR", "/tmp/env-downloads")
	t.Setenv("E621DL_CONCURRENT_DOWNLOADS", "8")
	t.Setenv("E621DL_LOG_LEVEL", "debug")

	cfg := DefaultConfig()
	if err := cfg.LoadFromEnv(); err != nil {
		t.Fatalf("LoadFromEnv failed: %v", err)
	}

	if cfg.API.Username != "envuser" {
		t.Errorf("Expected username from env, got %s", cfg.API.Username)
	}
	if cfg.API.APIKey != "envkey1234567890" {
		t.Errorf("Expected API key from env, got %s", cfg.API.APIKey)
	}
	if cfg.Output.BaseDirectory != "/tmp/env-downloads" {
		t.Errorf("Expected output dir from env, got %s", cfg.Output.BaseDirectory)
	}
	if cfg.Download.ConcurrentDownloads != 8 {
		t.Errorf("Expected 8 concurrent downloads, got %d", cfg.Download.ConcurrentDownloads)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Expected debug log level, got %s", cfg.Logging.Level)
	}
}

func TestLoadFromEnvIgnoresInvalidNumbers(t *testing.T) {
	t.Setenv("E621DL_CONCURRENT_DOWNLOADS", "banana")

	cfg := DefaultConfig()
	if err := cfg.LoadFromEnv(); err != nil {
		t.Fatalf("LoadFromEnv failed: %v", err)
	}
	if cfg.Download.ConcurrentDownloads != 4 {
		t.Errorf("Expected default to survive bad env value, got %d", cfg.Download.ConcurrentDownloads)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
api:
  username: fileuser
  user_agent: "custom-agent/2.0"
download:
  concurrent_downloads: 2
  max_posts: 500
output:
  base_directory: /data/e621
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg := DefaultConfig()
	if err := cfg.LoadFromFile(path); err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}

	if cfg.API.Username != "fileuser" {
		t.Errorf("Expected username from file, got %s", cfg.API.Username)
	}
	if cfg.API.UserAgent != "custom-agent/2.0" {
		t.Errorf("Expected user agent from file, got %s", cfg.API.UserAgent)
	}
	if cfg.Download.ConcurrentDownloads != 2 {
		t.Errorf("Expected 2 concurrent downloads, got %d", cfg.Download.ConcurrentDownloads)
	}
	if cfg.Download.MaxPosts != 500 {
		t.Errorf("Expected 500 max posts, got %d", cfg.Download.MaxPosts)
	}
	if cfg.Output.BaseDirectory != "/data/e621" {
		t.Errorf("Expected base directory from file, got %s", cfg.Output.BaseDirectory)
	}
	// Values the file omits keep their defaults
	if cfg.Download.PageSize != 320 {
		t.Errorf("Expected default page size to survive merge, got %d", cfg.Download.PageSize)
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.LoadFromFile("/nonexistent/config.yaml"); err == nil {
		t.Error("Expected error for missing explicit config path")
	}
}

func TestLoadFromFileMalformed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("api: ["), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg := DefaultConfig()
	if err := cfg.LoadFromFile(path); err == nil {
		t.Error("Expected parse error for malformed YAML")
	}
}

func TestMergeCommandLineFlags(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MergeCommandLineFlags(map[string]interface{}{
		"username":     "flaguser",
		"api-key":      "flagkey1234567890",
		"download-dir": "/tmp/flag-downloads",
		"concurrent":   6,
		"max-posts":    250,
		"save-space":   true,
		"log-level":    "warn",
	})

	if cfg.API.Username != "flaguser" {
		t.Errorf("Expected username from flags, got %s", cfg.API.Username)
	}
	if cfg.Output.BaseDirectory != "/tmp/flag-downloads" {
		t.Errorf("Expected download dir from flags, got %s", cfg.Output.BaseDirectory)
	}
	if cfg.Download.ConcurrentDownloads != 6 {
		t.Errorf("Expected 6 concurrent downloads, got %d", cfg.Download.ConcurrentDownloads)
	}
	if cfg.Download.MaxPosts != 250 {
		t.Errorf("Expected 250 max posts, got %d", cfg.Download.MaxPosts)
	}
	if !cfg.Download.SaveSpace {
		t.Error("Expected save-space enabled by flag")
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Expected warn log level, got %s", cfg.Logging.Level)
	}
}

func TestMergeCommandLineFlagsIgnoresEmpty(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MergeCommandLineFlags(map[string]interface{}{
		"username":   "",
		"concurrent": 0,
		"max-posts":  -5,
	})

	if cfg.API.Username != "" {
		t.Errorf("Empty username flag should not be merged, got %s", cfg.API.Username)
	}
	if cfg.Download.ConcurrentDownloads != 4 {
		t.Errorf("Zero concurrent flag should not be merged, got %d", cfg.Download.ConcurrentDownloads)
	}
	if cfg.Download.MaxPosts != 10000 {
		t.Errorf("Negative max-posts flag should not be merged, got %d", cfg.Download.MaxPosts)
	}
}

func TestSaveAndReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.API.Username = "roundtrip"
	cfg.Download.DownloadTimeout = 45 * time.Second
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Saved config missing: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("Expected 0600 permissions, got %v", info.Mode().Perm())
	}

	loaded := DefaultConfig()
	if err := loaded.LoadFromFile(path); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	if loaded.API.Username != "roundtrip" {
		t.Errorf("Expected username to survive round trip, got %s", loaded.API.Username)
	}
	if loaded.Download.DownloadTimeout != 45*time.Second {
		t.Errorf("Expected timeout to survive round trip, got %v", loaded.Download.DownloadTimeout)
	}
}
