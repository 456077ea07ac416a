package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Hmiku8338/e621-dl/pkg/config"
	"github.com/Hmiku8338/e621-dl/pkg/ui"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage e621dl configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables (E621DL_*)
  - Configuration file
  - Default values (lowest priority)`,
}

// initCmd represents the config init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Long: `Create an example configuration file with all available options.

The file will be created in the current directory as 'e621dl.yaml'
unless a different path is specified with the --config flag.`,
	Run: runConfigInit,
}

// showCmd represents the config show command
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Show the current configuration including values from all sources.

Sensitive values like the API key will be masked for security.`,
	Run: runConfigShow,
}

// validateCmd represents the config validate command
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Validate a configuration file for syntax errors and invalid values.

This command checks:
  - YAML syntax
  - Value types and ranges
  - Path accessibility`,
	Run: runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(initCmd)
	configCmd.AddCommand(showCmd)
	configCmd.AddCommand(validateCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) {
	configPath := configFile
	if configPath == "" {
		configPath = "e621dl.yaml"
	}

	if _, err := os.Stat(configPath); err == nil {
		ui.PrintError("Configuration file already exists", configPath)
		fmt.Println("\nTo overwrite, first remove the existing file:")
		fmt.Printf("  rm %s\n", configPath)
		os.Exit(1)
	}

	exampleConfig := `# e621dl configuration file
#
# This file contains all available configuration options.
# You can also use environment variables prefixed with E621DL_
# For example: E621DL_USERNAME, E621DL_API_KEY

# API credentials and endpoint
api:
  # e621 username (optional, anonymous access works for most reads)
  username: ""

  # API key from Account > Manage API Access
  # Prefer 'e621dl auth login' over storing it here
  api_key: ""

  # User agent string sent with every request
  # Leave empty to use default
  user_agent: ""

  # Service base URL
  base_url: "https://e621.net"

# Rate limiting configuration
rate_limit:
  # Requests per second
  # The service allows at most 2
  requests_per_second: 2

  # Maximum number of retry attempts
  max_retries: 3

# Output configuration
output:
  # Base directory for downloads
  base_directory: "."

  # Create a subdirectory per search query or pool
  create_query_folders: true

  # Overwrite files that already exist
  overwrite_existing: false

# Download configuration
download:
  # Number of concurrent downloads
  # Range: 1-10
  concurrent_downloads: 4

  # Download timeout
  download_timeout: 30s

  # Maximum number of posts per search
  max_posts: 10000

  # Posts per API page
  # Range: 1-320
  page_size: 320

  # Replace duplicate files with symlinks after downloading
  save_space: false

  # Verify the MD5 of every downloaded file
  verify_hash: true

# Logging configuration
logging:
  # Log level: debug, info, warn, error
  level: "info"

  # Log file path (optional)
  # Leave empty to log to stderr only
  file: ""
`

	if err := os.WriteFile(configPath, []byte(exampleConfig), 0644); err != nil {
		ui.PrintError("Failed to create configuration file", err.Error())
		os.Exit(1)
	}

	ui.PrintSuccess("Configuration file created: " + configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("1. Run 'e621dl auth login' to store credentials (optional)")
	fmt.Println("2. Run 'e621dl config validate' to check the configuration")
	fmt.Println("3. Start downloading with 'e621dl posts search <tags>'")
}

func runConfigShow(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(configFile, nil)
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}

	// Mask sensitive values for display
	displayCfg := *cfg
	if displayCfg.API.APIKey != "" {
		if len(displayCfg.API.APIKey) > 8 {
			displayCfg.API.APIKey = displayCfg.API.APIKey[:4] + "..." + displayCfg.API.APIKey[len(displayCfg.API.APIKey)-4:]
		} else {
			displayCfg.API.APIKey = "***"
		}
	}

	data, err := yaml.Marshal(&displayCfg)
	if err != nil {
		ui.PrintError("Failed to format configuration", err.Error())
		os.Exit(1)
	}

	ui.PrintHighlight("Current Configuration")
	fmt.Println()
	fmt.Print(string(data))

	fmt.Println("\nConfiguration sources (in order of priority):")
	fmt.Println("1. Command line flags")
	fmt.Println("2. Environment variables (E621DL_*)")
	if configFile != "" {
		fmt.Printf("3. Configuration file: %s\n", configFile)
	} else {
		fmt.Println("3. Configuration file: (not specified)")
	}
	fmt.Println("4. Default values")
}

func runConfigValidate(cmd *cobra.Command, args []string) {
	if configFile == "" {
		// Try to find config file in common locations
		possiblePaths := []string{
			"e621dl.yaml",
			"e621dl.yml",
			".e621dl.yaml",
			".e621dl.yml",
			filepath.Join(os.Getenv("HOME"), ".e621dl.yaml"),
			filepath.Join(os.Getenv("HOME"), ".config", "e621dl", "config.yaml"),
		}

		for _, path := range possiblePaths {
			if _, err := os.Stat(path); err == nil {
				configFile = path
				break
			}
		}

		if configFile == "" {
			ui.PrintError("No configuration file found", "Specify a file with --config flag")
			os.Exit(1)
		}
	}

	ui.PrintInfo("Validating configuration", configFile)

	cfg, err := config.Load(configFile, nil)
	if err != nil {
		ui.PrintError("Configuration validation failed", err.Error())
		os.Exit(1)
	}

	warnings := []string{}
	errors := []string{}

	if cfg.API.Username == "" || cfg.API.APIKey == "" {
		warnings = append(warnings, "No credentials configured, requests will be anonymous")
	}

	if cfg.Output.BaseDirectory != "" {
		if err := os.MkdirAll(cfg.Output.BaseDirectory, 0755); err != nil {
			errors = append(errors, fmt.Sprintf("Cannot create output directory: %v", err))
		}
	}

	if cfg.Logging.File != "" {
		dir := filepath.Dir(cfg.Logging.File)
		if err := os.MkdirAll(dir, 0755); err != nil {
			errors = append(errors, fmt.Sprintf("Cannot create log directory: %v", err))
		}
	}

	if len(errors) > 0 {
		ui.PrintError("Configuration has errors:", "")
		for _, err := range errors {
			fmt.Printf("  - %s\n", err)
		}
		os.Exit(1)
	}

	if len(warnings) > 0 {
		ui.PrintWarning("Configuration warnings:", "")
		for _, warn := range warnings {
			fmt.Printf("  - %s\n", warn)
		}
		fmt.Println()
	}

	ui.PrintSuccess("Configuration is valid")

	fmt.Println("\nConfiguration summary:")
	fmt.Printf("  Output directory: %s\n", cfg.Output.BaseDirectory)
	fmt.Printf("  Concurrent downloads: %d\n", cfg.Download.ConcurrentDownloads)
	fmt.Printf("  Rate limit: %d requests/second\n", cfg.RateLimit.RequestsPerSecond)
	fmt.Printf("  Max retries: %d\n", cfg.RateLimit.MaxRetries)
	fmt.Printf("  Log level: %s\n", cfg.Logging.Level)
}
