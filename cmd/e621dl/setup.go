package main

import (
	"os"

	"github.com/Hmiku8338/e621-dl/pkg/auth"
	"github.com/Hmiku8338/e621-dl/pkg/config"
	"github.com/Hmiku8338/e621-dl/pkg/logger"
	"github.com/Hmiku8338/e621-dl/pkg/scraper"
	"github.com/Hmiku8338/e621-dl/pkg/ui"
)

// loadConfig builds the effective configuration from flags, environment
// and config file, then initializes the global logger from it.
func loadConfig(flags map[string]interface{}) *config.Config {
	if flags == nil {
		flags = make(map[string]interface{})
	}
	if logLevel != "info" {
		flags["log-level"] = logLevel
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		ui.PrintError("Failed to initialize logger", err.Error())
		os.Exit(1)
	}

	return cfg
}

// resolveCredentials fills in API credentials from the credential store
// when the config does not already carry them. Anonymous access is
// allowed; most read endpoints work without authentication.
func resolveCredentials(cfg *config.Config, accountName string) {
	if accountName == "" && cfg.API.Username != "" && cfg.API.APIKey != "" {
		logger.GetLogger().Info("Using credentials from configuration")
		return
	}

	manager, err := auth.NewManager()
	if err != nil {
		logger.GetLogger().WithError(err).Warn("Credential manager unavailable, continuing anonymously")
		return
	}

	var account *auth.Account
	if accountName != "" {
		account, err = manager.Retrieve(accountName)
		if err != nil {
			ui.PrintError("Account not found", accountName)
			ui.PrintInfo("Available accounts", "Use 'e621dl auth list' to see stored accounts")
			os.Exit(1)
		}
	} else {
		account, err = manager.RetrieveDefault()
		if err != nil {
			logger.GetLogger().Debug("No stored credentials, continuing anonymously")
			return
		}
	}

	cfg.API.Username = account.Username
	cfg.API.APIKey = account.APIKey
	logger.GetLogger().WithField("account", account.Username).Info("Using stored credentials")
	ui.PrintInfo("Using account", account.Username)
}

// newScraper wires up a scraper from the effective configuration.
func newScraper(cfg *config.Config) *scraper.Scraper {
	s, err := scraper.New(cfg)
	if err != nil {
		ui.PrintError("Failed to initialize downloader", err.Error())
		os.Exit(1)
	}
	return s
}

// reportSummary prints the final run summary and exits non-zero when
// any task failed.
func reportSummary(summary *scraper.Summary) {
	if summary == nil {
		return
	}
	if summary.OK() {
		ui.PrintSuccess(summary.String())
		return
	}
	ui.PrintWarning(summary.String())
	for _, failure := range summary.Failures {
		ui.PrintError("Post failed", failure.Err)
	}
	os.Exit(1)
}
