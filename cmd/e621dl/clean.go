package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Hmiku8338/e621-dl/pkg/ui"
)

// cleanCmd represents the clean command
var cleanCmd = &cobra.Command{
	Use:   "clean [directory]...",
	Short: "Replace duplicate files with symlinks",
	Long: `Scan one or more directories, hash every regular file and replace
duplicates with relative symlinks to a single canonical copy.

The scan runs fully offline. Symlinks and unreadable files are
skipped; a file that fails to be replaced is reported but never
deleted. When no directory is given the configured download
directory is cleaned.`,
	Example: `  # Clean the configured download directory
  e621dl clean

  # Clean specific directories
  e621dl clean ./archive ./comics`,
	Args: cobra.ArbitraryArgs,
	Run:  runClean,
}

func init() {
	rootCmd.AddCommand(cleanCmd)

	cleanCmd.Flags().IntVar(&concurrent, "concurrent", 0, "number of concurrent hash workers")
}

func runClean(cmd *cobra.Command, args []string) {
	flags := make(map[string]interface{})
	if concurrent > 0 {
		flags["concurrent"] = concurrent
	}
	cfg := loadConfig(flags)

	dirs := args
	if len(dirs) == 0 {
		dirs = []string{cfg.Output.BaseDirectory}
	}

	ctx, cancel := signalContext()
	defer cancel()

	s := newScraper(cfg)
	summary, err := s.Clean(ctx, dirs)
	if err != nil {
		ui.PrintError("Clean failed", err.Error())
		os.Exit(1)
	}

	ui.PrintInfo("Files scanned", fmt.Sprintf("%d", summary.Scanned))
	ui.PrintInfo("Duplicates replaced", fmt.Sprintf("%d", summary.Replaced))
	ui.PrintInfo("Bytes saved", fmt.Sprintf("%d", summary.BytesSaved))

	if summary.Failed > 0 {
		ui.PrintWarning(fmt.Sprintf("%d files could not be replaced", summary.Failed))
		for _, failure := range summary.Errors {
			ui.PrintError(failure.Path, failure.Err)
		}
		os.Exit(1)
	}
	ui.PrintSuccess("Clean completed")
}
