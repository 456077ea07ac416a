package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Hmiku8338/e621-dl/pkg/scraper"
	"github.com/Hmiku8338/e621-dl/pkg/ui"
)

var (
	// Shared download flags
	downloadDir string
	concurrent  int
	maxPosts    int
	accountName string
	saveSpace   bool
)

// postsCmd represents the posts command
var postsCmd = &cobra.Command{
	Use:   "posts",
	Short: "Download posts by tag search or identifier",
}

// searchCmd represents the posts search command
var searchCmd = &cobra.Command{
	Use:   "search <tag>...",
	Short: "Download posts matching a tag search",
	Long: `Download posts matching the given tags, newest first.

Tags are normalized and combined into a single query. Meta tags
(order:, rating:, score:, and friends) and negated tags are allowed.
Pagination walks the results from the largest post ID downwards, so
interrupted runs can simply be re-run: posts already on disk are
skipped.`,
	Example: `  # Download up to 100 posts tagged "wolf" with a minimum score
  e621dl posts search wolf "score:>=50" --max-posts 100

  # Download into a specific directory with more workers
  e621dl posts search canine --download-dir ./archive --concurrent 8

  # Replace duplicate files with symlinks after downloading
  e621dl posts search wolf --save-space`,
	Args: cobra.MinimumNArgs(1),
	Run:  runSearch,
}

// getCmd represents the posts get command
var getCmd = &cobra.Command{
	Use:   "get <id>...",
	Short: "Download specific posts by identifier",
	Example: `  # Download a single post
  e621dl posts get 12345

  # Download several posts at once
  e621dl posts get 12345 67890 13579`,
	Args: cobra.MinimumNArgs(1),
	Run:  runGet,
}

func init() {
	rootCmd.AddCommand(postsCmd)
	postsCmd.AddCommand(searchCmd)
	postsCmd.AddCommand(getCmd)

	for _, cmd := range []*cobra.Command{searchCmd, getCmd} {
		cmd.Flags().StringVarP(&downloadDir, "download-dir", "d", "", "output directory for downloads (default: current directory)")
		cmd.Flags().IntVar(&concurrent, "concurrent", 0, "number of concurrent downloads")
		cmd.Flags().StringVarP(&accountName, "account", "a", "", "use specific stored account")
		cmd.Flags().BoolVar(&saveSpace, "save-space", false, "replace duplicate files with symlinks after downloading")
	}
	searchCmd.Flags().IntVar(&maxPosts, "max-posts", 0, "maximum number of posts to download")
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// downloadFlags collects the shared download flags into a config overlay.
func downloadFlags() map[string]interface{} {
	flags := make(map[string]interface{})
	if downloadDir != "" {
		flags["download-dir"] = downloadDir
	}
	if concurrent > 0 {
		flags["concurrent"] = concurrent
	}
	if maxPosts > 0 {
		flags["max-posts"] = maxPosts
	}
	if saveSpace {
		flags["save-space"] = true
	}
	return flags
}

func runSearch(cmd *cobra.Command, args []string) {
	cfg := loadConfig(downloadFlags())
	resolveCredentials(cfg, accountName)

	tags := scraper.NormalizeTags(args)
	ui.PrintInfo("Search", strings.Join(tags, " "))

	ctx, cancel := signalContext()
	defer cancel()

	s := newScraper(cfg)
	summary, err := s.Search(ctx, tags, cfg.Download.MaxPosts)
	if err != nil {
		ui.PrintError("Search failed", err.Error())
		os.Exit(1)
	}
	reportSummary(summary)
}

func runGet(cmd *cobra.Command, args []string) {
	ids := make([]int, 0, len(args))
	for _, arg := range args {
		id, err := strconv.Atoi(strings.TrimSpace(arg))
		if err != nil || id <= 0 {
			ui.PrintError("Invalid post ID", arg)
			os.Exit(1)
		}
		ids = append(ids, id)
	}

	cfg := loadConfig(downloadFlags())
	resolveCredentials(cfg, accountName)

	ctx, cancel := signalContext()
	defer cancel()

	s := newScraper(cfg)

	var (
		summary *scraper.Summary
		err     error
	)
	if len(ids) == 1 {
		summary, err = s.FetchOne(ctx, ids[0])
	} else {
		summary, err = s.FetchMany(ctx, ids)
	}
	if err != nil {
		ui.PrintError("Download failed", err.Error())
		os.Exit(1)
	}
	reportSummary(summary)
}
