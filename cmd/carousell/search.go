package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/IshaanNene/carousell-scraper/internal/config"
	"github.com/IshaanNene/carousell-scraper/internal/observability"
	"github.com/IshaanNene/carousell-scraper/internal/search"
	"github.com/IshaanNene/carousell-scraper/internal/storage"
	"github.com/IshaanNene/carousell-scraper/internal/types"
)

type searchFlags struct {
	max      int
	headless bool
	browser  string
	delayMin time.Duration
	delayMax time.Duration
	format   string
	output   string
}

// searchCmd creates the "search" subcommand.
func searchCmd() *cobra.Command {
	f := &searchFlags{}
	cmd := &cobra.Command{
		Use:   "search <query>...",
		Short: "Search Carousell.sg and print listings",
		Long: `Search Carousell.sg for each query and print name, price and URL of
up to --max listings. Several queries run one after another with a pause
in between.`,
		Example: `  carousell search "iphone 15" --max 10
  carousell search laptop monitor --headless=false --format csv -o ./results`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, f, args)
		},
	}

	cmd.Flags().IntVarP(&f.max, "max", "m", 20, "maximum listings per query")
	cmd.Flags().BoolVar(&f.headless, "headless", true, "run the browser without a window (may trigger CAPTCHAs)")
	cmd.Flags().StringVarP(&f.browser, "browser", "b", "auto", "browser to use: auto, chrome, firefox")
	cmd.Flags().DurationVar(&f.delayMin, "delay-min", 2*time.Second, "minimum pause after the page loads")
	cmd.Flags().DurationVar(&f.delayMax, "delay-max", 5*time.Second, "maximum pause after the page loads")
	cmd.Flags().StringVarP(&f.format, "format", "f", "", "also store results: json, jsonl, csv, sqlite, postgres, mongodb (comma-separated)")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "output directory or file path")

	return cmd
}

// apply copies flags the user set onto cfg.
func (f *searchFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	changed := cmd.Flags().Changed
	if changed("max") {
		cfg.Marketplace.MaxResults = f.max
	}
	if changed("headless") {
		cfg.Browser.Headless = f.headless
	}
	if changed("browser") {
		cfg.Browser.Kind = strings.ToLower(f.browser)
	}
	if changed("delay-min") {
		cfg.Pacing.DelayMin = f.delayMin
	}
	if changed("delay-max") {
		cfg.Pacing.DelayMax = f.delayMax
	}
	if changed("format") {
		cfg.Storage.Type = strings.ToLower(f.format)
	}
	if changed("output") {
		cfg.Storage.OutputPath = f.output
	}
}

func runSearch(cmd *cobra.Command, f *searchFlags, queries []string) error {
	cfg, err := loadConfig(func(c *config.Config) { f.apply(cmd, c) })
	if err != nil {
		return err
	}
	logger := setupLogger(cfg.Logging)

	ctx, stop := signalContext()
	defer stop()

	var metrics *observability.Metrics
	if cfg.Metrics.Enabled {
		metrics = observability.NewMetrics(logger)
		srv := metrics.StartServer(cfg.Metrics.Port, cfg.Metrics.Path)
		defer srv.Stop(context.Background())
	}

	store, err := storage.New(ctx, cfg.Storage, logger)
	if err != nil {
		return fmt.Errorf("create storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("storage close failed", "error", err)
		}
	}()

	searcher, err := search.New(cfg, logger, search.WithMetrics(metrics))
	if err != nil {
		return err
	}

	results, searchErr := searcher.SearchAll(ctx, queries, cfg.Marketplace.MaxResults)
	for _, res := range results {
		printResult(res)
		if len(res.Screenshot) > 0 {
			saveScreenshot(cfg.Storage.OutputPath, res)
		}
		if len(res.Listings) == 0 {
			continue
		}
		batch := storage.Batch{SearchID: res.ID, Query: res.Query, ScrapedAt: res.StartedAt, Listings: res.Listings}
		if err := store.Store(ctx, batch); err != nil {
			logger.Error("store results failed", "query", res.Query, "error", err)
			continue
		}
		metrics.ObserveStored(store.Name(), len(res.Listings))
	}

	if types.IsBrowserNotFound(searchErr) {
		fmt.Fprintln(os.Stderr, "\nNo supported browser was found. Install Google Chrome, Chromium or Mozilla Firefox,")
		fmt.Fprintln(os.Stderr, "or point browser.extra_paths in carousell.yaml at an existing executable.")
	}
	return searchErr
}

func printResult(res *search.Result) {
	fmt.Printf("\n%q: %d listings in %s\n", res.Query, len(res.Listings), res.Duration.Round(time.Millisecond))
	if res.Err != nil {
		fmt.Printf("   error: %v\n", res.Err)
	}
	if len(res.Listings) == 0 {
		if res.Err == nil {
			fmt.Println("   No listings found. Try a different keyword, or --headless=false if a CAPTCHA is shown.")
		}
		return
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tNAME\tPRICE\tURL")
	for i, l := range res.Listings {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", i+1, truncate(l.Name, 60), l.Price, l.URL)
	}
	tw.Flush()
}

// truncate shortens s to n runes.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-1]) + "…"
}

func saveScreenshot(dir string, res *search.Result) {
	if dir == "" || filepath.Ext(dir) != "" {
		dir = filepath.Dir(dir)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return
	}
	path := filepath.Join(dir, "debug_"+res.ID+".png")
	if err := os.WriteFile(path, res.Screenshot, 0o644); err == nil {
		fmt.Printf("   debug screenshot: %s\n", path)
	}
}
