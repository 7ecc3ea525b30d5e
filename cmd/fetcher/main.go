package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync/atomic"
	"time"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/xhad/jfkfiles/internal/models"
	cfgPkg "github.com/xhad/jfkfiles/pkg/config"
	"github.com/xhad/jfkfiles/pkg/scraper"
)

type Config struct {
	IndexURL     string
	DocumentsDir string
	RateLimit    float64
	MaxPages     int
	UserAgent    string
	Timeout      time.Duration
}

func main() {
	config, err := parseFlags()
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, config); err != nil {
		log.Fatal(err)
	}
}

func parseFlags() (Config, error) {
	var config Config
	var configPath string

	flag.StringVar(&configPath, "config", "", "Path to config file")
	flag.StringVar(&config.IndexURL, "index-url", "", "Archive index page to crawl")
	flag.StringVar(&config.DocumentsDir, "dir", "", "Directory to save documents in")
	flag.Float64Var(&config.RateLimit, "rate-limit", 0, "Downloads per second")
	flag.IntVar(&config.MaxPages, "max-pages", 0, "Maximum index pages to visit")
	flag.Parse()

	cfg, err := cfgPkg.LoadConfig(configPath)
	if err != nil {
		return config, err
	}

	// Command line flags win over the config file
	if config.IndexURL != "" {
		cfg.Fetcher.IndexURL = config.IndexURL
	}
	if config.DocumentsDir != "" {
		cfg.Fetcher.DocumentsDir = config.DocumentsDir
	}
	if config.RateLimit != 0 {
		cfg.Fetcher.RateLimit = config.RateLimit
	}
	if config.MaxPages != 0 {
		cfg.Fetcher.MaxPages = config.MaxPages
	}

	if errs := cfg.ValidateFetcher(); len(errs) > 0 {
		for _, e := range errs {
			color.Red("config: %v", e)
		}
		return config, fmt.Errorf("invalid configuration")
	}

	config.IndexURL = cfg.Fetcher.IndexURL
	config.DocumentsDir = cfg.Fetcher.DocumentsDir
	config.RateLimit = cfg.Fetcher.RateLimit
	config.MaxPages = cfg.Fetcher.MaxPages
	config.UserAgent = cfg.Fetcher.UserAgent
	config.Timeout = cfg.Fetcher.Timeout

	return config, nil
}

func getProgressBar(total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription(color.BlueString(description)),
		progressbar.OptionSetItsString("files"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
		progressbar.OptionSetRenderBlankState(true),
	)
}

func getSpinner(description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(color.CyanString(description)),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetWidth(20),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetRenderBlankState(true),
	)
}

func run(ctx context.Context, config Config) error {
	var pages int32
	spinner := getSpinner("📄 Reading archive index...")

	s, err := scraper.NewWithConfig(scraper.ScraperConfig{
		BaseURL:      config.IndexURL,
		DocumentsDir: config.DocumentsDir,
		RateLimit:    config.RateLimit,
		UserAgent:    config.UserAgent,
		MaxPages:     config.MaxPages,
		Timeout:      config.Timeout,
		OnProgress: func(url string) {
			n := atomic.AddInt32(&pages, 1)
			spinner.Describe(color.CyanString("📄 Reading archive index... (%d pages)", n))
			spinner.Add(1)
		},
	})
	if err != nil {
		return fmt.Errorf("failed to initialize scraper: %v", err)
	}

	color.Blue("\nFetching documents from %s\n", config.IndexURL)

	refs, err := s.ListDocuments(ctx)
	spinner.Finish()
	if err != nil {
		return fmt.Errorf("failed to list documents: %v", err)
	}
	color.Green("\n✓ Found %d documents on %d pages\n", len(refs), atomic.LoadInt32(&pages))

	if len(refs) == 0 {
		color.Yellow("Nothing to download")
		return nil
	}

	bar := getProgressBar(len(refs), "⬇️  Downloading documents...")
	summary, err := s.FetchAll(ctx, refs, func(ref models.DocumentRef, err error) {
		bar.Add(1)
	})
	bar.Finish()
	if err != nil {
		return fmt.Errorf("download interrupted: %v", err)
	}

	color.Green("\n✓ Downloaded %d, skipped %d existing\n", summary.Downloaded, summary.Skipped)
	if summary.Failed > 0 {
		color.Red("✗ %d downloads failed, run again to retry\n", summary.Failed)
	}
	color.Cyan("Documents saved in %s\n", config.DocumentsDir)

	return nil
}
