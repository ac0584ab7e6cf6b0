package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"homie/internal/app"
	"homie/internal/config"
	"homie/internal/logging"
	"homie/internal/scraper"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	// Parse command line flags
	dbPath := flag.String("db", cfg.Database.Path, "Path to SQLite database")
	urlFile := flag.String("urls", "", "File with one listing URL per line (- for stdin)")
	delay := flag.Duration("delay", cfg.Fetch.Delay, "Delay between requests")
	fetchMode := flag.String("fetch", cfg.Fetch.Mode, "Page fetcher: http, browser or scrapingbee")
	headless := flag.Bool("headless", cfg.Fetch.Headless, "Run browser in headless mode (set false to see browser)")
	enrichMode := flag.String("enrichment", cfg.Enrichment.Mode, "School and market data: static or live")
	refresh := flag.Bool("refresh", false, "Re-scrape listings that are already stored")
	analyze := flag.Bool("analyze", false, "Run the investment analysis for every saved listing")
	flag.Parse()

	cfg.Database.Path = *dbPath
	cfg.Fetch.Delay = *delay
	cfg.Fetch.Mode = *fetchMode
	cfg.Fetch.Headless = *headless
	cfg.Enrichment.Mode = *enrichMode
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log, err := logging.New(logging.Config{Level: cfg.Log.Level, Development: cfg.Log.Development})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer log.Sync()

	urls, err := readURLs(*urlFile, flag.Args())
	if err != nil {
		log.Fatal("failed to read urls", zap.Error(err))
	}
	if len(urls) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: scraper [options] <listing-url>...")
		flag.PrintDefaults()
		os.Exit(1)
	}

	// Setup context with cancellation on interrupt
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal("failed to initialize", zap.Error(err))
	}
	defer a.Close()

	s := scraper.New(a.Fetcher, a.Extractor, a.Normalizer, a.DB, a.Analysis, scraper.Config{
		DelayBetween: cfg.Fetch.Delay,
		Refresh:      *refresh,
		Analyze:      *analyze,
	}, log.Named("scraper"))

	summary, err := s.Run(ctx, urls)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			log.Info("scraper cancelled by user", zap.Int("saved", summary.Saved))
			return
		}
		log.Fatal("scraper failed", zap.Error(err))
	}
}

func readURLs(path string, args []string) ([]string, error) {
	urls := append([]string(nil), args...)
	if path == "" {
		return urls, nil
	}

	f := os.Stdin
	if path != "-" {
		var err error
		f, err = os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
	}

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	return urls, scanner.Err()
}
