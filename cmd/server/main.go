package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"homie/internal/api"
	"homie/internal/app"
	"homie/internal/config"
	"homie/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	// Parse command line flags
	port := flag.String("port", cfg.Server.Port, "Port to listen on")
	dbPath := flag.String("db", cfg.Database.Path, "Path to SQLite database")
	fetchMode := flag.String("fetch", cfg.Fetch.Mode, "Page fetcher: http, browser or scrapingbee")
	enrichMode := flag.String("enrichment", cfg.Enrichment.Mode, "School and market data: static or live")
	flag.Parse()

	cfg.Server.Port = *port
	cfg.Database.Path = *dbPath
	cfg.Fetch.Mode = *fetchMode
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal("failed to initialize", zap.Error(err))
	}
	defer a.Close()

	router := api.NewRouter(api.Deps{
		Store:      a.DB,
		Pipeline:   a.Scraper,
		Analyzer:   a.Analysis,
		Forecaster: a.Forecaster,
		Normalizer: a.Normalizer,
	}, log.Named("api"))

	srv := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Info("starting server",
		zap.String("addr", srv.Addr),
		zap.String("db", cfg.Database.Path),
		zap.String("fetch", cfg.Fetch.Mode),
		zap.String("enrichment", cfg.Enrichment.Mode),
	)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("server failed", zap.Error(err))
	}
	log.Info("server stopped")
}
