package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sentiment-pulse/internal/classifier/classifierobs"
	"sentiment-pulse/internal/classifier/gemini"
	"sentiment-pulse/internal/classifier/noop"
	"sentiment-pulse/internal/engine"
	"sentiment-pulse/internal/interfaces"
	"sentiment-pulse/internal/logger"
	"sentiment-pulse/internal/persist"
	"sentiment-pulse/internal/server"
	"sentiment-pulse/internal/store"
	"sentiment-pulse/internal/trace"

	"github.com/joho/godotenv"
)

func must(err error) {
	if err != nil {
		log.Fatal(err)
	}
}

func main() {
	_ = godotenv.Load()

	must(logger.Init())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	must(trace.Init())
	defer func() { _ = trace.Shutdown(context.Background()) }()

	configPath := os.Getenv("PULSE_CONFIG")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := store.LoadConfig(configPath)
	must(err)

	db, err := persist.Open(cfg.Persistence.Path)
	must(err)
	defer db.Close()

	var cl interfaces.Classifier
	if cfg.Classifier.Provider == "GEMINI" {
		cl = gemini.New(cfg)
	} else {
		logger.Info(ctx, "No classifier provider configured, signals score neutral")
		cl = noop.New()
	}
	cl = classifierobs.Wrap(cl)

	eng := engine.New(cfg, cl, db, nil)
	eng.LoadInitialFeed(ctx)

	srv := server.New(cfg.Server.Addr, eng)

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)

	engineDone := make(chan struct{})
	go func() {
		defer close(engineDone)
		eng.Run(ctx)
	}()
	go func() {
		if err := srv.Start(); err != nil {
			logger.ErrorWithErr(ctx, "API server failed", err)
			cancel()
		}
	}()

	logger.Info(ctx, "Sentiment pulse started",
		"stream_url", cfg.Stream.URL, "provider", cfg.Classifier.Provider, "addr", cfg.Server.Addr)

	select {
	case <-sigc:
		logger.Info(ctx, "Shutting down...")
	case <-ctx.Done():
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.ErrorWithErr(shutdownCtx, "API server shutdown failed", err)
	}
	<-engineDone
}
