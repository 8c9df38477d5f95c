package main

import (
	"context"
	"errors"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/kerlann/pharmatools/config"
	"github.com/kerlann/pharmatools/crawl"
	"github.com/kerlann/pharmatools/data"
	"github.com/kerlann/pharmatools/fetch"
	"github.com/kerlann/pharmatools/handlers"
	"github.com/kerlann/pharmatools/llm"
	"github.com/kerlann/pharmatools/logging"
	"github.com/kerlann/pharmatools/registry"
	"github.com/kerlann/pharmatools/scheduler"
	"github.com/kerlann/pharmatools/server"
	"github.com/kerlann/pharmatools/validation"
)

func main() {
	// .env is optional; real deployments set the environment directly
	if err := godotenv.Load(); err != nil {
		logging.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		logging.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.InitLogger(cfg.LogDir, cfg.LogLevel)

	dataContainer := data.NewContainer()
	parser := registry.NewParser()

	sched := scheduler.NewScheduler(dataContainer, parser)
	go func() {
		if err := sched.Start(); err != nil {
			logging.Error("Scheduler failed to start", "error", err)
		}
	}()
	defer sched.Stop()

	validator := validation.NewInputValidator()

	// LLM-backed endpoints stay registered but answer 503 without a key
	var extractor *llm.AdverseEventExtractor
	var crawler *crawl.Crawler
	if cfg.OpenAIAPIKey != "" {
		client := llm.NewOpenAIClient(llm.Config{
			APIKey:  cfg.OpenAIAPIKey,
			BaseURL: cfg.OpenAIBaseURL,
			Model:   cfg.OpenAIModel,
		})
		extractor = llm.NewAdverseEventExtractor(client)

		pages := fetch.NewPageFetcher(
			time.Duration(cfg.FetchTimeoutSec)*time.Second,
			cfg.FetchMaxAttempts,
			cfg.FetchMaxBodyMB*1024*1024,
		)
		search := fetch.NewSearchClient(cfg.SearchAPIURL, cfg.SearchAPIKey, "")
		classifier := llm.NewSuspiciousClassifier(client)
		crawler = crawl.NewCrawler(search, pages, classifier, 0)
	} else {
		logging.Warn("OPENAI_API_KEY is not set, comparison and crawl endpoints are disabled")
	}

	var handler *handlers.HTTPHandler
	if crawler != nil {
		handler = handlers.NewHTTPHandler(dataContainer, validator, extractor, crawler)
	} else {
		handler = handlers.NewHTTPHandler(dataContainer, validator, nil, nil)
	}

	srv := server.NewServer(cfg, handler)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logging.Error("Shutdown failed", "error", err)
		os.Exit(1)
	}
}
