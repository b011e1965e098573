package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/api/option"

	"github.com/BabakBar/AutoSpendTracker/internal/ai"
	"github.com/BabakBar/AutoSpendTracker/internal/api/handlers"
	"github.com/BabakBar/AutoSpendTracker/internal/artifact"
	"github.com/BabakBar/AutoSpendTracker/internal/config"
	"github.com/BabakBar/AutoSpendTracker/internal/jobs"
	"github.com/BabakBar/AutoSpendTracker/internal/jobs/inmemory"
	"github.com/BabakBar/AutoSpendTracker/internal/logger"
	"github.com/BabakBar/AutoSpendTracker/internal/mail"
	"github.com/BabakBar/AutoSpendTracker/internal/monitoring"
	"github.com/BabakBar/AutoSpendTracker/internal/pipeline"
	"github.com/BabakBar/AutoSpendTracker/internal/ratelimit"
	"github.com/BabakBar/AutoSpendTracker/internal/sheets"
)

func main() {
	port := flag.String("port", "8080", "HTTP server port")
	flag.Parse()

	log := logger.New()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Configuration error")
	}
	log = logger.NewWithLevel(cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	limiters := ratelimit.NewRegistry()
	limiter := limiters.Get(ai.Endpoint, cfg.RateLimitCalls, cfg.RateLimitPeriod)
	metrics := monitoring.NewCollector()

	aiClient, err := ai.NewClient(ctx, ai.Config{
		ProjectID: cfg.ProjectID,
		Location:  cfg.Location,
		ModelName: cfg.ModelName,
	}, limiter, metrics)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize AI client")
	}

	gmailSvc, err := mail.NewGmailService(ctx, credentialOptions(cfg)...)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize Gmail service")
	}

	pipe := pipeline.New(gmailSvc, aiClient, pipeline.Options{
		LabelName:     cfg.GmailLabelName,
		EmailDaysBack: cfg.EmailDaysBack,
	}, log)

	// Single-worker queue: runs execute one at a time even when triggers
	// overlap.
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(10, jobStore)

	handler := func(ctx context.Context, job *jobs.RunJob) error {
		res, err := pipe.Run(ctx)
		if err != nil {
			return err
		}

		job.RunID = res.RunID
		job.RunStatus = res.Status()
		job.Processed = res.Processed
		job.Skipped = res.Skipped
		job.Failed = res.Failed
		job.DurationSec = res.Duration.Seconds()

		commit(ctx, log, cfg, res)
		return nil
	}

	if err := jobQueue.Start(ctx, handler); err != nil {
		log.Fatal().Err(err).Msg("Failed to start run worker")
	}

	runsHandler := handlers.NewRunsHandler(jobQueue, jobStore, log)
	metricsHandler := handlers.NewMetricsHandler(metrics, limiters)
	router := handlers.NewRouter(runsHandler, metricsHandler, log)

	server := &http.Server{
		Addr:         ":" + *port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	go func() {
		log.Info().Str("port", *port).Msg("API server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down API server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during server shutdown")
	}

	cancel()
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping run worker")
	}
	if err := jobQueue.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close run queue")
	}

	log.Info().Msg("API server exited")
}

// commit mirrors the one-shot command: artifact first, then the batched
// spreadsheet append.
func commit(ctx context.Context, log zerolog.Logger, cfg *config.Config, res *pipeline.Result) {
	rows := res.Rows()
	if len(rows) == 0 {
		return
	}

	if err := artifact.Save(cfg.OutputFile, rows); err != nil {
		log.Error().Err(err).Msg("Failed to save local artifact")
	}

	sheetsClient, err := sheets.New(ctx, cfg.SpreadsheetID, cfg.SheetRange, credentialOptions(cfg)...)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create Sheets client; recover from the local artifact")
		return
	}
	if _, err := sheetsClient.Append(ctx, rows); err != nil {
		log.Error().Err(err).Msg("Spreadsheet append failed; recover from the local artifact")
	}
}

func credentialOptions(cfg *config.Config) []option.ClientOption {
	if cfg.ServiceAccountFile != "" {
		if _, err := os.Stat(cfg.ServiceAccountFile); err == nil {
			return []option.ClientOption{option.WithCredentialsFile(cfg.ServiceAccountFile)}
		}
	}
	return nil
}
