package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/api/option"

	"github.com/BabakBar/AutoSpendTracker/internal/ai"
	"github.com/BabakBar/AutoSpendTracker/internal/artifact"
	"github.com/BabakBar/AutoSpendTracker/internal/config"
	"github.com/BabakBar/AutoSpendTracker/internal/export"
	"github.com/BabakBar/AutoSpendTracker/internal/logger"
	"github.com/BabakBar/AutoSpendTracker/internal/mail"
	"github.com/BabakBar/AutoSpendTracker/internal/monitoring"
	"github.com/BabakBar/AutoSpendTracker/internal/notify"
	"github.com/BabakBar/AutoSpendTracker/internal/pipeline"
	"github.com/BabakBar/AutoSpendTracker/internal/ratelimit"
	"github.com/BabakBar/AutoSpendTracker/internal/sheets"
)

func main() {
	dryRun := flag.Bool("dry-run", false, "process messages without marking them or writing to any sink")
	noFile := flag.Bool("no-file", false, "skip writing the local JSON artifact")
	noSheets := flag.Bool("no-sheets", false, "skip appending to the spreadsheet")
	flag.Parse()

	log := logger.New()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Configuration error")
	}
	log = logger.NewWithLevel(cfg.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	log.Info().
		Str("project_id", cfg.ProjectID).
		Str("model", cfg.ModelName).
		Int("email_days_back", cfg.EmailDaysBack).
		Int("rate_limit_calls", cfg.RateLimitCalls).
		Dur("rate_limit_period", cfg.RateLimitPeriod).
		Msg("Starting AutoSpendTracker")

	// Rate limiter and metrics are constructed here and injected; no
	// package-level singletons.
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
		DryRun:        *dryRun,
	}, log)

	res, err := pipe.Run(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Pipeline run failed")
	}

	if *dryRun {
		log.Info().Int("would_commit", len(res.Transactions)).Msg("Dry run, nothing committed")
	} else {
		commit(ctx, log, cfg, res, !*noFile, !*noSheets)
		notifySummary(ctx, log, cfg, res, metrics)
	}
	metrics.LogSummary(log)
}

// commit hands the batch to the downstream collaborators: local artifact
// first (the audit copy survives a sheets failure), then the batched
// spreadsheet append, then the optional archive sinks.
func commit(ctx context.Context, log zerolog.Logger, cfg *config.Config, res *pipeline.Result, saveFile, upload bool) {
	rows := res.Rows()
	if len(rows) == 0 {
		log.Info().Msg("No transactions to commit")
		return
	}

	if saveFile {
		if err := artifact.Save(cfg.OutputFile, rows); err != nil {
			log.Error().Err(err).Msg("Failed to save local artifact")
		} else {
			log.Info().Int("rows", len(rows)).Str("path", cfg.OutputFile).Msg("Saved local artifact")
		}
		if cfg.ArtifactBucket != "" {
			if err := artifact.UploadBackup(ctx, cfg.ArtifactBucket, res.RunID, cfg.OutputFile); err != nil {
				log.Warn().Err(err).Msg("Artifact backup upload failed")
			}
		}
	}

	if upload {
		sheetsClient, err := sheets.New(ctx, cfg.SpreadsheetID, cfg.SheetRange, credentialOptions(cfg)...)
		if err != nil {
			log.Error().Err(err).Msg("Failed to create Sheets client; recover from the local artifact")
			return
		}
		cells, err := sheetsClient.Append(ctx, rows)
		if err != nil {
			// Not retried here: messages are already marked, so recovery is
			// manual reconciliation from the local artifact.
			log.Error().Err(err).Msg("Spreadsheet append failed; recover from the local artifact")
		} else {
			log.Info().Int64("updated_cells", cells).Msg("Appended transactions to spreadsheet")
		}
	}

	if cfg.BigQueryDataset != "" {
		exporter, err := export.NewExporter(ctx, cfg.ProjectID, cfg.BigQueryDataset, cfg.BigQueryTable)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to create BigQuery exporter")
			return
		}
		defer exporter.Close()
		if err := exporter.Insert(ctx, res.RunID, res.Transactions); err != nil {
			log.Warn().Err(err).Msg("BigQuery archive insert failed")
		}
	}
}

func notifySummary(ctx context.Context, log zerolog.Logger, cfg *config.Config, res *pipeline.Result, metrics *monitoring.Collector) {
	if cfg.WebhookURL == "" {
		return
	}

	var cost float64
	for _, m := range metrics.Snapshot() {
		cost += m.TotalCost
	}

	notifier := notify.NewWebhookNotifier(cfg.WebhookURL)
	err := notifier.NotifyRunSummary(ctx, notify.RunSummary{
		RunID:     res.RunID,
		Status:    res.Status(),
		Processed: res.Processed,
		Skipped:   res.Skipped,
		Failed:    res.Failed,
		Duration:  res.Duration.String(),
		CostUSD:   cost,
	})
	if err != nil {
		log.Warn().Err(err).Msg("Run summary notification failed")
	}
}

// credentialOptions prefers an explicit service account file and falls back
// to application default credentials.
func credentialOptions(cfg *config.Config) []option.ClientOption {
	if cfg.ServiceAccountFile != "" {
		if _, err := os.Stat(cfg.ServiceAccountFile); err == nil {
			return []option.ClientOption{option.WithCredentialsFile(cfg.ServiceAccountFile)}
		}
	}
	return nil
}
