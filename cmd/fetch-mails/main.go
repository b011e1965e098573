// Command fetch-mails lists the transaction emails the pipeline would pick
// up, with their extracted records, without making any AI calls or applying
// labels. Useful for checking the search query and regex extraction.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"google.golang.org/api/option"

	"github.com/BabakBar/AutoSpendTracker/internal/config"
	"github.com/BabakBar/AutoSpendTracker/internal/logger"
	"github.com/BabakBar/AutoSpendTracker/internal/mail"
)

func main() {
	includeProcessed := flag.Bool("include-processed", false, "also list messages already carrying the processed label")
	flag.Parse()

	log := logger.New()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Configuration error")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	var opts []option.ClientOption
	if _, err := os.Stat(cfg.ServiceAccountFile); err == nil {
		opts = append(opts, option.WithCredentialsFile(cfg.ServiceAccountFile))
	}

	svc, err := mail.NewGmailService(ctx, opts...)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize Gmail service")
	}

	label := cfg.GmailLabelName
	if *includeProcessed {
		// An unknown label name never matches, so the negation is a no-op.
		label = "__none__"
	}
	query := mail.BuildQuery(label, cfg.EmailDaysBack)
	fmt.Printf("Query: %s\n\n", query)

	ids, err := svc.Search(ctx, query)
	if err != nil {
		log.Fatal().Err(err).Msg("Search failed")
	}
	fmt.Printf("Found %d candidate message(s)\n\n", len(ids))

	for _, id := range ids {
		msg, err := svc.GetMessage(ctx, id)
		if err != nil {
			log.Error().Err(err).Str("message_id", id).Msg("Fetch failed")
			continue
		}
		rec, err := mail.Extract(msg)
		if err != nil {
			log.Error().Err(err).Str("message_id", id).Msg("Extraction failed")
			continue
		}
		if rec == nil {
			fmt.Printf("%s  from=%s  (no transaction pattern)\n", id, msg.From)
			continue
		}
		fmt.Printf("%s  account=%s  date=%q\n  info: %s\n", id, rec.Account, rec.Date, rec.Info)
	}
}
