// Command check-setup verifies the environment is ready for a pipeline run:
// configuration, credential file, and connectivity to Gmail and Sheets.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"google.golang.org/api/option"

	"github.com/BabakBar/AutoSpendTracker/internal/config"
	"github.com/BabakBar/AutoSpendTracker/internal/mail"
	"github.com/BabakBar/AutoSpendTracker/internal/sheets"
)

func main() {
	ok := true

	fmt.Println("Checking configuration...")
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("  ✗ %v\n", err)
		fmt.Println("\nSetup incomplete: fix configuration before running further checks.")
		os.Exit(1)
	}
	fmt.Printf("  ✓ PROJECT_ID=%s\n", cfg.ProjectID)
	fmt.Printf("  ✓ SPREADSHEET_ID=%s\n", cfg.SpreadsheetID)
	fmt.Printf("  ✓ model=%s label=%q days_back=%d\n", cfg.ModelName, cfg.GmailLabelName, cfg.EmailDaysBack)

	fmt.Println("\nChecking credentials...")
	var opts []option.ClientOption
	if _, err := os.Stat(cfg.ServiceAccountFile); err == nil {
		fmt.Printf("  ✓ service account file %s exists\n", cfg.ServiceAccountFile)
		opts = append(opts, option.WithCredentialsFile(cfg.ServiceAccountFile))
	} else {
		fmt.Printf("  - service account file %s not found, relying on application default credentials\n", cfg.ServiceAccountFile)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	fmt.Println("\nChecking Gmail access...")
	gmailSvc, err := mail.NewGmailService(ctx, opts...)
	if err != nil {
		fmt.Printf("  ✗ create Gmail service: %v\n", err)
		ok = false
	} else {
		if _, err := gmailSvc.Search(ctx, mail.BuildQuery(cfg.GmailLabelName, 1)); err != nil {
			fmt.Printf("  ✗ search: %v\n", err)
			ok = false
		} else {
			fmt.Println("  ✓ Gmail search works")
		}
	}

	fmt.Println("\nChecking Sheets access...")
	if _, err := sheets.New(ctx, cfg.SpreadsheetID, cfg.SheetRange, opts...); err != nil {
		fmt.Printf("  ✗ create Sheets service: %v\n", err)
		ok = false
	} else {
		fmt.Println("  ✓ Sheets service created")
	}

	if !ok {
		fmt.Println("\nSetup incomplete: fix the items marked ✗ above.")
		os.Exit(1)
	}
	fmt.Println("\nAll checks passed.")
}
