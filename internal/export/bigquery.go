// Package export provides an optional write-only BigQuery archive of
// normalized transactions. It is never read back by the pipeline; the Gmail
// label remains the only durable checkpoint.
package export

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"

	"github.com/BabakBar/AutoSpendTracker/internal/domain"
)

// TransactionRow is the BigQuery representation of one normalized
// transaction.
type TransactionRow struct {
	RunID      string     `bigquery:"run_id"`
	Date       civil.Date `bigquery:"date"`
	Time       string     `bigquery:"time"`
	Merchant   string     `bigquery:"merchant"`
	Amount     string     `bigquery:"amount"`
	Currency   string     `bigquery:"currency"`
	Category   string     `bigquery:"category"`
	Account    string     `bigquery:"account"`
	InsertedAt time.Time  `bigquery:"inserted_ts"`
}

// Exporter streams transaction rows into one dataset.table.
type Exporter struct {
	client  *bigquery.Client
	dataset string
	table   string
}

// NewExporter creates a BigQuery client for the project.
func NewExporter(ctx context.Context, projectID, dataset, table string) (*Exporter, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("export: bigquery client: %w", err)
	}
	return &Exporter{client: client, dataset: dataset, table: table}, nil
}

// Insert archives the batch under the given run id. Transactions carry
// validated DD-MM-YYYY dates by the time they reach the exporter.
func (e *Exporter) Insert(ctx context.Context, runID string, txs []domain.Transaction) error {
	if len(txs) == 0 {
		return nil
	}

	now := time.Now()
	rows := make([]*TransactionRow, 0, len(txs))
	for i := range txs {
		tx := &txs[i]
		parsed, err := time.Parse("02-01-2006", tx.Date)
		if err != nil {
			return fmt.Errorf("export: transaction %d has invalid date %q: %w", i, tx.Date, err)
		}
		rows = append(rows, &TransactionRow{
			RunID:      runID,
			Date:       civil.DateOf(parsed),
			Time:       tx.Time,
			Merchant:   tx.Merchant,
			Amount:     tx.Amount,
			Currency:   tx.Currency,
			Category:   tx.Category,
			Account:    string(tx.Account),
			InsertedAt: now,
		})
	}

	inserter := e.client.Dataset(e.dataset).Table(e.table).Inserter()
	if err := inserter.Put(ctx, rows); err != nil {
		return fmt.Errorf("export: inserting %d rows: %w", len(rows), err)
	}
	return nil
}

// Close releases the underlying client.
func (e *Exporter) Close() error {
	return e.client.Close()
}
