// Package sheets implements the spreadsheet append capability on the Google
// Sheets API.
package sheets

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Client appends transaction rows to one spreadsheet range.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	writeRange    string
}

// New creates a Sheets client. Credentials come from opts (service account
// file or ADC).
func New(ctx context.Context, spreadsheetID, writeRange string, opts ...option.ClientOption) (*Client, error) {
	if spreadsheetID == "" {
		return nil, errors.New("sheets: spreadsheet id is required")
	}

	opts = append(opts, option.WithScopes(gsheet.SpreadsheetsScope))
	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("sheets: create service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		writeRange:    writeRange,
	}, nil
}

// Append appends the rows below the configured range in one batched call and
// returns the number of updated cells. Rows must already be in the 7-column
// order: date, time, merchant, amount, currency, category, account.
func (c *Client) Append(ctx context.Context, rows [][]string) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	values := make([][]interface{}, len(rows))
	for i, row := range rows {
		cells := make([]interface{}, len(row))
		for j, v := range row {
			cells[j] = v
		}
		values[i] = cells
	}

	resp, err := c.svc.Spreadsheets.Values.
		Append(c.spreadsheetID, c.writeRange, &gsheet.ValueRange{Values: values}).
		ValueInputOption("USER_ENTERED").
		Context(ctx).
		Do()
	if err != nil {
		return 0, fmt.Errorf("sheets: append %d rows: %w", len(rows), err)
	}

	if resp.Updates == nil {
		return 0, nil
	}
	return resp.Updates.UpdatedCells, nil
}
