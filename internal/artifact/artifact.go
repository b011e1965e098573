// Package artifact writes the local audit copy of a run's output: a JSON
// array of 7-field row arrays, overwritten wholesale after each run. It is
// not authoritative; operational recovery reads it when the spreadsheet
// append failed after messages were already marked.
package artifact

import (
	"encoding/json"
	"fmt"
	"os"
)

// Save writes the rows to path as indented JSON, replacing any previous
// content.
func Save(path string, rows [][]string) error {
	if rows == nil {
		rows = [][]string{}
	}
	data, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return fmt.Errorf("artifact: marshal rows: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("artifact: write %s: %w", path, err)
	}
	return nil
}

// Load reads rows previously written by Save, for manual reconciliation or
// re-upload.
func Load(path string) ([][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("artifact: read %s: %w", path, err)
	}
	var rows [][]string
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("artifact: parse %s: %w", path, err)
	}
	return rows, nil
}
