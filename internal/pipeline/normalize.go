package pipeline

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/BabakBar/AutoSpendTracker/internal/domain"
)

// categoryHint overrides the model's category when the merchant name
// contains a known substring. Applied in table order, first match wins, and
// hints take precedence over whatever the model proposed.
type categoryHint struct {
	Merchant string
	Category string
}

var categoryHints = []categoryHint{
	{"OpenRouter", "Utilities"},
	{"Namecheap", "Utilities"},
	{"Old Peter", "Food & Dining"},
	{"Balam", "Food & Dining"},
	{"City Market", "Grocery"},
	{"Deckers", "Shopping"},
	{"Mood Up", "Shopping"},
	{"Cosmet", "Shopping"},
	{"Casa De Los Cirios", "Food & Dining"},
}

var codeFencePattern = regexp.MustCompile("```(?:json)?\\s*")

// CleanResponse strips markdown code fences and stray backticks the model
// sometimes wraps around its output despite instructions.
func CleanResponse(raw string) string {
	cleaned := codeFencePattern.ReplaceAllString(raw, "")
	return strings.TrimSpace(strings.Trim(strings.TrimSpace(cleaned), "`"))
}

// Normalize converts the raw model response into a validated transaction.
// It fails with *ParseError when no JSON object can be extracted and with
// *domain.ValidationError when the object violates the transaction schema.
func Normalize(raw string) (*domain.Transaction, error) {
	cleaned := CleanResponse(raw)

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start == -1 || end == -1 || end < start {
		return nil, &ParseError{Err: fmt.Errorf("no JSON object in response %q", truncate(raw, 200))}
	}
	cleaned = cleaned[start : end+1]

	var tx domain.Transaction
	if err := json.Unmarshal([]byte(cleaned), &tx); err != nil {
		return nil, &ParseError{Err: err}
	}

	applyCategoryHints(&tx)

	tx.Normalize()
	if err := tx.Validate(); err != nil {
		return nil, err
	}
	return &tx, nil
}

// applyCategoryHints replaces the model's category when the merchant
// case-insensitively contains a hinted substring.
func applyCategoryHints(tx *domain.Transaction) {
	merchant := strings.ToLower(tx.Merchant)
	for _, h := range categoryHints {
		if strings.Contains(merchant, strings.ToLower(h.Merchant)) {
			tx.Category = h.Category
			return
		}
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
