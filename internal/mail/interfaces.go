package mail

import (
	"context"
	"fmt"

	"github.com/BabakBar/AutoSpendTracker/internal/domain"
)

// RawMessage is one fetched mail message, flattened to the parts the
// extractor needs. Immutable once fetched.
type RawMessage struct {
	ID   string
	From string // From header value
	Date string // Date header value, RFC 5322
	HTML string // decoded first text/html part; empty when the message has none
}

// IntermediateRecord is the regex-derived transaction sketch handed to the
// AI stage. A nil *IntermediateRecord from Extract means no transaction
// pattern matched, which is a silent skip rather than an error.
type IntermediateRecord struct {
	Date    string         `json:"date"`    // "DD-MM-YYYY H:MM PM" from the Date header
	Info    string         `json:"info"`    // "You spent {amount} {currency} at {merchant}."
	Account domain.Account `json:"account"` // Wise or PayPal, from the sender domain
}

// Service is the mail source capability used by the pipeline.
type Service interface {
	// Search returns the ids of messages matching the query, in source order.
	// No matches is an empty slice, not an error.
	Search(ctx context.Context, query string) ([]string, error)

	// GetMessage fetches headers and body for a single message.
	GetMessage(ctx context.Context, id string) (*RawMessage, error)

	// EnsureLabel returns the id of the named label, creating it if needed.
	EnsureLabel(ctx context.Context, name string) (string, error)

	// ApplyLabel attaches the label to a message. This is the durable
	// processing mark; the pipeline never removes it.
	ApplyLabel(ctx context.Context, msgID, labelID string) error
}

// FetchError wraps a failure to reach the mail source. The orchestrator
// treats it as fatal for the whole run when candidate selection fails.
type FetchError struct {
	Op  string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("mail: %s: %v", e.Op, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }
