package pipeline

import "fmt"

// ParseError means the model response could not be reduced to a JSON object.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("pipeline: parsing model response: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// MarkingError means the durable processing mark could not be applied after
// a transaction was successfully produced. The record is still kept; the
// accepted risk is duplicate reprocessing on the next run.
type MarkingError struct {
	MessageID string
	Err       error
}

func (e *MarkingError) Error() string {
	return fmt.Sprintf("pipeline: marking message %s processed: %v", e.MessageID, e.Err)
}

func (e *MarkingError) Unwrap() error { return e.Err }
