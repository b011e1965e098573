package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/BabakBar/AutoSpendTracker/internal/ai"
	"github.com/BabakBar/AutoSpendTracker/internal/domain"
	"github.com/BabakBar/AutoSpendTracker/internal/mail"
)

// Options configures one pipeline instance.
type Options struct {
	LabelName     string // processing-mark label
	EmailDaysBack int    // candidate selection lookback window
	DryRun        bool   // process messages but never mark them
}

// Result aggregates the outcome of one run. An empty Transactions slice with
// zero failures is a valid outcome.
type Result struct {
	RunID        string
	Transactions []domain.Transaction
	Processed    int
	Skipped      int
	Failed       int
	Duration     time.Duration
}

// Rows converts the batch to sheet rows in the fixed 7-column order.
func (r *Result) Rows() [][]string {
	rows := make([][]string, 0, len(r.Transactions))
	for i := range r.Transactions {
		rows = append(rows, r.Transactions[i].ToRow())
	}
	return rows
}

// Status summarizes the run: "success" (no failures), "partial" (some
// messages failed but the batch holds records), or "failure".
func (r *Result) Status() string {
	switch {
	case r.Failed == 0:
		return "success"
	case r.Processed > 0:
		return "partial"
	default:
		return "failure"
	}
}

// Pipeline runs the extraction-and-commit sequence over unprocessed
// candidate messages. Messages are processed sequentially; the only shared
// state across them is the AI client's rate limiter and the output batch.
type Pipeline struct {
	mail mail.Service
	gen  Generator
	opts Options
	log  zerolog.Logger
}

// New creates a pipeline over the given mail source and generator.
func New(svc mail.Service, gen Generator, opts Options, log zerolog.Logger) *Pipeline {
	return &Pipeline{mail: svc, gen: gen, opts: opts, log: log}
}

// Run selects candidates once, then for each: parse -> AI call -> normalize
// -> durable mark -> append to the batch. Per-message failures never abort
// the batch; only candidate selection failure is fatal. Marking happens only
// after normalization succeeds, so a crash before marking re-processes the
// message rather than losing it. If marking itself fails the record is kept
// anyway and a warning is logged.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	res := &Result{RunID: uuid.NewString()}
	log := p.log.With().Str("run_id", res.RunID).Logger()

	// 1. Resolve the processing-mark label up front; the selection query
	// negates it.
	labelID, err := p.mail.EnsureLabel(ctx, p.opts.LabelName)
	if err != nil {
		return nil, fmt.Errorf("Run: ensure label %q: %w", p.opts.LabelName, err)
	}

	// 2. Point-in-time candidate snapshot. Messages arriving mid-run are
	// picked up by the next run.
	query := mail.BuildQuery(p.opts.LabelName, p.opts.EmailDaysBack)
	ids, err := p.mail.Search(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("Run: selecting candidates: %w", err)
	}
	log.Info().Int("candidates", len(ids)).Msg("Selected candidate messages")

	// 3. Sequential per-message processing.
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p.processMessage(ctx, id, labelID, res, log)
	}

	res.Duration = time.Since(start)
	log.Info().
		Int("processed", res.Processed).
		Int("skipped", res.Skipped).
		Int("failed", res.Failed).
		Str("status", res.Status()).
		Dur("duration", res.Duration).
		Msg("Run complete")
	return res, nil
}

func (p *Pipeline) processMessage(ctx context.Context, id, labelID string, res *Result, log zerolog.Logger) {
	state := stateSelected
	mlog := log.With().Str("message_id", id).Logger()

	fail := func(err error) {
		state = stateFailed
		res.Failed++
		mlog.Error().Err(err).Str("state", state.String()).Msg("Message failed")
	}

	msg, err := p.mail.GetMessage(ctx, id)
	if err != nil {
		fail(err)
		return
	}

	rec, err := mail.Extract(msg)
	if err != nil {
		fail(err)
		return
	}
	state = stateParsed

	if rec == nil {
		// No transaction pattern in the body. Terminal, non-error outcome.
		state = stateSkipped
		res.Skipped++
		mlog.Debug().Str("state", state.String()).Msg("No transaction pattern matched")
		return
	}

	prompt := ai.BuildPrompt(rec)
	raw, err := p.gen.Generate(ctx, prompt)
	if err != nil {
		fail(err)
		return
	}
	state = stateAICalled

	tx, err := Normalize(raw)
	if err != nil {
		fail(err)
		return
	}
	state = stateNormalized

	if p.opts.DryRun {
		mlog.Info().Str("state", state.String()).Msg("Dry run, message left unmarked")
		res.Transactions = append(res.Transactions, *tx)
		res.Processed++
		return
	}

	// Durable mark before appending: a crash here costs at most one record
	// for this run, never infinite reprocessing.
	if err := p.mail.ApplyLabel(ctx, id, labelID); err != nil {
		// Keep the record; losing data is worse than a possible duplicate
		// on the next run.
		markErr := &MarkingError{MessageID: id, Err: err}
		mlog.Warn().Err(markErr).Msg("Failed to mark message processed, keeping record")
	} else {
		state = stateMarkedDone
	}

	res.Transactions = append(res.Transactions, *tx)
	res.Processed++
	mlog.Info().
		Str("state", state.String()).
		Str("merchant", tx.Merchant).
		Str("amount", tx.Amount).
		Str("currency", tx.Currency).
		Str("category", tx.Category).
		Msg("Transaction processed")
}

// IsFetchFailure reports whether the run aborted because the mail source was
// unreachable during candidate selection.
func IsFetchFailure(err error) bool {
	var fe *mail.FetchError
	return errors.As(err, &fe)
}
