package pipeline

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/BabakBar/AutoSpendTracker/internal/mail"
)

// mockMailService implements mail.Service with canned data per message id.
type mockMailService struct {
	messages map[string]*mail.RawMessage

	searchErr error
	getErr    map[string]error
	applyErr  map[string]error

	labeled []string
}

func (m *mockMailService) Search(ctx context.Context, query string) ([]string, error) {
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	ids := make([]string, 0, len(m.messages))
	// Stable order for assertions.
	for _, id := range []string{"m1", "m2", "m3", "m4"} {
		if _, ok := m.messages[id]; ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (m *mockMailService) GetMessage(ctx context.Context, id string) (*mail.RawMessage, error) {
	if err := m.getErr[id]; err != nil {
		return nil, err
	}
	return m.messages[id], nil
}

func (m *mockMailService) EnsureLabel(ctx context.Context, name string) (string, error) {
	return "label-1", nil
}

func (m *mockMailService) ApplyLabel(ctx context.Context, msgID, labelID string) error {
	if err := m.applyErr[msgID]; err != nil {
		return err
	}
	m.labeled = append(m.labeled, msgID)
	return nil
}

// mockGenerator returns a canned response keyed by a substring of the prompt.
type mockGenerator struct {
	responses map[string]string // merchant substring -> response
	err       error
	calls     int
}

func (g *mockGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	g.calls++
	if g.err != nil {
		return "", g.err
	}
	for key, resp := range g.responses {
		if strings.Contains(prompt, key) {
			return resp, nil
		}
	}
	return "", errors.New("no canned response for prompt")
}

func wiseMessage(id string) *mail.RawMessage {
	return &mail.RawMessage{
		ID:   id,
		From: "Wise <noreply@wise.com>",
		Date: "Mon, 01 May 2023 12:34:00 +0000",
		HTML: "<html><body>You spent 45.67 EUR at Coffee Shop. Thanks!</body></html>",
	}
}

const coffeeShopResponse = `{"amount":"45.67","currency":"eur","merchant":"Coffee Shop","category":"Food & Dining","date":"01-05-2023","time":"12:34 PM","account":"Wise"}`

func newTestPipeline(svc mail.Service, gen Generator) *Pipeline {
	return New(svc, gen, Options{LabelName: "AutoSpendTracker/Processed", EmailDaysBack: 7}, zerolog.Nop())
}

func TestPipeline_RunEndToEnd(t *testing.T) {
	svc := &mockMailService{
		messages: map[string]*mail.RawMessage{"m1": wiseMessage("m1")},
	}
	gen := &mockGenerator{responses: map[string]string{"Coffee Shop": coffeeShopResponse}}

	res, err := newTestPipeline(svc, gen).Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if res.Processed != 1 || res.Skipped != 0 || res.Failed != 0 {
		t.Errorf("Run() counters = %d/%d/%d, want 1/0/0", res.Processed, res.Skipped, res.Failed)
	}
	if res.Status() != "success" {
		t.Errorf("Status() = %q, want success", res.Status())
	}
	if res.RunID == "" {
		t.Error("Run() left RunID empty")
	}

	rows := res.Rows()
	want := [][]string{{"01-05-2023", "12:34 PM", "Coffee Shop", "45.67", "EUR", "Food & Dining", "Wise"}}
	if !reflect.DeepEqual(rows, want) {
		t.Errorf("Rows() = %v, want %v", rows, want)
	}

	if !reflect.DeepEqual(svc.labeled, []string{"m1"}) {
		t.Errorf("labeled = %v, want [m1]", svc.labeled)
	}
}

func TestPipeline_SkippedMessageMakesNoAICall(t *testing.T) {
	svc := &mockMailService{
		messages: map[string]*mail.RawMessage{
			"m1": {
				ID:   "m1",
				From: "noreply@wise.com",
				Date: "Mon, 01 May 2023 12:34:00 +0000",
				HTML: "<html><body>Your balance is now in good shape.</body></html>",
			},
		},
	}
	gen := &mockGenerator{}

	res, err := newTestPipeline(svc, gen).Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if res.Skipped != 1 || res.Processed != 0 || res.Failed != 0 {
		t.Errorf("Run() counters = %d/%d/%d, want 0 processed, 1 skipped", res.Processed, res.Skipped, res.Failed)
	}
	if gen.calls != 0 {
		t.Errorf("generator called %d times for a skipped message, want 0", gen.calls)
	}
	if len(svc.labeled) != 0 {
		t.Errorf("labeled = %v, want none for a skipped message", svc.labeled)
	}
}

func TestPipeline_PerMessageFailuresDoNotAbortBatch(t *testing.T) {
	svc := &mockMailService{
		messages: map[string]*mail.RawMessage{
			"m1": wiseMessage("m1"),
			"m2": wiseMessage("m2"),
		},
		getErr: map[string]error{"m1": errors.New("transient fetch failure")},
	}
	gen := &mockGenerator{responses: map[string]string{"Coffee Shop": coffeeShopResponse}}

	res, err := newTestPipeline(svc, gen).Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if res.Failed != 1 || res.Processed != 1 {
		t.Errorf("Run() counters = %d processed, %d failed, want 1/1", res.Processed, res.Failed)
	}
	if res.Status() != "partial" {
		t.Errorf("Status() = %q, want partial", res.Status())
	}
}

func TestPipeline_InvalidModelResponseFailsOnlyThatMessage(t *testing.T) {
	svc := &mockMailService{
		messages: map[string]*mail.RawMessage{"m1": wiseMessage("m1")},
	}
	gen := &mockGenerator{responses: map[string]string{"Coffee Shop": "this is not json"}}

	res, err := newTestPipeline(svc, gen).Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if res.Failed != 1 || res.Processed != 0 {
		t.Errorf("Run() counters = %d processed, %d failed, want 0/1", res.Processed, res.Failed)
	}
	if res.Status() != "failure" {
		t.Errorf("Status() = %q, want failure", res.Status())
	}
	if len(svc.labeled) != 0 {
		t.Errorf("labeled = %v, want none when normalization failed", svc.labeled)
	}
}

func TestPipeline_MarkingFailureKeepsRecord(t *testing.T) {
	svc := &mockMailService{
		messages: map[string]*mail.RawMessage{"m1": wiseMessage("m1")},
		applyErr: map[string]error{"m1": errors.New("label service down")},
	}
	gen := &mockGenerator{responses: map[string]string{"Coffee Shop": coffeeShopResponse}}

	res, err := newTestPipeline(svc, gen).Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if res.Processed != 1 || res.Failed != 0 {
		t.Errorf("Run() counters = %d processed, %d failed, want record kept", res.Processed, res.Failed)
	}
	if len(res.Transactions) != 1 {
		t.Errorf("Transactions = %d, want 1 despite marking failure", len(res.Transactions))
	}
}

func TestPipeline_DryRunNeverMarks(t *testing.T) {
	svc := &mockMailService{
		messages: map[string]*mail.RawMessage{"m1": wiseMessage("m1")},
	}
	gen := &mockGenerator{responses: map[string]string{"Coffee Shop": coffeeShopResponse}}
	pipe := New(svc, gen, Options{LabelName: "AutoSpendTracker/Processed", EmailDaysBack: 7, DryRun: true}, zerolog.Nop())

	res, err := pipe.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if res.Processed != 1 || len(res.Transactions) != 1 {
		t.Errorf("Run() processed = %d with %d transactions, want 1/1", res.Processed, len(res.Transactions))
	}
	if len(svc.labeled) != 0 {
		t.Errorf("labeled = %v, want none in a dry run", svc.labeled)
	}
}

func TestPipeline_SelectionFailureAbortsRun(t *testing.T) {
	svc := &mockMailService{
		searchErr: &mail.FetchError{Op: "search messages", Err: errors.New("gmail unreachable")},
	}
	gen := &mockGenerator{}

	_, err := newTestPipeline(svc, gen).Run(context.Background())
	if err == nil {
		t.Fatal("Run() error = nil, want selection failure")
	}
	if !IsFetchFailure(err) {
		t.Errorf("IsFetchFailure(%v) = false, want true", err)
	}
}

func TestResult_Status(t *testing.T) {
	tests := []struct {
		name string
		res  Result
		want string
	}{
		{"no failures", Result{Processed: 2}, "success"},
		{"empty run", Result{}, "success"},
		{"mixed", Result{Processed: 1, Failed: 1}, "partial"},
		{"all failed", Result{Failed: 3}, "failure"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.res.Status(); got != tt.want {
				t.Errorf("Status() = %q, want %q", got, tt.want)
			}
		})
	}
}
