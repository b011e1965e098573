package ai

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/genai"

	"github.com/BabakBar/AutoSpendTracker/internal/monitoring"
	"github.com/BabakBar/AutoSpendTracker/internal/ratelimit"
)

// Endpoint is the logical name used for rate limiting and metrics.
const Endpoint = "gemini-generate-content"

// Retry policy around the model call: 3 attempts total, exponential backoff
// starting at 4s, doubling, capped at 10s.
const (
	maxAttempts    = 3
	backoffInitial = 4 * time.Second
	backoffCap     = 10 * time.Second
)

// ModelError is returned when the model call failed on every attempt.
type ModelError struct {
	Attempts int
	Err      error
}

func (e *ModelError) Error() string {
	return fmt.Sprintf("ai: model call failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ModelError) Unwrap() error { return e.Err }

// generateFunc performs one raw model call and reports the response text
// plus prompt/output token counts. Seam for tests.
type generateFunc func(ctx context.Context, prompt string) (text string, inputTokens, outputTokens int64, err error)

// Config carries the model settings the client needs.
type Config struct {
	ProjectID string
	Location  string
	ModelName string
}

// Client invokes the generative model under a sliding-window rate limit with
// bounded retry. The middleware order is fixed: rate-limit -> retry ->
// instrument -> call, with retry wrapping the (wait+call) unit so a retried
// attempt re-enters the rate limiter.
type Client struct {
	model    string
	limiter  *ratelimit.Limiter
	metrics  *monitoring.Collector
	generate generateFunc
	sleep    func(time.Duration)
}

// NewClient builds a Gemini-backed client on Vertex AI. Credentials come
// from the environment (application default credentials or
// GOOGLE_APPLICATION_CREDENTIALS).
func NewClient(ctx context.Context, cfg Config, limiter *ratelimit.Limiter, metrics *monitoring.Collector) (*Client, error) {
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		Backend:  genai.BackendVertexAI,
		Project:  cfg.ProjectID,
		Location: cfg.Location,
	})
	if err != nil {
		return nil, fmt.Errorf("NewClient: create genai client: %w", err)
	}

	c := &Client{
		model:   cfg.ModelName,
		limiter: limiter,
		metrics: metrics,
		sleep:   time.Sleep,
	}
	c.generate = func(ctx context.Context, prompt string) (string, int64, int64, error) {
		resp, err := gc.Models.GenerateContent(ctx, c.model, genai.Text(prompt), &genai.GenerateContentConfig{
			Temperature:     genai.Ptr[float32](0.1),
			TopP:            genai.Ptr[float32](1.0),
			TopK:            genai.Ptr[float32](40),
			MaxOutputTokens: 8192,
		})
		if err != nil {
			return "", 0, 0, err
		}
		text := resp.Text()
		if text == "" {
			return "", 0, 0, fmt.Errorf("empty response from model")
		}
		var in, out int64
		if resp.UsageMetadata != nil {
			in = int64(resp.UsageMetadata.PromptTokenCount)
			out = int64(resp.UsageMetadata.CandidatesTokenCount)
		}
		return text, in, out, nil
	}
	return c, nil
}

// Generate sends the prompt to the model and returns the raw response text.
// Each attempt waits for the rate limiter before calling; after the final
// failed attempt the last error propagates as *ModelError.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		c.limiter.Wait()

		start := time.Now()
		text, inTokens, outTokens, err := c.generate(ctx, prompt)
		if c.metrics != nil {
			c.metrics.RecordAPICall(Endpoint, time.Since(start), inTokens, outTokens, err)
		}
		if err == nil {
			return text, nil
		}
		lastErr = err

		if attempt < maxAttempts {
			c.sleep(backoff(attempt))
		}
	}

	return "", &ModelError{Attempts: maxAttempts, Err: lastErr}
}

// backoff returns the delay after the given attempt number: 4s, 8s, ...
// capped at backoffCap.
func backoff(attempt int) time.Duration {
	d := backoffInitial << (attempt - 1)
	if d > backoffCap {
		d = backoffCap
	}
	return d
}
