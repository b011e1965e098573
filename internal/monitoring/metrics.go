// Package monitoring tracks API call metrics for the run: call counts,
// latency, token usage and estimated cost. The collector is constructed in
// main and injected; there is no process-wide singleton.
package monitoring

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Gemini flash pricing per one million tokens, used for cost estimates.
const (
	InputCostPerMillionTokens  = 0.075
	OutputCostPerMillionTokens = 0.30
)

// APIMetrics accumulates per-endpoint call statistics.
type APIMetrics struct {
	Endpoint     string
	Calls        int
	Errors       int
	InputTokens  int64
	OutputTokens int64
	TotalCost    float64
	TotalLatency time.Duration
	AvgLatency   time.Duration
	LastCalled   time.Time
}

// Collector aggregates API metrics across a run. Safe for concurrent use.
type Collector struct {
	mu  sync.Mutex
	api map[string]*APIMetrics
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{api: make(map[string]*APIMetrics)}
}

// RecordAPICall records one call against the named endpoint. Token counts
// may be zero when the provider reported no usage metadata.
func (c *Collector) RecordAPICall(endpoint string, latency time.Duration, inputTokens, outputTokens int64, callErr error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	m, ok := c.api[endpoint]
	if !ok {
		m = &APIMetrics{Endpoint: endpoint}
		c.api[endpoint] = m
	}

	m.Calls++
	m.InputTokens += inputTokens
	m.OutputTokens += outputTokens
	m.TotalCost += float64(inputTokens)/1e6*InputCostPerMillionTokens +
		float64(outputTokens)/1e6*OutputCostPerMillionTokens
	m.TotalLatency += latency
	m.AvgLatency = m.TotalLatency / time.Duration(m.Calls)
	m.LastCalled = time.Now()
	if callErr != nil {
		m.Errors++
	}
}

// Snapshot returns a copy of all per-endpoint metrics.
func (c *Collector) Snapshot() map[string]APIMetrics {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(map[string]APIMetrics, len(c.api))
	for name, m := range c.api {
		out[name] = *m
	}
	return out
}

// Reset clears all collected metrics.
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.api = make(map[string]*APIMetrics)
}

// LogSummary writes one line per endpoint plus run totals.
func (c *Collector) LogSummary(log zerolog.Logger) {
	snapshot := c.Snapshot()
	if len(snapshot) == 0 {
		log.Info().Msg("No API metrics collected")
		return
	}

	var totalCalls int
	var totalCost float64
	var totalTokens int64
	for endpoint, m := range snapshot {
		log.Info().
			Str("endpoint", endpoint).
			Int("calls", m.Calls).
			Int("errors", m.Errors).
			Int64("input_tokens", m.InputTokens).
			Int64("output_tokens", m.OutputTokens).
			Float64("cost_usd", m.TotalCost).
			Dur("avg_latency", m.AvgLatency).
			Msg("API metrics")
		totalCalls += m.Calls
		totalCost += m.TotalCost
		totalTokens += m.InputTokens + m.OutputTokens
	}

	log.Info().
		Int("total_calls", totalCalls).
		Int64("total_tokens", totalTokens).
		Float64("total_cost_usd", totalCost).
		Msg("API metrics totals")
}
