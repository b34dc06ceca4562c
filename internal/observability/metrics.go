// Package observability exposes scan-time counters in Prometheus text
// exposition format, via a small hand-rolled exporter rather than a
// metrics client library (net/http + fmt is sufficient for a fixed,
// small set of counters).
package observability

import (
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
)

// Metrics tracks operational counters for one scan invocation.
type Metrics struct {
	RequestsTotal   atomic.Int64
	RequestsFailed  atomic.Int64
	RequestsRetried atomic.Int64

	ResponsesTotal atomic.Int64
	Responses2xx   atomic.Int64
	Responses3xx   atomic.Int64
	Responses4xx   atomic.Int64
	Responses5xx   atomic.Int64

	MatchesFound  atomic.Int64
	NotFoundCount atomic.Int64

	ActiveWorkers atomic.Int32
	QueueDepth    atomic.Int64

	ProxyRotations atomic.Int64
	ProxyErrors    atomic.Int64

	logger *slog.Logger
}

// NewMetrics creates a new Metrics instance.
func NewMetrics(logger *slog.Logger) *Metrics {
	return &Metrics{
		logger: logger.With("component", "metrics"),
	}
}

// ServeHTTP serves metrics in Prometheus text exposition format.
func (m *Metrics) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

	metrics := []struct {
		name  string
		help  string
		value int64
	}{
		{"sentryfuzz_requests_total", "Total requests made", m.RequestsTotal.Load()},
		{"sentryfuzz_requests_failed_total", "Total failed requests", m.RequestsFailed.Load()},
		{"sentryfuzz_requests_retried_total", "Total retried requests", m.RequestsRetried.Load()},
		{"sentryfuzz_responses_total", "Total responses received", m.ResponsesTotal.Load()},
		{"sentryfuzz_responses_2xx_total", "Total 2xx responses", m.Responses2xx.Load()},
		{"sentryfuzz_responses_3xx_total", "Total 3xx responses", m.Responses3xx.Load()},
		{"sentryfuzz_responses_4xx_total", "Total 4xx responses", m.Responses4xx.Load()},
		{"sentryfuzz_responses_5xx_total", "Total 5xx responses", m.Responses5xx.Load()},
		{"sentryfuzz_matches_total", "Total accepted matches", m.MatchesFound.Load()},
		{"sentryfuzz_not_found_total", "Total soft-404/hard-404 classifications", m.NotFoundCount.Load()},
		{"sentryfuzz_active_workers", "Currently active fuzzer workers", int64(m.ActiveWorkers.Load())},
		{"sentryfuzz_queue_depth", "Current directory recursion queue depth", m.QueueDepth.Load()},
		{"sentryfuzz_proxy_rotations_total", "Total proxy rotations", m.ProxyRotations.Load()},
		{"sentryfuzz_proxy_errors_total", "Total proxy errors", m.ProxyErrors.Load()},
	}

	for _, metric := range metrics {
		fmt.Fprintf(w, "# HELP %s %s\n", metric.name, metric.help)
		fmt.Fprintf(w, "# TYPE %s counter\n", metric.name)
		fmt.Fprintf(w, "%s %d\n", metric.name, metric.value)
	}
}

// StartServer starts the metrics HTTP server.
func (m *Metrics) StartServer(port int, path string) error {
	mux := http.NewServeMux()
	mux.Handle(path, m)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "ok")
	})

	addr := fmt.Sprintf(":%d", port)
	m.logger.Info("metrics server starting", "addr", addr, "path", path)

	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			m.logger.Error("metrics server error", "error", err)
		}
	}()

	return nil
}

// RecordResponse classifies a response's status into the
// per-status-class counters.
func (m *Metrics) RecordResponse(status int) {
	m.ResponsesTotal.Add(1)
	switch {
	case status >= 200 && status < 300:
		m.Responses2xx.Add(1)
	case status >= 300 && status < 400:
		m.Responses3xx.Add(1)
	case status >= 400 && status < 500:
		m.Responses4xx.Add(1)
	case status >= 500:
		m.Responses5xx.Add(1)
	}
}

// Snapshot returns all metrics as a map, for logging or debug dumps.
func (m *Metrics) Snapshot() map[string]int64 {
	return map[string]int64{
		"requests_total":  m.RequestsTotal.Load(),
		"requests_failed": m.RequestsFailed.Load(),
		"requests_retried": m.RequestsRetried.Load(),
		"responses_total": m.ResponsesTotal.Load(),
		"responses_2xx":   m.Responses2xx.Load(),
		"responses_3xx":   m.Responses3xx.Load(),
		"responses_4xx":   m.Responses4xx.Load(),
		"responses_5xx":   m.Responses5xx.Load(),
		"matches_found":   m.MatchesFound.Load(),
		"not_found_count": m.NotFoundCount.Load(),
		"active_workers":  int64(m.ActiveWorkers.Load()),
		"queue_depth":     m.QueueDepth.Load(),
		"proxy_rotations": m.ProxyRotations.Load(),
		"proxy_errors":    m.ProxyErrors.Load(),
	}
}
