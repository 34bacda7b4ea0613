package output

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/MelbourneDeveloper/napper-sub001/packages/core/engine"
	"github.com/MelbourneDeveloper/napper-sub001/packages/stats"
)

// NDJSONFormatter writes one JSON object per line, as results arrive, so a
// long run can be followed with tail -f or piped into jq.
type NDJSONFormatter struct {
	writer  io.Writer
	encoder *json.Encoder
}

type NDJSONOption func(*NDJSONFormatter)

func NewNDJSONFormatter(opts ...NDJSONOption) *NDJSONFormatter {
	f := &NDJSONFormatter{
		writer: os.Stdout,
	}
	for _, opt := range opts {
		opt(f)
	}
	f.encoder = json.NewEncoder(f.writer)
	return f
}

func NDJSONWithWriter(w io.Writer) NDJSONOption {
	return func(f *NDJSONFormatter) {
		f.writer = w
	}
}

type ndjsonRun struct {
	Event   string `json:"event"`
	Version string `json:"version"`
	Time    string `json:"time"`
}

type ndjsonResult struct {
	Event string `json:"event"`
	JSONTest
}

type ndjsonError struct {
	Event string `json:"event"`
	Error string `json:"error"`
}

type ndjsonSummary struct {
	Event    string  `json:"event"`
	RunID    string  `json:"runId"`
	Total    int     `json:"total"`
	Passed   int     `json:"passed"`
	Failed   int     `json:"failed"`
	Duration float64 `json:"duration"`
	P50      float64 `json:"p50"`
	P95      float64 `json:"p95"`
	P99      float64 `json:"p99"`
}

func (f *NDJSONFormatter) FormatHeader(version string) {
	_ = f.encoder.Encode(ndjsonRun{
		Event:   "run",
		Version: version,
		Time:    time.Now().Format(time.RFC3339),
	})
}

func (f *NDJSONFormatter) FormatResult(result *engine.RunResult) {
	_ = f.encoder.Encode(ndjsonResult{
		Event:    "result",
		JSONTest: newJSONTest(result),
	})
}

func (f *NDJSONFormatter) FormatError(err error) {
	_ = f.encoder.Encode(ndjsonError{Event: "error", Error: err.Error()})
}

// Flush appends the closing summary line.
func (f *NDJSONFormatter) Flush(summary *stats.Summary) error {
	return f.encoder.Encode(ndjsonSummary{
		Event:    "summary",
		RunID:    summary.RunID,
		Total:    summary.Total,
		Passed:   summary.Passed,
		Failed:   summary.Failed,
		Duration: float64(summary.Duration.Milliseconds()),
		P50:      float64(summary.P50.Milliseconds()),
		P95:      float64(summary.P95.Milliseconds()),
		P99:      float64(summary.P99.Milliseconds()),
	})
}
