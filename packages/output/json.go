package output

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/MelbourneDeveloper/napper-sub001/packages/core/engine"
	"github.com/MelbourneDeveloper/napper-sub001/packages/stats"
)

// JSONOutput is the complete JSON report structure
type JSONOutput struct {
	RunID    string      `json:"runId"`
	Summary  JSONSummary `json:"summary"`
	Tests    []JSONTest  `json:"tests"`
	Duration float64     `json:"duration"`
	Time     string      `json:"time"`
}

// JSONSummary is the run tally
type JSONSummary struct {
	Total  int     `json:"total"`
	Passed int     `json:"passed"`
	Failed int     `json:"failed"`
	P50    float64 `json:"p50"`
	P95    float64 `json:"p95"`
	P99    float64 `json:"p99"`
}

// JSONTest is a single step result
type JSONTest struct {
	Name       string          `json:"name,omitempty"`
	File       string          `json:"file"`
	Passed     bool            `json:"passed"`
	Duration   float64         `json:"duration"`
	Error      string          `json:"error,omitempty"`
	Request    *JSONRequest    `json:"request,omitempty"`
	Response   *JSONResponse   `json:"response,omitempty"`
	Assertions []JSONAssertion `json:"assertions,omitempty"`
	Logs       []string        `json:"logs,omitempty"`
}

// JSONRequest is the resolved request, for display
type JSONRequest struct {
	Method  string            `json:"method"`
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers,omitempty"`
}

// JSONResponse is the captured response
type JSONResponse struct {
	StatusCode int               `json:"statusCode"`
	Status     string            `json:"status"`
	Headers    map[string]string `json:"headers,omitempty"`
	Duration   float64           `json:"duration"`
}

// JSONAssertion is one evaluated check
type JSONAssertion struct {
	Target   string `json:"target"`
	Check    string `json:"check"`
	Expected string `json:"expected,omitempty"`
	Actual   string `json:"actual"`
	Passed   bool   `json:"passed"`
}

// newJSONTest flattens a RunResult for serialization. Shared by the JSON and
// NDJSON formatters.
func newJSONTest(result *engine.RunResult) JSONTest {
	test := JSONTest{
		Name:     result.Name,
		File:     result.File,
		Passed:   result.Passed,
		Duration: float64(result.Duration.Milliseconds()),
		Logs:     result.Logs,
	}

	if result.Error != nil {
		test.Error = result.Error.Error()
	}

	if result.Request != nil {
		test.Request = &JSONRequest{
			Method:  result.Request.Method,
			URL:     result.Request.URL,
			Headers: result.Request.Headers,
		}
	}

	if result.Response != nil {
		test.Response = &JSONResponse{
			StatusCode: result.Response.StatusCode,
			Status:     result.Response.Status,
			Headers:    result.Response.Headers,
			Duration:   float64(result.Response.Duration.Milliseconds()),
		}
	}

	if len(result.Assertions) > 0 {
		test.Assertions = make([]JSONAssertion, len(result.Assertions))
		for i, a := range result.Assertions {
			test.Assertions[i] = JSONAssertion{
				Target:   a.Assertion.Target,
				Check:    a.Check(),
				Expected: a.Expected,
				Actual:   a.Actual,
				Passed:   a.Passed,
			}
		}
	}

	return test
}

// JSONFormatter accumulates results and writes one report at the end
type JSONFormatter struct {
	writer io.Writer
	tests  []JSONTest
}

type JSONOption func(*JSONFormatter)

func NewJSONFormatter(opts ...JSONOption) *JSONFormatter {
	f := &JSONFormatter{
		writer: os.Stdout,
		tests:  make([]JSONTest, 0),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func JSONWithWriter(w io.Writer) JSONOption {
	return func(f *JSONFormatter) {
		f.writer = w
	}
}

func (f *JSONFormatter) FormatResult(result *engine.RunResult) {
	f.tests = append(f.tests, newJSONTest(result))
}

func (f *JSONFormatter) FormatError(err error) {
	// Errors surface in individual test entries
}

func (f *JSONFormatter) FormatHeader(version string) {
	// No header needed for JSON output
}

// Flush writes the accumulated report
func (f *JSONFormatter) Flush(summary *stats.Summary) error {
	output := JSONOutput{
		RunID: summary.RunID,
		Summary: JSONSummary{
			Total:  summary.Total,
			Passed: summary.Passed,
			Failed: summary.Failed,
			P50:    float64(summary.P50.Milliseconds()),
			P95:    float64(summary.P95.Milliseconds()),
			P99:    float64(summary.P99.Milliseconds()),
		},
		Tests:    f.tests,
		Duration: float64(summary.Duration.Milliseconds()),
		Time:     time.Now().Format(time.RFC3339),
	}

	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}
