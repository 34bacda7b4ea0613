package output

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/MelbourneDeveloper/napper-sub001/packages/assertions"
	"github.com/MelbourneDeveloper/napper-sub001/packages/core/engine"
	"github.com/MelbourneDeveloper/napper-sub001/packages/core/parser"
	"github.com/MelbourneDeveloper/napper-sub001/packages/http"
	"github.com/MelbourneDeveloper/napper-sub001/packages/stats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResults() []*engine.RunResult {
	passed := &engine.RunResult{
		File:     "/tests/users.nap",
		Name:     "list users",
		Passed:   true,
		Duration: 42 * time.Millisecond,
		Request:  http.NewRequest("GET", "https://api.test/users"),
		Response: &http.Response{
			StatusCode: 200,
			Headers:    map[string]string{"Content-Type": "application/json"},
			Body:       []byte(`{}`),
			Duration:   40 * time.Millisecond,
		},
		Assertions: []*assertions.Result{
			{
				Assertion: &parser.Assertion{Target: "status", Operator: parser.OpEquals, Expected: "200"},
				Passed:    true,
				Expected:  "200",
				Actual:    "200",
			},
		},
	}
	failed := &engine.RunResult{
		File:     "/tests/health.nap",
		Passed:   false,
		Duration: 10 * time.Millisecond,
		Response: &http.Response{StatusCode: 500, Duration: 9 * time.Millisecond},
		Assertions: []*assertions.Result{
			{
				Assertion: &parser.Assertion{Target: "status", Operator: parser.OpEquals, Expected: "200"},
				Passed:    false,
				Expected:  "200",
				Actual:    "500",
			},
		},
	}
	broken := &engine.RunResult{
		File:     "/tests/broken.nap",
		Error:    errors.New("boom"),
		Duration: time.Millisecond,
	}
	return []*engine.RunResult{passed, failed, broken}
}

func sampleSummary() *stats.Summary {
	return &stats.Summary{
		RunID:    "run-1",
		Total:    3,
		Passed:   1,
		Failed:   2,
		Duration: 60 * time.Millisecond,
		P50:      10 * time.Millisecond,
		P95:      42 * time.Millisecond,
		P99:      42 * time.Millisecond,
	}
}

func TestConsoleFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := NewConsoleFormatter(WithWriter(&buf), WithNoColor(true))

	f.FormatHeader("1.0.0")
	for _, r := range sampleResults() {
		f.FormatResult(r)
	}
	require.NoError(t, f.Flush(sampleSummary()))

	out := buf.String()
	assert.Contains(t, out, "nap 1.0.0")
	assert.Contains(t, out, "✓ list users")
	assert.Contains(t, out, "✗ health.nap")
	assert.Contains(t, out, "x broken.nap")
	assert.Contains(t, out, "status = 200")
	assert.Contains(t, out, "Expected: 200")
	assert.Contains(t, out, "Actual:   500")
	assert.Contains(t, out, "1 passed")
	assert.Contains(t, out, "2 failed")
	assert.Contains(t, out, "3 total")
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := NewJSONFormatter(JSONWithWriter(&buf))

	f.FormatHeader("1.0.0")
	for _, r := range sampleResults() {
		f.FormatResult(r)
	}
	require.NoError(t, f.Flush(sampleSummary()))

	var out JSONOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))

	assert.Equal(t, "run-1", out.RunID)
	assert.Equal(t, 3, out.Summary.Total)
	assert.Equal(t, 2, out.Summary.Failed)
	require.Len(t, out.Tests, 3)
	assert.Equal(t, "https://api.test/users", out.Tests[0].Request.URL)
	assert.Equal(t, "boom", out.Tests[2].Error)
	require.Len(t, out.Tests[1].Assertions, 1)
	assert.Equal(t, "status = 200", out.Tests[1].Assertions[0].Check)
}

func TestJUnitFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := NewJUnitFormatter(JUnitWithWriter(&buf))

	for _, r := range sampleResults() {
		f.FormatResult(r)
	}
	require.NoError(t, f.Flush(sampleSummary()))

	assert.True(t, strings.HasPrefix(buf.String(), "<?xml"))

	var suites JUnitTestSuites
	require.NoError(t, xml.Unmarshal(buf.Bytes(), &suites))

	assert.Equal(t, 3, suites.Tests)
	assert.Equal(t, 1, suites.Failures)
	assert.Equal(t, 1, suites.Errors)
	require.Len(t, suites.TestSuites, 1)
	require.Len(t, suites.TestSuites[0].TestCases, 3)
	require.NotNil(t, suites.TestSuites[0].TestCases[1].Failure)
	assert.Contains(t, suites.TestSuites[0].TestCases[1].Failure.Content, "expected 200, got 500")
	require.NotNil(t, suites.TestSuites[0].TestCases[2].Error)
	assert.Equal(t, "boom", suites.TestSuites[0].TestCases[2].Error.Message)
}

func TestNDJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := NewNDJSONFormatter(NDJSONWithWriter(&buf))

	f.FormatHeader("1.0.0")
	for _, r := range sampleResults() {
		f.FormatResult(r)
	}
	require.NoError(t, f.Flush(sampleSummary()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 5)

	var first map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "run", first["event"])

	var last map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[4]), &last))
	assert.Equal(t, "summary", last["event"])
	assert.Equal(t, float64(3), last["total"])
}
