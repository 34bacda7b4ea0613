package output

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/MelbourneDeveloper/napper-sub001/packages/core/engine"
	"github.com/MelbourneDeveloper/napper-sub001/packages/stats"
)

// JUnit XML structures

// JUnitTestSuites is the root element
type JUnitTestSuites struct {
	XMLName    xml.Name         `xml:"testsuites"`
	Name       string           `xml:"name,attr,omitempty"`
	Tests      int              `xml:"tests,attr"`
	Failures   int              `xml:"failures,attr"`
	Errors     int              `xml:"errors,attr"`
	Time       float64          `xml:"time,attr"`
	Timestamp  string           `xml:"timestamp,attr,omitempty"`
	TestSuites []JUnitTestSuite `xml:"testsuite"`
}

// JUnitTestSuite holds one run's test cases
type JUnitTestSuite struct {
	XMLName   xml.Name        `xml:"testsuite"`
	Name      string          `xml:"name,attr"`
	Tests     int             `xml:"tests,attr"`
	Failures  int             `xml:"failures,attr"`
	Errors    int             `xml:"errors,attr"`
	Time      float64         `xml:"time,attr"`
	TestCases []JUnitTestCase `xml:"testcase"`
}

// JUnitTestCase is a single step
type JUnitTestCase struct {
	XMLName   xml.Name      `xml:"testcase"`
	Name      string        `xml:"name,attr"`
	ClassName string        `xml:"classname,attr"`
	Time      float64       `xml:"time,attr"`
	Failure   *JUnitFailure `xml:"failure,omitempty"`
	Error     *JUnitError   `xml:"error,omitempty"`
}

// JUnitFailure carries failed assertion details
type JUnitFailure struct {
	Message string `xml:"message,attr,omitempty"`
	Type    string `xml:"type,attr,omitempty"`
	Content string `xml:",chardata"`
}

// JUnitError marks a step that never produced assertions
type JUnitError struct {
	Message string `xml:"message,attr,omitempty"`
	Type    string `xml:"type,attr,omitempty"`
	Content string `xml:",chardata"`
}

// JUnitFormatter formats results as JUnit XML
type JUnitFormatter struct {
	writer   io.Writer
	cases    []JUnitTestCase
	failures int
	errors   int
}

type JUnitOption func(*JUnitFormatter)

func NewJUnitFormatter(opts ...JUnitOption) *JUnitFormatter {
	f := &JUnitFormatter{
		writer: os.Stdout,
		cases:  make([]JUnitTestCase, 0),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func JUnitWithWriter(w io.Writer) JUnitOption {
	return func(f *JUnitFormatter) {
		f.writer = w
	}
}

func (f *JUnitFormatter) FormatResult(result *engine.RunResult) {
	name := result.Name
	if name == "" {
		name = filepath.Base(result.File)
	}

	tc := JUnitTestCase{
		Name:      name,
		ClassName: result.File,
		Time:      result.Duration.Seconds(),
	}

	if result.Error != nil {
		f.errors++
		tc.Error = &JUnitError{
			Message: result.Error.Error(),
			Type:    "Error",
		}
	} else if !result.Passed {
		f.failures++
		var failureMsg strings.Builder
		for _, a := range result.Assertions {
			if !a.Passed {
				fmt.Fprintf(&failureMsg, "%s: expected %s, got %s\n", a.Check(), a.Expected, a.Actual)
			}
		}
		tc.Failure = &JUnitFailure{
			Message: "Assertion failed",
			Type:    "AssertionError",
			Content: failureMsg.String(),
		}
	}

	f.cases = append(f.cases, tc)
}

func (f *JUnitFormatter) FormatError(err error) {
	// Errors surface in individual test cases
}

func (f *JUnitFormatter) FormatHeader(version string) {
	// No header needed for JUnit XML
}

// Flush writes the accumulated JUnit XML report
func (f *JUnitFormatter) Flush(summary *stats.Summary) error {
	suite := JUnitTestSuite{
		Name:      summary.RunID,
		Tests:     len(f.cases),
		Failures:  f.failures,
		Errors:    f.errors,
		Time:      summary.Duration.Seconds(),
		TestCases: f.cases,
	}

	suites := JUnitTestSuites{
		Name:       "nap",
		Tests:      suite.Tests,
		Failures:   suite.Failures,
		Errors:     suite.Errors,
		Time:       suite.Time,
		Timestamp:  time.Now().Format(time.RFC3339),
		TestSuites: []JUnitTestSuite{suite},
	}

	fmt.Fprintf(f.writer, "<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	encoder := xml.NewEncoder(f.writer)
	encoder.Indent("", "  ")
	if err := encoder.Encode(suites); err != nil {
		return err
	}
	fmt.Fprintln(f.writer)
	return nil
}
