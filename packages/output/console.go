package output

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/MelbourneDeveloper/napper-sub001/packages/core/engine"
	"github.com/MelbourneDeveloper/napper-sub001/packages/stats"
	"github.com/fatih/color"
)

type ConsoleFormatter struct {
	writer  io.Writer
	verbose bool
	noColor bool
}

type ConsoleOption func(*ConsoleFormatter)

func NewConsoleFormatter(opts ...ConsoleOption) *ConsoleFormatter {
	f := &ConsoleFormatter{
		writer: os.Stdout,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.noColor {
		color.NoColor = true
	}
	return f
}

func WithWriter(w io.Writer) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.writer = w
	}
}

func WithVerbose(v bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.verbose = v
	}
}

func WithNoColor(nc bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.noColor = nc
	}
}

func (f *ConsoleFormatter) FormatHeader(version string) {
	bold := color.New(color.Bold).SprintFunc()
	fmt.Fprintf(f.writer, "%s %s\n\n", bold("nap"), version)
}

func (f *ConsoleFormatter) FormatResult(result *engine.RunResult) {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()

	name := result.Name
	if name == "" {
		name = filepath.Base(result.File)
	}

	if result.Error != nil {
		fmt.Fprintf(f.writer, "  %s %s %s\n", red("x"), name, red(fmt.Sprintf("(%v)", result.Error)))
	} else {
		symbol := green("✓")
		if !result.Passed {
			symbol = red("✗")
		}
		fmt.Fprintf(f.writer, "  %s %s %s\n", symbol, name, cyan(fmt.Sprintf("(%dms)", result.Duration.Milliseconds())))
	}

	if f.verbose && result.Response != nil {
		fmt.Fprintf(f.writer, "    Status: %d\n", result.Response.StatusCode)
	}

	for _, a := range result.Assertions {
		if a.Passed {
			continue
		}
		fmt.Fprintf(f.writer, "    %s %s\n", red("→"), a.Check())
		if a.Expected != "" {
			fmt.Fprintf(f.writer, "      Expected: %s\n", truncate(a.Expected, 100))
		}
		fmt.Fprintf(f.writer, "      Actual:   %s\n", truncate(a.Actual, 100))
	}

	if f.verbose {
		for _, line := range result.Logs {
			fmt.Fprintf(f.writer, "    %s %s\n", cyan("|"), line)
		}
	}
}

func (f *ConsoleFormatter) FormatError(err error) {
	red := color.New(color.FgRed).SprintFunc()
	fmt.Fprintf(f.writer, "%s %v\n", red("Error:"), err)
}

// Flush prints the run tally once every step has reported.
func (f *ConsoleFormatter) Flush(summary *stats.Summary) error {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()

	fmt.Fprintf(f.writer, "\nTests: ")
	if summary.Passed > 0 {
		fmt.Fprintf(f.writer, "%s, ", green(fmt.Sprintf("%d passed", summary.Passed)))
	}
	if summary.Failed > 0 {
		fmt.Fprintf(f.writer, "%s, ", red(fmt.Sprintf("%d failed", summary.Failed)))
	}
	fmt.Fprintf(f.writer, "%d total\n", summary.Total)
	fmt.Fprintf(f.writer, "Time:  %dms", summary.Duration.Milliseconds())
	if summary.Total > 1 {
		fmt.Fprintf(f.writer, " (p50 %dms, p95 %dms)", summary.P50.Milliseconds(), summary.P95.Milliseconds())
	}
	fmt.Fprintf(f.writer, "\n")
	return nil
}

// truncate keeps long bodies from flooding the terminal.
func truncate(s string, maxLen int) string {
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	return s
}
