package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/MelbourneDeveloper/napper-sub001/packages/output"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	diffOutputFlag    string
	diffThresholdFlag string
)

var diffCmd = &cobra.Command{
	Use:   "diff <before.json> <after.json>",
	Short: "Compare two JSON run reports",
	Long: `Compare two JSON run reports produced by 'nap run --output json' and
show what changed between them.

This helps spot regressions between runs, for example before and after
a deploy.

Examples:
  nap diff before.json after.json
  nap diff before.json after.json --threshold 10%
  nap diff before.json after.json --output json`,
	Args: cobra.ExactArgs(2),
	RunE: diffCommand,
}

func init() {
	diffCmd.Flags().StringVarP(&diffOutputFlag, "output", "o", "console", "Output format: console, json")
	diffCmd.Flags().StringVar(&diffThresholdFlag, "threshold", "", "Fail if any step is slower by this percentage (e.g., 10%)")
}

// StepComparison represents one step present in either report
type StepComparison struct {
	Name           string  `json:"name"`
	File           string  `json:"file,omitempty"`
	StatusChange   string  `json:"statusChange"` // "improved", "regressed", "unchanged", "new", "removed"
	Duration1      float64 `json:"duration1,omitempty"`
	Duration2      float64 `json:"duration2,omitempty"`
	DurationChange float64 `json:"durationChange,omitempty"` // percentage
	Passed1        bool    `json:"-"`
	Passed2        bool    `json:"-"`
	InFile1        bool    `json:"-"`
	InFile2        bool    `json:"-"`
}

// DiffSummary provides overall statistics for a comparison
type DiffSummary struct {
	TotalSteps       int     `json:"totalSteps"`
	Improved         int     `json:"improved"`
	Regressed        int     `json:"regressed"`
	Unchanged        int     `json:"unchanged"`
	NewSteps         int     `json:"newSteps"`
	RemovedSteps     int     `json:"removedSteps"`
	P50Before        float64 `json:"p50Before"`
	P50After         float64 `json:"p50After"`
	P95Before        float64 `json:"p95Before"`
	P95After         float64 `json:"p95After"`
	ThresholdPassed  bool    `json:"thresholdPassed"`
	ThresholdPercent float64 `json:"thresholdPercent,omitempty"`
}

// DiffResult holds the full comparison
type DiffResult struct {
	File1       string           `json:"file1"`
	File2       string           `json:"file2"`
	Summary     DiffSummary      `json:"summary"`
	Comparisons []StepComparison `json:"comparisons"`
}

func diffCommand(cmd *cobra.Command, args []string) error {
	file1, file2 := args[0], args[1]

	before, err := loadReport(file1)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", file1, err)
	}
	after, err := loadReport(file2)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", file2, err)
	}

	var threshold float64
	if diffThresholdFlag != "" {
		threshold, err = parseThreshold(diffThresholdFlag)
		if err != nil {
			return err
		}
	}

	diff := compareReports(file1, file2, before, after, threshold)

	switch strings.ToLower(diffOutputFlag) {
	case "json":
		if err := outputDiffJSON(diff); err != nil {
			return err
		}
	default:
		outputDiffConsole(diff)
	}

	if diff.Summary.ThresholdPercent > 0 && !diff.Summary.ThresholdPassed {
		return fmt.Errorf("threshold exceeded")
	}
	return nil
}

func loadReport(path string) (*output.JSONOutput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var report output.JSONOutput
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

func parseThreshold(s string) (float64, error) {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid threshold %q: %w", s, err)
	}
	return v, nil
}

func stepKey(t output.JSONTest) string {
	return t.File + "::" + t.Name
}

func compareReports(file1, file2 string, before, after *output.JSONOutput, threshold float64) *DiffResult {
	diff := &DiffResult{
		File1: file1,
		File2: file2,
		Summary: DiffSummary{
			P50Before:        before.Summary.P50,
			P50After:         after.Summary.P50,
			P95Before:        before.Summary.P95,
			P95After:         after.Summary.P95,
			ThresholdPercent: threshold,
			ThresholdPassed:  true,
		},
	}

	steps1 := make(map[string]output.JSONTest)
	steps2 := make(map[string]output.JSONTest)
	for _, t := range before.Tests {
		steps1[stepKey(t)] = t
	}
	for _, t := range after.Tests {
		steps2[stepKey(t)] = t
	}

	keys := make([]string, 0, len(steps1)+len(steps2))
	seen := make(map[string]bool)
	for _, t := range before.Tests {
		if key := stepKey(t); !seen[key] {
			seen[key] = true
			keys = append(keys, key)
		}
	}
	for _, t := range after.Tests {
		if key := stepKey(t); !seen[key] {
			seen[key] = true
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	for _, key := range keys {
		t1, in1 := steps1[key]
		t2, in2 := steps2[key]

		file, name, _ := strings.Cut(key, "::")
		comp := StepComparison{
			Name:    name,
			File:    file,
			InFile1: in1,
			InFile2: in2,
		}

		if in1 {
			comp.Duration1 = t1.Duration
			comp.Passed1 = t1.Passed
		}
		if in2 {
			comp.Duration2 = t2.Duration
			comp.Passed2 = t2.Passed
		}

		switch {
		case in1 && in2:
			if comp.Duration1 > 0 {
				comp.DurationChange = ((comp.Duration2 - comp.Duration1) / comp.Duration1) * 100
			}

			if comp.Passed1 != comp.Passed2 {
				if comp.Passed2 {
					comp.StatusChange = "improved"
					diff.Summary.Improved++
				} else {
					comp.StatusChange = "regressed"
					diff.Summary.Regressed++
				}
			} else if comp.DurationChange < -10 {
				comp.StatusChange = "improved"
				diff.Summary.Improved++
			} else if comp.DurationChange > 10 {
				comp.StatusChange = "regressed"
				diff.Summary.Regressed++
			} else {
				comp.StatusChange = "unchanged"
				diff.Summary.Unchanged++
			}

			if threshold > 0 && comp.DurationChange > threshold {
				diff.Summary.ThresholdPassed = false
			}
		case in1:
			comp.StatusChange = "removed"
			diff.Summary.RemovedSteps++
		default:
			comp.StatusChange = "new"
			diff.Summary.NewSteps++
		}

		diff.Comparisons = append(diff.Comparisons, comp)
		diff.Summary.TotalSteps++
	}

	return diff
}

func outputDiffConsole(diff *DiffResult) {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()
	bold := color.New(color.Bold).SprintFunc()

	fmt.Printf("\n%s\n", bold("Run Comparison"))
	fmt.Printf("  %s: %s\n", cyan("Before"), diff.File1)
	fmt.Printf("  %s: %s\n\n", cyan("After"), diff.File2)

	fmt.Printf("%s\n", bold("Summary"))
	fmt.Printf("  Total Steps:    %d\n", diff.Summary.TotalSteps)
	if diff.Summary.Improved > 0 {
		fmt.Printf("  Improved:       %s\n", green(strconv.Itoa(diff.Summary.Improved)))
	}
	if diff.Summary.Regressed > 0 {
		fmt.Printf("  Regressed:      %s\n", red(strconv.Itoa(diff.Summary.Regressed)))
	}
	if diff.Summary.Unchanged > 0 {
		fmt.Printf("  Unchanged:      %d\n", diff.Summary.Unchanged)
	}
	if diff.Summary.NewSteps > 0 {
		fmt.Printf("  New:            %s\n", cyan(strconv.Itoa(diff.Summary.NewSteps)))
	}
	if diff.Summary.RemovedSteps > 0 {
		fmt.Printf("  Removed:        %s\n", yellow(strconv.Itoa(diff.Summary.RemovedSteps)))
	}
	fmt.Println()

	fmt.Printf("%s\n", bold("Latency"))
	fmt.Printf("  p50: %.0fms → %.0fms\n", diff.Summary.P50Before, diff.Summary.P50After)
	fmt.Printf("  p95: %.0fms → %.0fms\n\n", diff.Summary.P95Before, diff.Summary.P95After)

	fmt.Printf("%s\n", bold("Steps"))
	for _, comp := range diff.Comparisons {
		var symbol string
		var paint func(a ...interface{}) string

		switch comp.StatusChange {
		case "improved":
			symbol = "↑"
			paint = green
		case "regressed":
			symbol = "↓"
			paint = red
		case "new":
			symbol = "+"
			paint = cyan
		case "removed":
			symbol = "-"
			paint = yellow
		default:
			symbol = "="
			paint = fmt.Sprint
		}

		name := comp.Name
		if name == "" {
			name = comp.File
		}
		if name == "" {
			name = "(unnamed)"
		}

		switch {
		case comp.InFile1 && comp.InFile2:
			changeStr := ""
			if comp.DurationChange > 0 {
				changeStr = fmt.Sprintf("+%.1f%%", comp.DurationChange)
			} else if comp.DurationChange < 0 {
				changeStr = fmt.Sprintf("%.1f%%", comp.DurationChange)
			}
			fmt.Printf("  %s %s  %.0fms → %.0fms %s\n", paint(symbol), name, comp.Duration1, comp.Duration2, paint(changeStr))
		case comp.InFile1:
			fmt.Printf("  %s %s  (removed)\n", paint(symbol), name)
		default:
			fmt.Printf("  %s %s  (new, %.0fms)\n", paint(symbol), name, comp.Duration2)
		}
	}
	fmt.Println()

	if diff.Summary.ThresholdPercent > 0 {
		if diff.Summary.ThresholdPassed {
			fmt.Printf("%s Threshold check passed (max regression: %.1f%%)\n", green("✓"), diff.Summary.ThresholdPercent)
		} else {
			fmt.Printf("%s Threshold check failed (some steps exceeded %.1f%% regression)\n", red("✗"), diff.Summary.ThresholdPercent)
		}
	}
}

func outputDiffJSON(diff *DiffResult) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(diff)
}
