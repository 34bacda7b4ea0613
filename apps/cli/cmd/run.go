package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/MelbourneDeveloper/napper-sub001/packages/core/config"
	"github.com/MelbourneDeveloper/napper-sub001/packages/core/engine"
	"github.com/MelbourneDeveloper/napper-sub001/packages/http"
	"github.com/MelbourneDeveloper/napper-sub001/packages/output"
	"github.com/MelbourneDeveloper/napper-sub001/packages/stats"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run <file|folder|playlist>",
	Short: "Run requests from nap files",
	Long: `Run the requests defined in a .nap file, every .nap file in a folder,
or the steps of a .naplist playlist.

Examples:
  nap run health.nap
  nap run ./tests/
  nap run checkout.naplist --env staging
  nap run checkout.naplist --var token=abc --var user=jo
  nap run ./tests/ --output json --output-file report.json
  nap run smoke.naplist --watch`,
	Args: cobra.ExactArgs(1),
	RunE: runCommand,
}

const (
	// WatchDebounceDelay is the debounce delay for file watch events
	WatchDebounceDelay = 300 * time.Millisecond
)

var (
	envFlag        string
	varFlags       []string
	configFlag     string
	timeoutFlag    int
	retriesFlag    int
	rateFlag       float64
	outputFlag     string
	outputFileFlag string
	noColorFlag    bool
	insecureFlag   bool
	noFollowFlag   bool
	watchFlag      bool
	verboseFlag    int
	quietFlag      bool
)

func init() {
	// Core flags
	runCmd.Flags().StringVarP(&envFlag, "env", "e", getEnvString("NAP_ENV", ""), "Environment name, selects .env.<name> files (env: NAP_ENV)")
	runCmd.Flags().StringArrayVarP(&varFlags, "var", "V", nil, "Variable override as key=value (repeatable)")
	runCmd.Flags().StringVar(&configFlag, "config", getEnvString("NAP_CONFIG", ""), "Path to config file (env: NAP_CONFIG)")

	// Execution flags
	runCmd.Flags().IntVar(&timeoutFlag, "timeout", getEnvInt("NAP_TIMEOUT", 0), "Request timeout in milliseconds (env: NAP_TIMEOUT)")
	runCmd.Flags().IntVar(&retriesFlag, "retries", getEnvInt("NAP_RETRIES", 0), "Retries for requests that fail in transport (env: NAP_RETRIES)")
	runCmd.Flags().Float64VarP(&rateFlag, "rate", "r", getEnvFloat("NAP_RATE", 0), "Maximum requests per second, 0 means unlimited (env: NAP_RATE)")
	runCmd.Flags().BoolVarP(&watchFlag, "watch", "w", false, "Watch files for changes and re-run")

	// Network flags
	runCmd.Flags().BoolVarP(&insecureFlag, "insecure", "k", getEnvBool("NAP_INSECURE", false), "Disable SSL certificate validation (env: NAP_INSECURE)")
	runCmd.Flags().BoolVar(&noFollowFlag, "no-follow-redirects", false, "Do not follow HTTP redirects")

	// Output flags
	runCmd.Flags().StringVarP(&outputFlag, "output", "o", getEnvString("NAP_OUTPUT", ""), "Output format: console, json, junit, ndjson (env: NAP_OUTPUT)")
	runCmd.Flags().StringVar(&outputFileFlag, "output-file", getEnvString("NAP_OUTPUT_FILE", ""), "Write output to file instead of stdout (env: NAP_OUTPUT_FILE)")
	runCmd.Flags().BoolVar(&noColorFlag, "no-color", getEnvBool("NAP_NO_COLOR", false), "Disable colored output (env: NAP_NO_COLOR)")
	runCmd.Flags().CountVarP(&verboseFlag, "verbose", "v", "Verbose output, includes response details and script logs")
	runCmd.Flags().BoolVarP(&quietFlag, "quiet", "q", getEnvBool("NAP_QUIET", false), "Suppress all output except errors (env: NAP_QUIET)")
}

// Environment variable helpers
func getEnvString(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		return val == "true" || val == "1" || val == "yes"
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

// Formatter interface for all output formatters
type Formatter interface {
	FormatHeader(version string)
	FormatResult(result *engine.RunResult)
	FormatError(err error)
	Flush(summary *stats.Summary) error
}

// runSettings is the effective configuration after merging the config file
// with CLI flags.
type runSettings struct {
	environment     string
	overrides       map[string]string
	timeout         time.Duration
	retries         int
	retryDelay      time.Duration
	rate            float64
	followRedirects bool
	maxRedirects    int
	validateSSL     bool
	headers         map[string]string
	format          string
	noColor         bool
	verbose         bool
}

func runCommand(cmd *cobra.Command, args []string) error {
	fileConfig, err := config.LoadConfig(configFlag)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	overrides, err := parseVarFlags(varFlags)
	if err != nil {
		return err
	}

	settings := resolveSettings(cmd, fileConfig, overrides)

	var outWriter *os.File
	if outputFileFlag != "" {
		outWriter, err = os.Create(outputFileFlag)
		if err != nil {
			return fmt.Errorf("cannot create output file: %w", err)
		}
		defer outWriter.Close()
	}

	logger := buildLogger(settings.verbose, quietFlag)
	client := http.NewClient(
		http.WithTimeout(settings.timeout),
		http.WithRetries(settings.retries),
		http.WithRetryDelay(settings.retryDelay),
		http.WithRateLimit(settings.rate),
		http.WithFollowRedirects(settings.followRedirects),
		http.WithMaxRedirects(settings.maxRedirects),
		http.WithValidateSSL(settings.validateSSL),
		http.WithDefaultHeaders(settings.headers),
		http.WithLogger(logger),
	)

	target := args[0]

	runTests := func() (int, error) {
		formatter := newFormatter(settings, outWriter)
		collector := stats.NewCollector()
		eng := engine.New(
			&engine.Config{Environment: settings.environment, Overrides: settings.overrides},
			engine.WithClient(client),
			engine.WithLogger(logger),
			engine.WithReporter(func(r *engine.RunResult) {
				formatter.FormatResult(r)
				collector.Record(r.Duration, r.Passed)
			}),
		)

		formatter.FormatHeader(version)
		if _, err := eng.Run(cmd.Context(), target); err != nil {
			formatter.FormatError(err)
			return 0, err
		}

		summary := collector.Summary()
		if err := formatter.Flush(summary); err != nil {
			return 0, fmt.Errorf("error writing output: %w", err)
		}
		return summary.Failed, nil
	}

	failed, err := runTests()
	if err != nil {
		return err
	}

	if !watchFlag {
		if failed > 0 {
			os.Exit(ExitTestFailure)
		}
		return nil
	}

	return watchAndRerun(cmd, target, runTests)
}

// resolveSettings merges the config file with CLI flags, flags winning.
func resolveSettings(cmd *cobra.Command, fileConfig *config.Config, overrides map[string]string) *runSettings {
	s := &runSettings{
		environment:     fileConfig.DefaultEnvironment,
		overrides:       overrides,
		timeout:         time.Duration(fileConfig.Timeout) * time.Millisecond,
		retries:         fileConfig.Retries,
		retryDelay:      time.Duration(fileConfig.RetryDelay) * time.Millisecond,
		rate:            fileConfig.Rate,
		followRedirects: fileConfig.GetFollowRedirects(),
		maxRedirects:    fileConfig.MaxRedirects,
		validateSSL:     fileConfig.GetValidateSSL(),
		headers:         fileConfig.Headers,
		format:          fileConfig.Output,
		noColor:         fileConfig.GetNoColor(),
		verbose:         fileConfig.GetVerbose(),
	}

	if envFlag != "" {
		s.environment = envFlag
	}
	if timeoutFlag > 0 {
		s.timeout = time.Duration(timeoutFlag) * time.Millisecond
	}
	if retriesFlag > 0 || cmd.Flags().Changed("retries") {
		s.retries = retriesFlag
	}
	if rateFlag > 0 || cmd.Flags().Changed("rate") {
		s.rate = rateFlag
	}
	if insecureFlag {
		s.validateSSL = false
	}
	if noFollowFlag {
		s.followRedirects = false
	}
	if outputFlag != "" {
		s.format = outputFlag
	}
	if noColorFlag || quietFlag {
		s.noColor = true
	}
	if verboseFlag > 0 {
		s.verbose = true
	}
	return s
}

func parseVarFlags(flags []string) (map[string]string, error) {
	vars := make(map[string]string, len(flags))
	for _, f := range flags {
		key, value, found := strings.Cut(f, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("invalid --var %q, expected key=value", f)
		}
		vars[key] = value
	}
	return vars, nil
}

func buildLogger(verbose, quiet bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	if quiet {
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// newFormatter builds a fresh formatter. Watch mode calls this before every
// run so accumulating formatters start clean.
func newFormatter(settings *runSettings, outWriter *os.File) Formatter {
	switch strings.ToLower(settings.format) {
	case "json":
		opts := []output.JSONOption{}
		if outWriter != nil {
			opts = append(opts, output.JSONWithWriter(outWriter))
		}
		return output.NewJSONFormatter(opts...)
	case "junit":
		opts := []output.JUnitOption{}
		if outWriter != nil {
			opts = append(opts, output.JUnitWithWriter(outWriter))
		}
		return output.NewJUnitFormatter(opts...)
	case "ndjson":
		opts := []output.NDJSONOption{}
		if outWriter != nil {
			opts = append(opts, output.NDJSONWithWriter(outWriter))
		}
		return output.NewNDJSONFormatter(opts...)
	default: // "console"
		opts := []output.ConsoleOption{
			output.WithVerbose(settings.verbose),
			output.WithNoColor(settings.noColor),
		}
		if outWriter != nil {
			opts = append(opts, output.WithWriter(outWriter))
		}
		return output.NewConsoleFormatter(opts...)
	}
}

// watchAndRerun re-runs the target whenever a nap file under it changes.
func watchAndRerun(cmd *cobra.Command, target string, runTests func() (int, error)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	info, err := os.Stat(target)
	if err != nil {
		return fmt.Errorf("cannot access %s: %w", target, err)
	}

	watchedDirs := make(map[string]bool)
	addDir := func(dir string) {
		if watchedDirs[dir] {
			return
		}
		if err := watcher.Add(dir); err != nil {
			fmt.Fprintf(os.Stderr, "failed to watch %s: %v\n", dir, err)
			return
		}
		watchedDirs[dir] = true
	}

	if info.IsDir() {
		_ = filepath.Walk(target, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() {
				addDir(path)
			}
			return nil
		})
	} else {
		addDir(filepath.Dir(target))
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\nWatching for changes... (press Ctrl+C to stop)\n")

	// Debounce timer for rapid file changes
	var debounceTimer *time.Timer

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if event.Has(fsnotify.Write) && isWatchedFile(event.Name) {
				if debounceTimer != nil {
					debounceTimer.Stop()
				}
				debounceTimer = time.AfterFunc(WatchDebounceDelay, func() {
					fmt.Fprintf(cmd.OutOrStdout(), "\nFile changed: %s\nRe-running...\n\n", event.Name)
					if _, err := runTests(); err != nil {
						fmt.Fprintf(os.Stderr, "%v\n", err)
					}
					fmt.Fprintf(cmd.OutOrStdout(), "\nWatching for changes... (press Ctrl+C to stop)\n")
				})
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(os.Stderr, "watcher error: %v\n", err)
		}
	}
}

// isWatchedFile reports whether a change to this file should trigger a
// re-run: request files, playlists and env files.
func isWatchedFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".nap", ".naplist":
		return true
	}
	return strings.HasPrefix(filepath.Base(path), ".env")
}
