package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/MelbourneDeveloper/napper-sub001/packages/assertions"
	"github.com/MelbourneDeveloper/napper-sub001/packages/core/env"
	"github.com/MelbourneDeveloper/napper-sub001/packages/core/parser"
	"github.com/MelbourneDeveloper/napper-sub001/packages/http"
)

// Engine walks a target (request file, playlist, or folder) and produces one
// RunResult per leaf step, strictly in declaration order. Later steps see
// every variable earlier steps exported, so nothing runs concurrently.
type Engine struct {
	client *http.Client
	config *Config
	logger *slog.Logger
	report func(*RunResult)
}

type Config struct {
	// Environment selects the named environment file set. When empty, the
	// first playlist on the way down that declares one decides.
	Environment string
	// Overrides are the highest-precedence variables, typically --var flags.
	Overrides map[string]string
}

type Option func(*Engine)

func WithClient(client *http.Client) Option {
	return func(e *Engine) { e.client = client }
}

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithReporter registers a callback invoked once per RunResult, in execution
// order, as soon as the result is final.
func WithReporter(report func(*RunResult)) Option {
	return func(e *Engine) { e.report = report }
}

func New(cfg *Config, opts ...Option) *Engine {
	if cfg == nil {
		cfg = &Config{}
	}
	e := &Engine{
		client: http.NewClient(),
		config: cfg,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes the target and returns every leaf result in order. An error
// return is reserved for the target itself: a missing path, an unreadable
// folder, or an unparseable top-level file. Anything that goes wrong deeper
// in the tree becomes a failed RunResult and the run continues.
func (e *Engine) Run(ctx context.Context, target string) ([]*RunResult, error) {
	path, err := filepath.Abs(target)
	if err != nil {
		return nil, fmt.Errorf("resolving target: %w", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("locating target: %w", err)
	}

	sc := newScope(e.config.Environment, e.config.Overrides)

	switch {
	case info.IsDir():
		results, err := e.runFolder(ctx, path, sc)
		if err != nil {
			return nil, err
		}
		if len(results) == 0 {
			return nil, fmt.Errorf("no request files in %s", target)
		}
		return results, nil
	case strings.EqualFold(filepath.Ext(path), ".naplist"):
		pl, err := parser.ParsePlaylistFile(path)
		if err != nil {
			return nil, err
		}
		return e.runPlaylist(ctx, pl, sc), nil
	default:
		def, err := parser.ParseRequestFile(path)
		if err != nil {
			return nil, err
		}
		return []*RunResult{e.runDefinition(ctx, def, sc)}, nil
	}
}

// runPlaylist executes a playlist's steps in declaration order.
func (e *Engine) runPlaylist(ctx context.Context, pl *parser.PlaylistDefinition, sc *scope) []*RunResult {
	sc = sc.enter(pl)
	baseDir := filepath.Dir(pl.Path)

	var results []*RunResult
	for _, step := range pl.Steps {
		results = append(results, e.runStep(ctx, baseDir, step, sc)...)
	}
	return results
}

// runStep expands one playlist step into its leaf results. Step paths are
// relative to the playlist that declared them, never the working directory.
func (e *Engine) runStep(ctx context.Context, baseDir string, step *parser.Step, sc *scope) []*RunResult {
	path := step.Path
	if !filepath.IsAbs(path) {
		path = filepath.Join(baseDir, path)
	}

	switch step.Kind {
	case parser.StepPlaylist:
		if sc.inProgress(path) {
			e.logger.Warn("cyclic playlist reference", "path", path)
			return []*RunResult{e.finish(&RunResult{
				File:  path,
				Error: errors.New("cyclic playlist reference"),
			})}
		}
		nested, err := parser.ParsePlaylistFile(path)
		if err != nil {
			e.logger.Warn("skipping unparseable playlist", "path", path, "error", err)
			return nil
		}
		return e.runPlaylist(ctx, nested, sc)
	case parser.StepFolder:
		results, err := e.runFolder(ctx, path, sc)
		if err != nil {
			return []*RunResult{e.finish(&RunResult{File: path, Error: err})}
		}
		return results
	case parser.StepScript:
		return []*RunResult{e.runScriptStep(ctx, path, sc)}
	default:
		return []*RunResult{e.runFile(ctx, path, sc)}
	}
}

// runFolder runs every request file directly inside dir, sorted by filename.
// Subdirectories are not descended into.
func (e *Engine) runFolder(ctx context.Context, dir string, sc *scope) ([]*RunResult, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading folder: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(entry.Name()), ".nap") {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	results := make([]*RunResult, 0, len(names))
	for _, name := range names {
		results = append(results, e.runFile(ctx, filepath.Join(dir, name), sc))
	}
	return results, nil
}

// runFile parses and executes a single request file. A parse failure becomes
// a failed result so sibling steps keep running.
func (e *Engine) runFile(ctx context.Context, path string, sc *scope) *RunResult {
	def, err := parser.ParseRequestFile(path)
	if err != nil {
		return e.finish(&RunResult{File: path, Error: err})
	}
	return e.runDefinition(ctx, def, sc)
}

func (e *Engine) runDefinition(ctx context.Context, def *parser.RequestDefinition, sc *scope) *RunResult {
	result := &RunResult{File: def.Path, Name: def.Name}
	start := time.Now()
	done := func() *RunResult {
		result.Duration = time.Since(start)
		return e.finish(result)
	}

	for _, warning := range def.Warnings {
		e.logger.Warn("dropped assertion", "file", def.Path, "detail", warning)
	}

	dir := filepath.Dir(def.Path)
	vars, err := sc.resolve(dir, def.Vars)
	if err != nil {
		result.Error = fmt.Errorf("loading environment: %w", err)
		return done()
	}

	result.Request = buildRequest(def, vars)

	if def.Scripts != nil && def.Scripts.Pre != "" {
		exports, logs, err := e.runHook(ctx, dir, def.Scripts.Pre, vars, hookEnv(def.Path, result.Request.URL, nil))
		result.Logs = append(result.Logs, logs...)
		if err != nil {
			result.Error = fmt.Errorf("pre script: %w", err)
			return done()
		}
		if len(exports) > 0 {
			sc.apply(exports)
			vars = env.Merge(vars, exports)
			result.Request = buildRequest(def, vars)
		}
	}

	checks := resolveAssertions(def.Assertions, vars)

	resp, err := e.client.Do(ctx, result.Request)
	if err != nil {
		result.Error = err
		return done()
	}
	result.Response = resp
	result.Assertions = assertions.Evaluate(resp, checks)

	result.Passed = true
	for _, a := range result.Assertions {
		if !a.Passed {
			result.Passed = false
			break
		}
	}

	if def.Scripts != nil && def.Scripts.Post != "" {
		exports, logs, err := e.runHook(ctx, dir, def.Scripts.Post, vars, hookEnv(def.Path, result.Request.URL, resp))
		result.Logs = append(result.Logs, logs...)
		if err != nil {
			result.Passed = false
			result.Error = fmt.Errorf("post script: %w", err)
			return done()
		}
		sc.apply(exports)
	}

	return done()
}

// runScriptStep runs a standalone script step. Exit zero passes; variables
// the script exports stay in force for every later step.
func (e *Engine) runScriptStep(ctx context.Context, path string, sc *scope) *RunResult {
	result := &RunResult{File: path}
	start := time.Now()

	outcome, err := e.runScript(ctx, path, nil)
	result.Duration = time.Since(start)
	if err != nil {
		result.Error = err
		return e.finish(result)
	}

	result.Logs = outcome.stdout
	if outcome.exitCode != 0 {
		result.Error = errors.New(outcome.failureMessage())
		return e.finish(result)
	}

	result.Passed = true
	sc.apply(outcome.exports)
	return e.finish(result)
}

// finish stamps a result as final and streams it to the reporter.
func (e *Engine) finish(result *RunResult) *RunResult {
	if e.report != nil {
		e.report(result)
	}
	return result
}

// buildRequest resolves a definition into a concrete request. Interpolation
// touches the URL, header values, and body; keys and the method never.
func buildRequest(def *parser.RequestDefinition, vars map[string]string) *http.Request {
	req := http.NewRequest(def.Method, env.Interpolate(vars, def.URL))
	for _, h := range def.Headers {
		req.SetHeader(h.Key, env.Interpolate(vars, h.Value))
	}
	if def.Body != nil && def.Body.Content != "" {
		req.SetBody(env.Interpolate(vars, def.Body.Content), def.Body.ContentType)
	}
	return req
}

// resolveAssertions interpolates expected operands, leaving targets alone.
func resolveAssertions(list []*parser.Assertion, vars map[string]string) []*parser.Assertion {
	if len(list) == 0 {
		return nil
	}
	resolved := make([]*parser.Assertion, len(list))
	for i, a := range list {
		copied := *a
		copied.Expected = env.Interpolate(vars, a.Expected)
		resolved[i] = &copied
	}
	return resolved
}

// hookEnv is the extra environment handed to pre and post scripts. Post
// scripts additionally see the response they are reacting to.
func hookEnv(file, url string, resp *http.Response) []string {
	extra := []string{"NAP_FILE=" + file, "NAP_URL=" + url}
	if resp != nil {
		extra = append(extra,
			"NAP_STATUS="+strconv.Itoa(resp.StatusCode),
			"NAP_DURATION_MS="+strconv.FormatInt(resp.DurationMs(), 10),
			"NAP_BODY="+resp.BodyString(),
		)
	}
	return extra
}
