package engine

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/MelbourneDeveloper/napper-sub001/packages/core/env"
)

// interpreters maps script extensions to the command that runs them.
var interpreters = map[string]string{
	".sh":   "sh",
	".bash": "bash",
	".js":   "node",
	".py":   "python3",
}

var exportPattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// scriptOutcome is what a finished script hands back to the engine.
type scriptOutcome struct {
	stdout   []string
	stderr   string
	exitCode int
	exports  map[string]string
}

// failureMessage summarizes a nonzero exit, preferring whatever the script
// printed to stderr over the bare exit code.
func (o *scriptOutcome) failureMessage() string {
	if msg := strings.TrimSpace(o.stderr); msg != "" {
		return msg
	}
	return fmt.Sprintf("exited with code %d", o.exitCode)
}

// runScript executes one script to completion and captures its streams.
// Stdout lines of the form name=value become exported variables; every
// stdout line is also kept verbatim for the step's logs. The returned error
// covers failure to start only; a nonzero exit is reported in the outcome.
func (e *Engine) runScript(ctx context.Context, path string, extra []string) (*scriptOutcome, error) {
	ext := strings.ToLower(filepath.Ext(path))
	interpreter, ok := interpreters[ext]
	if !ok {
		return nil, fmt.Errorf("no interpreter registered for %q", ext)
	}

	cmd := exec.CommandContext(ctx, interpreter, path)
	cmd.Dir = filepath.Dir(path)
	cmd.Env = append(os.Environ(), extra...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	e.logger.Debug("running script", "interpreter", interpreter, "path", path)

	runErr := cmd.Run()

	outcome := &scriptOutcome{
		stderr:  stderr.String(),
		exports: make(map[string]string),
	}
	scanner := bufio.NewScanner(&stdout)
	for scanner.Scan() {
		line := scanner.Text()
		outcome.stdout = append(outcome.stdout, line)
		if name, value, ok := strings.Cut(line, "="); ok && exportPattern.MatchString(name) {
			outcome.exports[name] = value
		}
	}

	if runErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(runErr, &exitErr) {
			return nil, fmt.Errorf("starting %s: %w", filepath.Base(path), runErr)
		}
		outcome.exitCode = exitErr.ExitCode()
	}
	return outcome, nil
}

// runHook resolves and runs one pre or post script. The returned error
// covers both failure to start and a nonzero exit.
func (e *Engine) runHook(ctx context.Context, baseDir, ref string, vars map[string]string, extra []string) (exports map[string]string, logs []string, err error) {
	path := env.Interpolate(vars, ref)
	if !filepath.IsAbs(path) {
		path = filepath.Join(baseDir, path)
	}

	outcome, err := e.runScript(ctx, path, extra)
	if err != nil {
		return nil, nil, err
	}
	if outcome.exitCode != 0 {
		return nil, outcome.stdout, errors.New(outcome.failureMessage())
	}
	return outcome.exports, outcome.stdout, nil
}
