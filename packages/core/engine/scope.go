package engine

import (
	"github.com/MelbourneDeveloper/napper-sub001/packages/core/env"
	"github.com/MelbourneDeveloper/napper-sub001/packages/core/parser"
)

// scope carries the variable state a step runs under. defaults is the floor
// built from playlist [vars] blocks; overrides is the ceiling holding CLI
// variables plus everything scripts have exported so far. The overrides map
// is shared between parent and child scopes so a variable set inside a
// nested playlist stays visible to the steps that follow it.
type scope struct {
	env       string
	defaults  map[string]string
	overrides map[string]string
	chain     []string
}

func newScope(envName string, overrides map[string]string) *scope {
	sc := &scope{env: envName, overrides: make(map[string]string)}
	for k, v := range overrides {
		sc.overrides[k] = v
	}
	return sc
}

// enter derives the scope a playlist's steps run under. The playlist's own
// vars only fill keys the caller left undefined, and the first environment
// name seen on the way down sticks for the whole run.
func (sc *scope) enter(pl *parser.PlaylistDefinition) *scope {
	child := &scope{
		env:       sc.env,
		defaults:  env.Merge(pl.Vars, sc.defaults),
		overrides: sc.overrides,
		chain:     append(append([]string{}, sc.chain...), pl.Path),
	}
	if child.env == "" {
		child.env = pl.Env
	}
	return child
}

// inProgress reports whether path is a playlist currently being expanded
// somewhere up the chain.
func (sc *scope) inProgress(path string) bool {
	for _, p := range sc.chain {
		if p == path {
			return true
		}
	}
	return false
}

// resolve builds the map a request file sees: its own [vars] under the
// playlist floor, environment files from dir over both, overrides on top.
func (sc *scope) resolve(dir string, fileVars map[string]string) (map[string]string, error) {
	return env.Load(dir, sc.env, env.Merge(fileVars, sc.defaults), sc.overrides)
}

// apply folds exported variables into the override layer.
func (sc *scope) apply(updates map[string]string) {
	for k, v := range updates {
		sc.overrides[k] = v
	}
}
