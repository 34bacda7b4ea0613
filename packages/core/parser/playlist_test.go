package parser

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePlaylist_Sections(t *testing.T) {
	input := `[meta]
name = checkout flow
env = staging

[vars]
host = staging.example.com

[steps]
login.nap
smoke            # every .nap file in the folder
teardown.sh
nested/suite.naplist
report.generated
`
	pl, err := ParsePlaylist(input)
	require.NoError(t, err)

	assert.Equal(t, "checkout flow", pl.Name)
	assert.Equal(t, "staging", pl.Env)
	assert.Equal(t, map[string]string{"host": "staging.example.com"}, pl.Vars)

	require.Len(t, pl.Steps, 5)
	assert.Equal(t, StepRequest, pl.Steps[0].Kind)
	assert.Equal(t, "login.nap", pl.Steps[0].Path)
	assert.Equal(t, StepFolder, pl.Steps[1].Kind)
	assert.Equal(t, "smoke", pl.Steps[1].Path)
	assert.Equal(t, StepScript, pl.Steps[2].Kind)
	assert.Equal(t, StepPlaylist, pl.Steps[3].Kind)
	assert.Equal(t, "nested/suite.naplist", pl.Steps[3].Path)
	// unknown suffixes fall back to request files
	assert.Equal(t, StepRequest, pl.Steps[4].Kind)
}

func TestParsePlaylist_StepOrderAndLines(t *testing.T) {
	input := `[steps]
b.nap
a.nap
`
	pl, err := ParsePlaylist(input)
	require.NoError(t, err)
	require.Len(t, pl.Steps, 2)
	assert.Equal(t, "b.nap", pl.Steps[0].Path)
	assert.Equal(t, 2, pl.Steps[0].Line)
	assert.Equal(t, "a.nap", pl.Steps[1].Path)
	assert.Equal(t, 3, pl.Steps[1].Line)
}

func TestParsePlaylist_UnknownSectionTolerated(t *testing.T) {
	input := `[future]
whatever this grows into

[steps]
one.nap
`
	pl, err := ParsePlaylist(input)
	require.NoError(t, err)
	require.Len(t, pl.Steps, 1)
}

func TestParsePlaylist_MalformedSectionHeader(t *testing.T) {
	_, err := ParsePlaylist("[steps\none.nap\n")
	require.Error(t, err)

	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, 1, perr.Line)
	assert.Contains(t, perr.Message, "malformed section header")
}

func TestParsePlaylist_ContentBeforeSection(t *testing.T) {
	_, err := ParsePlaylist("one.nap\n")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected a section header")
}

func TestParsePlaylist_Empty(t *testing.T) {
	pl, err := ParsePlaylist("# placeholder playlist\n")
	require.NoError(t, err)
	assert.Empty(t, pl.Steps)
	assert.Empty(t, pl.Env)
}

func TestParsePlaylistFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "suite.naplist")
	require.NoError(t, os.WriteFile(path, []byte("[steps]\nhealth.nap\n"), 0o644))

	pl, err := ParsePlaylistFile(path)
	require.NoError(t, err)
	assert.Equal(t, path, pl.Path)
	require.Len(t, pl.Steps, 1)
	assert.Equal(t, StepRequest, pl.Steps[0].Kind)
}

func TestClassifyStep(t *testing.T) {
	cases := map[string]StepKind{
		"users.nap":        StepRequest,
		"suite.naplist":    StepPlaylist,
		"seed.sh":          StepScript,
		"seed.bash":        StepScript,
		"report.js":        StepScript,
		"fixtures.py":      StepScript,
		"smoke":            StepFolder,
		"nested/dir":       StepFolder,
		"data.json":        StepRequest,
		"archive.tar.gz":   StepRequest,
		"UPPER.NAP":        StepRequest,
		"nested/tests.nap": StepRequest,
	}
	for path, want := range cases {
		assert.Equal(t, want, classifyStep(path), "path %q", path)
	}
}
