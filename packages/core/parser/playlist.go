package parser

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var scriptSuffixes = map[string]bool{
	".sh":   true,
	".bash": true,
	".js":   true,
	".py":   true,
}

// ParsePlaylist parses the content of a .naplist playlist. Sections other
// than [meta], [vars] and [steps] are tolerated and ignored.
func ParsePlaylist(input string) (*PlaylistDefinition, error) {
	return parsePlaylist("", input)
}

// ParsePlaylistFile reads and parses a .naplist playlist from disk.
func ParsePlaylistFile(path string) (*PlaylistDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading playlist: %w", err)
	}
	pl, err := parsePlaylist(path, string(data))
	if err != nil {
		return nil, err
	}
	pl.Path = path
	return pl, nil
}

func parsePlaylist(file, input string) (*PlaylistDefinition, error) {
	pl := &PlaylistDefinition{Vars: map[string]string{}}
	cur := ""

	for i, raw := range strings.Split(input, "\n") {
		ln := i + 1
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" || isComment(trimmed) {
			continue
		}

		if strings.HasPrefix(trimmed, "[") {
			name, ok := sectionName(trimmed)
			if !ok {
				return nil, &ParseError{File: file, Line: ln, Message: fmt.Sprintf("malformed section header %q", trimmed)}
			}
			cur = name
			continue
		}

		switch cur {
		case "":
			return nil, &ParseError{File: file, Line: ln, Message: fmt.Sprintf("expected a section header, got %q", trimmed)}

		case "meta":
			key, value, ok := splitKeyValue(trimmed)
			if !ok {
				return nil, &ParseError{File: file, Line: ln, Message: fmt.Sprintf("expected key = value, got %q", trimmed)}
			}
			switch strings.ToLower(key) {
			case "name":
				pl.Name = value
			case "description":
				pl.Description = value
			case "env":
				pl.Env = value
			}

		case "vars":
			key, value, ok := splitKeyValue(trimmed)
			if !ok {
				return nil, &ParseError{File: file, Line: ln, Message: fmt.Sprintf("expected key = value, got %q", trimmed)}
			}
			pl.Vars[key] = value

		case "steps":
			path := stripTrailingComment(trimmed)
			pl.Steps = append(pl.Steps, &Step{Kind: classifyStep(path), Path: path, Line: ln})
		}
	}

	return pl, nil
}

// classifyStep decides what a step line refers to by its suffix: .nap files
// and .naplist playlists by extension, known script suffixes, folders when
// the last path element has no dot at all, and request files otherwise.
func classifyStep(path string) StepKind {
	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case ext == ".nap":
		return StepRequest
	case ext == ".naplist":
		return StepPlaylist
	case scriptSuffixes[ext]:
		return StepScript
	case ext == "":
		return StepFolder
	default:
		return StepRequest
	}
}
