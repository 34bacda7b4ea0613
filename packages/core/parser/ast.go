package parser

import "fmt"

type RequestDefinition struct {
	Path        string
	Name        string
	Description string
	Tags        []string
	Vars        map[string]string
	Method      string
	URL         string
	Headers     []*Header
	Body        *Body
	Assertions  []*Assertion
	Scripts     *ScriptHooks
	Warnings    []string
}

type Header struct {
	Key   string
	Value string
	Line  int
}

type Body struct {
	ContentType string
	Content     string
	Line        int
}

// ScriptHooks names external scripts run around a request. Paths are as
// written in the file and resolve relative to the declaring file's directory.
type ScriptHooks struct {
	Pre  string
	Post string
}

type Assertion struct {
	Target   string
	Operator Operator
	Expected string
	Line     int
}

// Describe renders the check half of the assertion back as a human string,
// e.g. `< 500ms` or `contains "json"`.
func (a *Assertion) Describe() string {
	switch a.Operator {
	case OpExists:
		return "exists"
	case OpContains, OpMatches:
		return fmt.Sprintf("%s %q", a.Operator, a.Expected)
	default:
		return fmt.Sprintf("%s %s", a.Operator, a.Expected)
	}
}

type Operator int

const (
	OpEquals Operator = iota
	OpExists
	OpContains
	OpMatches
	OpLessThan
	OpGreaterThan
)

func (op Operator) String() string {
	switch op {
	case OpEquals:
		return "="
	case OpExists:
		return "exists"
	case OpContains:
		return "contains"
	case OpMatches:
		return "matches"
	case OpLessThan:
		return "<"
	case OpGreaterThan:
		return ">"
	default:
		return "unknown"
	}
}

type PlaylistDefinition struct {
	Path        string
	Name        string
	Description string
	Env         string
	Vars        map[string]string
	Steps       []*Step
}

type Step struct {
	Kind StepKind
	Path string
	Line int
}

type StepKind int

const (
	StepRequest StepKind = iota
	StepFolder
	StepPlaylist
	StepScript
)

func (k StepKind) String() string {
	switch k {
	case StepRequest:
		return "request"
	case StepFolder:
		return "folder"
	case StepPlaylist:
		return "playlist"
	case StepScript:
		return "script"
	default:
		return "unknown"
	}
}

type ParseError struct {
	File    string
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	switch {
	case e.File != "" && e.Line > 0:
		return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Message)
	case e.File != "":
		return fmt.Sprintf("%s: %s", e.File, e.Message)
	case e.Line > 0:
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	default:
		return e.Message
	}
}
