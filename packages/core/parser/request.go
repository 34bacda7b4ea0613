package parser

import (
	"fmt"
	"os"
	"strings"
)

var httpMethods = map[string]bool{
	"GET":     true,
	"POST":    true,
	"PUT":     true,
	"PATCH":   true,
	"DELETE":  true,
	"HEAD":    true,
	"OPTIONS": true,
}

var requestSections = map[string]bool{
	"meta":            true,
	"vars":            true,
	"request":         true,
	"request.headers": true,
	"request.body":    true,
	"assert":          true,
	"script":          true,
}

var assertOperators = map[string]Operator{
	"=":        OpEquals,
	"contains": OpContains,
	"matches":  OpMatches,
	"<":        OpLessThan,
	">":        OpGreaterThan,
}

// ParseRequest parses the content of a .nap request file. Both grammars are
// accepted: the one-line `METHOD URL` shorthand and the full sectioned form.
func ParseRequest(input string) (*RequestDefinition, error) {
	return parseRequest("", input)
}

// ParseRequestFile reads and parses a .nap request file from disk.
func ParseRequestFile(path string) (*RequestDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading request file: %w", err)
	}
	def, err := parseRequest(path, string(data))
	if err != nil {
		return nil, err
	}
	def.Path = path
	return def, nil
}

func parseRequest(file, input string) (*RequestDefinition, error) {
	lines := strings.Split(input, "\n")

	if def, ok, err := parseShorthand(file, lines); ok {
		return def, err
	}
	return parseSections(file, lines)
}

// parseShorthand recognizes files whose single meaningful line is
// `METHOD URL`. It reports ok=false when the file needs the full grammar.
func parseShorthand(file string, lines []string) (*RequestDefinition, bool, error) {
	var (
		content string
		ln      int
		count   int
	)
	for i, raw := range lines {
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" || isComment(trimmed) {
			continue
		}
		count++
		if count > 1 {
			return nil, false, nil
		}
		content, ln = trimmed, i+1
	}

	if count == 0 {
		return nil, true, &ParseError{File: file, Line: 1, Message: "file contains no request definition"}
	}
	if strings.HasPrefix(content, "[") {
		return nil, false, nil
	}

	fields := strings.Fields(content)
	method := strings.ToUpper(fields[0])
	if !httpMethods[method] {
		return nil, false, nil
	}
	if len(fields) < 2 {
		return nil, true, &ParseError{File: file, Line: ln, Message: "shorthand request is missing a url"}
	}

	return &RequestDefinition{
		Method: method,
		URL:    strings.TrimSpace(content[len(fields[0]):]),
		Vars:   map[string]string{},
	}, true, nil
}

func parseSections(file string, lines []string) (*RequestDefinition, error) {
	def := &RequestDefinition{Vars: map[string]string{}}
	cur := ""
	reqLine := 0

	for i := 0; i < len(lines); i++ {
		ln := i + 1
		trimmed := strings.TrimSpace(lines[i])
		if trimmed == "" || isComment(trimmed) {
			continue
		}

		if strings.HasPrefix(trimmed, "[") {
			name, ok := sectionName(trimmed)
			if !ok {
				return nil, &ParseError{File: file, Line: ln, Message: fmt.Sprintf("malformed section header %q", trimmed)}
			}
			if !requestSections[name] {
				return nil, &ParseError{File: file, Line: ln, Message: fmt.Sprintf("unknown section [%s]", name)}
			}
			if name == "request" {
				reqLine = ln
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
				def.Name = value
			case "description":
				def.Description = value
			case "tags":
				def.Tags = splitTags(value)
			}

		case "vars":
			key, value, ok := splitKeyValue(trimmed)
			if !ok {
				return nil, &ParseError{File: file, Line: ln, Message: fmt.Sprintf("expected key = value, got %q", trimmed)}
			}
			def.Vars[key] = value

		case "request":
			key, value, ok := splitKeyValue(trimmed)
			if !ok {
				return nil, &ParseError{File: file, Line: ln, Message: fmt.Sprintf("expected key = value, got %q", trimmed)}
			}
			switch strings.ToLower(key) {
			case "method":
				def.Method = strings.ToUpper(value)
			case "url":
				def.URL = value
			}

		case "request.headers":
			key, value, ok := splitKeyValue(trimmed)
			if !ok {
				return nil, &ParseError{File: file, Line: ln, Message: fmt.Sprintf("expected key = value, got %q", trimmed)}
			}
			def.Headers = append(def.Headers, &Header{Key: key, Value: value, Line: ln})

		case "request.body":
			if strings.HasPrefix(trimmed, `"""`) {
				content, next, err := readBodyBlock(file, lines, i)
				if err != nil {
					return nil, err
				}
				ensureBody(def, ln).Content = content
				i = next
				continue
			}
			key, value, ok := splitKeyValue(trimmed)
			if !ok {
				return nil, &ParseError{File: file, Line: ln, Message: fmt.Sprintf("expected key = value, got %q", trimmed)}
			}
			switch strings.ToLower(key) {
			case "content-type":
				ensureBody(def, ln).ContentType = value
			case "content":
				ensureBody(def, ln).Content = value
			}

		case "assert":
			parseAssertLine(def, trimmed, ln)

		case "script":
			key, value, ok := splitKeyValue(trimmed)
			if !ok {
				return nil, &ParseError{File: file, Line: ln, Message: fmt.Sprintf("expected key = value, got %q", trimmed)}
			}
			switch strings.ToLower(key) {
			case "pre":
				ensureScripts(def).Pre = value
			case "post":
				ensureScripts(def).Post = value
			}
		}
	}

	if reqLine == 0 {
		return nil, &ParseError{File: file, Message: "missing [request] section"}
	}
	if def.URL == "" {
		return nil, &ParseError{File: file, Line: reqLine, Message: "[request] requires a url"}
	}
	if def.Method == "" {
		def.Method = "GET"
	}
	return def, nil
}

// readBodyBlock consumes a triple-quoted body starting at lines[start]. It
// returns the block content with leading/trailing whitespace trimmed and the
// index of the closing line. Lines inside the block are taken verbatim, so #
// is not a comment there.
func readBodyBlock(file string, lines []string, start int) (string, int, error) {
	raw := lines[start]
	after := raw[strings.Index(raw, `"""`)+3:]
	if end := strings.Index(after, `"""`); end >= 0 {
		return strings.TrimSpace(after[:end]), start, nil
	}

	var collected []string
	if after != "" {
		collected = append(collected, after)
	}
	for j := start + 1; j < len(lines); j++ {
		if end := strings.Index(lines[j], `"""`); end >= 0 {
			collected = append(collected, lines[j][:end])
			return strings.TrimSpace(strings.Join(collected, "\n")), j, nil
		}
		collected = append(collected, lines[j])
	}
	return "", 0, &ParseError{File: file, Line: start + 1, Message: "unterminated body block"}
}

// parseAssertLine accepts `target exists` and `target operator value` shapes.
// Anything else is dropped, not rejected: existing files rely on stray lines
// in [assert] being ignored. Each drop is recorded as a warning.
func parseAssertLine(def *RequestDefinition, line string, ln int) {
	parts := splitAssertLine(line)
	if len(parts) == 2 && parts[1] == "exists" {
		def.Assertions = append(def.Assertions, &Assertion{Target: parts[0], Operator: OpExists, Line: ln})
		return
	}
	if len(parts) == 3 {
		if op, ok := assertOperators[parts[1]]; ok {
			def.Assertions = append(def.Assertions, &Assertion{
				Target:   parts[0],
				Operator: op,
				Expected: unquoteOperand(parts[2]),
				Line:     ln,
			})
			return
		}
	}
	def.Warnings = append(def.Warnings, fmt.Sprintf("line %d: dropped malformed assertion %q", ln, line))
}

func splitTags(value string) []string {
	var tags []string
	for _, t := range strings.Split(value, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

func ensureBody(def *RequestDefinition, ln int) *Body {
	if def.Body == nil {
		def.Body = &Body{Line: ln}
	}
	return def.Body
}

func ensureScripts(def *RequestDefinition) *ScriptHooks {
	if def.Scripts == nil {
		def.Scripts = &ScriptHooks{}
	}
	return def.Scripts
}
