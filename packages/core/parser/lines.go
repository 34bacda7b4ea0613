package parser

import (
	"strings"
	"unicode"
)

// Line-level helpers shared by the request and playlist grammars.

func isComment(trimmed string) bool {
	return strings.HasPrefix(trimmed, "#")
}

// sectionName extracts the lowercased name from a `[section]` header line.
func sectionName(trimmed string) (string, bool) {
	if !strings.HasPrefix(trimmed, "[") || !strings.HasSuffix(trimmed, "]") {
		return "", false
	}
	name := strings.TrimSpace(trimmed[1 : len(trimmed)-1])
	if name == "" {
		return "", false
	}
	return strings.ToLower(name), true
}

// splitKeyValue splits a `key = value` line. The value is either a bare token
// running to the first # comment, or a double-quoted string whose content is
// kept verbatim (a # inside quotes is literal).
func splitKeyValue(line string) (string, string, bool) {
	key, rest, found := strings.Cut(line, "=")
	if !found {
		return "", "", false
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return "", "", false
	}
	return key, parseValue(strings.TrimSpace(rest)), true
}

func parseValue(raw string) string {
	if strings.HasPrefix(raw, `"`) {
		if end := strings.Index(raw[1:], `"`); end >= 0 {
			return raw[1 : end+1]
		}
		return raw[1:]
	}
	if i := strings.IndexByte(raw, '#'); i >= 0 {
		raw = raw[:i]
	}
	return strings.TrimSpace(raw)
}

// splitAssertLine tokenizes an assertion line into at most three parts:
// target, operator, and the remainder of the line as the operand.
func splitAssertLine(line string) []string {
	parts := make([]string, 0, 3)
	rest := strings.TrimSpace(line)
	for len(parts) < 2 && rest != "" {
		i := strings.IndexFunc(rest, unicode.IsSpace)
		if i < 0 {
			parts = append(parts, rest)
			rest = ""
			break
		}
		parts = append(parts, rest[:i])
		rest = strings.TrimSpace(rest[i:])
	}
	if rest != "" {
		parts = append(parts, rest)
	}
	return parts
}

func unquoteOperand(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

// stripTrailingComment cuts an end-of-line comment introduced by whitespace
// followed by #. Used for step lines, whose values are paths rather than
// key = value pairs.
func stripTrailingComment(line string) string {
	for i := 1; i < len(line); i++ {
		if line[i] == '#' && (line[i-1] == ' ' || line[i-1] == '\t') {
			return strings.TrimSpace(line[:i])
		}
	}
	return line
}
