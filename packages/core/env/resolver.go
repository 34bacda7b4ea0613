package env

import "regexp"

// Placeholders are strictly {{name}} with name made of letters, digits and
// underscores. Anything that merely looks like a placeholder passes through
// untouched.
var placeholderPattern = regexp.MustCompile(`\{\{([A-Za-z0-9_]+)\}\}`)

// Interpolate substitutes known {{name}} placeholders in text in a single
// left-to-right pass. Unknown names stay exactly as written, and substituted
// values are not scanned again.
func Interpolate(vars map[string]string, text string) string {
	return placeholderPattern.ReplaceAllStringFunc(text, func(match string) string {
		if value, ok := vars[match[2:len(match)-2]]; ok {
			return value
		}
		return match
	})
}
