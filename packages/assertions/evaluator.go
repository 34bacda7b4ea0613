package assertions

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/MelbourneDeveloper/napper-sub001/packages/core/parser"
	"github.com/MelbourneDeveloper/napper-sub001/packages/http"
	"github.com/tidwall/gjson"
)

// Missing is the rendered actual value when a target cannot be located on
// the response. Every operator fails against it, exists included.
const Missing = "<missing>"

type Result struct {
	Assertion *parser.Assertion
	Passed    bool
	Expected  string
	Actual    string
}

// Check renders the assertion the result came from, e.g. `duration < 500ms`.
func (r *Result) Check() string {
	return r.Assertion.Target + " " + r.Assertion.Describe()
}

// Evaluate runs every assertion against the response. Expected operands must
// already be interpolated; evaluation itself is pure.
func Evaluate(resp *http.Response, list []*parser.Assertion) []*Result {
	results := make([]*Result, 0, len(list))
	for _, a := range list {
		results = append(results, evaluate(resp, a))
	}
	return results
}

func evaluate(resp *http.Response, a *parser.Assertion) *Result {
	result := &Result{Assertion: a, Expected: a.Expected}

	actual, found := resolveTarget(resp, a.Target)
	if !found {
		result.Actual = Missing
		return result
	}
	result.Actual = actual

	switch a.Operator {
	case parser.OpExists:
		result.Passed = true
	case parser.OpEquals:
		result.Passed = actual == a.Expected
	case parser.OpContains:
		result.Passed = strings.Contains(strings.ToLower(actual), strings.ToLower(a.Expected))
	case parser.OpMatches:
		re, err := regexp.Compile(a.Expected)
		result.Passed = err == nil && re.MatchString(actual)
	case parser.OpLessThan, parser.OpGreaterThan:
		result.Passed = compareNumeric(a.Operator, actual, a.Expected)
	}
	return result
}

// resolveTarget locates the actual value an assertion speaks about. The
// second return is false when the target does not exist on this response.
func resolveTarget(resp *http.Response, target string) (string, bool) {
	switch {
	case target == "status":
		return strconv.Itoa(resp.StatusCode), true
	case target == "duration":
		return fmt.Sprintf("%dms", resp.DurationMs()), true
	case target == "body":
		return resp.BodyString(), true
	case strings.HasPrefix(target, "headers."):
		return lookupHeader(resp, strings.TrimPrefix(target, "headers."))
	case strings.HasPrefix(target, "body."):
		return lookupBodyPath(resp.Body, strings.TrimPrefix(target, "body."))
	default:
		return "", false
	}
}

// lookupHeader tries the name as written first, then falls back to a
// case-insensitive scan. A present-but-empty header still counts as found.
func lookupHeader(resp *http.Response, name string) (string, bool) {
	if v, ok := resp.Headers[name]; ok {
		return v, true
	}
	for k, v := range resp.Headers {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return "", false
}

// lookupBodyPath walks an explicit dotted path over the parsed JSON body.
// Each segment steps into an object property; the walk gives up as soon as
// the current node is anything but an object or the property is absent.
// Arrays are never indexed.
func lookupBodyPath(body []byte, path string) (string, bool) {
	if !gjson.ValidBytes(body) {
		return "", false
	}
	node := gjson.ParseBytes(body)
	for _, segment := range strings.Split(path, ".") {
		if segment == "" || !node.IsObject() {
			return "", false
		}
		child, ok := node.Map()[segment]
		if !ok {
			return "", false
		}
		node = child
	}
	return renderNode(node), true
}

// renderNode flattens a JSON node to the string assertions compare against:
// strings unquoted, null spelled out, everything else as its source text.
func renderNode(node gjson.Result) string {
	switch node.Type {
	case gjson.String:
		return node.Str
	case gjson.Null:
		return "null"
	default:
		return node.Raw
	}
}

func compareNumeric(op parser.Operator, actual, expected string) bool {
	a, ok := parseQuantity(actual)
	if !ok {
		return false
	}
	e, ok := parseQuantity(expected)
	if !ok {
		return false
	}
	if op == parser.OpLessThan {
		return a < e
	}
	return a > e
}

// parseQuantity reads a number with an optional duration suffix. Seconds
// scale to milliseconds so `0.5s` and `500ms` compare identically.
func parseQuantity(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	scale := 1.0
	if strings.HasSuffix(s, "ms") {
		s = strings.TrimSuffix(s, "ms")
	} else if strings.HasSuffix(s, "s") {
		s = strings.TrimSuffix(s, "s")
		scale = 1000
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return v * scale, true
}
