// Package assertions evaluates parsed assertion lines against a response.
//
// Supported targets:
//   - status (numeric status code)
//   - duration (wall time, comparable in ms or s)
//   - headers.<Name> (response header, case-insensitive fallback)
//   - body (raw body text)
//   - body.<dotted.path> (JSON object descent)
//
// Operators are =, exists, contains, matches, < and >. A target that cannot
// be located resolves to <missing> and fails every operator.
package assertions
