// Package http dispatches resolved nap requests.
//
// It wraps the standard library's http package with the behavior the runner
// needs:
//   - per-request timeouts and transport-failure retries
//   - an optional requests-per-second limiter
//   - Content-Type bound to the body payload rather than sent bare
//   - duration measured through the last body byte
package http
