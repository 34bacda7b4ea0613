// Package output provides formatters for displaying run results.
//
// Supported output formats:
//   - Console: Human-readable colored terminal output
//   - JSON: Machine-readable report, written once at the end
//   - JUnit: JUnit XML for CI integration
//   - NDJSON: One JSON object per line, streamed as results arrive
//
// Formatters receive results one at a time, in execution order, and get the
// run summary in Flush.
package output
