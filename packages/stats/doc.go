// Package stats tallies run outcomes and latency percentiles.
package stats
