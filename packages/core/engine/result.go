package engine

import (
	"time"

	"github.com/MelbourneDeveloper/napper-sub001/packages/assertions"
	"github.com/MelbourneDeveloper/napper-sub001/packages/http"
)

// RunResult is the outcome of one leaf step: a request file or a script.
// Folder and playlist steps contribute one RunResult per leaf they expand to.
type RunResult struct {
	File       string
	Name       string
	Request    *http.Request
	Response   *http.Response
	Assertions []*assertions.Result
	Passed     bool
	Error      error
	Logs       []string
	Duration   time.Duration
}

// FailedAssertions counts the checks that evaluated false.
func (r *RunResult) FailedAssertions() int {
	n := 0
	for _, a := range r.Assertions {
		if !a.Passed {
			n++
		}
	}
	return n
}
