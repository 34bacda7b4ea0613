package cmd

// Exit codes for the nap CLI
const (
	// ExitSuccess indicates every step passed
	ExitSuccess = 0

	// ExitTestFailure indicates one or more steps failed
	ExitTestFailure = 1

	// ExitParseError indicates the target could not be located or parsed
	ExitParseError = 2
)
