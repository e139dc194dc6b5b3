// SPDX-License-Identifier: MPL-2.0

package cli

import "fmt"

// Exit codes returned by both commands.
const (
	// ExitOK means the command completed.
	ExitOK = 0
	// ExitPrecondition means the command refused to run and changed nothing.
	ExitPrecondition = 1
	// ExitFailure means an I/O or network failure, possibly after partial work.
	ExitFailure = 2
)

// ExitError signals a non-zero exit code without forcing os.Exit in RunE handlers.
type ExitError struct {
	Code int
	Err  error
}

// Error returns the error message for ExitError.
func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

// Unwrap returns the underlying error, if any.
func (e *ExitError) Unwrap() error {
	return e.Err
}
