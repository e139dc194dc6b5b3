// SPDX-License-Identifier: MPL-2.0

package fsio

import (
	"errors"
	"fmt"
)

// ErrIOFailure is the sentinel wrapped by every IOError.
var ErrIOFailure = errors.New("i/o failure")

const (
	// PhaseBackup is the copy of a live file to its backup path.
	PhaseBackup Phase = "backup"
	// PhaseRead is reading a file's contents.
	PhaseRead Phase = "read"
	// PhaseWrite is writing transformed contents back to a file.
	PhaseWrite Phase = "write"
	// PhaseRestore is moving a backup over its live file.
	PhaseRestore Phase = "restore"
	// PhaseCreate is creating a file or directory.
	PhaseCreate Phase = "create"
	// PhaseRemove is removing a file or directory tree.
	PhaseRemove Phase = "remove"
)

type (
	// Phase names the step of a file operation that failed.
	Phase string

	// IOError is returned when a read, write, copy or rename fails.
	// It wraps both ErrIOFailure and the underlying cause, so
	// errors.Is(err, os.ErrPermission) keeps working.
	IOError struct {
		Path  string
		Phase Phase
		Cause error
	}
)

// Error implements the error interface.
func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Phase, e.Path, e.Cause)
}

// Unwrap returns ErrIOFailure and the underlying cause.
func (e *IOError) Unwrap() []error {
	return []error{ErrIOFailure, e.Cause}
}

// String returns the phase name.
func (p Phase) String() string { return string(p) }

func ioErr(path string, phase Phase, cause error) error {
	return &IOError{Path: path, Phase: phase, Cause: cause}
}
