// SPDX-License-Identifier: MPL-2.0

package patch

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingPrerequisite indicates the SDK is not installed at the expected location.
	ErrMissingPrerequisite = errors.New("SDK not installed at expected location")

	// ErrMissingTarget indicates one or more headers named by the registry do not exist.
	ErrMissingTarget = errors.New("patch target missing")

	// ErrAlreadyApplied indicates a backup already exists, so the patch was applied before.
	ErrAlreadyApplied = errors.New("patch already applied")

	// ErrRuleMismatch indicates a rule matched fewer times than it expects.
	ErrRuleMismatch = errors.New("patch rule did not match")

	// ErrInvalidRegistry indicates a malformed registry (bad pattern, zero occurrences, duplicate path).
	ErrInvalidRegistry = errors.New("invalid patch registry")
)

type (
	// MissingPrerequisiteError is returned when the base directory is absent.
	MissingPrerequisiteError struct {
		Dir string
	}

	// MissingTargetError lists every header that could not be found.
	MissingTargetError struct {
		Paths []string
	}

	// AlreadyAppliedError lists every backup that already exists.
	AlreadyAppliedError struct {
		Backups []string
	}

	// RuleMismatchError is returned when a rule finds fewer matches than
	// its Occurrences in the text it is applied to.
	RuleMismatchError struct {
		Path string
		Find string
		Want int
		Got  int
	}

	// EntryError ties a mutation failure to the registry entry being
	// processed, so the caller can decide whether to run Restore.
	EntryError struct {
		Path string
		Err  error
	}
)

// Error implements the error interface.
func (e *MissingPrerequisiteError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMissingPrerequisite, e.Dir)
}

// Unwrap returns ErrMissingPrerequisite so callers can use errors.Is.
func (e *MissingPrerequisiteError) Unwrap() error { return ErrMissingPrerequisite }

// Error implements the error interface.
func (e *MissingTargetError) Error() string {
	return fmt.Sprintf("could not find the following files to patch: %s", strings.Join(e.Paths, ", "))
}

// Unwrap returns ErrMissingTarget so callers can use errors.Is.
func (e *MissingTargetError) Unwrap() error { return ErrMissingTarget }

// Error implements the error interface.
func (e *AlreadyAppliedError) Error() string {
	if len(e.Backups) == 1 {
		return fmt.Sprintf("patch has already been applied (backup %q exists)", e.Backups[0])
	}
	return fmt.Sprintf("patch has already been applied (backups %s exist)", strings.Join(e.Backups, ", "))
}

// Unwrap returns ErrAlreadyApplied so callers can use errors.Is.
func (e *AlreadyAppliedError) Unwrap() error { return ErrAlreadyApplied }

// Error implements the error interface.
func (e *RuleMismatchError) Error() string {
	return fmt.Sprintf("%s: pattern %q matched %d time(s), want %d", e.Path, e.Find, e.Got, e.Want)
}

// Unwrap returns ErrRuleMismatch so callers can use errors.Is.
func (e *RuleMismatchError) Unwrap() error { return ErrRuleMismatch }

// Error implements the error interface.
func (e *EntryError) Error() string {
	return fmt.Sprintf("patching %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying failure.
func (e *EntryError) Unwrap() error { return e.Err }
