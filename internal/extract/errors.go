// SPDX-License-Identifier: MPL-2.0

package extract

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsafePath indicates an archive entry resolves outside the destination directory.
	ErrUnsafePath = errors.New("archive entry escapes destination")

	// ErrLimitExceeded indicates the archive has too many entries or too much uncompressed data.
	ErrLimitExceeded = errors.New("archive limit exceeded")
)

type (
	// UnsafePathError names the offending archive entry.
	UnsafePathError struct {
		Name string
	}

	// LimitError reports which limit an archive exceeded.
	LimitError struct {
		Limit string
		Max   int64
		Got   int64
	}
)

// Error implements the error interface.
func (e *UnsafePathError) Error() string {
	return fmt.Sprintf("invalid path in ZIP: %s", e.Name)
}

// Unwrap returns ErrUnsafePath so callers can use errors.Is.
func (e *UnsafePathError) Unwrap() error { return ErrUnsafePath }

// Error implements the error interface.
func (e *LimitError) Error() string {
	return fmt.Sprintf("archive exceeds %s limit: %d > %d", e.Limit, e.Got, e.Max)
}

// Unwrap returns ErrLimitExceeded so callers can use errors.Is.
func (e *LimitError) Unwrap() error { return ErrLimitExceeded }
