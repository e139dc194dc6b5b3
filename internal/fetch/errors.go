// SPDX-License-Identifier: MPL-2.0

package fetch

import (
	"errors"
	"fmt"
	"net/url"
)

var (
	// ErrNetwork indicates the archive could not be retrieved from the remote host.
	ErrNetwork = errors.New("network failure")

	// ErrTooLarge indicates the response body exceeded the configured size cap.
	ErrTooLarge = errors.New("response too large")
)

// NetworkError describes a failed download. URL is redacted; StatusCode is
// zero when no HTTP response was received.
type NetworkError struct {
	URL        string
	StatusCode int
	Cause      error
}

// Error implements the error interface.
func (e *NetworkError) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("downloading %s: unexpected status %d", e.URL, e.StatusCode)
	case e.Cause != nil:
		return fmt.Sprintf("downloading %s: %v", e.URL, e.Cause)
	default:
		return fmt.Sprintf("downloading %s: %v", e.URL, ErrNetwork)
	}
}

// Unwrap returns ErrNetwork and the underlying cause so both errors.Is
// checks succeed.
func (e *NetworkError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrNetwork}
	}
	return []error{ErrNetwork, e.Cause}
}

// redactURL strips query parameters, fragments and credentials from a URL
// for safe inclusion in error messages.
func redactURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "<invalid-url>"
	}
	u.User = nil
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}
