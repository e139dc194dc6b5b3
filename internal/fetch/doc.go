// SPDX-License-Identifier: MPL-2.0

// Package fetch downloads the SDK archive over HTTP.
//
// The response body is streamed into a temporary file next to the
// destination and only renamed over it once the transfer (and the optional
// SHA-256 check) succeeded, so a failed download never destroys a previously
// fetched archive. Remote failures are reported as *NetworkError wrapping
// ErrNetwork; local write failures as *fsio.IOError.
package fetch
