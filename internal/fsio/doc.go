// SPDX-License-Identifier: MPL-2.0

// Package fsio provides the scoped file operations shared by the fetcher,
// the extractor and the patch engine: byte-for-byte copies, in-place
// rewrites and moves. Every failure is reported as an *IOError carrying the
// path and the phase that failed, so callers can tell a half-written backup
// from a half-written header.
package fsio
