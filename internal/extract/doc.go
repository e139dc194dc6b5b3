// SPDX-License-Identifier: MPL-2.0

// Package extract unpacks the SDK zip archive into a destination directory.
//
// The whole directory structure is created before any file is written, so
// extraction does not depend on the order of entries in the archive.
// Entries that would land outside the destination are rejected with
// ErrUnsafePath and oversized archives with ErrLimitExceeded.
package extract
