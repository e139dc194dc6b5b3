// SPDX-License-Identifier: MPL-2.0

// Package patch repairs the non-portable declarations in the HTMLayout SDK
// headers and puts the originals back on demand.
//
// The package is organized into four concerns:
//   - registry.go: the ordered table of target headers and their substitution rules
//   - engine.go: Apply, a check-everything-then-mutate pass that backs up and rewrites each header
//   - restore.go: Restore, which moves every backup back over its header
//   - status.go / preview.go: read-only inspection of a tree
//
// The backup file next to each header (header + ".original" by default) is
// the only persisted state. Its presence means "already patched".
package patch
