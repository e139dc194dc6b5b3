// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable error handling with user-friendly messages.
//
// ActionableError carries the failed operation, the resource involved and
// suggestions for the user. The Issue catalog holds Markdown remediation
// guides, rendered with glamour, for the failures the SDK tools report:
// missing install, already-applied patch, failed download and so on.
package issue
