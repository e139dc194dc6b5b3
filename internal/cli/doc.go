// SPDX-License-Identifier: MPL-2.0

// Package cli builds the get-htmlayout and patch-htmlayout command trees.
//
// It is the only package that reads configuration. Commands resolve a
// config.Config (defaults, optional CUE file, then flags), construct the core
// collaborators from it and map their errors to exit codes and rendered
// issue text.
package cli
