// SPDX-License-Identifier: MPL-2.0

// Package provision installs the HTMLayout SDK into a working tree: it
// clears any previous install, downloads the archive, unpacks it and
// patches the headers. Each step is a Phase; the first failing phase
// aborts the run and is reported as a *PhaseError.
package provision
