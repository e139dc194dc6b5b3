// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helper functions for tests that build and
// inspect SDK trees, reducing boilerplate and ensuring consistent error
// handling.
//
// Common helpers include tree construction (WriteTree, MustMkdirAll), tree
// inspection (ReadTree, SnapshotTree), zip fixtures (MustWriteZip) and
// sample HTMLayout headers (DomHeader, BehaviorHeader).
package testutil
