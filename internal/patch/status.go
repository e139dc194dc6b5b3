// SPDX-License-Identifier: MPL-2.0

package patch

import (
	"path/filepath"

	"github.com/gohl/hlsdk/internal/fsio"
)

const (
	// StateUnpatched means the header exists and has no backup.
	StateUnpatched State = "unpatched"
	// StatePatched means a backup exists next to the header.
	StatePatched State = "patched"
	// StateMissing means neither the header nor a backup exists.
	StateMissing State = "missing"
	// StateOrphaned means a backup exists but the header itself is gone.
	StateOrphaned State = "orphaned"
)

type (
	// State is the on-disk condition of one registry entry.
	State string

	// EntryStatus is the state of one registry entry resolved under a base directory.
	EntryStatus struct {
		Path   string
		Backup string
		State  State
	}
)

// String returns the state name.
func (s State) String() string { return string(s) }

// Status reports the state of every registry entry under baseDir without
// touching the filesystem. It fails only when baseDir itself is missing.
func (e *Engine) Status(baseDir string) ([]EntryStatus, error) {
	if !fsio.IsDir(baseDir) {
		return nil, &MissingPrerequisiteError{Dir: baseDir}
	}

	entries := e.registry.Entries()
	out := make([]EntryStatus, 0, len(entries))
	for _, entry := range entries {
		live := filepath.Join(baseDir, entry.Path)
		backup := e.BackupPath(live)
		liveOK, backupOK := fsio.Exists(live), fsio.Exists(backup)

		var st State
		switch {
		case liveOK && backupOK:
			st = StatePatched
		case liveOK:
			st = StateUnpatched
		case backupOK:
			st = StateOrphaned
		default:
			st = StateMissing
		}
		out = append(out, EntryStatus{Path: live, Backup: backup, State: st})
	}
	return out, nil
}
