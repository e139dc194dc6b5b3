// SPDX-License-Identifier: MPL-2.0

package patch

import (
	"context"
	"errors"
	"path/filepath"

	"github.com/gohl/hlsdk/internal/fsio"
)

// RestoreResult reports which headers Restore put back and which it skipped
// for lack of a backup.
type RestoreResult struct {
	Restored []string
	Skipped  []string
}

// Restore moves every existing backup under baseDir back over its header,
// discarding the patched content and clearing the backup marker. Entries
// without a backup are skipped, so Restore is safe on a never-patched or
// already-restored tree (a missing baseDir included). Each entry is
// restored independently: failures are collected and returned together
// after every entry was attempted.
func (e *Engine) Restore(ctx context.Context, baseDir string) (RestoreResult, error) {
	var (
		res  RestoreResult
		errs []error
	)

	for _, entry := range e.registry.Entries() {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		live := filepath.Join(baseDir, entry.Path)
		backup := e.BackupPath(live)
		if !fsio.Exists(backup) {
			res.Skipped = append(res.Skipped, live)
			continue
		}

		if err := fsio.MoveFile(backup, live); err != nil {
			errs = append(errs, &EntryError{Path: entry.Path, Err: err})
			continue
		}
		res.Restored = append(res.Restored, live)
	}

	return res, errors.Join(errs...)
}
