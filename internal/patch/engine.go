// SPDX-License-Identifier: MPL-2.0

package patch

import (
	"context"
	"os"
	"path/filepath"

	"github.com/gohl/hlsdk/internal/fsio"
)

// DefaultBackupSuffix is appended to a header's path to form its backup path.
const DefaultBackupSuffix = ".original"

type (
	// Engine applies and restores the registry's patches under a base directory.
	Engine struct {
		registry     Registry
		backupSuffix string
	}

	// Option configures an Engine during construction.
	Option func(*Engine)

	// target is one registry entry resolved against a base directory.
	target struct {
		entry    Entry
		live     string
		backup   string
		original string
		patched  string
	}
)

// WithRegistry replaces the default registry.
func WithRegistry(r Registry) Option {
	return func(e *Engine) {
		e.registry = r
	}
}

// WithBackupSuffix overrides DefaultBackupSuffix. An empty suffix is ignored,
// since the backup would then be the header itself.
func WithBackupSuffix(suffix string) Option {
	return func(e *Engine) {
		if suffix != "" {
			e.backupSuffix = suffix
		}
	}
}

// NewEngine creates an Engine with DefaultRegistry and DefaultBackupSuffix
// unless overridden by opts.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		registry:     DefaultRegistry(),
		backupSuffix: DefaultBackupSuffix,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Registry returns the registry the engine works on.
func (e *Engine) Registry() Registry { return e.registry }

// BackupPath returns the backup path for a header path.
func (e *Engine) BackupPath(live string) string { return live + e.backupSuffix }

// Apply backs up and patches every header in the registry under baseDir.
//
// All preconditions are checked for every entry before anything is written:
// baseDir must exist, every header must exist, no backup may exist, and
// every rule must match its expected number of times. Only then is each
// header copied to its backup and rewritten, in registry order. A failure
// during that second phase is returned as an *EntryError wrapping an
// *fsio.IOError and may leave the set partially patched; Restore undoes it.
// Headers are written with the text computed during the checks, so a rule
// can no longer fail once the first backup exists.
func (e *Engine) Apply(ctx context.Context, baseDir string) error {
	targets, err := e.plan(baseDir, true)
	if err != nil {
		return err
	}
	afterPlan(targets)

	for _, t := range targets {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := fsio.CopyFile(t.live, t.backup, fsio.PhaseBackup); err != nil {
			return &EntryError{Path: t.entry.Path, Err: err}
		}

		patched := []byte(t.patched)
		err := fsio.RewriteFile(t.live, func([]byte) ([]byte, error) { return patched, nil })
		if err != nil {
			return &EntryError{Path: t.entry.Path, Err: err}
		}
	}

	return nil
}

// afterPlan is called between the checks and the first write.
var afterPlan = func([]target) {}

// plan resolves every entry under baseDir and runs the precondition checks.
// With requireUnpatched, existing backups fail the plan with an
// *AlreadyAppliedError. The returned targets carry the original and
// patched text computed in memory.
func (e *Engine) plan(baseDir string, requireUnpatched bool) ([]target, error) {
	if err := e.registry.Validate(); err != nil {
		return nil, err
	}

	if !fsio.IsDir(baseDir) {
		return nil, &MissingPrerequisiteError{Dir: baseDir}
	}

	entries := e.registry.Entries()
	targets := make([]target, 0, len(entries))
	var missing []string
	for _, entry := range entries {
		live := filepath.Join(baseDir, entry.Path)
		if !fsio.Exists(live) {
			missing = append(missing, live)
			continue
		}
		targets = append(targets, target{entry: entry, live: live, backup: e.BackupPath(live)})
	}
	if len(missing) > 0 {
		return nil, &MissingTargetError{Paths: missing}
	}

	if requireUnpatched {
		var applied []string
		for _, t := range targets {
			if fsio.Exists(t.backup) {
				applied = append(applied, t.backup)
			}
		}
		if len(applied) > 0 {
			return nil, &AlreadyAppliedError{Backups: applied}
		}
	}

	for i := range targets {
		t := &targets[i]
		data, err := os.ReadFile(t.live)
		if err != nil {
			return nil, &fsio.IOError{Path: t.live, Phase: fsio.PhaseRead, Cause: err}
		}
		t.original = string(data)
		patched, err := t.entry.transform(t.original)
		if err != nil {
			return nil, err
		}
		t.patched = patched
	}

	return targets, nil
}
