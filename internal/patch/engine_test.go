// SPDX-License-Identifier: MPL-2.0

package patch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/gohl/hlsdk/internal/fsio"
	"github.com/gohl/hlsdk/internal/testutil"
)

const (
	domTypedef      = "typedef struct htmlayout_dom_element {} htmlayout_dom_element;"
	behaviorTypedef = "typedef struct EXCHANGE_PARAMS EXCHANGE_PARAMS;"
)

// newSDKInclude lays out a fresh include directory with both headers and
// returns its path.
func newSDKInclude(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "include")
	testutil.WriteTree(t, dir, testutil.SDKHeaders())
	return dir
}

func TestApply_PatchesAndBacksUp(t *testing.T) {
	t.Parallel()

	dir := newSDKInclude(t)
	before := testutil.ReadTree(t, dir)

	if err := NewEngine().Apply(context.Background(), dir); err != nil {
		t.Fatalf("Apply() error: %v", err)
	}

	after := testutil.ReadTree(t, dir)
	for name, original := range before {
		if got := after[name+DefaultBackupSuffix]; got != original {
			t.Errorf("backup of %s differs from the original:\n%s", name, cmp.Diff(original, got))
		}
	}

	if !strings.Contains(after["htmlayout_dom.h"], domTypedef) {
		t.Errorf("htmlayout_dom.h missing typedef:\n%s", after["htmlayout_dom.h"])
	}
	if !strings.Contains(after["htmlayout_behavior.h"], behaviorTypedef) {
		t.Errorf("htmlayout_behavior.h missing typedef:\n%s", after["htmlayout_behavior.h"])
	}
}

func TestApply_RuleReplacesExactlyOnce(t *testing.T) {
	t.Parallel()

	dir := newSDKInclude(t)
	if err := NewEngine().Apply(context.Background(), dir); err != nil {
		t.Fatalf("Apply() error: %v", err)
	}

	got := testutil.ReadTree(t, dir)["htmlayout_dom.h"]
	want := strings.Replace(testutil.DomHeader, "struct htmlayout_dom_element;", domTypedef, 1)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("patched header mismatch (-want +got):\n%s", diff)
	}
	if n := strings.Count(got, domTypedef); n != 1 {
		t.Errorf("typedef appears %d times, want 1", n)
	}
}

func TestApply_SecondRunFailsWithAlreadyApplied(t *testing.T) {
	t.Parallel()

	dir := newSDKInclude(t)
	engine := NewEngine()
	if err := engine.Apply(context.Background(), dir); err != nil {
		t.Fatalf("first Apply() error: %v", err)
	}
	afterFirst := testutil.SnapshotTree(t, dir)

	err := engine.Apply(context.Background(), dir)
	if !errors.Is(err, ErrAlreadyApplied) {
		t.Fatalf("expected ErrAlreadyApplied, got %v", err)
	}

	var applied *AlreadyAppliedError
	if !errors.As(err, &applied) {
		t.Fatalf("expected *AlreadyAppliedError, got %T", err)
	}
	if len(applied.Backups) != 2 {
		t.Errorf("expected both backups to be named, got %v", applied.Backups)
	}

	if diff := cmp.Diff(afterFirst, testutil.SnapshotTree(t, dir)); diff != "" {
		t.Errorf("second Apply() mutated the tree (-want +got):\n%s", diff)
	}
}

func TestApply_MissingTargetTouchesNothing(t *testing.T) {
	t.Parallel()

	dir := newSDKInclude(t)
	if err := os.Remove(filepath.Join(dir, "htmlayout_behavior.h")); err != nil {
		t.Fatal(err)
	}
	before := testutil.SnapshotTree(t, dir)

	err := NewEngine().Apply(context.Background(), dir)
	if !errors.Is(err, ErrMissingTarget) {
		t.Fatalf("expected ErrMissingTarget, got %v", err)
	}

	var missing *MissingTargetError
	if !errors.As(err, &missing) {
		t.Fatalf("expected *MissingTargetError, got %T", err)
	}
	want := []string{filepath.Join(dir, "htmlayout_behavior.h")}
	if diff := cmp.Diff(want, missing.Paths); diff != "" {
		t.Errorf("missing paths (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff(before, testutil.SnapshotTree(t, dir)); diff != "" {
		t.Errorf("tree changed despite failed precondition (-want +got):\n%s", diff)
	}
}

func TestApply_PartialBackupBlocksEverything(t *testing.T) {
	t.Parallel()

	// Only the second entry has a leftover backup: the first entry must not
	// be backed up or patched either.
	dir := newSDKInclude(t)
	testutil.WriteTree(t, dir, map[string]string{"htmlayout_behavior.h.original": "stale"})
	before := testutil.SnapshotTree(t, dir)

	err := NewEngine().Apply(context.Background(), dir)
	if !errors.Is(err, ErrAlreadyApplied) {
		t.Fatalf("expected ErrAlreadyApplied, got %v", err)
	}
	if !strings.Contains(err.Error(), "htmlayout_behavior.h.original") {
		t.Errorf("error should name the offending backup: %v", err)
	}
	if diff := cmp.Diff(before, testutil.SnapshotTree(t, dir)); diff != "" {
		t.Errorf("tree changed (-want +got):\n%s", diff)
	}
}

func TestApply_MissingBaseDir(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "htmlayout", "include")
	err := NewEngine().Apply(context.Background(), dir)
	if !errors.Is(err, ErrMissingPrerequisite) {
		t.Fatalf("expected ErrMissingPrerequisite, got %v", err)
	}

	var pre *MissingPrerequisiteError
	if !errors.As(err, &pre) || pre.Dir != dir {
		t.Errorf("expected MissingPrerequisiteError for %s, got %v", dir, err)
	}
}

func TestApply_RuleMismatchTouchesNothing(t *testing.T) {
	t.Parallel()

	dir := newSDKInclude(t)
	// The dom header lost its forward declaration (e.g. a newer SDK).
	testutil.WriteTree(t, dir, map[string]string{"htmlayout_dom.h": "#pragma once\n"})
	before := testutil.SnapshotTree(t, dir)

	err := NewEngine().Apply(context.Background(), dir)
	if !errors.Is(err, ErrRuleMismatch) {
		t.Fatalf("expected ErrRuleMismatch, got %v", err)
	}

	var mismatch *RuleMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("expected *RuleMismatchError, got %T", err)
	}
	if mismatch.Path != "htmlayout_dom.h" || mismatch.Want != 1 || mismatch.Got != 0 {
		t.Errorf("unexpected mismatch details: %+v", mismatch)
	}

	if diff := cmp.Diff(before, testutil.SnapshotTree(t, dir)); diff != "" {
		t.Errorf("tree changed (-want +got):\n%s", diff)
	}
}

func TestApply_WriteFailureReportsEntryAndPhase(t *testing.T) {
	t.Parallel()

	if os.Geteuid() == 0 {
		t.Skip("permission checks do not apply to root")
	}

	dir := newSDKInclude(t)
	// A read-only header can be read and backed up but not rewritten.
	live := filepath.Join(dir, "htmlayout_behavior.h")
	if err := os.Chmod(live, 0o444); err != nil {
		t.Fatal(err)
	}

	err := NewEngine().Apply(context.Background(), dir)
	if !errors.Is(err, fsio.ErrIOFailure) {
		t.Fatalf("expected fsio.ErrIOFailure, got %v", err)
	}

	var entryErr *EntryError
	if !errors.As(err, &entryErr) || entryErr.Path != "htmlayout_behavior.h" {
		t.Fatalf("expected EntryError for htmlayout_behavior.h, got %v", err)
	}
	var ioErr *fsio.IOError
	if !errors.As(err, &ioErr) {
		t.Fatalf("expected *fsio.IOError in chain, got %v", err)
	}
	if ioErr.Phase != fsio.PhaseRead {
		// Opening read-write fails before any byte is read.
		t.Errorf("phase = %q, want %q", ioErr.Phase, fsio.PhaseRead)
	}

	// The first entry was already patched: this is the documented partial state.
	tree := testutil.ReadTree(t, dir)
	if _, ok := tree["htmlayout_dom.h.original"]; !ok {
		t.Error("expected the first entry to be backed up before the failure")
	}
}

func TestApply_HonorsCanceledContext(t *testing.T) {
	t.Parallel()

	dir := newSDKInclude(t)
	before := testutil.SnapshotTree(t, dir)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewEngine().Apply(ctx, dir)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if diff := cmp.Diff(before, testutil.SnapshotTree(t, dir)); diff != "" {
		t.Errorf("tree changed (-want +got):\n%s", diff)
	}
}

func TestApply_CustomRegistryAndSuffix(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	testutil.WriteTree(t, dir, map[string]string{"sub/a.h": "int a; int a; int a;\n"})

	engine := NewEngine(
		WithRegistry(NewRegistry(Entry{
			Path:  filepath.Join("sub", "a.h"),
			Rules: []Rule{{Find: `int (\w+);`, Replace: "long $1;", Occurrences: 2}},
		})),
		WithBackupSuffix(".bak"),
	)
	if err := engine.Apply(context.Background(), dir); err != nil {
		t.Fatalf("Apply() error: %v", err)
	}

	tree := testutil.ReadTree(t, dir)
	if got, want := tree["sub/a.h"], "long a; long a; int a;\n"; got != want {
		t.Errorf("patched = %q, want %q", got, want)
	}
	if got := tree["sub/a.h.bak"]; got != "int a; int a; int a;\n" {
		t.Errorf("backup = %q", got)
	}
}

func TestApply_InvalidRegistry(t *testing.T) {
	t.Parallel()

	dir := newSDKInclude(t)
	engine := NewEngine(WithRegistry(NewRegistry(Entry{
		Path:  "htmlayout_dom.h",
		Rules: []Rule{{Find: "(", Occurrences: 1}},
	})))

	err := engine.Apply(context.Background(), dir)
	if !errors.Is(err, ErrInvalidRegistry) {
		t.Fatalf("expected ErrInvalidRegistry, got %v", err)
	}
}

//nolint:paralleltest // Mutates the package-level afterPlan seam.
func TestApply_WritesPlannedText(t *testing.T) {
	dir := newSDKInclude(t)
	dom := filepath.Join(dir, "htmlayout_dom.h")

	orig := afterPlan
	afterPlan = func([]target) {
		// The forward declaration disappears after the checks passed.
		if err := os.WriteFile(dom, []byte("#pragma once\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	t.Cleanup(func() { afterPlan = orig })

	if err := NewEngine().Apply(context.Background(), dir); err != nil {
		t.Fatalf("Apply() error: %v", err)
	}

	tree := testutil.ReadTree(t, dir)
	want := strings.Replace(testutil.DomHeader, "struct htmlayout_dom_element;", domTypedef, 1)
	if diff := cmp.Diff(want, tree["htmlayout_dom.h"]); diff != "" {
		t.Errorf("patched header (-want +got):\n%s", diff)
	}
	if !strings.Contains(tree["htmlayout_behavior.h"], behaviorTypedef) {
		t.Errorf("htmlayout_behavior.h not patched:\n%s", tree["htmlayout_behavior.h"])
	}
}
