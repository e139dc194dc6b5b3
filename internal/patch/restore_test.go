// SPDX-License-Identifier: MPL-2.0

package patch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/gohl/hlsdk/internal/testutil"
)

func TestRestore_RoundTrip(t *testing.T) {
	t.Parallel()

	dir := newSDKInclude(t)
	pristine := testutil.ReadTree(t, dir)
	engine := NewEngine()

	if err := engine.Apply(context.Background(), dir); err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	res, err := engine.Restore(context.Background(), dir)
	if err != nil {
		t.Fatalf("Restore() error: %v", err)
	}

	if len(res.Restored) != 2 || len(res.Skipped) != 0 {
		t.Errorf("Restore() result = %+v, want 2 restored", res)
	}
	if diff := cmp.Diff(pristine, testutil.ReadTree(t, dir)); diff != "" {
		t.Errorf("restored tree differs from the pristine one (-want +got):\n%s", diff)
	}
}

func TestRestore_Idempotent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		setup func(t *testing.T) string
	}{
		{
			name:  "never patched",
			setup: newSDKInclude,
		},
		{
			name: "already restored",
			setup: func(t *testing.T) string {
				t.Helper()
				dir := newSDKInclude(t)
				engine := NewEngine()
				if err := engine.Apply(context.Background(), dir); err != nil {
					t.Fatal(err)
				}
				if _, err := engine.Restore(context.Background(), dir); err != nil {
					t.Fatal(err)
				}
				return dir
			},
		},
		{
			name: "base dir missing",
			setup: func(t *testing.T) string {
				t.Helper()
				return filepath.Join(t.TempDir(), "absent")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			dir := tt.setup(t)
			before := testutil.SnapshotTree(t, dir)

			res, err := NewEngine().Restore(context.Background(), dir)
			if err != nil {
				t.Fatalf("Restore() error: %v", err)
			}
			if len(res.Restored) != 0 {
				t.Errorf("expected nothing restored, got %v", res.Restored)
			}
			if len(res.Skipped) != 2 {
				t.Errorf("expected both entries skipped, got %v", res.Skipped)
			}
			if diff := cmp.Diff(before, testutil.SnapshotTree(t, dir)); diff != "" {
				t.Errorf("Restore() touched the tree (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRestore_PartialPatch(t *testing.T) {
	t.Parallel()

	// Only one backup exists, as after an interrupted Apply.
	dir := newSDKInclude(t)
	testutil.WriteTree(t, dir, map[string]string{
		"htmlayout_dom.h.original": testutil.DomHeader,
		"htmlayout_dom.h":          "half patched",
	})

	res, err := NewEngine().Restore(context.Background(), dir)
	if err != nil {
		t.Fatalf("Restore() error: %v", err)
	}
	if diff := cmp.Diff([]string{filepath.Join(dir, "htmlayout_dom.h")}, res.Restored); diff != "" {
		t.Errorf("restored (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(testutil.SDKHeaders(), testutil.ReadTree(t, dir)); diff != "" {
		t.Errorf("tree (-want +got):\n%s", diff)
	}
}

func TestRestore_ContinuesAfterFailure(t *testing.T) {
	t.Parallel()

	dir := newSDKInclude(t)
	engine := NewEngine()
	if err := engine.Apply(context.Background(), dir); err != nil {
		t.Fatal(err)
	}

	// Replace the first header with a non-empty directory the backup
	// cannot be renamed over.
	live := filepath.Join(dir, "htmlayout_dom.h")
	if err := os.Remove(live); err != nil {
		t.Fatal(err)
	}
	testutil.WriteTree(t, live, map[string]string{"blocker": "x"})

	res, err := engine.Restore(context.Background(), dir)
	if err == nil {
		t.Fatal("expected an error for the blocked entry")
	}

	var entryErr *EntryError
	if !errors.As(err, &entryErr) || entryErr.Path != "htmlayout_dom.h" {
		t.Errorf("expected EntryError for htmlayout_dom.h, got %v", err)
	}

	// The second entry is still restored.
	if diff := cmp.Diff([]string{filepath.Join(dir, "htmlayout_behavior.h")}, res.Restored); diff != "" {
		t.Errorf("restored (-want +got):\n%s", diff)
	}
	tree := testutil.ReadTree(t, dir)
	if tree["htmlayout_behavior.h"] != testutil.BehaviorHeader {
		t.Errorf("htmlayout_behavior.h not restored: %q", tree["htmlayout_behavior.h"])
	}
	if _, ok := tree["htmlayout_dom.h.original"]; !ok {
		t.Error("failed entry must keep its backup")
	}
}

func TestEndToEnd_PatchThenRestore(t *testing.T) {
	t.Parallel()

	dir := newSDKInclude(t)
	snapshot := testutil.SnapshotTree(t, dir)
	engine := NewEngine()

	if err := engine.Apply(context.Background(), dir); err != nil {
		t.Fatalf("Apply() error: %v", err)
	}

	statuses, err := engine.Status(dir)
	if err != nil {
		t.Fatalf("Status() error: %v", err)
	}
	for _, st := range statuses {
		if st.State != StatePatched {
			t.Errorf("%s: state = %s, want %s", st.Path, st.State, StatePatched)
		}
	}

	tree := testutil.ReadTree(t, dir)
	if tree["htmlayout_dom.h.original"] == "" || tree["htmlayout_behavior.h.original"] == "" {
		t.Fatalf("expected backups after Apply, tree has %v", keys(tree))
	}

	if _, err := engine.Restore(context.Background(), dir); err != nil {
		t.Fatalf("Restore() error: %v", err)
	}
	if diff := cmp.Diff(snapshot, testutil.SnapshotTree(t, dir)); diff != "" {
		t.Errorf("tree after round trip (-want +got):\n%s", diff)
	}
}

func keys(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
