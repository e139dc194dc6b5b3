// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"archive/zip"
	"crypto/sha256"
	"encoding/hex"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

const (
	// DomHeader is a trimmed htmlayout_dom.h carrying the forward
	// declaration gcc rejects.
	DomHeader = `#ifndef __htmlayout_dom_h__
#define __htmlayout_dom_h__

struct htmlayout_dom_element;
typedef htmlayout_dom_element* HELEMENT;

#endif
`

	// BehaviorHeader is a trimmed htmlayout_behavior.h.
	BehaviorHeader = `#ifndef __htmlayout_behavior_h__
#define __htmlayout_behavior_h__

struct EXCHANGE_PARAMS;
typedef BOOL CALLBACK ElementEventProc(LPVOID tag, HELEMENT he, UINT evtg, LPVOID prms);

#endif
`
)

// ZipEntry is one member of a zip fixture. Names ending in "/" are
// written as directory entries.
type ZipEntry struct {
	Name string
	Body string
}

// SDKHeaders returns the two headers the default registry patches, keyed by
// their path relative to the include directory.
func SDKHeaders() map[string]string {
	return map[string]string{
		"htmlayout_dom.h":      DomHeader,
		"htmlayout_behavior.h": BehaviorHeader,
	}
}

// MustMkdirAll creates a directory along with any necessary parents.
// The test fails immediately if the operation fails.
func MustMkdirAll(t testing.TB, path string, perm os.FileMode) {
	t.Helper()
	if err := os.MkdirAll(path, perm); err != nil {
		t.Fatalf("failed to create directory %s: %v", path, err)
	}
}

// WriteTree writes files (relative slash paths → contents) under root,
// creating parent directories as needed.
func WriteTree(t testing.TB, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		MustMkdirAll(t, filepath.Dir(path), 0o755)
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("failed to write %s: %v", path, err)
		}
	}
}

// ReadTree returns every regular file under root keyed by its slash path
// relative to root. A missing root yields an empty map.
func ReadTree(t testing.TB, root string) map[string]string {
	t.Helper()
	out := make(map[string]string)
	if _, err := os.Stat(root); os.IsNotExist(err) {
		return out
	}
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		out[filepath.ToSlash(rel)] = string(data)
		return nil
	})
	if err != nil {
		t.Fatalf("failed to read tree %s: %v", root, err)
	}
	return out
}

// SnapshotTree returns the SHA-256 of every regular file under root, keyed
// like ReadTree. Comparing two snapshots detects any modification, creation
// or removal.
func SnapshotTree(t testing.TB, root string) map[string]string {
	t.Helper()
	files := ReadTree(t, root)
	out := make(map[string]string, len(files))
	for rel, content := range files {
		sum := sha256.Sum256([]byte(content))
		out[rel] = hex.EncodeToString(sum[:])
	}
	return out
}

// MustWriteZip writes a zip archive at path containing entries in the given
// order.
func MustWriteZip(t testing.TB, path string, entries []ZipEntry) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create zip %s: %v", path, err)
	}
	zw := zip.NewWriter(f)
	for _, e := range entries {
		w, err := zw.Create(e.Name)
		if err != nil {
			t.Fatalf("failed to add %s: %v", e.Name, err)
		}
		if e.Body == "" {
			continue
		}
		if _, err := w.Write([]byte(e.Body)); err != nil {
			t.Fatalf("failed to write %s: %v", e.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("failed to finalize zip: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("failed to close zip: %v", err)
	}
}

// SDKZip returns zip entries laying out the SDK the way the upstream
// archive does: an include directory holding the headers.
func SDKZip() []ZipEntry {
	return []ZipEntry{
		{Name: "include/"},
		{Name: "include/htmlayout_dom.h", Body: DomHeader},
		{Name: "include/htmlayout_behavior.h", Body: BehaviorHeader},
		{Name: "lib/"},
		{Name: "lib/HTMLayout.lib", Body: "not really a library"},
	}
}
