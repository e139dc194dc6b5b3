// SPDX-License-Identifier: MPL-2.0

package fsio

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o640); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	return string(data)
}

func TestCopyFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "a.h")
	dst := filepath.Join(dir, "a.h.original")
	writeFile(t, src, "struct x;\n")

	if err := CopyFile(src, dst, PhaseBackup); err != nil {
		t.Fatalf("CopyFile() error: %v", err)
	}
	if got := readFile(t, dst); got != "struct x;\n" {
		t.Errorf("copy content = %q, want %q", got, "struct x;\n")
	}

	srcInfo, err := os.Stat(src)
	if err != nil {
		t.Fatal(err)
	}
	dstInfo, err := os.Stat(dst)
	if err != nil {
		t.Fatal(err)
	}
	if srcInfo.Mode().Perm() != dstInfo.Mode().Perm() {
		t.Errorf("copy mode = %v, want %v", dstInfo.Mode().Perm(), srcInfo.Mode().Perm())
	}
}

func TestCopyFile_RefusesExistingDestination(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "a.h")
	dst := filepath.Join(dir, "a.h.original")
	writeFile(t, src, "new")
	writeFile(t, dst, "old")

	err := CopyFile(src, dst, PhaseBackup)
	if err == nil {
		t.Fatal("expected error when destination exists")
	}

	var ioErr *IOError
	if !errors.As(err, &ioErr) {
		t.Fatalf("expected *IOError, got %T", err)
	}
	if ioErr.Phase != PhaseBackup {
		t.Errorf("phase = %q, want %q", ioErr.Phase, PhaseBackup)
	}
	if !errors.Is(err, ErrIOFailure) {
		t.Error("expected errors.Is(err, ErrIOFailure)")
	}
	if !errors.Is(err, fs.ErrExist) {
		t.Error("expected the cause to be preserved (fs.ErrExist)")
	}
	if got := readFile(t, dst); got != "old" {
		t.Errorf("existing destination was modified: %q", got)
	}
}

func TestCopyFile_MissingSource(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	err := CopyFile(filepath.Join(dir, "nope"), filepath.Join(dir, "dst"), PhaseBackup)
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected fs.ErrNotExist, got %v", err)
	}
	if Exists(filepath.Join(dir, "dst")) {
		t.Error("destination should not have been created")
	}
}

func TestRewriteFile(t *testing.T) {
	t.Parallel()

	t.Run("shorter output truncates", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "f")
		writeFile(t, path, "0123456789")

		err := RewriteFile(path, func(b []byte) ([]byte, error) {
			return b[:3], nil
		})
		if err != nil {
			t.Fatalf("RewriteFile() error: %v", err)
		}
		if got := readFile(t, path); got != "012" {
			t.Errorf("content = %q, want %q", got, "012")
		}
	})

	t.Run("longer output", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "f")
		writeFile(t, path, "ab")

		err := RewriteFile(path, func(b []byte) ([]byte, error) {
			return bytes.Repeat(b, 3), nil
		})
		if err != nil {
			t.Fatalf("RewriteFile() error: %v", err)
		}
		if got := readFile(t, path); got != "ababab" {
			t.Errorf("content = %q, want %q", got, "ababab")
		}
	})

	t.Run("transform error leaves file untouched", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "f")
		writeFile(t, path, "keep")
		boom := errors.New("boom")

		err := RewriteFile(path, func([]byte) ([]byte, error) { return nil, boom })
		if !errors.Is(err, boom) {
			t.Fatalf("expected transform error, got %v", err)
		}
		if got := readFile(t, path); got != "keep" {
			t.Errorf("content = %q, want %q", got, "keep")
		}
	})

	t.Run("missing file reports read phase", func(t *testing.T) {
		t.Parallel()
		err := RewriteFile(filepath.Join(t.TempDir(), "nope"), func(b []byte) ([]byte, error) { return b, nil })
		var ioErr *IOError
		if !errors.As(err, &ioErr) {
			t.Fatalf("expected *IOError, got %v", err)
		}
		if ioErr.Phase != PhaseRead {
			t.Errorf("phase = %q, want %q", ioErr.Phase, PhaseRead)
		}
	})
}

func TestMoveFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "a.h.original")
	dst := filepath.Join(dir, "a.h")
	writeFile(t, src, "original")
	writeFile(t, dst, "patched")

	if err := MoveFile(src, dst); err != nil {
		t.Fatalf("MoveFile() error: %v", err)
	}
	if got := readFile(t, dst); got != "original" {
		t.Errorf("dst = %q, want %q", got, "original")
	}
	if Exists(src) {
		t.Error("src should be gone after move")
	}
}

//nolint:paralleltest // Mutates the package-level rename seam.
func TestMoveFile_CopyFallback(t *testing.T) {
	orig := rename
	rename = func(oldpath, newpath string) error {
		return &os.LinkError{Op: "rename", Old: oldpath, New: newpath, Err: syscall.EXDEV}
	}
	t.Cleanup(func() { rename = orig })

	dir := t.TempDir()
	src := filepath.Join(dir, "a.h.original")
	dst := filepath.Join(dir, "a.h")
	writeFile(t, src, "original")
	writeFile(t, dst, "patched")

	if err := MoveFile(src, dst); err != nil {
		t.Fatalf("MoveFile() error: %v", err)
	}
	if got := readFile(t, dst); got != "original" {
		t.Errorf("dst = %q, want %q", got, "original")
	}
	if Exists(src) {
		t.Error("src should be removed by the fallback")
	}
	if Exists(dst + ".tmp") {
		t.Error("fallback temp file left behind")
	}
}

//nolint:paralleltest // Mutates the package-level rename seam.
func TestMoveFile_NoFallbackForOtherErrors(t *testing.T) {
	orig := rename
	rename = func(oldpath, newpath string) error {
		return &os.LinkError{Op: "rename", Old: oldpath, New: newpath, Err: syscall.EACCES}
	}
	t.Cleanup(func() { rename = orig })

	dir := t.TempDir()
	src := filepath.Join(dir, "a.h.original")
	dst := filepath.Join(dir, "a.h")
	writeFile(t, src, "original")
	writeFile(t, dst, "patched")

	err := MoveFile(src, dst)
	var ioErr *IOError
	if !errors.As(err, &ioErr) || ioErr.Phase != PhaseRestore {
		t.Fatalf("expected *IOError in phase %q, got %v", PhaseRestore, err)
	}
	if !errors.Is(err, fs.ErrPermission) {
		t.Errorf("expected the rename cause to be preserved, got %v", err)
	}
	if got := readFile(t, dst); got != "patched" {
		t.Errorf("dst = %q, want it untouched", got)
	}
	if !Exists(src) {
		t.Error("src must stay in place")
	}
	if Exists(dst + ".tmp") {
		t.Error("no copy should have been attempted")
	}
}

func TestWriteFileAtomic(t *testing.T) {
	t.Parallel()

	t.Run("replaces prior file", func(t *testing.T) {
		t.Parallel()
		dest := filepath.Join(t.TempDir(), "sdk.zip")
		writeFile(t, dest, "stale")

		n, err := WriteFileAtomic(dest, strings.NewReader("fresh"), nil)
		if err != nil {
			t.Fatalf("WriteFileAtomic() error: %v", err)
		}
		if n != 5 {
			t.Errorf("n = %d, want 5", n)
		}
		if got := readFile(t, dest); got != "fresh" {
			t.Errorf("dest = %q, want %q", got, "fresh")
		}
	})

	t.Run("verify failure keeps prior file", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		dest := filepath.Join(dir, "sdk.zip")
		writeFile(t, dest, "stale")
		bad := errors.New("bad checksum")

		_, err := WriteFileAtomic(dest, strings.NewReader("fresh"), func(string) error { return bad })
		if !errors.Is(err, bad) {
			t.Fatalf("expected verify error, got %v", err)
		}
		if got := readFile(t, dest); got != "stale" {
			t.Errorf("dest = %q, want %q", got, "stale")
		}

		entries, err := os.ReadDir(dir)
		if err != nil {
			t.Fatal(err)
		}
		if len(entries) != 1 {
			t.Errorf("expected temp file cleanup, found %d entries", len(entries))
		}
	})

	t.Run("reader errors pass through unclassified", func(t *testing.T) {
		t.Parallel()
		dest := filepath.Join(t.TempDir(), "sdk.zip")
		readErr := errors.New("connection reset")

		_, err := WriteFileAtomic(dest, &failingReader{err: readErr}, nil)
		if !errors.Is(err, readErr) {
			t.Fatalf("expected reader error, got %v", err)
		}
		if errors.Is(err, ErrIOFailure) {
			t.Error("reader errors must not be classified as local I/O failures")
		}
		if Exists(dest) {
			t.Error("dest should not exist")
		}
	})
}

type failingReader struct{ err error }

func (f *failingReader) Read([]byte) (int, error) { return 0, f.err }
