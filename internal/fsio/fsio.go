// SPDX-License-Identifier: MPL-2.0

package fsio

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"syscall"
)

//nolint:gochecknoglobals // Test seam for os.Rename().
var rename = os.Rename

// Exists reports whether path exists. Errors other than "not exist" are
// treated as existence so callers never overwrite something they could not
// inspect.
func Exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil || !errors.Is(err, fs.ErrNotExist)
}

// IsDir reports whether path exists and is a directory.
func IsDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// CopyFile copies src to dst byte for byte, preserving the file mode.
// dst must not exist: it is created exclusively so an existing file is
// never clobbered. On failure a partially written dst is removed.
func CopyFile(src, dst string, phase Phase) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return ioErr(src, phase, err)
	}
	defer func() {
		// Read-only file handle; close errors are exotic.
		_ = in.Close()
	}()

	info, err := in.Stat()
	if err != nil {
		return ioErr(src, phase, err)
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, info.Mode().Perm())
	if err != nil {
		return ioErr(dst, phase, err)
	}
	defer func() {
		if closeErr := out.Close(); closeErr != nil && err == nil {
			err = ioErr(dst, phase, closeErr)
		}
		if err != nil {
			_ = os.Remove(dst) // Best-effort removal of a partial copy.
		}
	}()

	if _, err = io.Copy(out, in); err != nil {
		return ioErr(dst, phase, err)
	}
	if err = out.Sync(); err != nil {
		return ioErr(dst, phase, err)
	}
	return nil
}

// RewriteFile reads path, passes its contents through transform and writes
// the result back over the same file through a single handle, truncating
// whatever was there. The file mode is left untouched.
func RewriteFile(path string, transform func([]byte) ([]byte, error)) (err error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return ioErr(path, PhaseRead, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = ioErr(path, PhaseWrite, closeErr)
		}
	}()

	data, err := io.ReadAll(f)
	if err != nil {
		return ioErr(path, PhaseRead, err)
	}

	out, err := transform(data)
	if err != nil {
		return err
	}

	if err = f.Truncate(0); err != nil {
		return ioErr(path, PhaseWrite, err)
	}
	if _, err = f.Seek(0, io.SeekStart); err != nil {
		return ioErr(path, PhaseWrite, err)
	}
	if _, err = f.Write(out); err != nil {
		return ioErr(path, PhaseWrite, err)
	}
	if err = f.Sync(); err != nil {
		return ioErr(path, PhaseWrite, err)
	}
	return nil
}

// MoveFile moves src over dst, replacing dst. It tries an atomic rename
// first and falls back to copy + remove only when src and dst are on
// different devices. Any other rename failure is returned as is.
func MoveFile(src, dst string) error {
	renameErr := rename(src, dst)
	if renameErr == nil {
		return nil
	}
	if !errors.Is(renameErr, syscall.EXDEV) {
		return ioErr(dst, PhaseRestore, renameErr)
	}

	tmp := dst + ".tmp"
	_ = os.Remove(tmp) // Stale leftovers from an earlier interrupted move.
	if err := CopyFile(src, tmp, PhaseRestore); err != nil {
		return fmt.Errorf("rename failed (%v), copy fallback failed: %w", renameErr, err)
	}
	if err := os.Remove(dst); err != nil && !errors.Is(err, fs.ErrNotExist) {
		_ = os.Remove(tmp)
		return ioErr(dst, PhaseRestore, err)
	}
	if err := os.Rename(tmp, dst); err != nil {
		_ = os.Remove(tmp)
		return ioErr(dst, PhaseRestore, err)
	}
	if err := os.Remove(src); err != nil {
		return ioErr(src, PhaseRestore, err)
	}
	return nil
}

// WriteFileAtomic streams r into a temp file next to dest and renames it
// over dest once the copy (and the optional verify hook) succeeded. Any
// prior file at dest is replaced; on failure dest is left as it was.
func WriteFileAtomic(dest string, r io.Reader, verify func(tmpPath string) error) (n int64, err error) {
	dir := filepath.Dir(dest)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(dest)+".*")
	if err != nil {
		return 0, ioErr(dest, PhaseCreate, err)
	}
	tmpPath := tmp.Name()

	renamed := false
	defer func() {
		if !renamed {
			_ = os.Remove(tmpPath)
		}
	}()

	w := &errWriter{w: tmp}
	n, copyErr := io.Copy(w, r)
	closeErr := tmp.Close()
	if w.err != nil {
		return n, ioErr(tmpPath, PhaseWrite, w.err)
	}
	if copyErr != nil {
		// Errors from r are the caller's to classify.
		return n, copyErr
	}
	if closeErr != nil {
		return n, ioErr(tmpPath, PhaseWrite, closeErr)
	}

	if verify != nil {
		if err := verify(tmpPath); err != nil {
			return n, err
		}
	}

	if err := os.Rename(tmpPath, dest); err != nil {
		return n, ioErr(dest, PhaseWrite, err)
	}
	renamed = true
	return n, nil
}

// errWriter remembers the first write error so WriteFileAtomic can tell
// local write failures from failures of the source reader.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Write(p []byte) (int, error) {
	n, err := e.w.Write(p)
	if err != nil && e.err == nil {
		e.err = err
	}
	return n, err
}
