// SPDX-License-Identifier: MPL-2.0

package extract

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gohl/hlsdk/internal/fsio"
)

const (
	// DefaultPercent is the progress granularity used when Options.Percent is unset.
	DefaultPercent = 10

	// DefaultMaxFiles caps the number of entries in an archive.
	DefaultMaxFiles = 10_000

	// DefaultMaxSize caps the total uncompressed size of an archive (2 GiB).
	DefaultMaxSize int64 = 2 << 30
)

type (
	// Options configures a Zip extractor. Zero values select the defaults.
	Options struct {
		// Percent is the progress granularity in percent (1-100).
		Percent int
		// Verbose reports every entry instead of percentage milestones.
		Verbose bool
		// Progress receives progress events; nil disables reporting.
		Progress func(Event)
		// MaxFiles limits the number of archive entries.
		MaxFiles int
		// MaxSize limits the total uncompressed size in bytes.
		MaxSize int64
	}

	// Zip extracts zip archives.
	Zip struct {
		opts Options
	}
)

// New creates a Zip extractor, filling unset options with defaults.
func New(opts Options) *Zip {
	if opts.Percent <= 0 || opts.Percent > 100 {
		opts.Percent = DefaultPercent
	}
	if opts.MaxFiles <= 0 {
		opts.MaxFiles = DefaultMaxFiles
	}
	if opts.MaxSize <= 0 {
		opts.MaxSize = DefaultMaxSize
	}
	return &Zip{opts: opts}
}

// Extract unpacks archivePath into destDir, creating destDir if needed.
// Every directory (explicit entries and parents of file entries) is created
// first, in sorted order; then each file entry is written in archive order.
func (z *Zip) Extract(ctx context.Context, archivePath, destDir string) (err error) {
	absDestDir, err := filepath.Abs(destDir)
	if err != nil {
		return fmt.Errorf("failed to resolve destination directory: %w", err)
	}

	zr, err := zip.OpenReader(archivePath)
	if errors.Is(err, zip.ErrInsecurePath) {
		_ = zr.Close()
		return &UnsafePathError{Name: archivePath}
	}
	if err != nil {
		return fmt.Errorf("failed to open ZIP file: %w", err)
	}
	defer func() {
		// Read-only archive handle; close errors are exotic.
		_ = zr.Close()
	}()

	if err := z.checkLimits(zr.File); err != nil {
		return err
	}

	dirs, err := listDirs(zr.File, absDestDir)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(absDestDir, 0o755); err != nil {
		return &fsio.IOError{Path: absDestDir, Phase: fsio.PhaseCreate, Cause: err}
	}
	for _, dir := range dirs {
		p := filepath.Join(absDestDir, dir)
		if err := os.MkdirAll(p, 0o755); err != nil {
			return &fsio.IOError{Path: p, Phase: fsio.PhaseCreate, Cause: err}
		}
	}

	prog := newProgress(z.opts.Progress, z.opts.Verbose, z.opts.Percent, len(zr.File))
	for i, file := range zr.File {
		if err := ctx.Err(); err != nil {
			return err
		}

		prog.entry(i, file.Name)
		if isDirEntry(file) {
			continue
		}

		destPath := filepath.Join(absDestDir, filepath.FromSlash(file.Name))
		if err := extractFile(file, destPath); err != nil {
			return fmt.Errorf("failed to extract %s: %w", file.Name, err)
		}
	}

	return nil
}

func (z *Zip) checkLimits(files []*zip.File) error {
	if len(files) > z.opts.MaxFiles {
		return &LimitError{Limit: "file count", Max: int64(z.opts.MaxFiles), Got: int64(len(files))}
	}
	var total uint64
	for _, f := range files {
		total += f.UncompressedSize64
		if total > uint64(z.opts.MaxSize) {
			return &LimitError{Limit: "total size", Max: z.opts.MaxSize, Got: int64(min(total, 1<<62))}
		}
	}
	return nil
}

// listDirs returns every directory the archive needs, relative to the
// destination, sorted so parents come before children. Entries whose path
// escapes destDir fail the whole archive.
func listDirs(files []*zip.File, destDir string) ([]string, error) {
	seen := make(map[string]bool)
	for _, f := range files {
		if err := checkPath(f.Name, destDir); err != nil {
			return nil, err
		}
		name := strings.TrimSuffix(f.Name, "/")
		dir := name
		if !isDirEntry(f) {
			dir = path.Dir(name)
		}
		for dir != "." && dir != "/" && dir != "" {
			seen[filepath.FromSlash(dir)] = true
			dir = path.Dir(dir)
		}
	}

	dirs := make([]string, 0, len(seen))
	for d := range seen {
		dirs = append(dirs, d)
	}
	slices.Sort(dirs)
	return dirs, nil
}

// checkPath rejects entry names that resolve outside destDir.
func checkPath(name, destDir string) error {
	if name == "" || filepath.IsAbs(filepath.FromSlash(name)) || strings.HasPrefix(name, "/") {
		return &UnsafePathError{Name: name}
	}
	destPath := filepath.Join(destDir, filepath.FromSlash(name))
	rel, err := filepath.Rel(destDir, destPath)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return &UnsafePathError{Name: name}
	}
	return nil
}

func isDirEntry(f *zip.File) bool {
	return strings.HasSuffix(f.Name, "/") || f.FileInfo().IsDir()
}

// extractFile writes a single archive entry to destPath.
func extractFile(file *zip.File, destPath string) (err error) {
	rc, err := file.Open()
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := rc.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	mode := file.Mode().Perm()
	if mode == 0 {
		mode = 0o644
	}
	destFile, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return &fsio.IOError{Path: destPath, Phase: fsio.PhaseWrite, Cause: err}
	}
	defer func() {
		if closeErr := destFile.Close(); closeErr != nil && err == nil {
			err = &fsio.IOError{Path: destPath, Phase: fsio.PhaseWrite, Cause: closeErr}
		}
	}()

	// The declared size was already checked against MaxSize; the limit
	// guards against entries that lie about it.
	n, err := io.Copy(destFile, io.LimitReader(rc, int64(file.UncompressedSize64)+1))
	if err != nil {
		return &fsio.IOError{Path: destPath, Phase: fsio.PhaseWrite, Cause: err}
	}
	if uint64(n) > file.UncompressedSize64 {
		return &LimitError{Limit: "entry size", Max: int64(file.UncompressedSize64), Got: n}
	}
	return nil
}
