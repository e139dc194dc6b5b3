// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/gohl/hlsdk/internal/fsio"
)

const (
	// DefaultURL is where the upstream SDK archive is published.
	DefaultURL = "http://www.terrainformatica.com/htmlayout/HTMLayoutSDK.zip"

	// DefaultArchivePath is where the downloaded archive is stored.
	DefaultArchivePath = "./HTMLayoutSDK.zip"

	// DefaultInstallRoot is the directory the SDK is unpacked into.
	DefaultInstallRoot = "./htmlayout"

	// IncludeDir is the patch base directory, relative to the install root.
	IncludeDir = "include"
)

// Phases of a run, in execution order.
const (
	PhaseCleanup  Phase = "cleanup"
	PhaseDownload Phase = "download"
	PhaseExtract  Phase = "extract"
	PhasePatch    Phase = "patch"
)

// ErrUnsafeInstallRoot is returned when the install root would make cleanup
// remove the working directory or a filesystem root.
var ErrUnsafeInstallRoot = errors.New("refusing to use install root")

type (
	// Phase names one step of a provisioning run.
	Phase string

	// Fetcher downloads url into dest.
	Fetcher interface {
		Fetch(ctx context.Context, url, dest string) (string, error)
	}

	// Extractor unpacks archivePath into destDir.
	Extractor interface {
		Extract(ctx context.Context, archivePath, destDir string) error
	}

	// Patcher patches the headers under baseDir.
	Patcher interface {
		Apply(ctx context.Context, baseDir string) error
	}

	// Config locates the archive and the install.
	Config struct {
		URL         string
		ArchivePath string
		InstallRoot string
	}

	// Provisioner runs the provisioning phases in order.
	Provisioner struct {
		cfg       Config
		fetcher   Fetcher
		extractor Extractor
		patcher   Patcher
		logger    *log.Logger
	}

	// PhaseError reports the phase a run failed in.
	PhaseError struct {
		Phase Phase
		Err   error
	}
)

// String returns the phase name.
func (p Phase) String() string { return string(p) }

// Error implements the error interface.
func (e *PhaseError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Phase, e.Err)
}

// Unwrap returns the underlying failure.
func (e *PhaseError) Unwrap() error { return e.Err }

// New creates a Provisioner. Empty Config fields take the package defaults;
// a nil logger discards output.
func New(cfg Config, f Fetcher, x Extractor, p Patcher, logger *log.Logger) *Provisioner {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.ArchivePath == "" {
		cfg.ArchivePath = DefaultArchivePath
	}
	if cfg.InstallRoot == "" {
		cfg.InstallRoot = DefaultInstallRoot
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Provisioner{cfg: cfg, fetcher: f, extractor: x, patcher: p, logger: logger}
}

// Config returns the effective configuration.
func (p *Provisioner) Config() Config { return p.cfg }

// IncludePath returns the patch base directory of the install.
func (p *Provisioner) IncludePath() string {
	return filepath.Join(p.cfg.InstallRoot, IncludeDir)
}

// Run performs a fresh install: any previous archive and install root are
// removed first, so the result never mixes files from two downloads.
func (p *Provisioner) Run(ctx context.Context) error {
	if err := p.cleanup(); err != nil {
		return &PhaseError{Phase: PhaseCleanup, Err: err}
	}

	p.logger.Info("Downloading sdk...", "url", p.cfg.URL)
	archive, err := p.fetcher.Fetch(ctx, p.cfg.URL, p.cfg.ArchivePath)
	if err != nil {
		return &PhaseError{Phase: PhaseDownload, Err: err}
	}

	p.logger.Info("Download complete, extracting...", "archive", archive)
	if err := os.MkdirAll(p.cfg.InstallRoot, 0o755); err != nil {
		return &PhaseError{Phase: PhaseExtract, Err: &fsio.IOError{Path: p.cfg.InstallRoot, Phase: fsio.PhaseCreate, Cause: err}}
	}
	if err := p.extractor.Extract(ctx, archive, p.cfg.InstallRoot); err != nil {
		return &PhaseError{Phase: PhaseExtract, Err: err}
	}

	p.logger.Info("Extraction complete, patching...")
	if err := p.patcher.Apply(ctx, p.IncludePath()); err != nil {
		return &PhaseError{Phase: PhasePatch, Err: err}
	}

	p.logger.Info("Finished.")
	return nil
}

func (p *Provisioner) cleanup() error {
	root, err := filepath.Abs(p.cfg.InstallRoot)
	if err != nil {
		return err
	}
	cwd, err := os.Getwd()
	if err == nil && (root == cwd || isParent(root, cwd)) {
		return fmt.Errorf("%w %s: it contains the working directory", ErrUnsafeInstallRoot, p.cfg.InstallRoot)
	}
	if filepath.Dir(root) == root {
		return fmt.Errorf("%w %s: it is a filesystem root", ErrUnsafeInstallRoot, p.cfg.InstallRoot)
	}

	if fsio.Exists(p.cfg.ArchivePath) {
		p.logger.Debug("removing stale archive", "path", p.cfg.ArchivePath)
		if err := os.Remove(p.cfg.ArchivePath); err != nil {
			return &fsio.IOError{Path: p.cfg.ArchivePath, Phase: fsio.PhaseRemove, Cause: err}
		}
	}
	if fsio.Exists(p.cfg.InstallRoot) {
		p.logger.Debug("removing previous install", "path", p.cfg.InstallRoot)
		if err := os.RemoveAll(p.cfg.InstallRoot); err != nil {
			return &fsio.IOError{Path: p.cfg.InstallRoot, Phase: fsio.PhaseRemove, Cause: err}
		}
	}
	return nil
}

// isParent reports whether dir is a proper ancestor of path.
func isParent(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	return err == nil && rel != "." && rel != ".." && !filepath.IsAbs(rel) && !hasDotDotPrefix(rel)
}

func hasDotDotPrefix(rel string) bool {
	return len(rel) >= 3 && rel[:2] == ".." && os.IsPathSeparator(rel[2])
}
