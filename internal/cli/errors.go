// SPDX-License-Identifier: MPL-2.0

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/gohl/hlsdk/internal/config"
	"github.com/gohl/hlsdk/internal/extract"
	"github.com/gohl/hlsdk/internal/fetch"
	"github.com/gohl/hlsdk/internal/issue"
	"github.com/gohl/hlsdk/internal/patch"
	"github.com/gohl/hlsdk/internal/provision"
)

// classifyError maps a failure to an issue catalog ID (0 when none applies)
// and the process exit code.
func classifyError(err error) (issueID issue.Id, code int) {
	code = ExitFailure

	switch {
	case errors.Is(err, patch.ErrMissingPrerequisite):
		issueID, code = issue.SDKNotInstalledId, ExitPrecondition
	case errors.Is(err, patch.ErrMissingTarget):
		issueID, code = issue.PatchTargetMissingId, ExitPrecondition
	case errors.Is(err, patch.ErrAlreadyApplied):
		issueID, code = issue.PatchAlreadyAppliedId, ExitPrecondition
	case errors.Is(err, patch.ErrRuleMismatch):
		issueID, code = issue.RuleMismatchId, ExitPrecondition
	case errors.Is(err, patch.ErrInvalidRegistry),
		errors.Is(err, provision.ErrUnsafeInstallRoot):
		code = ExitPrecondition
	case errors.Is(err, config.ErrInvalidConfig):
		issueID, code = issue.ConfigLoadFailedId, ExitPrecondition
	case errors.Is(err, fetch.ErrChecksumMismatch):
		issueID = issue.ChecksumMismatchId
	case errors.Is(err, fetch.ErrNetwork):
		issueID = issue.DownloadFailedId
	case errors.Is(err, os.ErrPermission):
		issueID = issue.PermissionDeniedId
	case errors.Is(err, extract.ErrUnsafePath), errors.Is(err, extract.ErrLimitExceeded):
		issueID = issue.ExtractFailedId
	}

	// An explicitly linked issue wins over the sentinel mapping for the ID;
	// config failures never mutate anything.
	var ae *issue.ActionableError
	if errors.As(err, &ae) && ae.IssueId != 0 {
		if issueID == 0 || ae.IssueId == issue.ConfigLoadFailedId {
			issueID = ae.IssueId
		}
		if ae.IssueId == issue.ConfigLoadFailedId {
			code = ExitPrecondition
		}
	}

	if issueID == 0 {
		var pe *provision.PhaseError
		if errors.As(err, &pe) && pe.Phase == provision.PhaseExtract {
			issueID = issue.ExtractFailedId
		}
	}

	return issueID, code
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
// In verbose mode, shows the full error chain.
func formatErrorForDisplay(err error, verbose bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verbose)
	}
	return err.Error()
}

// renderError writes the styled error and, when catalogued, the issue help
// text. It returns the exit code for err.
func renderError(w io.Writer, err error, verbose bool, style string) int {
	issueID, code := classifyError(err)

	fmt.Fprintf(w, "\n%s %s\n", ErrorStyle.Render("Error:"), formatErrorForDisplay(err, verbose))

	if entry := issue.Get(issueID); entry != nil {
		rendered, renderErr := entry.Render(style)
		if renderErr != nil {
			fmt.Fprintf(w, "%s failed to render help: %v\n", WarningStyle.Render("Warning:"), renderErr)
		} else {
			fmt.Fprint(w, rendered)
		}
	}

	return code
}

// glamourStyle picks the issue rendering style for w.
func glamourStyle(w io.Writer, scheme config.ColorScheme) string {
	if !isTerminal(w) {
		return "notty"
	}
	if scheme == config.ColorSchemeLight {
		return "light"
	}
	return "dark"
}

// describePatchError attaches the operation, resource and suggestions to a
// patch engine failure.
func describePatchError(op, baseDir string, err error) error {
	if err == nil || errors.Is(err, context.Canceled) {
		return err
	}

	ctx := issue.NewErrorContext().
		WithOperation(op).
		WithResource(baseDir)

	switch {
	case errors.Is(err, patch.ErrMissingPrerequisite):
		ctx.WithSuggestion("Run 'get-htmlayout' to download and unpack the SDK").
			WithSuggestion("Pass --root if the SDK lives somewhere other than ./htmlayout")
	case errors.Is(err, patch.ErrMissingTarget):
		ctx.WithSuggestion("Re-run 'get-htmlayout' to get a complete SDK")
	case errors.Is(err, patch.ErrAlreadyApplied):
		ctx.WithSuggestion("Run 'patch-htmlayout status' to inspect the headers").
			WithSuggestion("Run 'patch-htmlayout restore' to undo the previous patch")
	case errors.Is(err, patch.ErrRuleMismatch):
		ctx.WithSuggestion("Run 'patch-htmlayout diff' to see what would change").
			WithSuggestion("Make sure the SDK matches the release the patch was written for")
	default:
		ctx.WithSuggestion("Run 'patch-htmlayout status' to see which headers were changed").
			WithSuggestion("Run 'patch-htmlayout restore' to put back the originals")
	}

	return ctx.Wrap(err).BuildError()
}

// describeProvisionError attaches per-phase suggestions to a provisioning failure.
func describeProvisionError(cfg *config.Config, err error) error {
	var pe *provision.PhaseError
	if !errors.As(err, &pe) || errors.Is(err, context.Canceled) {
		return err
	}

	ctx := issue.NewErrorContext()
	switch pe.Phase {
	case provision.PhaseCleanup:
		ctx.WithOperation("remove previous install").
			WithResource(cfg.InstallRoot).
			WithSuggestion("Check that the install root is not in use and is writable").
			WithSuggestion("Pass --root to install somewhere else")
	case provision.PhaseDownload:
		ctx.WithOperation("download sdk").
			WithResource(cfg.Download.URL).
			WithSuggestion("Check your network connection").
			WithSuggestion("Pass --url to download from a mirror")
		if errors.Is(err, fetch.ErrChecksumMismatch) {
			ctx.WithSuggestion("Check the --checksum value against the published digest")
		}
	case provision.PhaseExtract:
		ctx.WithOperation("extract sdk").
			WithResource(cfg.Download.Archive).
			WithIssue(issue.ExtractFailedId).
			WithSuggestion("Delete the archive and run 'get-htmlayout' again")
	default:
		return describePatchError("patch headers", includeDir(cfg), pe.Err)
	}

	return ctx.Wrap(err).BuildError()
}
