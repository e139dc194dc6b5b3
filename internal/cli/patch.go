// SPDX-License-Identifier: MPL-2.0

package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/gohl/hlsdk/internal/issue"
)

// NewPatchCommand creates the patch-htmlayout command tree. Without a
// subcommand it applies the header patch.
func NewPatchCommand(app *App) *cobra.Command {
	f := &commonFlags{}

	cmd := &cobra.Command{
		Use:   "patch-htmlayout",
		Short: "Patch the HTMLayout SDK headers so they compile with cgo",
		Long: TitleStyle.Render("patch-htmlayout") + SubtitleStyle.Render(" - reversible HTMLayout header patch") + `

Backs up each header next to itself (<header>.original) and rewrites the
non-portable declarations. Nothing is changed unless every header is present
and unpatched.

` + SubtitleStyle.Render("Examples:") + `
  patch-htmlayout                    Apply the patch
  patch-htmlayout restore            Put the original headers back
  patch-htmlayout status             Show the state of every header
  patch-htmlayout diff               Preview the changes`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceErrors = true
			cmd.SilenceUsage = true
			return app.runApply(cmd, f)
		},
	}
	f.register(cmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "restore",
		Short: "Restore the original headers from their backups",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceErrors = true
			cmd.SilenceUsage = true
			return app.runRestore(cmd, f)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show whether each header is patched",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceErrors = true
			cmd.SilenceUsage = true
			return app.runStatus(cmd, f)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "diff",
		Short: "Preview the patch without writing anything",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceErrors = true
			cmd.SilenceUsage = true
			return app.runDiff(cmd, f)
		},
	})

	cmd.SetOut(app.stdout)
	cmd.SetErr(app.stderr)

	return cmd
}

func (a *App) runApply(cmd *cobra.Command, f *commonFlags) error {
	cfg, err := a.loadConfig(cmd, f, nil)
	if err != nil {
		return a.fail(cmd, nil, f.verbose, err)
	}

	dir := includeDir(cfg)
	if err := newPatchEngine(cfg).Apply(cmd.Context(), dir); err != nil {
		return a.fail(cmd, cfg, f.verbose, describePatchError("patch headers", dir, err))
	}

	fmt.Fprintln(cmd.OutOrStdout(), SuccessStyle.Render("Patch complete"))
	return nil
}

func (a *App) runRestore(cmd *cobra.Command, f *commonFlags) error {
	cfg, err := a.loadConfig(cmd, f, nil)
	if err != nil {
		return a.fail(cmd, nil, f.verbose, err)
	}

	dir := includeDir(cfg)
	res, err := newPatchEngine(cfg).Restore(cmd.Context(), dir)

	out := cmd.OutOrStdout()
	for _, path := range res.Restored {
		fmt.Fprintf(out, "%s %s\n", SuccessStyle.Render("Restored"), CmdStyle.Render(path))
	}

	if err != nil {
		return a.fail(cmd, cfg, f.verbose, issue.NewErrorContext().
			WithOperation("restore headers").
			WithResource(dir).
			WithIssue(issue.RestoreFailedId).
			WithSuggestion("Fix the reported files and run 'patch-htmlayout restore' again").
			Wrap(err).
			BuildError())
	}

	if len(res.Restored) == 0 {
		fmt.Fprintln(out, SubtitleStyle.Render("Nothing to restore"))
	}
	return nil
}

func (a *App) runStatus(cmd *cobra.Command, f *commonFlags) error {
	cfg, err := a.loadConfig(cmd, f, nil)
	if err != nil {
		return a.fail(cmd, nil, f.verbose, err)
	}

	dir := includeDir(cfg)
	statuses, err := newPatchEngine(cfg).Status(dir)
	if err != nil {
		return a.fail(cmd, cfg, f.verbose, describePatchError("inspect headers", dir, err))
	}

	out := cmd.OutOrStdout()
	color := isTerminal(out)
	for _, st := range statuses {
		state := fmt.Sprintf("%-10s", st.State)
		if style, ok := stateStyles[st.State.String()]; ok && color {
			state = style.Render(state)
		}
		fmt.Fprintf(out, "%s %s\n", state, st.Path)
	}
	return nil
}

func (a *App) runDiff(cmd *cobra.Command, f *commonFlags) error {
	cfg, err := a.loadConfig(cmd, f, nil)
	if err != nil {
		return a.fail(cmd, nil, f.verbose, err)
	}

	dir := includeDir(cfg)
	diffs, err := newPatchEngine(cfg).Preview(dir)
	if err != nil {
		return a.fail(cmd, cfg, f.verbose, describePatchError("preview patch", dir, err))
	}

	out := cmd.OutOrStdout()
	color := isTerminal(out)
	for _, d := range diffs {
		writeLine(out, color, diffFileStyle, "--- "+d.Path)
		writeLine(out, color, diffFileStyle, "+++ "+d.Path+" (patched)")
		for _, line := range strings.Split(strings.TrimSuffix(d.Diff, "\n"), "\n") {
			switch {
			case strings.HasPrefix(line, "+"):
				writeLine(out, color, diffAddStyle, line)
			case strings.HasPrefix(line, "-"):
				writeLine(out, color, diffRemoveStyle, line)
			default:
				fmt.Fprintln(out, line)
			}
		}
	}
	return nil
}

func writeLine(w io.Writer, color bool, style lipgloss.Style, line string) {
	if color {
		line = style.Render(line)
	}
	fmt.Fprintln(w, line)
}
