// SPDX-License-Identifier: MPL-2.0

package cli

import (
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/gohl/hlsdk/internal/config"
	"github.com/gohl/hlsdk/internal/extract"
	"github.com/gohl/hlsdk/internal/fetch"
	"github.com/gohl/hlsdk/internal/provision"
)

type getFlags struct {
	commonFlags
	url      string
	archive  string
	checksum string
	percent  int
}

// NewGetCommand creates the get-htmlayout command tree.
func NewGetCommand(app *App) *cobra.Command {
	f := &getFlags{}

	cmd := &cobra.Command{
		Use:   "get-htmlayout",
		Short: "Download, unpack and patch the HTMLayout SDK",
		Long: TitleStyle.Render("get-htmlayout") + SubtitleStyle.Render(" - provision the HTMLayout SDK") + `

Removes any previous install, downloads the SDK archive, unpacks it into
the install root and patches the headers under <root>/include so that they
compile with cgo.

` + SubtitleStyle.Render("Examples:") + `
  get-htmlayout                      Install into ./htmlayout
  get-htmlayout --root vendor/hl     Install somewhere else
  get-htmlayout -v                   List every extracted entry
  get-htmlayout config show          Show the effective configuration`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceErrors = true
			cmd.SilenceUsage = true
			return app.runGet(cmd, f)
		},
	}

	f.register(cmd)
	flags := cmd.Flags()
	flags.StringVar(&f.url, "url", "", "SDK archive URL")
	flags.StringVar(&f.archive, "archive", "", "where to store the downloaded archive (default ./HTMLayoutSDK.zip)")
	flags.StringVar(&f.checksum, "checksum", "", "expected hex SHA-256 of the archive")
	flags.IntVar(&f.percent, "percent", 0, "extraction progress granularity in percent (default 10)")

	cmd.AddCommand(newConfigCommand(app, &f.commonFlags))
	cmd.SetOut(app.stdout)
	cmd.SetErr(app.stderr)

	return cmd
}

func (f *getFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("url") {
		cfg.Download.URL = f.url
	}
	if flags.Changed("archive") {
		cfg.Download.Archive = f.archive
	}
	if flags.Changed("checksum") {
		cfg.Download.Checksum = f.checksum
	}
	if flags.Changed("percent") {
		cfg.Extract.Percent = f.percent
	}
}

func (a *App) runGet(cmd *cobra.Command, f *getFlags) error {
	cfg, err := a.loadConfig(cmd, &f.commonFlags, f.apply)
	if err != nil {
		return a.fail(cmd, nil, f.verbose, err)
	}

	logger := newLogger(cmd.OutOrStdout(), cmd.Name(), cfg.UI.Verbose)
	logger.Debug("configuration resolved",
		"root", cfg.InstallRoot,
		"archive", cfg.Download.Archive,
		"url", cfg.Download.URL)

	extractor := extract.New(extract.Options{
		Percent:  cfg.Extract.Percent,
		Verbose:  cfg.UI.Verbose,
		Progress: progressLogger(logger),
		MaxFiles: cfg.Extract.MaxFiles,
		MaxSize:  cfg.Extract.MaxSize,
	})

	p := provision.New(provision.Config{
		URL:         cfg.Download.URL,
		ArchivePath: cfg.Download.Archive,
		InstallRoot: cfg.InstallRoot,
	}, a.newFetcher(cfg), extractor, newPatchEngine(cfg), logger)

	if err := p.Run(cmd.Context()); err != nil {
		return a.fail(cmd, cfg, f.verbose, describeProvisionError(cfg, err))
	}
	return nil
}

func (a *App) newFetcher(cfg *config.Config) *fetch.Client {
	hc := a.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Download.Timeout}
	}
	return fetch.NewClient(
		fetch.WithHTTPClient(hc),
		fetch.WithUserAgent(cfg.Download.UserAgent),
		fetch.WithChecksum(cfg.Download.Checksum),
		fetch.WithMaxBytes(cfg.Download.MaxBytes),
	)
}

// newConfigCommand creates the `config` command tree.
func newConfigCommand(app *App, f *commonFlags) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect hlsdk configuration",
		Long: `Inspect hlsdk configuration.

Configuration is read from the first file found of:
  - the --config path
  - $XDG_CONFIG_HOME/hlsdk/config.cue (platform equivalent on macOS and Windows)
  - ./hlsdk.cue`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	var format string
	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceErrors = true
			cmd.SilenceUsage = true

			cfg, err := app.loadConfig(cmd, f, nil)
			if err != nil {
				return app.fail(cmd, nil, f.verbose, err)
			}
			out, err := config.Encode(cfg, config.Format(format))
			if err != nil {
				return &ExitError{Code: ExitPrecondition, Err: err}
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}
	showCmd.Flags().StringVar(&format, "format", string(config.FormatCUE), "output format: cue, toml or yaml")
	cfgCmd.AddCommand(showCmd)

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show where configuration files are looked up",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dir, err := config.ConfigDir()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, CmdStyle.Render(filepath.Join(dir, config.ConfigFileName)))
			fmt.Fprintln(out, CmdStyle.Render(filepath.Join(".", config.LocalFileName)))
			return nil
		},
	})

	return cfgCmd
}
