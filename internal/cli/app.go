// SPDX-License-Identifier: MPL-2.0

package cli

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/gohl/hlsdk/internal/config"
	"github.com/gohl/hlsdk/internal/issue"
	"github.com/gohl/hlsdk/internal/patch"
	"github.com/gohl/hlsdk/internal/provision"
)

type (
	// ConfigProvider loads configuration using explicit options.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Config, error)
	}

	// App wires the services shared by the command handlers.
	App struct {
		Config     ConfigProvider
		HTTPClient *http.Client
		stdout     io.Writer
		stderr     io.Writer
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp.
	Dependencies struct {
		Config ConfigProvider
		// HTTPClient is used as-is when set; otherwise a client with the
		// configured download timeout is created per run.
		HTTPClient *http.Client
		Stdout     io.Writer
		Stderr     io.Writer
	}

	// commonFlags are the persistent flags of both commands.
	commonFlags struct {
		configPath string
		verbose    bool
		root       string
	}
)

// NewApp creates an App from deps.
func NewApp(deps Dependencies) *App {
	app := &App{
		Config:     deps.Config,
		HTTPClient: deps.HTTPClient,
		stdout:     deps.Stdout,
		stderr:     deps.Stderr,
	}
	if app.Config == nil {
		app.Config = config.NewProvider()
	}
	if app.stdout == nil {
		app.stdout = os.Stdout
	}
	if app.stderr == nil {
		app.stderr = os.Stderr
	}
	return app
}

func (f *commonFlags) register(cmd *cobra.Command) {
	pf := cmd.PersistentFlags()
	pf.StringVar(&f.configPath, "config", "", "config file (default is $XDG_CONFIG_HOME/hlsdk/config.cue, then ./hlsdk.cue)")
	pf.BoolVarP(&f.verbose, "verbose", "v", false, "enable verbose output")
	pf.StringVar(&f.root, "root", "", "SDK install root (default ./htmlayout)")
}

// loadConfig resolves the effective configuration: defaults, the optional
// config file, then flags. override applies command-specific flags.
func (a *App) loadConfig(cmd *cobra.Command, f *commonFlags, override func(*cobra.Command, *config.Config)) (*config.Config, error) {
	cfg, err := a.Config.Load(cmd.Context(), config.LoadOptions{ConfigFilePath: f.configPath})
	if err != nil {
		return nil, err
	}

	if cmd.Flags().Changed("root") {
		cfg.InstallRoot = f.root
	}
	if f.verbose {
		cfg.UI.Verbose = true
	}
	if override != nil {
		override(cmd, cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("apply command-line flags").
			WithSuggestion("Run with --help to see the accepted values").
			Wrap(err).
			BuildError()
	}
	return cfg, nil
}

// fail renders err to the command's stderr and converts it to an ExitError.
// cfg may be nil when configuration could not be loaded.
func (a *App) fail(cmd *cobra.Command, cfg *config.Config, verbose bool, err error) error {
	stderr := cmd.ErrOrStderr()
	scheme := config.ColorSchemeAuto
	if cfg != nil {
		scheme = cfg.UI.ColorScheme
		verbose = verbose || cfg.UI.Verbose
	}
	code := renderError(stderr, err, verbose, glamourStyle(stderr, scheme))
	return &ExitError{Code: code, Err: err}
}

func includeDir(cfg *config.Config) string {
	return filepath.Join(cfg.InstallRoot, provision.IncludeDir)
}

func newPatchEngine(cfg *config.Config) *patch.Engine {
	return patch.NewEngine(patch.WithBackupSuffix(cfg.Patch.BackupSuffix))
}
