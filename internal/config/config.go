// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/spf13/viper"

	"github.com/gohl/hlsdk/internal/issue"
)

const (
	// AppName is the application name.
	AppName = "hlsdk"
	// ConfigFileName is the name of the config file in the config directory.
	ConfigFileName = "config.cue"
	// LocalFileName is the name of the config file looked up in the working directory.
	LocalFileName = "hlsdk.cue"
)

//go:embed config_schema.cue
var configSchema string

// ConfigDir returns the hlsdk configuration directory using platform-specific
// conventions: Windows uses %APPDATA%, macOS uses ~/Library/Application Support,
// and Linux/others use $XDG_CONFIG_HOME (defaulting to ~/.config).
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support")
	default: // Linux and others
		configDir = os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			configDir = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(configDir, AppName), nil
}

// setDefaults registers every default with viper so unset file keys fall back.
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("install_root", d.InstallRoot)
	v.SetDefault("download.url", d.Download.URL)
	v.SetDefault("download.archive", d.Download.Archive)
	v.SetDefault("download.checksum", d.Download.Checksum)
	v.SetDefault("download.timeout", d.Download.Timeout)
	v.SetDefault("download.max_bytes", d.Download.MaxBytes)
	v.SetDefault("download.user_agent", d.Download.UserAgent)
	v.SetDefault("extract.percent", d.Extract.Percent)
	v.SetDefault("extract.max_files", d.Extract.MaxFiles)
	v.SetDefault("extract.max_size", d.Extract.MaxSize)
	v.SetDefault("patch.backup_suffix", d.Patch.BackupSuffix)
	v.SetDefault("ui.color_scheme", d.UI.ColorScheme)
	v.SetDefault("ui.verbose", d.UI.Verbose)
}

// loadWithOptions performs option-driven config loading and returns the
// config together with the path of the file it came from.
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	select {
	case <-ctx.Done():
		return nil, "", fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := viper.New()
	setDefaults(v)

	resolvedPath := ""

	// An explicit --config path is used exclusively and must exist.
	if opts.ConfigFilePath != "" {
		if !fileExists(opts.ConfigFilePath) {
			return nil, "", loadError(opts.ConfigFilePath, fmt.Errorf("config file not found: %s", opts.ConfigFilePath),
				"Verify the file path is correct",
				"Check that the file exists and is readable",
				"Use 'get-htmlayout config show' to see the default configuration")
		}
		resolvedPath = opts.ConfigFilePath
	} else {
		candidates, err := searchPaths(opts)
		if err != nil {
			return nil, "", err
		}
		for _, path := range candidates {
			if fileExists(path) {
				resolvedPath = path
				break
			}
		}
		// If no config file found, use defaults (no error)
	}

	if resolvedPath != "" {
		if err := loadCUEIntoViper(v, resolvedPath); err != nil {
			return nil, "", loadError(resolvedPath, err,
				"Check that the file contains valid CUE syntax",
				"Verify the configuration values match the expected schema",
				"Use 'get-htmlayout config show' to print a valid configuration")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", loadError(resolvedPath, err,
			"Fix the reported fields in the configuration file")
	}

	return &cfg, resolvedPath, nil
}

// searchPaths lists the implicit config locations in lookup order.
func searchPaths(opts LoadOptions) ([]string, error) {
	cfgDir := opts.ConfigDirPath
	if cfgDir == "" {
		dir, err := ConfigDir()
		if err != nil {
			return nil, err
		}
		cfgDir = dir
	}

	return []string{
		filepath.Join(cfgDir, ConfigFileName),
		filepath.Join(opts.LocalDirPath, LocalFileName),
	}, nil
}

func loadError(path string, err error, suggestions ...string) error {
	ctx := issue.NewErrorContext().
		WithOperation("load configuration").
		WithIssue(issue.ConfigLoadFailedId).
		WithSuggestions(suggestions...).
		Wrap(err)
	if path != "" {
		ctx = ctx.WithResource(path)
	}
	return ctx.BuildError()
}

// loadCUEIntoViper parses a CUE file, validates it against the #Config schema,
// and merges its contents into Viper.
//
// Concrete(false) is used because every config field is optional.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := checkFileSize(data, path); err != nil {
		return err
	}

	ctx := cuecontext.New()

	schemaValue := ctx.CompileString(configSchema)
	if schemaValue.Err() != nil {
		return fmt.Errorf("internal error: failed to compile config schema: %w", schemaValue.Err())
	}

	userValue := ctx.CompileBytes(data, cue.Filename(path))
	if userValue.Err() != nil {
		return formatCUEError(userValue.Err(), path)
	}

	schema := schemaValue.LookupPath(cue.ParsePath("#Config"))
	unified := schema.Unify(userValue)
	if err := unified.Validate(cue.Concrete(false)); err != nil {
		return formatCUEError(err, path)
	}

	var configMap map[string]any
	if err := unified.Decode(&configMap); err != nil {
		return formatCUEError(err, path)
	}

	// Merge into Viper (preserves defaults)
	if err := v.MergeConfigMap(configMap); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}

	return nil
}

// fileExists checks if a file exists and is not a directory
func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// GenerateCUE generates a CUE representation of the configuration
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// hlsdk configuration file\n\n")

	fmt.Fprintf(&sb, "install_root: %q\n", cfg.InstallRoot)

	sb.WriteString("\ndownload: {\n")
	fmt.Fprintf(&sb, "\turl:        %q\n", cfg.Download.URL)
	fmt.Fprintf(&sb, "\tarchive:    %q\n", cfg.Download.Archive)
	if cfg.Download.Checksum != "" {
		fmt.Fprintf(&sb, "\tchecksum:   %q\n", cfg.Download.Checksum)
	}
	fmt.Fprintf(&sb, "\ttimeout:    %q\n", cfg.Download.Timeout.String())
	fmt.Fprintf(&sb, "\tmax_bytes:  %d\n", cfg.Download.MaxBytes)
	fmt.Fprintf(&sb, "\tuser_agent: %q\n", cfg.Download.UserAgent)
	sb.WriteString("}\n")

	sb.WriteString("\nextract: {\n")
	fmt.Fprintf(&sb, "\tpercent:   %d\n", cfg.Extract.Percent)
	fmt.Fprintf(&sb, "\tmax_files: %d\n", cfg.Extract.MaxFiles)
	fmt.Fprintf(&sb, "\tmax_size:  %d\n", cfg.Extract.MaxSize)
	sb.WriteString("}\n")

	sb.WriteString("\npatch: {\n")
	fmt.Fprintf(&sb, "\tbackup_suffix: %q\n", cfg.Patch.BackupSuffix)
	sb.WriteString("}\n")

	sb.WriteString("\nui: {\n")
	fmt.Fprintf(&sb, "\tcolor_scheme: %q\n", cfg.UI.ColorScheme)
	fmt.Fprintf(&sb, "\tverbose:      %v\n", cfg.UI.Verbose)
	sb.WriteString("}\n")

	return sb.String()
}
