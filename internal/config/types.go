// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gohl/hlsdk/internal/fetch"
)

const (
	// ColorSchemeAuto detects the terminal color scheme automatically.
	ColorSchemeAuto ColorScheme = "auto"
	// ColorSchemeDark forces dark color scheme.
	ColorSchemeDark ColorScheme = "dark"
	// ColorSchemeLight forces light color scheme.
	ColorSchemeLight ColorScheme = "light"
)

var (
	// ErrInvalidColorScheme is returned when a ColorScheme value is not recognized.
	ErrInvalidColorScheme = errors.New("invalid color scheme")
	// ErrInvalidDownloadConfig is the sentinel error wrapped by InvalidDownloadConfigError.
	ErrInvalidDownloadConfig = errors.New("invalid download config")
	// ErrInvalidExtractConfig is the sentinel error wrapped by InvalidExtractConfigError.
	ErrInvalidExtractConfig = errors.New("invalid extract config")
	// ErrInvalidPatchConfig is the sentinel error wrapped by InvalidPatchConfigError.
	ErrInvalidPatchConfig = errors.New("invalid patch config")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// ColorScheme specifies the terminal color scheme preference.
	ColorScheme string

	// InvalidColorSchemeError is returned when a ColorScheme value is not recognized.
	// It wraps ErrInvalidColorScheme for errors.Is() compatibility.
	InvalidColorSchemeError struct {
		Value ColorScheme
	}

	// InvalidDownloadConfigError collects field-level errors of a DownloadConfig.
	InvalidDownloadConfigError struct {
		FieldErrors []error
	}

	// InvalidExtractConfigError collects field-level errors of an ExtractConfig.
	InvalidExtractConfigError struct {
		FieldErrors []error
	}

	// InvalidPatchConfigError collects field-level errors of a PatchConfig.
	InvalidPatchConfigError struct {
		FieldErrors []error
	}

	// InvalidConfigError is returned when a Config has invalid fields.
	// It wraps ErrInvalidConfig for errors.Is() compatibility and collects
	// field-level validation errors from all sub-components.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the application configuration.
	Config struct {
		// InstallRoot is the directory the SDK is unpacked into.
		InstallRoot string `json:"install_root" mapstructure:"install_root" toml:"install_root" yaml:"install_root"`
		// Download configures how the SDK archive is fetched.
		Download DownloadConfig `json:"download" mapstructure:"download" toml:"download" yaml:"download"`
		// Extract configures archive extraction.
		Extract ExtractConfig `json:"extract" mapstructure:"extract" toml:"extract" yaml:"extract"`
		// Patch configures the header patch.
		Patch PatchConfig `json:"patch" mapstructure:"patch" toml:"patch" yaml:"patch"`
		// UI configures the user interface
		UI UIConfig `json:"ui" mapstructure:"ui" toml:"ui" yaml:"ui"`
	}

	// DownloadConfig configures the archive fetch.
	DownloadConfig struct {
		URL       string        `json:"url" mapstructure:"url" toml:"url" yaml:"url"`
		Archive   string        `json:"archive" mapstructure:"archive" toml:"archive" yaml:"archive"`
		Checksum  string        `json:"checksum" mapstructure:"checksum" toml:"checksum" yaml:"checksum"` // hex SHA-256, empty disables the check
		Timeout   time.Duration `json:"timeout" mapstructure:"timeout" toml:"timeout" yaml:"timeout"`
		MaxBytes  int64         `json:"max_bytes" mapstructure:"max_bytes" toml:"max_bytes" yaml:"max_bytes"`
		UserAgent string        `json:"user_agent" mapstructure:"user_agent" toml:"user_agent" yaml:"user_agent"`
	}

	// ExtractConfig configures the extractor.
	ExtractConfig struct {
		Percent  int   `json:"percent" mapstructure:"percent" toml:"percent" yaml:"percent"`
		MaxFiles int   `json:"max_files" mapstructure:"max_files" toml:"max_files" yaml:"max_files"`
		MaxSize  int64 `json:"max_size" mapstructure:"max_size" toml:"max_size" yaml:"max_size"`
	}

	// PatchConfig configures the patch engine.
	PatchConfig struct {
		BackupSuffix string `json:"backup_suffix" mapstructure:"backup_suffix" toml:"backup_suffix" yaml:"backup_suffix"`
	}

	// UIConfig configures the user interface.
	UIConfig struct {
		// ColorScheme sets the color scheme
		ColorScheme ColorScheme `json:"color_scheme" mapstructure:"color_scheme" toml:"color_scheme" yaml:"color_scheme"`
		// Verbose enables verbose output
		Verbose bool `json:"verbose" mapstructure:"verbose" toml:"verbose" yaml:"verbose"`
	}
)

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		InstallRoot: "./htmlayout",
		Download: DownloadConfig{
			URL:       "http://www.terrainformatica.com/htmlayout/HTMLayoutSDK.zip",
			Archive:   "./HTMLayoutSDK.zip",
			Timeout:   5 * time.Minute,
			MaxBytes:  1 << 30,
			UserAgent: "hlsdk/dev",
		},
		Extract: ExtractConfig{
			Percent:  10,
			MaxFiles: 10_000,
			MaxSize:  2 << 30,
		},
		Patch: PatchConfig{
			BackupSuffix: ".original",
		},
		UI: UIConfig{
			ColorScheme: ColorSchemeAuto,
		},
	}
}

// String returns the string representation of the ColorScheme.
func (cs ColorScheme) String() string { return string(cs) }

// IsValid returns whether the ColorScheme is one of the defined color schemes,
// and a list of validation errors if it is not.
func (cs ColorScheme) IsValid() (bool, []error) {
	switch cs {
	case ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight:
		return true, nil
	default:
		return false, []error{&InvalidColorSchemeError{Value: cs}}
	}
}

// Error implements the error interface for InvalidColorSchemeError.
func (e *InvalidColorSchemeError) Error() string {
	return fmt.Sprintf("invalid color scheme %q (valid: auto, dark, light)", e.Value)
}

// Unwrap returns ErrInvalidColorScheme for errors.Is() compatibility.
func (e *InvalidColorSchemeError) Unwrap() error { return ErrInvalidColorScheme }

// IsValid checks the fields flags can set without passing through the CUE schema.
func (c DownloadConfig) IsValid() (bool, []error) {
	var errs []error
	if !strings.HasPrefix(c.URL, "http://") && !strings.HasPrefix(c.URL, "https://") {
		errs = append(errs, fmt.Errorf("url %q must be an http(s) URL", c.URL))
	}
	if strings.TrimSpace(c.Archive) == "" {
		errs = append(errs, errors.New("archive path must not be empty"))
	}
	if c.Checksum != "" && !fetch.IsValidHexHash(c.Checksum) {
		errs = append(errs, fmt.Errorf("checksum %q is not a hex SHA-256 digest", c.Checksum))
	}
	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout %s must not be negative", c.Timeout))
	}
	if len(errs) > 0 {
		return false, []error{&InvalidDownloadConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidDownloadConfigError.
func (e *InvalidDownloadConfigError) Error() string {
	return fmt.Sprintf("invalid download config: %s", joinErrors(e.FieldErrors))
}

// Unwrap returns ErrInvalidDownloadConfig for errors.Is() compatibility.
func (e *InvalidDownloadConfigError) Unwrap() error { return ErrInvalidDownloadConfig }

// IsValid checks the progress granularity.
func (c ExtractConfig) IsValid() (bool, []error) {
	if c.Percent < 1 || c.Percent > 100 {
		return false, []error{&InvalidExtractConfigError{FieldErrors: []error{
			fmt.Errorf("percent %d must be between 1 and 100", c.Percent),
		}}}
	}
	return true, nil
}

// Error implements the error interface for InvalidExtractConfigError.
func (e *InvalidExtractConfigError) Error() string {
	return fmt.Sprintf("invalid extract config: %s", joinErrors(e.FieldErrors))
}

// Unwrap returns ErrInvalidExtractConfig for errors.Is() compatibility.
func (e *InvalidExtractConfigError) Unwrap() error { return ErrInvalidExtractConfig }

// IsValid checks that the backup suffix is usable as a file name suffix.
func (c PatchConfig) IsValid() (bool, []error) {
	if c.BackupSuffix == "" || strings.ContainsAny(c.BackupSuffix, `/\`) {
		return false, []error{&InvalidPatchConfigError{FieldErrors: []error{
			fmt.Errorf("backup suffix %q must be non-empty and contain no path separators", c.BackupSuffix),
		}}}
	}
	return true, nil
}

// Error implements the error interface for InvalidPatchConfigError.
func (e *InvalidPatchConfigError) Error() string {
	return fmt.Sprintf("invalid patch config: %s", joinErrors(e.FieldErrors))
}

// Unwrap returns ErrInvalidPatchConfig for errors.Is() compatibility.
func (e *InvalidPatchConfigError) Unwrap() error { return ErrInvalidPatchConfig }

// IsValid returns whether the Config has valid fields, delegating to each
// sub-component.
func (c *Config) IsValid() (bool, []error) {
	var errs []error
	if strings.TrimSpace(c.InstallRoot) == "" {
		errs = append(errs, errors.New("install_root must not be empty"))
	}
	for _, check := range []func() (bool, []error){
		c.Download.IsValid,
		c.Extract.IsValid,
		c.Patch.IsValid,
		c.UI.ColorScheme.IsValid,
	} {
		if valid, fieldErrs := check(); !valid {
			errs = append(errs, fieldErrs...)
		}
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Validate is IsValid folded into a single error.
func (c *Config) Validate() error {
	if valid, errs := c.IsValid(); !valid {
		return errs[0]
	}
	return nil
}

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid config: %s", joinErrors(e.FieldErrors))
}

// Unwrap returns ErrInvalidConfig and the field errors so both the
// aggregate and the specific sentinels match errors.Is.
func (e *InvalidConfigError) Unwrap() []error {
	return append([]error{ErrInvalidConfig}, e.FieldErrors...)
}

func joinErrors(errs []error) string {
	parts := make([]string, 0, len(errs))
	for _, err := range errs {
		parts = append(parts, err.Error())
	}
	return strings.Join(parts, "; ")
}
