// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

const (
	// FormatCUE renders the config in the format the loader reads.
	FormatCUE Format = "cue"
	// FormatTOML renders the config as TOML.
	FormatTOML Format = "toml"
	// FormatYAML renders the config as YAML.
	FormatYAML Format = "yaml"
)

// ErrUnknownFormat is returned by Encode for an unsupported Format.
var ErrUnknownFormat = errors.New("unknown output format")

// Format names an output encoding for Encode.
type Format string

// Formats lists the supported formats.
func Formats() []Format { return []Format{FormatCUE, FormatTOML, FormatYAML} }

// Encode renders cfg in the given format. Only CUE output can be loaded back
// as a config file.
func Encode(cfg *Config, format Format) (string, error) {
	switch Format(strings.ToLower(string(format))) {
	case FormatCUE, "":
		return GenerateCUE(cfg), nil
	case FormatTOML:
		out, err := toml.Marshal(cfg)
		if err != nil {
			return "", fmt.Errorf("encoding config as toml: %w", err)
		}
		return string(out), nil
	case FormatYAML:
		out, err := yaml.Marshal(cfg)
		if err != nil {
			return "", fmt.Errorf("encoding config as yaml: %w", err)
		}
		return string(out), nil
	default:
		return "", fmt.Errorf("%w %q (valid: cue, toml, yaml)", ErrUnknownFormat, format)
	}
}
