// SPDX-License-Identifier: MPL-2.0

// Package config handles hlsdk configuration using Viper with CUE as the file format.
//
// Defaults are always present. An optional CUE file, validated against the
// embedded schema (config_schema.cue), is merged over them. The file is looked
// up in this order: the --config path, $XDG_CONFIG_HOME/hlsdk/config.cue (or
// the platform equivalent), ./hlsdk.cue. Command-line flags are applied by the
// caller on top of the loaded Config, which is then re-validated with
// Config.Validate.
package config
