// SPDX-License-Identifier: MPL-2.0

// Package config handles multicall configuration using Viper with CUE as the file format.
//
// Configuration is looked up in $XDG_CONFIG_HOME/multicall/config.cue (defaulting to
// ~/.config/multicall/config.cue) and then in /etc/multicall/config.cue. An explicit
// path given with --config or MULTICALL_CONFIG replaces the lookup. Every setting can
// also be overridden from the environment with the MULTICALL_ prefix, for example
// MULTICALL_LOG_LEVEL=debug.
//
// Files are validated against the embedded CUE schema (config_schema.cue) before being
// merged over the built-in defaults.
package config
