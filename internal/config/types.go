// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
)

const (
	// LogLevelDebug logs everything, including per-entry walk tracing.
	LogLevelDebug LogLevel = "debug"
	// LogLevelInfo logs informational records.
	LogLevelInfo LogLevel = "info"
	// LogLevelWarn logs warnings and errors only.
	LogLevelWarn LogLevel = "warn"
	// LogLevelError logs errors only.
	LogLevelError LogLevel = "error"
)

// ErrInvalidLogLevel is the sentinel error wrapped by InvalidLogLevelError.
var ErrInvalidLogLevel = errors.New("invalid log level")

type (
	// LogLevel is the minimum level of emitted log records.
	LogLevel string

	// InvalidLogLevelError is returned when a LogLevel value is not recognized.
	// It wraps ErrInvalidLogLevel for errors.Is() compatibility.
	InvalidLogLevelError struct {
		Value LogLevel
	}

	// Config holds the multicall configuration.
	Config struct {
		// Log configures diagnostic logging.
		Log LogConfig `json:"log" mapstructure:"log"`
		// SelfNames are the invocation names of the binary itself.
		SelfNames []string `json:"self_names" mapstructure:"self_names"`
		// Install configures the install subcommand.
		Install InstallConfig `json:"install" mapstructure:"install"`
		// Shell configures the sh applet.
		Shell ShellConfig `json:"shell" mapstructure:"shell"`
		// Accounts locates the user and group databases.
		Accounts AccountsConfig `json:"accounts" mapstructure:"accounts"`
		// Mounts locates the mount table.
		Mounts MountsConfig `json:"mounts" mapstructure:"mounts"`
		// Pager configures the more applet.
		Pager PagerConfig `json:"pager" mapstructure:"pager"`
	}

	// LogConfig configures diagnostic logging.
	LogConfig struct {
		Level LogLevel `json:"level" mapstructure:"level"`
	}

	// InstallConfig configures applet link installation.
	InstallConfig struct {
		Dir      string `json:"dir" mapstructure:"dir"`
		Hardlink bool   `json:"hardlink" mapstructure:"hardlink"`
	}

	// ShellConfig configures the sh applet.
	ShellConfig struct {
		// BuiltinApplets runs registered applets in-process instead of
		// looking them up on PATH.
		BuiltinApplets bool `json:"builtin_applets" mapstructure:"builtin_applets"`
	}

	// AccountsConfig locates the user and group databases.
	AccountsConfig struct {
		PasswdFile string `json:"passwd_file" mapstructure:"passwd_file"`
		GroupFile  string `json:"group_file" mapstructure:"group_file"`
	}

	// MountsConfig locates the mount table.
	MountsConfig struct {
		Table string `json:"table" mapstructure:"table"`
	}

	// PagerConfig configures the more applet.
	PagerConfig struct {
		// Lines per page. 0 uses the terminal height.
		Lines int `json:"lines" mapstructure:"lines"`
	}
)

// Error implements the error interface.
func (e *InvalidLogLevelError) Error() string {
	return fmt.Sprintf("invalid log level %q (valid: debug, info, warn, error)", e.Value)
}

// Unwrap returns ErrInvalidLogLevel so callers can use errors.Is for programmatic detection.
func (e *InvalidLogLevelError) Unwrap() error { return ErrInvalidLogLevel }

// Validate returns an error if the LogLevel is not one of the defined levels.
func (l LogLevel) Validate() error {
	switch l {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
		return nil
	default:
		return &InvalidLogLevelError{Value: l}
	}
}

// String returns the string representation of the LogLevel.
func (l LogLevel) String() string { return string(l) }

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		Log:       LogConfig{Level: LogLevelWarn},
		SelfNames: []string{"multicall", "busybox"},
		Install:   InstallConfig{Dir: "/usr/local/bin"},
		Shell:     ShellConfig{BuiltinApplets: true},
		Accounts: AccountsConfig{
			PasswdFile: "/etc/passwd",
			GroupFile:  "/etc/group",
		},
		Mounts: MountsConfig{Table: "/proc/mounts"},
	}
}

// IsSelfName reports whether name is one of the binary's own invocation names.
func (c *Config) IsSelfName(name string) bool {
	for _, n := range c.SelfNames {
		if n == name {
			return true
		}
	}
	return false
}
