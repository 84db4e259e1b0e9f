// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/invowk/multicall/internal/issue"

	"github.com/spf13/viper"
)

const (
	// AppName is the application name.
	AppName = "multicall"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"
	// EnvPrefix prefixes every environment override.
	EnvPrefix = "MULTICALL"
	// EnvConfigFile names an explicit config file.
	EnvConfigFile = EnvPrefix + "_CONFIG"

	systemConfigDir = "/etc/multicall"
)

//go:embed config_schema.cue
var configSchema string

// LoadOptions defines explicit configuration loading inputs.
type LoadOptions struct {
	// ConfigFilePath forces loading from a specific config file when set.
	ConfigFilePath string
	// ConfigDirPath overrides the per-user config directory when set.
	ConfigDirPath string
	// SystemDirPath overrides the system-wide config directory when set.
	SystemDirPath string
}

// ConfigDir returns the per-user configuration directory,
// $XDG_CONFIG_HOME/multicall or ~/.config/multicall.
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, ".config")
	}
	return filepath.Join(configDir, AppName), nil
}

// Load reads the configuration. It returns the built-in defaults merged with
// the first config file found and with environment overrides, plus the path
// of the file used ("" when none was found).
func Load(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	select {
	case <-ctx.Done():
		return nil, "", fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := newViper()

	path, err := locate(opts)
	if err != nil {
		return nil, "", err
	}
	if path != "" {
		if err := loadCUEIntoViper(v, path); err != nil {
			return nil, "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(path).
				WithSuggestion("Check that the file contains valid CUE syntax").
				WithSuggestion("Verify the configuration values match the expected schema").
				WithSuggestion("Use 'multicall config dump' to print a valid default file").
				Wrap(err).
				BuildError()
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}

	// Environment overrides bypass the CUE schema.
	if err := cfg.Log.Level.Validate(); err != nil {
		return nil, "", issue.NewErrorContext().
			WithOperation("validate configuration").
			WithResource("log.level").
			WithSuggestion("Set " + EnvPrefix + "_LOG_LEVEL to debug, info, warn or error").
			Wrap(err).
			BuildError()
	}

	return &cfg, path, nil
}

// newViper creates a Viper instance carrying the defaults and the
// environment bindings.
func newViper() *viper.Viper {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("log.level", string(defaults.Log.Level))
	v.SetDefault("self_names", defaults.SelfNames)
	v.SetDefault("install.dir", defaults.Install.Dir)
	v.SetDefault("install.hardlink", defaults.Install.Hardlink)
	v.SetDefault("shell.builtin_applets", defaults.Shell.BuiltinApplets)
	v.SetDefault("accounts.passwd_file", defaults.Accounts.PasswdFile)
	v.SetDefault("accounts.group_file", defaults.Accounts.GroupFile)
	v.SetDefault("mounts.table", defaults.Mounts.Table)
	v.SetDefault("pager.lines", defaults.Pager.Lines)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// locate returns the config file to load, or "" when none exists.
// An explicit path must exist.
func locate(opts LoadOptions) (string, error) {
	if opts.ConfigFilePath != "" {
		if !fileExists(opts.ConfigFilePath) {
			return "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(opts.ConfigFilePath).
				WithSuggestion("Verify the file path is correct").
				WithSuggestion("Check that the file exists and is readable").
				Wrap(fmt.Errorf("config file not found: %s", opts.ConfigFilePath)).
				BuildError()
		}
		return opts.ConfigFilePath, nil
	}

	userDir := opts.ConfigDirPath
	if userDir == "" {
		dir, err := ConfigDir()
		if err != nil {
			return "", err
		}
		userDir = dir
	}
	systemDir := opts.SystemDirPath
	if systemDir == "" {
		systemDir = systemConfigDir
	}

	for _, dir := range []string{userDir, systemDir} {
		path := filepath.Join(dir, ConfigFileName+"."+ConfigFileExt)
		if fileExists(path) {
			return path, nil
		}
	}
	return "", nil
}

// fileExists checks if a file exists and is not a directory
func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// CreateDefaultConfig writes the default configuration to the per-user
// config directory unless a file already exists there. It returns the path.
func CreateDefaultConfig() (string, error) {
	cfgDir, err := ConfigDir()
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(cfgDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	cfgPath := filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt)
	if _, err := os.Stat(cfgPath); err == nil {
		return cfgPath, nil
	}

	if err := os.WriteFile(cfgPath, []byte(GenerateCUE(DefaultConfig())), 0o644); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}
	return cfgPath, nil
}

// GenerateCUE generates a CUE representation of the configuration.
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// multicall configuration file\n\n")

	fmt.Fprintf(&sb, "log: level: %q\n", cfg.Log.Level)

	sb.WriteString("\nself_names: [")
	for i, name := range cfg.SelfNames {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%q", name)
	}
	sb.WriteString("]\n")

	sb.WriteString("\ninstall: {\n")
	fmt.Fprintf(&sb, "\tdir:      %q\n", cfg.Install.Dir)
	fmt.Fprintf(&sb, "\thardlink: %v\n", cfg.Install.Hardlink)
	sb.WriteString("}\n")

	fmt.Fprintf(&sb, "\nshell: builtin_applets: %v\n", cfg.Shell.BuiltinApplets)

	sb.WriteString("\naccounts: {\n")
	fmt.Fprintf(&sb, "\tpasswd_file: %q\n", cfg.Accounts.PasswdFile)
	fmt.Fprintf(&sb, "\tgroup_file:  %q\n", cfg.Accounts.GroupFile)
	sb.WriteString("}\n")

	fmt.Fprintf(&sb, "\nmounts: table: %q\n", cfg.Mounts.Table)
	fmt.Fprintf(&sb, "\npager: lines: %d\n", cfg.Pager.Lines)

	return sb.String()
}
