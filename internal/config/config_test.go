// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/invowk/multicall/internal/issue"
)

// isolated returns options that never read the real user or system config.
func isolated(t *testing.T) LoadOptions {
	t.Helper()
	return LoadOptions{ConfigDirPath: t.TempDir(), SystemDirPath: t.TempDir()}
}

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()

	path := filepath.Join(dir, ConfigFileName+"."+ConfigFileExt)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Parallel()

	cfg, path, err := Load(context.Background(), isolated(t))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if path != "" {
		t.Errorf("Load() path = %q, want none", path)
	}

	want := DefaultConfig()
	if cfg.Log.Level != want.Log.Level {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, want.Log.Level)
	}
	if !slices.Equal(cfg.SelfNames, want.SelfNames) {
		t.Errorf("SelfNames = %v, want %v", cfg.SelfNames, want.SelfNames)
	}
	if cfg.Accounts.PasswdFile != "/etc/passwd" || cfg.Mounts.Table != "/proc/mounts" {
		t.Errorf("unexpected default paths: %+v %+v", cfg.Accounts, cfg.Mounts)
	}
	if !cfg.Shell.BuiltinApplets {
		t.Error("Shell.BuiltinApplets should default to true")
	}
}

func TestLoad_UserFile(t *testing.T) {
	t.Parallel()

	opts := isolated(t)
	want := writeConfig(t, opts.ConfigDirPath, `
log: level: "debug"
self_names: ["bb"]
pager: lines: 10
accounts: passwd_file: "/tmp/passwd"
`)

	cfg, path, err := Load(context.Background(), opts)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if path != want {
		t.Errorf("Load() path = %q, want %q", path, want)
	}
	if cfg.Log.Level != LogLevelDebug {
		t.Errorf("Log.Level = %q, want debug", cfg.Log.Level)
	}
	if !slices.Equal(cfg.SelfNames, []string{"bb"}) {
		t.Errorf("SelfNames = %v, want [bb]", cfg.SelfNames)
	}
	if cfg.Pager.Lines != 10 {
		t.Errorf("Pager.Lines = %d, want 10", cfg.Pager.Lines)
	}
	if cfg.Accounts.PasswdFile != "/tmp/passwd" {
		t.Errorf("Accounts.PasswdFile = %q", cfg.Accounts.PasswdFile)
	}
	if cfg.Accounts.GroupFile != "/etc/group" {
		t.Errorf("unset keys should keep their defaults, got GroupFile = %q", cfg.Accounts.GroupFile)
	}
}

func TestLoad_SystemFileFallback(t *testing.T) {
	t.Parallel()

	opts := isolated(t)
	want := writeConfig(t, opts.SystemDirPath, `mounts: table: "/etc/mtab"`)

	cfg, path, err := Load(context.Background(), opts)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if path != want || cfg.Mounts.Table != "/etc/mtab" {
		t.Errorf("Load() = %q, %q; want the system file", path, cfg.Mounts.Table)
	}

	// The per-user file wins over the system file.
	userPath := writeConfig(t, opts.ConfigDirPath, `mounts: table: "/proc/self/mounts"`)
	cfg, path, err = Load(context.Background(), opts)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if path != userPath || cfg.Mounts.Table != "/proc/self/mounts" {
		t.Errorf("Load() = %q, %q; want the user file", path, cfg.Mounts.Table)
	}
}

func TestLoad_SchemaViolations(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
	}{
		{"bad log level", `log: level: "loud"`},
		{"unknown field", `colour: "red"`},
		{"negative pager lines", `pager: lines: -1`},
		{"slash in self name", `self_names: ["bin/multicall"]`},
		{"wrong type", `install: hardlink: "yes"`},
		{"syntax error", `log: {`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			opts := isolated(t)
			path := writeConfig(t, opts.ConfigDirPath, tt.content)

			_, _, err := Load(context.Background(), opts)
			if err == nil {
				t.Fatal("Load() should reject the file")
			}
			var ae *issue.ActionableError
			if !errors.As(err, &ae) {
				t.Fatalf("Load() error = %T, want *issue.ActionableError", err)
			}
			if ae.Resource != path {
				t.Errorf("Resource = %q, want %q", ae.Resource, path)
			}
			if !ae.HasSuggestions() {
				t.Error("config errors should carry suggestions")
			}
		})
	}
}

func TestLoad_ExplicitFileMissing(t *testing.T) {
	t.Parallel()

	opts := isolated(t)
	opts.ConfigFilePath = filepath.Join(t.TempDir(), "nope.cue")

	_, _, err := Load(context.Background(), opts)
	if err == nil || !strings.Contains(err.Error(), "config file not found") {
		t.Errorf("Load() error = %v, want a not found error", err)
	}
}

func TestLoad_ExplicitFile(t *testing.T) {
	t.Parallel()

	opts := isolated(t)
	writeConfig(t, opts.ConfigDirPath, `log: level: "error"`)
	explicit := writeConfig(t, t.TempDir(), `log: level: "info"`)
	opts.ConfigFilePath = explicit

	cfg, path, err := Load(context.Background(), opts)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if path != explicit || cfg.Log.Level != LogLevelInfo {
		t.Errorf("Load() = %q, %q; want the explicit file only", path, cfg.Log.Level)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("MULTICALL_LOG_LEVEL", "info")
	t.Setenv("MULTICALL_PAGER_LINES", "7")

	cfg, _, err := Load(context.Background(), isolated(t))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Log.Level != LogLevelInfo {
		t.Errorf("Log.Level = %q, want info from the environment", cfg.Log.Level)
	}
	if cfg.Pager.Lines != 7 {
		t.Errorf("Pager.Lines = %d, want 7 from the environment", cfg.Pager.Lines)
	}
}

func TestLoad_EnvOverrideInvalid(t *testing.T) {
	t.Setenv("MULTICALL_LOG_LEVEL", "chatty")

	_, _, err := Load(context.Background(), isolated(t))
	if !errors.Is(err, ErrInvalidLogLevel) {
		t.Errorf("Load() error = %v, want ErrInvalidLogLevel", err)
	}
}

func TestLoad_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := Load(ctx, isolated(t)); !errors.Is(err, context.Canceled) {
		t.Errorf("Load() error = %v, want context.Canceled", err)
	}
}

func TestGenerateCUE_RoundTrip(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Log.Level = LogLevelDebug
	cfg.SelfNames = []string{"mc"}
	cfg.Install.Hardlink = true
	cfg.Pager.Lines = 40

	opts := isolated(t)
	writeConfig(t, opts.ConfigDirPath, GenerateCUE(cfg))

	got, _, err := Load(context.Background(), opts)
	if err != nil {
		t.Fatalf("generated config does not load: %v", err)
	}
	if got.Log.Level != LogLevelDebug || !got.Install.Hardlink || got.Pager.Lines != 40 || !slices.Equal(got.SelfNames, []string{"mc"}) {
		t.Errorf("round trip = %+v", got)
	}
}

func TestLogLevel_Validate(t *testing.T) {
	t.Parallel()

	for _, l := range []LogLevel{LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError} {
		if err := l.Validate(); err != nil {
			t.Errorf("%q.Validate() = %v", l, err)
		}
	}
	err := LogLevel("trace").Validate()
	var invalid *InvalidLogLevelError
	if !errors.As(err, &invalid) || invalid.Value != "trace" {
		t.Errorf("Validate() = %v, want *InvalidLogLevelError", err)
	}
}

func TestConfig_IsSelfName(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	if !cfg.IsSelfName("busybox") || !cfg.IsSelfName("multicall") {
		t.Error("default self names should be recognized")
	}
	if cfg.IsSelfName("cat") {
		t.Error("applet names are not self names")
	}
}
