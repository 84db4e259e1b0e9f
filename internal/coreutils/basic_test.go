// SPDX-License-Identifier: MPL-2.0

package coreutils

import (
	"context"
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/invowk/multicall/internal/applet"
)

func TestEcho(t *testing.T) {
	t.Parallel()

	tests := []struct {
		args []string
		want string
	}{
		{nil, "\n"},
		{[]string{"hello", "world"}, "hello world\n"},
		{[]string{"-n", "no", "newline"}, "no newline"},
		{[]string{"-n", "-n", "x"}, "x"},
		{[]string{"-e", "x"}, "-e x\n"},
		{[]string{"a", "-n"}, "a -n\n"},
	}

	for _, tt := range tests {
		r := run(t, "", append([]string{"echo"}, tt.args...)...)
		r.expectSuccess(t)
		if r.stdout != tt.want {
			t.Errorf("echo %v = %q, want %q", tt.args, r.stdout, tt.want)
		}
	}
}

func TestTrueFalse(t *testing.T) {
	t.Parallel()

	run(t, "", "true").expectSuccess(t)
	if r := run(t, "", "false"); r.code != 1 || r.stderr != "" {
		t.Errorf("false = %d, %q; want a silent 1", r.code, r.stderr)
	}
	if r := run(t, "", "/bin/true", "extra"); r.code != 1 || !strings.HasPrefix(r.stderr, "Usage:\ttrue") {
		t.Errorf("true with an argument = %d, %q", r.code, r.stderr)
	}
}

func TestPwd(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	r := run(t, dir, "pwd")
	r.expectSuccess(t)
	if r.stdout != dir+"\n" {
		t.Errorf("pwd = %q, want %q", r.stdout, dir)
	}
}

func TestLength(t *testing.T) {
	t.Parallel()

	r := run(t, "", "length", "hello")
	r.expectSuccess(t)
	if r.stdout != "5\n" {
		t.Errorf("length = %q", r.stdout)
	}
	if r := run(t, "", "length", "a", "b"); r.code != 1 {
		t.Errorf("length with two arguments = %d, want a usage error", r.code)
	}
}

func TestClear(t *testing.T) {
	t.Parallel()

	if r := run(t, "", "clear"); r.stdout != "\033[H\033[J" {
		t.Errorf("clear = %q", r.stdout)
	}
}

func TestLogname_Environment(t *testing.T) {
	t.Parallel()

	var out strings.Builder
	inv := &applet.Invocation{
		HandlerContext: applet.HandlerContext{
			Stdin:  strings.NewReader(""),
			Stdout: &out,
			LookupEnv: func(name string) (string, bool) {
				if name == "LOGNAME" {
					return "carol", true
				}
				return "", false
			},
		},
	}
	if err := lognameMain(context.Background(), inv, []string{"logname"}); err != nil {
		t.Fatalf("logname error = %v", err)
	}
	if out.String() != "carol\n" {
		t.Errorf("logname = %q", out.String())
	}

	inv.LookupEnv = func(string) (string, bool) { return "", false }
	if err := lognameMain(context.Background(), inv, []string{"logname"}); err == nil || err.Error() != "no login name" {
		t.Errorf("logname without a name = %v", err)
	}
}

// failingWriter accepts n writes and then fails.
type failingWriter struct{ n int }

func (w *failingWriter) Write(p []byte) (int, error) {
	if w.n == 0 {
		return 0, io.ErrClosedPipe
	}
	w.n--
	return len(p), nil
}

func TestYes(t *testing.T) {
	t.Parallel()

	var out strings.Builder
	w := io.MultiWriter(&out, &failingWriter{n: 3})
	inv := &applet.Invocation{HandlerContext: applet.HandlerContext{Stdout: w}}

	err := yesMain(context.Background(), inv, []string{"yes", "a", "b"})
	var exitErr *applet.ExitError
	if !errors.As(err, &exitErr) || exitErr.Code != 1 {
		t.Fatalf("yes error = %v, want an ExitError", err)
	}
	if !strings.HasPrefix(out.String(), "a b\na b\na b\n") {
		t.Errorf("yes output = %q", out.String())
	}
}

func TestYes_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	inv := &applet.Invocation{HandlerContext: applet.HandlerContext{Stdout: io.Discard}}
	if err := yesMain(ctx, inv, []string{"yes"}); !errors.Is(err, context.Canceled) {
		t.Errorf("yes error = %v, want context.Canceled", err)
	}
}

func TestParseSleepDuration(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"0", 0, false},
		{"2", 2 * time.Second, false},
		{"1.5", 1500 * time.Millisecond, false},
		{"3s", 3 * time.Second, false},
		{"2m", 2 * time.Minute, false},
		{"1h", time.Hour, false},
		{"1d", 24 * time.Hour, false},
		{"", 0, true},
		{"-1", 0, true},
		{"abc", 0, true},
		{"1e3", 0, true},
		{"5x", 0, true},
		{"inf", 0, true},
		{"infinity", 0, true},
		{"nan", 0, true},
		{"NaNs", 0, true},
		{"99999999999999999999", time.Duration(math.MaxInt64), false},
		{"300000000000d", time.Duration(math.MaxInt64), false},
	}

	for _, tt := range tests {
		got, err := parseSleepDuration(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseSleepDuration(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("parseSleepDuration(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSleep(t *testing.T) {
	t.Parallel()

	run(t, "", "sleep", "0", "0.01").expectSuccess(t)
	run(t, "", "sleep", "soon").expectFailure(t, 1, "sleep: invalid time interval \"soon\"")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start := time.Now()
	harness{ctx: ctx}.run(t, "sleep", "60").expectFailure(t, 1, "context canceled")
	if time.Since(start) > 10*time.Second {
		t.Error("sleep should stop on cancellation")
	}
}

func TestKill(t *testing.T) {
	t.Parallel()

	self := strconv.Itoa(os.Getpid())
	run(t, "", "kill", "-0", self).expectSuccess(t)
	run(t, "", "kill", "-SIGCONT", self).expectSuccess(t)
	run(t, "", "kill", "-cont", self).expectSuccess(t)

	run(t, "", "kill", "-BOGUS", self).expectFailure(t, 1, "kill: invalid signal: BOGUS")
	run(t, "", "kill", "-9").expectFailure(t, 1, "kill: missing process id")
	run(t, "", "kill", "-0", "pid").expectFailure(t, 1, "kill: invalid process id: pid")

	r := run(t, "", "kill", "-l")
	r.expectSuccess(t)
	for _, want := range []string{" 1) HUP", " 9) KILL", "15) TERM"} {
		if !strings.Contains(r.stdout, want) {
			t.Errorf("kill -l = %q, want %q", r.stdout, want)
		}
	}
}

func TestParseSignal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{"9", 9, true},
		{"HUP", 1, true},
		{"SIGTERM", 15, true},
		{"usr1", 10, true},
		{"NOPE", 0, false},
		{"100", 0, false},
	}
	for _, tt := range tests {
		got, ok := parseSignal(tt.in)
		if ok != tt.ok || (ok && int(got) != tt.want) {
			t.Errorf("parseSignal(%q) = %d, %v; want %d, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestCoreCommands(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "one.txt"), "1")
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}

	r := run(t, dir, "ls")
	r.expectSuccess(t)
	for _, want := range []string{"one.txt", "sub"} {
		if !strings.Contains(r.stdout, want) {
			t.Errorf("ls = %q, want %q", r.stdout, want)
		}
	}

	run(t, dir, "cp", "one.txt", "two.txt").expectSuccess(t)
	if readFile(t, filepath.Join(dir, "two.txt")) != "1" {
		t.Error("cp should copy relative to the working directory")
	}

	run(t, dir, "mv", "two.txt", "sub").expectSuccess(t)
	if exists(filepath.Join(dir, "two.txt")) || !exists(filepath.Join(dir, "sub", "two.txt")) {
		t.Error("mv should move the file into the directory")
	}

	if r := run(t, dir, "cp", "missing", "x"); r.code != 1 || r.stderr == "" {
		t.Errorf("cp missing = %d, %q; want a reported failure", r.code, r.stderr)
	}
}
