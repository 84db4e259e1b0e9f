// SPDX-License-Identifier: MPL-2.0

package applet

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"testing"

	"github.com/invowk/multicall/internal/issue"
	"github.com/invowk/multicall/pkg/types"

	"github.com/spf13/pflag"
)

type testEnv struct {
	d      *Dispatcher
	stdout *bytes.Buffer
	stderr *bytes.Buffer
}

func newTestEnv(t *testing.T, descs ...*Descriptor) *testEnv {
	t.Helper()

	r := NewRegistry()
	for _, d := range descs {
		r.Register(d)
	}

	var stdout, stderr bytes.Buffer
	return &testEnv{
		d: &Dispatcher{
			Registry: r,
			Env: HandlerContext{
				Stdin:  strings.NewReader(""),
				Stdout: &stdout,
				Stderr: &stderr,
				Dir:    t.TempDir(),
			},
		},
		stdout: &stdout,
		stderr: &stderr,
	}
}

// recorder is an entry point that remembers whether and how it was called.
type recorder struct {
	calls int
	argv  []string
	inv   *Invocation
	err   error
}

func (r *recorder) entry(_ context.Context, inv *Invocation, argv []string) error {
	r.calls++
	r.argv = argv
	r.inv = inv
	return r.err
}

func TestDispatch_EchoWithoutArguments(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	env := newTestEnv(t, &Descriptor{Name: "echo", Usage: "echo [ARG]...", MinArgs: 0, MaxArgs: Unbounded, Entry: MainFunc(rec.entry)})

	desc, ok := env.d.Registry.Resolve("/usr/bin/echo")
	if !ok {
		t.Fatal("Resolve(/usr/bin/echo) should find echo")
	}

	code := env.d.Dispatch(context.Background(), desc, []string{"echo"})
	if code != 0 {
		t.Errorf("Dispatch() = %d, want 0", code)
	}
	if rec.calls != 1 {
		t.Errorf("entry called %d times, want 1", rec.calls)
	}
	if env.stderr.Len() != 0 {
		t.Errorf("unexpected stderr: %q", env.stderr.String())
	}
}

func TestDispatch_TooFewArguments(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	env := newTestEnv(t, &Descriptor{Name: "ln", Usage: "ln [OPTION] SOURCE DEST", MinArgs: 2, MaxArgs: Unbounded, Entry: MainFunc(rec.entry)})

	code := env.d.Run(context.Background(), []string{"ln", "onlyone"})
	if code == 0 {
		t.Error("Run() should fail with too few arguments")
	}
	if rec.calls != 0 {
		t.Error("entry must not run on a usage error")
	}
	if got := env.stderr.String(); got != "Usage:\tln [OPTION] SOURCE DEST\n" {
		t.Errorf("stderr = %q, want the ln usage", got)
	}
}

func TestDispatch_ArgumentCountContract(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		min     int
		max     int
		argc    int
		wantRun bool
	}{
		{"below min", 1, Unbounded, 0, false},
		{"at min", 1, Unbounded, 1, true},
		{"unbounded many", 1, Unbounded, 50, true},
		{"at max", 0, 1, 1, true},
		{"above max", 0, 1, 2, false},
		{"exactly one", 1, 1, 1, true},
		{"exactly one given two", 1, 1, 2, false},
		{"no args allowed", 0, 0, 0, true},
		{"no args given one", 0, 0, 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := &recorder{}
			env := newTestEnv(t, &Descriptor{Name: "x", Usage: "x ARGS", MinArgs: tt.min, MaxArgs: tt.max, Entry: MainFunc(rec.entry)})

			argv := []string{"x"}
			for i := range tt.argc {
				argv = append(argv, fmt.Sprintf("a%d", i))
			}

			code := env.d.Run(context.Background(), argv)
			if ran := rec.calls == 1; ran != tt.wantRun {
				t.Errorf("entry ran = %v, want %v", ran, tt.wantRun)
			}
			if tt.wantRun && code != 0 {
				t.Errorf("Run() = %d, want 0", code)
			}
			if !tt.wantRun {
				if code != ExitFailure {
					t.Errorf("Run() = %d, want %d", code, ExitFailure)
				}
				if !strings.Contains(env.stderr.String(), "Usage:\tx ARGS") {
					t.Errorf("stderr = %q, want usage text", env.stderr.String())
				}
			}
		})
	}
}

func TestDispatch_HelpIntercepted(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	env := newTestEnv(t, &Descriptor{Name: "cat", Usage: "cat [FILE]...", MaxArgs: Unbounded, Entry: MainFunc(rec.entry)})

	code := env.d.Run(context.Background(), []string{"cat", "--help"})
	if code != ExitFailure {
		t.Errorf("Run(--help) = %d, want %d", code, ExitFailure)
	}
	if rec.calls != 0 {
		t.Error("entry must not run on --help")
	}
	if !strings.Contains(env.stderr.String(), "cat [FILE]...") {
		t.Errorf("stderr = %q, want usage text", env.stderr.String())
	}
}

func TestDispatch_HelpPassedThroughWithoutUsage(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	env := newTestEnv(t, &Descriptor{Name: "echo", MaxArgs: Unbounded, Entry: MainFunc(rec.entry)})

	if code := env.d.Run(context.Background(), []string{"echo", "--help"}); code != 0 {
		t.Errorf("Run() = %d, want 0", code)
	}
	if rec.calls != 1 {
		t.Error("applets without usage text should receive --help")
	}
}

func TestDispatch_HelpOnlyAsFirstArgument(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	env := newTestEnv(t, &Descriptor{Name: "echo", Usage: "echo [ARG]...", MaxArgs: Unbounded, Entry: MainFunc(rec.entry)})

	if code := env.d.Run(context.Background(), []string{"echo", "a", "--help"}); code != 0 {
		t.Errorf("Run() = %d, want 0", code)
	}
	if rec.calls != 1 {
		t.Error("--help after the first argument is an ordinary argument")
	}
}

func TestDispatch_FreshInvocation(t *testing.T) {
	t.Parallel()

	var dirty []bool
	env := newTestEnv(t, &Descriptor{Name: "chmod", Usage: "chmod MODE FILE", MaxArgs: Unbounded, Entry: MainFunc(func(_ context.Context, inv *Invocation, _ []string) error {
		dirty = append(dirty, inv.Recursive || inv.Force || inv.MakeParents || inv.ChangeOwner || inv.ChangeGroup || inv.ModeOr != 0o777)
		inv.Recursive = true
		inv.ModeOr = 0
		return nil
	})})

	env.d.Run(context.Background(), []string{"chmod"})
	env.d.Run(context.Background(), []string{"chmod"})
	if len(dirty) != 2 || dirty[0] || dirty[1] {
		t.Errorf("flags seen by entry = %v, want two clean invocations", dirty)
	}

	inv := newInvocation(env.d, &Descriptor{Name: "x", Entry: MainFunc(noop)})
	if inv.ModeAnd != ^uint32(0) {
		t.Errorf("ModeAnd = %o, want all ones", inv.ModeAnd)
	}
	if inv.ModeOr != 0o777 {
		t.Errorf("ModeOr = %o, want 0777", inv.ModeOr)
	}
	if inv.Applet.Name != "x" {
		t.Errorf("Applet back-reference = %q, want %q", inv.Applet.Name, "x")
	}
	if inv.Config == nil {
		t.Error("Config should default to the built-in configuration")
	}
}

func TestDispatch_EntryError(t *testing.T) {
	t.Parallel()

	rec := &recorder{err: errors.New("permission denied")}
	env := newTestEnv(t, &Descriptor{Name: "sync", MaxArgs: 0, Entry: MainFunc(rec.entry)})

	code := env.d.Run(context.Background(), []string{"sync"})
	if code != ExitFailure {
		t.Errorf("Run() = %d, want %d", code, ExitFailure)
	}
	if got := env.stderr.String(); got != "sync: permission denied\n" {
		t.Errorf("stderr = %q, want %q", got, "sync: permission denied\n")
	}
}

func TestDispatch_ExitError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantCode   types.ExitCode
		wantStderr string
	}{
		{"silent", &ExitError{Code: 1}, 1, ""},
		{"custom code", &ExitError{Code: 2, Err: errors.New("bad pattern")}, 2, "grep: bad pattern\n"},
		{"wrapped", fmt.Errorf("outer: %w", &ExitError{Code: 3}), 3, ""},
		{"failure helper", Failure(), 1, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := &recorder{err: tt.err}
			env := newTestEnv(t, &Descriptor{Name: "grep", MaxArgs: Unbounded, Entry: MainFunc(rec.entry)})

			if code := env.d.Run(context.Background(), []string{"grep"}); code != tt.wantCode {
				t.Errorf("Run() = %d, want %d", code, tt.wantCode)
			}
			if got := env.stderr.String(); got != tt.wantStderr {
				t.Errorf("stderr = %q, want %q", got, tt.wantStderr)
			}
		})
	}
}

func TestDispatch_UsageErrorFromEntry(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, &Descriptor{Name: "kill", Usage: "kill [-SIG] PID...", MaxArgs: Unbounded, Entry: MainFunc(func(_ context.Context, inv *Invocation, _ []string) error {
		return inv.UsageError("bad signal name")
	})})

	if code := env.d.Run(context.Background(), []string{"kill"}); code != ExitFailure {
		t.Errorf("Run() = %d, want %d", code, ExitFailure)
	}
	want := "kill: bad signal name\nUsage:\tkill [-SIG] PID...\n"
	if got := env.stderr.String(); got != want {
		t.Errorf("stderr = %q, want %q", got, want)
	}
}

func TestDispatch_ActionableError(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, &Descriptor{Name: "chown", MaxArgs: Unbounded, Entry: MainFunc(func(context.Context, *Invocation, []string) error {
		return issue.NewErrorContext().
			WithOperation("look up user").
			WithResource("nobody-here").
			Wrap(errors.New("unknown user name")).
			BuildError()
	})})

	env.d.Run(context.Background(), []string{"chown"})
	want := "chown: failed to look up user: nobody-here: unknown user name\n"
	if got := env.stderr.String(); got != want {
		t.Errorf("stderr = %q, want %q", got, want)
	}
}

func TestRun_NotFound(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, &Descriptor{Name: "echo", MaxArgs: Unbounded, Entry: MainFunc(noop)})

	code := env.d.Run(context.Background(), []string{"nonexistentapplet"})
	if code != ExitNotFound {
		t.Errorf("Run() = %d, want %d", code, ExitNotFound)
	}
	if !strings.Contains(env.stderr.String(), "nonexistentapplet") {
		t.Errorf("stderr = %q, want a diagnostic naming the invocation", env.stderr.String())
	}
}

func TestRun_NotFoundNamesBasename(t *testing.T) {
	t.Parallel()

	tests := []struct {
		argv0 string
		want  string
	}{
		{"frob", "multicall: called as frob: applet not found\n"},
		{"/usr/local/bin/frob", "multicall: called as frob: applet not found\n"},
		{"./bin/upper", "multicall: called as upper: applet not found\n"},
	}

	for _, tt := range tests {
		t.Run(tt.argv0, func(t *testing.T) {
			t.Parallel()

			env := newTestEnv(t, &Descriptor{Name: "echo", MaxArgs: Unbounded, Entry: MainFunc(noop)})
			if code := env.d.Run(context.Background(), []string{tt.argv0}); code != ExitNotFound {
				t.Errorf("Run() = %d, want %d", code, ExitNotFound)
			}
			if got := env.stderr.String(); got != tt.want {
				t.Errorf("stderr = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLookupError_Is(t *testing.T) {
	t.Parallel()

	var err error = &LookupError{Name: "nope"}
	if !errors.Is(err, ErrAppletNotFound) {
		t.Error("LookupError should wrap ErrAppletNotFound")
	}
}

func TestFileAction(t *testing.T) {
	t.Parallel()

	var seen []string
	var parents bool
	desc := &Descriptor{
		Name:    "mkdir",
		Usage:   "mkdir [-p] DIR...",
		MinArgs: 1,
		MaxArgs: Unbounded,
		Entry: FileAction{
			Options: func(fs *pflag.FlagSet, inv *Invocation) {
				fs.BoolVarP(&inv.MakeParents, "parents", "p", false, "")
			},
			Action: func(_ context.Context, inv *Invocation, operand string) error {
				seen = append(seen, operand)
				parents = inv.MakeParents
				if operand == "bad" {
					return errors.New("bad: file exists")
				}
				return nil
			},
		},
	}
	env := newTestEnv(t, desc)

	code := env.d.Run(context.Background(), []string{"mkdir", "-p", "a", "bad", "c"})
	if code != ExitFailure {
		t.Errorf("Run() = %d, want %d", code, ExitFailure)
	}
	if got := strings.Join(seen, ","); got != "a,bad,c" {
		t.Errorf("operands = %q, want every operand visited", got)
	}
	if !parents {
		t.Error("-p should set MakeParents before the action runs")
	}
	if got := env.stderr.String(); got != "mkdir: bad: file exists\n" {
		t.Errorf("stderr = %q", got)
	}
}

func TestFileAction_MissingOperand(t *testing.T) {
	t.Parallel()

	called := false
	env := newTestEnv(t, &Descriptor{
		Name:    "rmdir",
		Usage:   "rmdir DIR...",
		MaxArgs: Unbounded,
		Entry: FileAction{Action: func(context.Context, *Invocation, string) error {
			called = true
			return nil
		}},
	})

	if code := env.d.Run(context.Background(), []string{"rmdir"}); code != ExitFailure {
		t.Errorf("Run() = %d, want %d", code, ExitFailure)
	}
	if called {
		t.Error("action must not run without operands")
	}
	if !strings.Contains(env.stderr.String(), "missing operand") {
		t.Errorf("stderr = %q, want a missing operand diagnostic", env.stderr.String())
	}
}

func TestFileAction_StdinDefault(t *testing.T) {
	t.Parallel()

	var seen []string
	env := newTestEnv(t, &Descriptor{
		Name:    "cat",
		MaxArgs: Unbounded,
		Entry: FileAction{Stdin: true, Action: func(_ context.Context, _ *Invocation, operand string) error {
			seen = append(seen, operand)
			return nil
		}},
	})

	if code := env.d.Run(context.Background(), []string{"cat"}); code != 0 {
		t.Errorf("Run() = %d, want 0", code)
	}
	if len(seen) != 1 || seen[0] != StdinOperand {
		t.Errorf("operands = %v, want [%s]", seen, StdinOperand)
	}
}

func TestFileAction_BadOption(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, &Descriptor{
		Name:    "touch",
		Usage:   "touch [-c] FILE...",
		MaxArgs: Unbounded,
		Entry:   FileAction{Action: func(context.Context, *Invocation, string) error { return nil }},
	})

	if code := env.d.Run(context.Background(), []string{"touch", "-z", "f"}); code != ExitFailure {
		t.Errorf("Run() = %d, want %d", code, ExitFailure)
	}
	if !strings.Contains(env.stderr.String(), "Usage:\ttouch [-c] FILE...") {
		t.Errorf("stderr = %q, want usage text", env.stderr.String())
	}
}

func TestInvocation_Path(t *testing.T) {
	t.Parallel()

	inv := &Invocation{HandlerContext: HandlerContext{Dir: "/work"}}
	if got := inv.Path("a/b"); got != "/work/a/b" {
		t.Errorf("Path(a/b) = %q, want /work/a/b", got)
	}
	if got := inv.Path("/abs"); got != "/abs" {
		t.Errorf("Path(/abs) = %q, want /abs", got)
	}

	inv.Dir = ""
	if got := inv.Path("rel"); got != "rel" {
		t.Errorf("Path(rel) with empty Dir = %q, want rel", got)
	}
}

func TestInvocation_Environ(t *testing.T) {
	t.Parallel()

	inv := &Invocation{HandlerContext: HandlerContext{
		ListEnv: func() []string { return []string{"A=1", "B=two"} },
	}}
	if got := inv.Environ(); !slices.Equal(got, []string{"A=1", "B=two"}) {
		t.Errorf("Environ() = %v, want the handler's list", got)
	}

	inv.ListEnv = nil
	if got := inv.Environ(); len(got) != len(os.Environ()) {
		t.Errorf("Environ() without ListEnv has %d entries, want the process environment", len(got))
	}
}
