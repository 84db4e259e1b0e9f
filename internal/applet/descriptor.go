// SPDX-License-Identifier: MPL-2.0

package applet

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/pflag"
)

// Unbounded is the MaxArgs value of applets accepting any number of arguments.
const Unbounded = -1

// StdinOperand is the operand that names standard input.
const StdinOperand = "-"

type (
	// Descriptor describes one registered applet. Descriptors are immutable
	// once registered.
	Descriptor struct {
		// Name is the invocation name, unique within a registry.
		Name string
		// Usage is the help text printed on usage errors.
		Usage string
		// MinArgs is the minimum number of arguments, excluding argv[0].
		MinArgs int
		// MaxArgs is the maximum number of arguments, or Unbounded.
		MaxArgs int
		// Entry runs the applet.
		Entry Entry
	}

	// Entry is the entry point of an applet. It is implemented by MainFunc and
	// FileAction only.
	Entry interface {
		run(ctx context.Context, inv *Invocation, argv []string) error
	}

	// MainFunc is a full applet entry receiving the whole argument vector,
	// argv[0] included.
	MainFunc func(ctx context.Context, inv *Invocation, argv []string) error

	// FileAction is an entry applying the same action to every operand.
	FileAction struct {
		// Options registers the applet's flags. It may bind them to fields of
		// the Invocation. Optional.
		Options func(fs *pflag.FlagSet, inv *Invocation)
		// Stdin runs the action once on StdinOperand when no operand is given.
		// Without it, a missing operand is a usage error.
		Stdin bool
		// Action processes one operand.
		Action func(ctx context.Context, inv *Invocation, operand string) error
	}
)

func (f MainFunc) run(ctx context.Context, inv *Invocation, argv []string) error {
	return f(ctx, inv, argv)
}

func (a FileAction) run(ctx context.Context, inv *Invocation, argv []string) error {
	fs := inv.FlagSet()
	if a.Options != nil {
		a.Options(fs, inv)
	}
	operands, err := inv.Parse(fs, argv[1:])
	if err != nil {
		return err
	}

	if len(operands) == 0 {
		if !a.Stdin {
			return inv.UsageError("missing operand")
		}
		operands = []string{StdinOperand}
	}

	failed := false
	for _, operand := range operands {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := a.Action(ctx, inv, operand); err != nil {
			inv.Report(err)
			failed = true
		}
	}
	if failed {
		return Failure()
	}
	return nil
}

// validate checks the descriptor invariants.
func (d *Descriptor) validate() error {
	switch {
	case d.Name == "":
		return errors.New("empty applet name")
	case d.Entry == nil:
		return fmt.Errorf("applet %q has no entry", d.Name)
	case d.MinArgs < 0:
		return fmt.Errorf("applet %q: negative minimum argument count %d", d.Name, d.MinArgs)
	case d.MaxArgs >= 0 && d.MinArgs > d.MaxArgs:
		return fmt.Errorf("applet %q: minimum argument count %d exceeds maximum %d", d.Name, d.MinArgs, d.MaxArgs)
	}
	return nil
}

// acceptsArgCount reports whether argc arguments satisfy the descriptor's
// argument-count contract.
func (d *Descriptor) acceptsArgCount(argc int) bool {
	if argc < d.MinArgs {
		return false
	}
	return d.MaxArgs < 0 || argc <= d.MaxArgs
}
