// SPDX-License-Identifier: MPL-2.0

package coreutils

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/invowk/multicall/internal/applet"

	"golang.org/x/term"
)

const defaultPageLines = 23

func init() {
	applet.RegisterDefault(&applet.Descriptor{
		Name:    "more",
		Usage:   "more [FILE]...",
		MinArgs: 0,
		MaxArgs: applet.Unbounded,
		Entry: applet.FileAction{
			Stdin:  true,
			Action: moreAction,
		},
	})
}

// pager copies text to out, pausing after every lines lines until key
// returns. A lines value of zero disables paging.
type pager struct {
	out   io.Writer
	lines int
	key   func() (byte, error)
}

// page writes r to the pager output. name labels the prompt; it is empty for
// standard input.
func (p *pager) page(r io.Reader, name string) error {
	if p.lines <= 0 {
		_, err := io.Copy(p.out, r)
		return err
	}

	br := bufio.NewReader(r)
	shown, budget := 0, p.lines
	for {
		line, err := br.ReadString('\n')
		if line != "" {
			if budget == 0 {
				next, quit, promptErr := p.prompt(name, shown)
				if promptErr != nil {
					return promptErr
				}
				if quit {
					return nil
				}
				budget = next
			}
			if _, werr := io.WriteString(p.out, line); werr != nil {
				return werr
			}
			shown++
			budget--
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// prompt shows the position and waits for a key: space shows a page,
// return a line, q quits.
func (p *pager) prompt(name string, shown int) (next int, quit bool, err error) {
	msg := fmt.Sprintf("line: %d", shown)
	if name != "" {
		msg = name + " - " + msg
	}
	fmt.Fprint(p.out, msg)

	k, err := p.key()
	fmt.Fprint(p.out, "\r"+strings.Repeat(" ", len(msg))+"\r")
	if err != nil {
		return 0, false, err
	}

	switch k {
	case 'q', 'Q':
		return 0, true, nil
	case '\r', '\n':
		return 1, false, nil
	default:
		return p.lines, false, nil
	}
}

// newPager pages only when standard output is a terminal; keys are then read
// from the controlling terminal so that standard input can be paged.
func newPager(inv *applet.Invocation) (*pager, func(), error) {
	p := &pager{out: inv.Stdout}
	out, ok := inv.Stdout.(*os.File)
	if !ok || !term.IsTerminal(int(out.Fd())) {
		return p, func() {}, nil
	}

	tty, err := os.Open("/dev/tty")
	if err != nil {
		return nil, nil, err
	}

	p.lines = inv.Config.Pager.Lines
	if p.lines == 0 {
		p.lines = defaultPageLines
		if _, height, err := term.GetSize(int(out.Fd())); err == nil && height > 1 {
			p.lines = height - 1
		}
	}
	p.key = func() (byte, error) {
		state, err := term.MakeRaw(int(tty.Fd()))
		if err != nil {
			return 0, err
		}
		defer term.Restore(int(tty.Fd()), state) //nolint:errcheck

		var b [1]byte
		if _, err := tty.Read(b[:]); err != nil {
			return 0, err
		}
		return b[0], nil
	}
	return p, func() { tty.Close() }, nil
}

func moreAction(_ context.Context, inv *applet.Invocation, operand string) error {
	p, done, err := newPager(inv)
	if err != nil {
		return err
	}
	defer done()

	name := operand
	if operand == applet.StdinOperand {
		name = ""
	}
	return withOperand(inv, operand, func(r io.Reader) error {
		return p.page(r, name)
	})
}
