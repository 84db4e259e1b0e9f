// SPDX-License-Identifier: MPL-2.0

package coreutils

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"regexp"

	"github.com/invowk/multicall/internal/applet"
	"github.com/invowk/multicall/internal/fswalk"
)

// grepTrouble is the exit status of grep when an error occurred.
const grepTrouble = 2

func init() {
	applet.RegisterDefault(&applet.Descriptor{
		Name:    "grep",
		Usage:   "grep [-ivnhHclq] PATTERN [FILE]...",
		MinArgs: 1,
		MaxArgs: applet.Unbounded,
		Entry:   applet.MainFunc(grepMain),
	})
}

// grepOptions are the output controls of one grep run.
type grepOptions struct {
	ignoreCase, invert, lineNumbers bool
	noFilename, withFilename        bool
	count, filesWithMatches, quiet  bool
}

type grepper struct {
	grepOptions
	re           *regexp.Regexp
	out          io.Writer
	showFilename bool
}

// grep scans r and reports whether any line was selected.
func (g *grepper) grep(r io.Reader, name string) (bool, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	matches, lineNum := 0, 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		if g.re.MatchString(line) == g.invert {
			continue
		}
		matches++

		if g.quiet {
			return true, nil
		}
		if g.filesWithMatches {
			fmt.Fprintln(g.out, name)
			return true, nil
		}
		if g.count {
			continue
		}

		prefix := ""
		if g.showFilename {
			prefix = name + ":"
		}
		if g.lineNumbers {
			prefix += fmt.Sprintf("%d:", lineNum)
		}
		fmt.Fprintln(g.out, prefix+line)
	}
	if err := scanner.Err(); err != nil {
		return matches > 0, fswalk.NewIOError("read", name, err)
	}

	if g.count && !g.quiet {
		if g.showFilename {
			fmt.Fprintf(g.out, "%s:%d\n", name, matches)
		} else {
			fmt.Fprintln(g.out, matches)
		}
	}
	return matches > 0, nil
}

// grepMain exits 0 when a line was selected, 1 when none was and 2 on error.
func grepMain(_ context.Context, inv *applet.Invocation, argv []string) error {
	var opts grepOptions

	fs := inv.FlagSet()
	fs.BoolVarP(&opts.ignoreCase, "ignore-case", "i", false, "ignore case distinctions")
	fs.BoolVarP(&opts.invert, "invert-match", "v", false, "select non-matching lines")
	fs.BoolVarP(&opts.lineNumbers, "line-number", "n", false, "prefix each line with its line number")
	fs.BoolVarP(&opts.noFilename, "no-filename", "h", false, "suppress the file name prefix")
	fs.BoolVarP(&opts.withFilename, "with-filename", "H", false, "print the file name for each match")
	fs.BoolVarP(&opts.count, "count", "c", false, "print only a count of selected lines")
	fs.BoolVarP(&opts.filesWithMatches, "files-with-matches", "l", false, "print only names of files with selected lines")
	fs.BoolVarP(&opts.quiet, "quiet", "q", false, "print nothing, exit 0 on the first match")
	operands, err := inv.Parse(fs, argv[1:])
	if err != nil {
		return err
	}
	if len(operands) == 0 {
		return inv.UsageError("missing pattern")
	}

	pattern := operands[0]
	if opts.ignoreCase {
		pattern = "(?i)" + pattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return &applet.ExitError{Code: grepTrouble, Err: fmt.Errorf("invalid pattern: %w", err)}
	}

	files := operands[1:]
	if len(files) == 0 {
		files = []string{applet.StdinOperand}
	}

	g := &grepper{
		grepOptions:  opts,
		re:           re,
		out:          inv.Stdout,
		showFilename: (len(files) > 1 || opts.withFilename) && !opts.noFilename,
	}

	matched, trouble := false, false
	for _, file := range files {
		name := file
		if file == applet.StdinOperand {
			name = "(standard input)"
		}
		err := withOperand(inv, file, func(r io.Reader) error {
			found, err := g.grep(r, name)
			matched = matched || found
			return err
		})
		if err != nil {
			inv.Report(err)
			trouble = true
		}
		if matched && opts.quiet {
			return nil
		}
	}

	switch {
	case trouble:
		return &applet.ExitError{Code: grepTrouble}
	case !matched:
		return &applet.ExitError{Code: applet.ExitFailure}
	}
	return nil
}
