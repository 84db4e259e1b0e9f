// SPDX-License-Identifier: MPL-2.0

package coreutils

import (
	"context"

	"github.com/invowk/multicall/internal/applet"

	"golang.org/x/sys/unix"
)

// klogctl actions, see syslog(2).
const (
	syslogActionReadAll      = 3
	syslogActionReadClear    = 4
	syslogActionConsoleLevel = 8
	syslogActionSizeBuffer   = 10
)

func init() {
	applet.RegisterDefault(&applet.Descriptor{
		Name:    "dmesg",
		Usage:   "dmesg [-c] [-n LEVEL] [-s SIZE]",
		MinArgs: 0,
		MaxArgs: applet.Unbounded,
		Entry:   applet.MainFunc(dmesgMain),
	})
}

func dmesgMain(_ context.Context, inv *applet.Invocation, argv []string) error {
	var clearBuffer bool
	var level, size int

	fs := inv.FlagSet()
	fs.BoolVarP(&clearBuffer, "clear", "c", false, "clear the ring buffer after printing")
	fs.IntVarP(&level, "console-level", "n", 0, "set the console log level")
	fs.IntVarP(&size, "buffer-size", "s", 0, "size of the read buffer")
	operands, err := inv.Parse(fs, argv[1:])
	if err != nil {
		return err
	}
	if len(operands) > 0 {
		return inv.UsageError("unexpected operand " + operands[0])
	}

	if fs.Changed("console-level") {
		if _, _, errno := unix.Syscall(unix.SYS_SYSLOG, syslogActionConsoleLevel, 0, uintptr(level)); errno != 0 {
			return errno
		}
		return nil
	}

	if size <= 0 {
		size, err = unix.Klogctl(syslogActionSizeBuffer, nil)
		if err != nil || size <= 0 {
			size = 1 << 14
		}
	}

	action := syslogActionReadAll
	if clearBuffer {
		action = syslogActionReadClear
	}
	buf := make([]byte, size)
	n, err := unix.Klogctl(action, buf)
	if err != nil {
		return err
	}

	_, err = inv.Stdout.Write(stripPriorities(buf[:n]))
	return err
}

// stripPriorities removes the "<N>" priority prefix of every line and makes
// sure the text ends with a newline.
func stripPriorities(buf []byte) []byte {
	out := make([]byte, 0, len(buf)+1)
	start := true
	for i := 0; i < len(buf); i++ {
		if start && buf[i] == '<' {
			j := i + 1
			for j < len(buf) && buf[j] >= '0' && buf[j] <= '9' {
				j++
			}
			if j < len(buf) && buf[j] == '>' {
				i = j
				start = false
				continue
			}
		}
		out = append(out, buf[i])
		start = buf[i] == '\n'
	}
	if len(out) > 0 && out[len(out)-1] != '\n' {
		out = append(out, '\n')
	}
	return out
}
