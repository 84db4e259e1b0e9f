// SPDX-License-Identifier: MPL-2.0

// Package mounttab reads the kernel mount table (/proc/mounts, /etc/mtab).
package mounttab

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Entry is one mounted filesystem. See fstab(5) for the field meanings.
type Entry struct {
	Source  string
	Target  string
	FSType  string
	Options []string
}

// OptionString returns the options joined with commas.
func (e Entry) OptionString() string {
	return strings.Join(e.Options, ",")
}

// HasOption reports whether the entry was mounted with opt.
func (e Entry) HasOption(opt string) bool {
	for _, o := range e.Options {
		if o == opt {
			return true
		}
	}
	return false
}

// ReadFile parses the mount table at path.
func ReadFile(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Parse(f)
}

// Parse reads mount table lines from r. Blank lines and '#' comments are
// skipped; lines with fewer than three fields are an error.
func Parse(r io.Reader) ([]Entry, error) {
	var entries []Entry

	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		// /dev/vda / ext4 rw,noatime,errors=remount-ro 0 0
		text := strings.TrimSpace(scanner.Text())
		if text == "" || text[0] == '#' {
			continue
		}

		parts := strings.Fields(text)
		if len(parts) < 3 {
			return nil, fmt.Errorf("mount table line %d: expected at least 3 fields, got %d", line, len(parts))
		}

		e := Entry{
			Source: unescape(parts[0]),
			Target: unescape(parts[1]),
			FSType: parts[2],
		}
		if len(parts) > 3 {
			e.Options = strings.Split(parts[3], ",")
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}

// unescape decodes the octal escapes (\040 for space, \011 for tab, ...)
// the kernel uses in mount table fields.
func unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}

	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+4 <= len(s) {
			if v, err := strconv.ParseUint(s[i+1:i+4], 8, 8); err == nil {
				b.WriteByte(byte(v))
				i += 3
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
