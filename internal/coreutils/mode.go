// SPDX-License-Identifier: MPL-2.0

package coreutils

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
)

// Permission bits selected by each "who" letter of a symbolic mode.
const (
	whoUser  = 0o4700
	whoGroup = 0o2070
	whoOther = 0o1007
	whoAll   = 0o7777
)

// isOctalMode reports whether spec is an absolute octal mode.
func isOctalMode(spec string) bool {
	if spec == "" {
		return false
	}
	for _, c := range spec {
		if c < '0' || c > '7' {
			return false
		}
	}
	return true
}

// parseOctalMode parses an absolute mode of at most 07777.
func parseOctalMode(spec string) (uint32, error) {
	v, err := strconv.ParseUint(spec, 8, 32)
	if err != nil || v > 0o7777 {
		return 0, fmt.Errorf("invalid mode: %s", spec)
	}
	return uint32(v), nil
}

// applyMode returns perm changed by spec, which is either an octal mode or a
// comma-separated list of symbolic clauses ([ugoa]*[-+=][rwxXst]*)+.
// A clause without who letters applies to all bits; the umask is ignored.
func applyMode(spec string, perm uint32, isDir bool) (uint32, error) {
	if isOctalMode(spec) {
		return parseOctalMode(spec)
	}

	for _, clause := range strings.Split(spec, ",") {
		var err error
		if perm, err = applyClause(clause, perm, isDir); err != nil {
			return 0, fmt.Errorf("invalid mode: %s", spec)
		}
	}
	return perm, nil
}

func applyClause(clause string, perm uint32, isDir bool) (uint32, error) {
	var who uint32
	i := 0
who:
	for ; i < len(clause); i++ {
		switch clause[i] {
		case 'u':
			who |= whoUser
		case 'g':
			who |= whoGroup
		case 'o':
			who |= whoOther
		case 'a':
			who |= whoAll
		default:
			break who
		}
	}
	if who == 0 {
		who = whoAll
	}
	if i == len(clause) {
		return 0, fmt.Errorf("missing operator in %q", clause)
	}

	for i < len(clause) {
		op := clause[i]
		if op != '+' && op != '-' && op != '=' {
			return 0, fmt.Errorf("unexpected %q in %q", op, clause)
		}
		i++

		var bits uint32
		for ; i < len(clause) && !strings.ContainsRune("+-=", rune(clause[i])); i++ {
			switch clause[i] {
			case 'r':
				bits |= 0o444
			case 'w':
				bits |= 0o222
			case 'x':
				bits |= 0o111
			case 'X':
				if isDir || perm&0o111 != 0 {
					bits |= 0o111
				}
			case 's':
				bits |= 0o6000
			case 't':
				bits |= 0o1000
			default:
				return 0, fmt.Errorf("unknown permission %q", clause[i])
			}
		}
		bits &= who

		switch op {
		case '+':
			perm |= bits
		case '-':
			perm &^= bits
		case '=':
			perm = perm&^who | bits
		}
	}
	return perm, nil
}

var _ pflag.Value = (*modeValue)(nil)

// modeValue is a pflag.Value storing an explicit creation mode in the
// invocation's mode masks.
type modeValue struct {
	and, or *uint32
	spec    string
}

func (m *modeValue) String() string { return m.spec }

func (m *modeValue) Set(spec string) error {
	perm, err := applyMode(spec, 0o777, true)
	if err != nil {
		return err
	}
	m.spec = spec
	*m.and = 0
	*m.or = perm
	return nil
}

func (m *modeValue) Type() string { return "mode" }
