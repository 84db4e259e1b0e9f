// SPDX-License-Identifier: MPL-2.0

// Package accounts resolves user and group names through passwd(5) and
// group(5) style files.
package accounts

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

var (
	// ErrUnknownUser is returned when a user name has no passwd entry.
	ErrUnknownUser = errors.New("unknown user name")
	// ErrUnknownGroup is returned when a group name has no group entry.
	ErrUnknownGroup = errors.New("unknown group name")
)

// Database maps names to ids for one passwd or group file.
type Database struct {
	byName map[string]int
}

// Lookup returns the id of name.
func (d *Database) Lookup(name string) (int, bool) {
	id, ok := d.byName[name]
	return id, ok
}

// ReadPasswd loads a passwd file ("name:pw:uid:gid:gecos:home:shell").
func ReadPasswd(path string) (*Database, error) {
	return readFile(path, 6)
}

// ReadGroup loads a group file ("name:pw:gid:members").
func ReadGroup(path string) (*Database, error) {
	return readFile(path, 4)
}

func readFile(path string, minFields int) (*Database, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return parse(f, minFields)
}

// parse reads colon-separated records whose third field is the numeric id.
// NIS compat lines ("+name", "-name") and short records are skipped.
func parse(r io.Reader, minFields int) (*Database, error) {
	d := &Database{byName: make(map[string]int)}

	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		parts := strings.Split(scanner.Text(), ":")
		if len(parts) < minFields || parts[0] == "" || parts[0][0] == '+' || parts[0][0] == '-' {
			continue
		}

		id, err := strconv.Atoi(parts[2])
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid id %q: %w", line, parts[2], err)
		}

		if _, dup := d.byName[parts[0]]; !dup {
			d.byName[parts[0]] = id
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return d, nil
}

// ResolveUser turns a user name or a decimal uid into a uid.
func ResolveUser(passwdFile, spec string) (int, error) {
	return resolve(passwdFile, spec, ReadPasswd, ErrUnknownUser)
}

// ResolveGroup turns a group name or a decimal gid into a gid.
func ResolveGroup(groupFile, spec string) (int, error) {
	return resolve(groupFile, spec, ReadGroup, ErrUnknownGroup)
}

func resolve(path, spec string, read func(string) (*Database, error), unknown error) (int, error) {
	if id, err := strconv.Atoi(spec); err == nil && id >= 0 {
		return id, nil
	}

	db, err := read(path)
	if err != nil {
		return -1, err
	}
	id, ok := db.Lookup(spec)
	if !ok {
		return -1, unknown
	}
	return id, nil
}
