// SPDX-License-Identifier: MPL-2.0

// Package utmp decodes the binary login records of utmp(5) and wtmp files.
package utmp

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net/netip"
	"time"
)

// Field widths of the glibc record layout.
const (
	LineSize = 32
	NameSize = 32
	HostSize = 256

	// RecordSize is the on-disk size of one Record.
	RecordSize = 384
)

// Values of Record.Type.
const (
	Empty Type = iota
	RunLevel
	BootTime
	NewTime
	OldTime
	InitProcess
	LoginProcess
	UserProcess
	DeadProcess
	Accounting
)

type (
	// Type is the kind of a record.
	Type int16

	// Record is one utmp entry in its on-disk layout (see utmp(5)).
	Record struct {
		Type    Type
		_       int16
		Pid     int32
		Line    [LineSize]byte // tty name without "/dev/"
		ID      [4]byte        // terminal suffix or inittab id
		User    [NameSize]byte
		Host    [HostSize]byte // remote host, or kernel version for run-level records
		Exit    ExitStatus
		Session int32
		Time    TimeVal
		Addr    [4]int32 // IPv4 uses Addr[0] only
		_       [20]byte
	}

	// ExitStatus is the exit status of a DeadProcess record.
	ExitStatus struct {
		Termination int16
		Exit        int16
	}

	// TimeVal is the record timestamp.
	TimeVal struct {
		Sec  int32
		Usec int32
	}

	// Reader decodes consecutive records from a stream.
	Reader struct {
		r io.Reader
	}
)

// ErrTruncated reports a stream ending in the middle of a record.
var ErrTruncated = errors.New("truncated utmp record")

// NewReader creates a Reader over r.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// Next decodes the next record. It returns io.EOF at a clean end of stream
// and ErrTruncated when the stream stops inside a record.
func (r *Reader) Next() (*Record, error) {
	var rec Record
	if err := binary.Read(r.r, binary.LittleEndian, &rec); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ErrTruncated
		}
		return nil, err
	}
	return &rec, nil
}

// LineString returns the tty name.
func (r *Record) LineString() string { return cString(r.Line[:]) }

// IDString returns the terminal suffix or inittab id.
func (r *Record) IDString() string { return cString(r.ID[:]) }

// UserString returns the user name.
func (r *Record) UserString() string { return cString(r.User[:]) }

// HostString returns the remote host name.
func (r *Record) HostString() string { return cString(r.Host[:]) }

// When returns the record timestamp.
func (r *Record) When() time.Time {
	return time.Unix(int64(r.Time.Sec), int64(r.Time.Usec)*int64(time.Microsecond))
}

// IPv4 returns the remote IPv4 address stored in Addr[0].
func (r *Record) IPv4() netip.Addr {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], uint32(r.Addr[0]))
	return netip.AddrFrom4(b)
}

// String renders the record as "type|pid|line|id|user|host|time|addr".
func (r *Record) String() string {
	return fmt.Sprintf("%d|%d|%s|%s|%s|%s|%s|%x",
		r.Type, r.Pid, r.LineString(), r.IDString(), r.UserString(), r.HostString(),
		r.When().UTC().Format(time.ANSIC), uint32(r.Addr[0]))
}

func cString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}
