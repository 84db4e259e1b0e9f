// SPDX-License-Identifier: MPL-2.0

package coreutils

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/invowk/multicall/internal/applet"
	"github.com/invowk/multicall/internal/fswalk"

	"github.com/klauspost/compress/gzip"
	"golang.org/x/sys/unix"
)

const gzipSuffix = ".gz"

func init() {
	applet.RegisterDefault(&applet.Descriptor{
		Name:    "gzip",
		Usage:   "gzip [-c] [-d] [-f] [-1..-9] [FILE]...",
		MinArgs: 0,
		MaxArgs: applet.Unbounded,
		Entry:   applet.MainFunc(gzipMain),
	})
	applet.RegisterDefault(&applet.Descriptor{
		Name:    "gunzip",
		Usage:   "gunzip [-c] [-f] [FILE]...",
		MinArgs: 0,
		MaxArgs: applet.Unbounded,
		Entry:   applet.MainFunc(gzipMain),
	})
	applet.RegisterDefault(&applet.Descriptor{
		Name:    "zcat",
		Usage:   "zcat [FILE]...",
		MinArgs: 0,
		MaxArgs: applet.Unbounded,
		Entry:   applet.MainFunc(gzipMain),
	})
}

// gzipJob is one gzip, gunzip or zcat run.
type gzipJob struct {
	inv        *applet.Invocation
	decompress bool
	toStdout   bool
	level      int
}

// gzipMain serves gzip, gunzip and zcat. Files are replaced by their
// compressed or decompressed counterpart unless output goes to stdout.
func gzipMain(_ context.Context, inv *applet.Invocation, argv []string) error {
	job := &gzipJob{
		inv:        inv,
		decompress: inv.Applet.Name != "gzip",
		toStdout:   inv.Applet.Name == "zcat",
		level:      gzip.DefaultCompression,
	}

	fs := inv.FlagSet()
	fs.BoolVarP(&job.toStdout, "stdout", "c", job.toStdout, "write on standard output, keep original files")
	fs.BoolVarP(&job.decompress, "decompress", "d", job.decompress, "decompress")
	fs.BoolVarP(&inv.Force, "force", "f", false, "overwrite existing output files")
	fast := fs.BoolP("fast", "1", false, "compress faster")
	best := fs.BoolP("best", "9", false, "compress better")
	operands, err := inv.Parse(fs, argv[1:])
	if err != nil {
		return err
	}
	switch {
	case *best:
		job.level = gzip.BestCompression
	case *fast:
		job.level = gzip.BestSpeed
	}

	if len(operands) == 0 {
		operands = []string{applet.StdinOperand}
	}

	failed := false
	for _, operand := range operands {
		if err := job.run(operand); err != nil {
			inv.Report(err)
			failed = true
		}
	}
	if failed {
		return applet.Failure()
	}
	return nil
}

func (j *gzipJob) run(operand string) error {
	if operand == applet.StdinOperand {
		return j.transform(j.inv.Stdout, j.inv.Stdin, operand)
	}

	j.inv.Source = operand
	if j.toStdout {
		return withOperand(j.inv, operand, func(r io.Reader) error {
			return j.transform(j.inv.Stdout, r, operand)
		})
	}

	dest, err := j.outputName(operand)
	if err != nil {
		return err
	}
	j.inv.Destination = dest
	return j.replace(operand, dest)
}

// outputName derives the name of the file written for operand.
func (j *gzipJob) outputName(operand string) (string, error) {
	if !j.decompress {
		if strings.HasSuffix(operand, gzipSuffix) {
			return "", fswalk.NewIOError("gzip", operand, errors.New("already has "+gzipSuffix+" suffix"))
		}
		return operand + gzipSuffix, nil
	}

	switch {
	case strings.HasSuffix(operand, gzipSuffix) && len(operand) > len(gzipSuffix):
		return strings.TrimSuffix(operand, gzipSuffix), nil
	case strings.HasSuffix(operand, ".tgz"):
		return strings.TrimSuffix(operand, ".tgz") + ".tar", nil
	}
	return "", fswalk.NewIOError("gunzip", operand, errors.New("unknown suffix"))
}

// replace writes dest from src, copies the permissions and removes src.
func (j *gzipJob) replace(src, dest string) (err error) {
	info, err := os.Stat(j.inv.Path(src))
	if err != nil {
		return fswalk.NewIOError("stat", src, err)
	}
	if !info.Mode().IsRegular() {
		return fswalk.NewIOError("gzip", src, errors.New("not a regular file"))
	}

	flags := os.O_WRONLY | os.O_CREATE | os.O_EXCL
	if j.inv.Force {
		flags = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	}
	out, err := os.OpenFile(j.inv.Path(dest), flags, info.Mode().Perm())
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fswalk.NewIOError("create", dest, errors.New("already exists"))
		}
		return fswalk.NewIOError("create", dest, err)
	}
	defer func() {
		if err != nil {
			_ = out.Close()
			_ = os.Remove(j.inv.Path(dest))
		}
	}()

	if err = withOperand(j.inv, src, func(r io.Reader) error {
		return j.transform(out, r, src)
	}); err != nil {
		return err
	}
	if err = out.Close(); err != nil {
		return fswalk.NewIOError("close", dest, err)
	}
	if err = unix.Chmod(j.inv.Path(dest), uint32(info.Mode().Perm())); err != nil {
		return fswalk.NewIOError("chmod", dest, err)
	}
	if rmErr := os.Remove(j.inv.Path(src)); rmErr != nil {
		return fswalk.NewIOError("remove", src, rmErr)
	}
	return nil
}

func (j *gzipJob) transform(w io.Writer, r io.Reader, name string) error {
	if j.decompress {
		zr, err := gzip.NewReader(r)
		if err != nil {
			return fswalk.NewIOError("read", name, err)
		}
		defer zr.Close()
		if _, err := io.Copy(w, zr); err != nil {
			return fswalk.NewIOError("read", name, err)
		}
		return nil
	}

	zw, err := gzip.NewWriterLevel(w, j.level)
	if err != nil {
		return err
	}
	if _, err := io.Copy(zw, r); err != nil {
		_ = zw.Close()
		return fswalk.NewIOError("write", name, err)
	}
	if err := zw.Close(); err != nil {
		return fswalk.NewIOError("write", name, err)
	}
	return nil
}
