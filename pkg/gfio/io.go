/*
Package gfio opens the files named by commandline flags. "stdin" and "stdout"
stand for the standard streams, inputs ending in .gz are decompressed on the fly,
and bad paths give errors that name the offending flag.
*/
package gfio

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/klauspost/pgzip"
	"github.com/spf13/pflag"
)

func flagString(flag pflag.Flag) string {
	if len(flag.Shorthand) == 0 {
		return "--" + flag.Name
	}
	return "--" + flag.Name + " / -" + flag.Shorthand
}

func parseInErr(err error, flagString string) error {
	switch x := err.(type) {
	case *fs.PathError:
		return errors.New(x.Op + " " + flagString + " " + x.Path + ": " + x.Err.Error())
	default:
		return err
	}
}

type gzipFile struct {
	*pgzip.Reader
	f *os.File
}

func (g gzipFile) Close() error {
	err := g.Reader.Close()
	if ferr := g.f.Close(); err == nil {
		err = ferr
	}
	return err
}

// Open opens path for reading, decompressing it if it ends in .gz
func Open(path string) (io.ReadCloser, error) {
	if path == "stdin" {
		return io.NopCloser(os.Stdin), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(path, ".gz") {
		return f, nil
	}

	zr, err := pgzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, errors.New(path + ": " + err.Error())
	}
	return gzipFile{Reader: zr, f: f}, nil
}

// OpenIn opens the input file named by flag
func OpenIn(flag pflag.Flag) (io.ReadCloser, error) {
	r, err := Open(flag.Value.String())
	if err != nil {
		return nil, parseInErr(err, flagString(flag))
	}
	return r, nil
}

// OpenOut creates the output file named by flag
func OpenOut(flag pflag.Flag) (*os.File, error) {
	outFile := flag.Value.String()
	if outFile == "stdout" {
		return os.Stdout, nil
	}
	f, err := os.Create(outFile)
	if err != nil {
		return nil, parseInErr(err, flagString(flag))
	}
	return f, nil
}
