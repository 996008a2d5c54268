/*
Package fastq reads sequencer reads from FASTQ and Illumina qseq files
*/
package fastq

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gbs-tools/gogbs/pkg/decode"
)

const maxLineLength = 1024 * 1024

// Pair is a forward read and its mate, read in lockstep from two files
type Pair struct {
	Forward  decode.Read
	Backward decode.Read
	Idx      int
}

// Reader reads one record at a time from a FASTQ or qseq stream
type Reader struct {
	s       *bufio.Scanner
	format  decode.Format
	line    int
	counter int
}

// NewReader returns a Reader for r in the given format
func NewReader(r io.Reader, format decode.Format) *Reader {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), maxLineLength)
	return &Reader{s: s, format: format}
}

func (r *Reader) scan() (string, bool) {
	if !r.s.Scan() {
		return "", false
	}
	r.line++
	return strings.TrimRight(r.s.Text(), "\r"), true
}

// Next returns the next read, or io.EOF at the end of the stream
func (r *Reader) Next() (decode.Read, error) {
	var rd decode.Read
	var err error
	switch r.format {
	case decode.Qseq:
		rd, err = r.nextQseq()
	default:
		rd, err = r.nextFastq()
	}
	if err != nil {
		return decode.Read{}, err
	}
	rd.Idx = r.counter
	r.counter++
	return rd, nil
}

func (r *Reader) eof() error {
	if err := r.s.Err(); err != nil {
		return err
	}
	return io.EOF
}

func (r *Reader) nextFastq() (decode.Read, error) {
	var header string
	for {
		line, ok := r.scan()
		if !ok {
			return decode.Read{}, r.eof()
		}
		if len(line) > 0 {
			header = line
			break
		}
	}
	if header[0] != '@' {
		return decode.Read{}, fmt.Errorf("badly formatted fastq file: line %d does not start with @", r.line)
	}

	var lines [3]string
	for i := range lines {
		line, ok := r.scan()
		if !ok {
			if err := r.s.Err(); err != nil {
				return decode.Read{}, err
			}
			return decode.Read{}, errors.New("badly formatted fastq file: truncated record " + header[1:])
		}
		lines[i] = line
	}
	if len(lines[1]) == 0 || lines[1][0] != '+' {
		return decode.Read{}, fmt.Errorf("badly formatted fastq file: line %d does not start with +", r.line-1)
	}

	id := header[1:]
	if fields := strings.Fields(id); len(fields) > 0 {
		id = fields[0]
	}

	return decode.Read{ID: id, Seq: strings.ToUpper(lines[0]), Qual: lines[2]}, nil
}

func (r *Reader) nextQseq() (decode.Read, error) {
	for {
		line, ok := r.scan()
		if !ok {
			return decode.Read{}, r.eof()
		}
		if len(line) == 0 {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 11 {
			return decode.Read{}, fmt.Errorf("badly formatted qseq file: line %d has %d columns, want 11", r.line, len(fields))
		}
		return decode.Read{
			ID:   strings.Join(fields[:7], ":"),
			Seq:  strings.ToUpper(fields[8]),
			Qual: fields[9],
		}, nil
	}
}

// ReadReads reads f to a channel of reads. It passes true to cDone when f is
// exhausted and sends any error to cErr.
func ReadReads(f io.Reader, format decode.Format, chnl chan decode.Read, cErr chan error, cDone chan bool) {
	r := NewReader(f, format)
	for {
		rd, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			cErr <- err
			return
		}
		chnl <- rd
	}
	cDone <- true
}

// ReadPairs reads two files of mates in step to a channel of pairs. The files
// must hold the same number of reads.
func ReadPairs(f1, f2 io.Reader, format decode.Format, chnl chan Pair, cErr chan error, cDone chan bool) {
	r1 := NewReader(f1, format)
	r2 := NewReader(f2, format)
	for counter := 0; ; counter++ {
		fwd, err1 := r1.Next()
		bwd, err2 := r2.Next()
		if err1 == io.EOF && err2 == io.EOF {
			break
		}
		if err1 == io.EOF || err2 == io.EOF {
			cErr <- errors.New("paired read files have different numbers of reads")
			return
		}
		if err1 != nil {
			cErr <- err1
			return
		}
		if err2 != nil {
			cErr <- err2
			return
		}
		chnl <- Pair{Forward: fwd, Backward: bwd, Idx: counter}
	}
	cDone <- true
}
