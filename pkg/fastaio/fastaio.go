/*
Package fastaio reads and writes tags in fasta format
*/
package fastaio

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/gbs-tools/gogbs/pkg/encoding"
)

// TagRecord is one fasta record packed to a fixed number of bases
type TagRecord struct {
	ID     string
	Seq    string
	Words  []uint64
	Length int
	Idx    int
}

func validBases(seq string) error {
	for i := 0; i < len(seq); i++ {
		switch seq[i] {
		case 'A', 'C', 'G', 'T':
		default:
			return fmt.Errorf("invalid nucleotide in fasta file (%s)", string(seq[i]))
		}
	}
	return nil
}

func newRecord(id, seq string, capacity, idx int) (TagRecord, error) {
	if err := validBases(seq); err != nil {
		return TagRecord{}, fmt.Errorf("%s: %w", id, err)
	}
	length := len(seq)
	if length > capacity {
		length = capacity
	}
	return TagRecord{ID: id, Seq: seq, Words: encoding.Pack(seq, capacity), Length: length, Idx: idx}, nil
}

// scanTags calls fn for every record in f, in input order
func scanTags(f io.Reader, capacity int, fn func(TagRecord)) error {
	s := bufio.NewScanner(f)

	first := true
	counter := 0

	var id string
	var seqBuffer strings.Builder

	flush := func() error {
		fr, err := newRecord(id, seqBuffer.String(), capacity, counter)
		if err != nil {
			return err
		}
		fn(fr)
		counter++
		seqBuffer.Reset()
		return nil
	}

	for s.Scan() {
		line := strings.TrimSpace(s.Text())

		if first {
			if len(line) == 0 || line[0] != '>' {
				return errors.New("badly formatted fasta file")
			}
			fields := strings.Fields(line[1:])
			if len(fields) == 0 {
				return errors.New("badly formatted fasta file: empty header")
			}
			id = fields[0]
			first = false
			continue
		}

		switch {
		case len(line) == 0:
		case line[0] == '>':
			if err := flush(); err != nil {
				return err
			}
			fields := strings.Fields(line[1:])
			if len(fields) == 0 {
				return errors.New("badly formatted fasta file: empty header")
			}
			id = fields[0]
		default:
			seqBuffer.WriteString(strings.ToUpper(line))
		}
	}

	if err := s.Err(); err != nil {
		return err
	}

	if !first {
		if err := flush(); err != nil {
			return err
		}
	}

	if counter == 0 {
		return errors.New("empty fasta file")
	}

	return nil
}

// ReadTags reads fasta tags to a channel of TagRecords, packing each to capacity
// bases. It passes true to cDone when f is exhausted.
func ReadTags(f io.Reader, capacity int, chnl chan TagRecord, cErr chan error, cDone chan bool) {
	err := scanTags(f, capacity, func(fr TagRecord) {
		chnl <- fr
	})
	if err != nil {
		cErr <- err
		return
	}
	cDone <- true
}

// ReadTagsToList is as ReadTags but returns a slice of TagRecords
func ReadTagsToList(f io.Reader, capacity int) ([]TagRecord, error) {
	records := make([]TagRecord, 0)
	err := scanTags(f, capacity, func(fr TagRecord) {
		records = append(records, fr)
	})
	if err != nil {
		return []TagRecord{}, err
	}
	return records, nil
}

// WriteTags writes tags in fasta format, naming each one by its position and
// its trimmed length as tag<i>_<length>
func WriteTags(w io.Writer, tags []string) error {
	bw := bufio.NewWriter(w)
	for i, t := range tags {
		if _, err := bw.WriteString(">tag" + strconv.Itoa(i) + "_" + strconv.Itoa(len(t)) + "\n" + t + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}
