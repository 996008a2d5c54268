/*
Package keyfile reads GBS key files: tab-delimited tables, one row per sample
barcode per lane, with a header row naming the columns.
*/
package keyfile

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Row is one barcode of one lane
type Row struct {
	Flowcell      string
	Lane          string
	Barcode       string
	Sample        string
	Plate         string
	PlateRow      string
	PlateColumn   string
	LibraryPrepID string
	Enzyme        string
}

// Well is the plate well, e.g. "A01"
func (r Row) Well() string {
	return r.PlateRow + r.PlateColumn
}

// column aliases, all lower case
var columns = map[string][]string{
	"flowcell":      {"flowcell"},
	"lane":          {"lane"},
	"barcode":       {"barcode"},
	"sample":        {"sample", "dnasample", "samplename", "fullsamplename"},
	"plate":         {"platename", "plate", "libraryplate"},
	"row":           {"row"},
	"column":        {"column", "col"},
	"libraryprepid": {"libraryprepid", "libprepid"},
	"enzyme":        {"enzyme"},
}

var required = []string{"flowcell", "lane", "barcode", "sample"}

// header maps each known column to its index in a row, or -1
func header(line string) (map[string]int, error) {
	idx := make(map[string]int)
	for k := range columns {
		idx[k] = -1
	}

	for i, field := range strings.Split(line, "\t") {
		name := strings.ToLower(strings.TrimSpace(field))
		for k, aliases := range columns {
			for _, a := range aliases {
				if name == a && idx[k] < 0 {
					idx[k] = i
				}
			}
		}
	}

	for _, k := range required {
		if idx[k] < 0 {
			return nil, fmt.Errorf("key file header is missing the %q column", k)
		}
	}

	return idx, nil
}

// Parse reads every row of a key file. Blank lines are skipped.
func Parse(r io.Reader) ([]Row, error) {
	s := bufio.NewScanner(r)

	var idx map[string]int
	var err error
	rows := make([]Row, 0)
	lineNo := 0

	for s.Scan() {
		lineNo++
		line := strings.TrimRight(s.Text(), "\r")
		if len(strings.TrimSpace(line)) == 0 {
			continue
		}

		if idx == nil {
			idx, err = header(line)
			if err != nil {
				return nil, err
			}
			continue
		}

		fields := strings.Split(line, "\t")
		get := func(k string) string {
			i := idx[k]
			if i < 0 || i >= len(fields) {
				return ""
			}
			return strings.TrimSpace(fields[i])
		}

		row := Row{
			Flowcell:      get("flowcell"),
			Lane:          get("lane"),
			Barcode:       strings.ToUpper(get("barcode")),
			Sample:        get("sample"),
			Plate:         get("plate"),
			PlateRow:      get("row"),
			PlateColumn:   get("column"),
			LibraryPrepID: get("libraryprepid"),
			Enzyme:        get("enzyme"),
		}
		if row.Barcode == "" {
			return nil, fmt.Errorf("key file line %d: empty barcode", lineNo)
		}
		rows = append(rows, row)
	}

	if err := s.Err(); err != nil {
		return nil, err
	}

	if idx == nil {
		return nil, errors.New("empty key file")
	}

	return rows, nil
}

// Enzymes returns the distinct, non-empty enzyme names used by rows of the
// given flowcell and lane
func Enzymes(rows []Row, flowcell, lane string) []string {
	seen := make(map[string]bool)
	names := make([]string, 0)
	for _, r := range rows {
		if r.Flowcell != flowcell || r.Lane != lane || r.Enzyme == "" || seen[r.Enzyme] {
			continue
		}
		seen[r.Enzyme] = true
		names = append(names, r.Enzyme)
	}
	return names
}
