package demux

import (
	"errors"
	"fmt"
	"io"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/gbs-tools/gogbs/pkg/barcode"
	"github.com/gbs-tools/gogbs/pkg/decode"
	"github.com/gbs-tools/gogbs/pkg/enzyme"
	"github.com/gbs-tools/gogbs/pkg/keyfile"
)

// NewLaneDecoder builds the decoder for one flowcell lane from a key file. If
// enzymeName is empty the enzyme is taken from the key file's Enzyme column,
// which must then name exactly one enzyme for the lane.
func NewLaneDecoder(keys io.Reader, flowcell, lane, enzymeName string, cfg decode.Config) (*decode.Decoder, error) {
	rows, err := keyfile.Parse(keys)
	if err != nil {
		return nil, err
	}

	if enzymeName == "" {
		names := keyfile.Enzymes(rows, flowcell, lane)
		switch len(names) {
		case 0:
			return nil, errors.New("no enzyme given and none in the key file for flowcell " + flowcell + " lane " + lane)
		case 1:
			enzymeName = names[0]
		default:
			return nil, fmt.Errorf("key file lists more than one enzyme for flowcell %s lane %s: %s", flowcell, lane, strings.Join(names, ", "))
		}
	}

	p, err := enzyme.Get(enzymeName)
	if err != nil {
		return nil, err
	}

	table, err := barcode.Build(rows, flowcell, lane, p)
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"flowcell": flowcell,
		"lane":     lane,
		"enzyme":   p.Name,
	}).Infof("%d barcodes", table.Len())

	return decode.NewDecoder(p, table, cfg)
}
