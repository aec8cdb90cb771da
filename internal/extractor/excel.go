package extractor

import (
	"bytes"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
)

// maxColumns guards against extremely wide sheets.
const maxColumns = 1000

// ExcelDecoder renders every sheet as text: one line per row, cells joined
// with tabs, sheets separated by a "# sheet" header line.
type ExcelDecoder struct{}

func (d *ExcelDecoder) Decode(content []byte) (string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return "", err
	}
	defer f.Close()

	var sb strings.Builder
	for _, sheet := range f.GetSheetList() {
		// Use streaming row iterator for memory efficiency
		rows, err := f.Rows(sheet)
		if err != nil {
			log.Debugf("(extractor) skipping sheet %q: %v", sheet, err)
			continue
		}
		sb.WriteString("# " + sheet + "\n")
		for rows.Next() {
			row, err := rows.Columns()
			if err != nil {
				break
			}
			if len(row) > maxColumns {
				row = row[:maxColumns]
			}
			for i, cell := range row {
				row[i] = strings.NewReplacer("\r", " ", "\n", " ").Replace(cell)
			}
			sb.WriteString(strings.Join(row, "\t"))
			sb.WriteByte('\n')
		}
		if err := rows.Close(); err != nil {
			log.Debugf("(extractor) closing rows of %q: %v", sheet, err)
		}
	}
	return sb.String(), nil
}
