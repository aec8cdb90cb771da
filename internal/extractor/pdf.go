package extractor

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
	log "github.com/sirupsen/logrus"
)

// PDFDecoder extracts the plain text of every page. Pages are separated by
// an empty line so findings keep a stable line number per document.
type PDFDecoder struct{}

func (d *PDFDecoder) Decode(content []byte) (text string, err error) {
	// the pdf reader panics on some malformed inputs
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	doc, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	// Note: ledongthuc/pdf can be slow on large docs; callers bound it with a timeout
	totalPages := doc.NumPage()
	for i := 1; i <= totalPages; i++ {
		page := doc.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			log.Debugf("(extractor) skipping pdf page %d: %v", i, err)
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(strings.TrimRight(pageText, "\n"))
	}
	return sb.String(), nil
}
