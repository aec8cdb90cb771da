// Package reporting renders a scan envelope: the JSON document handed to
// persistence and dashboards, a SARIF log for code-scanning tools, the JSON
// schema of the envelope and a console summary.
package reporting

import (
	"encoding/json"
	"io"
	"os"

	"github.com/digimosa/gdpr-scan/internal/models"
)

// WriteJSON encodes the envelope as indented JSON.
func WriteJSON(w io.Writer, res *models.ScanResult) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(res)
}

func SaveJSON(filename string, res *models.ScanResult) error {
	return save(filename, func(w io.Writer) error { return WriteJSON(w, res) })
}

func save(filename string, write func(io.Writer) error) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	if err := write(file); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
