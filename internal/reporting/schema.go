package reporting

import (
	"encoding/json"
	"io"

	"github.com/invopop/jsonschema"

	"github.com/digimosa/gdpr-scan/internal/models"
)

// Schema describes the JSON envelope written by WriteJSON.
func Schema() *jsonschema.Schema {
	return jsonschema.Reflect(&models.ScanResult{})
}

func WriteSchema(w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(Schema())
}

func SaveSchema(filename string) error {
	return save(filename, WriteSchema)
}
