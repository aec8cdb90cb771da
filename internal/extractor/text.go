package extractor

import "unicode/utf8"

// TextDecoder handles source code, configs and other plain text.
type TextDecoder struct{}

func (d *TextDecoder) Decode(content []byte) (string, error) {
	if utf8.Valid(content) {
		return string(content), nil
	}
	return string(sanitizeBytes(content)), nil
}

// sanitizeBytes replaces non-printable characters with spaces,
// but preserves high bytes so Latin-1 text keeps its byte columns.
func sanitizeBytes(data []byte) []byte {
	out := make([]byte, len(data))
	for i, b := range data {
		// Allow printable ASCII, tab, newline, carriage return and
		// everything above 127.
		if (b >= 32 && b <= 126) || b == 9 || b == 10 || b == 13 || b > 127 {
			out[i] = b
		} else {
			out[i] = ' ' // Replace binary garbage with space
		}
	}
	return out
}
