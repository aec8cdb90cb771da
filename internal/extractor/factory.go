package extractor

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/digimosa/gdpr-scan/internal/models"
)

const (
	mimePDF  = "application/pdf"
	mimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	// sniffLen bounds the NUL-byte probe, like git's binary heuristic.
	sniffLen = 8000
)

// ContentDecoder turns artifact bytes into scannable text.
type ContentDecoder interface {
	Decode(content []byte) (string, error)
}

// Factory picks the decoder for an artifact from its extension and content.
type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

// DecoderFor returns the decoder for path/content, or ErrDecode for binaries.
func (f *Factory) DecoderFor(path string, content []byte) (ContentDecoder, error) {
	ext := strings.ToLower(filepath.Ext(path))
	mt := mimetype.Detect(content)

	switch {
	case ext == ".pdf" || mt.Is(mimePDF):
		return &PDFDecoder{}, nil
	case ext == ".xlsx" || mt.Is(mimeXLSX):
		return &ExcelDecoder{}, nil
	}

	if !f.IsSupported(ext) || isBinaryMime(mt.String()) || hasNUL(content) {
		return nil, fmt.Errorf("%w: %s (%s)", models.ErrDecode, path, mt.String())
	}
	return &TextDecoder{}, nil
}

// Decode is a convenience wrapper around DecoderFor.
func (f *Factory) Decode(path string, content []byte) (string, error) {
	d, err := f.DecoderFor(path, content)
	if err != nil {
		return "", err
	}
	text, err := d.Decode(content)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", models.ErrDecode, path, err)
	}
	return text, nil
}

// IsSupported checks if the file extension is supported for scanning
func (f *Factory) IsSupported(ext string) bool {
	switch strings.ToLower(ext) {
	// Block strict binaries / media
	case ".exe", ".dll", ".so", ".dylib", ".bin", ".o", ".a", ".class", ".pyc":
		return false
	case ".jpg", ".jpeg", ".png", ".gif", ".bmp", ".tiff", ".webp", ".ico":
		return false
	case ".mp3", ".mp4", ".wav", ".avi", ".mov", ".mkv":
		return false
	case ".zip", ".tar", ".gz", ".rar", ".7z", ".iso", ".jar":
		return false
	// Allow everything else (Documents, Code, Configs, unknown types)
	default:
		return true
	}
}

func isBinaryMime(mimeType string) bool {
	binaryPrefixes := []string{
		"application/x-executable",
		"application/x-mach-binary",
		"application/x-sharedlib",
		"application/x-object",
		"application/zip",
		"application/gzip",
		"application/x-tar",
		"image/",
		"audio/",
		"video/",
	}
	for _, prefix := range binaryPrefixes {
		if strings.HasPrefix(mimeType, prefix) {
			return true
		}
	}
	for _, suffix := range []string{"/x-executable", "/x-sharedlib", "/x-mach-binary"} {
		if strings.HasSuffix(mimeType, suffix) {
			return true
		}
	}
	return false
}

func hasNUL(content []byte) bool {
	if len(content) > sniffLen {
		content = content[:sniffLen]
	}
	return bytes.IndexByte(content, 0) >= 0
}
