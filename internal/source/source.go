// Package source adapts artifact stores to the scanner: list paths, report
// sizes and fetch contents.
package source

import (
	"context"
	"errors"

	"github.com/digimosa/gdpr-scan/internal/models"
)

var ErrNotFound = errors.New("artifact not found")

// Source lists artifacts and fetches their contents.
type Source interface {
	Name() string
	List(ctx context.Context) ([]string, error)
	Fetch(ctx context.Context, path string) (models.Artifact, error)
}

// Sizer is implemented by sources that can report an artifact's size
// without reading it. The scanner uses it to skip oversized artifacts.
type Sizer interface {
	Size(ctx context.Context, path string) (int64, error)
}
