package source

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	log "github.com/sirupsen/logrus"

	"github.com/digimosa/gdpr-scan/internal/extractor"
	"github.com/digimosa/gdpr-scan/internal/models"
)

var skipDirs = map[string]bool{
	".git":         true,
	".hg":          true,
	".svn":         true,
	"node_modules": true,
}

// Local walks a directory tree on disk.
type Local struct {
	Root string
	// Filter decides by extension whether a file is listed. Defaults to
	// the extractor's supported-extension check.
	Filter func(ext string) bool
	// Blamer attaches commit info when set.
	Blamer *GitBlamer
}

func NewLocal(root string) *Local {
	f := extractor.NewFactory()
	return &Local{Root: root, Filter: f.IsSupported}
}

func (l *Local) Name() string { return "local:" + l.Root }

// List returns slash-separated paths relative to Root, sorted.
func (l *Local) List(ctx context.Context) ([]string, error) {
	if _, err := os.Stat(l.Root); err != nil {
		return nil, fmt.Errorf("cannot list %s: %w", l.Root, err)
	}

	var out []string
	err := filepath.WalkDir(l.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			log.Warnf("(source) error accessing path %s: %v", path, err)
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if d.IsDir() {
			if path != l.Root && skipDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if l.Filter != nil && !l.Filter(filepath.Ext(path)) {
			return nil
		}

		rel, err := filepath.Rel(l.Root, path)
		if err != nil {
			return err
		}
		out = append(out, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(out)
	return out, nil
}

func (l *Local) abs(path string) string {
	return filepath.Join(l.Root, filepath.FromSlash(path))
}

func (l *Local) Size(_ context.Context, path string) (int64, error) {
	info, err := os.Stat(l.abs(path))
	if err != nil {
		return 0, wrapNotFound(path, err)
	}
	return info.Size(), nil
}

func (l *Local) Fetch(ctx context.Context, path string) (models.Artifact, error) {
	if err := ctx.Err(); err != nil {
		return models.Artifact{}, err
	}

	full := l.abs(path)
	info, err := os.Stat(full)
	if err != nil {
		return models.Artifact{}, wrapNotFound(path, err)
	}
	content, err := os.ReadFile(full)
	if err != nil {
		return models.Artifact{}, fmt.Errorf("read %s: %w", path, err)
	}

	mod := info.ModTime()
	a := models.Artifact{
		Path:         path,
		Content:      content,
		Size:         info.Size(),
		LastModified: &mod,
	}

	if l.Blamer != nil {
		blame, err := l.Blamer.Blame(full)
		if err != nil {
			log.Debugf("(source) no blame for %s: %v", path, err)
		} else {
			a.Blame = blame
		}
	}
	return a, nil
}

func wrapNotFound(path string, err error) error {
	if os.IsNotExist(err) {
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	return fmt.Errorf("stat %s: %w", path, err)
}
