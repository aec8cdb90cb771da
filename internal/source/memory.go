package source

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/digimosa/gdpr-scan/internal/models"
)

// Memory is an in-memory source, used by tests and by callers that already
// hold the content.
type Memory struct {
	mu       sync.RWMutex
	files    map[string][]byte
	blame    map[string]map[int]models.CommitInfo
	modified map[string]time.Time
}

func NewMemory(files map[string]string) *Memory {
	m := &Memory{
		files:    make(map[string][]byte, len(files)),
		blame:    make(map[string]map[int]models.CommitInfo),
		modified: make(map[string]time.Time),
	}
	for p, c := range files {
		m.files[p] = []byte(c)
	}
	return m
}

func (m *Memory) Name() string { return "memory" }

func (m *Memory) Add(path string, content []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[path] = content
}

func (m *Memory) SetBlame(path string, blame map[int]models.CommitInfo) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blame[path] = blame
}

func (m *Memory) SetModified(path string, t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.modified[path] = t
}

func (m *Memory) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]string, 0, len(m.files))
	for p := range m.files {
		out = append(out, p)
	}
	sort.Strings(out)
	return out, nil
}

func (m *Memory) Size(_ context.Context, path string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.files[path]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	return int64(len(c)), nil
}

func (m *Memory) Fetch(ctx context.Context, path string) (models.Artifact, error) {
	if err := ctx.Err(); err != nil {
		return models.Artifact{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.files[path]
	if !ok {
		return models.Artifact{}, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	a := models.Artifact{
		Path:    path,
		Content: append([]byte(nil), c...),
		Size:    int64(len(c)),
		Blame:   m.blame[path],
	}
	if t, ok := m.modified[path]; ok {
		a.LastModified = &t
	}
	return a, nil
}
