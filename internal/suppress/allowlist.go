package suppress

import (
	"bufio"
	"os"
	"strings"
	"sync"
)

// Allowlist holds matched values that are known not to be sensitive, one per
// line in a plain text file.
type Allowlist struct {
	mu    sync.RWMutex
	items map[string]bool
	path  string
}

// NewAllowlist creates or loads an allowlist from the given path. A missing
// file yields an empty list.
func NewAllowlist(path string) (*Allowlist, error) {
	a := &Allowlist{
		items: make(map[string]bool),
		path:  path,
	}
	if path == "" {
		return a, nil
	}
	if err := a.load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
	}
	return a, nil
}

// AllowValues builds an in-memory allowlist.
func AllowValues(values ...string) *Allowlist {
	a := &Allowlist{items: make(map[string]bool)}
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			a.items[v] = true
		}
	}
	return a
}

func (a *Allowlist) load() error {
	file, err := os.Open(a.path)
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" && !strings.HasPrefix(line, "#") {
			a.items[line] = true
		}
	}
	return scanner.Err()
}

// Contains checks if the value is allowlisted.
func (a *Allowlist) Contains(value string) bool {
	if a == nil {
		return false
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.items[strings.TrimSpace(value)]
}

func (a *Allowlist) Len() int {
	if a == nil {
		return 0
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.items)
}

// Add adds a new value and appends it to the backing file, if any.
func (a *Allowlist) Add(value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.items[value] {
		return nil
	}
	a.items[value] = true
	if a.path == "" {
		return nil
	}

	f, err := os.OpenFile(a.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.WriteString(value + "\n")
	return err
}
