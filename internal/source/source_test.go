package source

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digimosa/gdpr-scan/internal/models"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	full := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func TestLocalList(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "b.py", "x")
	writeFile(t, root, "a/config.yaml", "y")
	writeFile(t, root, "logo.png", "z")
	writeFile(t, root, ".git/config", "[core]")
	writeFile(t, root, "node_modules/pkg/index.js", "w")

	paths, err := NewLocal(root).List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a/config.yaml", "b.py"}, paths)
}

func TestLocalListMissingRoot(t *testing.T) {
	_, err := NewLocal(filepath.Join(t.TempDir(), "nope")).List(context.Background())
	assert.Error(t, err)
}

func TestLocalListCancelled(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.txt", "x")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewLocal(root).List(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLocalFetch(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "dir/users.csv", "name,email\njan,jan@bedrijf.nl\n")

	l := NewLocal(root)
	size, err := l.Size(context.Background(), "dir/users.csv")
	require.NoError(t, err)
	assert.EqualValues(t, 30, size)

	a, err := l.Fetch(context.Background(), "dir/users.csv")
	require.NoError(t, err)
	assert.Equal(t, "dir/users.csv", a.Path)
	assert.Equal(t, "name,email\njan,jan@bedrijf.nl\n", string(a.Content))
	assert.EqualValues(t, 30, a.Size)
	require.NotNil(t, a.LastModified)
	assert.WithinDuration(t, time.Now(), *a.LastModified, time.Minute)
	assert.Nil(t, a.Blame)

	_, err = l.Fetch(context.Background(), "missing.txt")
	assert.True(t, errors.Is(err, ErrNotFound))
	_, err = l.Size(context.Background(), "missing.txt")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestLocalBlame(t *testing.T) {
	root := t.TempDir()
	repo, err := git.PlainInit(root, false)
	require.NoError(t, err)

	writeFile(t, root, "src/app.py", "import os\nAPI_KEY = 'x'\n")
	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add("src/app.py")
	require.NoError(t, err)
	hash, err := wt.Commit("initial", &git.CommitOptions{
		Author: &object.Signature{Name: "Dev", Email: "dev@bedrijf.nl", When: time.Now()},
	})
	require.NoError(t, err)

	blamer, err := NewGitBlamer(root)
	require.NoError(t, err)

	l := NewLocal(root)
	l.Blamer = blamer
	a, err := l.Fetch(context.Background(), "src/app.py")
	require.NoError(t, err)
	require.NotEmpty(t, a.Blame)
	assert.Equal(t, models.CommitInfo{Author: "dev@bedrijf.nl", CommitID: hash.String()}, a.Blame[2])

	// Untracked files are still fetched, just without blame.
	writeFile(t, root, "notes.txt", "todo\n")
	a, err = l.Fetch(context.Background(), "notes.txt")
	require.NoError(t, err)
	assert.Nil(t, a.Blame)
}

func TestGitBlamerOutsideRepo(t *testing.T) {
	_, err := NewGitBlamer(t.TempDir())
	assert.Error(t, err)
}

func TestMemory(t *testing.T) {
	m := NewMemory(map[string]string{"b.txt": "bee", "a.txt": "a"})
	mod := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	m.SetModified("a.txt", mod)
	m.SetBlame("a.txt", map[int]models.CommitInfo{1: {Author: "x", CommitID: "y"}})
	m.Add("c.txt", []byte("see"))

	paths, err := m.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt", "b.txt", "c.txt"}, paths)

	a, err := m.Fetch(context.Background(), "a.txt")
	require.NoError(t, err)
	assert.Equal(t, mod, *a.LastModified)
	assert.Equal(t, "x", a.Blame[1].Author)

	size, err := m.Size(context.Background(), "b.txt")
	require.NoError(t, err)
	assert.EqualValues(t, 3, size)

	_, err = m.Fetch(context.Background(), "zzz")
	assert.ErrorIs(t, err, ErrNotFound)

	var _ Source = m
	var _ Sizer = m
	var _ Source = NewLocal(".")
	var _ Sizer = NewLocal(".")
}
