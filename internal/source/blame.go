package source

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/digimosa/gdpr-scan/internal/models"
)

// GitBlamer maps lines of files in a git work tree to the commit that last
// touched them, as of HEAD.
type GitBlamer struct {
	mu     sync.Mutex
	root   string
	commit *object.Commit
}

// NewGitBlamer opens the repository containing dir.
func NewGitBlamer(dir string) (*GitBlamer, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{
		DetectDotGit: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open git repository at %s: %w", dir, err)
	}

	wt, err := repo.Worktree()
	if err != nil {
		return nil, err
	}

	head, err := repo.Head()
	if err != nil {
		return nil, err
	}

	commit, err := repo.CommitObject(head.Hash())
	if err != nil {
		return nil, err
	}

	root, err := filepath.EvalSymlinks(wt.Filesystem.Root())
	if err != nil {
		return nil, err
	}
	return &GitBlamer{root: root, commit: commit}, nil
}

// Blame returns 1-based line numbers mapped to author and commit id for
// file. Files not committed at HEAD return an error.
func (b *GitBlamer) Blame(file string) (map[int]models.CommitInfo, error) {
	abs, err := filepath.Abs(file)
	if err != nil {
		return nil, err
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, err
	}
	rel, err := filepath.Rel(b.root, resolved)
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	res, err := git.Blame(b.commit, filepath.ToSlash(rel))
	if err != nil {
		return nil, err
	}

	out := make(map[int]models.CommitInfo, len(res.Lines))
	for i, l := range res.Lines {
		out[i+1] = models.CommitInfo{
			Author:   l.Author,
			CommitID: l.Hash.String(),
		}
	}
	return out, nil
}
