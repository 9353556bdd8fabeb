package scaffold

import (
	"errors"
	"fmt"
	"path/filepath"

	git "github.com/go-git/go-git/v5"
)

// ErrNotRepository is returned by RepositoryRoot outside a git worktree.
var ErrNotRepository = errors.New("not inside a git repository")

// RepositoryRoot returns the worktree root of the git repository containing dir.
func RepositoryRoot(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}

	repo, err := git.PlainOpenWithOptions(abs, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return "", fmt.Errorf("%s: %w", abs, ErrNotRepository)
		}
		return "", fmt.Errorf("open repository at %s: %w", abs, err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("%s: %w", abs, ErrNotRepository)
	}
	return worktree.Filesystem.Root(), nil
}
