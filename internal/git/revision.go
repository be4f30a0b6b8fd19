// Package git reads version control metadata for a source tree.
package git

import (
	"errors"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// ShortHashLen is the length of a revision returned by Revision.
const ShortHashLen = 7

// Revision returns the abbreviated HEAD commit hash of the repository
// containing dir. Parent directories are searched for the repository root.
// It returns "" when dir is not inside a repository or HEAD has no commit.
func Revision(dir string) (string, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if errors.Is(err, git.ErrRepositoryNotExists) {
		return "", nil
	}
	if err != nil {
		return "", err
	}

	ref, err := repo.Head()
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}

	hash := ref.Hash().String()
	if len(hash) > ShortHashLen {
		hash = hash[:ShortHashLen]
	}
	return hash, nil
}

// RevisionFunc returns a function reporting the current revision of dir,
// or "" on any error.
func RevisionFunc(dir string) func() string {
	return func() string {
		rev, err := Revision(dir)
		if err != nil {
			return ""
		}
		return rev
	}
}
