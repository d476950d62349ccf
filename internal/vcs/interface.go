// Package vcs provides read access to git revisions.
package vcs

import (
	"github.com/go-git/go-git/v5/plumbing"
)

// Repository provides access to git repository operations.
type Repository interface {
	// Head returns the commit HEAD points at.
	Head() (Commit, error)
	// Resolve returns the commit a revision (branch, tag, SHA, HEAD~2)
	// names.
	Resolve(rev string) (Commit, error)
	// RepoPath returns the root path of the working tree.
	RepoPath() string
}

// Commit represents a git commit.
type Commit interface {
	Hash() plumbing.Hash
	Tree() (Tree, error)
}

// TreeEntry represents a file in a git tree.
type TreeEntry struct {
	Path string
	Size int64
}

// Tree represents a git tree object.
type Tree interface {
	// Entries returns all files in the tree, recursively, in tree order.
	Entries() ([]TreeEntry, error)
	// File returns the content of the file at path.
	File(path string) ([]byte, error)
}

// Opener opens git repositories.
type Opener interface {
	// PlainOpenWithDetect opens a git repository, detecting .git in parent
	// directories.
	PlainOpenWithDetect(path string) (Repository, error)
}
