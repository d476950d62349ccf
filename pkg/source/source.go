// Package source supplies the bytes the detector tokenizes: files on disk
// for a normal scan, blobs of a git revision for --ref, and in-memory
// content for stdin.
package source

import (
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sync"

	"github.com/panbanda/cpd/internal/vcs"
)

// ContentSource returns the content stored under a file path.
type ContentSource interface {
	Read(path string) ([]byte, error)
}

// FilesystemSource reads files from disk, relative to the working directory.
type FilesystemSource struct{}

// NewFilesystem returns a disk-backed source.
func NewFilesystem() *FilesystemSource {
	return &FilesystemSource{}
}

func (*FilesystemSource) Read(name string) ([]byte, error) {
	return os.ReadFile(name)
}

// TreeSource reads blobs from one git revision. Names are cleaned and
// converted to slash form before lookup, so "./pkg/a.go" finds pkg/a.go.
// Reads are serialized; a go-git tree is not safe for concurrent use.
type TreeSource struct {
	mu   sync.Mutex
	tree vcs.Tree
}

// NewTree returns a source over tree.
func NewTree(tree vcs.Tree) *TreeSource {
	return &TreeSource{tree: tree}
}

func (s *TreeSource) Read(name string) ([]byte, error) {
	key := path.Clean(filepath.ToSlash(name))

	s.mu.Lock()
	data, err := s.tree.File(key)
	s.mu.Unlock()

	if err != nil {
		return nil, &fs.PathError{Op: "read", Path: name, Err: err}
	}
	return data, nil
}

// Memory holds content keyed by name. Piped input is stored under "-".
type Memory map[string][]byte

func (m Memory) Read(name string) ([]byte, error) {
	data, ok := m[name]
	if !ok {
		return nil, &fs.PathError{Op: "read", Path: name, Err: fs.ErrNotExist}
	}
	return data, nil
}
