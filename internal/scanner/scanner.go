package scanner

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"

	"github.com/panbanda/cpd/pkg/config"
	"github.com/panbanda/cpd/pkg/lexer"
)

// Scanner finds source files to feed the detector.
type Scanner struct {
	config   *config.Config
	suffixes []string
	matchers []gitignore.Matcher
	base     string // directory gitignore paths are relative to
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithSuffixes restricts scanning to files ending in one of suffixes. Without
// it every file the lexer has a grammar for is accepted.
func WithSuffixes(suffixes ...string) Option {
	return func(s *Scanner) {
		for _, suf := range suffixes {
			suf = strings.TrimSpace(suf)
			if suf == "" {
				continue
			}
			if !strings.HasPrefix(suf, ".") {
				suf = "." + suf
			}
			s.suffixes = append(s.suffixes, strings.ToLower(suf))
		}
	}
}

// NewScanner creates a new file scanner.
func NewScanner(cfg *config.Config, opts ...Option) *Scanner {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	s := &Scanner{config: cfg}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// findGitRoot walks up from start looking for a .git directory. Returns
// empty string outside a repository.
func findGitRoot(start string) string {
	dir := start
	for {
		if info, err := os.Stat(filepath.Join(dir, ".git")); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// loadExcludePatterns combines config patterns and every .gitignore in the
// enclosing repository into one matcher.
func (s *Scanner) loadExcludePatterns(root string) {
	s.matchers = nil
	s.base = root
	var patterns []gitignore.Pattern

	for _, pattern := range s.config.Exclude.Patterns {
		patterns = append(patterns, gitignore.ParsePattern(pattern, nil))
	}

	if s.config.Exclude.Gitignore {
		if gitRoot := findGitRoot(root); gitRoot != "" {
			s.base = gitRoot
			if gitPatterns, err := gitignore.ReadPatterns(osfs.New(gitRoot), nil); err == nil {
				patterns = append(patterns, gitPatterns...)
			}
		}
	}

	if len(patterns) > 0 {
		s.matchers = append(s.matchers, gitignore.NewMatcher(patterns))
	}
}

// isExcluded checks relPath, relative to the scan root whose absolute form
// is absRoot, against config exclusions and gitignore patterns.
func (s *Scanner) isExcluded(absRoot, relPath string, isDir bool) bool {
	if isDir {
		name := filepath.Base(relPath)
		if slices.Contains(s.config.Exclude.Dirs, name) {
			return true
		}
	} else if s.config.ShouldExclude(relPath) {
		return true
	}

	if len(s.matchers) == 0 {
		return false
	}
	matchPath, err := filepath.Rel(s.base, filepath.Join(absRoot, relPath))
	if err != nil {
		return false
	}
	parts := strings.Split(matchPath, string(filepath.Separator))
	for _, m := range s.matchers {
		if m.Match(parts, isDir) {
			return true
		}
	}
	return false
}

// Accepts reports whether a file name is one the scanner collects.
func (s *Scanner) Accepts(path string) bool {
	if len(s.suffixes) == 0 {
		return lexer.Supported(path)
	}
	lower := strings.ToLower(path)
	for _, suf := range s.suffixes {
		if strings.HasSuffix(lower, suf) {
			return true
		}
	}
	return false
}

// ScanDir recursively scans a directory for source files in lexical order.
// Symlinks that resolve outside root are skipped.
func (s *Scanner) ScanDir(root string) ([]string, error) {
	files := make([]string, 0, 1024)

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	absRoot, err = filepath.EvalSymlinks(absRoot)
	if err != nil {
		return nil, err
	}

	s.loadExcludePatterns(absRoot)

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}

		relPath, _ := filepath.Rel(root, path)
		if relPath == "." {
			return nil
		}

		if d.Type()&fs.ModeSymlink != 0 {
			resolved, err := filepath.EvalSymlinks(path)
			if err != nil || !isWithinRoot(resolved, absRoot) {
				return nil
			}
		}

		if d.IsDir() {
			if s.isExcluded(absRoot, relPath, true) {
				return filepath.SkipDir
			}
			return nil
		}

		if s.isExcluded(absRoot, relPath, false) || !s.Accepts(path) {
			return nil
		}
		files = append(files, path)
		return nil
	})

	return files, walkErr
}

// ScanPaths expands a mix of files and directories into a de-duplicated
// file list. Explicitly named files are kept even when their extension has
// no grammar; directories are scanned with ScanDir. Order follows the
// arguments, then lexical order within each directory.
func (s *Scanner) ScanPaths(paths []string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string

	add := func(p string) {
		key := filepath.Clean(p)
		if !seen[key] {
			seen[key] = true
			out = append(out, p)
		}
	}

	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("cannot scan %s: %w", p, err)
		}
		if !info.IsDir() {
			add(p)
			continue
		}
		files, err := s.ScanDir(p)
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			add(f)
		}
	}
	return out, nil
}

// isWithinRoot checks if a path is contained within the root directory.
func isWithinRoot(path, root string) bool {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	absPath = filepath.Clean(absPath)
	root = filepath.Clean(root)

	return absPath == root || strings.HasPrefix(absPath, root+string(filepath.Separator))
}

// FilterBySize drops files larger than maxSize bytes and reports how many
// were skipped. A maxSize of 0 disables the check.
func FilterBySize(files []string, maxSize int64) ([]string, int) {
	if maxSize <= 0 {
		return files, 0
	}

	filtered := make([]string, 0, len(files))
	skipped := 0
	for _, f := range files {
		info, err := os.Stat(f)
		if err != nil || info.Size() > maxSize {
			skipped++
			continue
		}
		filtered = append(filtered, f)
	}
	return filtered, skipped
}
