// Package detect wires scanning, tokenizing, caching and the detector
// into one operation used by the CLI, watch mode and the MCP server.
package detect

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/panbanda/cpd/internal/cache"
	"github.com/panbanda/cpd/internal/fileproc"
	"github.com/panbanda/cpd/internal/scanner"
	"github.com/panbanda/cpd/internal/vcs"
	"github.com/panbanda/cpd/pkg/config"
	"github.com/panbanda/cpd/pkg/cpd"
	"github.com/panbanda/cpd/pkg/lexer"
	"github.com/panbanda/cpd/pkg/report"
	"github.com/panbanda/cpd/pkg/source"
	"github.com/panbanda/cpd/pkg/token"
)

// ErrNoFiles is returned when nothing is left to scan.
var ErrNoFiles = errors.New("no source files found")

// Service runs duplicate detection with a fixed configuration.
type Service struct {
	config *config.Config
	opener vcs.Opener
	cache  *cache.Cache
	logger *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithConfig sets the configuration.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		s.config = cfg
	}
}

// WithOpener sets the VCS opener (for testing).
func WithOpener(opener vcs.Opener) Option {
	return func(s *Service) {
		s.opener = opener
	}
}

// WithCache replaces the cache built from the configuration.
func WithCache(c *cache.Cache) Option {
	return func(s *Service) {
		s.cache = c
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// New creates a detection service. A cache that cannot be created is
// logged and disabled.
func New(opts ...Option) *Service {
	s := &Service{
		opener: vcs.DefaultOpener(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.config == nil {
		s.config = config.LoadOrDefault()
	}
	if s.cache == nil {
		c, err := cache.New(s.config.Cache.Dir, s.config.Cache.TTL, s.config.Cache.Enabled)
		if err != nil {
			s.logger.Warn("cache disabled", "dir", s.config.Cache.Dir, "error", err)
			c, _ = cache.New("", 0, false)
		}
		s.cache = c
	}
	return s
}

// Config returns the service configuration.
func (s *Service) Config() *config.Config {
	return s.config
}

// Request selects what to scan.
type Request struct {
	// Paths are files and directories; empty means the current directory.
	Paths []string
	// Suffixes restricts directory scans to these extensions.
	Suffixes []string
	// Ref scans a git revision instead of the working tree.
	Ref string
}

// Target is a resolved file list together with the source to read it from.
type Target struct {
	Files  []string
	Source source.ContentSource
	// Skipped counts files dropped by the size limit during resolution.
	Skipped int
}

// Resolve expands a request into the files to scan.
func (s *Service) Resolve(req Request) (*Target, error) {
	paths := req.Paths
	if len(paths) == 0 {
		paths = []string{"."}
	}
	if req.Ref != "" {
		return s.resolveRef(paths, req)
	}

	sc := scanner.NewScanner(s.config, scanner.WithSuffixes(req.Suffixes...))
	files, err := sc.ScanPaths(paths)
	if err != nil {
		return nil, &ScanError{Path: strings.Join(paths, ", "), Err: err}
	}
	files, skipped := scanner.FilterBySize(files, s.config.Detect.MaxFileSize)
	return &Target{Files: files, Source: source.NewFilesystem(), Skipped: skipped}, nil
}

// resolveRef lists the files of a revision that fall under paths. Paths
// are interpreted relative to the repository root.
func (s *Service) resolveRef(paths []string, req Request) (*Target, error) {
	abs, err := filepath.Abs(paths[0])
	if err != nil {
		return nil, &PathError{Path: paths[0], Err: err}
	}
	repo, err := s.opener.PlainOpenWithDetect(abs)
	if err != nil {
		return nil, &GitError{Err: err}
	}
	commit, err := repo.Resolve(req.Ref)
	if err != nil {
		return nil, &GitError{Err: fmt.Errorf("resolve %s: %w", req.Ref, err)}
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, &GitError{Err: err}
	}
	entries, err := tree.Entries()
	if err != nil {
		return nil, &GitError{Err: err}
	}

	prefixes := make([]string, 0, len(paths))
	for _, p := range paths {
		a, err := filepath.Abs(p)
		if err != nil {
			return nil, &PathError{Path: p, Err: err}
		}
		rel, err := filepath.Rel(repo.RepoPath(), a)
		if err != nil || strings.HasPrefix(rel, "..") {
			return nil, &PathError{Path: p, Err: errors.New("outside the repository")}
		}
		prefixes = append(prefixes, filepath.ToSlash(rel))
	}

	sc := scanner.NewScanner(s.config, scanner.WithSuffixes(req.Suffixes...))
	target := &Target{Source: source.NewTree(tree)}
	for _, e := range entries {
		if !underAny(e.Path, prefixes) || s.config.ShouldExclude(e.Path) || !sc.Accepts(e.Path) {
			continue
		}
		if limit := s.config.Detect.MaxFileSize; limit > 0 && e.Size > limit {
			target.Skipped++
			continue
		}
		target.Files = append(target.Files, e.Path)
	}
	s.logger.Debug("resolved revision", "ref", req.Ref, "commit", commit.Hash().String(), "files", len(target.Files))
	return target, nil
}

func underAny(p string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if prefix == "." || p == prefix || strings.HasPrefix(p, strings.TrimSuffix(prefix, "/")+"/") {
			return true
		}
	}
	return false
}

// Options tunes one Detect call.
type Options struct {
	// OnProgress is called once per file after it is prepared.
	OnProgress func()
}

// Outcome is the result of a detection run.
type Outcome struct {
	Result *cpd.Result
	Report *report.Report
	// Errors holds files that could not be read or tokenized. They are
	// left out of the run rather than failing it.
	Errors *fileproc.ProcessingErrors
}

type prepared struct {
	sig   cpd.Signature
	lines int
}

// Detect prepares every file of target in parallel and runs one detection
// pass over them in target order.
func (s *Service) Detect(ctx context.Context, target *Target) (*Outcome, error) {
	return s.DetectWithOptions(ctx, target, Options{})
}

// DetectWithOptions is Detect with per-call options.
func (s *Service) DetectWithOptions(ctx context.Context, target *Target, opts Options) (*Outcome, error) {
	if len(target.Files) == 0 {
		return nil, ErrNoFiles
	}

	cfg := s.config.Detect
	detOpts, err := s.config.DetectorOptions()
	if err != nil {
		return nil, err
	}
	detector, err := cpd.New(detOpts...)
	if err != nil {
		return nil, err
	}
	ignored := detector.Config().Ignored
	lx, err := lexer.New(cfg.Lexer)
	if err != nil {
		return nil, err
	}
	lx.Close()

	skipped := target.Skipped
	results, errs := fileproc.MapSource(ctx, target.Files, target.Source, fileproc.SourceOptions{
		Workers: cfg.Workers,
		MaxSize: cfg.MaxFileSize,
		OnSkip: func(path string, size int64) {
			skipped++
			s.logger.Debug("skipping large file", "path", path, "size", size)
		},
		OnProgress: opts.OnProgress,
	}, func(path string, content []byte) (prepared, error) {
		return s.prepare(ctx, path, content, cfg.Lexer, ignored)
	})
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if errs != nil {
		for _, e := range errs.Errors {
			s.logger.Warn("file skipped", "path", e.Path, "error", e.Err)
		}
	}
	if len(results) == 0 {
		if errs != nil {
			return nil, fmt.Errorf("%w: %w", ErrNoFiles, errs)
		}
		return nil, ErrNoFiles
	}

	sigs := make([]cpd.Signature, len(results))
	lines := make(map[string]int, len(results))
	for i, p := range results {
		sigs[i] = p.sig
		lines[p.sig.File] = p.lines
	}

	res, err := detector.DetectPrepared(ctx, sigs)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("detection finished",
		"files", res.FilesScanned, "tokens", res.Tokens, "windows", res.Windows,
		"index", res.IndexSize, "clones", res.Len())

	return &Outcome{
		Result: res,
		Report: report.Build(res, report.Totals{Lines: lines, Skipped: skipped}),
		Errors: errs,
	}, nil
}

// prepare tokenizes one file and builds its signature, going through the
// cache when it is enabled. Tree-sitter parsers are not safe for concurrent
// use so every call gets its own lexer.
func (s *Service) prepare(ctx context.Context, file string, content []byte, lexerName string, ignored token.Set) (prepared, error) {
	lines := report.CountLines(content)
	key := cache.SignatureKey(file, lexerName, ignored.Names())
	hash := ""
	if s.cache.Enabled() {
		hash = cache.HashBytes(content)
		if sig, ok := s.cache.GetSignature(key, hash); ok {
			return prepared{sig: sig, lines: lines}, nil
		}
	}

	lx, err := lexer.New(lexerName)
	if err != nil {
		return prepared{}, err
	}
	defer lx.Close()

	stream, err := lx.Tokenize(ctx, file, content)
	if err != nil {
		return prepared{}, fmt.Errorf("tokenize: %w", err)
	}
	sig, err := cpd.Prepare(stream, ignored)
	if err != nil {
		return prepared{}, err
	}

	if s.cache.Enabled() {
		if err := s.cache.SetSignature(key, hash, sig); err != nil {
			s.logger.Debug("cache write failed", "path", file, "error", err)
		}
	}
	return prepared{sig: sig, lines: lines}, nil
}

// Run resolves and detects in one call.
func (s *Service) Run(ctx context.Context, req Request, opts Options) (*Outcome, error) {
	target, err := s.Resolve(req)
	if err != nil {
		return nil, err
	}
	return s.DetectWithOptions(ctx, target, opts)
}
