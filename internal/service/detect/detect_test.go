package detect

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/panbanda/cpd/internal/cache"
	"github.com/panbanda/cpd/pkg/config"
)

const body = `
func compute(values []int) int {
	total := 0
	for i, v := range values {
		if v%2 == 0 {
			total += v * i
		} else {
			total -= v
		}
	}
	return total
}
`

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Detect.MinMatches = 20
	cfg.Detect.MinLines = 3
	cfg.Cache.Enabled = false
	return cfg
}

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		p := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func duplicatedTree(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"a.go": "package a\n" + body,
		"b.go": "package b\n" + body,
		"c.go": "package c\n\nfunc other() {}\n",
	})
	return dir
}

func TestNew(t *testing.T) {
	cfg := testConfig()
	svc := New(WithConfig(cfg))
	if svc.Config() != cfg {
		t.Error("WithConfig did not set config")
	}
	if svc.cache == nil || svc.cache.Enabled() {
		t.Error("a disabled cache should still be usable")
	}
	if svc.opener == nil {
		t.Error("opener should not be nil")
	}
}

func TestRun_FindsClone(t *testing.T) {
	dir := duplicatedTree(t)
	svc := New(WithConfig(testConfig()))

	var ticks atomic.Int32
	out, err := svc.Run(context.Background(), Request{Paths: []string{dir}}, Options{OnProgress: func() { ticks.Add(1) }})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if ticks.Load() != 3 {
		t.Errorf("progress ticks = %d, want 3", ticks.Load())
	}
	if out.Errors != nil {
		t.Errorf("unexpected errors: %v", out.Errors)
	}
	if out.Result.Len() != 1 {
		t.Fatalf("clones = %d, want 1", out.Result.Len())
	}

	rec := out.Result.At(0)
	if filepath.Base(rec.FileA) != "a.go" || filepath.Base(rec.FileB) != "b.go" {
		t.Errorf("clone files = %s, %s", rec.FileA, rec.FileB)
	}
	if rec.FirstLineA != 3 || rec.FirstLineB != 3 {
		t.Errorf("first lines = %d, %d, want 3, 3", rec.FirstLineA, rec.FirstLineB)
	}
	// The last window of 20 tokens starts on line 6.
	if rec.NumLines != 4 {
		t.Errorf("NumLines = %d, want 4", rec.NumLines)
	}

	if out.Report.Summary.FilesScanned != 3 {
		t.Errorf("FilesScanned = %d", out.Report.Summary.FilesScanned)
	}
	if out.Report.Summary.DuplicatedLines != 8 {
		t.Errorf("DuplicatedLines = %d, want 8", out.Report.Summary.DuplicatedLines)
	}
}

func TestRun_Thresholds(t *testing.T) {
	dir := duplicatedTree(t)
	cfg := testConfig()
	cfg.Detect.MinLines = 4

	out, err := New(WithConfig(cfg)).Run(context.Background(), Request{Paths: []string{dir}}, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if out.Result.Len() != 0 {
		t.Errorf("a clone of exactly min_lines lines should not be reported, got %d", out.Result.Len())
	}
}

func TestRun_GenericLexerAndSuffixes(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"a.tpl": body,
		"b.tpl": body,
		"c.go":  "package c\n" + body,
	})
	cfg := testConfig()
	cfg.Detect.Lexer = "generic"

	out, err := New(WithConfig(cfg)).Run(context.Background(), Request{Paths: []string{dir}, Suffixes: []string{"tpl"}}, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if out.Result.FilesScanned != 2 {
		t.Errorf("FilesScanned = %d, want 2", out.Result.FilesScanned)
	}
	if out.Result.Len() != 1 {
		t.Errorf("clones = %d, want 1", out.Result.Len())
	}
}

func TestRun_NoFiles(t *testing.T) {
	_, err := New(WithConfig(testConfig())).Run(context.Background(), Request{Paths: []string{t.TempDir()}}, Options{})
	if !errors.Is(err, ErrNoFiles) {
		t.Errorf("Run() error = %v, want ErrNoFiles", err)
	}
}

func TestRun_MissingPath(t *testing.T) {
	_, err := New(WithConfig(testConfig())).Run(context.Background(), Request{Paths: []string{"/does/not/exist"}}, Options{})
	var scanErr *ScanError
	if !errors.As(err, &scanErr) {
		t.Errorf("Run() error = %v, want *ScanError", err)
	}
}

func TestRun_UnknownLexer(t *testing.T) {
	cfg := testConfig()
	cfg.Detect.Lexer = "bogus"
	_, err := New(WithConfig(cfg)).Run(context.Background(), Request{Paths: []string{duplicatedTree(t)}}, Options{})
	if err == nil || !strings.Contains(err.Error(), "bogus") {
		t.Errorf("Run() error = %v, want unknown lexer", err)
	}
}

func TestRun_TokenizeErrorsAreCollected(t *testing.T) {
	dir := duplicatedTree(t)
	writeFiles(t, dir, map[string]string{"notes.txt": "hello\n"})
	cfg := testConfig()
	cfg.Detect.Lexer = "treesitter"

	svc := New(WithConfig(cfg))
	target, err := svc.Resolve(Request{Paths: []string{
		filepath.Join(dir, "a.go"),
		filepath.Join(dir, "notes.txt"),
		filepath.Join(dir, "b.go"),
	}})
	if err != nil {
		t.Fatal(err)
	}
	out, err := svc.Detect(context.Background(), target)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if out.Errors == nil || len(out.Errors.Errors) != 1 {
		t.Fatalf("Errors = %v, want one tokenize failure", out.Errors)
	}
	if filepath.Base(out.Errors.Errors[0].Path) != "notes.txt" {
		t.Errorf("failed file = %s", out.Errors.Errors[0].Path)
	}
	if out.Result.Len() != 1 {
		t.Errorf("clones = %d, want 1", out.Result.Len())
	}
}

func TestRun_MaxFileSize(t *testing.T) {
	dir := duplicatedTree(t)
	cfg := testConfig()
	cfg.Detect.MaxFileSize = 40

	out, err := New(WithConfig(cfg)).Run(context.Background(), Request{Paths: []string{dir}}, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if out.Report.Summary.FilesSkipped != 2 {
		t.Errorf("FilesSkipped = %d, want 2", out.Report.Summary.FilesSkipped)
	}
	if out.Result.Len() != 0 {
		t.Errorf("clones = %d, want 0", out.Result.Len())
	}
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(WithConfig(testConfig())).Run(ctx, Request{Paths: []string{duplicatedTree(t)}}, Options{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
}

func TestRun_UsesCache(t *testing.T) {
	dir := duplicatedTree(t)
	c, err := cache.New(filepath.Join(t.TempDir(), "cache"), 24, true)
	if err != nil {
		t.Fatal(err)
	}
	svc := New(WithConfig(testConfig()), WithCache(c))

	first, err := svc.Run(context.Background(), Request{Paths: []string{dir}}, Options{})
	if err != nil {
		t.Fatal(err)
	}
	stats, err := c.GetStats()
	if err != nil {
		t.Fatal(err)
	}
	if stats.Entries != 3 {
		t.Errorf("cache entries = %d, want 3", stats.Entries)
	}

	second, err := svc.Run(context.Background(), Request{Paths: []string{dir}}, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if first.Result.At(0) != second.Result.At(0) {
		t.Errorf("cached run differs: %+v vs %+v", first.Result.At(0), second.Result.At(0))
	}
}

func TestRun_GitRevision(t *testing.T) {
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatal(err)
	}
	writeFiles(t, dir, map[string]string{
		"a.go":        "package a\n" + body,
		"sub/b.go":    "package b\n" + body,
		"vendor/v.go": "package v\n" + body,
	})
	w, err := repo.Worktree()
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"a.go", "sub/b.go", "vendor/v.go"} {
		if _, err := w.Add(name); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := w.Commit("init", &git.CommitOptions{
		Author: &object.Signature{Name: "Test", Email: "test@example.com", When: time.Now()},
	}); err != nil {
		t.Fatal(err)
	}

	// The working tree no longer has the copy; the revision still does.
	if err := os.Remove(filepath.Join(dir, "sub", "b.go")); err != nil {
		t.Fatal(err)
	}

	svc := New(WithConfig(testConfig()))
	target, err := svc.Resolve(Request{Paths: []string{dir}, Ref: "HEAD"})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if strings.Join(target.Files, ",") != "a.go,sub/b.go" {
		t.Errorf("Files = %v, want a.go and sub/b.go", target.Files)
	}

	out, err := svc.Detect(context.Background(), target)
	if err != nil {
		t.Fatal(err)
	}
	if out.Result.Len() != 1 || out.Result.At(0).FileB != "sub/b.go" {
		t.Errorf("clones = %v", out.Result.Records())
	}

	sub, err := svc.Resolve(Request{Paths: []string{filepath.Join(dir, "sub")}, Ref: "HEAD"})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Join(sub.Files, ",") != "sub/b.go" {
		t.Errorf("Files under sub = %v", sub.Files)
	}

	if _, err := svc.Resolve(Request{Paths: []string{dir}, Ref: "nope"}); err == nil {
		t.Error("Resolve() should fail for an unknown revision")
	}
}

func TestRun_RevisionOutsideRepository(t *testing.T) {
	_, err := New(WithConfig(testConfig())).Resolve(Request{Paths: []string{t.TempDir()}, Ref: "HEAD"})
	var gitErr *GitError
	if !errors.As(err, &gitErr) {
		t.Errorf("Resolve() error = %v, want *GitError", err)
	}
}

func TestUnderAny(t *testing.T) {
	tests := []struct {
		path     string
		prefixes []string
		want     bool
	}{
		{"a.go", []string{"."}, true},
		{"sub/b.go", []string{"sub"}, true},
		{"sub/b.go", []string{"sub/b.go"}, true},
		{"subway/b.go", []string{"sub"}, false},
		{"a.go", []string{"sub"}, false},
	}
	for _, tt := range tests {
		if got := underAny(tt.path, tt.prefixes); got != tt.want {
			t.Errorf("underAny(%q, %v) = %v, want %v", tt.path, tt.prefixes, got, tt.want)
		}
	}
}
