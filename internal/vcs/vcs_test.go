package vcs

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

func commitFiles(t *testing.T, repo *git.Repository, dir string, files map[string]string, msg string) {
	t.Helper()
	w, err := repo.Worktree()
	if err != nil {
		t.Fatal(err)
	}
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := w.Add(name); err != nil {
			t.Fatal(err)
		}
	}
	_, err = w.Commit(msg, &git.CommitOptions{
		Author: &object.Signature{
			Name:  "Test",
			Email: "test@example.com",
			When:  time.Now(),
		},
	})
	if err != nil {
		t.Fatal(err)
	}
}

func initTestRepo(t *testing.T) string {
	t.Helper()
	repoPath := t.TempDir()
	repo, err := git.PlainInit(repoPath, false)
	if err != nil {
		t.Fatalf("Failed to init repo: %v", err)
	}
	commitFiles(t, repo, repoPath, map[string]string{
		"a.go":     "package a\n",
		"lib/b.go": "package lib\n",
	}, "first")
	commitFiles(t, repo, repoPath, map[string]string{
		"a.go": "package a\n\nvar x = 1\n",
	}, "second")
	return repoPath
}

func TestGitOpener_PlainOpenWithDetect(t *testing.T) {
	repoPath := initTestRepo(t)

	repo, err := NewGitOpener().PlainOpenWithDetect(filepath.Join(repoPath, "lib"))
	if err != nil {
		t.Fatalf("PlainOpenWithDetect() error = %v", err)
	}
	if repo.RepoPath() != repoPath {
		t.Errorf("RepoPath() = %q, want %q", repo.RepoPath(), repoPath)
	}
}

func TestGitOpener_NotARepository(t *testing.T) {
	if _, err := NewGitOpener().PlainOpenWithDetect(t.TempDir()); err == nil {
		t.Error("PlainOpenWithDetect() should fail outside a repository")
	}
}

func TestResolveAndReadTree(t *testing.T) {
	repoPath := initTestRepo(t)
	repo, err := NewGitOpener().PlainOpenWithDetect(repoPath)
	if err != nil {
		t.Fatal(err)
	}

	head, err := repo.Head()
	if err != nil {
		t.Fatalf("Head() error = %v", err)
	}
	prev, err := repo.Resolve("HEAD~1")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if prev.Hash() == head.Hash() {
		t.Error("HEAD~1 should differ from HEAD")
	}

	tree, err := prev.Tree()
	if err != nil {
		t.Fatal(err)
	}
	entries, err := tree.Entries()
	if err != nil {
		t.Fatalf("Entries() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Entries() = %v, want 2 files", entries)
	}

	content, err := tree.File("a.go")
	if err != nil {
		t.Fatalf("File() error = %v", err)
	}
	if string(content) != "package a\n" {
		t.Errorf("File() = %q, want the first revision", content)
	}

	if _, err := tree.File("missing.go"); err == nil {
		t.Error("File() should fail for a missing path")
	}

	if _, err := repo.Resolve("no-such-branch"); err == nil {
		t.Error("Resolve() should fail for an unknown revision")
	}
}

func TestDefaultOpener(t *testing.T) {
	orig := DefaultOpener()
	defer SetDefaultOpener(orig)

	custom := NewGitOpener()
	SetDefaultOpener(custom)
	if DefaultOpener() != custom {
		t.Error("SetDefaultOpener() did not replace the opener")
	}
}
