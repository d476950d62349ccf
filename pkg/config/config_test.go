package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/panbanda/cpd/pkg/cpd"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg == nil {
		t.Fatal("DefaultConfig() returned nil")
	}

	if cfg.Detect.MinLines != 5 {
		t.Errorf("Detect.MinLines = %d, want 5", cfg.Detect.MinLines)
	}
	if cfg.Detect.MinMatches != 70 {
		t.Errorf("Detect.MinMatches = %d, want 70", cfg.Detect.MinMatches)
	}
	if cfg.Detect.Hash != cpd.HashXXHash {
		t.Errorf("Detect.Hash = %s, want %s", cfg.Detect.Hash, cpd.HashXXHash)
	}
	if len(cfg.Detect.IgnoredKinds) != 7 {
		t.Errorf("Detect.IgnoredKinds = %v, want 7 kinds", cfg.Detect.IgnoredKinds)
	}

	if !cfg.Exclude.Gitignore {
		t.Error("Exclude.Gitignore should be true by default")
	}
	if !cfg.Cache.Enabled {
		t.Error("Cache.Enabled should be true by default")
	}
	if cfg.Cache.TTL != 24 {
		t.Errorf("Cache.TTL = %d, want 24", cfg.Cache.TTL)
	}
	if cfg.Output.Format != "text" {
		t.Errorf("Output.Format = %s, want text", cfg.Output.Format)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

func TestLoadTOML(t *testing.T) {
	path := writeConfig(t, "cpd.toml", `
[detect]
min_lines = 10
min_matches = 40
ignored_kinds = ["comment", "whitespace"]
hash = "blake3"

[exclude]
dirs = ["vendor", "custom_exclude"]

[cache]
enabled = false

[output]
format = "json"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Detect.MinLines != 10 {
		t.Errorf("Detect.MinLines = %d, want 10", cfg.Detect.MinLines)
	}
	if cfg.Detect.MinMatches != 40 {
		t.Errorf("Detect.MinMatches = %d, want 40", cfg.Detect.MinMatches)
	}
	if cfg.Detect.Hash != "blake3" {
		t.Errorf("Detect.Hash = %s, want blake3", cfg.Detect.Hash)
	}
	if got := strings.Join(cfg.Detect.IgnoredKinds, ","); got != "comment,whitespace" {
		t.Errorf("Detect.IgnoredKinds = %s, want comment,whitespace", got)
	}
	if cfg.Cache.Enabled {
		t.Error("Cache.Enabled should be false")
	}
	if cfg.Output.Format != "json" {
		t.Errorf("Output.Format = %s, want json", cfg.Output.Format)
	}
	if cfg.Cache.TTL != 24 {
		t.Errorf("unset keys should keep defaults, Cache.TTL = %d", cfg.Cache.TTL)
	}
}

func TestLoadYAML(t *testing.T) {
	path := writeConfig(t, "cpd.yaml", `
detect:
  min_lines: 3
  min_matches: 25
output:
  format: markdown
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Detect.MinLines != 3 {
		t.Errorf("Detect.MinLines = %d, want 3", cfg.Detect.MinLines)
	}
	if cfg.Detect.MinMatches != 25 {
		t.Errorf("Detect.MinMatches = %d, want 25", cfg.Detect.MinMatches)
	}
	if cfg.Output.Format != "markdown" {
		t.Errorf("Output.Format = %s, want markdown", cfg.Output.Format)
	}
}

func TestLoadJSON(t *testing.T) {
	path := writeConfig(t, "cpd.json", `{
  "detect": {"min_matches": 50, "workers": 4},
  "output": {"format": "toon"}
}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Detect.MinMatches != 50 {
		t.Errorf("Detect.MinMatches = %d, want 50", cfg.Detect.MinMatches)
	}
	if cfg.Detect.Workers != 4 {
		t.Errorf("Detect.Workers = %d, want 4", cfg.Detect.Workers)
	}
	if cfg.Output.Format != "toon" {
		t.Errorf("Output.Format = %s, want toon", cfg.Output.Format)
	}
}

func TestLoadNonExistentFile(t *testing.T) {
	if _, err := Load("/nonexistent/path/cpd.toml"); err == nil {
		t.Error("Load() should return error for non-existent file")
	}
}

func TestLoadInvalidFile(t *testing.T) {
	path := writeConfig(t, "cpd.toml", "[detect\ninvalid toml")
	if _, err := Load(path); err == nil {
		t.Error("Load() should return error for invalid config")
	}
}

func TestLoadSchemaViolations(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown section", "[analysis]\ncomplexity = true\n"},
		{"unknown key", "[detect]\nmin_tokens = 3\n"},
		{"zero window", "[detect]\nmin_matches = 0\n"},
		{"negative lines", "[detect]\nmin_lines = -1\n"},
		{"wrong type", "[detect]\nmin_lines = \"five\"\n"},
		{"unknown hash", "[detect]\nhash = \"md5\"\n"},
		{"unknown format", "[output]\nformat = \"html\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, "cpd.toml", tt.content)
			if _, err := Load(path); err == nil {
				t.Errorf("Load() should reject %q", tt.content)
			}
		})
	}
}

func TestLoadUnknownKind(t *testing.T) {
	path := writeConfig(t, "cpd.toml", "[detect]\nignored_kinds = [\"comment\", \"banana\"]\n")
	_, err := Load(path)
	if err == nil {
		t.Fatal("Load() should reject unknown token kinds")
	}
	if !strings.Contains(err.Error(), "banana") {
		t.Errorf("error should name the bad kind: %v", err)
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Detect.MinMatches = 0
	cfg.Detect.Workers = -1
	cfg.Output.Format = "pdf"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() should fail")
	}
	for _, want := range []string{"min_matches", "workers", "output.format"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Validate() error missing %q: %v", want, err)
		}
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()

	res, err := LoadConfig(WithDir(dir))
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if res.Source != "" {
		t.Errorf("Source = %q, want empty for defaults", res.Source)
	}

	if err := os.MkdirAll(filepath.Join(dir, ".cpd"), 0o755); err != nil {
		t.Fatal(err)
	}
	nested := filepath.Join(dir, ".cpd", "cpd.toml")
	if err := os.WriteFile(nested, []byte("[detect]\nmin_lines = 9\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	res, err = LoadConfig(WithDir(dir))
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if res.Source != nested {
		t.Errorf("Source = %q, want %q", res.Source, nested)
	}
	if res.Config.Detect.MinLines != 9 {
		t.Errorf("Detect.MinLines = %d, want 9", res.Config.Detect.MinLines)
	}

	top := filepath.Join(dir, "cpd.yaml")
	if err := os.WriteFile(top, []byte("detect:\n  min_lines: 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	res, err = LoadConfig(WithDir(dir))
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if res.Source != top {
		t.Errorf("the working directory should win over .cpd/, got %q", res.Source)
	}
}

func TestLoadConfigReportsBrokenFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "cpd.toml"), []byte("[detect\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(WithDir(dir)); err == nil {
		t.Error("LoadConfig() should report a broken config file")
	}
}

func TestLoadOrDefault(t *testing.T) {
	tmpDir := t.TempDir()
	oldWd, _ := os.Getwd()
	defer os.Chdir(oldWd)

	if err := os.WriteFile(filepath.Join(tmpDir, "cpd.toml"), []byte("[detect]\nmin_matches = 999\n"), 0o644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("Failed to change directory: %v", err)
	}

	cfg := LoadOrDefault()
	if cfg.Detect.MinMatches != 999 {
		t.Errorf("LoadOrDefault() should load from file, got MinMatches=%d", cfg.Detect.MinMatches)
	}
}

func TestDetectorOptions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Detect.MinMatches = 12
	cfg.Detect.IgnoredKinds = []string{"comment"}

	opts, err := cfg.DetectorOptions()
	if err != nil {
		t.Fatalf("DetectorOptions() error: %v", err)
	}
	d, err := cpd.New(opts...)
	if err != nil {
		t.Fatalf("cpd.New() error: %v", err)
	}
	got := d.Config()
	if got.MinMatches != 12 {
		t.Errorf("MinMatches = %d, want 12", got.MinMatches)
	}
	if len(got.Ignored) != 1 {
		t.Errorf("Ignored = %v, want only comment", got.Ignored)
	}
}

func TestShouldExclude(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		path string
		want bool
	}{
		{"vendor/pkg/file.go", true},
		{"node_modules/pkg/file.js", true},
		{".git/objects/file", true},
		{filepath.Join("src", "vendor", "pkg", "file.go"), true},
		{"app.min.js", true},
		{"go.sum", true},
		{"package.lock", true},
		{"main.go", false},
		{"main_test.go", false},
		{filepath.Join("pkg", "vendor_utils.go"), false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := cfg.ShouldExclude(tt.path); got != tt.want {
				t.Errorf("ShouldExclude(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestSchemaEmbedded(t *testing.T) {
	if !strings.Contains(string(Schema()), "min_matches") {
		t.Error("embedded schema should describe detect.min_matches")
	}
}
