package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/panbanda/cpd/pkg/cpd"
	"github.com/panbanda/cpd/pkg/token"
)

// Config holds all configuration options for cpd.
type Config struct {
	// Detection thresholds
	Detect DetectConfig `koanf:"detect" toml:"detect"`

	// File exclusion patterns
	Exclude ExcludeConfig `koanf:"exclude" toml:"exclude"`

	// Cache settings
	Cache CacheConfig `koanf:"cache" toml:"cache"`

	// Output settings
	Output OutputConfig `koanf:"output" toml:"output"`
}

// DetectConfig controls the detection pass.
type DetectConfig struct {
	MinLines     int      `koanf:"min_lines" toml:"min_lines"`
	MinMatches   int      `koanf:"min_matches" toml:"min_matches"`
	IgnoredKinds []string `koanf:"ignored_kinds" toml:"ignored_kinds"`
	Hash         string   `koanf:"hash" toml:"hash"`
	Lexer        string   `koanf:"lexer" toml:"lexer"`
	Workers      int      `koanf:"workers" toml:"workers"`             // 0 means one per CPU
	MaxFileSize  int64    `koanf:"max_file_size" toml:"max_file_size"` // bytes, 0 disables
}

// ExcludeConfig defines file exclusion patterns.
type ExcludeConfig struct {
	Patterns   []string `koanf:"patterns" toml:"patterns"`
	Extensions []string `koanf:"extensions" toml:"extensions"`
	Dirs       []string `koanf:"dirs" toml:"dirs"`
	Gitignore  bool     `koanf:"gitignore" toml:"gitignore"`
}

// CacheConfig controls caching behavior.
type CacheConfig struct {
	Enabled bool   `koanf:"enabled" toml:"enabled"`
	Dir     string `koanf:"dir" toml:"dir"`
	TTL     int    `koanf:"ttl" toml:"ttl"` // hours
}

// OutputConfig controls output formatting.
type OutputConfig struct {
	Format  string `koanf:"format" toml:"format"` // text, json, markdown, toon, yaml
	Color   bool   `koanf:"color" toml:"color"`
	Verbose bool   `koanf:"verbose" toml:"verbose"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Detect: DetectConfig{
			MinLines:     cpd.DefaultMinLines,
			MinMatches:   cpd.DefaultMinMatches,
			IgnoredKinds: token.DefaultIgnored().Names(),
			Hash:         cpd.HashXXHash,
			Lexer:        "auto",
			Workers:      0,
			MaxFileSize:  1 << 20,
		},
		Exclude: ExcludeConfig{
			Patterns: []string{
				"*.min.js",
				"*.min.css",
			},
			Extensions: []string{
				".lock",
				".sum",
				".map",
			},
			Dirs: []string{
				"vendor",
				"node_modules",
				".git",
				".cpd",
				"dist",
				"build",
				"__pycache__",
			},
			Gitignore: true,
		},
		Cache: CacheConfig{
			Enabled: true,
			Dir:     ".cpd/cache",
			TTL:     24,
		},
		Output: OutputConfig{
			Format: "text",
			Color:  true,
		},
	}
}

// Load loads configuration from a file on top of the defaults and validates
// it.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	var parser koanf.Parser
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		parser = toml.Parser()
	}

	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}

	if err := validateSchema(k.Raw()); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return cfg, nil
}

// configNames are searched in order inside each search directory.
var configNames = []string{
	"cpd.toml",
	"cpd.yaml",
	"cpd.yml",
	"cpd.json",
	".cpd.toml",
	".cpd.yaml",
	".cpd.yml",
	".cpd.json",
}

var searchDirs = []string{".", ".cpd"}

// LoadResult is a loaded configuration and the file it came from. Source is
// empty when defaults were used.
type LoadResult struct {
	Config *Config
	Source string
}

type loadOptions struct {
	path string
	dir  string
}

// LoadOption configures LoadConfig.
type LoadOption func(*loadOptions)

// WithPath loads exactly this file instead of searching.
func WithPath(path string) LoadOption {
	return func(o *loadOptions) {
		o.path = path
	}
}

// WithDir searches for config files relative to dir instead of the working
// directory.
func WithDir(dir string) LoadOption {
	return func(o *loadOptions) {
		o.dir = dir
	}
}

// LoadConfig loads an explicit file or the first config file found in the
// standard locations. Unlike LoadOrDefault it reports errors in files it
// finds.
func LoadConfig(opts ...LoadOption) (*LoadResult, error) {
	o := &loadOptions{}
	for _, opt := range opts {
		opt(o)
	}

	if o.path != "" {
		cfg, err := Load(o.path)
		if err != nil {
			return nil, err
		}
		return &LoadResult{Config: cfg, Source: o.path}, nil
	}

	for _, dir := range searchDirs {
		for _, name := range configNames {
			path := filepath.Join(o.dir, dir, name)
			if _, err := os.Stat(path); err != nil {
				continue
			}
			cfg, err := Load(path)
			if err != nil {
				return nil, err
			}
			return &LoadResult{Config: cfg, Source: path}, nil
		}
	}

	return &LoadResult{Config: DefaultConfig()}, nil
}

// LoadOrDefault tries to load config from standard locations or returns
// defaults.
func LoadOrDefault() *Config {
	res, err := LoadConfig()
	if err != nil {
		return DefaultConfig()
	}
	return res.Config
}

var validFormats = map[string]bool{
	"text": true, "json": true, "markdown": true, "toon": true, "yaml": true,
}

// Validate checks values that the schema cannot express.
func (c *Config) Validate() error {
	var errs []error

	if c.Detect.MinMatches < 1 {
		errs = append(errs, fmt.Errorf("detect.min_matches must be at least 1, got %d", c.Detect.MinMatches))
	}
	if c.Detect.MinLines < 0 {
		errs = append(errs, fmt.Errorf("detect.min_lines must not be negative, got %d", c.Detect.MinLines))
	}
	if _, err := token.ParseSet(c.Detect.IgnoredKinds); err != nil {
		errs = append(errs, fmt.Errorf("detect.ignored_kinds: %w", err))
	}
	if _, err := cpd.NewHasher(c.Detect.Hash); err != nil {
		errs = append(errs, fmt.Errorf("detect.hash: %w", err))
	}
	if c.Detect.Workers < 0 {
		errs = append(errs, fmt.Errorf("detect.workers must not be negative, got %d", c.Detect.Workers))
	}
	if c.Cache.TTL < 0 {
		errs = append(errs, fmt.Errorf("cache.ttl must not be negative, got %d", c.Cache.TTL))
	}
	if c.Output.Format != "" && !validFormats[c.Output.Format] {
		errs = append(errs, fmt.Errorf("output.format %q is not one of text, json, markdown, toon, yaml", c.Output.Format))
	}

	return errors.Join(errs...)
}

// DetectorOptions converts the detect section into detector options.
func (c *Config) DetectorOptions() ([]cpd.Option, error) {
	ignored, err := token.ParseSet(c.Detect.IgnoredKinds)
	if err != nil {
		return nil, err
	}
	return []cpd.Option{
		cpd.WithMinLines(c.Detect.MinLines),
		cpd.WithMinMatches(c.Detect.MinMatches),
		cpd.WithIgnored(ignored),
		cpd.WithHash(c.Detect.Hash),
	}, nil
}

// ShouldExclude checks if a path should be excluded from scanning.
func (c *Config) ShouldExclude(path string) bool {
	sep := string(filepath.Separator)
	for _, dir := range c.Exclude.Dirs {
		if strings.Contains(path, sep+dir+sep) || strings.HasPrefix(path, dir+sep) {
			return true
		}
	}

	ext := filepath.Ext(path)
	for _, excludeExt := range c.Exclude.Extensions {
		if ext == excludeExt {
			return true
		}
	}

	base := filepath.Base(path)
	for _, pattern := range c.Exclude.Patterns {
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
	}

	return false
}
