// Package cpd finds verbatim token-level duplicates across source files.
//
// Detection runs in two stages. Preparation filters each file's tokens and
// builds a signature of fixed-width token records; it has no cross-file
// state and may run concurrently. Matching walks the signatures in caller
// order, hashing every window of MinMatches records into an index that
// remembers the first occurrence of each hash. Consecutive hits are merged
// into one run, and runs spanning more than MinLines lines are reported.
package cpd

import (
	"context"
	"fmt"

	"github.com/panbanda/cpd/pkg/token"
)

// Defaults taken from the classic PHPUnit copy/paste detector.
const (
	DefaultMinLines   = 5
	DefaultMinMatches = 70
)

// Config holds detection thresholds.
type Config struct {
	// MinLines is an exclusive lower bound on the reported line span.
	MinLines int
	// MinMatches is the window size: how many consecutive significant
	// tokens must match to open a run.
	MinMatches int
	// Ignored lists the token kinds dropped before fingerprinting.
	Ignored token.Set
	// Hash names the window hash algorithm.
	Hash string
}

// DefaultConfig returns the default thresholds and ignore set.
func DefaultConfig() Config {
	return Config{
		MinLines:   DefaultMinLines,
		MinMatches: DefaultMinMatches,
		Ignored:    token.DefaultIgnored(),
		Hash:       HashXXHash,
	}
}

// Validate checks the thresholds.
func (c Config) Validate() error {
	if c.MinMatches < 1 {
		return invalid(fmt.Sprintf("min matches must be at least 1, got %d", c.MinMatches))
	}
	if c.MinLines < 0 {
		return invalid(fmt.Sprintf("min lines must not be negative, got %d", c.MinLines))
	}
	return nil
}

// Option configures a Detector.
type Option func(*Config)

// WithMinLines sets the exclusive minimum line span.
func WithMinLines(n int) Option {
	return func(c *Config) {
		c.MinLines = n
	}
}

// WithMinMatches sets the window size in tokens.
func WithMinMatches(n int) Option {
	return func(c *Config) {
		c.MinMatches = n
	}
}

// WithIgnored replaces the ignore set.
func WithIgnored(kinds token.Set) Option {
	return func(c *Config) {
		c.Ignored = kinds
	}
}

// WithHash selects the window hash algorithm.
func WithHash(name string) Option {
	return func(c *Config) {
		c.Hash = name
	}
}

// WithConfig replaces the whole configuration.
func WithConfig(cfg Config) Option {
	return func(c *Config) {
		*c = cfg
	}
}

// Detector runs detection passes. Each call to Detect or DetectPrepared
// uses a fresh index, so a Detector can be reused but not shared between
// goroutines.
type Detector struct {
	cfg    Config
	hasher Hasher
}

// New creates a detector from DefaultConfig and opts.
func New(opts ...Option) (*Detector, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	h, err := NewHasher(cfg.Hash)
	if err != nil {
		return nil, err
	}
	cfg.Hash = h.Name()
	return &Detector{cfg: cfg, hasher: h}, nil
}

// Config returns the effective configuration.
func (d *Detector) Config() Config {
	return d.cfg
}

// Prepare filters a stream and builds its signature. It is safe to call
// concurrently for different streams.
func Prepare(stream token.Stream, ignored token.Set) (Signature, error) {
	filtered, err := Filter(stream, ignored)
	if err != nil {
		return Signature{}, err
	}
	return BuildSignature(filtered), nil
}

// Detect prepares every stream and runs one detection pass over them in
// the given order.
func (d *Detector) Detect(ctx context.Context, streams []token.Stream) (*Result, error) {
	if len(streams) == 0 {
		return nil, invalid("no files to scan")
	}
	sigs := make([]Signature, len(streams))
	for i, s := range streams {
		sig, err := Prepare(s, d.cfg.Ignored)
		if err != nil {
			return nil, err
		}
		sigs[i] = sig
	}
	return d.DetectPrepared(ctx, sigs)
}

// DetectPrepared runs one detection pass over already prepared signatures
// in the given order. Cancellation is checked between files.
func (d *Detector) DetectPrepared(ctx context.Context, sigs []Signature) (*Result, error) {
	if len(sigs) == 0 {
		return nil, invalid("no files to scan")
	}

	res := &Result{
		MinLines:   d.cfg.MinLines,
		MinMatches: d.cfg.MinMatches,
		Hash:       d.cfg.Hash,
	}
	idx := NewIndex()

	for _, sig := range sigs {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("detection interrupted: %w", err)
		}
		if len(sig.Data) != sig.Len()*RecordSize {
			return nil, &InputError{File: sig.File, Token: -1, Reason: "signature and line table disagree"}
		}
		res.FilesScanned++
		res.Tokens += sig.Len()
		if sig.NumWindows(d.cfg.MinMatches) == 0 {
			res.FilesTooShort++
			continue
		}
		d.scanFile(idx, sig, res)
	}

	res.IndexSize = idx.Len()
	return res, nil
}

// run is a pending match: side A from the index, side B starting at the
// window where the first hit occurred.
type run struct {
	active bool
	sideA  Occurrence
	start  int
}

// scanFile drives the Idle/Matching state machine over one file's windows.
// Only misses insert into the index, so a hash keeps its first occurrence
// and the index never slides forward while a run is extended.
func (d *Detector) scanFile(idx *Index, sig Signature, res *Result) {
	w := d.cfg.MinMatches
	var cur run

	// NumLines spans from the first window's first token to the last
	// window's first token, so a run's trailing W-1 tokens do not count.
	closeRun := func(last int) {
		numLines := sig.Lines[last] + 1 - sig.Lines[cur.start]
		if numLines > d.cfg.MinLines {
			res.add(DuplicateRecord{
				FileA:      cur.sideA.File,
				FirstLineA: cur.sideA.Line,
				FileB:      sig.File,
				FirstLineB: sig.Lines[cur.start],
				NumLines:   numLines,
				NumTokens:  last - cur.start + w,
			})
		}
		cur = run{}
	}

	n := 0
	Windows(sig, w, d.hasher, func(i int, h WindowHash) bool {
		n++
		if occ, ok := idx.Lookup(h); ok {
			if !cur.active {
				cur = run{active: true, sideA: occ, start: i}
			}
			return true
		}
		if cur.active {
			closeRun(i - 1)
		}
		idx.Insert(h, Occurrence{File: sig.File, Line: sig.Lines[i], Token: i})
		return true
	})
	res.Windows += n

	if cur.active {
		closeRun(n - 1)
	}
}
