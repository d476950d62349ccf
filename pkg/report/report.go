// Package report turns a detection result into per-file duplication
// figures and renders them.
package report

import (
	"cmp"
	"math"
	"slices"

	"github.com/RoaringBitmap/roaring/v2"
	"gonum.org/v1/gonum/stat"

	"github.com/panbanda/cpd/pkg/cpd"
)

// Clone is a duplicate record with both line ranges spelled out.
type Clone struct {
	FileA      string `json:"file_a" toon:"file_a" yaml:"file_a"`
	StartLineA int    `json:"start_line_a" toon:"start_line_a" yaml:"start_line_a"`
	EndLineA   int    `json:"end_line_a" toon:"end_line_a" yaml:"end_line_a"`
	FileB      string `json:"file_b" toon:"file_b" yaml:"file_b"`
	StartLineB int    `json:"start_line_b" toon:"start_line_b" yaml:"start_line_b"`
	EndLineB   int    `json:"end_line_b" toon:"end_line_b" yaml:"end_line_b"`
	Lines      int    `json:"lines" toon:"lines" yaml:"lines"`
	Tokens     int    `json:"tokens" toon:"tokens" yaml:"tokens"`
}

func cloneOf(r cpd.DuplicateRecord) Clone {
	return Clone{
		FileA:      r.FileA,
		StartLineA: r.FirstLineA,
		EndLineA:   r.LastLineA(),
		FileB:      r.FileB,
		StartLineB: r.FirstLineB,
		EndLineB:   r.LastLineB(),
		Lines:      r.NumLines,
		Tokens:     r.NumTokens,
	}
}

// FileStat is the duplication footprint of one file.
type FileStat struct {
	Path            string  `json:"path" toon:"path" yaml:"path"`
	TotalLines      int     `json:"total_lines" toon:"total_lines" yaml:"total_lines"`
	DuplicatedLines int     `json:"duplicated_lines" toon:"duplicated_lines" yaml:"duplicated_lines"`
	Ratio           float64 `json:"ratio" toon:"ratio" yaml:"ratio"`
	Clones          int     `json:"clones" toon:"clones" yaml:"clones"`
}

// Summary aggregates a run.
type Summary struct {
	FilesScanned     int     `json:"files_scanned" toon:"files_scanned" yaml:"files_scanned"`
	FilesTooShort    int     `json:"files_too_short" toon:"files_too_short" yaml:"files_too_short"`
	FilesSkipped     int     `json:"files_skipped" toon:"files_skipped" yaml:"files_skipped"`
	FilesWithClones  int     `json:"files_with_clones" toon:"files_with_clones" yaml:"files_with_clones"`
	Tokens           int     `json:"tokens" toon:"tokens" yaml:"tokens"`
	TotalLines       int     `json:"total_lines" toon:"total_lines" yaml:"total_lines"`
	DuplicatedLines  int     `json:"duplicated_lines" toon:"duplicated_lines" yaml:"duplicated_lines"`
	DuplicationRatio float64 `json:"duplication_ratio" toon:"duplication_ratio" yaml:"duplication_ratio"`
	Clones           int     `json:"clones" toon:"clones" yaml:"clones"`
	CrossFileClones  int     `json:"cross_file_clones" toon:"cross_file_clones" yaml:"cross_file_clones"`
	LargestClone     int     `json:"largest_clone" toon:"largest_clone" yaml:"largest_clone"`
	MeanCloneLines   float64 `json:"mean_clone_lines" toon:"mean_clone_lines" yaml:"mean_clone_lines"`
	StdDevCloneLines float64 `json:"stddev_clone_lines" toon:"stddev_clone_lines" yaml:"stddev_clone_lines"`
	P50CloneLines    float64 `json:"p50_clone_lines" toon:"p50_clone_lines" yaml:"p50_clone_lines"`
	P95CloneLines    float64 `json:"p95_clone_lines" toon:"p95_clone_lines" yaml:"p95_clone_lines"`
	MinLines         int     `json:"min_lines" toon:"min_lines" yaml:"min_lines"`
	MinMatches       int     `json:"min_matches" toon:"min_matches" yaml:"min_matches"`
	Hash             string  `json:"hash" toon:"hash" yaml:"hash"`
}

// Report is the renderable outcome of a detection run. Clones keep
// detection order; Files are sorted by duplicated lines, most first.
type Report struct {
	Summary Summary    `json:"summary" toon:"summary" yaml:"summary"`
	Clones  []Clone    `json:"clones" toon:"clones" yaml:"clones"`
	Files   []FileStat `json:"files" toon:"files" yaml:"files"`
}

// Totals carries per-run facts the detector does not see.
type Totals struct {
	// Lines maps each scanned file to its line count.
	Lines map[string]int
	// Skipped counts files dropped before detection.
	Skipped int
}

// Build aggregates a result. Duplicated lines are counted once per file
// however many clones overlap them.
func Build(res *cpd.Result, totals Totals) *Report {
	rep := &Report{
		Summary: Summary{
			FilesScanned:  res.FilesScanned,
			FilesTooShort: res.FilesTooShort,
			FilesSkipped:  totals.Skipped,
			Tokens:        res.Tokens,
			Clones:        res.Len(),
			MinLines:      res.MinLines,
			MinMatches:    res.MinMatches,
			Hash:          res.Hash,
		},
		Clones: make([]Clone, 0, res.Len()),
	}

	lines := make(map[string]*roaring.Bitmap)
	counts := make(map[string]int)
	mark := func(file string, first, last int) {
		bm, ok := lines[file]
		if !ok {
			bm = roaring.New()
			lines[file] = bm
		}
		bm.AddRange(uint64(first), uint64(last)+1)
	}

	sizes := make([]float64, 0, res.Len())
	for _, rec := range res.All() {
		rep.Clones = append(rep.Clones, cloneOf(rec))
		// Side A borrows side B's line count.
		mark(rec.FileA, rec.FirstLineA, rec.LastLineA())
		mark(rec.FileB, rec.FirstLineB, rec.LastLineB())
		counts[rec.FileA]++
		if !rec.SameFile() {
			counts[rec.FileB]++
			rep.Summary.CrossFileClones++
		}
		sizes = append(sizes, float64(rec.NumLines))
		rep.Summary.LargestClone = max(rep.Summary.LargestClone, rec.NumLines)
	}

	for _, n := range totals.Lines {
		rep.Summary.TotalLines += n
	}

	for file, bm := range lines {
		dup := int(bm.GetCardinality())
		total := totals.Lines[file]
		if total < dup {
			total = dup
		}
		rep.Files = append(rep.Files, FileStat{
			Path:            file,
			TotalLines:      total,
			DuplicatedLines: dup,
			Ratio:           ratio(dup, total),
			Clones:          counts[file],
		})
		rep.Summary.DuplicatedLines += dup
	}
	slices.SortFunc(rep.Files, func(a, b FileStat) int {
		if c := cmp.Compare(b.DuplicatedLines, a.DuplicatedLines); c != 0 {
			return c
		}
		return cmp.Compare(a.Path, b.Path)
	})

	rep.Summary.FilesWithClones = len(rep.Files)
	rep.Summary.DuplicationRatio = ratio(rep.Summary.DuplicatedLines, rep.Summary.TotalLines)
	rep.Summary.MeanCloneLines, rep.Summary.StdDevCloneLines,
		rep.Summary.P50CloneLines, rep.Summary.P95CloneLines = distribution(sizes)

	return rep
}

func ratio(part, whole int) float64 {
	if whole <= 0 {
		return 0
	}
	return float64(part) / float64(whole)
}

// distribution returns mean, sample standard deviation and the 50th and
// 95th percentiles of xs. Empty input gives zeros.
func distribution(xs []float64) (mean, stddev, p50, p95 float64) {
	if len(xs) == 0 {
		return 0, 0, 0, 0
	}
	sorted := slices.Clone(xs)
	slices.Sort(sorted)

	mean = stat.Mean(sorted, nil)
	if len(sorted) > 1 {
		stddev = stat.StdDev(sorted, nil)
	}
	p50 = stat.Quantile(0.5, stat.Empirical, sorted, nil)
	p95 = stat.Quantile(0.95, stat.Empirical, sorted, nil)
	if math.IsNaN(stddev) {
		stddev = 0
	}
	return mean, stddev, p50, p95
}

// CountLines returns the number of lines in content, counting a final line
// without a trailing newline.
func CountLines(content []byte) int {
	if len(content) == 0 {
		return 0
	}
	n := 0
	for _, b := range content {
		if b == '\n' {
			n++
		}
	}
	if content[len(content)-1] != '\n' {
		n++
	}
	return n
}
