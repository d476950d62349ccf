package report

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panbanda/cpd/pkg/cpd"
	"github.com/panbanda/cpd/pkg/token"
)

func stream(file string, texts ...string) token.Stream {
	s := token.Stream{File: file}
	for i, text := range texts {
		s.Tokens = append(s.Tokens, token.Token{Kind: token.KindIdentifier, Text: text, Line: i + 1})
	}
	return s
}

func seq(prefix string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("%s%d", prefix, i)
	}
	return out
}

func detect(t *testing.T, streams ...token.Stream) *cpd.Result {
	t.Helper()
	d, err := cpd.New(cpd.WithMinMatches(5), cpd.WithMinLines(2))
	require.NoError(t, err)
	res, err := d.Detect(context.Background(), streams)
	require.NoError(t, err)
	return res
}

// sample has one cross-file clone (a.go/b.go) and one within-file clone in f.go.
func sample(t *testing.T) *Report {
	t.Helper()
	var within []string
	within = append(within, seq("s", 10)...)
	within = append(within, seq("u", 5)...)
	within = append(within, seq("s", 10)...)

	res := detect(t,
		stream("a.go", seq("t", 10)...),
		stream("b.go", seq("t", 10)...),
		stream("f.go", within...),
	)
	return Build(res, Totals{
		Lines:   map[string]int{"a.go": 10, "b.go": 12, "f.go": 25},
		Skipped: 1,
	})
}

func TestBuild(t *testing.T) {
	rep := sample(t)

	s := rep.Summary
	assert.Equal(t, 3, s.FilesScanned)
	assert.Equal(t, 1, s.FilesSkipped)
	assert.Equal(t, 2, s.Clones)
	assert.Equal(t, 1, s.CrossFileClones)
	assert.Equal(t, 3, s.FilesWithClones)
	assert.Equal(t, 24, s.DuplicatedLines)
	assert.Equal(t, 47, s.TotalLines)
	assert.InDelta(t, 24.0/47.0, s.DuplicationRatio, 1e-9)
	assert.Equal(t, 6, s.LargestClone)
	assert.Equal(t, 5, s.MinMatches)
	assert.Equal(t, 2, s.MinLines)
	assert.Equal(t, cpd.HashXXHash, s.Hash)

	require.Len(t, rep.Clones, 2)
	assert.Equal(t, Clone{
		FileA: "a.go", StartLineA: 1, EndLineA: 6,
		FileB: "b.go", StartLineB: 1, EndLineB: 6,
		Lines: 6, Tokens: 10,
	}, rep.Clones[0])
	assert.Equal(t, 16, rep.Clones[1].StartLineB)
	assert.Equal(t, 21, rep.Clones[1].EndLineB)

	require.Len(t, rep.Files, 3)
	assert.Equal(t, FileStat{Path: "f.go", TotalLines: 25, DuplicatedLines: 12, Ratio: 0.48, Clones: 1}, rep.Files[0])
	assert.Equal(t, "a.go", rep.Files[1].Path)
	assert.Equal(t, "b.go", rep.Files[2].Path)
	assert.InDelta(t, 6.0/12.0, rep.Files[2].Ratio, 1e-9)
}

func TestBuild_NoClones(t *testing.T) {
	res := detect(t, stream("a.go", seq("a", 10)...), stream("b.go", seq("b", 10)...))
	rep := Build(res, Totals{Lines: map[string]int{"a.go": 10, "b.go": 10}})

	assert.Empty(t, rep.Clones)
	assert.Empty(t, rep.Files)
	assert.Equal(t, 20, rep.Summary.TotalLines)
	assert.Zero(t, rep.Summary.DuplicationRatio)
	assert.Zero(t, rep.Summary.MeanCloneLines)
}

func TestBuild_MissingLineCounts(t *testing.T) {
	res := detect(t, stream("a.go", seq("t", 10)...), stream("b.go", seq("t", 10)...))
	rep := Build(res, Totals{})

	require.Len(t, rep.Files, 2)
	assert.Equal(t, 6, rep.Files[0].TotalLines, "total never drops below the duplicated lines")
	assert.Equal(t, 1.0, rep.Files[0].Ratio)
	assert.Zero(t, rep.Summary.DuplicationRatio)
}

func TestDistribution(t *testing.T) {
	mean, stddev, p50, p95 := distribution([]float64{5, 1, 4, 2, 3})
	assert.Equal(t, 3.0, mean)
	assert.InDelta(t, 1.5811, stddev, 1e-4)
	assert.Equal(t, 3.0, p50)
	assert.Equal(t, 5.0, p95)

	mean, stddev, _, _ = distribution([]float64{7})
	assert.Equal(t, 7.0, mean)
	assert.Zero(t, stddev)

	mean, _, _, _ = distribution(nil)
	assert.Zero(t, mean)
}

func TestCountLines(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"a", 1},
		{"a\n", 1},
		{"a\nb", 2},
		{"\n\n", 2},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CountLines([]byte(tt.in)), "CountLines(%q)", tt.in)
	}
}

func TestRenderText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, sample(t).RenderText(&buf, false))
	out := buf.String()

	assert.Contains(t, out, "Found 2 clones")
	assert.Contains(t, out, "  - a.go:1-6 (6 lines, 10 tokens)\n    b.go:1-6\n")
	assert.Contains(t, out, "f.go:16-21")
	assert.Contains(t, out, "Files")
	assert.Contains(t, out, "51.06% duplicated lines out of 47 total lines in 3 files")
}

func TestRenderText_NoClones(t *testing.T) {
	res := detect(t, stream("a.go", seq("a", 10)...))
	var buf bytes.Buffer
	require.NoError(t, Build(res, Totals{}).RenderText(&buf, false))
	assert.Equal(t, "No clones found (min 2 lines, 5 tokens) in 1 files.\n", buf.String())
}

func TestRenderMarkdown(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, sample(t).RenderMarkdown(&buf))
	out := buf.String()

	assert.Contains(t, out, "# Duplicated code")
	assert.Contains(t, out, "| Original | Copy | Lines | Tokens |")
	assert.Contains(t, out, "| a.go:1-6 | b.go:1-6 | 6 | 10 |")
	assert.Contains(t, out, "| f.go | 12 | 25 | 48.0% | 1 |")
}

func TestRenderData(t *testing.T) {
	rep := sample(t)
	assert.Same(t, rep, rep.RenderData())
}
