package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"

	"github.com/panbanda/cpd/internal/output"
)

// MaxHotspots bounds the file table in text and markdown output.
const MaxHotspots = 10

func (c Clone) rangeA() string {
	return fmt.Sprintf("%s:%d-%d", c.FileA, c.StartLineA, c.EndLineA)
}

func (c Clone) rangeB() string {
	return fmt.Sprintf("%s:%d-%d", c.FileB, c.StartLineB, c.EndLineB)
}

func (r *Report) hotspots() *output.Table {
	files := r.Files
	if len(files) > MaxHotspots {
		files = files[:MaxHotspots]
	}
	rows := make([][]string, 0, len(files))
	for _, f := range files {
		rows = append(rows, []string{
			f.Path,
			strconv.Itoa(f.DuplicatedLines),
			strconv.Itoa(f.TotalLines),
			fmt.Sprintf("%.1f%%", f.Ratio*100),
			strconv.Itoa(f.Clones),
		})
	}
	return output.NewTable("Files", []string{"File", "Duplicated", "Lines", "Ratio", "Clones"}, rows, nil, nil)
}

func (r *Report) summaryLine() string {
	return fmt.Sprintf("%.2f%% duplicated lines out of %d total lines in %d files",
		r.Summary.DuplicationRatio*100, r.Summary.TotalLines, r.Summary.FilesScanned)
}

// RenderText writes the clone list, the most duplicated files and a
// summary line.
func (r *Report) RenderText(w io.Writer, colored bool) error {
	if len(r.Clones) == 0 {
		fmt.Fprintf(w, "No clones found (min %d lines, %d tokens) in %d files.\n",
			r.Summary.MinLines, r.Summary.MinMatches, r.Summary.FilesScanned)
		return nil
	}

	output.Heading(w, fmt.Sprintf("Found %d clones", len(r.Clones)), colored)
	for _, c := range r.Clones {
		size := fmt.Sprintf("(%d lines, %d tokens)", c.Lines, c.Tokens)
		if colored {
			size = color.CyanString(size)
		}
		fmt.Fprintf(w, "  - %s %s\n    %s\n", c.rangeA(), size, c.rangeB())
	}
	fmt.Fprintln(w)

	if err := r.hotspots().RenderText(w, colored); err != nil {
		return err
	}

	line := r.summaryLine()
	if colored {
		line = output.SeverityColor(r.Summary.DuplicationRatio, line)
	}
	fmt.Fprintln(w, line)
	return nil
}

// RenderMarkdown writes the same content as RenderText as markdown.
func (r *Report) RenderMarkdown(w io.Writer) error {
	fmt.Fprintf(w, "# Duplicated code\n\n%s.\n\n", r.summaryLine())
	if len(r.Clones) == 0 {
		return nil
	}

	rows := make([][]string, 0, len(r.Clones))
	for _, c := range r.Clones {
		rows = append(rows, []string{c.rangeA(), c.rangeB(), strconv.Itoa(c.Lines), strconv.Itoa(c.Tokens)})
	}
	clones := output.NewTable("Clones", []string{"Original", "Copy", "Lines", "Tokens"}, rows, nil, nil)
	if err := clones.RenderMarkdown(w); err != nil {
		return err
	}
	return r.hotspots().RenderMarkdown(w)
}

// RenderData returns the report itself for structured encoders.
func (r *Report) RenderData() any {
	return r
}
