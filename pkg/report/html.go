package report

import (
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"os"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

//go:embed template.html
var templateFS embed.FS

// Metadata describes where and when an HTML page was produced.
type Metadata struct {
	Title       string
	GeneratedAt time.Time
	Paths       []string
}

type page struct {
	Metadata Metadata
	Report   *Report
	Severity string
}

// Renderer produces a standalone HTML page for a report.
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer parses the embedded template.
func NewRenderer() (*Renderer, error) {
	printer := message.NewPrinter(language.English)
	funcMap := template.FuncMap{
		"title": cases.Title(language.English).String,
		"num": func(n int) string {
			return printer.Sprintf("%d", n)
		},
		"percent": func(ratio float64) string {
			return printer.Sprintf("%.1f%%", ratio*100)
		},
		"badge": severity,
		"truncatePath": truncatePath,
		"json": func(v any) template.JS {
			b, _ := json.Marshal(v)
			return template.JS(b)
		},
	}

	content, err := templateFS.ReadFile("template.html")
	if err != nil {
		return nil, err
	}
	tmpl, err := template.New("report").Funcs(funcMap).Parse(string(content))
	if err != nil {
		return nil, err
	}
	return &Renderer{tmpl: tmpl}, nil
}

// Render writes the page for rep.
func (r *Renderer) Render(w io.Writer, rep *Report, meta Metadata) error {
	if meta.Title == "" {
		meta.Title = "duplicated code"
	}
	if meta.GeneratedAt.IsZero() {
		meta.GeneratedAt = time.Now()
	}
	return r.tmpl.Execute(w, page{
		Metadata: meta,
		Report:   rep,
		Severity: severity(rep.Summary.DuplicationRatio),
	})
}

// RenderJSON renders a report previously written with the json format.
func (r *Renderer) RenderJSON(w io.Writer, reportPath string, meta Metadata) error {
	rep, err := Load(reportPath)
	if err != nil {
		return err
	}
	return r.Render(w, rep, meta)
}

// Load reads a JSON report.
func Load(path string) (*Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var rep Report
	if err := json.NewDecoder(f).Decode(&rep); err != nil {
		return nil, fmt.Errorf("decode report %s: %w", path, err)
	}
	return &rep, nil
}

func severity(ratio float64) string {
	switch {
	case ratio >= 0.5:
		return "critical"
	case ratio >= 0.2:
		return "high"
	case ratio >= 0.05:
		return "medium"
	default:
		return "low"
	}
}

func truncatePath(s string, n int) string {
	if len(s) <= n || n < 8 {
		return s
	}
	parts := strings.Split(s, "/")
	filename := parts[len(parts)-1]
	if len(parts) <= 2 || len(filename) >= n-4 {
		return "..." + s[len(s)-n+3:]
	}
	remaining := n - len(filename) - 5
	prefix := strings.Join(parts[:len(parts)-1], "/")
	if len(prefix) > remaining {
		prefix = prefix[len(prefix)-remaining:]
	}
	return ".../" + prefix + "/" + filename
}
