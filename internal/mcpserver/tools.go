package mcpserver

import (
	"bytes"
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/panbanda/cpd/internal/output"
	"github.com/panbanda/cpd/internal/service/detect"
	"github.com/panbanda/cpd/pkg/config"
	"github.com/panbanda/cpd/pkg/source"
)

// DetectInput configures detect_duplicates. Zero values keep the server
// configuration.
type DetectInput struct {
	Paths       []string `json:"paths,omitempty" jsonschema:"Files or directories to scan. Defaults to current directory if empty."`
	Format      string   `json:"format,omitempty" jsonschema:"Output format: toon (default), json, markdown, yaml or text."`
	MinLines    int      `json:"min_lines,omitempty" jsonschema:"Report clones spanning more than this many lines. Default 5."`
	MinTokens   int      `json:"min_tokens,omitempty" jsonschema:"Minimum number of matching significant tokens. Default 70."`
	IgnoreKinds []string `json:"ignore_kinds,omitempty" jsonschema:"Token kinds to ignore, replacing the default set (whitespace, comment, doc_comment, markup, open_tag, open_tag_with_echo, close_tag)."`
	Suffixes    []string `json:"suffixes,omitempty" jsonschema:"Only scan files with these extensions."`
	Ref         string   `json:"ref,omitempty" jsonschema:"Scan a git revision (branch, tag or commit) instead of the working tree."`
}

// TokenizeInput configures tokenize_file.
type TokenizeInput struct {
	Path            string `json:"path" jsonschema:"File to tokenize."`
	Format          string `json:"format,omitempty" jsonschema:"Output format: toon (default), json, markdown, yaml or text."`
	SignificantOnly bool   `json:"significant_only,omitempty" jsonschema:"Leave ignored tokens out of the listing."`
}

func getFormat(name string) output.Format {
	switch name {
	case "json":
		return output.FormatJSON
	case "markdown", "md":
		return output.FormatMarkdown
	case "yaml", "yml":
		return output.FormatYAML
	case "text":
		return output.FormatText
	default:
		return output.FormatTOON
	}
}

func formatOutput(data any, format output.Format) (string, error) {
	var buf bytes.Buffer
	if err := output.NewWriterFormatter(format, &buf, false).Output(data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func toolResult(data any, format output.Format) (*mcp.CallToolResult, any, error) {
	text, err := formatOutput(data, format)
	if err != nil {
		return nil, nil, err
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}, nil, nil
}

func toolError(msg string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: "Error: " + msg},
		},
		IsError: true,
	}, nil, nil
}

// withOverrides copies the server configuration and applies the call's
// thresholds.
func (s *Server) withOverrides(input DetectInput) (*config.Config, error) {
	cfg := *s.config
	cfg.Detect.IgnoredKinds = append([]string(nil), s.config.Detect.IgnoredKinds...)
	if input.MinLines > 0 {
		cfg.Detect.MinLines = input.MinLines
	}
	if input.MinTokens > 0 {
		cfg.Detect.MinMatches = input.MinTokens
	}
	if len(input.IgnoreKinds) > 0 {
		cfg.Detect.IgnoredKinds = input.IgnoreKinds
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (s *Server) handleDetect(ctx context.Context, _ *mcp.CallToolRequest, input DetectInput) (*mcp.CallToolResult, any, error) {
	cfg, err := s.withOverrides(input)
	if err != nil {
		return toolError(err.Error())
	}

	svc := detect.New(detect.WithConfig(cfg), detect.WithLogger(s.logger))
	out, err := svc.Run(ctx, detect.Request{
		Paths:    input.Paths,
		Suffixes: input.Suffixes,
		Ref:      input.Ref,
	}, detect.Options{})
	if err != nil {
		return toolError(err.Error())
	}
	return toolResult(out.Report, getFormat(input.Format))
}

func (s *Server) handleTokenize(ctx context.Context, _ *mcp.CallToolRequest, input TokenizeInput) (*mcp.CallToolResult, any, error) {
	if input.Path == "" {
		return toolError("path is required")
	}
	svc := detect.New(detect.WithConfig(s.config), detect.WithLogger(s.logger))
	listing, err := svc.Tokens(ctx, input.Path, source.NewFilesystem(), input.SignificantOnly)
	if err != nil {
		return toolError(err.Error())
	}
	return toolResult(listing, getFormat(input.Format))
}
