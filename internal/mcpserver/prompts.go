package mcpserver

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"path"
	"strings"
	"text/template"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"gopkg.in/yaml.v3"
)

//go:embed prompts/*.md
var promptFiles embed.FS

// promptArgument is one templated input a prompt accepts.
type promptArgument struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Required    bool   `yaml:"required"`
}

// promptHeader is the YAML frontmatter of a prompt file.
type promptHeader struct {
	Description string           `yaml:"description"`
	Arguments   []promptArgument `yaml:"arguments"`
}

// prompt is a parsed prompt file. The body is a text/template executed
// with the request arguments; missing optional arguments render empty.
type prompt struct {
	name   string
	header promptHeader
	body   *template.Template
}

// loadPrompts parses every embedded prompt file.
func loadPrompts() ([]prompt, error) {
	entries, err := promptFiles.ReadDir("prompts")
	if err != nil {
		return nil, err
	}

	var prompts []prompt
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		content, err := promptFiles.ReadFile(path.Join("prompts", entry.Name()))
		if err != nil {
			return nil, err
		}
		p, err := parsePrompt(strings.TrimSuffix(entry.Name(), ".md"), content)
		if err != nil {
			return nil, fmt.Errorf("prompt %s: %w", entry.Name(), err)
		}
		prompts = append(prompts, p)
	}
	return prompts, nil
}

func parsePrompt(name string, content []byte) (prompt, error) {
	header, body, err := parseFrontmatter(content)
	if err != nil {
		return prompt{}, err
	}
	tmpl, err := template.New(name).Option("missingkey=zero").Parse(body)
	if err != nil {
		return prompt{}, err
	}
	return prompt{name: name, header: header, body: tmpl}, nil
}

// parseFrontmatter splits a leading "---" YAML block from the body. Content
// without one is all body.
func parseFrontmatter(content []byte) (promptHeader, string, error) {
	var header promptHeader
	if !bytes.HasPrefix(content, []byte("---\n")) {
		return header, string(content), nil
	}

	rest := content[4:]
	end := bytes.Index(rest, []byte("\n---\n"))
	if end == -1 {
		return header, string(content), nil
	}
	if err := yaml.Unmarshal(rest[:end], &header); err != nil {
		return header, "", fmt.Errorf("frontmatter: %w", err)
	}
	return header, strings.TrimPrefix(string(rest[end+5:]), "\n"), nil
}

func (p prompt) definition() *mcp.Prompt {
	def := &mcp.Prompt{Name: p.name, Description: p.header.Description}
	for _, arg := range p.header.Arguments {
		def.Arguments = append(def.Arguments, &mcp.PromptArgument{
			Name:        arg.Name,
			Description: arg.Description,
			Required:    arg.Required,
		})
	}
	return def
}

// render executes the body with args after checking required ones.
func (p prompt) render(args map[string]string) (string, error) {
	for _, arg := range p.header.Arguments {
		if arg.Required && strings.TrimSpace(args[arg.Name]) == "" {
			return "", fmt.Errorf("missing required argument %q", arg.Name)
		}
	}
	if args == nil {
		args = map[string]string{}
	}
	var buf bytes.Buffer
	if err := p.body.Execute(&buf, args); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (p prompt) handler() mcp.PromptHandler {
	return func(_ context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		var args map[string]string
		if req != nil && req.Params != nil {
			args = req.Params.Arguments
		}
		text, err := p.render(args)
		if err != nil {
			return nil, err
		}
		return &mcp.GetPromptResult{
			Description: p.header.Description,
			Messages: []*mcp.PromptMessage{
				{Role: "user", Content: &mcp.TextContent{Text: text}},
			},
		}, nil
	}
}

// registerPrompts adds every embedded prompt. If any file fails to parse
// the error is logged and no prompts are registered.
func (s *Server) registerPrompts() {
	prompts, err := loadPrompts()
	if err != nil {
		s.logger.Error("loading prompts", "error", err)
		return
	}
	for _, p := range prompts {
		s.server.AddPrompt(p.definition(), p.handler())
	}
}
