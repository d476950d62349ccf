package lexer

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/bash"
	"github.com/smacker/go-tree-sitter/c"
	"github.com/smacker/go-tree-sitter/cpp"
	"github.com/smacker/go-tree-sitter/csharp"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/php"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/ruby"
	"github.com/smacker/go-tree-sitter/rust"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// Language names a tree-sitter grammar.
type Language string

const (
	LangGo         Language = "go"
	LangRust       Language = "rust"
	LangPython     Language = "python"
	LangTypeScript Language = "typescript"
	LangJavaScript Language = "javascript"
	LangTSX        Language = "tsx"
	LangJava       Language = "java"
	LangC          Language = "c"
	LangCPP        Language = "cpp"
	LangCSharp     Language = "csharp"
	LangRuby       Language = "ruby"
	LangPHP        Language = "php"
	LangBash       Language = "bash"
	LangUnknown    Language = "unknown"
)

type grammarEntry struct {
	load       func() *sitter.Language
	extensions []string
}

var grammars = map[Language]grammarEntry{
	LangGo:         {golang.GetLanguage, []string{".go"}},
	LangRust:       {rust.GetLanguage, []string{".rs"}},
	LangPython:     {python.GetLanguage, []string{".py", ".pyw", ".pyi"}},
	LangTypeScript: {typescript.GetLanguage, []string{".ts", ".mts", ".cts"}},
	LangTSX:        {tsx.GetLanguage, []string{".tsx", ".jsx"}},
	LangJavaScript: {javascript.GetLanguage, []string{".js", ".mjs", ".cjs"}},
	LangJava:       {java.GetLanguage, []string{".java"}},
	LangC:          {c.GetLanguage, []string{".c", ".h"}},
	LangCPP:        {cpp.GetLanguage, []string{".cpp", ".cc", ".cxx", ".hpp", ".hxx", ".hh"}},
	LangCSharp:     {csharp.GetLanguage, []string{".cs"}},
	LangRuby:       {ruby.GetLanguage, []string{".rb", ".rake"}},
	LangPHP:        {php.GetLanguage, []string{".php", ".phtml", ".inc", ".phpt"}},
	LangBash:       {bash.GetLanguage, []string{".sh", ".bash"}},
}

// byExtension is the reverse of grammars, built once.
var byExtension = func() map[string]Language {
	m := make(map[string]Language)
	for lang, g := range grammars {
		for _, ext := range g.extensions {
			m[ext] = lang
		}
	}
	return m
}()

func grammar(lang Language) (*sitter.Language, error) {
	g, ok := grammars[lang]
	if !ok {
		return nil, fmt.Errorf("unsupported language: %s", lang)
	}
	return g.load(), nil
}

// DetectLanguage picks the grammar for path by extension. Extensionless
// shell scripts such as Dockerfile are treated as bash.
func DetectLanguage(path string) Language {
	if strings.EqualFold(filepath.Base(path), "dockerfile") {
		return LangBash
	}
	if lang, ok := byExtension[strings.ToLower(filepath.Ext(path))]; ok {
		return lang
	}
	return LangUnknown
}

// Supported reports whether path has a tree-sitter grammar.
func Supported(path string) bool {
	return DetectLanguage(path) != LangUnknown
}

// Extensions lists every extension with a grammar, sorted.
func Extensions() []string {
	exts := make([]string, 0, len(byExtension))
	for ext := range byExtension {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}
