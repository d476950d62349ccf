package lexer

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/panbanda/cpd/pkg/token"
)

// TreeSitter lexes source through a tree-sitter grammar. The leaves of the
// syntax tree become tokens; string literals and comments are kept whole.
// A TreeSitter holds a native parser and is not safe for concurrent use.
type TreeSitter struct {
	parser *sitter.Parser
}

// NewTreeSitter creates a tree-sitter lexer.
func NewTreeSitter() *TreeSitter {
	return &TreeSitter{parser: sitter.NewParser()}
}

// Close releases parser resources.
func (l *TreeSitter) Close() {
	l.parser.Close()
}

// Tokenize parses src with the grammar chosen from path.
func (l *TreeSitter) Tokenize(ctx context.Context, path string, src []byte) (token.Stream, error) {
	lang := DetectLanguage(path)
	g, err := grammar(lang)
	if err != nil {
		return token.Stream{}, err
	}

	l.parser.SetLanguage(g)
	tree, err := l.parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return token.Stream{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	defer tree.Close()

	stream := token.Stream{File: path}
	collectLeaves(tree.RootNode(), src, &stream.Tokens)
	return stream, nil
}

func collectLeaves(node *sitter.Node, src []byte, out *[]token.Token) {
	if node == nil || node.IsMissing() {
		return
	}

	nodeType := node.Type()
	if node.ChildCount() == 0 || isAtomic(nodeType) {
		start, end := node.StartByte(), node.EndByte()
		if start >= end || end > uint32(len(src)) {
			return
		}
		text := string(src[start:end])
		*out = append(*out, token.Token{
			Kind: classifyNode(nodeType, text, node.IsNamed()),
			Text: text,
			Line: int(node.StartPoint().Row) + 1,
		})
		return
	}

	for i := range int(node.ChildCount()) {
		collectLeaves(node.Child(i), src, out)
	}
}

// isAtomic reports node types emitted as a single token even when the
// grammar gives them children.
func isAtomic(nodeType string) bool {
	switch {
	case strings.Contains(nodeType, "comment"):
		return true
	case strings.Contains(nodeType, "string") && !strings.Contains(nodeType, "interpolation"):
		return true
	case nodeType == "char_literal", nodeType == "rune_literal", nodeType == "character_literal":
		return true
	case strings.Contains(nodeType, "heredoc"), nodeType == "nowdoc":
		return true
	}
	return false
}

func classifyNode(nodeType, text string, named bool) token.Kind {
	switch {
	case nodeType == "text":
		return token.KindMarkup
	case nodeType == "php_tag":
		if strings.HasPrefix(text, "<?=") {
			return token.KindOpenTagWithEcho
		}
		return token.KindOpenTag
	case nodeType == "?>":
		return token.KindCloseTag
	case strings.Contains(nodeType, "comment"):
		if isDocComment(text) {
			return token.KindDocComment
		}
		return token.KindComment
	case isAtomic(nodeType):
		return token.KindString
	}

	if !named {
		return classifyAnonymous(text)
	}

	switch {
	case strings.Contains(nodeType, "identifier"), nodeType == "name", nodeType == "constant",
		nodeType == "self", nodeType == "this":
		return token.KindIdentifier
	case isNumberType(nodeType):
		return token.KindNumber
	case nodeType == "true", nodeType == "false", nodeType == "nil", nodeType == "null",
		nodeType == "none", nodeType == "boolean":
		return token.KindLiteral
	case nodeType == "escape_sequence":
		return token.KindString
	}
	return token.KindOther
}

func isDocComment(text string) bool {
	return (strings.HasPrefix(text, "/**") && text != "/**/") ||
		strings.HasPrefix(text, "///") || strings.HasPrefix(text, "//!")
}

func isNumberType(nodeType string) bool {
	for _, s := range []string{"integer", "int_literal", "float", "number", "imaginary", "decimal"} {
		if strings.Contains(nodeType, s) {
			return true
		}
	}
	return false
}

// classifyAnonymous sorts grammar literals: words are keywords, brackets
// and separators are punctuation, everything else is an operator. Newline
// statement terminators are whitespace.
func classifyAnonymous(text string) token.Kind {
	if text == "" {
		return token.KindOther
	}
	if strings.TrimSpace(text) == "" {
		return token.KindWhitespace
	}
	if len(text) == 1 && strings.Contains("(){}[];,.", text) {
		return token.KindPunctuation
	}
	if isIdentStart(text[0]) {
		return token.KindKeyword
	}
	return token.KindOperator
}
