package lexer

import (
	"context"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/panbanda/cpd/pkg/token"
)

// Generic is a language-agnostic lexer for files without a grammar. It
// recognises C-family and shell-style comments, quoted strings, numbers,
// identifiers and common multi-character operators. Whitespace and
// comments are emitted as tokens so line numbers stay exact after
// filtering.
type Generic struct{}

// Tokenize splits src into a token stream.
func (Generic) Tokenize(_ context.Context, path string, src []byte) (token.Stream, error) {
	return token.AnnotateLines(path, scanPieces(string(src))), nil
}

// Close is a no-op.
func (Generic) Close() {}

type scanner struct {
	src string
	pos int
	out []token.Piece
}

func scanPieces(src string) []token.Piece {
	s := &scanner{src: src}
	for s.pos < len(s.src) {
		s.next()
	}
	return s.out
}

func (s *scanner) emit(kind token.Kind, start int) {
	s.out = append(s.out, token.Piece{Kind: kind, Text: s.src[start:s.pos]})
}

func (s *scanner) peek(off int) byte {
	if s.pos+off < len(s.src) {
		return s.src[s.pos+off]
	}
	return 0
}

func (s *scanner) next() {
	start := s.pos
	c := s.src[s.pos]

	switch {
	case isSpace(c):
		for s.pos < len(s.src) && isSpace(s.src[s.pos]) {
			s.pos++
		}
		s.emit(token.KindWhitespace, start)

	case c == '/' && s.peek(1) == '/', c == '#':
		s.skipLine()
		s.emit(token.KindComment, start)

	case c == '/' && s.peek(1) == '*':
		kind := token.KindComment
		if s.peek(2) == '*' && s.peek(3) != '/' {
			kind = token.KindDocComment
		}
		end := strings.Index(s.src[s.pos+2:], "*/")
		if end < 0 {
			s.pos = len(s.src)
		} else {
			s.pos += end + 4
		}
		s.emit(kind, start)

	case c == '"' || c == '\'' || c == '`':
		s.skipQuoted(c)
		s.emit(token.KindString, start)

	case isDigit(c):
		s.skipNumber()
		s.emit(token.KindNumber, start)

	case isIdentStart(c):
		s.skipIdent()
		s.emit(classifyWord(s.src[start:s.pos]), start)

	default:
		if n := operatorLen(s.src[s.pos:]); n > 0 {
			s.pos += n
			s.emit(token.KindOperator, start)
			return
		}
		r, size := utf8.DecodeRuneInString(s.src[s.pos:])
		s.pos += size
		switch {
		case strings.ContainsRune("(){}[];,.", r):
			s.emit(token.KindPunctuation, start)
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			s.emit(token.KindOperator, start)
		case unicode.IsLetter(r):
			s.skipIdent()
			s.emit(token.KindIdentifier, start)
		default:
			s.emit(token.KindOther, start)
		}
	}
}

func (s *scanner) skipLine() {
	for s.pos < len(s.src) && s.src[s.pos] != '\n' {
		s.pos++
	}
}

// skipQuoted consumes a quoted literal including both quotes. An
// unterminated literal runs to end of input.
func (s *scanner) skipQuoted(quote byte) {
	s.pos++
	for s.pos < len(s.src) {
		c := s.src[s.pos]
		s.pos++
		if c == '\\' && s.pos < len(s.src) {
			s.pos++
			continue
		}
		if c == quote {
			return
		}
	}
}

func (s *scanner) skipNumber() {
	for s.pos < len(s.src) {
		c := s.src[s.pos]
		if isDigit(c) || c == '.' || c == '_' || isHexLetter(c) ||
			c == 'x' || c == 'X' || c == 'o' || c == 'O' {
			s.pos++
			continue
		}
		return
	}
}

func (s *scanner) skipIdent() {
	for s.pos < len(s.src) {
		r, size := utf8.DecodeRuneInString(s.src[s.pos:])
		if r != '_' && r != '$' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return
		}
		s.pos += size
	}
}

var operators = []string{
	"<<=", ">>=", "...", "===", "!==", "**=", "<=>", "??=",
	"==", "!=", "<=", ">=", "&&", "||", "<<", ">>",
	"+=", "-=", "*=", "/=", "%=", "&=", "|=", "^=",
	"++", "--", "->", "=>", "::", "..", "??", ":=", "**",
}

func operatorLen(rest string) int {
	for _, op := range operators {
		if strings.HasPrefix(rest, op) {
			return len(op)
		}
	}
	return 0
}

// keywords spans the common keyword vocabulary of the languages the
// generic lexer is most often pointed at.
var keywords = map[string]bool{
	"func": true, "return": true, "if": true, "else": true, "for": true,
	"range": true, "switch": true, "case": true, "default": true, "break": true,
	"continue": true, "goto": true, "defer": true, "go": true, "select": true,
	"chan": true, "map": true, "struct": true, "interface": true, "type": true,
	"var": true, "const": true, "package": true, "import": true,
	"fn": true, "let": true, "mut": true, "match": true, "loop": true,
	"while": true, "impl": true, "trait": true, "mod": true, "use": true,
	"pub": true, "where": true, "async": true, "await": true, "static": true,
	"enum": true, "as": true, "in": true, "do": true, "end": true,
	"def": true, "class": true, "elif": true, "try": true, "except": true,
	"finally": true, "with": true, "lambda": true, "yield": true,
	"raise": true, "pass": true, "and": true, "or": true, "not": true,
	"is": true, "from": true, "function": true, "new": true, "this": true,
	"super": true, "extends": true, "implements": true, "export": true,
	"throw": true, "catch": true, "instanceof": true, "typeof": true,
	"void": true, "delete": true, "public": true, "private": true,
	"protected": true, "abstract": true, "final": true, "namespace": true,
	"echo": true, "foreach": true, "then": true, "fi": true, "done": true,
}

var literals = map[string]bool{
	"true": true, "false": true, "nil": true, "null": true, "None": true,
	"True": true, "False": true, "undefined": true, "NULL": true,
}

func classifyWord(w string) token.Kind {
	switch {
	case keywords[w]:
		return token.KindKeyword
	case literals[w]:
		return token.KindLiteral
	default:
		return token.KindIdentifier
	}
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v'
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isHexLetter(c byte) bool {
	return (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func isIdentStart(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_' || c == '$'
}
