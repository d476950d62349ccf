// Package token defines the lexical units consumed by the duplicate detector.
package token

import (
	"fmt"
	"sort"
	"strings"
)

// Kind classifies a token. The set is closed so the detector does not
// depend on any particular lexer's constants.
type Kind uint8

const (
	KindOther Kind = iota
	KindIdentifier
	KindKeyword
	KindOperator
	KindPunctuation
	KindString
	KindNumber
	KindLiteral

	// Ignorable kinds.
	KindMarkup
	KindComment
	KindDocComment
	KindOpenTag
	KindOpenTagWithEcho
	KindCloseTag
	KindWhitespace
)

var kindNames = map[Kind]string{
	KindOther:           "other",
	KindIdentifier:      "identifier",
	KindKeyword:         "keyword",
	KindOperator:        "operator",
	KindPunctuation:     "punctuation",
	KindString:          "string",
	KindNumber:          "number",
	KindLiteral:         "literal",
	KindMarkup:          "markup",
	KindComment:         "comment",
	KindDocComment:      "doc_comment",
	KindOpenTag:         "open_tag",
	KindOpenTagWithEcho: "open_tag_with_echo",
	KindCloseTag:        "close_tag",
	KindWhitespace:      "whitespace",
}

// String returns the configuration name of the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Significant reports whether k takes part in duplicate matching by
// default. Markup, comments, language boundary tags and whitespace do not.
func (k Kind) Significant() bool {
	return k < KindMarkup
}

// ParseKind converts a configuration name to a Kind.
func ParseKind(name string) (Kind, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.ReplaceAll(name, "-", "_")
	for k, n := range kindNames {
		if n == name {
			return k, nil
		}
	}
	return KindOther, fmt.Errorf("unknown token kind %q", name)
}

// Kinds returns every defined kind in declaration order.
func Kinds() []Kind {
	kinds := make([]Kind, 0, len(kindNames))
	for k := range kindNames {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// Token is one lexical unit with the 1-based line it starts on.
type Token struct {
	Kind Kind   `json:"kind"`
	Text string `json:"text"`
	Line int    `json:"line"`
}

// Stream is the ordered token sequence of a single file.
type Stream struct {
	File   string  `json:"file"`
	Tokens []Token `json:"tokens"`
}

// Piece is a token that has not been assigned a line yet.
type Piece struct {
	Kind Kind
	Text string
}

// AnnotateLines assigns start lines to pieces by counting the newlines
// contained in every piece, including the ones a filter will later drop.
func AnnotateLines(file string, pieces []Piece) Stream {
	tokens := make([]Token, len(pieces))
	line := 1
	for i, p := range pieces {
		tokens[i] = Token{Kind: p.Kind, Text: p.Text, Line: line}
		line += strings.Count(p.Text, "\n")
	}
	return Stream{File: file, Tokens: tokens}
}
