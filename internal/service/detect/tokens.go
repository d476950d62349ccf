package detect

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/panbanda/cpd/internal/output"
	"github.com/panbanda/cpd/pkg/cpd"
	"github.com/panbanda/cpd/pkg/lexer"
	"github.com/panbanda/cpd/pkg/source"
	"github.com/panbanda/cpd/pkg/token"
)

// TokenRow is one token of a listing.
type TokenRow struct {
	Line    int    `json:"line" toon:"line" yaml:"line"`
	Kind    string `json:"kind" toon:"kind" yaml:"kind"`
	Text    string `json:"text" toon:"text" yaml:"text"`
	Ignored bool   `json:"ignored" toon:"ignored" yaml:"ignored"`
}

// TokenListing shows a file the way the detector sees it.
type TokenListing struct {
	File           string     `json:"file" toon:"file" yaml:"file"`
	Lexer          string     `json:"lexer" toon:"lexer" yaml:"lexer"`
	Total          int        `json:"total" toon:"total" yaml:"total"`
	Significant    int        `json:"significant" toon:"significant" yaml:"significant"`
	Windows        int        `json:"windows" toon:"windows" yaml:"windows"`
	SignatureBytes int        `json:"signature_bytes" toon:"signature_bytes" yaml:"signature_bytes"`
	Tokens         []TokenRow `json:"tokens" toon:"tokens" yaml:"tokens"`
}

// Tokens lexes one file with the configured lexer. When significantOnly is
// set, ignored tokens are left out of the rows but still counted.
func (s *Service) Tokens(ctx context.Context, file string, src source.ContentSource, significantOnly bool) (*TokenListing, error) {
	content, err := src.Read(file)
	if err != nil {
		return nil, &PathError{Path: file, Err: err}
	}
	ignored, err := token.ParseSet(s.config.Detect.IgnoredKinds)
	if err != nil {
		return nil, err
	}

	lx, err := lexer.New(s.config.Detect.Lexer)
	if err != nil {
		return nil, err
	}
	defer lx.Close()

	stream, err := lx.Tokenize(ctx, file, content)
	if err != nil {
		return nil, fmt.Errorf("tokenize %s: %w", file, err)
	}

	listing := &TokenListing{File: file, Lexer: s.config.Detect.Lexer, Total: len(stream.Tokens)}
	for _, tok := range stream.Tokens {
		skip := ignored.Contains(tok.Kind)
		if !skip {
			listing.Significant++
		}
		if skip && significantOnly {
			continue
		}
		listing.Tokens = append(listing.Tokens, TokenRow{Line: tok.Line, Kind: tok.Kind.String(), Text: tok.Text, Ignored: skip})
	}
	listing.Windows = max(0, listing.Significant-s.config.Detect.MinMatches+1)
	listing.SignatureBytes = listing.Significant * cpd.RecordSize
	return listing, nil
}

func (l *TokenListing) table() *output.Table {
	rows := make([][]string, 0, len(l.Tokens))
	for _, t := range l.Tokens {
		kind := t.Kind
		if t.Ignored {
			kind += " (ignored)"
		}
		rows = append(rows, []string{strconv.Itoa(t.Line), kind, strconv.Quote(t.Text)})
	}
	title := fmt.Sprintf("%s: %d tokens, %d significant, %d windows, %d signature bytes",
		l.File, l.Total, l.Significant, l.Windows, l.SignatureBytes)
	return output.NewTable(title, []string{"Line", "Kind", "Text"}, rows, nil, nil)
}

func (l *TokenListing) RenderText(w io.Writer, colored bool) error {
	return l.table().RenderText(w, colored)
}

func (l *TokenListing) RenderMarkdown(w io.Writer) error {
	t := l.table()
	for i := range t.Rows {
		t.Rows[i][2] = "`" + strings.ReplaceAll(t.Rows[i][2], "`", "'") + "`"
	}
	return t.RenderMarkdown(w)
}

func (l *TokenListing) RenderData() any {
	return l
}
