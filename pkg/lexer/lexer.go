// Package lexer turns source files into token streams for detection.
package lexer

import (
	"context"
	"fmt"

	"github.com/panbanda/cpd/pkg/token"
)

// Lexer tokenizes one file. Implementations need not be safe for
// concurrent use; callers create one per goroutine.
type Lexer interface {
	Tokenize(ctx context.Context, path string, src []byte) (token.Stream, error)
	Close()
}

// Lexer names accepted by New.
const (
	NameAuto       = "auto"
	NameTreeSitter = "treesitter"
	NameGeneric    = "generic"
)

// New returns the lexer registered under name. An empty name selects Auto.
func New(name string) (Lexer, error) {
	switch name {
	case "", NameAuto:
		return NewAuto(), nil
	case NameTreeSitter:
		return NewTreeSitter(), nil
	case NameGeneric:
		return Generic{}, nil
	default:
		return nil, fmt.Errorf("unknown lexer %q", name)
	}
}

// Auto uses tree-sitter for languages it has a grammar for and the generic
// lexer for everything else.
type Auto struct {
	ts      *TreeSitter
	generic Generic
}

// NewAuto creates an Auto lexer.
func NewAuto() *Auto {
	return &Auto{ts: NewTreeSitter()}
}

func (a *Auto) Tokenize(ctx context.Context, path string, src []byte) (token.Stream, error) {
	if Supported(path) {
		return a.ts.Tokenize(ctx, path, src)
	}
	return a.generic.Tokenize(ctx, path, src)
}

func (a *Auto) Close() {
	a.ts.Close()
}
