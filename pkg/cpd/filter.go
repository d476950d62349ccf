package cpd

import (
	"fmt"

	"github.com/panbanda/cpd/pkg/token"
)

// Filtered is the significant part of one file's token stream.
type Filtered struct {
	File   string
	Tokens []token.Token
}

// Filter drops every token whose kind is in ignored and keeps the rest in
// order with their start lines. It does not modify stream.
func Filter(stream token.Stream, ignored token.Set) (Filtered, error) {
	out := Filtered{
		File:   stream.File,
		Tokens: make([]token.Token, 0, len(stream.Tokens)),
	}
	for i, tok := range stream.Tokens {
		if tok.Line <= 0 {
			return Filtered{}, &InputError{
				File:   stream.File,
				Token:  i,
				Reason: fmt.Sprintf("line %d is not a 1-based line number", tok.Line),
			}
		}
		if ignored.Contains(tok.Kind) {
			continue
		}
		out.Tokens = append(out.Tokens, tok)
	}
	return out, nil
}
