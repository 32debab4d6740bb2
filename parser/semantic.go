// Package parser is the LALR driver that consumes a built grammar and a
// lex.Tokenizer to turn a stream of characters into a semantic value
// (spec.md §4.3.4), plus the semantic-provider contract (§4.3.5) and the
// run-time error model wiring. It is the Go analogue of tunaq's
// internal/ictiobus/parse package's lr.go driver, rebuilt around
// grammar.Handle-indexed tables and a streaming character source instead
// of that package's pre-lexed types.TokenStream.
package parser

import (
	"github.com/dekarrin/farkle/diag"
	"github.com/dekarrin/farkle/grammar"
	"github.com/dekarrin/farkle/lex"
)

// Fuser is the reduction half of the semantic provider contract (spec.md
// §4.3.5): given a production and its already-computed child values (left
// to right), produce the value for the nonterminal the reduction produces.
type Fuser interface {
	Fuse(production grammar.Handle, children []any) (any, error)
}

// SemanticProvider is the full contract the driver needs: a Transformer
// for terminals (see package lex) and a Fuser for reductions.
type SemanticProvider interface {
	lex.Transformer
	Fuser
}

// SyntaxCheckProvider is the built-in provider spec.md §4.3.5 describes: it
// returns a nil value for every terminal and every reduction, so a parse
// signals success purely by finishing without an error. Useful for
// validating that input belongs to the grammar without building anything.
type SyntaxCheckProvider struct{}

func (SyntaxCheckProvider) Transform(grammar.Handle, diag.Position, []rune) (any, error) {
	return nil, nil
}

func (SyntaxCheckProvider) Fuse(grammar.Handle, []any) (any, error) {
	return nil, nil
}
