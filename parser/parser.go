package parser

import (
	"fmt"

	"github.com/dekarrin/farkle/diag"
	"github.com/dekarrin/farkle/grammar"
	"github.com/dekarrin/farkle/grammar/dfa"
	"github.com/dekarrin/farkle/grammar/lalr"
	"github.com/dekarrin/farkle/lex"
)

// Parser is an immutable, built grammar plus its DFA and LALR table, ready
// to drive parsing operations. It is safe for concurrent use by any number
// of goroutines; each call to Parse or NewSource owns its own mutable
// state (spec.md §5).
type Parser struct {
	g     *grammar.Grammar
	dfa   *dfa.DFA
	table *lalr.Table
}

// New wraps a built grammar, DFA, and LALR table into a Parser. It refuses
// to build a Parser for a grammar marked Unparsable, since spec.md §3
// guarantees such a grammar cannot be driven correctly.
func New(g *grammar.Grammar, d *dfa.DFA, t *lalr.Table) (*Parser, error) {
	if g.Unparsable {
		return nil, fmt.Errorf("parser: grammar is marked unparsable and cannot be driven")
	}
	return &Parser{g: g, dfa: d, table: t}, nil
}

// Grammar returns the grammar this Parser was built from.
func (p *Parser) Grammar() *grammar.Grammar { return p.g }

// Parse implements spec.md §6's parse(span) -> Result<T, Error>: parses a
// complete, already-available buffer in one call.
func (p *Parser) Parse(input string, sem SemanticProvider) (any, error) {
	buf := lex.NewBufferFromString(input)
	tok := lex.New(p.g, p.dfa)
	tok.Solo = true
	d := newDriver(p.g, p.table, tok)

	val, done, err := d.run(buf, sem)
	if !done {
		// Parse is given the whole input up front and marks it final, so
		// the driver must always finish synchronously; reaching here would
		// mean the tokenizer ignored IsFinalBlock, a bug in this package.
		return nil, fmt.Errorf("parser: parse(span) failed to complete on a fully-buffered input")
	}
	return val, err
}

// Source is the streaming parse context of spec.md §6's parse_streaming:
// a get_buffer(hint)/advance(n)/complete_input() surface plus the
// read-only parser_state (current_position, total_characters_consumed,
// input_name, and an opaque key-value store for caller-defined state).
type Source struct {
	InputName string

	buf    *lex.Buffer
	tok    *lex.Tokenizer
	driver *driver
	store  map[string]any
}

// NewSource starts a new streaming parse operation against p. Feed
// characters with GetBuffer/Advance, call CompleteInput once input is
// exhausted, and drive it to completion with (*Parser).ParseStreaming.
func (p *Parser) NewSource(inputName string) *Source {
	tok := lex.New(p.g, p.dfa)
	tok.Solo = true
	return &Source{
		InputName: inputName,
		buf:       lex.NewBuffer(),
		tok:       tok,
		driver:    newDriver(p.g, p.table, tok),
		store:     map[string]any{},
	}
}

// GetBuffer exposes free space for the caller to write newly-read
// characters into, per spec.md §4.3.1.
func (s *Source) GetBuffer(hint int) []rune { return s.buf.GetSpan(hint) }

// Advance commits n characters just written via GetBuffer.
func (s *Source) Advance(n int) { s.buf.Advance(n) }

// CompleteInput signals that no more characters will ever be written.
func (s *Source) CompleteInput() { s.buf.SetFinalBlock() }

// CurrentPosition is the tokenizer's current line/column.
func (s *Source) CurrentPosition() diag.Position { return s.tok.Position() }

// TotalCharactersConsumed is the cumulative count of characters the
// tokenizer/driver have consumed so far.
func (s *Source) TotalCharactersConsumed() int { return s.buf.Consumed() }

// State is the opaque key-value store spec.md §6's parser_state exposes
// for caller-defined per-operation data (for example, a suspended
// tokenizer's resumption point, spec.md §4.3.3/§9).
func (s *Source) State() map[string]any { return s.store }

// ParseStreaming drives src as far as its currently buffered input allows.
// It returns done=false when the driver needs more characters (call
// GetBuffer/Advance to supply them, or CompleteInput if there are none
// left, then call ParseStreaming again); done=true with the final value on
// success, or done=true with a non-nil error on failure.
func (p *Parser) ParseStreaming(src *Source, sem SemanticProvider) (value any, done bool, err error) {
	return src.driver.run(src.buf, sem)
}
