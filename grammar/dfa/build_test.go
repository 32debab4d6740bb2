package dfa

import (
	"testing"

	"github.com/dekarrin/farkle/grammar"
	"github.com/dekarrin/farkle/grammar/regex"
	"github.com/stretchr/testify/assert"
)

func simpleDefs(t *testing.T) (*grammar.Grammar, map[grammar.Handle]grammar.TokenDef) {
	b := grammar.NewBuilder()
	plus := b.AddTerminal(grammar.TokenDef{Name: "PLUS", Regex: regex.Char('+')})
	integer := b.AddTerminal(grammar.TokenDef{Name: "INT", Regex: regex.Plus(regex.Literal('0', '9'))})
	ident := b.AddTerminal(grammar.TokenDef{Name: "IDENT", Regex: regex.Concat{Items: []regex.Node{
		regex.Alt{Items: []regex.Node{regex.Literal('a', 'z'), regex.Literal('A', 'Z')}},
		regex.Star(regex.Alt{Items: []regex.Node{regex.Literal('a', 'z'), regex.Literal('A', 'Z'), regex.Literal('0', '9')}}),
	}}})

	nt := b.AddNonterminal("S", "")
	b.AddProduction(nt, grammar.Member{Kind: grammar.MemberToken, Handle: integer})
	b.SetStart(nt)

	g, err := b.Build()
	if !assert.NoError(t, err) {
		t.FailNow()
	}
	return g, map[grammar.Handle]grammar.TokenDef{
		plus:    {Name: "PLUS", Regex: regex.Char('+'), CaseSensitive: true},
		integer: {Name: "INT", Regex: regex.Plus(regex.Literal('0', '9')), CaseSensitive: true},
		ident: {Name: "IDENT", CaseSensitive: true, Regex: regex.Concat{Items: []regex.Node{
			regex.Alt{Items: []regex.Node{regex.Literal('a', 'z'), regex.Literal('A', 'Z')}},
			regex.Star(regex.Alt{Items: []regex.Node{regex.Literal('a', 'z'), regex.Literal('A', 'Z'), regex.Literal('0', '9')}}),
		}}},
	}
}

func Test_Build_Basic(t *testing.T) {
	g, defs := simpleDefs(t)
	d, err := Build(g, defs, Options{})
	if !assert.NoError(t, err) {
		return
	}
	assert.NotEmpty(t, d.States)
	assert.False(t, d.States[0].Accepting())
}

func Test_Build_AcceptsIntLiteral(t *testing.T) {
	g, defs := simpleDefs(t)
	d, err := Build(g, defs, Options{})
	if !assert.NoError(t, err) {
		return
	}

	sym := runInput(t, d, "123")
	assert.NotNil(t, sym)
}

// runInput drives the DFA start-to-finish over in, following explicit edges
// then the default edge, and returns the winning accept symbol at the final
// state (nil if the run fell off the automaton or didn't land on an accept).
func runInput(t *testing.T, d *DFA, in string) *grammar.Handle {
	state := 0
	for _, r := range in {
		next := -1
		for _, e := range d.States[state].Edges {
			if r >= e.Lo && r <= e.Hi {
				next = e.To
				break
			}
		}
		if next == -1 && d.States[state].HasDefault {
			next = d.States[state].Default
		}
		if next == -1 {
			return nil
		}
		state = next
	}
	win, ok, unambiguous := d.States[state].Winner(d.PrioritizeFixedLengthSymbols)
	if !ok || !unambiguous {
		return nil
	}
	h := win.Symbol
	return &h
}

func Test_Build_SingleCharLiteralResolvesUniquely(t *testing.T) {
	// PLUS is a single fixed character; run "+" through and expect exactly
	// one winner (no ambiguity), verifying a simple literal resolves cleanly.
	g, defs := simpleDefs(t)
	d, err := Build(g, defs, Options{})
	if !assert.NoError(t, err) {
		return
	}
	sym := runInput(t, d, "+")
	if assert.NotNil(t, sym) {
		tok := g.Token(*sym)
		assert.Equal(t, "PLUS", tok.Name)
	}
}

func Test_Build_IdentVsKeywordConflict(t *testing.T) {
	b := grammar.NewBuilder()
	kw := b.AddTerminal(grammar.TokenDef{Name: "IF", Regex: regex.StringLiteral{S: "if"}, CaseSensitive: true})
	ident := b.AddTerminal(grammar.TokenDef{Name: "IDENT", Regex: regex.Plus(regex.Literal('a', 'z')), CaseSensitive: true})
	nt := b.AddNonterminal("S", "")
	b.AddProduction(nt, grammar.Member{Kind: grammar.MemberToken, Handle: ident})
	b.SetStart(nt)
	g, err := b.Build()
	if !assert.NoError(t, err) {
		t.FailNow()
	}

	defs := map[grammar.Handle]grammar.TokenDef{
		kw:    {Name: "IF", Regex: regex.StringLiteral{S: "if"}, CaseSensitive: true},
		ident: {Name: "IDENT", Regex: regex.Plus(regex.Literal('a', 'z')), CaseSensitive: true},
	}

	d, err := Build(g, defs, Options{})
	if !assert.NoError(t, err) {
		return
	}
	sym := runInput(t, d, "if")
	if assert.NotNil(t, sym) {
		// IF is fixed-length/no-repetition (LiteralPriority); IDENT has a
		// Plus repetition (TerminalPriority). The fixed literal should win.
		tok := g.Token(*sym)
		assert.Equal(t, "IF", tok.Name)
	}
}

// fixedVsVariableDefs builds two terminals that both match "ab" with equal
// priority (neither has unbounded repetition) but different fixedness: A
// matches only the fixed two-character literal, B matches "a" optionally
// followed by "b", so FixedLength reports A as fixed and B as not.
func fixedVsVariableDefs(t *testing.T) (*grammar.Grammar, map[grammar.Handle]grammar.TokenDef, grammar.Handle, grammar.Handle) {
	b := grammar.NewBuilder()
	a := b.AddTerminal(grammar.TokenDef{Name: "A", Regex: regex.StringLiteral{S: "ab"}})
	c := b.AddTerminal(grammar.TokenDef{Name: "B", Regex: regex.Concat{Items: []regex.Node{
		regex.Char('a'),
		regex.Repeat{Item: regex.Char('b'), Min: 0, Max: 1},
	}}})
	nt := b.AddNonterminal("S", "")
	b.AddProduction(nt, grammar.Member{Kind: grammar.MemberToken, Handle: a})
	b.SetStart(nt)

	g, err := b.Build()
	if !assert.NoError(t, err) {
		t.FailNow()
	}
	return g, map[grammar.Handle]grammar.TokenDef{
		a: {Name: "A", Regex: regex.StringLiteral{S: "ab"}, CaseSensitive: true},
		c: {Name: "B", Regex: regex.Concat{Items: []regex.Node{
			regex.Char('a'),
			regex.Repeat{Item: regex.Char('b'), Min: 0, Max: 1},
		}}, CaseSensitive: true},
	}, a, c
}

func Test_Build_PrioritizeFixedLengthSymbols_TrueResolvesTie(t *testing.T) {
	g, defs, a, _ := fixedVsVariableDefs(t)
	d, err := Build(g, defs, Options{PrioritizeFixedLengthSymbols: true})
	if !assert.NoError(t, err) {
		return
	}
	sym := runInput(t, d, "ab")
	if assert.NotNil(t, sym) {
		assert.Equal(t, a, *sym)
	}
}

func Test_Build_PrioritizeFixedLengthSymbols_FalseReportsConflict(t *testing.T) {
	g, defs, _, _ := fixedVsVariableDefs(t)
	d, err := Build(g, defs, Options{PrioritizeFixedLengthSymbols: false})
	var confErr *ConflictError
	if assert.ErrorAs(t, err, &confErr) {
		// The conflict is non-fatal: a usable (if conflicted) DFA is still
		// returned alongside the diagnostic.
		assert.NotNil(t, d)
	}
}

func Test_Build_MaxStatesExceeded(t *testing.T) {
	g, defs := simpleDefs(t)
	_, err := Build(g, defs, Options{MaxStates: 1})
	assert.Error(t, err)
}

func Test_Build_EmptyGrammarHasStartStateOnly(t *testing.T) {
	b := grammar.NewBuilder()
	integer := b.AddTerminal(grammar.TokenDef{Name: "INT", Regex: regex.Literal('0', '9')})
	nt := b.AddNonterminal("S", "")
	b.AddProduction(nt, grammar.Member{Kind: grammar.MemberToken, Handle: integer})
	b.SetStart(nt)
	g, err := b.Build()
	if !assert.NoError(t, err) {
		t.FailNow()
	}

	d, err := Build(g, map[grammar.Handle]grammar.TokenDef{}, Options{})
	if !assert.NoError(t, err) {
		return
	}
	assert.Len(t, d.States, 1)
}
