package binfmt

import (
	"testing"

	"github.com/dekarrin/farkle/grammar"
	"github.com/dekarrin/farkle/grammar/dfa"
	"github.com/dekarrin/farkle/grammar/lalr"
	"github.com/dekarrin/farkle/grammar/regex"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildTinyGrammar is a minimal grammar exercising every table: one group
// (with nesting), a special name, and a two-production nonterminal.
func buildTinyGrammar(t *testing.T) *grammar.Grammar {
	t.Helper()
	b := grammar.NewBuilder()

	num := b.AddTerminal(grammar.TokenDef{Name: "num", Regex: regex.Plus(regex.Literal('0', '9')), SpecialName: "NUM"})
	plus := b.AddTerminal(grammar.TokenDef{Name: "+", Regex: regex.Char('+')})
	commentStart := b.AddGroupStart(grammar.TokenDef{Name: "/*", Regex: regex.StringLiteral{S: "/*"}})
	commentEnd := b.AddGroupEnd(grammar.TokenDef{Name: "*/", Regex: regex.StringLiteral{S: "*/"}})
	b.AddGroup("comment", commentStart, commentEnd, false, false, false, commentStart)

	e := b.AddNonterminal("E", "")
	b.SetStart(e)
	b.AddProduction(e, grammar.Member{Kind: grammar.MemberToken, Handle: num})
	b.AddProduction(e, grammar.Member{Kind: grammar.MemberNonterminal, Handle: e}, grammar.Member{Kind: grammar.MemberToken, Handle: plus}, grammar.Member{Kind: grammar.MemberNonterminal, Handle: e})

	g, err := b.Build()
	require.NoError(t, err)
	return g
}

func TestWriteRead_RoundTrip(t *testing.T) {
	g := buildTinyGrammar(t)

	d, err := dfa.Build(g, tokenDefsOf(g), dfa.Options{})
	require.NoError(t, err)

	table, report := lalr.Build(g, nil)
	_ = report

	blob := Write(g, d, table)

	g2, d2, table2, err := Read(blob)
	require.NoError(t, err)

	assert.Equal(t, g.Start, g2.Start)
	assert.Equal(t, g.Unparsable, g2.Unparsable)
	require.Len(t, g2.Tokens, len(g.Tokens))
	for i := range g.Tokens {
		assert.Equal(t, g.Tokens[i].Name, g2.Tokens[i].Name)
		assert.Equal(t, g.Tokens[i].Kind, g2.Tokens[i].Kind)
		assert.Equal(t, g.Tokens[i].SpecialName, g2.Tokens[i].SpecialName)
	}
	require.Len(t, g2.Groups, len(g.Groups))
	assert.Equal(t, g.Groups[0].Nesting, g2.Groups[0].Nesting)
	require.Len(t, g2.Productions, len(g.Productions))
	for i := range g.Productions {
		assert.Equal(t, g.Productions[i].Members, g2.Productions[i].Members)
	}
	assert.Equal(t, g.SpecialNames, g2.SpecialNames)

	assert.Equal(t, d.PrioritizeFixedLengthSymbols, d2.PrioritizeFixedLengthSymbols)
	require.Len(t, d2.States, len(d.States))
	for i := range d.States {
		assert.Equal(t, d.States[i].Edges, d2.States[i].Edges)
		assert.Equal(t, d.States[i].Accept, d2.States[i].Accept)
	}

	require.Len(t, table2.States, len(table.States))
	assert.Equal(t, table.Start, table2.Start)
	for i := range table.States {
		assert.Equal(t, table.States[i].Actions, table2.States[i].Actions)
		assert.Equal(t, table.States[i].Gotos, table2.States[i].Gotos)
	}
}

func TestWrite_IsDeterministic(t *testing.T) {
	g := buildTinyGrammar(t)
	d, err := dfa.Build(g, tokenDefsOf(g), dfa.Options{})
	require.NoError(t, err)
	table, _ := lalr.Build(g, nil)

	b1 := Write(g, d, table)
	b2 := Write(g, d, table)
	assert.Equal(t, b1, b2)
}

// tokenDefsOf reconstructs a defs map from a built Grammar's own token
// metadata, since the test grammars above are built directly rather than
// through a retained Builder. Synthesizes each token's regex back from its
// name where the test itself controls the mapping.
func tokenDefsOf(g *grammar.Grammar) map[grammar.Handle]grammar.TokenDef {
	defs := map[grammar.Handle]grammar.TokenDef{}
	for _, tok := range g.Tokens {
		var n regex.Node
		switch tok.Name {
		case "num":
			n = regex.Plus(regex.Literal('0', '9'))
		case "+":
			n = regex.Char('+')
		case "/*":
			n = regex.StringLiteral{S: "/*"}
		case "*/":
			n = regex.StringLiteral{S: "*/"}
		default:
			n = regex.Char(rune(tok.Name[0]))
		}
		defs[tok.Handle] = grammar.TokenDef{Name: tok.Name, Regex: n}
	}
	return defs
}
