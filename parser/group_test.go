package parser

import (
	"strconv"
	"testing"

	"github.com/dekarrin/farkle/diag"
	"github.com/dekarrin/farkle/grammar"
	"github.com/dekarrin/farkle/grammar/dfa"
	"github.com/dekarrin/farkle/grammar/lalr"
	"github.com/dekarrin/farkle/grammar/regex"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// numberWithCommentSemantics reads a single number. The tokenizer collapses
// each block comment into one group token, and the driver discards it
// because the group-start symbol is Noise.
type numberWithCommentSemantics struct{ number grammar.Handle }

func (s numberWithCommentSemantics) Transform(symbol grammar.Handle, _ diag.Position, span []rune) (any, error) {
	if symbol == s.number {
		return strconv.Atoi(string(span))
	}
	return nil, nil
}

func (numberWithCommentSemantics) Fuse(_ grammar.Handle, children []any) (any, error) {
	return children[0], nil
}

func TestParser_BlockCommentIsInvisibleToGrammar(t *testing.T) {
	b := grammar.NewBuilder()
	number := b.AddTerminal(grammar.TokenDef{Name: "number", Regex: regex.Plus(regex.Literal('0', '9'))})
	space := b.AddTerminal(grammar.TokenDef{Name: "space", Regex: regex.Plus(regex.Char(' ')), Noise: true})
	start := b.AddGroupStart(grammar.TokenDef{Name: "/*", Regex: regex.StringLiteral{S: "/*"}, Noise: true})
	end := b.AddGroupEnd(grammar.TokenDef{Name: "*/", Regex: regex.StringLiteral{S: "*/"}})
	b.AddGroup("comment", start, end, false, false, false)
	_ = space

	e := b.AddNonterminal("E", "")
	b.SetStart(e)
	b.AddProduction(e, grammar.Member{Kind: grammar.MemberToken, Handle: number})

	g, err := b.Build()
	require.NoError(t, err)

	d, err := dfa.Build(g, b.TokenDefs(), dfa.Options{})
	require.NoError(t, err)

	table, report := lalr.Build(g, nil)
	require.False(t, report.HasUnresolved())

	p, err := New(g, d, table)
	require.NoError(t, err)

	val, err := p.Parse("/* x */ 42", numberWithCommentSemantics{number: number})
	require.NoError(t, err)
	assert.Equal(t, 42, val)
}
