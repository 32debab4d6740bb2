package farkle

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dekarrin/farkle/diag"
	"github.com/dekarrin/farkle/grammar"
	"github.com/dekarrin/farkle/grammar/binfmt"
	"github.com/dekarrin/farkle/grammar/regex"
)

type additionSemantics struct {
	plus, number grammar.Handle
}

func (s additionSemantics) Transform(symbol grammar.Handle, _ diag.Position, span []rune) (any, error) {
	if symbol == s.number {
		return strconv.Atoi(string(span))
	}
	return string(span), nil
}

func (s additionSemantics) Fuse(_ grammar.Handle, children []any) (any, error) {
	if len(children) == 1 {
		return children[0], nil
	}
	return children[0].(int) + children[2].(int), nil
}

func buildAdditionGrammar(t *testing.T) (*grammar.Builder, additionSemantics) {
	t.Helper()
	b := NewGrammarBuilder()

	plus := b.AddTerminal(grammar.TokenDef{Name: "+", Regex: regex.Char('+')})
	number := b.AddTerminal(grammar.TokenDef{Name: "number", Regex: regex.Plus(regex.Literal('0', '9'))})

	e := b.AddNonterminal("E", "")
	b.SetStart(e)
	b.AddProduction(e, grammar.Member{Kind: grammar.MemberNonterminal, Handle: e}, grammar.Member{Kind: grammar.MemberToken, Handle: plus}, grammar.Member{Kind: grammar.MemberNonterminal, Handle: e})
	b.AddProduction(e, grammar.Member{Kind: grammar.MemberToken, Handle: number})

	return b, additionSemantics{plus: plus, number: number}
}

func TestCompile_BuildsADrivableParser(t *testing.T) {
	b, sem := buildAdditionGrammar(t)

	opts := BuildOptions{
		OperatorPrecedence: []OperatorGroup{
			{Associativity: "left", Terminals: []string{"+"}},
		},
	}

	c, err := Compile(b, opts)
	require.NoError(t, err)
	require.False(t, c.Conflict.HasUnresolved())
	assert.False(t, c.Grammar.Unparsable)

	p, err := c.NewParser()
	require.NoError(t, err)

	val, err := p.Parse("1+2+3", sem)
	require.NoError(t, err)
	assert.Equal(t, 6, val)
}

func TestSaveLoad_RoundTripsADrivableParser(t *testing.T) {
	b, sem := buildAdditionGrammar(t)
	opts := BuildOptions{
		OperatorPrecedence: []OperatorGroup{
			{Associativity: "left", Terminals: []string{"+"}},
		},
	}

	c, err := Compile(b, opts)
	require.NoError(t, err)

	blob := c.Save()

	p, err := Load(blob)
	require.NoError(t, err)

	val, err := p.Parse("4+5", sem)
	require.NoError(t, err)
	assert.Equal(t, 9, val)
}

// TestCompile_DFAConflictMarksUnparsableButKeepsBuilding exercises spec.md
// §3/§7's "a DFA with conflicts still marks the grammar Unparsable, but the
// grammar, DFA, and table are still constructed" path: Compile must not
// discard the build just because dfa.Build reports a *dfa.ConflictError.
func TestCompile_DFAConflictMarksUnparsableButKeepsBuilding(t *testing.T) {
	b := NewGrammarBuilder()
	a := b.AddTerminal(grammar.TokenDef{Name: "A", Regex: regex.StringLiteral{S: "ab"}})
	_ = b.AddTerminal(grammar.TokenDef{Name: "B", Regex: regex.Concat{Items: []regex.Node{
		regex.Char('a'),
		regex.Repeat{Item: regex.Char('b'), Min: 0, Max: 1},
	}}})
	nt := b.AddNonterminal("S", "")
	b.AddProduction(nt, grammar.Member{Kind: grammar.MemberToken, Handle: a})
	b.SetStart(nt)

	c, err := Compile(b, BuildOptions{PrioritizeFixedLengthSymbols: false})
	require.NoError(t, err)
	require.NotNil(t, c.Grammar)
	require.NotNil(t, c.DFA)
	assert.True(t, c.Grammar.Unparsable)

	// The conflicted build still round-trips through the binary format.
	blob := c.Save()
	g2, _, _, err := binfmt.Read(blob)
	require.NoError(t, err)
	assert.True(t, g2.Unparsable)

	// An Unparsable grammar refuses to become a drivable Parser.
	_, err = c.NewParser()
	assert.Error(t, err)
}

func TestLoadBuildOptions_MissingFileIsZeroValue(t *testing.T) {
	opts, err := LoadBuildOptions("does-not-exist.toml")
	require.NoError(t, err)
	assert.Equal(t, BuildOptions{}, opts)
}

func TestNewParser_UnknownOperatorTerminalErrors(t *testing.T) {
	b, _ := buildAdditionGrammar(t)
	opts := BuildOptions{
		OperatorPrecedence: []OperatorGroup{
			{Associativity: "left", Terminals: []string{"*"}},
		},
	}

	_, err := NewParser(b, opts)
	require.Error(t, err)
}
