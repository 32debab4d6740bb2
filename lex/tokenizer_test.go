package lex

import (
	"testing"

	"github.com/dekarrin/farkle/diag"
	"github.com/dekarrin/farkle/grammar"
	"github.com/dekarrin/farkle/grammar/dfa"
	"github.com/dekarrin/farkle/grammar/regex"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// echoTransformer returns the matched span as a string, for tests that
// only care about symbol/position/text.
type echoTransformer struct{}

func (echoTransformer) Transform(_ grammar.Handle, _ diag.Position, span []rune) (any, error) {
	return string(span), nil
}

func buildWordsAndSpacesGrammar(t *testing.T) (*grammar.Grammar, *dfa.DFA, grammar.Handle, grammar.Handle) {
	t.Helper()
	b := grammar.NewBuilder()
	word := b.AddTerminal(grammar.TokenDef{Name: "word", Regex: regex.Plus(regex.Literal('a', 'z'))})
	space := b.AddTerminal(grammar.TokenDef{Name: "space", Regex: regex.Plus(regex.Char(' ')), Noise: true})
	nt := b.AddNonterminal("S", "")
	b.SetStart(nt)
	b.AddProduction(nt, grammar.Member{Kind: grammar.MemberToken, Handle: word})

	g, err := b.Build()
	require.NoError(t, err)

	d, err := dfa.Build(g, b.TokenDefs(), dfa.Options{})
	require.NoError(t, err)
	return g, d, word, space
}

func TestTokenizer_SoloSkipsNoise(t *testing.T) {
	assert := assert.New(t)
	g, d, word, _ := buildWordsAndSpacesGrammar(t)

	tk := New(g, d)
	tk.Solo = true

	buf := NewBufferFromString("  hi")
	var result TokenizerResult
	ok := tk.TryGetNextToken(buf, echoTransformer{}, &result)
	require.True(t, ok)
	assert.Equal(word, result.Symbol)
	assert.Equal("hi", result.Value)
}

func TestTokenizer_ChainSurfacesNoiseToken(t *testing.T) {
	assert := assert.New(t)
	g, d, _, space := buildWordsAndSpacesGrammar(t)

	tk := New(g, d)
	tk.Solo = false

	buf := NewBufferFromString("  hi")
	var result TokenizerResult
	ok := tk.TryGetNextToken(buf, echoTransformer{}, &result)
	require.True(t, ok)
	assert.Equal(space, result.Symbol)
	assert.Equal("  ", result.Value)
}

func TestTokenizer_LexicalErrorOnNoMatch(t *testing.T) {
	g, d, _, _ := buildWordsAndSpacesGrammar(t)
	tk := New(g, d)

	buf := NewBufferFromString("$bad")
	var result TokenizerResult
	ok := tk.TryGetNextToken(buf, echoTransformer{}, &result)
	require.True(t, ok)
	require.NotNil(t, result.Err)
	assert.Equal(t, diag.Lexical, result.Err.Kind)
}

func TestTokenizer_EndOfInputSignaled(t *testing.T) {
	g, d, _, _ := buildWordsAndSpacesGrammar(t)
	tk := New(g, d)

	buf := NewBufferFromString("")
	var result TokenizerResult
	ok := tk.TryGetNextToken(buf, echoTransformer{}, &result)
	require.True(t, ok)
	assert.True(t, result.EndOfInput)
}

func TestTokenizer_IncompleteBlockRequestsMoreInput(t *testing.T) {
	g, d, _, _ := buildWordsAndSpacesGrammar(t)
	tk := New(g, d)

	buf := NewBuffer()
	span := buf.GetSpan(4)
	copy(span, []rune("hi"))
	buf.Advance(2)
	// not marked final: "hi" alone is ambiguous, more letters could follow

	var result TokenizerResult
	ok := tk.TryGetNextToken(buf, echoTransformer{}, &result)
	assert.False(t, ok)
}

func buildBlockCommentGrammar(t *testing.T) (*grammar.Grammar, *dfa.DFA) {
	t.Helper()
	b := grammar.NewBuilder()
	num := b.AddTerminal(grammar.TokenDef{Name: "num", Regex: regex.Plus(regex.Literal('0', '9'))})
	space := b.AddTerminal(grammar.TokenDef{Name: "space", Regex: regex.Plus(regex.Char(' ')), Noise: true})
	start := b.AddGroupStart(grammar.TokenDef{Name: "/*", Regex: regex.StringLiteral{S: "/*"}})
	end := b.AddGroupEnd(grammar.TokenDef{Name: "*/", Regex: regex.StringLiteral{S: "*/"}})
	b.AddGroup("comment", start, end, false, false, false)

	nt := b.AddNonterminal("S", "")
	b.SetStart(nt)
	b.AddProduction(nt, grammar.Member{Kind: grammar.MemberToken, Handle: num})
	_ = space

	g, err := b.Build()
	require.NoError(t, err)
	d, err := dfa.Build(g, b.TokenDefs(), dfa.Options{})
	require.NoError(t, err)
	return g, d
}

func TestTokenizer_BlockCommentCollapsesToOneToken(t *testing.T) {
	assert := assert.New(t)
	g, d := buildBlockCommentGrammar(t)
	tk := New(g, d)
	tk.Solo = true

	buf := NewBufferFromString("/* x */42")

	var comment TokenizerResult
	ok := tk.TryGetNextToken(buf, echoTransformer{}, &comment)
	assert.True(ok)
	assert.Equal("/* x */", comment.Value)

	var num TokenizerResult
	ok = tk.TryGetNextToken(buf, echoTransformer{}, &num)
	assert.True(ok)
	assert.Equal("42", num.Value)
}

func TestBuffer_FullConsumptionLeavesNothingAvailable(t *testing.T) {
	assert := assert.New(t)
	buf := NewBuffer()
	span := buf.GetSpan(8)
	copy(span, []rune("abcdefgh"))
	buf.Advance(8)
	buf.UpdateFromParser(8, false)
	assert.Empty(buf.Available())
}
