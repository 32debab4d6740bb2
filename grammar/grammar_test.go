package grammar

import (
	"testing"

	"github.com/dekarrin/farkle/grammar/regex"
	"github.com/stretchr/testify/assert"
)

func Test_Grammar_Validate_Clean(t *testing.T) {
	_, g := buildCalcGrammar(t)
	assert.Empty(t, g.Validate())
}

func Test_Grammar_Validate_GroupStartMustHaveOneOwner(t *testing.T) {
	b := NewBuilder()
	integer := b.AddTerminal(TokenDef{Name: "INT", Regex: regex.Literal('0', '9')})
	start := b.AddGroupStart(TokenDef{Name: "CSTART", Regex: regex.StringLiteral{S: "/*"}})
	end := b.AddGroupEnd(TokenDef{Name: "CEND", Regex: regex.StringLiteral{S: "*/"}})

	nt := b.AddNonterminal("S", "")
	b.AddProduction(nt, Member{Kind: MemberToken, Handle: integer})
	b.SetStart(nt)

	g := &Grammar{
		Tokens:       b.tokens,
		Nonterminals: []Nonterminal{{Handle: nt, Name: "S", FirstProduction: 1, ProductionCount: 1}},
		Productions:  []Production{{Handle: 1, Head: nt, Members: []Member{{Kind: MemberToken, Handle: integer}}}},
		Start:        nt,
		SpecialNames: map[string]Handle{},
		// no Groups at all, even though start/end tokens exist -- orphaned.
	}
	errs := g.Validate()
	assert.NotEmpty(t, errs)
	_ = end
}

func Test_Grammar_Token_Nonterminal_Production_Group_Lookup(t *testing.T) {
	_, g := buildCalcGrammar(t)
	tok := g.Token(1)
	assert.Equal(t, "PLUS", tok.Name)

	nt := g.Nonterminal(1)
	assert.Equal(t, "Expr", nt.Name)

	prod := g.Production(1)
	assert.Equal(t, Handle(1), prod.Head)
}

func Test_Grammar_Terminals(t *testing.T) {
	_, g := buildCalcGrammar(t)
	terms := g.Terminals()
	assert.Len(t, terms, 2)
}

func Test_Grammar_HasDuplicateSpecialNames_NFCEquivalence(t *testing.T) {
	nfd := "cafe\u0301" // e + combining acute accent (U+0065 U+0301)
	nfc := "caf\u00e9"    // precomposed e-acute (U+00E9)
	g := &Grammar{
		SpecialNames: map[string]Handle{
			nfd: 1,
			nfc: 2,
		},
	}
	assert.True(t, g.HasDuplicateSpecialNames())
}

func Test_Nonterminal_Productions(t *testing.T) {
	nt := Nonterminal{FirstProduction: 3, ProductionCount: 2}
	assert.Equal(t, []Handle{3, 4}, nt.Productions())
}

func Test_Member_String(t *testing.T) {
	tok := Member{Kind: MemberToken, Handle: 5}
	nt := Member{Kind: MemberNonterminal, Handle: 2}
	assert.NotEqual(t, tok.String(), nt.String())
}
