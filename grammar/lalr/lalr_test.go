package lalr

import (
	"testing"

	"github.com/dekarrin/farkle/grammar"
	"github.com/dekarrin/farkle/grammar/regex"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildCalcGrammar constructs spec.md §8 scenario 1's calculator grammar:
//
//	E -> E '+' E | E '*' E | number | '(' E ')'
//
// with '+' left-associative at a lower precedence than '*', also
// left-associative.
func buildCalcGrammar(t *testing.T) (*grammar.Grammar, *OperatorScope, map[string]grammar.Handle) {
	t.Helper()
	b := grammar.NewBuilder()

	plus := b.AddTerminal(grammar.TokenDef{Name: "+", Regex: regex.Char('+')})
	star := b.AddTerminal(grammar.TokenDef{Name: "*", Regex: regex.Char('*')})
	lparen := b.AddTerminal(grammar.TokenDef{Name: "(", Regex: regex.Char('(')})
	rparen := b.AddTerminal(grammar.TokenDef{Name: ")", Regex: regex.Char(')')})
	number := b.AddTerminal(grammar.TokenDef{Name: "number", Regex: regex.Plus(regex.Literal('0', '9'))})

	e := b.AddNonterminal("E", "")
	b.SetStart(e)
	b.AddProduction(e, grammar.Member{Kind: grammar.MemberNonterminal, Handle: e}, grammar.Member{Kind: grammar.MemberToken, Handle: plus}, grammar.Member{Kind: grammar.MemberNonterminal, Handle: e})
	b.AddProduction(e, grammar.Member{Kind: grammar.MemberNonterminal, Handle: e}, grammar.Member{Kind: grammar.MemberToken, Handle: star}, grammar.Member{Kind: grammar.MemberNonterminal, Handle: e})
	b.AddProduction(e, grammar.Member{Kind: grammar.MemberToken, Handle: number})
	b.AddProduction(e, grammar.Member{Kind: grammar.MemberToken, Handle: lparen}, grammar.Member{Kind: grammar.MemberNonterminal, Handle: e}, grammar.Member{Kind: grammar.MemberToken, Handle: rparen})

	g, err := b.Build()
	require.NoError(t, err)

	scope := NewOperatorScope()
	scope.AddGroup(LeftAssociative, plus)
	scope.AddGroup(LeftAssociative, star)

	names := map[string]grammar.Handle{"+": plus, "*": star, "(": lparen, ")": rparen, "number": number, "E": e}
	return g, scope, names
}

func TestBuild_CalculatorHasNoUnresolvedConflicts(t *testing.T) {
	g, scope, _ := buildCalcGrammar(t)

	table, report := Build(g, scope)

	assert.False(t, report.HasUnresolved(), "expected every shift/reduce conflict to resolve via precedence: %+v", report.Conflicts)
	assert.NotEmpty(t, table.States)
}

func TestBuild_CalculatorStarBindsTighterThanPlus(t *testing.T) {
	// In "E + E * E", on seeing '*' after having just reduced/shifted the
	// first E + E, the table must shift (bind '*' before reducing the '+'
	// production), since '*' is higher precedence than '+'.
	g, scope, names := buildCalcGrammar(t)
	table, report := Build(g, scope)
	require.False(t, report.HasUnresolved())

	// Find a state reachable after "E + E" that has a choice on '*': it
	// must contain a shift action (reduce E -> E + E would lose the
	// precedence contest with '*').
	found := false
	for _, st := range table.States {
		act, ok := st.Actions[names["*"]]
		if !ok {
			continue
		}
		if _, hasPlusReduceAlso := st.Actions[names["+"]]; !hasPlusReduceAlso {
			continue
		}
		if act.Type == ActionShift {
			found = true
		}
	}
	assert.True(t, found, "expected at least one state to shift '*' over reducing '+'")
}

func TestBuild_NoOperatorScopeLeavesShiftReduceUnresolved(t *testing.T) {
	g, _, _ := buildCalcGrammar(t)

	_, report := Build(g, nil)

	assert.True(t, report.HasUnresolved())
	for _, c := range report.Conflicts {
		assert.Equal(t, ShiftReduceConflict, c.Kind)
	}
}

// TestBuild_EmptyProductionAccepts uses the smallest accepting grammar that
// validates: one unused token (a grammar needs at least one) and a start
// symbol that derives the empty string directly. Exercises spec.md §8's
// "Empty input: parser accepts iff the start symbol derives the empty
// string."
func TestBuild_EmptyProductionAccepts(t *testing.T) {
	b := grammar.NewBuilder()
	b.AddTerminal(grammar.TokenDef{Name: "x", Regex: regex.Char('x')})
	s := b.AddNonterminal("S", "")
	b.SetStart(s)
	b.AddProduction(s) // S -> epsilon
	g, err := b.Build()
	require.NoError(t, err)

	table, report := Build(g, nil)
	assert.False(t, report.HasUnresolved())

	start := table.States[table.Start]
	act, ok := start.Actions[EndOfInput]
	require.True(t, ok, "start state must have an action on end-of-input")
	assert.Equal(t, ActionReduce, act.Type)
}
