package lalr

import "github.com/dekarrin/farkle/grammar"

// Associativity is how a group of same-precedence operator tokens resolves
// a shift/reduce conflict against a production whose precedence token sits
// in the same group (spec.md §4.2).
type Associativity uint8

const (
	// LeftAssociative groups resolve shift/reduce conflicts by reducing.
	LeftAssociative Associativity = iota + 1
	// RightAssociative groups resolve shift/reduce conflicts by shifting.
	RightAssociative
	// NonAssociative groups resolve neither way: the grammar author is
	// saying this combination should never legally occur, so the conflict
	// becomes a parse-time syntax error rather than a build-time pick.
	NonAssociative
	// PrecedenceOnly groups exist purely to order productions/tokens
	// relative to each other for reduce/reduce resolution; they carry no
	// associativity of their own and leave shift/reduce conflicts
	// unresolved (spec.md §4.2: "leave unresolved (hard conflict)").
	PrecedenceOnly
)

// opGroup is one precedence level: every token listed shares Assoc and a
// precedence equal to the group's position in OperatorScope.groups (higher
// index is higher precedence, matching how operator-precedence grammars are
// usually declared lowest-binding-first).
type opGroup struct {
	assoc  Associativity
	tokens []grammar.Handle
}

// OperatorScope is the ordered list of associativity groups spec.md §4.2
// consults to resolve LALR shift/reduce and reduce/reduce conflicts. An
// empty scope resolves nothing, which is a legal (if conflict-prone)
// configuration.
type OperatorScope struct {
	groups    []opGroup
	tokenPrec map[grammar.Handle]int // token handle -> index into groups
	prodToken map[grammar.Handle]grammar.Handle
}

// NewOperatorScope returns an empty scope.
func NewOperatorScope() *OperatorScope {
	return &OperatorScope{
		tokenPrec: map[grammar.Handle]int{},
		prodToken: map[grammar.Handle]grammar.Handle{},
	}
}

// AddGroup appends a new, strictly-higher-precedence group of tokens
// sharing assoc. Groups must be added lowest-precedence-first.
func (s *OperatorScope) AddGroup(assoc Associativity, tokens ...grammar.Handle) {
	level := len(s.groups)
	s.groups = append(s.groups, opGroup{assoc: assoc, tokens: append([]grammar.Handle(nil), tokens...)})
	for _, t := range tokens {
		s.tokenPrec[t] = level
	}
}

// SetProductionToken explicitly assigns p's precedence token to tok,
// overriding the default of "the production's rightmost terminal member"
// (spec.md §4.2).
func (s *OperatorScope) SetProductionToken(p, tok grammar.Handle) {
	s.prodToken[p] = tok
}

// tokenPrecedence returns the precedence level and group of tok, if tok
// appears in any group of the scope.
func (s *OperatorScope) tokenPrecedence(tok grammar.Handle) (int, opGroup, bool) {
	level, ok := s.tokenPrec[tok]
	if !ok {
		return 0, opGroup{}, false
	}
	return level, s.groups[level], true
}

// productionToken resolves the precedence token for production p: the
// explicit token set via SetProductionToken if any, else p's rightmost
// terminal member, matching spec.md §4.2's default rule.
func (s *OperatorScope) productionToken(g *grammar.Grammar, p grammar.Handle) (grammar.Handle, bool) {
	if tok, ok := s.prodToken[p]; ok {
		return tok, true
	}
	members := g.Production(p).Members
	for i := len(members) - 1; i >= 0; i-- {
		if members[i].Kind == grammar.MemberToken {
			return members[i].Handle, true
		}
	}
	return 0, false
}

// productionPrecedence resolves production p's effective precedence level
// and group, via its precedence token.
func (s *OperatorScope) productionPrecedence(g *grammar.Grammar, p grammar.Handle) (int, opGroup, bool) {
	tok, ok := s.productionToken(g, p)
	if !ok {
		return 0, opGroup{}, false
	}
	return s.tokenPrecedence(tok)
}
