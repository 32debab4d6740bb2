// Package grammar is the designtime grammar data model: symbols,
// productions, groups, and the Grammar type that ties them together with
// the invariants spec.md §3 requires of a valid grammar. It is the Go
// analogue of tunaq's internal/ictiobus/grammar package, rebuilt around
// 1-based integer handles (spec.md's on-disk format needs fixed-width
// indices, not the teacher's string-keyed symbols) instead of strings.
package grammar

import "fmt"

// Handle is a 1-based index into one of a Grammar's tables. The zero value
// denotes nil/default, mirroring the "0 denotes nil" convention the binary
// format (package binfmt) needs for optional references such as a group's
// end token.
type Handle uint32

// Valid reports whether h is a non-nil handle.
func (h Handle) Valid() bool { return h != 0 }

// SymbolKind distinguishes the mutually exclusive roles a token symbol may
// play. A symbol has exactly one kind; Terminal, GroupStart, and GroupEnd
// can never overlap on the same symbol (spec.md §3).
type SymbolKind uint8

const (
	// SymbolTerminal is an ordinary terminal recognized by the tokenizer and
	// consumed by the parser grammar.
	SymbolTerminal SymbolKind = iota + 1
	// SymbolGroupStart opens a lexical group (comment, quoted string, ...).
	SymbolGroupStart
	// SymbolGroupEnd closes the lexical group it is paired with.
	SymbolGroupEnd
)

func (k SymbolKind) String() string {
	switch k {
	case SymbolTerminal:
		return "terminal"
	case SymbolGroupStart:
		return "group-start"
	case SymbolGroupEnd:
		return "group-end"
	default:
		return "unknown-symbol-kind"
	}
}

// TokenSymbol is a terminal recognized by the tokenizer's DFA. Exactly one
// of Kind's roles applies; Hidden and Noise are independent attributes.
// Noise also applies to a group-start symbol: the finished group token
// carries that symbol, and the parser discards it when it is Noise.
type TokenSymbol struct {
	Handle Handle
	Name   string
	Kind   SymbolKind

	// Hidden is a flag copied from TokenDef and kept through the binary
	// format. The builder, tokenizer and parser do not consult it, and
	// productions are not checked against it.
	Hidden bool

	// Noise means the parser discards tokens of this class silently rather
	// than feeding them into the LALR driver (whitespace, comments once
	// reduced to a single token, ...).
	Noise bool

	// Generated marks a symbol as generated rather than named directly by
	// the grammar author. The Builder copies it from TokenDef.Generated and
	// never sets it by itself.
	Generated bool

	// SpecialName is the stable, user-chosen lookup key for this symbol, if
	// any. A special name used twice (after NFC normalization) makes
	// Builder.Build mark the grammar Unparsable; see
	// Grammar.HasDuplicateSpecialNames.
	SpecialName string
}

// Nonterminal points to the contiguous run of productions with it as their
// head. Productions of a single nonterminal are always stored consecutively
// in Grammar.Productions so that FirstProduction/ProductionCount can address
// them without a secondary index.
type Nonterminal struct {
	Handle          Handle
	Name            string
	FirstProduction Handle
	ProductionCount uint32
	SpecialName     string
}

// Productions returns the handles of every production headed by nt, in
// declaration order.
func (nt Nonterminal) Productions() []Handle {
	if nt.ProductionCount == 0 {
		return nil
	}
	out := make([]Handle, nt.ProductionCount)
	for i := range out {
		out[i] = nt.FirstProduction + Handle(i)
	}
	return out
}

// MemberKind says whether a production member is a token (shift target) or
// a nonterminal (goto target); this is exactly the distinction the LALR
// driver needs to decide shift vs. goto when it walks a production's
// right-hand side (spec.md §3's "kind determines the parser action").
type MemberKind uint8

const (
	MemberToken MemberKind = iota + 1
	MemberNonterminal
)

// Member is one symbol in a production's right-hand side.
type Member struct {
	Kind   MemberKind
	Handle Handle
}

func (m Member) String() string {
	if m.Kind == MemberToken {
		return fmt.Sprintf("T%d", m.Handle)
	}
	return fmt.Sprintf("N%d", m.Handle)
}

// Production is an ordered list of members belonging to a single
// nonterminal head. An empty Members slice is a valid epsilon production.
type Production struct {
	Handle  Handle
	Head    Handle // nonterminal handle
	Members []Member
}
