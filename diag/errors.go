package diag

import (
	"fmt"
)

// Kind identifies which of spec.md §6/§7's run-time error messages an Error
// carries.
type Kind uint8

const (
	// Lexical is "lexical-error(char)": the tokenizer's DFA died with no
	// accepting state behind it.
	Lexical Kind = iota + 1
	// UnexpectedEOF is "unexpected-eof": input ended where a token or
	// production was still expected.
	UnexpectedEOF
	// UnexpectedToken is "unexpected-token(symbol, expected-set)": the LALR
	// driver had no action for the lookahead in the current state.
	UnexpectedToken
	// GroupUnterminated is a group (comment/string) left open at
	// end-of-input when its EndsOnEndOfInput flag does not permit that.
	GroupUnterminated
	// UserError is "user-error(object)": a semantic callback raised a
	// ParserApplicationError (see package lex).
	UserError
)

func (k Kind) String() string {
	switch k {
	case Lexical:
		return "lexical-error"
	case UnexpectedEOF:
		return "unexpected-eof"
	case UnexpectedToken:
		return "unexpected-token"
	case GroupUnterminated:
		return "group-unterminated"
	case UserError:
		return "user-error"
	default:
		return "unknown-error"
	}
}

// Error is the single run-time error object model spec.md §6 requires:
// every error, whether it originates in the tokenizer or the LALR driver,
// carries a Position and a Kind-tagged message.
type Error struct {
	Pos  Position
	Kind Kind

	// Offending is the character the DFA could not match, set only when
	// Kind == Lexical.
	Offending rune

	// Symbol is the unexpected lookahead's token handle, set only when
	// Kind == UnexpectedToken. Left as an untyped uint32-compatible value
	// (grammar.Handle) so this package does not need to import grammar.
	Symbol uint32

	// Expected is the set of token handles that would have been accepted,
	// set only when Kind == UnexpectedToken.
	Expected []uint32

	// User is the value a semantic callback's ParserApplicationError
	// carried, set only when Kind == UserError.
	User any
}

func (e *Error) Error() string {
	switch e.Kind {
	case Lexical:
		return fmt.Sprintf("%s: lexical error: unexpected character %q", e.Pos, e.Offending)
	case UnexpectedEOF:
		return fmt.Sprintf("%s: unexpected end of input", e.Pos)
	case UnexpectedToken:
		return fmt.Sprintf("%s: unexpected token %d, expected one of %v", e.Pos, e.Symbol, e.Expected)
	case GroupUnterminated:
		return fmt.Sprintf("%s: unterminated group", e.Pos)
	case UserError:
		return fmt.Sprintf("%s: %v", e.Pos, e.User)
	default:
		return fmt.Sprintf("%s: unknown error", e.Pos)
	}
}

// NewLexical builds a Lexical error at pos for the offending rune.
func NewLexical(pos Position, offending rune) *Error {
	return &Error{Pos: pos, Kind: Lexical, Offending: offending}
}

// NewUnexpectedEOF builds an UnexpectedEOF error at pos.
func NewUnexpectedEOF(pos Position) *Error {
	return &Error{Pos: pos, Kind: UnexpectedEOF}
}

// NewUnexpectedToken builds an UnexpectedToken error at pos.
func NewUnexpectedToken(pos Position, symbol uint32, expected []uint32) *Error {
	return &Error{Pos: pos, Kind: UnexpectedToken, Symbol: symbol, Expected: expected}
}

// NewGroupUnterminated builds a GroupUnterminated error at pos.
func NewGroupUnterminated(pos Position) *Error {
	return &Error{Pos: pos, Kind: GroupUnterminated}
}

// NewUserError builds a UserError wrapping a semantic callback's value.
func NewUserError(pos Position, user any) *Error {
	return &Error{Pos: pos, Kind: UserError, User: user}
}
