package lex

import (
	"github.com/dekarrin/farkle/diag"
	"github.com/dekarrin/farkle/grammar"
	"github.com/dekarrin/farkle/grammar/dfa"
)

// Transformer is the terminal half of the semantic provider contract
// (spec.md §4.3.5): given the matched symbol, its start position, and the
// exact characters matched, produce the semantic value the LALR driver
// will carry on its stack. Implementations may return a
// *ParserApplicationError to signal a user-detected problem with the
// match; the tokenizer converts that into an error TokenizerResult.
type Transformer interface {
	Transform(symbol grammar.Handle, pos diag.Position, span []rune) (any, error)
}

// TokenizerResult is what TryGetNextToken writes on a true return: either a
// recognized symbol with its semantic value and start position, an
// end-of-input signal, or an error (spec.md §4.3.3).
type TokenizerResult struct {
	Symbol     grammar.Handle
	Value      any
	Start      diag.Position
	Length     int // characters consumed producing this result
	EndOfInput bool
	Err        *diag.Error
}

// Tokenizer drives one grammar's DFA against a Buffer, handling groups
// (comments, escaped strings) as spec.md §4.3.3 describes. Construct with
// New; it is not safe for concurrent use by multiple goroutines at once
// (a single parsing operation owns exactly one Tokenizer), matching
// spec.md §5's single-threaded-per-operation model.
type Tokenizer struct {
	g   *grammar.Grammar
	dfa *dfa.DFA
	pos *diag.Tracker

	// Solo marks this as the only tokenizer in its chain: insignificant
	// (Noise) matches are skipped internally rather than surfaced for a
	// chain to round-robin over (spec.md §4.3.3 step 1).
	Solo bool

	groups []groupFrame
	// groupOffset counts characters of the current Available() window
	// consumed by group scanning so far, measured from the outermost
	// frame's start. Buffer.usedStart stays pinned there the whole time
	// groups is non-empty, so this is the only bookkeeping group scanning
	// needs; see group.go.
	groupOffset int
}

type groupFrame struct {
	group grammar.Group
	start diag.Position
}

// New returns a Tokenizer for g's built DFA, positioned at the start of
// input.
func New(g *grammar.Grammar, d *dfa.DFA) *Tokenizer {
	return &Tokenizer{g: g, dfa: d, pos: diag.NewTracker()}
}

// Position returns the tokenizer's current line/column.
func (tk *Tokenizer) Position() diag.Position { return tk.pos.Snapshot() }

// TryGetNextToken implements spec.md §4.3.3's contract. It returns false
// iff more input is needed and buf is not yet at its final block; it
// always returns true once buf.IsFinalBlock() is true, populating result
// with a token, end-of-input, or an error.
func (tk *Tokenizer) TryGetNextToken(buf *Buffer, xform Transformer, result *TokenizerResult) bool {
	for {
		if len(tk.groups) > 0 {
			done := tk.stepGroup(buf, xform, result)
			if !done {
				return false
			}
			return true
		}

		avail := buf.Available()
		if len(avail) == 0 {
			if !buf.IsFinalBlock() {
				return false
			}
			*result = TokenizerResult{Start: tk.pos.Snapshot(), EndOfInput: true}
			return true
		}

		matchLen, symbol, matched := tk.runDFA(avail, buf.IsFinalBlock())
		if matchLen < 0 {
			// Ran off the end of available characters without resolving a
			// mismatch or an accept; more input could change the outcome.
			return false
		}

		if !matched {
			start := tk.pos.Snapshot()
			offending := avail[0]
			tk.pos.Advance(avail[:1])
			buf.UpdateFromParser(buf.consumed+1, false)
			*result = TokenizerResult{Start: start, Err: diag.NewLexical(start, offending)}
			return true
		}

		start := tk.pos.Snapshot()
		span := append([]rune(nil), avail[:matchLen]...)
		sym := tk.g.Token(symbol)

		if sym.Kind == grammar.SymbolGroupStart {
			grp := tk.findGroupByStart(symbol)
			tk.pos.Advance(span)
			tk.groupOffset = matchLen
			tk.groups = append(tk.groups, groupFrame{group: grp, start: start})
			continue
		}

		tk.pos.Advance(span)
		buf.UpdateFromParser(buf.consumed+matchLen, false)

		if tk.Solo && sym.Noise {
			continue
		}

		val, err := xform.Transform(symbol, start, span)
		if err != nil {
			*result = TokenizerResult{Start: start, Err: toDiagError(start, err)}
			return true
		}
		*result = TokenizerResult{Symbol: symbol, Value: val, Start: start, Length: matchLen}
		return true
	}
}

// runDFA runs the DFA from state 0 over avail, tracking the longest accept
// seen (the longest-match rule, spec.md §4.1/§4.3.3 step 2). It returns
// matchLen=-1 if the run reached the end of avail without a definitive
// mismatch and the caller is not at the final block (more input could
// extend the match); otherwise it returns the winning match length and
// symbol, or matched=false if no accept was ever seen before a mismatch.
func (tk *Tokenizer) runDFA(avail []rune, final bool) (matchLen int, symbol grammar.Handle, matched bool) {
	state := 0
	bestLen := -1
	var bestSym grammar.Handle

	for i := 0; i <= len(avail); i++ {
		st := tk.dfa.States[state]
		if st.Accepting() {
			if winner, ok, _ := st.Winner(tk.dfa.PrioritizeFixedLengthSymbols); ok {
				bestLen = i
				bestSym = winner.Symbol
			}
		}
		if i == len(avail) {
			if !final {
				return -1, 0, false
			}
			break
		}
		next, ok := stepState(st, avail[i])
		if !ok {
			break
		}
		state = next
	}

	if bestLen < 0 {
		return 0, 0, false
	}
	return bestLen, bestSym, true
}

func stepState(st dfa.State, r rune) (int, bool) {
	lo, hi := 0, len(st.Edges)-1
	for lo <= hi {
		mid := (lo + hi) / 2
		e := st.Edges[mid]
		switch {
		case r < e.Lo:
			hi = mid - 1
		case r > e.Hi:
			lo = mid + 1
		default:
			return e.To, true
		}
	}
	if st.HasDefault {
		return st.Default, true
	}
	return 0, false
}

func (tk *Tokenizer) findGroupByStart(start grammar.Handle) grammar.Group {
	for _, grp := range tk.g.Groups {
		if grp.Start == start {
			return grp
		}
	}
	panic("lex: group-start token has no owning group (should have been caught by Grammar.Validate)")
}

func toDiagError(pos diag.Position, err error) *diag.Error {
	if pae, ok := err.(*ParserApplicationError); ok {
		return diag.NewUserError(pos, pae.Value)
	}
	return diag.NewUserError(pos, err.Error())
}
