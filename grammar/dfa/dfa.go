// Package dfa builds and represents the tokenizer automaton: a DFA over
// intervals of runes, constructed from a grammar's token regexes via the
// follow-pos (Aho) method rather than Thompson-NFA subset construction, so
// that states come out already minimal-ish and each accepting state carries
// a priority-ordered set of candidate token symbols. It is the Go analogue
// of tunaq's ictiobus/lex DFA plumbing, rebuilt around interval edges and
// handle-based symbols instead of that package's rune-by-rune transition
// maps.
package dfa

import (
	"strconv"

	"github.com/dekarrin/farkle/grammar"
)

// PriorityClass orders which token symbol wins when more than one accepts in
// the same state. Lower value wins.
type PriorityClass int

const (
	// LiteralPriority is assigned to a token whose regex contains no
	// unbounded repetition -- spec.md §4.1 treats these as "more specific"
	// and prefers them over a general pattern that happens to also match.
	LiteralPriority PriorityClass = 0
	// TerminalPriority is assigned to every other token.
	TerminalPriority PriorityClass = 1
)

// Edge is one interval-labeled transition out of a state.
type Edge struct {
	Lo, Hi rune // inclusive
	To     int  // destination state index
}

// Accept is one candidate token symbol a state accepts as. A state's
// accepts are ordered by symbol handle; State.Winner picks among them.
type Accept struct {
	Symbol   grammar.Handle
	Priority PriorityClass
	Fixed    bool // regex denotes a single fixed length match (tie-break aid)
}

// State is one DFA state: a sorted, non-overlapping set of explicit
// interval edges, an optional default edge for everything the explicit
// edges don't cover, and (if non-empty) the accept set for this state.
type State struct {
	Edges      []Edge
	HasDefault bool
	Default    int // destination state index, valid only if HasDefault
	Accept     []Accept
}

// Accepting reports whether the state has any accept candidates.
func (s State) Accepting() bool { return len(s.Accept) > 0 }

// Winner returns the accept candidate this state resolves to when multiple
// symbols could match here, following spec.md §4.1 step 5's resolution
// order: lower PriorityClass wins. On a same-priority tie between a
// fixed-length symbol and a variable-length one, prioritizeFixedLengthSymbols
// decides what happens: true makes the fixed-length one win; false makes
// that tie just as irreducible as any other same-priority tie, so it is
// reported as a conflict instead of silently resolved. Any other tie (two
// same-priority, same-fixedness symbols) is always an irreducible conflict
// regardless of the flag. The second result reports whether the state has
// any candidate at all; the third is false when the chosen candidate is
// part of an irreducible tie.
func (s State) Winner(prioritizeFixedLengthSymbols bool) (Accept, bool, bool) {
	if len(s.Accept) == 0 {
		return Accept{}, false, true
	}
	best := s.Accept[0]
	for _, a := range s.Accept[1:] {
		switch {
		case a.Priority < best.Priority:
			best = a
		case prioritizeFixedLengthSymbols && a.Priority == best.Priority && a.Fixed && !best.Fixed:
			best = a
		}
	}
	conflict := false
	for _, a := range s.Accept {
		if a.Symbol == best.Symbol {
			continue
		}
		samePriority := a.Priority == best.Priority
		if !samePriority {
			continue
		}
		sameFixedness := a.Fixed == best.Fixed
		if !prioritizeFixedLengthSymbols {
			conflict = true
			continue
		}
		if sameFixedness {
			conflict = true
		}
	}
	return best, true, !conflict
}

// DFA is the built tokenizer automaton for one grammar. State 0 is always
// the start state.
type DFA struct {
	States []State

	// PrioritizeFixedLengthSymbols records the Options value Build ran
	// with, so that a Winner call made against an already-built (or
	// loaded-from-disk) DFA resolves ties the same way Build's conflict
	// check did (spec.md §4.1 step 5).
	PrioritizeFixedLengthSymbols bool
}

// ConflictError reports that two or more token symbols are indistinguishable
// in some state: same priority class and either the same fixedness or a
// fixed-length tie-break that the build options turned off, so neither
// can be preferred over the other. The DFA builder returns this instead of
// silently picking a winner, matching spec.md §4.1's "emit a diagnostic
// naming both symbols" requirement.
type ConflictError struct {
	State   int
	Symbols []grammar.Handle
}

func (e *ConflictError) Error() string {
	msg := "dfa: indistinguishable token symbols in state " + strconv.Itoa(e.State) + ":"
	for i, h := range e.Symbols {
		if i > 0 {
			msg += ","
		}
		msg += " " + strconv.Itoa(int(h))
	}
	return msg
}
