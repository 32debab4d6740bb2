// Package diag is the position-tracking and error-object model shared by
// the tokenizer and the LALR driver (spec.md §4.3.2, §6 "Error object
// model"). It has no teacher analogue in tunaq -- ictiobus's lexer tracks
// position ad hoc inside lex.go -- so this package is grounded directly on
// spec.md's prose rather than adapted from a specific teacher file; see
// DESIGN.md for the justification.
package diag

import "strconv"

// Position is a 1-based (line, column) pair, the unit every diagnostic and
// every TokenizerResult carries (spec.md §4.3.2, §6).
type Position struct {
	Line   int
	Column int
}

func (p Position) String() string {
	return strconv.Itoa(p.Line) + ":" + strconv.Itoa(p.Column)
}

// Tracker tracks (line, column) across successive spans of input, applying
// spec.md §4.3.2's CR/LF/CRLF rule: a lone LF or a lone CR is a newline
// boundary; a CR immediately followed by LF (even when the LF arrives in a
// later Advance call) counts as a single newline, not two. Column resets to
// 1 on every newline. The zero Tracker is at line 0, column 0; use
// NewTracker to start at line 1, column 1.
type Tracker struct {
	Line, Column int
	lastSeenCR   bool
}

// NewTracker returns a Tracker positioned at the start of input.
func NewTracker() *Tracker {
	return &Tracker{Line: 1, Column: 1}
}

// Advance moves the tracker forward by the runes in span, applying the
// CR/LF rule across the whole span (and across the boundary with whatever
// the previous Advance call ended on).
func (t *Tracker) Advance(span []rune) {
	for _, r := range span {
		switch r {
		case '\n':
			if t.lastSeenCR {
				// CRLF counted already as the newline that the CR caused;
				// this LF is just the second half of it.
				t.lastSeenCR = false
				continue
			}
			t.Line++
			t.Column = 1
		case '\r':
			t.Line++
			t.Column = 1
			t.lastSeenCR = true
		default:
			t.lastSeenCR = false
			t.Column++
		}
	}
}

// CompleteInput forgets a pending trailing CR. The CR's newline was already
// counted when Advance saw it, so this only clears the flag that would make
// a following LF part of the same newline. Call it once, when the input
// source signals it has no more characters (spec.md §4.3.2).
func (t *Tracker) CompleteInput() {
	t.lastSeenCR = false
}

// Snapshot returns the tracker's current position as an immutable value.
func (t *Tracker) Snapshot() Position {
	return Position{Line: t.Line, Column: t.Column}
}
