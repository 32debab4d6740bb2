package lex

import (
	"github.com/dekarrin/farkle/diag"
	"github.com/dekarrin/farkle/grammar"
)

// groupOffset tracks how many characters of the current Available() window
// belong to the group scan in progress. It lives on Tokenizer rather than
// in groupFrame because it counts from the outermost frame's start, which
// never moves while nested frames come and go; Buffer's usedStart stays
// pinned there the whole time (spec.md §4.3.1's "characters still retained
// for the current in-flight token"), so no separate span accumulator is
// needed.

// stepGroup advances through one or more characters of group scanning
// (spec.md §4.3.3 step 4) until it either needs more input (returns false)
// or has a definitive outcome -- a completed group token or an error. A
// group whose End is the zero Handle closes on the next CR or LF. It
// returns true exactly when result has been populated.
func (tk *Tokenizer) stepGroup(buf *Buffer, xform Transformer, result *TokenizerResult) bool {
	for {
		avail := buf.Available()
		if tk.groupOffset >= len(avail) {
			if !buf.IsFinalBlock() {
				return false
			}
			return tk.closeGroupsOnEOI(buf, avail, xform, result)
		}

		innermost := tk.groups[len(tk.groups)-1].group
		rest := avail[tk.groupOffset:]

		if !innermost.End.Valid() && (rest[0] == '\n' || rest[0] == '\r') {
			if tk.closeInnermost(buf, avail, 1, xform, result) {
				return true
			}
			continue
		}

		ml, sym, ok := tk.runDFA(rest, buf.IsFinalBlock())
		if ml < 0 {
			return false
		}

		if ok && innermost.End.Valid() && sym == innermost.End {
			if tk.closeInnermost(buf, avail, ml, xform, result) {
				return true
			}
			continue
		}

		if ok && !innermost.AdvanceByCharacter {
			if grp, isNested := tk.nestedGroup(innermost, sym); isNested {
				tk.consumeGroupChars(rest[:ml])
				tk.groups = append(tk.groups, groupFrame{group: grp, start: tk.pos.Snapshot()})
				continue
			}
		}

		// No special match at this position: the character is ordinary
		// group body text.
		tk.consumeGroupChars(rest[:1])
	}
}

// nestedGroup reports whether sym is the start token of a group innermost
// permits to open recursively, and returns that group.
func (tk *Tokenizer) nestedGroup(innermost grammar.Group, sym grammar.Handle) (grammar.Group, bool) {
	if !innermost.AllowsNesting(sym) {
		return grammar.Group{}, false
	}
	for _, grp := range tk.g.Groups {
		if grp.Start == sym {
			return grp, true
		}
	}
	return grammar.Group{}, false
}

func (tk *Tokenizer) consumeGroupChars(span []rune) {
	tk.pos.Advance(span)
	tk.groupOffset += len(span)
}

// closeInnermost pops the innermost frame, consuming its end token's
// characters unless KeepEndToken says to leave them in the stream for the
// next call. If that was the outermost frame, it finalizes the whole group
// into a single TokenizerResult and returns true; otherwise it returns
// false so stepGroup keeps scanning the next-outer frame.
func (tk *Tokenizer) closeInnermost(buf *Buffer, avail []rune, matchLen int, xform Transformer, result *TokenizerResult) bool {
	popped := tk.groups[len(tk.groups)-1]
	tk.groups = tk.groups[:len(tk.groups)-1]

	if !popped.group.KeepEndToken {
		tk.consumeGroupChars(avail[tk.groupOffset : tk.groupOffset+matchLen])
	}

	if len(tk.groups) > 0 {
		return false
	}

	total := tk.groupOffset
	span := append([]rune(nil), avail[:total]...)
	tk.groupOffset = 0
	buf.UpdateFromParser(buf.consumed+total, false)

	val, err := xform.Transform(popped.group.Start, popped.start, span)
	if err != nil {
		*result = TokenizerResult{Start: popped.start, Err: toDiagError(popped.start, err)}
		return true
	}
	*result = TokenizerResult{Symbol: popped.group.Start, Value: val, Start: popped.start, Length: total}
	return true
}

// closeGroupsOnEOI handles end-of-input while one or more groups are open:
// every open frame must permit EndsOnEndOfInput, innermost first, or the
// input is rejected as an unterminated group (spec.md §4.3.3 step 5). When
// every frame permits it, the accumulated span closes exactly as a normal
// group token would, just without an end token's characters.
func (tk *Tokenizer) closeGroupsOnEOI(buf *Buffer, avail []rune, xform Transformer, result *TokenizerResult) bool {
	for i := len(tk.groups) - 1; i >= 0; i-- {
		if !tk.groups[i].group.EndsOnEndOfInput {
			start := tk.groups[i].start
			tk.groups = nil
			tk.groupOffset = 0
			*result = TokenizerResult{Start: start, Err: diag.NewGroupUnterminated(start)}
			return true
		}
	}

	outer := tk.groups[0]
	total := tk.groupOffset
	span := append([]rune(nil), avail[:total]...)
	tk.groups = nil
	tk.groupOffset = 0
	buf.UpdateFromParser(buf.consumed+total, false)

	val, err := xform.Transform(outer.group.Start, outer.start, span)
	if err != nil {
		*result = TokenizerResult{Start: outer.start, Err: toDiagError(outer.start, err)}
		return true
	}
	*result = TokenizerResult{Symbol: outer.group.Start, Value: val, Start: outer.start, Length: total}
	return true
}
