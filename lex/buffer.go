// Package lex is the streaming tokenizer: a character buffer manager, a
// DFA-driven tokenizer with group/comment handling, and a chained,
// suspendable tokenizer composition (spec.md §4.3.1, §4.3.3). It is the Go
// analogue of tunaq's internal/ictiobus/lex package, but that package's
// lex.go is an unfinished stub (a regexp.Compile-based matcher with a
// never-terminating loop in Next) rather than a DFA driver, so this
// package is built from spec.md's prose directly; see DESIGN.md.
package lex

import "sync"

// runeArenaPool rents and returns the []rune slices CharBuffer uses as its
// backing storage, matching spec.md §5's "buffer memory comes from a pool
// (rent on open, return on completion or reset); pools are thread-safe."
var runeArenaPool = sync.Pool{
	New: func() any {
		s := make([]rune, 0, 4096)
		return &s
	},
}

// RentArena borrows a []rune slice from the shared pool.
func RentArena() *[]rune { return runeArenaPool.Get().(*[]rune) }

// ReturnArena returns a []rune slice to the shared pool for reuse. Callers
// must not touch a after calling this.
func ReturnArena(a *[]rune) {
	*a = (*a)[:0]
	runeArenaPool.Put(a)
}

// Buffer is the character buffer manager of spec.md §4.3.1: an arena-owned
// []rune with two indices, usedStart (characters still retained for the
// in-flight token) and usedEnd (characters written but not yet consumed
// past the token boundary).
type Buffer struct {
	arena    *[]rune
	usedEnd  int // index past the last written rune
	start    int // usedStart
	consumed int // cumulative total characters ever reported consumed
	final    bool
	complete bool
}

// NewBuffer rents a fresh arena and returns an empty Buffer.
func NewBuffer() *Buffer {
	return &Buffer{arena: RentArena()}
}

// NewBufferFromString returns a Buffer pre-loaded with s and already marked
// final, the shape a non-streaming parse(span) call needs.
func NewBufferFromString(s string) *Buffer {
	b := NewBuffer()
	span := b.GetSpan(len(s))
	copy(span, []rune(s))
	b.Advance(len(s))
	b.SetFinalBlock()
	return b
}

// GetSpan exposes free space past usedEnd, growing the buffer by
// max(doubling, hint) when needed. When usedStart > 0 and the tail already
// has enough room once the retained prefix is discarded, it slides instead
// of growing, per spec.md §4.3.1.
func (b *Buffer) GetSpan(hint int) []rune {
	if b.complete {
		panic("lex: GetSpan called after CompleteInput")
	}
	arena := *b.arena
	free := cap(arena) - b.usedEnd
	if free >= hint {
		return arena[b.usedEnd:cap(arena)]
	}

	// Sliding reclaims space already consumed past usedStart without a
	// reallocation; only do it when it actually helps.
	if b.start > 0 {
		n := copy(arena[:b.usedEnd-b.start], arena[b.start:b.usedEnd])
		b.usedEnd = n
		b.start = 0
		arena = arena[:cap(arena)]
		free = cap(arena) - b.usedEnd
		if free >= hint {
			*b.arena = arena
			return arena[b.usedEnd:cap(arena)]
		}
	}

	grown := make([]rune, b.usedEnd, growTo(cap(arena), b.usedEnd+hint))
	copy(grown, arena[:b.usedEnd])
	*b.arena = grown
	return grown[b.usedEnd:cap(grown)]
}

func growTo(curCap, need int) int {
	c := curCap
	if c == 0 {
		c = 4096
	}
	for c < need {
		c *= 2
	}
	return c
}

// Advance commits n newly written characters past usedEnd.
func (b *Buffer) Advance(n int) {
	if b.complete {
		panic("lex: Advance called after CompleteInput")
	}
	b.usedEnd += n
}

// Consumed returns the cumulative count of characters UpdateFromParser has
// been told are consumed so far, for callers that expose
// total_characters_consumed (spec.md §6's parser_state).
func (b *Buffer) Consumed() int { return b.consumed }

// Available returns the committed, not-yet-consumed window of characters
// the tokenizer may read. The slice is only valid until the next GetSpan
// call that grows or slides the arena.
func (b *Buffer) Available() []rune {
	return (*b.arena)[b.start:b.usedEnd]
}

// SetFinalBlock marks that no more characters will ever be written; the
// tokenizer must treat Available() as the complete remainder of input.
func (b *Buffer) SetFinalBlock() { b.final = true }

// IsFinalBlock reports whether the caller has signaled end of input.
func (b *Buffer) IsFinalBlock() bool { return b.final }

// UpdateFromParser shifts usedStart forward to reflect that totalConsumed
// characters (a cumulative count, not a delta) have now been consumed by
// the tokenizer/driver, and returns the rented arena to the pool once
// completed is true -- spec.md §4.3.1's "rejects further writes after
// complete_input" is enforced by GetSpan/Advance panicking once complete
// is set here.
func (b *Buffer) UpdateFromParser(totalConsumed int, completed bool) {
	delta := totalConsumed - b.consumed
	b.start += delta
	b.consumed = totalConsumed
	if completed {
		b.complete = true
		ReturnArena(b.arena)
		b.arena = nil
	}
}
