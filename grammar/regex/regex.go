// Package regex is the regular-expression algebraic data type the DFA
// builder consumes. It intentionally does not use Go's regexp package: that
// package compiles straight to an opaque matcher, and the DFA builder (see
// grammar/dfa) needs the tree shape itself to run the follow-pos
// construction and to assign per-state accept priorities. It is grounded on
// the shape tunaq's own ictiobus/lex/regex.go gestures at (its comment
// admits the DFA-based version was never finished — this package is that
// unfinished half, built out).
package regex

import (
	"fmt"
	"math"
	"sort"
)

// Infinite is the Repeat.Max sentinel meaning "no upper bound" (the `n = ∞`
// case of a counted loop, i.e. Kleene star/plus).
const Infinite = math.MaxInt32

// Node is any node in a regex's algebraic data type. Case sensitivity is
// not a node kind of its own; it is resolved into concrete ranges during
// Lower (spec.md §4.1 step 1 — "do not mutate source regexes").
type Node interface {
	isNode()
}

// Range is an inclusive rune interval.
type Range struct {
	Lo, Hi rune
}

// Chars is a literal character set: the union of Ranges, optionally
// inverted (matches everything NOT in the union of Ranges).
type Chars struct {
	Ranges []Range
	Invert bool
}

// Concat is ordered concatenation of sub-expressions.
type Concat struct {
	Items []Node
}

// Alt is alternation between sub-expressions.
type Alt struct {
	Items []Node
}

// Repeat is a counted loop {m,n}; n == Infinite means unbounded (star/plus
// depending on m).
type Repeat struct {
	Item     Node
	Min, Max int
}

// Any matches any single character, line terminators included: the DFA
// builder turns it into an inverted set with no ranges.
type Any struct{}

// StringLiteral is sugar for a Concat of single-character Chars; Lower
// expands it so the DFA builder only ever sees Chars/Concat/Alt/Repeat/Any.
type StringLiteral struct {
	S             string
	CaseSensitive bool
}

// Lazy is a placeholder that has not yet been parsed into a concrete Node.
// It exists so grammar definitions can embed a regex as a source string
// (the common case for a hand-written grammar) without forcing parsing to
// happen before the rest of the definition is assembled; Lower parses it the
// first time it is encountered during a build.
type Lazy struct {
	Pattern       string
	CaseSensitive bool
}

func (Chars) isNode()         {}
func (Concat) isNode()        {}
func (Alt) isNode()           {}
func (Repeat) isNode()        {}
func (Any) isNode()           {}
func (StringLiteral) isNode() {}
func (Lazy) isNode()          {}

// Literal is convenience sugar for a Chars node matching exactly one
// explicit range.
func Literal(lo, hi rune) Chars {
	return Chars{Ranges: []Range{{Lo: lo, Hi: hi}}}
}

// Char is convenience sugar for a Chars node matching exactly one rune.
func Char(r rune) Chars {
	return Literal(r, r)
}

// Star is sugar for Repeat{Min: 0, Max: Infinite}.
func Star(n Node) Repeat { return Repeat{Item: n, Min: 0, Max: Infinite} }

// Plus is sugar for Repeat{Min: 1, Max: Infinite}.
func Plus(n Node) Repeat { return Repeat{Item: n, Min: 1, Max: Infinite} }

// Opt is sugar for Repeat{Min: 0, Max: 1}.
func Opt(n Node) Repeat { return Repeat{Item: n, Min: 0, Max: 1} }

// HasUnboundedRepetition reports whether n contains a star/plus-style
// repetition anywhere in its tree. The DFA builder uses this to classify a
// token symbol's priority class (spec.md §4.1: LiteralPriority for regexes
// with no unbounded repetition, TerminalPriority otherwise).
func HasUnboundedRepetition(n Node) bool {
	switch t := n.(type) {
	case Chars, Any, StringLiteral:
		return false
	case Concat:
		for _, it := range t.Items {
			if HasUnboundedRepetition(it) {
				return true
			}
		}
		return false
	case Alt:
		for _, it := range t.Items {
			if HasUnboundedRepetition(it) {
				return true
			}
		}
		return false
	case Repeat:
		if t.Max == Infinite {
			return true
		}
		return HasUnboundedRepetition(t.Item)
	case Lazy:
		panic("HasUnboundedRepetition called on un-lowered Lazy node")
	default:
		panic(fmt.Sprintf("unhandled regex node type %T", n))
	}
}

// canonicalize sorts and coalesces overlapping/adjacent ranges so downstream
// interval-sweep code (the DFA builder's subset construction) never needs to
// special-case overlaps itself.
func canonicalize(ranges []Range) []Range {
	if len(ranges) == 0 {
		return nil
	}
	sorted := make([]Range, len(ranges))
	copy(sorted, ranges)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Lo != sorted[j].Lo {
			return sorted[i].Lo < sorted[j].Lo
		}
		return sorted[i].Hi < sorted[j].Hi
	})

	out := make([]Range, 0, len(sorted))
	cur := sorted[0]
	for _, r := range sorted[1:] {
		if r.Lo <= cur.Hi+1 {
			if r.Hi > cur.Hi {
				cur.Hi = r.Hi
			}
			continue
		}
		out = append(out, cur)
		cur = r
	}
	out = append(out, cur)
	return out
}

// foldCase returns ranges with each range's ASCII letters expanded to
// include both cases. Unicode case folding is explicitly out of scope
// (spec.md Non-goals: "No Unicode-category regex classes"); this only folds
// the ASCII A-Z/a-z range, which is all a char-only, non-Unicode-aware
// tokenizer needs.
func foldCase(ranges []Range) []Range {
	out := make([]Range, 0, len(ranges)*2)
	for _, r := range ranges {
		out = append(out, r)
		lo, hi := r.Lo, r.Hi
		// intersect with A-Z, add corresponding a-z, and vice versa.
		if iLo, iHi, ok := intersect(lo, hi, 'A', 'Z'); ok {
			out = append(out, Range{Lo: iLo + ('a' - 'A'), Hi: iHi + ('a' - 'A')})
		}
		if iLo, iHi, ok := intersect(lo, hi, 'a', 'z'); ok {
			out = append(out, Range{Lo: iLo - ('a' - 'A'), Hi: iHi - ('a' - 'A')})
		}
	}
	return canonicalize(out)
}

func intersect(lo1, hi1, lo2, hi2 rune) (rune, rune, bool) {
	lo := lo1
	if lo2 > lo {
		lo = lo2
	}
	hi := hi1
	if hi2 < hi {
		hi = hi2
	}
	if lo > hi {
		return 0, 0, false
	}
	return lo, hi, true
}

// IsVoid reports whether a Chars node matches nothing at all: an inverted
// set covering the entire representable range (spec.md §4.1 step 1:
// "reduce `[^…]` containing the full range to void").
func (c Chars) IsVoid(alphabetLo, alphabetHi rune) bool {
	if !c.Invert {
		return len(c.Ranges) == 0
	}
	covered := canonicalize(c.Ranges)
	cur := alphabetLo
	for _, r := range covered {
		if r.Lo > cur {
			return false
		}
		if r.Hi+1 > cur {
			cur = r.Hi + 1
		}
	}
	return cur > alphabetHi
}

// Lower expands a tree containing StringLiteral/Lazy nodes into one built
// purely from Chars/Concat/Alt/Repeat/Any, canonicalizing every Chars node's
// ranges and applying case-insensitivity by folding ranges at the leaves
// (spec.md §4.1 step 1). It does not mutate n; it returns a new tree.
func Lower(n Node, caseSensitive bool) (Node, error) {
	switch t := n.(type) {
	case Chars:
		ranges := canonicalize(t.Ranges)
		if !caseSensitive {
			ranges = foldCase(ranges)
		}
		return Chars{Ranges: ranges, Invert: t.Invert}, nil
	case Any:
		return t, nil
	case Concat:
		items := make([]Node, len(t.Items))
		for i, it := range t.Items {
			lowered, err := Lower(it, caseSensitive)
			if err != nil {
				return nil, err
			}
			items[i] = lowered
		}
		return Concat{Items: items}, nil
	case Alt:
		items := make([]Node, len(t.Items))
		for i, it := range t.Items {
			lowered, err := Lower(it, caseSensitive)
			if err != nil {
				return nil, err
			}
			items[i] = lowered
		}
		return Alt{Items: items}, nil
	case Repeat:
		lowered, err := Lower(t.Item, caseSensitive)
		if err != nil {
			return nil, err
		}
		return Repeat{Item: lowered, Min: t.Min, Max: t.Max}, nil
	case StringLiteral:
		cs := caseSensitive
		if t.CaseSensitive {
			cs = true
		}
		items := make([]Node, len([]rune(t.S)))
		for i, r := range []rune(t.S) {
			ranges := []Range{{Lo: r, Hi: r}}
			if !cs {
				ranges = foldCase(ranges)
			}
			items[i] = Chars{Ranges: ranges}
		}
		return Concat{Items: items}, nil
	case Lazy:
		cs := caseSensitive
		if t.CaseSensitive {
			cs = true
		}
		parsed, err := Parse(t.Pattern)
		if err != nil {
			return nil, fmt.Errorf("regex syntax error in %q: %w", t.Pattern, err)
		}
		return Lower(parsed, cs)
	default:
		return nil, fmt.Errorf("unhandled regex node type %T", n)
	}
}
