package dfa

import (
	"github.com/dekarrin/farkle/grammar"
	"github.com/dekarrin/farkle/grammar/regex"
	"github.com/dekarrin/farkle/internal/collect"
)

// leafPos is a 1-based position assigned to one leaf of the augmented
// regex tree (follow-pos construction numbers leaves, not nodes).
type leafPos int

// leafInfo describes what one numbered leaf actually is: either a character
// matcher (chars/any) or an end-marker tagging a token symbol's accept.
type leafInfo struct {
	isEnd bool

	// character leaf fields
	ranges []regex.Range
	invert bool

	// end leaf fields
	symbol   grammar.Handle
	priority PriorityClass
	fixed    bool
}

func (l leafInfo) matches(lo, hi rune) bool {
	if l.isEnd {
		return false
	}
	covered := rangesCover(l.ranges, lo, hi)
	if l.invert {
		return !covered
	}
	return covered
}

// rangesCover reports whether [lo,hi] is fully contained within the union
// of ranges. The subset-construction sweep only ever asks this about
// sub-intervals that lie entirely inside or entirely outside each
// individual range (since range endpoints are themselves sweep
// boundaries), so "fully contained in one range" is the only case that
// arises.
func rangesCover(ranges []regex.Range, lo, hi rune) bool {
	for _, r := range ranges {
		if lo >= r.Lo && hi <= r.Hi {
			return true
		}
	}
	return false
}

// augNode is the internal, leaf-numbered mirror of a regex.Node used only
// during DFA construction; it additionally has the end-leaf concept regex
// itself knows nothing about.
type augNode interface {
	nullable() bool
	firstpos() collect.Set[leafPos]
	lastpos() collect.Set[leafPos]
}

type augLeaf struct {
	pos leafPos
}

func (a augLeaf) nullable() bool                { return false }
func (a augLeaf) firstpos() collect.Set[leafPos] { return collect.NewSet(a.pos) }
func (a augLeaf) lastpos() collect.Set[leafPos]  { return collect.NewSet(a.pos) }

type augEpsilon struct{}

func (augEpsilon) nullable() bool                { return true }
func (augEpsilon) firstpos() collect.Set[leafPos] { return collect.NewSet[leafPos]() }
func (augEpsilon) lastpos() collect.Set[leafPos]  { return collect.NewSet[leafPos]() }

type augConcat struct {
	items []augNode
}

func (a augConcat) nullable() bool {
	for _, it := range a.items {
		if !it.nullable() {
			return false
		}
	}
	return true
}

func (a augConcat) firstpos() collect.Set[leafPos] {
	out := collect.NewSet[leafPos]()
	for _, it := range a.items {
		out.AddAll(it.firstpos())
		if !it.nullable() {
			break
		}
	}
	return out
}

func (a augConcat) lastpos() collect.Set[leafPos] {
	out := collect.NewSet[leafPos]()
	for i := len(a.items) - 1; i >= 0; i-- {
		out.AddAll(a.items[i].lastpos())
		if !a.items[i].nullable() {
			break
		}
	}
	return out
}

type augAlt struct {
	items []augNode
}

func (a augAlt) nullable() bool {
	for _, it := range a.items {
		if it.nullable() {
			return true
		}
	}
	return false
}

func (a augAlt) firstpos() collect.Set[leafPos] {
	out := collect.NewSet[leafPos]()
	for _, it := range a.items {
		out.AddAll(it.firstpos())
	}
	return out
}

func (a augAlt) lastpos() collect.Set[leafPos] {
	out := collect.NewSet[leafPos]()
	for _, it := range a.items {
		out.AddAll(it.lastpos())
	}
	return out
}

type augStar struct {
	item augNode
}

func (a augStar) nullable() bool                { return true }
func (a augStar) firstpos() collect.Set[leafPos] { return a.item.firstpos() }
func (a augStar) lastpos() collect.Set[leafPos]  { return a.item.lastpos() }

// buildContext accumulates the leaf table and followpos map as the
// augmented tree is constructed and walked.
type buildContext struct {
	leaves    []leafInfo // index 0 unused; leaf N lives at leaves[N]
	followpos map[leafPos]collect.Set[leafPos]
}

func newBuildContext() *buildContext {
	return &buildContext{leaves: []leafInfo{{}}, followpos: map[leafPos]collect.Set[leafPos]{}}
}

func (c *buildContext) newLeaf(info leafInfo) leafPos {
	pos := leafPos(len(c.leaves))
	c.leaves = append(c.leaves, info)
	c.followpos[pos] = collect.NewSet[leafPos]()
	return pos
}

func (c *buildContext) addFollow(from leafPos, to collect.Set[leafPos]) {
	c.followpos[from].AddAll(to)
}

// fromRegex converts an Expand'd regex.Node into an augNode, numbering
// leaves into ctx as it goes.
func fromRegex(ctx *buildContext, n regex.Node) augNode {
	switch t := n.(type) {
	case regex.Chars:
		return augLeaf{pos: ctx.newLeaf(leafInfo{ranges: t.Ranges, invert: t.Invert})}
	case regex.Any:
		return augLeaf{pos: ctx.newLeaf(leafInfo{invert: true})}
	case regex.Concat:
		if len(t.Items) == 0 {
			return augEpsilon{}
		}
		items := make([]augNode, len(t.Items))
		for i, it := range t.Items {
			items[i] = fromRegex(ctx, it)
		}
		out := augConcat{items: items}
		linkConcat(ctx, items)
		return out
	case regex.Alt:
		items := make([]augNode, len(t.Items))
		for i, it := range t.Items {
			items[i] = fromRegex(ctx, it)
		}
		return augAlt{items: items}
	case regex.Repeat:
		if t.Min != 0 || t.Max != regex.Infinite {
			panic("dfa: fromRegex requires an Expand'd tree (only 0..Infinite repeats remain)")
		}
		item := fromRegex(ctx, t.Item)
		linkStar(ctx, item)
		return augStar{item: item}
	default:
		panic("dfa: unhandled regex node type in fromRegex")
	}
}

// linkConcat wires followpos(lastpos(items[i])) += firstpos(items[i+1]) for
// every adjacent pair, the classical concatenation rule.
func linkConcat(ctx *buildContext, items []augNode) {
	for i := 0; i+1 < len(items); i++ {
		last := items[i].lastpos()
		first := items[i+1].firstpos()
		for p := range last {
			ctx.addFollow(p, first)
		}
	}
}

// linkStar wires the self-loop rule: followpos(lastpos(item)) += firstpos(item).
func linkStar(ctx *buildContext, item augNode) {
	last := item.lastpos()
	first := item.firstpos()
	for p := range last {
		ctx.addFollow(p, first)
	}
}
