package lalr

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dekarrin/farkle/grammar"
	"github.com/dekarrin/farkle/internal/collect"
)

// EndOfInput is the lookahead symbol that stands in for end-of-input in
// item lookahead sets; it is never a real token handle (real handles are
// 1-based and bounded by the grammar's token count), so it can share the
// grammar.Handle space without risk of collision.
const EndOfInput grammar.Handle = ^grammar.Handle(0)

// canonicalAutomaton is the full canonical LR(1) collection of item sets
// before LALR core-merging. It is an internal scaffold; only the merged
// result (states) is exposed outside this package.
type canonicalAutomaton struct {
	states []itemSet
	trans  []map[grammar.Member]int
	index  map[string]int
}

func fullKey(items itemSet) string {
	parts := make([]string, 0, len(items))
	for it := range items {
		parts = append(parts, fmt.Sprintf("%d.%d.%d", it.prod, it.dot, it.la))
	}
	sort.Strings(parts)
	return strings.Join(parts, "|")
}

func (a *canonicalAutomaton) addState(set itemSet) int {
	key := fullKey(set)
	if i, ok := a.index[key]; ok {
		return i
	}
	i := len(a.states)
	a.index[key] = i
	a.states = append(a.states, set)
	return i
}

// buildCanonical runs the standard canonical-LR(1) item-set construction
// (spec.md §4.2): closures over items with per-item lookahead, goto by every
// grammar symbol, repeated until no new state or transition appears.
func buildCanonical(g *grammar.Grammar, fs *firstSets) *canonicalAutomaton {
	a := &canonicalAutomaton{index: map[string]int{}}

	startSeed := newItemSet(item{prod: augmentedProduction, dot: 0, la: EndOfInput})
	start := closure(g, fs, 0, startSeed)
	a.addState(start)

	for i := 0; i < len(a.states); i++ {
		set := a.states[i]
		syms := symbolsAfterDot(g, set)
		trans := map[grammar.Member]int{}
		for _, sym := range syms {
			to := gotoSet(g, fs, 0, set, sym)
			if to == nil {
				continue
			}
			trans[sym] = a.addState(to)
		}
		a.trans = append(a.trans, trans)
	}
	return a
}

// lalrAutomaton is the canonical collection after merging every state that
// shares a core (same (production,dot) pairs, lookaheads unioned) into one
// LALR state -- spec.md §4.2's "equivalently, the efficient DeRemer–Pennello
// variant is acceptable" footnote permits this core-merge construction as
// the reference algorithm.
type lalrAutomaton struct {
	states []itemSet
	trans  []map[grammar.Member]int
	start  int
}

func mergeLALR(canon *canonicalAutomaton) *lalrAutomaton {
	groupOf := map[string]int{}
	var order []string
	for _, set := range canon.states {
		ck := coreKey(set)
		if _, ok := groupOf[ck]; !ok {
			groupOf[ck] = len(order)
			order = append(order, ck)
		}
	}

	merged := make([]itemSet, len(order))
	for i := range merged {
		merged[i] = collect.NewSet[item]()
	}
	stateMap := make([]int, len(canon.states))
	for ci, set := range canon.states {
		mi := groupOf[coreKey(set)]
		stateMap[ci] = mi
		merged[mi].AddAll(set)
	}

	mergedTrans := make([]map[grammar.Member]int, len(merged))
	for mi := range mergedTrans {
		mergedTrans[mi] = map[grammar.Member]int{}
	}
	for ci, trans := range canon.trans {
		mi := stateMap[ci]
		for sym, to := range trans {
			mergedTrans[mi][sym] = stateMap[to]
		}
	}

	return &lalrAutomaton{states: merged, trans: mergedTrans, start: stateMap[0]}
}

// build runs the full pipeline: canonical LR(1) construction followed by
// LALR core-merge.
func build(g *grammar.Grammar) *lalrAutomaton {
	fs := computeFirstSets(g)
	canon := buildCanonical(g, fs)
	return mergeLALR(canon)
}
