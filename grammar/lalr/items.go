package lalr

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dekarrin/farkle/grammar"
	"github.com/dekarrin/farkle/internal/collect"
)

// augmentedProduction is the sentinel production handle for the synthetic
// start rule S' -> Start this builder adds internally; it is never part of
// the grammar's own Productions table (real production handles start at 1).
const augmentedProduction grammar.Handle = 0

// item is one canonical LR(1) item: a production, a dot position within its
// member list, and a single lookahead terminal.
type item struct {
	prod grammar.Handle
	dot  int
	la   grammar.Handle
}

// itemSet is a canonical LR(1) state: the full set of items, each carrying
// its own lookahead. Two states sharing a core (same (prod,dot) pairs,
// lookaheads ignored) get merged into one LALR state later.
type itemSet = collect.Set[item]

func newItemSet(items ...item) itemSet {
	return collect.NewSet(items...)
}

// coreKey renders the set of (prod,dot) pairs in a canonical item set,
// ignoring lookaheads -- the key LALR's core-merge groups states by.
func coreKey(items itemSet) string {
	type pd struct {
		prod grammar.Handle
		dot  int
	}
	seen := map[pd]bool{}
	for it := range items {
		seen[pd{it.prod, it.dot}] = true
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, fmt.Sprintf("%d.%d", k.prod, k.dot))
	}
	sort.Strings(keys)
	return strings.Join(keys, "|")
}

// prodMembers returns the member list of a production, treating the
// synthetic augmented production as "Start", i.e. a single nonterminal
// member pointing at the grammar's start symbol.
func prodMembers(g *grammar.Grammar, p grammar.Handle) []grammar.Member {
	if p == augmentedProduction {
		return []grammar.Member{{Kind: grammar.MemberNonterminal, Handle: g.Start}}
	}
	return g.Production(p).Members
}

func prodHead(g *grammar.Grammar, p grammar.Handle, augmentedHead grammar.Handle) grammar.Handle {
	if p == augmentedProduction {
		return augmentedHead
	}
	return g.Production(p).Head
}

// closure computes the LR(1) closure of a seed item set: repeatedly adding,
// for every item [A -> α·Bβ, a] with B a nonterminal, one item [B -> ·γ, b]
// per production of B and per b in FIRST(βa), until no more items are
// added.
func closure(g *grammar.Grammar, fs *firstSets, augmentedHead grammar.Handle, seed itemSet) itemSet {
	result := seed.Copy()
	worklist := seed.Elements()

	for len(worklist) > 0 {
		it := worklist[0]
		worklist = worklist[1:]

		members := prodMembers(g, it.prod)
		if it.dot >= len(members) {
			continue
		}
		sym := members[it.dot]
		if sym.Kind != grammar.MemberNonterminal {
			continue
		}

		beta := members[it.dot+1:]
		lookaheads := fs.ofSequence(beta, it.la)

		for _, p := range g.Productions {
			if p.Head != sym.Handle {
				continue
			}
			for la := range lookaheads {
				cand := item{prod: p.Handle, dot: 0, la: la}
				if !result.Has(cand) {
					result.Add(cand)
					worklist = append(worklist, cand)
				}
			}
		}
	}
	_ = augmentedHead
	return result
}

// gotoSet advances every item in items whose symbol-after-dot is sym by one
// position, then closes the result.
func gotoSet(g *grammar.Grammar, fs *firstSets, augmentedHead grammar.Handle, items itemSet, sym grammar.Member) itemSet {
	seed := collect.NewSet[item]()
	for it := range items {
		members := prodMembers(g, it.prod)
		if it.dot >= len(members) {
			continue
		}
		if members[it.dot] != sym {
			continue
		}
		seed.Add(item{prod: it.prod, dot: it.dot + 1, la: it.la})
	}
	if seed.Len() == 0 {
		return nil
	}
	return closure(g, fs, augmentedHead, seed)
}

// symbolsAfterDot returns the distinct members that appear immediately after
// the dot across every item in items, the candidate transition symbols out
// of this state.
func symbolsAfterDot(g *grammar.Grammar, items itemSet) []grammar.Member {
	seen := map[grammar.Member]bool{}
	var out []grammar.Member
	for it := range items {
		members := prodMembers(g, it.prod)
		if it.dot >= len(members) {
			continue
		}
		sym := members[it.dot]
		if !seen[sym] {
			seen[sym] = true
			out = append(out, sym)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		return out[i].Handle < out[j].Handle
	})
	return out
}
