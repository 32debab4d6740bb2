package lalr

import (
	"github.com/dekarrin/farkle/grammar"
	"github.com/dekarrin/farkle/internal/collect"
)

// firstSets holds the fixed-point FIRST-set and nullability computation over
// a grammar's nonterminals, used by item-set closure to compute the
// lookahead FIRST(βa) the canonical LR(1) construction needs (spec.md §4.2).
type firstSets struct {
	nullable map[grammar.Handle]bool
	first    map[grammar.Handle]collect.Set[grammar.Handle]
}

func computeFirstSets(g *grammar.Grammar) *firstSets {
	fs := &firstSets{
		nullable: map[grammar.Handle]bool{},
		first:    map[grammar.Handle]collect.Set[grammar.Handle]{},
	}
	for _, nt := range g.Nonterminals {
		fs.first[nt.Handle] = collect.NewSet[grammar.Handle]()
	}

	for changed := true; changed; {
		changed = false
		for _, p := range g.Productions {
			if len(p.Members) == 0 {
				if !fs.nullable[p.Head] {
					fs.nullable[p.Head] = true
					changed = true
				}
				continue
			}
			for _, m := range p.Members {
				before := fs.first[p.Head].Len()
				if m.Kind == grammar.MemberToken {
					fs.first[p.Head].Add(m.Handle)
				} else {
					fs.first[p.Head].AddAll(fs.first[m.Handle])
				}
				if fs.first[p.Head].Len() != before {
					changed = true
				}
				nullableMember := m.Kind == grammar.MemberNonterminal && fs.nullable[m.Handle]
				if !nullableMember {
					break
				}
			}
			allNullable := true
			for _, m := range p.Members {
				if m.Kind == grammar.MemberToken || !fs.nullable[m.Handle] {
					allNullable = false
					break
				}
			}
			if allNullable && !fs.nullable[p.Head] {
				fs.nullable[p.Head] = true
				changed = true
			}
		}
	}
	return fs
}

// ofSequence returns FIRST(members · lookahead): the set of terminals that
// can begin members, plus lookahead itself if every symbol in members is
// nullable (including the empty sequence).
func (fs *firstSets) ofSequence(members []grammar.Member, lookahead grammar.Handle) collect.Set[grammar.Handle] {
	out := collect.NewSet[grammar.Handle]()
	for _, m := range members {
		if m.Kind == grammar.MemberToken {
			out.Add(m.Handle)
			return out
		}
		out.AddAll(fs.first[m.Handle])
		if !fs.nullable[m.Handle] {
			return out
		}
	}
	out.Add(lookahead)
	return out
}
