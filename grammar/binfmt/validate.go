package binfmt

import (
	"fmt"

	"github.com/dekarrin/farkle/grammar"
	"github.com/dekarrin/farkle/grammar/dfa"
	"github.com/dekarrin/farkle/grammar/lalr"
)

// validate runs the cross-table checks spec.md §4.4 requires of Read: the
// grammar's own structural invariants (via Grammar.Validate), plus that
// every DFA edge/default target and every LALR shift/goto target lands in
// range, and that every DFA accept / LALR reduce production references a
// symbol within its table's bounds.
func validate(g *grammar.Grammar, d *dfa.DFA, t *lalr.Table) error {
	if errs := g.Validate(); len(errs) > 0 {
		return fmt.Errorf("binfmt: loaded grammar fails validation: %v", errs[0])
	}

	for i, st := range d.States {
		for _, e := range st.Edges {
			if e.To < 0 || e.To >= len(d.States) {
				return fmt.Errorf("binfmt: DFA state %d has edge to out-of-range state %d", i, e.To)
			}
		}
		if st.HasDefault && (st.Default < 0 || st.Default >= len(d.States)) {
			return fmt.Errorf("binfmt: DFA state %d has default edge to out-of-range state %d", i, st.Default)
		}
		for _, a := range st.Accept {
			if int(a.Symbol) < 1 || int(a.Symbol) > len(g.Tokens) {
				return fmt.Errorf("binfmt: DFA state %d accepts out-of-range token symbol %d", i, a.Symbol)
			}
		}
	}

	for i, st := range t.States {
		for term, act := range st.Actions {
			if term != lalr.EndOfInput && (int(term) < 1 || int(term) > len(g.Tokens)) {
				return fmt.Errorf("binfmt: LALR state %d has action on out-of-range terminal %d", i, term)
			}
			switch act.Type {
			case lalr.ActionShift:
				if act.ShiftState < 0 || act.ShiftState >= len(t.States) {
					return fmt.Errorf("binfmt: LALR state %d shifts to out-of-range state %d", i, act.ShiftState)
				}
			case lalr.ActionReduce:
				if int(act.Production) < 1 || int(act.Production) > len(g.Productions) {
					return fmt.Errorf("binfmt: LALR state %d reduces out-of-range production %d", i, act.Production)
				}
				if int(g.Production(act.Production).Head) < 1 || int(g.Production(act.Production).Head) > len(g.Nonterminals) {
					return fmt.Errorf("binfmt: LALR state %d reduce production %d has out-of-range head", i, act.Production)
				}
			}
		}
		for _, to := range st.Gotos {
			if to < 0 || to >= len(t.States) {
				return fmt.Errorf("binfmt: LALR state %d has goto to out-of-range state %d", i, to)
			}
		}
	}

	if t.Start < 0 || t.Start >= len(t.States) {
		return fmt.Errorf("binfmt: LALR start state %d out of range", t.Start)
	}

	return nil
}
