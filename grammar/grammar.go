package grammar

import (
	"fmt"

	"golang.org/x/text/unicode/norm"
)

// Grammar is the frozen, validated designtime grammar: every symbol,
// production, and group it contains has already been assigned its final
// handle, and no further definitions can be added. It is the input to both
// the DFA builder (grammar/dfa) and the LALR builder (grammar/lalr), and
// the thing the binary writer (grammar/binfmt) serializes.
//
// Grammar's zero value is not useful; obtain one from (*Builder).Build.
type Grammar struct {
	Tokens        []TokenSymbol
	Nonterminals  []Nonterminal
	Productions   []Production
	Groups        []Group
	Start         Handle // nonterminal handle
	SpecialNames  map[string]Handle
	// Unparsable is sticky: once a build step (duplicate special names here,
	// or DFA/LALR conflicts in their respective builders) determines the
	// grammar cannot be parsed correctly, this is set and never cleared,
	// including across a binary round-trip (spec.md §3).
	Unparsable bool
}

// Token looks up a token symbol by handle. Panics on an out-of-range or nil
// handle; callers are expected to only ever pass handles obtained from this
// same Grammar.
func (g *Grammar) Token(h Handle) TokenSymbol {
	return g.Tokens[h-1]
}

// Nonterminal looks up a nonterminal by handle.
func (g *Grammar) Nonterminal(h Handle) Nonterminal {
	return g.Nonterminals[h-1]
}

// Production looks up a production by handle.
func (g *Grammar) Production(h Handle) Production {
	return g.Productions[h-1]
}

// Group looks up a group by handle.
func (g *Grammar) Group(h Handle) Group {
	return g.Groups[h-1]
}

// Terminals returns the handles of every terminal-kind token symbol, which
// by invariant occupy a contiguous prefix of the Tokens table.
func (g *Grammar) Terminals() []Handle {
	var out []Handle
	for _, t := range g.Tokens {
		if t.Kind != SymbolTerminal {
			break
		}
		out = append(out, t.Handle)
	}
	return out
}

// Validate checks every invariant spec.md §3 lays out and returns a
// (possibly empty) list of problems. It does not mutate g; callers that want
// the Unparsable bit updated should use (*Builder).Build, which calls this
// and folds the result in.
func (g *Grammar) Validate() []error {
	var errs []error

	if len(g.Tokens) == 0 {
		errs = append(errs, fmt.Errorf("grammar has no token symbols"))
	}

	sawNonTerminalKind := false
	for i, t := range g.Tokens {
		if int(t.Handle) != i+1 {
			errs = append(errs, fmt.Errorf("token symbol %q has handle %d, expected %d", t.Name, t.Handle, i+1))
		}
		if t.Kind == SymbolTerminal {
			if sawNonTerminalKind {
				errs = append(errs, fmt.Errorf("terminal %q does not occupy the contiguous terminal prefix of the token table", t.Name))
			}
		} else {
			sawNonTerminalKind = true
		}
	}

	for i, nt := range g.Nonterminals {
		if int(nt.Handle) != i+1 {
			errs = append(errs, fmt.Errorf("nonterminal %q has handle %d, expected %d", nt.Name, nt.Handle, i+1))
		}
		for _, ph := range nt.Productions() {
			if int(ph) < 1 || int(ph) > len(g.Productions) {
				errs = append(errs, fmt.Errorf("nonterminal %q references out-of-range production handle %d", nt.Name, ph))
				continue
			}
			if g.Productions[ph-1].Head != nt.Handle {
				errs = append(errs, fmt.Errorf("production %d claimed by nonterminal %q does not point back to it", ph, nt.Name))
			}
		}
	}

	for i, p := range g.Productions {
		if int(p.Handle) != i+1 {
			errs = append(errs, fmt.Errorf("production %d has handle %d, expected %d", i+1, p.Handle, i+1))
		}
		if int(p.Head) < 1 || int(p.Head) > len(g.Nonterminals) {
			errs = append(errs, fmt.Errorf("production %d has out-of-range head nonterminal %d", p.Handle, p.Head))
		}
		for _, m := range p.Members {
			switch m.Kind {
			case MemberToken:
				if int(m.Handle) < 1 || int(m.Handle) > len(g.Tokens) {
					errs = append(errs, fmt.Errorf("production %d references out-of-range token handle %d", p.Handle, m.Handle))
				}
			case MemberNonterminal:
				if int(m.Handle) < 1 || int(m.Handle) > len(g.Nonterminals) {
					errs = append(errs, fmt.Errorf("production %d references out-of-range nonterminal handle %d", p.Handle, m.Handle))
				}
			default:
				errs = append(errs, fmt.Errorf("production %d has member with unknown kind %d", p.Handle, m.Kind))
			}
		}
	}

	groupStartOwners := map[Handle]int{}
	for i, grp := range g.Groups {
		if int(grp.Handle) != i+1 {
			errs = append(errs, fmt.Errorf("group %q has handle %d, expected %d", grp.Name, grp.Handle, i+1))
		}
		if int(grp.Start) < 1 || int(grp.Start) > len(g.Tokens) {
			errs = append(errs, fmt.Errorf("group %q has out-of-range start token %d", grp.Name, grp.Start))
		} else if g.Tokens[grp.Start-1].Kind != SymbolGroupStart {
			errs = append(errs, fmt.Errorf("group %q's start token %d is not kind group-start", grp.Name, grp.Start))
		}
		groupStartOwners[grp.Start]++
		if grp.End.Valid() {
			if int(grp.End) < 1 || int(grp.End) > len(g.Tokens) {
				errs = append(errs, fmt.Errorf("group %q has out-of-range end token %d", grp.Name, grp.End))
			} else if g.Tokens[grp.End-1].Kind != SymbolGroupEnd {
				errs = append(errs, fmt.Errorf("group %q's end token %d is not kind group-end", grp.Name, grp.End))
			}
		}
	}
	for _, t := range g.Tokens {
		if t.Kind == SymbolGroupStart && groupStartOwners[t.Handle] != 1 {
			errs = append(errs, fmt.Errorf("group-start token %q must be referenced by exactly one group, found %d", t.Name, groupStartOwners[t.Handle]))
		}
	}

	if int(g.Start) < 1 || int(g.Start) > len(g.Nonterminals) {
		errs = append(errs, fmt.Errorf("grammar start symbol %d is out of range", g.Start))
	}

	return errs
}

// HasDuplicateSpecialNames reports whether two *different* special-name
// entries normalize (NFC) to the same canonical string -- the condition
// spec.md §3 calls out by itself as sufficient to mark a grammar
// Unparsable, independent of any other Validate finding.
func (g *Grammar) HasDuplicateSpecialNames() bool {
	seen := map[string]bool{}
	for name := range g.SpecialNames {
		canon := norm.NFC.String(name)
		if seen[canon] {
			return true
		}
		seen[canon] = true
	}
	return false
}
