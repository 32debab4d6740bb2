package dfa

import (
	"fmt"

	"github.com/dekarrin/farkle/grammar"
	"github.com/dekarrin/rosed"
)

// Dump renders d as a human-readable state/edge/accept table, one row per
// state, following the same rosed.Edit(...).InsertTableOpts(...) pipeline
// tunaq's ictiobus/parse LR tables use for their own String() methods
// (parse/lalr.go, parse/clr1.go, parse/slr.go) -- adapted here to a DFA's
// edges instead of a parse table's actions. Meant for diagnostics, not for
// anything the tokenizer itself consults.
func (d *DFA) Dump(g *grammar.Grammar) string {
	data := make([][]string, 0, len(d.States)+1)
	data = append(data, []string{"S", "edges", "default", "accept"})

	for si, st := range d.States {
		edges := ""
		for i, e := range st.Edges {
			if i > 0 {
				edges += ", "
			}
			edges += fmt.Sprintf("[%s]->%d", intervalLabel(e.Lo, e.Hi), e.To)
		}

		def := ""
		if st.HasDefault {
			def = fmt.Sprintf("%d", st.Default)
		}

		accept := ""
		for i, a := range st.Accept {
			if i > 0 {
				accept += ", "
			}
			accept += g.Token(a.Symbol).Name
		}

		data = append(data, []string{fmt.Sprintf("%d", si), edges, def, accept})
	}

	return rosed.
		Edit("").
		InsertTableOpts(0, data, 10, rosed.Options{
			TableHeaders:             true,
			NoTrailingLineSeparators: true,
		}).
		String()
}

func intervalLabel(lo, hi rune) string {
	if lo == hi {
		return printableRune(lo)
	}
	return printableRune(lo) + "-" + printableRune(hi)
}

func printableRune(r rune) string {
	if r >= 0x20 && r < 0x7f {
		return string(r)
	}
	return fmt.Sprintf("U+%04X", r)
}
