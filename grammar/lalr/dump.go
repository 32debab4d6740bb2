package lalr

import (
	"fmt"
	"sort"

	"github.com/dekarrin/farkle/grammar"
	"github.com/dekarrin/rosed"
)

// Dump renders t as a human-readable action/goto table, one row per state,
// the way tunaq's ictiobus/parse/lalr.go renders its own lalr1Table.String()
// -- same rosed.Edit(...).InsertTableOpts(...) pipeline, adapted to this
// package's handle-indexed tables instead of that package's string-keyed
// ones. Meant for diagnostics and conflict reports, not parsing itself.
func (t *Table) Dump(g *grammar.Grammar) string {
	terms := g.Terminals()
	sort.Slice(terms, func(i, j int) bool { return terms[i] < terms[j] })

	var nonterms []grammar.Handle
	for _, nt := range g.Nonterminals {
		nonterms = append(nonterms, nt.Handle)
	}
	sort.Slice(nonterms, func(i, j int) bool { return nonterms[i] < nonterms[j] })

	data := make([][]string, 0, len(t.States)+1)

	headers := []string{"S", "|"}
	for _, h := range terms {
		headers = append(headers, fmt.Sprintf("A:%s", g.Token(h).Name))
	}
	headers = append(headers, "A:$", "|")
	for _, h := range nonterms {
		headers = append(headers, fmt.Sprintf("G:%s", g.Nonterminal(h).Name))
	}
	data = append(data, headers)

	for si, st := range t.States {
		row := []string{fmt.Sprintf("%d", si), "|"}
		for _, h := range terms {
			row = append(row, actionCell(st, h))
		}
		row = append(row, actionCell(st, EndOfInput), "|")
		for _, h := range nonterms {
			cell := ""
			if to, ok := st.Gotos[h]; ok {
				cell = fmt.Sprintf("%d", to)
			}
			row = append(row, cell)
		}
		data = append(data, row)
	}

	return rosed.
		Edit("").
		InsertTableOpts(0, data, 10, rosed.Options{
			TableHeaders:             true,
			NoTrailingLineSeparators: true,
		}).
		String()
}

func actionCell(st State, h grammar.Handle) string {
	act, ok := st.Actions[h]
	if !ok {
		return ""
	}
	switch act.Type {
	case ActionShift:
		return fmt.Sprintf("s%d", act.ShiftState)
	case ActionReduce:
		return fmt.Sprintf("r%d", act.Production)
	case ActionAccept:
		return "acc"
	default:
		return ""
	}
}

// Dump renders r as a flat listing of every conflict it recorded, naming
// the state, lookahead terminal, kind, and whether it was auto-resolved.
func (r *ConflictReport) Dump(g *grammar.Grammar) string {
	if len(r.Conflicts) == 0 {
		return "(no conflicts)"
	}

	data := [][]string{{"state", "terminal", "kind", "productions", "resolved"}}
	for _, c := range r.Conflicts {
		prods := ""
		for i, p := range c.Productions {
			if i > 0 {
				prods += ", "
			}
			prods += fmt.Sprintf("%d", p)
		}
		term := "$"
		if c.Terminal != EndOfInput {
			term = g.Token(c.Terminal).Name
		}
		data = append(data, []string{
			fmt.Sprintf("%d", c.State),
			term,
			c.Kind.String(),
			prods,
			fmt.Sprintf("%t", c.Resolved),
		})
	}

	return rosed.
		Edit("").
		InsertTableOpts(0, data, 10, rosed.Options{
			TableHeaders:             true,
			NoTrailingLineSeparators: true,
		}).
		String()
}
