package binfmt

import (
	"encoding/binary"
	"sort"

	"github.com/dekarrin/farkle/grammar"
	"github.com/dekarrin/farkle/grammar/dfa"
	"github.com/dekarrin/farkle/grammar/lalr"
)

// Write assembles g, its built DFA, and its built LALR table into one
// self-contained grammar blob, in the fixed layout spec.md §6 specifies:
// header, string heap, blob heap, then tables in table-index order.
func Write(g *grammar.Grammar, d *dfa.DFA, t *lalr.Table) []byte {
	strs := newStringHeapBuilder()
	blobs := newBlobHeapBuilder()

	hdr := &header{}
	hdr.StartNonterminal = uint32(g.Start)
	hdr.Unparsable = g.Unparsable
	hdr.PrioritizeFixedLengthSymbols = d.PrioritizeFixedLengthSymbols
	hdr.setTablePresent(TableGrammarHeader)

	// Intern every name up front so the heap is final before tables (which
	// reference heap offsets) are built.
	tokenNameRef := make([]uint32, len(g.Tokens))
	tokenSpecialRef := make([]uint32, len(g.Tokens))
	for i, tok := range g.Tokens {
		tokenNameRef[i] = strs.intern(tok.Name)
		tokenSpecialRef[i] = strs.intern(tok.SpecialName)
	}
	ntNameRef := make([]uint32, len(g.Nonterminals))
	ntSpecialRef := make([]uint32, len(g.Nonterminals))
	for i, nt := range g.Nonterminals {
		ntNameRef[i] = strs.intern(nt.Name)
		ntSpecialRef[i] = strs.intern(nt.SpecialName)
	}
	groupNameRef := make([]uint32, len(g.Groups))
	for i, grp := range g.Groups {
		groupNameRef[i] = strs.intern(grp.Name)
	}
	specialNames := sortedSpecialNames(g.SpecialNames)
	specialNameRef := make([]uint32, len(specialNames))
	for i, sn := range specialNames {
		specialNameRef[i] = strs.intern(sn.name)
		h := int(sn.handle)
		isToken := h >= 1 && h <= len(g.Tokens) && g.Tokens[h-1].SpecialName == sn.name
		if !isToken && h >= 1 && h <= len(g.Nonterminals) && g.Nonterminals[h-1].SpecialName == sn.name {
			specialNames[i].kind = 1
		}
	}

	// DFA/LALR states become blobs.
	dfaBlobRef := make([]uint32, len(d.States))
	for i, st := range d.States {
		dfaBlobRef[i] = blobs.append(encodeDFAState(st))
	}
	lalrBlobRef := make([]uint32, len(t.States))
	for i, st := range t.States {
		lalrBlobRef[i] = blobs.append(encodeLALRState(st))
	}

	hdr.DFAStateCount = uint32(len(d.States))
	hdr.LALRStateCount = uint32(len(t.States))
	hdr.LALRStartState = uint32(t.Start)

	hdr.StringWidth = widthFor(len(strs.bytes()))
	hdr.BlobWidth = widthFor(len(blobs.bytes()))
	sw := hdr.StringWidth

	// --- GrammarHeader row ---
	hdrRow := &rowWriter{}
	hdrRow.u32(hdr.StartNonterminal)
	flags := uint8(0)
	if hdr.Unparsable {
		flags |= 1
	}
	if hdr.PrioritizeFixedLengthSymbols {
		flags |= 2
	}
	hdrRow.u8(flags)
	hdrRow.u8(0)
	hdrRow.u8(0)
	hdrRow.u8(0)
	hdrRow.u32(hdr.DFAStateCount)
	hdrRow.u32(hdr.LALRStateCount)
	hdrRow.u32(hdr.LALRStartState)
	hdr.RowSizes[TableGrammarHeader] = uint16(len(hdrRow.buf))
	hdr.RowCounts[TableGrammarHeader] = 1

	// --- TokenSymbols ---
	var tokenTable []byte
	if len(g.Tokens) > 0 {
		hdr.setTablePresent(TableTokenSymbols)
		hdr.RowCounts[TableTokenSymbols] = uint32(len(g.Tokens))
		hdr.RowSizes[TableTokenSymbols] = rowSize(sw, 2, 0, 2)
		for i, tok := range g.Tokens {
			row := &rowWriter{}
			row.ref(sw, tokenNameRef[i])
			row.ref(sw, tokenSpecialRef[i])
			row.u8(uint8(tok.Kind))
			tflags := uint8(0)
			if tok.Hidden {
				tflags |= 1
			}
			if tok.Noise {
				tflags |= 2
			}
			if tok.Generated {
				tflags |= 4
			}
			row.u8(tflags)
			tokenTable = append(tokenTable, row.buf...)
		}
	}

	// --- Groups + GroupNestings ---
	var groupTable, nestingTable []byte
	if len(g.Groups) > 0 {
		hdr.setTablePresent(TableGroups)
		hdr.RowCounts[TableGroups] = uint32(len(g.Groups))
		hdr.RowSizes[TableGroups] = rowSize(sw, 1, 4, 1)
		for i, grp := range g.Groups {
			row := &rowWriter{}
			row.ref(sw, groupNameRef[i])
			row.u32(uint32(grp.Start))
			row.u32(uint32(grp.End))
			gflags := uint8(0)
			if grp.AdvanceByCharacter {
				gflags |= 1
			}
			if grp.EndsOnEndOfInput {
				gflags |= 2
			}
			if grp.KeepEndToken {
				gflags |= 4
			}
			row.u8(gflags)
			row.u32(uint32(len(nestingTable) / 4))
			row.u32(uint32(len(grp.Nesting)))
			groupTable = append(groupTable, row.buf...)
			for _, h := range grp.Nesting {
				nrow := &rowWriter{}
				nrow.u32(uint32(h))
				nestingTable = append(nestingTable, nrow.buf...)
			}
		}
		if len(nestingTable) > 0 {
			hdr.setTablePresent(TableGroupNestings)
			hdr.RowCounts[TableGroupNestings] = uint32(len(nestingTable) / 4)
			hdr.RowSizes[TableGroupNestings] = rowSize(sw, 0, 1, 0)
		}
	}

	// --- Nonterminals ---
	var ntTable []byte
	if len(g.Nonterminals) > 0 {
		hdr.setTablePresent(TableNonterminals)
		hdr.RowCounts[TableNonterminals] = uint32(len(g.Nonterminals))
		hdr.RowSizes[TableNonterminals] = rowSize(sw, 2, 2, 0)
		for i, nt := range g.Nonterminals {
			row := &rowWriter{}
			row.ref(sw, ntNameRef[i])
			row.ref(sw, ntSpecialRef[i])
			row.u32(uint32(nt.FirstProduction))
			row.u32(nt.ProductionCount)
			ntTable = append(ntTable, row.buf...)
		}
	}

	// --- Productions + ProductionMembers ---
	var prodTable, memberTable []byte
	if len(g.Productions) > 0 {
		hdr.setTablePresent(TableProductions)
		hdr.RowCounts[TableProductions] = uint32(len(g.Productions))
		hdr.RowSizes[TableProductions] = rowSize(sw, 0, 3, 0)
		for _, p := range g.Productions {
			row := &rowWriter{}
			row.u32(uint32(p.Head))
			row.u32(uint32(len(memberTable) / 5))
			row.u32(uint32(len(p.Members)))
			prodTable = append(prodTable, row.buf...)
			for _, m := range p.Members {
				mrow := &rowWriter{}
				mrow.u8(uint8(m.Kind))
				mrow.u32(uint32(m.Handle))
				memberTable = append(memberTable, mrow.buf...)
			}
		}
		if len(memberTable) > 0 {
			hdr.setTablePresent(TableProductionMembers)
			hdr.RowCounts[TableProductionMembers] = uint32(len(memberTable) / 5)
			hdr.RowSizes[TableProductionMembers] = rowSize(sw, 0, 1, 1)
		}
	}

	// --- StateMachines ---
	var stateMachineTable []byte
	hdr.setTablePresent(TableStateMachines)
	for i := range d.States {
		row := &rowWriter{}
		row.u8(uint8(machineDFA))
		row.u32(uint32(i))
		row.ref(hdr.BlobWidth, dfaBlobRef[i])
		stateMachineTable = append(stateMachineTable, row.buf...)
	}
	for i := range t.States {
		row := &rowWriter{}
		row.u8(uint8(machineLALR))
		row.u32(uint32(i))
		row.ref(hdr.BlobWidth, lalrBlobRef[i])
		stateMachineTable = append(stateMachineTable, row.buf...)
	}
	hdr.RowCounts[TableStateMachines] = uint32(len(d.States) + len(t.States))
	hdr.RowSizes[TableStateMachines] = uint16(1 + 4 + int(hdr.BlobWidth))

	// --- SpecialNames ---
	var specialTable []byte
	if len(specialNames) > 0 {
		hdr.setTablePresent(TableSpecialNames)
		hdr.RowCounts[TableSpecialNames] = uint32(len(specialNames))
		hdr.RowSizes[TableSpecialNames] = rowSize(sw, 1, 1, 1)
		for i, sn := range specialNames {
			row := &rowWriter{}
			row.ref(sw, specialNameRef[i])
			row.u32(uint32(sn.handle))
			row.u8(sn.kind)
			specialTable = append(specialTable, row.buf...)
		}
	}

	return assemble(hdr, strs.bytes(), blobs.bytes(), [tableCount][]byte{
		TableGrammarHeader:     hdrRow.buf,
		TableTokenSymbols:      tokenTable,
		TableGroups:            groupTable,
		TableGroupNestings:     nestingTable,
		TableNonterminals:      ntTable,
		TableProductions:       prodTable,
		TableProductionMembers: memberTable,
		TableStateMachines:     stateMachineTable,
		TableSpecialNames:      specialTable,
	})
}

type namedHandle struct {
	name   string
	handle grammar.Handle
	kind   uint8 // 0 = token, 1 = nonterminal
}

// sortedSpecialNames orders a Grammar's SpecialNames map deterministically
// (map iteration order is not stable) so Write produces byte-identical
// output across repeated calls on an equal Grammar -- required for the
// round-trip invariant (spec.md §8: "read(write(G)) == G bit-for-bit").
func sortedSpecialNames(m map[string]grammar.Handle) []namedHandle {
	out := make([]namedHandle, 0, len(m))
	for name, h := range m {
		out = append(out, namedHandle{name: name, handle: h})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

func encodeDFAState(st dfa.State) []byte {
	row := &rowWriter{}
	row.u32(uint32(len(st.Edges)))
	row.u32(uint32(len(st.Accept)))
	if st.HasDefault {
		row.u8(1)
	} else {
		row.u8(0)
	}
	row.u8(0)
	row.u8(0)
	row.u8(0)
	row.u32(uint32(st.Default))
	for _, e := range st.Edges {
		row.u32(uint32(e.Lo))
		row.u32(uint32(e.Hi))
		row.u32(uint32(e.To))
	}
	for _, a := range st.Accept {
		row.u32(uint32(a.Symbol))
		row.u8(uint8(a.Priority))
		if a.Fixed {
			row.u8(1)
		} else {
			row.u8(0)
		}
		row.u8(0)
		row.u8(0)
	}
	return row.buf
}

func encodeLALRState(st lalr.State) []byte {
	row := &rowWriter{}
	terms := make([]grammar.Handle, 0, len(st.Actions))
	for term := range st.Actions {
		terms = append(terms, term)
	}
	sort.Slice(terms, func(i, j int) bool { return terms[i] < terms[j] })
	gotos := make([]grammar.Handle, 0, len(st.Gotos))
	for nt := range st.Gotos {
		gotos = append(gotos, nt)
	}
	sort.Slice(gotos, func(i, j int) bool { return gotos[i] < gotos[j] })

	row.u32(uint32(len(terms)))
	row.u32(uint32(len(gotos)))
	for _, term := range terms {
		act := st.Actions[term]
		row.u32(uint32(term))
		row.u8(uint8(act.Type))
		row.u8(0)
		row.u8(0)
		row.u8(0)
		row.u32(uint32(act.ShiftState))
		row.u32(uint32(act.Production))
	}
	for _, nt := range gotos {
		row.u32(uint32(nt))
		row.u32(uint32(st.Gotos[nt]))
	}
	return row.buf
}

// assemble concatenates the header, heaps, and tables into one image,
// writing the file header fields (magic, version, bitmask, row
// counts/sizes, heap-size flags) ahead of everything else.
func assemble(hdr *header, strHeap, blobHeap []byte, tables [tableCount][]byte) []byte {
	var out []byte
	out = append(out, Magic[:]...)
	out = binary.LittleEndian.AppendUint16(out, FormatVersion)
	out = binary.LittleEndian.AppendUint64(out, hdr.TablesPresent)

	heapSizes := byte(0)
	if hdr.StringWidth == width2 {
		heapSizes |= 1
	}
	if hdr.BlobWidth == width2 {
		heapSizes |= 2
	}
	out = append(out, heapSizes)
	out = append(out, 0, 0, 0) // pad to 4-byte alignment

	for i := 0; i < tableCount; i++ {
		if hdr.tablePresent(i) {
			out = binary.LittleEndian.AppendUint32(out, hdr.RowCounts[i])
		}
	}
	for i := 0; i < tableCount; i++ {
		if hdr.tablePresent(i) {
			out = binary.LittleEndian.AppendUint16(out, hdr.RowSizes[i])
		}
	}
	for len(out)%4 != 0 {
		out = append(out, 0)
	}

	out = append(out, uint32ToBytes(uint32(len(strHeap)))...)
	out = append(out, strHeap...)
	out = append(out, uint32ToBytes(uint32(len(blobHeap)))...)
	out = append(out, blobHeap...)

	for i := 0; i < tableCount; i++ {
		if hdr.tablePresent(i) {
			out = append(out, tables[i]...)
		}
	}
	return out
}

func uint32ToBytes(v uint32) []byte {
	return binary.LittleEndian.AppendUint32(nil, v)
}
