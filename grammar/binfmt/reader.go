package binfmt

import (
	"encoding/binary"
	"fmt"

	"github.com/dekarrin/farkle/grammar"
	"github.com/dekarrin/farkle/grammar/dfa"
	"github.com/dekarrin/farkle/grammar/lalr"
)

// Read parses a grammar blob produced by Write, validating magic, version,
// and cross-table handle ranges (spec.md §4.4). The header's declared row
// sizes are read but not compared with this package's own row layout. Use
// ReadUnsafe to skip the deep validation pass for blobs already known to be
// trustworthy (spec.md §4.4's "unsafe create" variant).
func Read(data []byte) (*grammar.Grammar, *dfa.DFA, *lalr.Table, error) {
	g, d, t, err := decode(data)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := validate(g, d, t); err != nil {
		return nil, nil, nil, err
	}
	return g, d, t, nil
}

// ReadUnsafe parses a grammar blob without the deep cross-table validation
// pass Read performs. Only use it on blobs this process itself wrote or
// otherwise trusts; a malformed blob can panic or produce a Grammar that
// violates its own invariants.
func ReadUnsafe(data []byte) (*grammar.Grammar, *dfa.DFA, *lalr.Table, error) {
	return decode(data)
}

func decode(data []byte) (*grammar.Grammar, *dfa.DFA, *lalr.Table, error) {
	if len(data) < 4 || string(data[:4]) != string(Magic[:]) {
		return nil, nil, nil, ErrBadMagic
	}
	pos := 4
	version := binary.LittleEndian.Uint16(data[pos:])
	pos += 2
	if version != FormatVersion {
		return nil, nil, nil, &ErrUnsupportedVersion{Version: version}
	}

	hdr := &header{}
	hdr.TablesPresent = binary.LittleEndian.Uint64(data[pos:])
	pos += 8

	heapSizes := data[pos]
	pos++
	pos += 3 // alignment padding
	hdr.StringWidth = width4
	if heapSizes&1 != 0 {
		hdr.StringWidth = width2
	}
	hdr.BlobWidth = width4
	if heapSizes&2 != 0 {
		hdr.BlobWidth = width2
	}

	for i := 0; i < tableCount; i++ {
		if hdr.tablePresent(i) {
			hdr.RowCounts[i] = binary.LittleEndian.Uint32(data[pos:])
			pos += 4
		}
	}
	for i := 0; i < tableCount; i++ {
		if hdr.tablePresent(i) {
			hdr.RowSizes[i] = binary.LittleEndian.Uint16(data[pos:])
			pos += 2
		}
	}
	for pos%4 != 0 {
		pos++
	}

	strHeapLen := binary.LittleEndian.Uint32(data[pos:])
	pos += 4
	strHeap := data[pos : pos+int(strHeapLen)]
	pos += int(strHeapLen)

	blobHeapLen := binary.LittleEndian.Uint32(data[pos:])
	pos += 4
	blobHeap := data[pos : pos+int(blobHeapLen)]
	pos += int(blobHeapLen)

	tableBytes := [tableCount][]byte{}
	for i := 0; i < tableCount; i++ {
		if !hdr.tablePresent(i) {
			continue
		}
		n := int(hdr.RowCounts[i]) * int(hdr.RowSizes[i])
		if pos+n > len(data) {
			return nil, nil, nil, fmt.Errorf("binfmt: table %d runs past end of blob", i)
		}
		tableBytes[i] = data[pos : pos+n]
		pos += n
	}

	sw := hdr.StringWidth

	g := &grammar.Grammar{SpecialNames: map[string]grammar.Handle{}}

	if tbl := tableBytes[TableGrammarHeader]; len(tbl) > 0 {
		r := newRowReader(tbl)
		start, _ := r.u32()
		flags, _ := r.u8()
		r.u8()
		r.u8()
		r.u8()
		dfaCount, _ := r.u32()
		lalrCount, _ := r.u32()
		lalrStart, _ := r.u32()
		g.Start = grammar.Handle(start)
		g.Unparsable = flags&1 != 0
		hdr.PrioritizeFixedLengthSymbols = flags&2 != 0
		hdr.DFAStateCount = dfaCount
		hdr.LALRStateCount = lalrCount
		hdr.LALRStartState = lalrStart
	}

	rowSizeTok := rowSize(sw, 2, 0, 2)
	tokTbl := tableBytes[TableTokenSymbols]
	for off := 0; off+int(rowSizeTok) <= len(tokTbl); off += int(rowSizeTok) {
		r := newRowReader(tokTbl[off : off+int(rowSizeTok)])
		nameRef, _ := r.ref(sw)
		specRef, _ := r.ref(sw)
		kind, _ := r.u8()
		flags, _ := r.u8()
		name, err := readStringAt(strHeap, nameRef)
		if err != nil {
			return nil, nil, nil, err
		}
		special, err := readStringAt(strHeap, specRef)
		if err != nil {
			return nil, nil, nil, err
		}
		g.Tokens = append(g.Tokens, grammar.TokenSymbol{
			Handle:      grammar.Handle(len(g.Tokens) + 1),
			Name:        name,
			Kind:        grammar.SymbolKind(kind),
			Hidden:      flags&1 != 0,
			Noise:       flags&2 != 0,
			Generated:   flags&4 != 0,
			SpecialName: special,
		})
	}

	nestingTbl := tableBytes[TableGroupNestings]
	readNesting := func(first, count uint32) ([]grammar.Handle, error) {
		var out []grammar.Handle
		for i := uint32(0); i < count; i++ {
			off := int(first+i) * 4
			if off+4 > len(nestingTbl) {
				return nil, fmt.Errorf("binfmt: group nesting row %d out of range", first+i)
			}
			out = append(out, grammar.Handle(binary.LittleEndian.Uint32(nestingTbl[off:])))
		}
		return out, nil
	}

	rowSizeGrp := rowSize(sw, 1, 4, 1)
	grpTbl := tableBytes[TableGroups]
	for off := 0; off+int(rowSizeGrp) <= len(grpTbl); off += int(rowSizeGrp) {
		r := newRowReader(grpTbl[off : off+int(rowSizeGrp)])
		nameRef, _ := r.ref(sw)
		start, _ := r.u32()
		end, _ := r.u32()
		flags, _ := r.u8()
		nestFirst, _ := r.u32()
		nestCount, _ := r.u32()
		name, err := readStringAt(strHeap, nameRef)
		if err != nil {
			return nil, nil, nil, err
		}
		nesting, err := readNesting(nestFirst, nestCount)
		if err != nil {
			return nil, nil, nil, err
		}
		g.Groups = append(g.Groups, grammar.Group{
			Handle:             grammar.Handle(len(g.Groups) + 1),
			Name:               name,
			Start:              grammar.Handle(start),
			End:                grammar.Handle(end),
			AdvanceByCharacter: flags&1 != 0,
			EndsOnEndOfInput:   flags&2 != 0,
			KeepEndToken:       flags&4 != 0,
			Nesting:            nesting,
		})
	}

	rowSizeNT := rowSize(sw, 2, 2, 0)
	ntTbl := tableBytes[TableNonterminals]
	for off := 0; off+int(rowSizeNT) <= len(ntTbl); off += int(rowSizeNT) {
		r := newRowReader(ntTbl[off : off+int(rowSizeNT)])
		nameRef, _ := r.ref(sw)
		specRef, _ := r.ref(sw)
		firstProd, _ := r.u32()
		prodCount, _ := r.u32()
		name, err := readStringAt(strHeap, nameRef)
		if err != nil {
			return nil, nil, nil, err
		}
		special, err := readStringAt(strHeap, specRef)
		if err != nil {
			return nil, nil, nil, err
		}
		g.Nonterminals = append(g.Nonterminals, grammar.Nonterminal{
			Handle:          grammar.Handle(len(g.Nonterminals) + 1),
			Name:            name,
			FirstProduction: grammar.Handle(firstProd),
			ProductionCount: prodCount,
			SpecialName:     special,
		})
	}

	memberTbl := tableBytes[TableProductionMembers]
	readMembers := func(first, count uint32) ([]grammar.Member, error) {
		var out []grammar.Member
		for i := uint32(0); i < count; i++ {
			off := int(first+i) * 5
			if off+5 > len(memberTbl) {
				return nil, fmt.Errorf("binfmt: production member row %d out of range", first+i)
			}
			kind := memberTbl[off]
			h := binary.LittleEndian.Uint32(memberTbl[off+1:])
			out = append(out, grammar.Member{Kind: grammar.MemberKind(kind), Handle: grammar.Handle(h)})
		}
		return out, nil
	}

	rowSizeProd := rowSize(sw, 0, 3, 0)
	prodTbl := tableBytes[TableProductions]
	for off := 0; off+int(rowSizeProd) <= len(prodTbl); off += int(rowSizeProd) {
		r := newRowReader(prodTbl[off : off+int(rowSizeProd)])
		head, _ := r.u32()
		firstMember, _ := r.u32()
		memberCount, _ := r.u32()
		members, err := readMembers(firstMember, memberCount)
		if err != nil {
			return nil, nil, nil, err
		}
		g.Productions = append(g.Productions, grammar.Production{
			Handle:  grammar.Handle(len(g.Productions) + 1),
			Head:    grammar.Handle(head),
			Members: members,
		})
	}

	rowSizeSpecial := rowSize(sw, 1, 1, 1)
	specTbl := tableBytes[TableSpecialNames]
	for off := 0; off+int(rowSizeSpecial) <= len(specTbl); off += int(rowSizeSpecial) {
		r := newRowReader(specTbl[off : off+int(rowSizeSpecial)])
		nameRef, _ := r.ref(sw)
		target, _ := r.u32()
		r.u8()
		name, err := readStringAt(strHeap, nameRef)
		if err != nil {
			return nil, nil, nil, err
		}
		g.SpecialNames[name] = grammar.Handle(target)
	}

	// --- State machines: DFA + LALR, each state stored as a blob ---
	d := &dfa.DFA{States: make([]dfa.State, hdr.DFAStateCount), PrioritizeFixedLengthSymbols: hdr.PrioritizeFixedLengthSymbols}
	t := &lalr.Table{States: make([]lalr.State, hdr.LALRStateCount), Start: int(hdr.LALRStartState)}

	smRowSize := 1 + 4 + int(hdr.BlobWidth)
	smTbl := tableBytes[TableStateMachines]
	for off := 0; off+smRowSize <= len(smTbl); off += smRowSize {
		r := newRowReader(smTbl[off : off+smRowSize])
		kind, _ := r.u8()
		idx, _ := r.u32()
		blobRef, _ := r.ref(hdr.BlobWidth)
		blob, err := readBlobAt(blobHeap, blobRef)
		if err != nil {
			return nil, nil, nil, err
		}
		switch machineKind(kind) {
		case machineDFA:
			st, err := decodeDFAState(blob)
			if err != nil {
				return nil, nil, nil, err
			}
			if int(idx) >= len(d.States) {
				return nil, nil, nil, fmt.Errorf("binfmt: DFA state index %d out of range", idx)
			}
			d.States[idx] = st
		case machineLALR:
			st, err := decodeLALRState(blob)
			if err != nil {
				return nil, nil, nil, err
			}
			if int(idx) >= len(t.States) {
				return nil, nil, nil, fmt.Errorf("binfmt: LALR state index %d out of range", idx)
			}
			t.States[idx] = st
		default:
			return nil, nil, nil, fmt.Errorf("binfmt: unknown state-machine kind %d", kind)
		}
	}

	return g, d, t, nil
}

func decodeDFAState(blob []byte) (dfa.State, error) {
	r := newRowReader(blob)
	edgeCount, err := r.u32()
	if err != nil {
		return dfa.State{}, err
	}
	acceptCount, _ := r.u32()
	hasDefault, _ := r.u8()
	r.u8()
	r.u8()
	r.u8()
	def, _ := r.u32()

	st := dfa.State{HasDefault: hasDefault != 0, Default: int(def)}
	for i := uint32(0); i < edgeCount; i++ {
		lo, _ := r.u32()
		hi, _ := r.u32()
		to, _ := r.u32()
		st.Edges = append(st.Edges, dfa.Edge{Lo: rune(lo), Hi: rune(hi), To: int(to)})
	}
	for i := uint32(0); i < acceptCount; i++ {
		sym, _ := r.u32()
		prio, _ := r.u8()
		fixed, _ := r.u8()
		r.u8()
		r.u8()
		st.Accept = append(st.Accept, dfa.Accept{Symbol: grammar.Handle(sym), Priority: dfa.PriorityClass(prio), Fixed: fixed != 0})
	}
	return st, nil
}

func decodeLALRState(blob []byte) (lalr.State, error) {
	r := newRowReader(blob)
	actionCount, err := r.u32()
	if err != nil {
		return lalr.State{}, err
	}
	gotoCount, _ := r.u32()

	st := lalr.State{Actions: map[grammar.Handle]lalr.Action{}, Gotos: map[grammar.Handle]int{}}
	for i := uint32(0); i < actionCount; i++ {
		term, _ := r.u32()
		typ, _ := r.u8()
		r.u8()
		r.u8()
		r.u8()
		shiftState, _ := r.u32()
		prod, _ := r.u32()
		st.Actions[grammar.Handle(term)] = lalr.Action{
			Type:       lalr.ActionType(typ),
			ShiftState: int(shiftState),
			Production: grammar.Handle(prod),
		}
	}
	for i := uint32(0); i < gotoCount; i++ {
		nt, _ := r.u32()
		state, _ := r.u32()
		st.Gotos[grammar.Handle(nt)] = int(state)
	}
	return st, nil
}
