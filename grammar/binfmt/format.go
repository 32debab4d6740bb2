// Package binfmt reads and writes the persisted grammar binary format
// spec.md §6 defines: a header, a deduplicated string heap, a
// length-prefixed blob heap, and a fixed-order set of tables selected by a
// bitmask. It is the bit-level contract connecting the build pipeline
// (grammar, grammar/dfa, grammar/lalr) to the runtime parser, which never
// constructs a Grammar/DFA/Table by hand -- it loads one from bytes Write
// produced.
//
// The teacher repo (tunaq) builds its grammar fresh on every run and has no
// equivalent persistence layer, so this package has no direct teacher
// analogue; it follows spec.md §6's bit-level contract directly, using
// encoding/binary rather than a self-describing generic codec (see
// DESIGN.md for why github.com/dekarrin/rezi, used elsewhere in this
// module, is the wrong tool for a format whose row layouts are a fixed
// external contract rather than serialized Go values).
package binfmt

import "fmt"

// Magic identifies a farkle grammar blob.
var Magic = [4]byte{'F', 'R', 'K', 'L'}

// FormatVersion is the binary format version this package reads and
// writes. A reader that sees a different version refuses to load the blob.
const FormatVersion uint16 = 1

// Table indices, in the fixed on-disk order spec.md §6 requires ("Tables
// follow in a fixed order matching the bitmask"). GrammarHeader is always
// present; every other table's presence is controlled by TablesPresent.
const (
	TableGrammarHeader = iota
	TableTokenSymbols
	TableGroups
	TableGroupNestings
	TableNonterminals
	TableProductions
	TableProductionMembers
	TableStateMachines
	TableSpecialNames

	tableCount
)

// heapRefWidth is the byte width of one reference into a heap, declared by
// the header's HeapSizes flags (spec.md §6: "heap handle widths (2 or 4
// bytes) declared in the header so readers can size references").
type heapRefWidth int

const (
	width2 heapRefWidth = 2
	width4 heapRefWidth = 4
)

// widthFor picks the narrowest ref width that can address a heap of size
// heapLen bytes.
func widthFor(heapLen int) heapRefWidth {
	if heapLen < 1<<16 {
		return width2
	}
	return width4
}

// header is the decoded form of the grammar-header table's single row plus
// the file header fields around it.
type header struct {
	TablesPresent uint64
	StringWidth   heapRefWidth
	BlobWidth     heapRefWidth
	RowCounts     [tableCount]uint32
	RowSizes      [tableCount]uint16

	StartNonterminal             uint32
	Unparsable                   bool
	PrioritizeFixedLengthSymbols bool
	DFAStateCount                uint32
	LALRStateCount   uint32
	LALRStartState   uint32
}

func (h *header) tablePresent(idx int) bool {
	return h.TablesPresent&(1<<uint(idx)) != 0
}

func (h *header) setTablePresent(idx int) {
	h.TablesPresent |= 1 << uint(idx)
}

// ErrBadMagic is returned by Read when the blob does not start with Magic.
var ErrBadMagic = fmt.Errorf("binfmt: bad magic bytes")

// ErrUnsupportedVersion is returned by Read when the blob's format version
// is not one this package understands.
type ErrUnsupportedVersion struct{ Version uint16 }

func (e *ErrUnsupportedVersion) Error() string {
	return fmt.Sprintf("binfmt: unsupported format version %d", e.Version)
}

// machineKind tags which automaton a StateMachines row belongs to.
type machineKind uint8

const (
	machineDFA machineKind = iota
	machineLALR
)
