package lalr

import (
	"fmt"

	"github.com/dekarrin/rezi"
)

// EncodeConflictReport serializes r with REZI, the same binary encoding
// tunaq's server/dao/sqlite package uses to persist its game.State blobs
// (rezi.EncBinary/DecBinary). Unlike the grammar blob itself (package
// binfmt, a hand-rolled row format chosen for forward-compat control over
// every field), a conflict report is a disposable diagnostics artifact with
// no compatibility requirements, so REZI's reflection-driven encoding is a
// better fit here.
func EncodeConflictReport(r *ConflictReport) []byte {
	return rezi.EncBinary(*r)
}

// DecodeConflictReport reverses EncodeConflictReport.
func DecodeConflictReport(data []byte) (*ConflictReport, error) {
	var r ConflictReport
	n, err := rezi.DecBinary(data, &r)
	if err != nil {
		return nil, fmt.Errorf("lalr: decode conflict report: %w", err)
	}
	if n != len(data) {
		return nil, fmt.Errorf("lalr: decode conflict report: consumed %d/%d bytes", n, len(data))
	}
	return &r, nil
}
