package binfmt

import "fmt"

// stringHeapBuilder accumulates a null-separated, deduplicated UTF-8 string
// heap (spec.md §3, §6): byte 0 is always a leading NUL so that a ref of 0
// resolves to the empty string without a special case at read time.
type stringHeapBuilder struct {
	buf     []byte
	offsets map[string]uint32
}

func newStringHeapBuilder() *stringHeapBuilder {
	return &stringHeapBuilder{buf: []byte{0}, offsets: map[string]uint32{"": 0}}
}

// intern returns s's offset in the heap, appending it (NUL-terminated) if
// this is the first time s has been seen.
func (h *stringHeapBuilder) intern(s string) uint32 {
	if off, ok := h.offsets[s]; ok {
		return off
	}
	off := uint32(len(h.buf))
	h.buf = append(h.buf, []byte(s)...)
	h.buf = append(h.buf, 0)
	h.offsets[s] = off
	return off
}

func (h *stringHeapBuilder) bytes() []byte { return h.buf }

// readStringAt reads a NUL-terminated UTF-8 string starting at off within
// heap. It returns an error if heap has no NUL terminator at or after off,
// which Reader treats as a corrupt blob (spec.md §4.4: "validates ... that
// all referenced heap offsets point to a null-terminator-preceded string").
func readStringAt(heap []byte, off uint32) (string, error) {
	if int(off) > len(heap) {
		return "", fmt.Errorf("binfmt: string heap offset %d out of range (heap length %d)", off, len(heap))
	}
	end := int(off)
	for end < len(heap) && heap[end] != 0 {
		end++
	}
	if end >= len(heap) {
		return "", fmt.Errorf("binfmt: string heap entry at offset %d is not NUL-terminated", off)
	}
	return string(heap[off:end]), nil
}

// blobHeapBuilder accumulates length-prefixed variable-length byte blobs.
// The length prefix uses the ECMA-335 "compressed unsigned integer" scheme
// spec.md §6 calls for ("a standard length-prefix scheme"): 1 byte for
// values up to 0x7F, 2 bytes (top two bits 10) up to 0x3FFF, 4 bytes (top
// three bits 110) up to 0x1FFFFFFF.
type blobHeapBuilder struct {
	buf []byte
}

func newBlobHeapBuilder() *blobHeapBuilder {
	return &blobHeapBuilder{}
}

// append writes b's compressed length followed by b itself, returning the
// offset of the length prefix (the blob ref callers store in a table row).
func (h *blobHeapBuilder) append(b []byte) uint32 {
	off := uint32(len(h.buf))
	h.buf = append(h.buf, encodeCompressedLength(uint32(len(b)))...)
	h.buf = append(h.buf, b...)
	return off
}

func (h *blobHeapBuilder) bytes() []byte { return h.buf }

func encodeCompressedLength(n uint32) []byte {
	switch {
	case n <= 0x7F:
		return []byte{byte(n)}
	case n <= 0x3FFF:
		return []byte{byte(0x80 | (n >> 8)), byte(n & 0xFF)}
	case n <= 0x1FFFFFFF:
		return []byte{
			byte(0xC0 | (n >> 24)),
			byte((n >> 16) & 0xFF),
			byte((n >> 8) & 0xFF),
			byte(n & 0xFF),
		}
	default:
		panic(fmt.Sprintf("binfmt: blob of length %d exceeds the compressed-length encoding's range", n))
	}
}

// decodeCompressedLength reads a compressed length prefix starting at off,
// returning the decoded value and the number of bytes the prefix occupied.
func decodeCompressedLength(heap []byte, off uint32) (uint32, int, error) {
	if int(off) >= len(heap) {
		return 0, 0, fmt.Errorf("binfmt: blob heap offset %d out of range (heap length %d)", off, len(heap))
	}
	b0 := heap[off]
	switch {
	case b0&0x80 == 0:
		return uint32(b0), 1, nil
	case b0&0xC0 == 0x80:
		if int(off)+1 >= len(heap) {
			return 0, 0, fmt.Errorf("binfmt: truncated 2-byte blob length at offset %d", off)
		}
		return (uint32(b0&0x3F) << 8) | uint32(heap[off+1]), 2, nil
	case b0&0xE0 == 0xC0:
		if int(off)+3 >= len(heap) {
			return 0, 0, fmt.Errorf("binfmt: truncated 4-byte blob length at offset %d", off)
		}
		return (uint32(b0&0x1F) << 24) | (uint32(heap[off+1]) << 16) | (uint32(heap[off+2]) << 8) | uint32(heap[off+3]), 4, nil
	default:
		return 0, 0, fmt.Errorf("binfmt: invalid blob length prefix byte 0x%02x at offset %d", b0, off)
	}
}

// readBlobAt reads the blob whose length-prefix starts at off.
func readBlobAt(heap []byte, off uint32) ([]byte, error) {
	length, prefixLen, err := decodeCompressedLength(heap, off)
	if err != nil {
		return nil, err
	}
	start := int(off) + prefixLen
	end := start + int(length)
	if end > len(heap) {
		return nil, fmt.Errorf("binfmt: blob at offset %d (length %d) runs past end of heap", off, length)
	}
	return heap[start:end], nil
}
