package regex

// FixedLength reports whether n matches only strings of one exact length,
// and if so what that length is. The DFA builder's conflict tie-break
// (spec.md §4.1 step 5, "prioritizeFixedLengthSymbols") uses this to prefer
// a fixed-length token symbol over a variable-length one when two symbols
// of otherwise-equal priority accept in the same state.
func FixedLength(n Node) (int, bool) {
	switch t := n.(type) {
	case Chars:
		return 1, true
	case Any:
		return 1, true
	case Concat:
		total := 0
		for _, it := range t.Items {
			l, ok := FixedLength(it)
			if !ok {
				return 0, false
			}
			total += l
		}
		return total, true
	case Alt:
		if len(t.Items) == 0 {
			return 0, true
		}
		first, ok := FixedLength(t.Items[0])
		if !ok {
			return 0, false
		}
		for _, it := range t.Items[1:] {
			l, ok := FixedLength(it)
			if !ok || l != first {
				return 0, false
			}
		}
		return first, true
	case Repeat:
		if t.Min != t.Max {
			return 0, false
		}
		l, ok := FixedLength(t.Item)
		if !ok {
			return 0, false
		}
		return l * t.Min, true
	default:
		return 0, false
	}
}
