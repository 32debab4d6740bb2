package regex

// Expand rewrites a lowered tree so that every Repeat node left in the
// result is an unbounded star (Min: 0, Max: Infinite): a bounded {m,n} is
// unrolled into m mandatory copies followed by n-m nested optional copies,
// and an unbounded {m,∞} becomes m mandatory copies followed by one star.
// The DFA builder's followpos construction (spec.md §4.1 step 2) only has
// classical closed-form rules for concatenation, alternation, and star, so
// Expand is run once, after Lower, to eliminate every other repeat shape.
//
// Expand must run on an already-Lower'd tree; it panics on StringLiteral or
// Lazy nodes.
func Expand(n Node) Node {
	switch t := n.(type) {
	case Chars:
		return t
	case Any:
		return t
	case Concat:
		items := make([]Node, len(t.Items))
		for i, it := range t.Items {
			items[i] = Expand(it)
		}
		return Concat{Items: items}
	case Alt:
		items := make([]Node, len(t.Items))
		for i, it := range t.Items {
			items[i] = Expand(it)
		}
		return Alt{Items: items}
	case Repeat:
		item := Expand(t.Item)
		if t.Max == Infinite {
			if t.Min == 0 {
				return Repeat{Item: item, Min: 0, Max: Infinite}
			}
			return Concat{Items: []Node{repeatN(item, t.Min), Repeat{Item: item, Min: 0, Max: Infinite}}}
		}
		mandatory := repeatN(item, t.Min)
		optional := nestedOptional(item, t.Max-t.Min)
		switch {
		case optional == nil:
			return mandatory
		case t.Min == 0:
			return optional
		default:
			return Concat{Items: []Node{mandatory, optional}}
		}
	default:
		panic("regex.Expand: node must already be Lower'd (no StringLiteral/Lazy)")
	}
}

// repeatN returns n back-to-back copies of item concatenated together. n==0
// returns an empty Concat (epsilon).
func repeatN(item Node, n int) Node {
	if n <= 0 {
		return Concat{}
	}
	items := make([]Node, n)
	for i := range items {
		items[i] = item
	}
	return Concat{Items: items}
}

// nestedOptional returns a node matching between 0 and n additional copies
// of item, nested so that copy k is only reachable once copy k-1 matched --
// i.e. Opt(item . Opt(item . Opt(...))), where each Opt(x) is written as
// the alternation of x with the empty Concat so no Repeat node is left.
// Returns nil for n<=0.
func nestedOptional(item Node, n int) Node {
	if n <= 0 {
		return nil
	}
	rest := nestedOptional(item, n-1)
	if rest == nil {
		return Alt{Items: []Node{item, Concat{}}}
	}
	return Alt{Items: []Node{Concat{Items: []Node{item, rest}}, Concat{}}}
}
