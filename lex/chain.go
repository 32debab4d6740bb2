package lex

// Component is anything a ChainedTokenizer can drive: Tokenizer itself
// implements it, as can a hand-written component that wants to take part
// in a chain without going through the DFA driver at all (spec.md §4.3.3's
// "a lone tokenizer in a chain may opt out of the chain wrapper").
type Component interface {
	TryGetNextToken(buf *Buffer, xform Transformer, result *TokenizerResult) bool
}

// Resumption is a component's saved continuation: the tokenizer object to
// re-invoke on the chain's next entry, plus whatever argument it needs to
// pick back up where it left off (spec.md §4.3.3 "Suspension & chaining").
type Resumption struct {
	Tokenizer Component
	Arg       any
}

// Suspendable is implemented by a Component that can suspend mid-match. A
// component with no pending suspension must return ok=false from
// TakeSuspension; only one suspension may be live at a time across the
// whole chain (spec.md §4.3.3).
type Suspendable interface {
	Component
	TakeSuspension() (Resumption, bool)
}

// ChainedTokenizer drives an ordered list of component tokenizers
// round-robin, starting from the component after the last one that
// returned noise/nothing, per spec.md §4.3.3. Parser does not build one:
// it drives a single Solo Tokenizer directly. ChainedTokenizer is for
// callers that compose several components themselves.
type ChainedTokenizer struct {
	components []Component
	idx        int
	suspended  *Resumption
}

// NewChain returns a ChainedTokenizer over components, in the order given.
func NewChain(components ...Component) *ChainedTokenizer {
	return &ChainedTokenizer{components: components}
}

// TryGetNextToken implements Component for the chain as a whole.
func (c *ChainedTokenizer) TryGetNextToken(buf *Buffer, xform Transformer, result *TokenizerResult) bool {
	if c.suspended != nil {
		r := *c.suspended
		ok := r.Tokenizer.TryGetNextToken(buf, xform, result)
		if !ok {
			return false
		}
		c.suspended = nil
		if isRealResult(result) {
			// A suspended component ultimately returning a token resets the
			// chain to position 0 (spec.md §4.3.3).
			c.idx = 0
		}
		return true
	}

	for tries := 0; tries < len(c.components); tries++ {
		comp := c.components[c.idx]
		ok := comp.TryGetNextToken(buf, xform, result)
		if !ok {
			return false
		}

		if sus, can := comp.(Suspendable); can {
			if r, pending := sus.TakeSuspension(); pending {
				c.suspended = &r
				return true
			}
		}

		if isRealResult(result) {
			c.idx = (c.idx + 1) % len(c.components)
			return true
		}

		// Noise or nothing: advance to the next component and keep going,
		// bounded to one full rotation so k components that each consume
		// nothing can never spin the chain forever.
		c.idx = (c.idx + 1) % len(c.components)
	}

	return false
}

func isRealResult(r *TokenizerResult) bool {
	return r.Symbol != 0 || r.Err != nil || r.EndOfInput
}
