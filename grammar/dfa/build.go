package dfa

import (
	"fmt"
	"sort"

	"github.com/dekarrin/farkle/grammar"
	"github.com/dekarrin/farkle/grammar/regex"
	"github.com/dekarrin/farkle/internal/collect"
)

// Options controls DFA construction limits.
type Options struct {
	// MaxStates caps the number of states the builder will create before
	// giving up, guarding against a pathological grammar whose token set
	// blows up the subset construction (spec.md §4.1's "maxTokenizerStates"
	// resource limit). Zero means use DefaultMaxStates.
	MaxStates int

	// PrioritizeFixedLengthSymbols gates spec.md §4.1 step 5's fixed-length
	// tie-break: when true, a same-priority tie between a fixed-length
	// token and a variable-length one resolves to the fixed-length one;
	// when false, that tie is left unresolved and reported as an
	// indistinguishable-symbol conflict like any other same-priority tie.
	PrioritizeFixedLengthSymbols bool
}

// DefaultMaxStates is used when Options.MaxStates is zero.
const DefaultMaxStates = 100000

// Build runs the follow-pos (Aho) construction over every tokenizable
// symbol's regex -- ordinary terminals plus group start/end tokens -- and
// returns the resulting DFA. If two token symbols are truly indistinguishable
// in some state, Build still returns the fully-built (if conflicted) *DFA,
// alongside a non-nil *ConflictError describing the clash -- the caller is
// expected to type-assert for *ConflictError and, on a match, keep using the
// returned DFA while marking the grammar Unparsable, per spec.md §4.1 step 5
// and §7's "the grammar is still constructed when possible". Any other
// non-nil error (state-limit exceeded, a malformed regex) is fatal: the
// returned *DFA is nil and there is nothing usable to fall back to.
func Build(g *grammar.Grammar, defs map[grammar.Handle]grammar.TokenDef, opts Options) (*DFA, error) {
	if opts.MaxStates == 0 {
		opts.MaxStates = DefaultMaxStates
	}

	ctx := newBuildContext()
	var branches []augNode

	// Tokenizable symbols are every entry in g.Tokens (ordinary terminals
	// and group start/end markers alike); sort by handle for determinism.
	handles := make([]grammar.Handle, 0, len(g.Tokens))
	for _, t := range g.Tokens {
		handles = append(handles, t.Handle)
	}
	sort.Slice(handles, func(i, j int) bool { return handles[i] < handles[j] })

	for _, h := range handles {
		def, ok := defs[h]
		if !ok || def.Regex == nil {
			continue
		}
		lowered, err := regex.Lower(def.Regex, def.CaseSensitive)
		if err != nil {
			return nil, fmt.Errorf("dfa: lowering token %q: %w", def.Name, err)
		}
		for _, branch := range topLevelAlt(lowered) {
			priority := TerminalPriority
			if !regex.HasUnboundedRepetition(branch) {
				priority = LiteralPriority
			}
			_, fixed := regex.FixedLength(branch)

			expanded := regex.Expand(branch)
			body := fromRegex(ctx, expanded)
			end := augLeaf{pos: ctx.newLeaf(leafInfo{isEnd: true, symbol: h, priority: priority, fixed: fixed})}
			branches = append(branches, augConcat{items: []augNode{body, end}})
			linkConcat(ctx, []augNode{body, end})
		}
	}

	if len(branches) == 0 {
		return &DFA{States: []State{{}}, PrioritizeFixedLengthSymbols: opts.PrioritizeFixedLengthSymbols}, nil
	}

	root := augAlt{items: branches}

	d, err := subsetConstruct(root, ctx, opts)
	if err != nil {
		return nil, err
	}
	d.PrioritizeFixedLengthSymbols = opts.PrioritizeFixedLengthSymbols

	// A conflict is not fatal: d is fully built and usable (if ambiguous on
	// the conflicting states), so it is returned alongside the diagnostic
	// rather than discarded. Only subsetConstruct's own errors above (e.g.
	// state-limit exceeded) abort construction entirely.
	if confErr := d.checkConflicts(); confErr != nil {
		return d, confErr
	}
	return d, nil
}

// checkConflicts reports the first state, if any, where two or more accept
// candidates resolve to an irreducible tie (spec.md §4.1 step 5).
func (d *DFA) checkConflicts() *ConflictError {
	for i, st := range d.States {
		if len(st.Accept) < 2 {
			continue
		}
		_, _, ok := st.Winner(d.PrioritizeFixedLengthSymbols)
		if ok {
			continue
		}
		var symbols []grammar.Handle
		for _, a := range st.Accept {
			symbols = append(symbols, a.Symbol)
		}
		return &ConflictError{State: i, Symbols: symbols}
	}
	return nil
}

// topLevelAlt returns the top-level alternation branches of n (or n itself,
// as a single-element slice, if it isn't an Alt). Splitting per-branch lets
// each alternative of a single token's regex carry its own priority class,
// since e.g. `(ab)|(a*b*)` has one fixed-shape branch and one open-ended one.
func topLevelAlt(n regex.Node) []regex.Node {
	if a, ok := n.(regex.Alt); ok {
		return a.Items
	}
	return []regex.Node{n}
}

// stateKey interns a leaf-position set into subset-construction's
// work/visited bookkeeping.
type stateKey = string

func subsetConstruct(root augNode, ctx *buildContext, opts Options) (*DFA, error) {
	start := root.firstpos()

	var states []State
	index := map[stateKey]int{}
	var queue []collect.Set[leafPos]

	internState := func(s collect.Set[leafPos]) int {
		key := s.String()
		if i, ok := index[key]; ok {
			return i
		}
		i := len(states)
		index[key] = i
		states = append(states, State{})
		queue = append(queue, s)
		return i
	}

	internState(start)

	for qi := 0; qi < len(queue); qi++ {
		if len(states) > opts.MaxStates {
			return nil, fmt.Errorf("dfa: tokenizer automaton exceeded %d states", opts.MaxStates)
		}
		set := queue[qi]
		st, err := buildState(set, ctx, internState)
		if err != nil {
			return nil, err
		}
		states[qi] = st
	}

	return &DFA{States: states}, nil
}

// charLeaf is one character-matching leaf active in a state, resolved to
// its concrete ranges/invert/followpos for the interval sweep.
type charLeaf struct {
	pos    leafPos
	ranges []regex.Range
	invert bool
}

func buildState(set collect.Set[leafPos], ctx *buildContext, intern func(collect.Set[leafPos]) int) (State, error) {
	var chars []charLeaf
	var accepts []Accept

	for p := range set {
		info := ctx.leaves[p]
		if info.isEnd {
			accepts = append(accepts, Accept{Symbol: info.symbol, Priority: info.priority, Fixed: info.fixed})
			continue
		}
		chars = append(chars, charLeaf{pos: p, ranges: info.ranges, invert: info.invert})
	}
	sort.Slice(accepts, func(i, j int) bool { return accepts[i].Symbol < accepts[j].Symbol })

	if len(chars) == 0 {
		return State{Accept: accepts}, nil
	}

	boundaries := collectBoundaries(chars)

	var edges []Edge
	defaultSet := collect.NewSet[leafPos]()
	anyInverted := false
	for _, cl := range chars {
		if cl.invert {
			anyInverted = true
			defaultSet.AddAll(ctx.followpos[cl.pos])
		}
	}

	for i := 0; i+1 < len(boundaries); i++ {
		lo, hi := boundaries[i], boundaries[i+1]-1
		if lo > hi {
			continue
		}
		target := collect.NewSet[leafPos]()
		for _, cl := range chars {
			if cl.invert {
				if rangesCover(cl.ranges, lo, hi) {
					continue // excluded from this leaf's default coverage here
				}
				target.AddAll(ctx.followpos[cl.pos])
			} else if rangesCover(cl.ranges, lo, hi) {
				target.AddAll(ctx.followpos[cl.pos])
			}
		}
		if target.Len() == 0 {
			continue
		}
		if anyInverted && target.Equal(defaultSet) {
			continue // identical to what the default edge already provides
		}
		edges = append(edges, Edge{Lo: lo, Hi: hi, To: intern(target)})
	}

	st := State{Edges: edges, Accept: accepts}
	if anyInverted && defaultSet.Len() > 0 {
		st.HasDefault = true
		st.Default = intern(defaultSet)
	}
	return st, nil
}

// collectBoundaries gathers every range endpoint (lo, hi+1) across every
// character leaf active in a state and returns them sorted and deduplicated,
// forming the sweep line's breakpoints.
func collectBoundaries(chars []charLeaf) []rune {
	seen := map[rune]bool{}
	var out []rune
	add := func(r rune) {
		if !seen[r] {
			seen[r] = true
			out = append(out, r)
		}
	}
	for _, cl := range chars {
		for _, r := range cl.ranges {
			add(r.Lo)
			if r.Hi < maxRune {
				add(r.Hi + 1)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// maxRune bounds the alphabet the sweep considers; matches unicode.MaxRune.
const maxRune = 0x10FFFF
