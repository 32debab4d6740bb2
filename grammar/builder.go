package grammar

import (
	"fmt"

	"golang.org/x/text/unicode/norm"

	"github.com/dekarrin/farkle/grammar/regex"
)

// TokenDef is the metadata a grammar author supplies for one tokenizable
// symbol, consumed by both the Builder (to register the symbol) and, via
// Builder.TokenDefs, by the DFA builder (which needs the Regex tree and
// the CaseSensitive flag that governs how Lower folds it).
type TokenDef struct {
	Name          string
	Regex         regex.Node
	CaseSensitive bool
	Hidden        bool
	Noise         bool
	Generated     bool
	SpecialName   string
}

// Builder assembles a Grammar incrementally. It is not safe for concurrent
// use; build one grammar per goroutine. Once Build succeeds (or even if it
// returns a Grammar marked Unparsable), the Builder should be discarded --
// spec.md §3's lifecycle rule is that designtime grammars are built once and
// frozen, never mutated afterward.
type Builder struct {
	tokens       []TokenSymbol
	tokenRegexes map[Handle]TokenDef
	sawNonTerm   bool // true once a GroupStart/GroupEnd token has been added

	nonterminals []Nonterminal
	ntByName     map[string]Handle

	// prodsByHead accumulates productions per nonterminal prior to Build,
	// which flattens them into the contiguous Productions table the
	// Nonterminal.FirstProduction/ProductionCount pair addresses. frozen
	// tracks which heads have already been handed to Build once, since
	// spec.md's lifecycle forbids setting a nonterminal's productions twice.
	prodsByHead map[Handle][][]Member
	frozen      map[Handle]bool

	groups []Group

	// specialNames is the final handle lookup map, last registration wins on
	// a literal collision -- this alone cannot detect duplicates, since a
	// second registration of the same name simply clobbers the first before
	// anything downstream ever sees two entries. specialNameSeen tracks
	// every registration's NFC-canonical form independent of that map, so a
	// repeat (even when the raw bytes are byte-identical, not just
	// canonically equal) is caught at the moment it happens.
	specialNames    map[string]Handle
	specialNameSeen map[string]bool
	dupSpecialNames bool

	start Handle

	built bool
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{
		tokenRegexes:    map[Handle]TokenDef{},
		ntByName:        map[string]Handle{},
		prodsByHead:     map[Handle][][]Member{},
		frozen:          map[Handle]bool{},
		specialNames:    map[string]Handle{},
		specialNameSeen: map[string]bool{},
	}
}

// registerSpecialName records one special-name registration for h. It
// always updates the final lookup map (so named lookups still resolve to
// something), but separately flags b.dupSpecialNames the moment the same
// canonical name is registered twice, before the map-overwrite has a chance
// to hide that a collision ever occurred.
func (b *Builder) registerSpecialName(name string, h Handle) {
	if name == "" {
		return
	}
	canon := norm.NFC.String(name)
	if b.specialNameSeen[canon] {
		b.dupSpecialNames = true
	}
	b.specialNameSeen[canon] = true
	b.specialNames[name] = h
}

func (b *Builder) mustNotBeBuilt() {
	if b.built {
		panic("grammar.Builder: cannot modify after Build has been called")
	}
}

// AddTerminal registers a new ordinary terminal token symbol. Terminals
// must all be added before the first AddGroupStart/AddGroupEnd call, since
// terminals are required to occupy a contiguous prefix of the token table.
func (b *Builder) AddTerminal(def TokenDef) Handle {
	b.mustNotBeBuilt()
	if b.sawNonTerm {
		panic("grammar.Builder: all AddTerminal calls must precede AddGroupStart/AddGroupEnd (terminals must be a contiguous prefix)")
	}
	h := b.addToken(def, SymbolTerminal)
	return h
}

// AddGroupStart registers the token symbol that opens a lexical group.
func (b *Builder) AddGroupStart(def TokenDef) Handle {
	b.mustNotBeBuilt()
	b.sawNonTerm = true
	return b.addToken(def, SymbolGroupStart)
}

// AddGroupEnd registers the token symbol that closes a lexical group.
func (b *Builder) AddGroupEnd(def TokenDef) Handle {
	b.mustNotBeBuilt()
	b.sawNonTerm = true
	return b.addToken(def, SymbolGroupEnd)
}

func (b *Builder) addToken(def TokenDef, kind SymbolKind) Handle {
	h := Handle(len(b.tokens) + 1)
	b.tokens = append(b.tokens, TokenSymbol{
		Handle:      h,
		Name:        def.Name,
		Kind:        kind,
		Hidden:      def.Hidden,
		Noise:       def.Noise,
		Generated:   def.Generated,
		SpecialName: def.SpecialName,
	})
	b.tokenRegexes[h] = def
	b.registerSpecialName(def.SpecialName, h)
	return h
}

// TokenDefs returns the metadata (regex + case sensitivity) supplied for
// every token symbol, keyed by handle, for the DFA builder's consumption.
func (b *Builder) TokenDefs() map[Handle]TokenDef {
	return b.tokenRegexes
}

// AddNonterminal registers a new nonterminal with no productions yet. Use
// AddProduction to attach productions to it afterward.
func (b *Builder) AddNonterminal(name, specialName string) Handle {
	b.mustNotBeBuilt()
	h := Handle(len(b.nonterminals) + 1)
	b.nonterminals = append(b.nonterminals, Nonterminal{Handle: h, Name: name, SpecialName: specialName})
	b.ntByName[name] = h
	b.registerSpecialName(specialName, h)
	return h
}

// NonterminalHandle looks up a previously declared nonterminal by name, for
// grammar authors who want to reference a forward-declared nonterminal
// before writing the production that defines it (mutually recursive rules).
func (b *Builder) NonterminalHandle(name string) (Handle, bool) {
	h, ok := b.ntByName[name]
	return h, ok
}

// AddProduction appends one production (an ordered list of members) to
// head's set of productions. It may be called multiple times for the same
// head to add alternative productions, up until Build is called -- Build
// freezes every head's production list exactly once, per spec.md §3's
// lifecycle rule that a nonterminal's productions cannot be set twice.
func (b *Builder) AddProduction(head Handle, members ...Member) {
	b.mustNotBeBuilt()
	if b.frozen[head] {
		panic(fmt.Sprintf("grammar.Builder: productions of nonterminal %d were already frozen by Build", head))
	}
	cp := make([]Member, len(members))
	copy(cp, members)
	b.prodsByHead[head] = append(b.prodsByHead[head], cp)
}

// AddGroup registers a lexical group. start must already have been added
// via AddGroupStart; end, if non-zero, must have been added via
// AddGroupEnd.
func (b *Builder) AddGroup(name string, start, end Handle, advanceByChar, endsOnEOI, keepEndToken bool, nesting ...Handle) Handle {
	b.mustNotBeBuilt()
	h := Handle(len(b.groups) + 1)
	b.groups = append(b.groups, Group{
		Handle:             h,
		Name:               name,
		Start:              start,
		End:                end,
		AdvanceByCharacter: advanceByChar,
		EndsOnEndOfInput:   endsOnEOI,
		KeepEndToken:       keepEndToken,
		Nesting:            append([]Handle(nil), nesting...),
	})
	return h
}

// SetStart designates the grammar's start nonterminal.
func (b *Builder) SetStart(nt Handle) {
	b.mustNotBeBuilt()
	b.start = nt
}

// Build freezes the builder and produces a Grammar. It always returns a
// non-nil Grammar (possibly with Unparsable set) as long as no fatal
// structural error occurred; fatal errors -- duplicate nonterminal names, a
// reference to a handle this builder never issued -- return a nil Grammar
// and a non-nil error, matching spec.md §7's "Fatal build errors ... return
// no grammar."
func (b *Builder) Build() (*Grammar, error) {
	if b.built {
		panic("grammar.Builder: Build called twice")
	}
	b.built = true

	g := &Grammar{
		Tokens:       b.tokens,
		Nonterminals: make([]Nonterminal, len(b.nonterminals)),
		Groups:       b.groups,
		Start:        b.start,
		SpecialNames: b.specialNames,
	}
	copy(g.Nonterminals, b.nonterminals)

	seenNT := map[string]bool{}
	for _, nt := range g.Nonterminals {
		if seenNT[nt.Name] {
			return nil, fmt.Errorf("grammar has duplicate nonterminal name %q", nt.Name)
		}
		seenNT[nt.Name] = true
	}

	// Flatten productions into one contiguous table, in nonterminal
	// declaration order, and freeze every head we've seen so a later
	// (impossible, since the Builder is now built) AddProduction call would
	// be rejected.
	for i := range g.Nonterminals {
		nt := &g.Nonterminals[i]
		prodLists := b.prodsByHead[nt.Handle]
		b.frozen[nt.Handle] = true

		nt.FirstProduction = Handle(len(g.Productions) + 1)
		nt.ProductionCount = uint32(len(prodLists))

		for _, members := range prodLists {
			g.Productions = append(g.Productions, Production{
				Handle:  Handle(len(g.Productions) + 1),
				Head:    nt.Handle,
				Members: members,
			})
		}
	}

	if errs := g.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("grammar is structurally invalid: %w", joinErrors(errs))
	}

	// g.HasDuplicateSpecialNames() alone can no longer see a collision here:
	// the final SpecialNames map has already had any duplicate clobbered
	// down to one entry by the time Build runs. b.dupSpecialNames was set
	// at registration time, before that clobbering happened.
	if b.dupSpecialNames || g.HasDuplicateSpecialNames() {
		g.Unparsable = true
	}

	return g, nil
}

func joinErrors(errs []error) error {
	msg := ""
	for i, e := range errs {
		if i > 0 {
			msg += "; "
		}
		msg += e.Error()
	}
	return fmt.Errorf("%s", msg)
}
