// Package farkle is a parser-generator toolkit: build a grammar, compile it
// down to a tokenizer DFA and an LALR(1) action/goto table, persist that
// compiled form to a single binary blob, and drive it at parse time with a
// caller-supplied semantic provider. It is the distillation of tunaq's
// ictiobus grammar/automaton/lex/parse split into one pipeline, rebuilt
// around handle-indexed tables and a streaming character-buffer tokenizer
// instead of that package's string-keyed states and eagerly-lexed token
// streams.
//
// The three stops in that pipeline are grammar.Builder (assemble symbols,
// productions, and groups), dfa.Build plus lalr.Build (compile), and
// parser.Parser (run). This file's NewGrammarBuilder, Load, and NewParser
// are convenience wrappers around those three so a caller who doesn't need
// fine control over build options never has to import the subpackages
// directly.
package farkle

import (
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/dekarrin/farkle/grammar"
	"github.com/dekarrin/farkle/grammar/binfmt"
	"github.com/dekarrin/farkle/grammar/dfa"
	"github.com/dekarrin/farkle/grammar/lalr"
	"github.com/dekarrin/farkle/parser"
)

// NewGrammarBuilder starts a new grammar under construction. It is a thin
// alias for grammar.NewBuilder, kept at the root so a caller only ever
// needs to import this package to get started.
func NewGrammarBuilder() *grammar.Builder {
	return grammar.NewBuilder()
}

// BuildOptions controls the compile step (dfa.Build plus lalr.Build) and
// can be loaded from a TOML file with LoadBuildOptions, following tunaq's
// own BurntSushi/toml config pattern (internal/tqw, internal/game).
type BuildOptions struct {
	// MaxTokenizerStates caps DFA construction, spec.md §4.1's
	// maxTokenizerStates resource limit. Zero means dfa.DefaultMaxStates.
	MaxTokenizerStates int `toml:"max_tokenizer_states"`

	// PrioritizeFixedLengthSymbols gates spec.md §4.1 step 5's fixed-length
	// tie-break in the DFA: true lets a fixed-length token win a
	// same-priority tie against a variable-length one; false surfaces that
	// tie as an indistinguishable-symbol conflict instead.
	PrioritizeFixedLengthSymbols bool `toml:"prioritize_fixed_length_symbols"`

	// OperatorPrecedence lists operator groups from lowest to highest
	// precedence, each a set of terminal names sharing one associativity,
	// for resolving shift/reduce conflicts during lalr.Build.
	OperatorPrecedence []OperatorGroup `toml:"operator_precedence"`
}

// OperatorGroup is one precedence level of BuildOptions.OperatorPrecedence.
type OperatorGroup struct {
	Associativity string   `toml:"associativity"` // "left", "right", or "none"
	Terminals     []string `toml:"terminals"`
}

// LoadBuildOptions reads a farkle.toml-style configuration file. A missing
// file is not an error: it returns the zero BuildOptions, which Compile
// treats as every default (spec.md's build-time limits are optional tuning,
// never required input).
func LoadBuildOptions(path string) (BuildOptions, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return BuildOptions{}, nil
		}
		return BuildOptions{}, fmt.Errorf("farkle: read build options: %w", err)
	}

	var opts BuildOptions
	if err := toml.Unmarshal(data, &opts); err != nil {
		return BuildOptions{}, fmt.Errorf("farkle: parse build options: %w", err)
	}
	return opts, nil
}

// toScope converts the TOML-friendly OperatorPrecedence list into an
// *lalr.OperatorScope, resolving each named terminal against g.
func (o BuildOptions) toScope(g *grammar.Grammar) (*lalr.OperatorScope, error) {
	scope := lalr.NewOperatorScope()
	if len(o.OperatorPrecedence) == 0 {
		return scope, nil
	}

	byName := map[string]grammar.Handle{}
	for _, h := range g.Terminals() {
		byName[g.Token(h).Name] = h
	}

	for _, grp := range o.OperatorPrecedence {
		var assoc lalr.Associativity
		switch grp.Associativity {
		case "left", "":
			assoc = lalr.LeftAssociative
		case "right":
			assoc = lalr.RightAssociative
		case "none":
			assoc = lalr.NonAssociative
		default:
			return nil, fmt.Errorf("farkle: unknown operator associativity %q", grp.Associativity)
		}
		hs := make([]grammar.Handle, 0, len(grp.Terminals))
		for _, name := range grp.Terminals {
			h, ok := byName[name]
			if !ok {
				return nil, fmt.Errorf("farkle: operator_precedence names unknown terminal %q", name)
			}
			hs = append(hs, h)
		}
		scope.AddGroup(assoc, hs...)
	}
	return scope, nil
}

// Compiled is a built grammar plus its compiled DFA, LALR table, and
// conflict report, ready either to drive directly (NewParser) or to freeze
// into a binary blob (Save).
type Compiled struct {
	Grammar  *grammar.Grammar
	DFA      *dfa.DFA
	Table    *lalr.Table
	Conflict *lalr.ConflictReport
}

// Compile runs grammar.Builder.Build followed by the DFA and LALR build
// steps using opts, the way a caller would otherwise have to call b.Build,
// dfa.Build, and lalr.Build by hand in sequence. It returns a nil Compiled
// and an error when the grammar build fails, when dfa.Build fails with
// anything other than a *dfa.ConflictError, or when the operator
// precedence options cannot be resolved. A DFA conflict does not fail the
// call; check Grammar.Unparsable or
// Conflict.HasUnresolved() to learn whether the result is actually drivable
// (spec.md §3).
func Compile(b *grammar.Builder, opts BuildOptions) (*Compiled, error) {
	g, err := b.Build()
	if err != nil {
		return nil, fmt.Errorf("farkle: build grammar: %w", err)
	}

	d, err := dfa.Build(g, b.TokenDefs(), dfa.Options{
		MaxStates:                    opts.MaxTokenizerStates,
		PrioritizeFixedLengthSymbols: opts.PrioritizeFixedLengthSymbols,
	})
	if err != nil {
		var conflict *dfa.ConflictError
		if !errors.As(err, &conflict) {
			return nil, fmt.Errorf("farkle: compile DFA: %w", err)
		}
		// An indistinguishable-token conflict is a diagnostic, not a fatal
		// build error: d is still a fully constructed (if ambiguous on the
		// conflicting states) DFA, so it is kept and the grammar is marked
		// Unparsable rather than discarding the build (spec.md §3, §7).
		g.Unparsable = true
	}

	scope, err := opts.toScope(g)
	if err != nil {
		return nil, err
	}
	table, report := lalr.Build(g, scope)
	if report.HasUnresolved() {
		g.Unparsable = true
	}

	return &Compiled{Grammar: g, DFA: d, Table: table, Conflict: report}, nil
}

// Save freezes c into the binfmt binary blob (spec.md §6's persisted
// grammar format).
func (c *Compiled) Save() []byte {
	return binfmt.Write(c.Grammar, c.DFA, c.Table)
}

// NewParser builds a parser.Parser directly from c.
func (c *Compiled) NewParser() (*parser.Parser, error) {
	return parser.New(c.Grammar, c.DFA, c.Table)
}

// Load reads a binfmt blob previously produced by (*Compiled).Save and
// returns a ready-to-use parser.Parser, the spec.md §6 load() entry point.
func Load(data []byte) (*parser.Parser, error) {
	g, d, table, err := binfmt.Read(data)
	if err != nil {
		return nil, fmt.Errorf("farkle: load: %w", err)
	}
	return parser.New(g, d, table)
}

// NewParser is a convenience for the common case of building, compiling,
// and wrapping a grammar into a parser.Parser in one call, skipping the
// persisted binary blob entirely. Use Compile/Save/Load directly when the
// compiled form needs to be cached or shipped separately from the process
// that built it.
func NewParser(b *grammar.Builder, opts BuildOptions) (*parser.Parser, error) {
	c, err := Compile(b, opts)
	if err != nil {
		return nil, err
	}
	return c.NewParser()
}
