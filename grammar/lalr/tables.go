// Package lalr computes canonical LR(1) item sets, merges them into an
// LALR(1) collection, and produces the action/goto tables the streaming
// parser runtime (package parser) drives. It resolves shift/reduce and
// reduce/reduce conflicts through an operator-precedence scope, and reports
// whatever it cannot resolve as structured diagnostics rather than failing
// the build outright -- the grammar it builds a table for is still usable,
// just marked Unparsable (spec.md §3, §4.2, §7). It is the Go analogue of
// tunaq's ictiobus/parse package (lalr.go, lraction.go, lr.go), rebuilt
// around handle-indexed tables instead of that package's string-keyed
// states.
package lalr

import (
	"fmt"
	"sort"

	"github.com/dekarrin/farkle/grammar"
)

// ActionType is the kind of entry an LALR action-table cell holds.
type ActionType uint8

const (
	// ActionShift pushes a new state and consumes the lookahead terminal.
	ActionShift ActionType = iota + 1
	// ActionReduce pops a production's members and applies the goto table.
	ActionReduce
	// ActionAccept ends parsing successfully.
	ActionAccept
)

// Action is one action-table cell.
type Action struct {
	Type       ActionType
	ShiftState int            // valid when Type == ActionShift
	Production grammar.Handle // valid when Type == ActionReduce
}

func (a Action) String() string {
	switch a.Type {
	case ActionShift:
		return fmt.Sprintf("shift %d", a.ShiftState)
	case ActionReduce:
		return fmt.Sprintf("reduce %d", a.Production)
	case ActionAccept:
		return "accept"
	default:
		return "invalid-action"
	}
}

// State is one LALR state: actions keyed by terminal handle, gotos keyed by
// nonterminal handle. A terminal with no entry has no action, which the
// parser driver (package parser) reports as a syntax error naming the
// state's other action keys as the expected set (spec.md §4.3.4).
type State struct {
	Actions map[grammar.Handle]Action
	Gotos   map[grammar.Handle]int
}

// ExpectedTerminals returns the terminal handles this state has any action
// for, sorted, for syntax-error "expected one of ..." reporting.
func (s State) ExpectedTerminals() []grammar.Handle {
	out := make([]grammar.Handle, 0, len(s.Actions))
	for h := range s.Actions {
		if h == EndOfInput {
			continue
		}
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Table is the built LALR(1) action/goto table for a grammar.
type Table struct {
	States []State
	Start  int
}

// ConflictKind classifies one entry of a ConflictReport.
type ConflictKind uint8

const (
	ShiftReduceConflict ConflictKind = iota + 1
	ReduceReduceConflict
)

func (k ConflictKind) String() string {
	if k == ShiftReduceConflict {
		return "shift/reduce"
	}
	return "reduce/reduce"
}

// Conflict is one unresolved (or resolved-by-default) conflict the table
// builder found, named the way spec.md §4.2's "Unresolved conflicts are
// reported with state, item, and lookahead" requires.
type Conflict struct {
	State       int
	Terminal    grammar.Handle
	Kind        ConflictKind
	Productions []grammar.Handle // the productions in contention
	Resolved    bool             // true if the scope picked a winner anyway
}

// ConflictReport accumulates every conflict a build encountered. A
// non-empty report whose entries are all Resolved does not by itself mark a
// grammar Unparsable; any unresolved entry does (spec.md §3).
type ConflictReport struct {
	Conflicts []Conflict
}

// HasUnresolved reports whether r contains any conflict the operator scope
// could not settle.
func (r *ConflictReport) HasUnresolved() bool {
	for _, c := range r.Conflicts {
		if !c.Resolved {
			return true
		}
	}
	return false
}

// Build computes the LALR(1) action/goto table for g, resolving conflicts
// through scope (which may be nil, equivalent to an empty OperatorScope).
// It always returns a non-nil Table; check report.HasUnresolved() (or
// g.Unparsable, once the caller folds the report in) to learn whether the
// grammar is actually parsable as built.
func Build(g *grammar.Grammar, scope *OperatorScope) (*Table, *ConflictReport) {
	if scope == nil {
		scope = NewOperatorScope()
	}
	auto := build(g)
	report := &ConflictReport{}

	states := make([]State, len(auto.states))
	for si, items := range auto.states {
		st := State{Actions: map[grammar.Handle]Action{}, Gotos: map[grammar.Handle]int{}}

		// Shifts and gotos come directly from the merged transition table.
		for sym, to := range auto.trans[si] {
			if sym.Kind == grammar.MemberToken {
				st.Actions[sym.Handle] = Action{Type: ActionShift, ShiftState: to}
			} else {
				st.Gotos[sym.Handle] = to
			}
		}

		// Reduces (and accept) come from items with the dot at the end of
		// their production, one action per item lookahead.
		for it := range items {
			members := prodMembers(g, it.prod)
			if it.dot != len(members) {
				continue
			}
			if it.prod == augmentedProduction {
				if it.la == EndOfInput {
					st.setAction(si, it.la, Action{Type: ActionAccept}, g, scope, report)
				}
				continue
			}
			st.setAction(si, it.la, Action{Type: ActionReduce, Production: it.prod}, g, scope, report)
		}

		states[si] = st
	}

	return &Table{States: states, Start: auto.start}, report
}

// resolution is the outcome of attempting to settle one action-table
// collision.
type resolution uint8

const (
	resolutionUnresolved resolution = iota
	resolutionPicked                // winner holds the action to install
	resolutionCleared                // NonAssociative: install no action at all
)

// setAction installs candidate into s.Actions[la], resolving against
// whatever is already there (if anything) via the operator scope, and
// recording a Conflict on report when a collision occurs.
func (s *State) setAction(stateIdx int, la grammar.Handle, candidate Action, g *grammar.Grammar, scope *OperatorScope, report *ConflictReport) {
	existing, had := s.Actions[la]
	if !had {
		s.Actions[la] = candidate
		return
	}
	if actionsEqual(existing, candidate) {
		return
	}
	winner, res := resolveConflict(existing, candidate, la, g, scope)
	kind := ShiftReduceConflict
	if existing.Type == ActionReduce && candidate.Type == ActionReduce {
		kind = ReduceReduceConflict
	}
	report.Conflicts = append(report.Conflicts, Conflict{
		State:       stateIdx,
		Terminal:    la,
		Kind:        kind,
		Productions: reduceProductions(existing, candidate),
		Resolved:    res != resolutionUnresolved,
	})
	switch res {
	case resolutionPicked:
		s.Actions[la] = winner
	case resolutionCleared:
		// NonAssociative: neither action is legal here, so no action at all
		// is installed and the parser driver reports a plain syntax error
		// when it lands on this cell (spec.md §4.2).
		delete(s.Actions, la)
	case resolutionUnresolved:
		// Leave whatever was already installed; the grammar is marked
		// Unparsable by the caller regardless of what sits in the cell.
	}
}

func actionsEqual(a, b Action) bool {
	return a.Type == b.Type && a.ShiftState == b.ShiftState && a.Production == b.Production
}

func reduceProductions(a, b Action) []grammar.Handle {
	var out []grammar.Handle
	if a.Type == ActionReduce {
		out = append(out, a.Production)
	}
	if b.Type == ActionReduce {
		out = append(out, b.Production)
	}
	return out
}

// resolveConflict applies spec.md §4.2's conflict-resolution rules.
func resolveConflict(existing, candidate Action, la grammar.Handle, g *grammar.Grammar, scope *OperatorScope) (Action, resolution) {
	shift, reduce, ok := splitShiftReduce(existing, candidate)
	if ok {
		return resolveShiftReduce(shift, reduce, la, g, scope)
	}
	if existing.Type == ActionReduce && candidate.Type == ActionReduce {
		return resolveReduceReduce(existing, candidate, g, scope)
	}
	// Accept vs. anything else, or two shifts into different states for the
	// same terminal (impossible given a deterministic DFA-style transition
	// table, but guarded defensively): no rule applies.
	return Action{}, resolutionUnresolved
}

func splitShiftReduce(a, b Action) (shift, reduce Action, ok bool) {
	if a.Type == ActionShift && b.Type == ActionReduce {
		return a, b, true
	}
	if b.Type == ActionShift && a.Type == ActionReduce {
		return b, a, true
	}
	return Action{}, Action{}, false
}

func resolveShiftReduce(shift, reduce Action, la grammar.Handle, g *grammar.Grammar, scope *OperatorScope) (Action, resolution) {
	tLevel, tGroup, tOK := scope.tokenPrecedence(la)
	pLevel, _, pOK := scope.productionPrecedence(g, reduce.Production)
	if !tOK || !pOK {
		return Action{}, resolutionUnresolved
	}
	if tLevel != pLevel {
		if tLevel > pLevel {
			return shift, resolutionPicked
		}
		return reduce, resolutionPicked
	}
	// Same precedence level implies same group (a token belongs to exactly
	// one group).
	switch tGroup.assoc {
	case LeftAssociative:
		return reduce, resolutionPicked
	case RightAssociative:
		return shift, resolutionPicked
	case NonAssociative:
		return Action{}, resolutionCleared
	default: // PrecedenceOnly
		return Action{}, resolutionUnresolved
	}
}

func resolveReduceReduce(existing, candidate Action, g *grammar.Grammar, scope *OperatorScope) (Action, resolution) {
	eLevel, eGroup, eOK := scope.productionPrecedence(g, existing.Production)
	cLevel, cGroup, cOK := scope.productionPrecedence(g, candidate.Production)
	if !eOK || !cOK || eGroup.assoc != PrecedenceOnly || cGroup.assoc != PrecedenceOnly {
		return Action{}, resolutionUnresolved
	}
	if eLevel == cLevel {
		return Action{}, resolutionUnresolved
	}
	if eLevel > cLevel {
		return existing, resolutionPicked
	}
	return candidate, resolutionPicked
}
