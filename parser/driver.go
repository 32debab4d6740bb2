package parser

import (
	"github.com/dekarrin/farkle/diag"
	"github.com/dekarrin/farkle/grammar"
	"github.com/dekarrin/farkle/grammar/lalr"
	"github.com/dekarrin/farkle/lex"
	"github.com/emirpasic/gods/stacks/arraystack"
)

type frame struct {
	state int
	value any
}

// driver is the LALR stack machine of spec.md §4.3.4. It holds its own
// mutable state (the stack, the not-yet-consumed lookahead) so a Parser
// (package-level, immutable, shareable) can drive any number of concurrent
// parsing operations, each owning one driver (spec.md §5). The state/value
// stack is a gods arraystack.Stack rather than a bare slice, following the
// same family of bookkeeping structures npillmayer/gorgo's lr package uses
// for its own LR automaton state.
type driver struct {
	g     *grammar.Grammar
	table *lalr.Table
	tok   lex.Component

	stack   *arraystack.Stack
	pending *lex.TokenizerResult
}

func newDriver(g *grammar.Grammar, table *lalr.Table, tok lex.Component) *driver {
	stack := arraystack.New()
	stack.Push(frame{state: table.Start})
	return &driver{
		g:     g,
		table: table,
		tok:   tok,
		stack: stack,
	}
}

// peekFrame returns the frame on top of the stack without popping it.
func (d *driver) peekFrame() frame {
	v, ok := d.stack.Peek()
	if !ok {
		panic("parser: driver stack is empty (grammar invariant violated)")
	}
	return v.(frame)
}

// popFrame removes and returns the frame on top of the stack.
func (d *driver) popFrame() frame {
	v, ok := d.stack.Pop()
	if !ok {
		panic("parser: driver stack is empty (grammar invariant violated)")
	}
	return v.(frame)
}

// run drives the stack machine as far as buf currently allows. It returns
// done=false to request more input (buf is not at its final block and the
// tokenizer needs more characters); done=true with a nil error and the
// final semantic value on ActionAccept; done=true with a non-nil error on
// any run-time failure (spec.md §4.3.4 step 3, §7).
func (d *driver) run(buf *lex.Buffer, sem SemanticProvider) (value any, done bool, err error) {
	for {
		if d.pending == nil {
			var tr lex.TokenizerResult
			if !d.tok.TryGetNextToken(buf, sem, &tr) {
				return nil, false, nil
			}
			if tr.Err != nil {
				return nil, true, tr.Err
			}
			// A Solo tokenizer already skips Noise terminals; Noise tokens
			// that still arrive here (a Noise group token, or any Noise
			// token from a non-Solo component) are discarded silently
			// (spec.md §4.3.4).
			if !tr.EndOfInput && tr.Symbol != 0 && d.g.Token(tr.Symbol).Noise {
				continue
			}
			cp := tr
			d.pending = &cp
		}

		tr := d.pending
		lookahead := lalr.EndOfInput
		if !tr.EndOfInput {
			lookahead = tr.Symbol
		}

		top := d.peekFrame().state
		act, hasAction := d.table.States[top].Actions[lookahead]
		if !hasAction {
			if tr.EndOfInput {
				return nil, true, diag.NewUnexpectedEOF(tr.Start)
			}
			expected := d.table.States[top].ExpectedTerminals()
			expU := make([]uint32, len(expected))
			for i, h := range expected {
				expU[i] = uint32(h)
			}
			return nil, true, diag.NewUnexpectedToken(tr.Start, uint32(lookahead), expU)
		}

		switch act.Type {
		case lalr.ActionShift:
			d.stack.Push(frame{state: act.ShiftState, value: tr.Value})
			d.pending = nil

		case lalr.ActionReduce:
			prod := d.g.Production(act.Production)
			n := len(prod.Members)
			children := make([]any, n)
			for i := n - 1; i >= 0; i-- {
				children[i] = d.popFrame().value
			}
			val, ferr := sem.Fuse(act.Production, children)
			if ferr != nil {
				return nil, true, toDiagErr(tr.Start, ferr)
			}
			onTop := d.peekFrame().state
			goTo, hasGoto := d.table.States[onTop].Gotos[prod.Head]
			if !hasGoto {
				panic("parser: LALR table has no goto for a reduced production's head (grammar invariant violated)")
			}
			d.stack.Push(frame{state: goTo, value: val})
			// tr stays pending: reducing doesn't consume the lookahead.

		case lalr.ActionAccept:
			return d.peekFrame().value, true, nil
		}
	}
}

func toDiagErr(pos diag.Position, err error) *diag.Error {
	if pae, ok := err.(*lex.ParserApplicationError); ok {
		return diag.NewUserError(pos, pae.Value)
	}
	return diag.NewUserError(pos, err.Error())
}
