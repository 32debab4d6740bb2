package lex

// ParserApplicationError is the distinguished error type spec.md §7 calls
// "ParserApplicationException": a user-supplied Transformer or Fuser (see
// package parser) raises this to signal a problem it detected, and the
// driver converts it into a diag.Error{Kind: diag.UserError} carrying
// Value rather than letting it propagate as an ordinary Go error. Any other
// error type returned from a semantic callback is treated the same way but
// with the Go error's message as the carried value, since "all other
// exceptions propagate" (spec.md §7) would otherwise force every caller to
// handle two error shapes.
type ParserApplicationError struct {
	Value any
}

func (e *ParserApplicationError) Error() string {
	if s, ok := e.Value.(string); ok {
		return s
	}
	return "parser application error"
}
