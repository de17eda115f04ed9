// Package expr evaluates the arithmetic expressions that scheme entries use
// for item values and rule target amounts.
//
// The evaluator accepts numeric literals and the operators + - * / with
// parentheses, nothing else. Expressions are compiled and reduced with the
// CUE runtime rather than a hand-rolled parser; a character allowlist in
// front of the compiler keeps identifiers, strings, and any other CUE
// syntax out, so scheme files cannot reference anything beyond numbers.
package expr

import (
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// Evaluator computes a numeric result from an arithmetic expression.
// The scheme loader depends on this interface, not on the CUE-backed
// implementation.
type Evaluator interface {
	Evaluate(expression string) (float64, error)
}

// allowed is the full character set of a well-formed expression.
const allowed = "0123456789.+-*/() \t"

// CUE is an Evaluator backed by a CUE runtime context.
//
// A CUE context is cheap to keep and safe for sequential reuse; one
// evaluator typically serves a whole scheme load.
type CUE struct {
	ctx *cue.Context
}

// New returns a CUE-backed evaluator.
func New() *CUE {
	return &CUE{ctx: cuecontext.New()}
}

// Evaluate compiles and reduces the expression to a float64.
//
// Returns an error for empty input, disallowed characters, CUE syntax
// errors, and expressions that do not reduce to a concrete number
// (division by zero included).
func (e *CUE) Evaluate(expression string) (float64, error) {
	trimmed := strings.TrimSpace(expression)
	if trimmed == "" {
		return 0, fmt.Errorf("empty expression")
	}
	if i := strings.IndexFunc(trimmed, func(r rune) bool {
		return !strings.ContainsRune(allowed, r)
	}); i >= 0 {
		return 0, fmt.Errorf("expression %q: disallowed character %q", trimmed, trimmed[i])
	}
	if !strings.ContainsAny(trimmed, "0123456789") {
		return 0, fmt.Errorf("expression %q: no numeric literal", trimmed)
	}

	v := e.ctx.CompileString(trimmed)
	if err := v.Err(); err != nil {
		return 0, fmt.Errorf("expression %q: %w", trimmed, err)
	}

	f, err := v.Float64()
	if err != nil {
		return 0, fmt.Errorf("expression %q: not a number: %w", trimmed, err)
	}
	return f, nil
}
