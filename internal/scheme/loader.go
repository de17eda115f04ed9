package scheme

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/posworks/tally/internal/catalog"
	"github.com/posworks/tally/internal/expr"
)

// Diagnostic codes for skipped scheme entries.
const (
	CodeMalformedEntry  = "MALFORMED_ENTRY"  // bad separator, missing braces, bad expression
	CodeUnknownItem     = "UNKNOWN_ITEM"     // rule references an undefined item
	CodeDefinitionError = "DEFINITION_ERROR" // structural violation (empty rule, duplicate, bad fraction)
)

// Diagnostic reports one skipped scheme line. Loading always continues with
// the remaining lines.
type Diagnostic struct {
	Line    int    `json:"line"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// String renders the diagnostic for human-readable output.
func (d Diagnostic) String() string {
	return fmt.Sprintf("line %d [%s]: %s", d.Line, d.Code, d.Message)
}

// couponPrefix marks coupon IDs in the scheme mini-language.
const couponPrefix = "C"

// braceRE extracts {token} groups from keys, item lists, and expressions.
var braceRE = regexp.MustCompile(`\{([^}]+)\}`)

// Load reads a scheme file. The returned error is non-nil only when the
// file itself cannot be read; entry-level problems come back as
// diagnostics.
func Load(path string, ev expr.Evaluator) (*Scheme, []Diagnostic, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open scheme: %w", err)
	}
	defer f.Close()
	return Parse(f, ev)
}

// Parse reads scheme entries from r, one per line:
//
//	{KEY} -> VALUE
//
// Blank lines and lines starting with # are ignored. A VALUE without '='
// defines an item: a coupon when the ID begins with "C" (VALUE is its
// discount fraction), otherwise a product (VALUE is its price). A VALUE
// with '=' defines a rule: ITEMS=EXPR, where ITEMS is one or more {itemId}
// tokens (repeats allowed) and EXPR is an arithmetic expression in which
// {itemId} tokens are substituted with the item's nominal value before
// evaluation.
//
// Items must be declared before any rule referencing them.
func Parse(r io.Reader, ev expr.Evaluator) (*Scheme, []Diagnostic, error) {
	b := NewBuilder()
	var diags []Diagnostic

	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		if d := parseEntry(b, ev, text); d != nil {
			d.Line = line
			diags = append(diags, *d)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, diags, fmt.Errorf("read scheme: %w", err)
	}

	return b.Build(), diags, nil
}

// parseEntry processes one non-blank line, registering an item or rule on
// the builder. Returns a diagnostic (without line number) when the entry is
// skipped.
func parseEntry(b *Builder, ev expr.Evaluator, text string) *Diagnostic {
	key, value, found := strings.Cut(text, "->")
	if !found {
		return &Diagnostic{Code: CodeMalformedEntry, Message: "missing '->' separator"}
	}
	key = strings.TrimSpace(key)
	value = strings.TrimSpace(value)

	keyGroups := braceRE.FindAllStringSubmatch(key, -1)
	if len(keyGroups) != 1 {
		return &Diagnostic{Code: CodeMalformedEntry, Message: fmt.Sprintf("key %q: expected a single {braced} group", key)}
	}
	name := keyGroups[0][1]

	if itemsSpec, exprSpec, isRule := strings.Cut(value, "="); isRule {
		return parseRule(b, ev, name, itemsSpec, exprSpec)
	}
	return parseItem(b, ev, name, value)
}

func parseItem(b *Builder, ev expr.Evaluator, id, value string) *Diagnostic {
	v, err := ev.Evaluate(value)
	if err != nil {
		return &Diagnostic{Code: CodeMalformedEntry, Message: fmt.Sprintf("item %s: %v", id, err)}
	}

	var item catalog.Item
	if strings.HasPrefix(id, couponPrefix) {
		if v < 0 || v > 1 {
			return &Diagnostic{
				Code:    CodeDefinitionError,
				Message: fmt.Sprintf("coupon %s: fraction %g outside [0, 1]", id, v),
			}
		}
		item = catalog.NewCoupon(id, v)
	} else {
		item = catalog.NewProduct(id, v)
	}

	if err := b.AddItem(item); err != nil {
		return diagnosticFor(err)
	}
	return nil
}

func parseRule(b *Builder, ev expr.Evaluator, name, itemsSpec, exprSpec string) *Diagnostic {
	groups := braceRE.FindAllStringSubmatch(strings.TrimSpace(itemsSpec), -1)
	if len(groups) == 0 {
		return &Diagnostic{
			Code:    CodeDefinitionError,
			Message: fmt.Sprintf("rule %s: requires at least one {itemId}", name),
		}
	}
	ids := make([]string, 0, len(groups))
	for _, g := range groups {
		ids = append(ids, g[1])
	}

	substituted, err := substituteRefs(b, exprSpec)
	if err != nil {
		return diagnosticFor(fmt.Errorf("rule %s: %w", name, err))
	}
	target, err := ev.Evaluate(substituted)
	if err != nil {
		return &Diagnostic{Code: CodeMalformedEntry, Message: fmt.Sprintf("rule %s: %v", name, err)}
	}

	if err := b.AddRule(name, ids, target); err != nil {
		return diagnosticFor(err)
	}
	return nil
}

// substituteRefs replaces every {itemId} token in an expression with the
// item's nominal value: listed price for products, discount fraction for
// coupons.
func substituteRefs(b *Builder, expression string) (string, error) {
	var unknown *UnknownItemError
	out := braceRE.ReplaceAllStringFunc(expression, func(tok string) string {
		id := tok[1 : len(tok)-1]
		it, ok := b.s.index[id]
		if !ok {
			if unknown == nil {
				unknown = &UnknownItemError{ID: id}
			}
			return tok
		}
		return strconv.FormatFloat(it.NominalValue(), 'f', -1, 64)
	})
	if unknown != nil {
		return "", unknown
	}
	return out, nil
}

// diagnosticFor maps builder errors onto diagnostic codes.
func diagnosticFor(err error) *Diagnostic {
	var unknown *UnknownItemError
	if errors.As(err, &unknown) {
		return &Diagnostic{Code: CodeUnknownItem, Message: err.Error()}
	}
	var def *catalog.DefinitionError
	if errors.As(err, &def) {
		return &Diagnostic{Code: CodeDefinitionError, Message: err.Error()}
	}
	return &Diagnostic{Code: CodeMalformedEntry, Message: err.Error()}
}
