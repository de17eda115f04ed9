package harness

import (
	"errors"
	"fmt"
	"math"

	"github.com/posworks/tally/internal/checkout"
	"github.com/posworks/tally/internal/expr"
	"github.com/posworks/tally/internal/scheme"
)

// totalTolerance absorbs float formatting noise when comparing totals that
// are both already rounded to 2 decimals.
const totalTolerance = 1e-9

// tracer records checkout events into a Result trace.
type tracer struct {
	c      *checkout.Checkout
	result *Result
}

func (t *tracer) ItemScanned(e checkout.ScanEvent) {
	t.result.Trace = append(t.result.Trace, TraceEvent{
		Type:       "scan",
		Seq:        e.Seq,
		ItemID:     e.ItemID,
		Kind:       string(e.Kind),
		Amount:     e.Intrinsic,
		TotalAfter: e.TotalAfter,
	})
}

func (t *tracer) RuleApplied(e checkout.RuleEvent) {
	t.result.Trace = append(t.result.Trace, TraceEvent{
		Type:       "firing",
		Seq:        e.Seq,
		RuleName:   e.RuleName,
		Amount:     e.Adjustment,
		Consumed:   e.ConsumedIDs,
		TotalAfter: e.TotalAfter,
	})
}

func (t *tracer) UnknownItem(e checkout.UnknownEvent) {
	t.result.Trace = append(t.result.Trace, TraceEvent{
		Type:       "unknown",
		Seq:        e.Seq,
		ItemID:     e.ItemID,
		TotalAfter: t.c.Total(),
	})
}

// Run executes a scenario and evaluates its expectations and assertions.
//
// A scenario failure (an expect clause or assertion that does not hold) is
// reported in the Result, not as an error; errors are reserved for broken
// scenarios (unreadable or diagnostic-laden scheme files).
func Run(scenario *Scenario) (*Result, error) {
	sch, diags, err := scheme.Load(scenario.Scheme, expr.New())
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}
	if len(diags) > 0 {
		return nil, fmt.Errorf("scenario %s: scheme has %d diagnostics, first: %s",
			scenario.Name, len(diags), diags[0])
	}

	token := scenario.SessionToken
	if token == "" {
		token = "test-session"
	}

	result := NewResult()
	result.SessionToken = token

	tr := &tracer{result: result}
	c := checkout.New(sch,
		checkout.WithSessionToken(token),
		checkout.WithNotifier(tr),
	)
	tr.c = c

	unknownCount := 0
	for i, step := range scenario.Scans {
		traceBefore := len(result.Trace)
		err := c.Scan(step.Item)
		if err != nil {
			unknownCount++
		}

		if step.Expect == nil {
			if err != nil && !isUnknown(err) {
				result.AddError("scan %d (%s): unexpected error: %v", i+1, step.Item, err)
			}
			continue
		}

		evaluateExpect(result, i+1, step, err, c, result.Trace[traceBefore:])
	}

	result.FinalTotal = c.Total()

	for _, a := range scenario.Assertions {
		evaluateAssertion(result, a, c, unknownCount)
	}

	return result, nil
}

func isUnknown(err error) bool {
	var unknown *scheme.UnknownItemError
	return errors.As(err, &unknown)
}

func evaluateExpect(result *Result, n int, step ScanStep, scanErr error, c *checkout.Checkout, events []TraceEvent) {
	e := step.Expect

	if e.Unknown {
		if scanErr == nil {
			result.AddError("scan %d (%s): expected unknown item, but it was accepted", n, step.Item)
		}
		return
	}
	if scanErr != nil {
		result.AddError("scan %d (%s): expected accepted scan, got: %v", n, step.Item, scanErr)
		return
	}

	if e.Total != nil && math.Abs(c.Total()-*e.Total) > totalTolerance {
		result.AddError("scan %d (%s): total = %.2f, want %.2f", n, step.Item, c.Total(), *e.Total)
	}

	if e.Fired != "" {
		fired := ""
		for _, ev := range events {
			if ev.Type == "firing" {
				fired = ev.RuleName
			}
		}
		if fired != e.Fired {
			result.AddError("scan %d (%s): fired rule %q, want %q", n, step.Item, fired, e.Fired)
		}
	}
}

func evaluateAssertion(result *Result, a Assertion, c *checkout.Checkout, unknownCount int) {
	switch a.Type {
	case AssertFinalTotal:
		if math.Abs(c.Total()-a.Value) > totalTolerance {
			result.AddError("final_total: total = %.2f, want %.2f", c.Total(), a.Value)
		}
	case AssertRuleFired:
		count := 0
		for _, ev := range result.Trace {
			if ev.Type == "firing" && ev.RuleName == a.Rule {
				count++
			}
		}
		if a.Count == 0 && count == 0 {
			result.AddError("rule_fired: rule %q never fired", a.Rule)
		}
		if a.Count > 0 && count != a.Count {
			result.AddError("rule_fired: rule %q fired %d times, want %d", a.Rule, count, a.Count)
		}
	case AssertPendingCount:
		if got := len(c.Pending()); got != a.Count {
			result.AddError("pending_count: %d items pending, want %d", got, a.Count)
		}
	case AssertUnknownCount:
		if unknownCount != a.Count {
			result.AddError("unknown_count: %d unknown scans, want %d", unknownCount, a.Count)
		}
	}
}
