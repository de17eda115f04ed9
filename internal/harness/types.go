package harness

import "fmt"

// TraceEvent is one entry in a scenario's session trace. Exactly one of
// the scan/firing/unknown shapes is populated, keyed by Type.
type TraceEvent struct {
	Type       string   `json:"type"` // "scan", "firing" or "unknown"
	Seq        int64    `json:"seq"`
	ItemID     string   `json:"item_id,omitempty"`
	Kind       string   `json:"kind,omitempty"`
	RuleName   string   `json:"rule_name,omitempty"`
	Amount     float64  `json:"amount"`
	Consumed   []string `json:"consumed,omitempty"`
	TotalAfter float64  `json:"total_after"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every expect clause and assertion held.
	Pass bool `json:"pass"`

	// Trace contains all session events in logical-clock order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation failures. Empty when Pass is true.
	Errors []string `json:"errors,omitempty"`

	// FinalTotal is the checkout total after the last scan.
	FinalTotal float64 `json:"final_total"`

	// SessionToken identifies the session in the trace.
	SessionToken string `json:"session_token"`
}

// NewResult creates a passing result to accumulate into.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError records a validation failure and marks the result as failed.
func (r *Result) AddError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
	r.Pass = false
}
