package checkout

import (
	"log/slog"

	"github.com/posworks/tally/internal/catalog"
)

// ScanEvent describes one accepted scan: the item's intrinsic contribution
// and the total after the mutation.
type ScanEvent struct {
	Session    string       `json:"session"`
	Seq        int64        `json:"seq"`
	ItemID     string       `json:"item_id"`
	Kind       catalog.Kind `json:"kind"`
	Intrinsic  float64      `json:"intrinsic"`
	TotalAfter float64      `json:"total_after"`
}

// RuleEvent describes one rule firing: the signed adjustment, the item
// units consumed from pending (empty for single-item rules, which never
// consume), and the total after the mutation.
type RuleEvent struct {
	Session     string   `json:"session"`
	Seq         int64    `json:"seq"`
	RuleName    string   `json:"rule_name"`
	Adjustment  float64  `json:"adjustment"`
	ConsumedIDs []string `json:"consumed_ids,omitempty"`
	TotalAfter  float64  `json:"total_after"`
}

// UnknownEvent reports a scanned ID absent from the scheme. The scan
// mutates nothing; the event exists for display and audit.
type UnknownEvent struct {
	Session string `json:"session"`
	Seq     int64  `json:"seq"`
	ItemID  string `json:"item_id"`
}

// Notifier observes checkout side effects. Implementations must not block;
// they run inline on the scan path.
type Notifier interface {
	ItemScanned(e ScanEvent)
	RuleApplied(e RuleEvent)
	UnknownItem(e UnknownEvent)
}

// NopNotifier discards all events.
type NopNotifier struct{}

func (NopNotifier) ItemScanned(ScanEvent)    {}
func (NopNotifier) RuleApplied(RuleEvent)    {}
func (NopNotifier) UnknownItem(UnknownEvent) {}

// SlogNotifier logs events with structured fields.
type SlogNotifier struct {
	Logger *slog.Logger
}

func (n SlogNotifier) logger() *slog.Logger {
	if n.Logger != nil {
		return n.Logger
	}
	return slog.Default()
}

func (n SlogNotifier) ItemScanned(e ScanEvent) {
	n.logger().Info("item scanned",
		"session", e.Session,
		"seq", e.Seq,
		"item", e.ItemID,
		"kind", e.Kind,
		"intrinsic", e.Intrinsic,
		"total", e.TotalAfter,
	)
}

func (n SlogNotifier) RuleApplied(e RuleEvent) {
	n.logger().Info("adjustment applied",
		"session", e.Session,
		"seq", e.Seq,
		"rule", e.RuleName,
		"adjustment", e.Adjustment,
		"consumed", e.ConsumedIDs,
		"total", e.TotalAfter,
	)
}

func (n SlogNotifier) UnknownItem(e UnknownEvent) {
	n.logger().Warn("unknown item skipped",
		"session", e.Session,
		"seq", e.Seq,
		"item", e.ItemID,
	)
}

// MultiNotifier fans events out to several notifiers in order.
type MultiNotifier []Notifier

func (m MultiNotifier) ItemScanned(e ScanEvent) {
	for _, n := range m {
		n.ItemScanned(e)
	}
}

func (m MultiNotifier) RuleApplied(e RuleEvent) {
	for _, n := range m {
		n.RuleApplied(e)
	}
}

func (m MultiNotifier) UnknownItem(e UnknownEvent) {
	for _, n := range m {
		n.UnknownItem(e)
	}
}
