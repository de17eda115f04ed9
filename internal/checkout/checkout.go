package checkout

import (
	"github.com/posworks/tally/internal/catalog"
	"github.com/posworks/tally/internal/scheme"
)

// Checkout tracks one pricing session: the ordered multiset of pending
// items (scanned but not yet consumed by a fired rule) and the running
// total, rounded to 2 decimal places after every individual mutation.
//
// A Checkout has no terminal state; it may be scanned and read
// indefinitely, and Total is valid mid-stream.
//
// Not safe for concurrent use. One Checkout per transaction.
type Checkout struct {
	scheme   *scheme.Scheme
	session  string
	clock    *Clock
	notifier Notifier

	pending []catalog.Item // scan order preserved, duplicates allowed
	total   float64
}

// Option configures a Checkout at construction.
type Option func(*Checkout)

// WithNotifier sets the observer for scan/firing/unknown events.
func WithNotifier(n Notifier) Option {
	return func(c *Checkout) { c.notifier = n }
}

// WithSessionToken fixes the session token instead of generating one.
func WithSessionToken(token string) Option {
	return func(c *Checkout) { c.session = token }
}

// WithTokenGenerator sets the generator used when no fixed token is given.
func WithTokenGenerator(g TokenGenerator) Option {
	return func(c *Checkout) { c.session = g.Generate() }
}

// New creates a checkout bound to one immutable scheme.
func New(s *scheme.Scheme, opts ...Option) *Checkout {
	c := &Checkout{
		scheme:   s,
		clock:    NewClock(),
		notifier: NopNotifier{},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.session == "" {
		c.session = UUIDv7Generator{}.Generate()
	}
	return c
}

// Scan processes one item identifier.
//
// An ID absent from the scheme is a normal real-world occurrence (unknown
// barcode): the notifier is told, nothing mutates, and the returned
// UnknownItemError lets the driver report it; the session continues.
//
// For a known item the intrinsic value is added to the total first (rounded
// immediately — round-then-accumulate). The item is only appended to
// pending when it participates in at least one rule; evaluation then runs
// against the new pending multiset and at most one rule fires per scan.
func (c *Checkout) Scan(id string) error {
	item, ok := c.scheme.Item(id)
	if !ok {
		c.notifier.UnknownItem(UnknownEvent{
			Session: c.session,
			Seq:     c.clock.Next(),
			ItemID:  id,
		})
		return &scheme.UnknownItemError{ID: id}
	}

	c.total = catalog.Round2(c.total + item.IntrinsicValue())
	c.notifier.ItemScanned(ScanEvent{
		Session:    c.session,
		Seq:        c.clock.Next(),
		ItemID:     item.ID(),
		Kind:       item.Kind(),
		Intrinsic:  item.IntrinsicValue(),
		TotalAfter: c.total,
	})

	if !c.scheme.ExistsInRule(id) {
		// The item can never trigger an adjustment; tracking it would only
		// grow the pending set.
		return nil
	}

	c.pending = append(c.pending, item)
	if rule := c.scheme.Match(c.pending); rule != nil {
		c.apply(rule)
	}
	return nil
}

// apply fires a matched rule: multi-item rules consume one pending unit per
// required unit (those units can never double-discount); single-item rules
// leave their item pending and may fire again on a later scan event.
func (c *Checkout) apply(rule *catalog.Rule) {
	var consumed []string
	if rule.Consumes() {
		for _, req := range rule.RequiredItems() {
			c.removePending(req.ID())
			consumed = append(consumed, req.ID())
		}
	}

	c.total = catalog.Round2(c.total + rule.Adjustment())
	c.notifier.RuleApplied(RuleEvent{
		Session:     c.session,
		Seq:         c.clock.Next(),
		RuleName:    rule.Name(),
		Adjustment:  rule.Adjustment(),
		ConsumedIDs: consumed,
		TotalAfter:  c.total,
	})
}

// removePending deletes the first pending unit with the given ID.
func (c *Checkout) removePending(id string) {
	for i, it := range c.pending {
		if it.ID() == id {
			c.pending = append(c.pending[:i], c.pending[i+1:]...)
			return
		}
	}
}

// Total returns the running total at 2-decimal precision.
func (c *Checkout) Total() float64 { return c.total }

// Pending returns a copy of the pending items in scan order.
func (c *Checkout) Pending() []catalog.Item {
	out := make([]catalog.Item, len(c.pending))
	copy(out, c.pending)
	return out
}

// SessionToken returns the session's audit correlation token.
func (c *Checkout) SessionToken() string { return c.session }

// Scheme returns the bound scheme.
func (c *Checkout) Scheme() *scheme.Scheme { return c.scheme }

// LastSeq returns the sequence number of the most recent session event,
// or 0 before the first scan.
func (c *Checkout) LastSeq() int64 { return c.clock.Current() }
