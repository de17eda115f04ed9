package catalog

import "fmt"

// DefinitionError reports a structural violation in a rule or item
// definition. Definition errors are recoverable at load time (the entry is
// skipped) but indicate a defect in the scheme source.
type DefinitionError struct {
	Name    string // rule name or item ID
	Message string
}

// Error implements the error interface.
func (e *DefinitionError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("definition error: %s: %s", e.Name, e.Message)
	}
	return fmt.Sprintf("definition error: %s", e.Message)
}

// Rule is a conditional bundle/coupon adjustment.
//
// A rule fires when its required items are a sub-multiset of the checkout's
// pending items. The adjustment is the signed delta applied to the running
// total on firing: negative for discounts, positive for surcharges.
//
// Rules are immutable after construction.
type Rule struct {
	name         string
	required     []Item  // ordered, may repeat an item to require extra units
	targetAmount float64 // total the bundle should yield
	adjustment   float64 // targetAmount − Σ intrinsic(required), rounded once
}

// NewRule builds a rule and precomputes its adjustment.
//
// The required list must be non-empty. Coupons contribute nothing to the
// prior sum (their intrinsic value is 0), so the adjustment naturally
// excludes them while products are subtracted at their listed price.
func NewRule(name string, required []Item, targetAmount float64) (*Rule, error) {
	if len(required) == 0 {
		return nil, &DefinitionError{Name: name, Message: "rule requires at least one item"}
	}

	var prior float64
	for _, it := range required {
		prior += it.IntrinsicValue()
	}

	items := make([]Item, len(required))
	copy(items, required)

	return &Rule{
		name:         name,
		required:     items,
		targetAmount: targetAmount,
		adjustment:   Round2(targetAmount - prior),
	}, nil
}

// Name returns the rule's unique label.
func (r *Rule) Name() string { return r.name }

// RequiredItems returns the required item sequence in declaration order.
// The returned slice is a copy; callers may not mutate rule state.
func (r *Rule) RequiredItems() []Item {
	items := make([]Item, len(r.required))
	copy(items, r.required)
	return items
}

// TargetAmount returns the total price the bundle should yield.
func (r *Rule) TargetAmount() float64 { return r.targetAmount }

// Adjustment returns the signed delta applied to the running total when the
// rule fires. Fixed at construction.
func (r *Rule) Adjustment() float64 { return r.adjustment }

// Consumes reports whether firing removes the required items from pending.
// Multi-item rules consume their units so they cannot double-discount;
// single-item rules leave the item pending and may reapply on later scans.
func (r *Rule) Consumes() bool { return len(r.required) > 1 }

// Requires reports whether the rule requires at least one unit of the item.
func (r *Rule) Requires(itemID string) bool {
	for _, it := range r.required {
		if it.ID() == itemID {
			return true
		}
	}
	return false
}
