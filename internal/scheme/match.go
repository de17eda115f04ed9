package scheme

import (
	"github.com/posworks/tally/internal/catalog"
	"github.com/posworks/tally/internal/multiset"
)

// Match finds the best rule applicable to the pending multiset, or nil.
//
// A rule matches when its required items are a sub-multiset of pending AND
// it requires the most recently appended pending item. The latter is a
// contract, not an optimization: evaluation is triggered by the latest
// scan, and a rule must never fire retroactively off a scan of an item it
// does not contain.
//
// Among matching rules the winner minimizes the leftover sum — the pending
// units not consumed by the rule (multiset.DifferenceSum). Equal sums fall
// back to declaration order: the earlier rule wins. Both steps are
// deterministic for any input ordering.
func (s *Scheme) Match(pending []catalog.Item) *catalog.Rule {
	if len(pending) == 0 {
		return nil
	}
	latest := pending[len(pending)-1].ID()

	pendingSet := multiset.New()
	for _, it := range pending {
		pendingSet.Add(it.ID())
	}

	var (
		best         *catalog.Rule
		bestLeftover int
	)
	for i, rule := range s.rules {
		if !rule.Requires(latest) {
			continue
		}
		if !s.required[i].IsSubsetOf(pendingSet) {
			continue
		}
		leftover := pendingSet.DifferenceSum(s.required[i])
		// Strict < keeps the earlier declaration on ties.
		if best == nil || leftover < bestLeftover {
			best = rule
			bestLeftover = leftover
		}
	}
	return best
}
