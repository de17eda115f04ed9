package scheme

import (
	"fmt"

	"github.com/posworks/tally/internal/catalog"
	"github.com/posworks/tally/internal/multiset"
)

// UnknownItemError reports an ID absent from the scheme's item catalog,
// either a scanned code or a rule referencing an undefined item.
// Recoverable: the scan or definition is skipped and processing continues.
type UnknownItemError struct {
	ID string
}

// Error implements the error interface.
func (e *UnknownItemError) Error() string {
	return fmt.Sprintf("unknown item %q", e.ID)
}

// Scheme is the immutable catalog of items and pricing rules.
//
// Rules are kept in declaration order; the matcher's final tie-break
// depends on that order never changing after construction.
type Scheme struct {
	index     map[string]catalog.Item // ID → item, built once for O(1) lookup
	itemOrder []string                // item IDs in declaration order
	rules     []*catalog.Rule         // declaration order
	required  []*multiset.Multiset    // per-rule required counts, aligned with rules
	inRule    map[string]struct{}     // IDs appearing in at least one rule

	fingerprint string
}

// Item returns the item with the given ID. The second return is false when
// the ID is not in the catalog; callers treat that as a recoverable
// condition, not a failure of the scheme.
func (s *Scheme) Item(id string) (catalog.Item, bool) {
	it, ok := s.index[id]
	return it, ok
}

// ExistsInRule reports whether the item appears in the required items of at
// least one rule. The checkout uses this to avoid tracking items that can
// never trigger an adjustment.
func (s *Scheme) ExistsInRule(id string) bool {
	_, ok := s.inRule[id]
	return ok
}

// Items returns the catalog items in declaration order.
func (s *Scheme) Items() []catalog.Item {
	items := make([]catalog.Item, 0, len(s.itemOrder))
	for _, id := range s.itemOrder {
		items = append(items, s.index[id])
	}
	return items
}

// Rules returns the rules in declaration order. The slice is a copy.
func (s *Scheme) Rules() []*catalog.Rule {
	rules := make([]*catalog.Rule, len(s.rules))
	copy(rules, s.rules)
	return rules
}

// Fingerprint returns the scheme's content hash. See fingerprint.go.
func (s *Scheme) Fingerprint() string { return s.fingerprint }

// Builder accumulates items and rules in declaration order and freezes them
// into a Scheme. Items must be added before any rule that references them.
type Builder struct {
	s         *Scheme
	ruleNames map[string]struct{}
	built     bool
}

// NewBuilder returns an empty scheme builder.
func NewBuilder() *Builder {
	return &Builder{
		s: &Scheme{
			index:  make(map[string]catalog.Item),
			inRule: make(map[string]struct{}),
		},
		ruleNames: make(map[string]struct{}),
	}
}

// AddItem registers an item. Duplicate IDs are definition errors; the first
// declaration wins.
func (b *Builder) AddItem(it catalog.Item) error {
	if _, dup := b.s.index[it.ID()]; dup {
		return &catalog.DefinitionError{Name: it.ID(), Message: "duplicate item id"}
	}
	b.s.index[it.ID()] = it
	b.s.itemOrder = append(b.s.itemOrder, it.ID())
	return nil
}

// AddRule registers a rule requiring the items named by ids (repeats allowed
// to require multiple units). Every referenced item must already be in the
// catalog. Duplicate rule names are definition errors.
func (b *Builder) AddRule(name string, ids []string, targetAmount float64) error {
	if _, dup := b.ruleNames[name]; dup {
		return &catalog.DefinitionError{Name: name, Message: "duplicate rule name"}
	}

	required := make([]catalog.Item, 0, len(ids))
	for _, id := range ids {
		it, ok := b.s.index[id]
		if !ok {
			return &UnknownItemError{ID: id}
		}
		required = append(required, it)
	}

	rule, err := catalog.NewRule(name, required, targetAmount)
	if err != nil {
		return err
	}

	b.ruleNames[name] = struct{}{}
	b.s.rules = append(b.s.rules, rule)
	b.s.required = append(b.s.required, multiset.FromIDs(ids))
	for _, id := range ids {
		b.s.inRule[id] = struct{}{}
	}
	return nil
}

// Build freezes the accumulated entries into an immutable Scheme and
// computes its fingerprint. The builder must not be reused afterwards.
func (b *Builder) Build() *Scheme {
	if b.built {
		panic("scheme: Builder reused after Build")
	}
	b.built = true
	b.s.fingerprint = fingerprint(b.s)
	return b.s
}
