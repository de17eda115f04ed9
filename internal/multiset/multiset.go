// Package multiset provides an ordered multiset of string IDs.
//
// The matcher's core question — "are a rule's required items all pending,
// with sufficient counts?" — is a sub-multiset test, not a set test. This
// package isolates that arithmetic so it is testable independently of the
// item model.
//
// Iteration order over distinct IDs is first-insertion order, which keeps
// every consumer deterministic without sorting.
package multiset

// Multiset maps IDs to unit counts while remembering first-insertion order.
//
// The zero value is not usable; construct with New or FromIDs.
type Multiset struct {
	counts map[string]int
	order  []string // distinct IDs in first-insertion order
}

// New returns an empty multiset.
func New() *Multiset {
	return &Multiset{counts: make(map[string]int)}
}

// FromIDs builds a multiset from a sequence of IDs, duplicates allowed.
func FromIDs(ids []string) *Multiset {
	m := New()
	for _, id := range ids {
		m.Add(id)
	}
	return m
}

// Add inserts one unit of id.
func (m *Multiset) Add(id string) {
	if _, seen := m.counts[id]; !seen {
		m.order = append(m.order, id)
	}
	m.counts[id]++
}

// Remove deletes one unit of id. Returns false if no units remain.
// A fully removed ID keeps its slot in the insertion order; Count reports 0.
func (m *Multiset) Remove(id string) bool {
	if m.counts[id] == 0 {
		return false
	}
	m.counts[id]--
	return true
}

// Count returns the number of units of id.
func (m *Multiset) Count(id string) int { return m.counts[id] }

// Units returns the total number of units across all IDs.
func (m *Multiset) Units() int {
	var n int
	for _, c := range m.counts {
		n += c
	}
	return n
}

// IDs returns the distinct IDs with at least one unit, in first-insertion
// order.
func (m *Multiset) IDs() []string {
	ids := make([]string, 0, len(m.order))
	for _, id := range m.order {
		if m.counts[id] > 0 {
			ids = append(ids, id)
		}
	}
	return ids
}

// IsSubsetOf reports whether every ID in m is present in other with at
// least m's count. An empty multiset is a subset of everything.
func (m *Multiset) IsSubsetOf(other *Multiset) bool {
	for id, c := range m.counts {
		if c > 0 && other.Count(id) < c {
			return false
		}
	}
	return true
}

// DifferenceSum returns the number of units in m left over after removing
// other's units, summed across all IDs. Deficits do not cancel surpluses:
// each ID contributes max(0, m.Count − other.Count).
//
// When other.IsSubsetOf(m) holds, this is the tie-break metric between
// competing rules: the rule leaving fewest pending units wins.
func (m *Multiset) DifferenceSum(other *Multiset) int {
	var sum int
	for id, c := range m.counts {
		if d := c - other.Count(id); d > 0 {
			sum += d
		}
	}
	return sum
}
