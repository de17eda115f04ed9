package scheme

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/posworks/tally/internal/catalog"
)

// buildScheme assembles a scheme programmatically for matcher tests.
func buildScheme(t *testing.T, items []catalog.Item, rules func(b *Builder)) *Scheme {
	t.Helper()
	b := NewBuilder()
	for _, it := range items {
		require.NoError(t, b.AddItem(it))
	}
	if rules != nil {
		rules(b)
	}
	return b.Build()
}

func pendingOf(s *Scheme, ids ...string) []catalog.Item {
	pending := make([]catalog.Item, 0, len(ids))
	for _, id := range ids {
		it, _ := s.Item(id)
		pending = append(pending, it)
	}
	return pending
}

func TestMatch_EmptyPending(t *testing.T) {
	s := buildScheme(t, []catalog.Item{catalog.NewProduct("a", 1)}, nil)
	assert.Nil(t, s.Match(nil))
}

func TestMatch_SubMultisetRequiresSufficientCounts(t *testing.T) {
	s := buildScheme(t,
		[]catalog.Item{catalog.NewProduct("a", 1)},
		func(b *Builder) {
			require.NoError(t, b.AddRule("TwoOfA", []string{"a", "a"}, 1.50))
		})

	assert.Nil(t, s.Match(pendingOf(s, "a")), "one unit is not enough")
	got := s.Match(pendingOf(s, "a", "a"))
	require.NotNil(t, got)
	assert.Equal(t, "TwoOfA", got.Name())
}

func TestMatch_RuleMustContainLatestScan(t *testing.T) {
	s := buildScheme(t,
		[]catalog.Item{
			catalog.NewProduct("a", 1),
			catalog.NewProduct("b", 2),
		},
		func(b *Builder) {
			require.NoError(t, b.AddRule("JustA", []string{"a"}, 0.50))
		})

	// The rule's items are pending, but the latest scan is "b", which the
	// rule does not contain: it must not fire retroactively.
	assert.Nil(t, s.Match(pendingOf(s, "a", "b")))

	got := s.Match(pendingOf(s, "b", "a"))
	require.NotNil(t, got)
	assert.Equal(t, "JustA", got.Name())
}

func TestMatch_TieBreakPrefersFewestLeftovers(t *testing.T) {
	s := buildScheme(t,
		[]catalog.Item{
			catalog.NewProduct("a", 1),
			catalog.NewProduct("b", 2),
			catalog.NewProduct("c", 3),
		},
		func(b *Builder) {
			require.NoError(t, b.AddRule("Small", []string{"a"}, 0.50))
			require.NoError(t, b.AddRule("Big", []string{"a", "b", "c"}, 5.00))
		})

	// Pending {c, b, a}: Small leaves 2 units, Big leaves 0. Big wins even
	// though Small is declared first.
	got := s.Match(pendingOf(s, "c", "b", "a"))
	require.NotNil(t, got)
	assert.Equal(t, "Big", got.Name())
}

func TestMatch_EqualLeftoversFallBackToDeclarationOrder(t *testing.T) {
	items := []catalog.Item{
		catalog.NewProduct("a", 1),
		catalog.NewProduct("b", 2),
	}

	first := buildScheme(t, items, func(b *Builder) {
		require.NoError(t, b.AddRule("PairOne", []string{"a", "b"}, 2.50))
		require.NoError(t, b.AddRule("PairTwo", []string{"b", "a"}, 2.00))
	})
	got := first.Match(pendingOf(first, "a", "b"))
	require.NotNil(t, got)
	assert.Equal(t, "PairOne", got.Name())

	// Flip the declaration order; the other rule must now win for the same
	// pending multiset.
	second := buildScheme(t, items, func(b *Builder) {
		require.NoError(t, b.AddRule("PairTwo", []string{"b", "a"}, 2.00))
		require.NoError(t, b.AddRule("PairOne", []string{"a", "b"}, 2.50))
	})
	got = second.Match(pendingOf(second, "a", "b"))
	require.NotNil(t, got)
	assert.Equal(t, "PairTwo", got.Name())
}

func TestMatch_NoCandidate(t *testing.T) {
	s := buildScheme(t,
		[]catalog.Item{
			catalog.NewProduct("a", 1),
			catalog.NewProduct("b", 2),
		},
		func(b *Builder) {
			require.NoError(t, b.AddRule("Pair", []string{"a", "b"}, 2.50))
		})

	assert.Nil(t, s.Match(pendingOf(s, "a")))
}

func TestBuilder_RuleBeforeItemFails(t *testing.T) {
	b := NewBuilder()
	err := b.AddRule("Orphan", []string{"missing"}, 1.00)

	var unknown *UnknownItemError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "missing", unknown.ID)
}

func TestFingerprint_StableAndOrderSensitive(t *testing.T) {
	build := func(reversed bool) *Scheme {
		b := NewBuilder()
		items := []catalog.Item{
			catalog.NewProduct("a", 1),
			catalog.NewProduct("b", 2),
		}
		if reversed {
			items[0], items[1] = items[1], items[0]
		}
		for _, it := range items {
			require.NoError(t, b.AddItem(it))
		}
		require.NoError(t, b.AddRule("Pair", []string{"a", "b"}, 2.50))
		return b.Build()
	}

	first := build(false)
	same := build(false)
	reversed := build(true)

	assert.NotEmpty(t, first.Fingerprint())
	assert.Equal(t, first.Fingerprint(), same.Fingerprint())
	assert.NotEqual(t, first.Fingerprint(), reversed.Fingerprint(),
		"declaration order is part of the scheme's identity")
}
