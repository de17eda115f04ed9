package checkout

import (
	"sync"

	"github.com/google/uuid"
)

// TokenGenerator produces session tokens for audit correlation.
// Implemented by UUIDv7Generator (production) and FixedTokens (tests).
type TokenGenerator interface {
	Generate() string
}

// UUIDv7Generator issues time-sortable UUIDv7 session tokens, so recorded
// sessions sort by creation time in the audit store.
//
// Stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate returns a new hyphenated UUIDv7 string.
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// FixedTokens returns predetermined session tokens in order, enabling
// deterministic traces and golden-file comparison in tests.
type FixedTokens struct {
	mu     sync.Mutex
	tokens []string
	idx    int
}

// NewFixedTokens creates a generator that yields the given tokens in order.
// Generate panics once all tokens are consumed; exhausting the list means
// the test created more sessions than it declared.
func NewFixedTokens(tokens ...string) *FixedTokens {
	return &FixedTokens{tokens: tokens}
}

// Generate returns the next predetermined token.
func (g *FixedTokens) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.idx >= len(g.tokens) {
		panic("checkout: FixedTokens exhausted")
	}
	tok := g.tokens[g.idx]
	g.idx++
	return tok
}
