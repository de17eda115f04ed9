package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// BeginSession records the start of a checkout session.
// Uses ON CONFLICT(token) DO NOTHING for idempotency, so re-opening a
// recorded session token is harmless.
func (s *Store) BeginSession(ctx context.Context, token, schemeFingerprint string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (token, scheme_fingerprint, started_at)
		VALUES (?, ?, ?)
		ON CONFLICT(token) DO NOTHING
	`,
		token,
		schemeFingerprint,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("begin session: %w", err)
	}
	return nil
}

// WriteScan appends an accepted-scan event.
// Duplicate (session, seq) pairs are silently ignored; the logical clock
// never reuses a seq, so a conflict can only be a replayed write.
func (s *Store) WriteScan(ctx context.Context, session string, seq int64, itemID string, intrinsic, totalAfter float64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO events (session_token, seq, type, item_id, amount, total_after)
		VALUES (?, ?, 'scan', ?, ?, ?)
		ON CONFLICT(session_token, seq) DO NOTHING
	`,
		session, seq, itemID, intrinsic, totalAfter,
	)
	if err != nil {
		return fmt.Errorf("write scan: %w", err)
	}
	return nil
}

// WriteFiring appends a rule-firing event. The consumed item IDs are
// stored as a JSON array so the exact units removed from pending survive
// in the trace.
func (s *Store) WriteFiring(ctx context.Context, session string, seq int64, ruleName string, adjustment float64, consumed []string, totalAfter float64) error {
	consumedJSON, err := json.Marshal(consumed)
	if err != nil {
		return fmt.Errorf("write firing: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO events (session_token, seq, type, rule_name, amount, consumed, total_after)
		VALUES (?, ?, 'firing', ?, ?, ?, ?)
		ON CONFLICT(session_token, seq) DO NOTHING
	`,
		session, seq, ruleName, adjustment, string(consumedJSON), totalAfter,
	)
	if err != nil {
		return fmt.Errorf("write firing: %w", err)
	}
	return nil
}

// WriteUnknown appends an unknown-item event. No amount or total is
// recorded because the scan mutated nothing.
func (s *Store) WriteUnknown(ctx context.Context, session string, seq int64, itemID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO events (session_token, seq, type, item_id)
		VALUES (?, ?, 'unknown', ?)
		ON CONFLICT(session_token, seq) DO NOTHING
	`,
		session, seq, itemID,
	)
	if err != nil {
		return fmt.Errorf("write unknown: %w", err)
	}
	return nil
}
