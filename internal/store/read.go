package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// Session is one recorded checkout session.
type Session struct {
	Token             string `json:"token"`
	SchemeFingerprint string `json:"scheme_fingerprint"`
	StartedAt         string `json:"started_at"`
}

// Event is one recorded session event. Fields not meaningful for the
// event's type are zero: unknown events carry no amount or total, firing
// events no item ID.
type Event struct {
	Session    string   `json:"session"`
	Seq        int64    `json:"seq"`
	Type       string   `json:"type"`
	ItemID     string   `json:"item_id,omitempty"`
	RuleName   string   `json:"rule_name,omitempty"`
	Amount     float64  `json:"amount,omitempty"`
	Consumed   []string `json:"consumed,omitempty"`
	TotalAfter float64  `json:"total_after,omitempty"`
}

// ReadSession returns a session and its events ordered by seq.
// Returns sql.ErrNoRows when the token is unknown.
func (s *Store) ReadSession(ctx context.Context, token string) (Session, []Event, error) {
	var sess Session
	err := s.db.QueryRowContext(ctx, `
		SELECT token, scheme_fingerprint, started_at
		FROM sessions
		WHERE token = ?
	`, token).Scan(&sess.Token, &sess.SchemeFingerprint, &sess.StartedAt)
	if err != nil {
		return Session{}, nil, fmt.Errorf("read session %q: %w", token, err)
	}

	events, err := s.readEvents(ctx, token)
	if err != nil {
		return Session{}, nil, err
	}
	return sess, events, nil
}

// Sessions lists all recorded sessions in creation order. Tokens break
// ties within the same started_at second, since callers may pass their
// own tokens instead of generated UUIDv7 ones.
func (s *Store) Sessions(ctx context.Context) ([]Session, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT token, scheme_fingerprint, started_at
		FROM sessions
		ORDER BY started_at ASC, token COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	sessions := []Session{}
	for rows.Next() {
		var sess Session
		if err := rows.Scan(&sess.Token, &sess.SchemeFingerprint, &sess.StartedAt); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

func (s *Store) readEvents(ctx context.Context, token string) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT session_token, seq, type, item_id, rule_name, amount, consumed, total_after
		FROM events
		WHERE session_token = ?
		ORDER BY seq ASC
	`, token)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	events := []Event{}
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

func scanEvent(rows *sql.Rows) (Event, error) {
	var (
		ev         Event
		itemID     sql.NullString
		ruleName   sql.NullString
		amount     sql.NullFloat64
		consumed   sql.NullString
		totalAfter sql.NullFloat64
	)
	if err := rows.Scan(&ev.Session, &ev.Seq, &ev.Type, &itemID, &ruleName, &amount, &consumed, &totalAfter); err != nil {
		return Event{}, fmt.Errorf("scan event: %w", err)
	}
	ev.ItemID = itemID.String
	ev.RuleName = ruleName.String
	ev.Amount = amount.Float64
	ev.TotalAfter = totalAfter.Float64
	if consumed.Valid && consumed.String != "" {
		if err := json.Unmarshal([]byte(consumed.String), &ev.Consumed); err != nil {
			return Event{}, fmt.Errorf("decode consumed list: %w", err)
		}
	}
	return ev, nil
}
