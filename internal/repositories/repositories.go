// package repositories provides persistence layer implementations for the taxonomy and the match log.
//
// Taxonomy rows are stored exactly as authored; JSON columns are returned as raw JSON so normalization
// and maintenance see legacy shapes too.
package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// rowQuerier is satisfied by both [*sql.DB] and [*sql.Tx].
type rowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// NextSequence atomically increments and returns the next sequence number for the given table.
//
// Sequence numbers give the match log a stable, human-readable order independent of ids and timestamps.
func NextSequence(ctx context.Context, q rowQuerier, table string) (int, error) {
	query := fmt.Sprintf("UPDATE %s_sequence SET value = value + 1 WHERE id = 1 RETURNING value", table)

	var sequence int
	if err := q.QueryRowContext(ctx, query).Scan(&sequence); err != nil {
		return 0, fmt.Errorf("failed to increment sequence: %w", err)
	}
	return sequence, nil
}

// rawJSON turns a stored JSON column into a [json.RawMessage].
//
// Text that is not valid JSON (hand-edited rows) is returned as a JSON string so it still reaches normalization.
func rawJSON(text string) json.RawMessage {
	if text == "" {
		return nil
	}
	if json.Valid([]byte(text)) {
		return json.RawMessage(text)
	}
	quoted, _ := json.Marshal(text)
	return quoted
}

// columnJSON is the stored text for a raw JSON field, defaulting to fallback when empty.
func columnJSON(raw json.RawMessage, fallback string) string {
	if len(raw) == 0 {
		return fallback
	}
	return string(raw)
}
