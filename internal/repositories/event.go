package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/desertthunder/pitchlog/internal/models"
	"github.com/desertthunder/pitchlog/internal/session"
	"github.com/desertthunder/pitchlog/internal/shared"
)

var _ session.LogStore = (*EventRepository)(nil)

// EventRepository persists the match log. Events are appended and deleted, never updated.
type EventRepository struct {
	db *sql.DB
}

// NewEventRepository creates a new [EventRepository] with the given database connection
func NewEventRepository(db *sql.DB) *EventRepository {
	return &EventRepository{db: db}
}

const eventColumns = `id, sequence, game_time, video_time, player_id, player_name, player_number, team, location,
	event_name, event_details, category, additional_details, created_at`

// Append inserts e with the next sequence number and writes the sequence back to e.
func (r *EventRepository) Append(ctx context.Context, e *models.GameEvent) error {
	if err := e.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrValidation, err)
	}

	details, err := json.Marshal(e.AdditionalDetails)
	if err != nil {
		return fmt.Errorf("failed to encode additional details: %w", err)
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	sequence, err := NextSequence(ctx, tx, "game_events")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	query := `INSERT INTO game_events (` + eventColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = tx.ExecContext(ctx, query,
		e.ID, sequence, e.GameTime, e.VideoTime,
		e.Player.ID, e.Player.Name, e.Player.Number, e.Team, e.Location,
		e.EventName, e.EventDetails, e.Category, string(details), e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert game event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit game event: %w", err)
	}

	e.Sequence = sequence
	return nil
}

// Get retrieves an event by ID
func (r *EventRepository) Get(ctx context.Context, id string) (models.GameEvent, error) {
	query := `SELECT ` + eventColumns + ` FROM game_events WHERE id = ?`

	e, err := scanEvent(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.GameEvent{}, fmt.Errorf("%w: %s", shared.ErrEventNotFound, id)
	}
	if err != nil {
		return models.GameEvent{}, fmt.Errorf("failed to query game event: %w", err)
	}
	return e, nil
}

// Delete removes an event by ID
func (r *EventRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM game_events WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete game event: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrEventNotFound, id)
	}
	return nil
}

// List retrieves events matching the given criteria, oldest first.
//
// Supported criteria: team, player_id, and limit, which keeps only the most recent events.
func (r *EventRepository) List(ctx context.Context, criteria map[string]any) ([]models.GameEvent, error) {
	query := `SELECT ` + eventColumns + ` FROM game_events WHERE 1 = 1`
	args := []any{}

	if team, ok := criteria["team"].(string); ok && team != "" {
		query += " AND team = ?"
		args = append(args, team)
	}
	if playerID, ok := criteria["player_id"].(string); ok && playerID != "" {
		query += " AND player_id = ?"
		args = append(args, playerID)
	}

	limit, _ := criteria["limit"].(int)
	if limit > 0 {
		query += " ORDER BY sequence DESC LIMIT ?"
		args = append(args, limit)
	} else {
		query += " ORDER BY sequence ASC"
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query game events: %w", err)
	}
	defer rows.Close()

	events := []models.GameEvent{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan game event: %w", err)
		}
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	if limit > 0 {
		slices.Reverse(events)
	}
	return events, nil
}

func scanEvent(s scanner) (models.GameEvent, error) {
	var (
		e       models.GameEvent
		details string
	)

	err := s.Scan(&e.ID, &e.Sequence, &e.GameTime, &e.VideoTime,
		&e.Player.ID, &e.Player.Name, &e.Player.Number, &e.Team, &e.Location,
		&e.EventName, &e.EventDetails, &e.Category, &details, &e.CreatedAt)
	if err != nil {
		return models.GameEvent{}, err
	}

	e.Player.Team = e.Team
	if details != "" {
		if err := json.Unmarshal([]byte(details), &e.AdditionalDetails); err != nil {
			return models.GameEvent{}, fmt.Errorf("failed to decode additional details: %w", err)
		}
	}
	return e, nil
}
