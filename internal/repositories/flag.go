package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/desertthunder/pitchlog/internal/models"
	"github.com/desertthunder/pitchlog/internal/shared"
)

// FlagRepository implements [models.Repository] for raw [models.RawFlag] rows.
type FlagRepository struct {
	db *sql.DB
}

// NewFlagRepository creates a new [FlagRepository] with the given database connection
func NewFlagRepository(db *sql.DB) *FlagRepository {
	return &FlagRepository{db: db}
}

// Upsert inserts the flag or replaces every column of the row with the same id.
//
// Values are written as given so legacy shapes survive until repaired.
func (r *FlagRepository) Upsert(ctx context.Context, flag models.RawFlag) error {
	if flag.ID == "" {
		return fmt.Errorf("%w: flag id", shared.ErrMissingArgument)
	}
	if flag.Name == "" {
		return fmt.Errorf("%w: flag %s has no name", shared.ErrInvalidInput, flag.ID)
	}

	query := `
		INSERT INTO flags (id, name, description, order_priority, flag_values, updated_at)
		VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			order_priority = excluded.order_priority,
			flag_values = excluded.flag_values,
			updated_at = CURRENT_TIMESTAMP
	`

	_, err := r.db.ExecContext(ctx, query, flag.ID, flag.Name, flag.Description, flag.OrderPriority, columnJSON(flag.Values, "[]"))
	if err != nil {
		return fmt.Errorf("failed to upsert flag: %w", err)
	}
	return nil
}

// Get retrieves a flag by ID
func (r *FlagRepository) Get(ctx context.Context, id string) (models.RawFlag, error) {
	query := `SELECT id, name, description, order_priority, flag_values FROM flags WHERE id = ?`

	flag, err := scanFlag(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.RawFlag{}, fmt.Errorf("%w: %s", shared.ErrFlagNotFound, id)
	}
	if err != nil {
		return models.RawFlag{}, fmt.Errorf("failed to query flag: %w", err)
	}
	return flag, nil
}

// Delete removes a flag by ID. Labels keep their reference; it is dropped at normalization.
func (r *FlagRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM flags WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete flag: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrFlagNotFound, id)
	}
	return nil
}

// List retrieves every flag ordered by id; criteria is accepted for interface parity and ignored.
func (r *FlagRepository) List(ctx context.Context, criteria map[string]any) ([]models.RawFlag, error) {
	query := `SELECT id, name, description, order_priority, flag_values FROM flags ORDER BY id ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query flags: %w", err)
	}
	defer rows.Close()

	flags := []models.RawFlag{}
	for rows.Next() {
		flag, err := scanFlag(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan flag: %w", err)
		}
		flags = append(flags, flag)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return flags, nil
}

func scanFlag(s scanner) (models.RawFlag, error) {
	var (
		flag   models.RawFlag
		values string
	)
	if err := s.Scan(&flag.ID, &flag.Name, &flag.Description, &flag.OrderPriority, &values); err != nil {
		return models.RawFlag{}, err
	}
	flag.Values = rawJSON(values)
	return flag, nil
}
