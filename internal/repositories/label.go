package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/desertthunder/pitchlog/internal/models"
	"github.com/desertthunder/pitchlog/internal/shared"
)

// LabelRepository implements [models.Repository] for raw [models.RawLabel] rows.
type LabelRepository struct {
	db *sql.DB
}

// NewLabelRepository creates a new [LabelRepository] with the given database connection
func NewLabelRepository(db *sql.DB) *LabelRepository {
	return &LabelRepository{db: db}
}

const labelColumns = `id, name, category, hotkey, description, flags, flag_conditions, requires_pressure, requires_body_part`

// Upsert inserts the label or replaces every column of the row with the same id.
func (r *LabelRepository) Upsert(ctx context.Context, label models.RawLabel) error {
	if label.ID == "" {
		return fmt.Errorf("%w: label id", shared.ErrMissingArgument)
	}
	if label.Name == "" {
		return fmt.Errorf("%w: label %s has no name", shared.ErrInvalidInput, label.ID)
	}

	query := `
		INSERT INTO labels (` + labelColumns + `, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			category = excluded.category,
			hotkey = excluded.hotkey,
			description = excluded.description,
			flags = excluded.flags,
			flag_conditions = excluded.flag_conditions,
			requires_pressure = excluded.requires_pressure,
			requires_body_part = excluded.requires_body_part,
			updated_at = CURRENT_TIMESTAMP
	`

	_, err := r.db.ExecContext(ctx, query,
		label.ID, label.Name, label.Category, label.Hotkey, label.Description,
		columnJSON(label.Flags, "[]"), columnJSON(label.FlagConditions, "[]"),
		nullBool(label.RequiresPressure), nullBool(label.RequiresBodyPart),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert label: %w", err)
	}
	return nil
}

// Get retrieves a label by ID
func (r *LabelRepository) Get(ctx context.Context, id string) (models.RawLabel, error) {
	query := `SELECT ` + labelColumns + ` FROM labels WHERE id = ?`

	label, err := scanLabel(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.RawLabel{}, fmt.Errorf("%w: %s", shared.ErrLabelNotFound, id)
	}
	if err != nil {
		return models.RawLabel{}, fmt.Errorf("failed to query label: %w", err)
	}
	return label, nil
}

// Delete removes a label by ID
func (r *LabelRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM labels WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete label: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrLabelNotFound, id)
	}
	return nil
}

// List retrieves all labels matching the given criteria (category), ordered by id
func (r *LabelRepository) List(ctx context.Context, criteria map[string]any) ([]models.RawLabel, error) {
	query := `SELECT ` + labelColumns + ` FROM labels WHERE 1 = 1`
	args := []any{}

	if category, ok := criteria["category"].(string); ok && category != "" {
		query += " AND category = ?"
		args = append(args, category)
	}

	query += " ORDER BY id ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query labels: %w", err)
	}
	defer rows.Close()

	labels := []models.RawLabel{}
	for rows.Next() {
		label, err := scanLabel(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan label: %w", err)
		}
		labels = append(labels, label)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return labels, nil
}

// scanner is satisfied by [*sql.Row] and [*sql.Rows].
type scanner interface {
	Scan(dest ...any) error
}

func scanLabel(s scanner) (models.RawLabel, error) {
	var (
		label                      models.RawLabel
		flags, conditions          string
		requiresPressure, bodyPart sql.NullBool
	)

	err := s.Scan(&label.ID, &label.Name, &label.Category, &label.Hotkey, &label.Description,
		&flags, &conditions, &requiresPressure, &bodyPart)
	if err != nil {
		return models.RawLabel{}, err
	}

	label.Flags = rawJSON(flags)
	label.FlagConditions = rawJSON(conditions)
	label.RequiresPressure = boolPtr(requiresPressure)
	label.RequiresBodyPart = boolPtr(bodyPart)
	return label, nil
}

func nullBool(b *bool) sql.NullBool {
	if b == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *b, Valid: true}
}

func boolPtr(b sql.NullBool) *bool {
	if !b.Valid {
		return nil
	}
	v := b.Bool
	return &v
}
