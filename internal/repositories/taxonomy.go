package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/desertthunder/pitchlog/internal/models"
	"github.com/desertthunder/pitchlog/internal/shared"
	"github.com/desertthunder/pitchlog/internal/taxonomy"
)

// TaxonomyBackend serves both taxonomy collections from SQLite as a [taxonomy.Backend].
type TaxonomyBackend struct {
	Labels *LabelRepository
	Flags  *FlagRepository
}

// NewTaxonomyBackend creates a [TaxonomyBackend] over db.
func NewTaxonomyBackend(db *sql.DB) *TaxonomyBackend {
	return &TaxonomyBackend{Labels: NewLabelRepository(db), Flags: NewFlagRepository(db)}
}

func (b *TaxonomyBackend) FetchLabels(ctx context.Context) ([]models.RawLabel, error) {
	return b.Labels.List(ctx, nil)
}

func (b *TaxonomyBackend) FetchFlags(ctx context.Context) ([]models.RawFlag, error) {
	return b.Flags.List(ctx, nil)
}

func (b *TaxonomyBackend) UpsertLabel(ctx context.Context, label models.RawLabel) error {
	return b.Labels.Upsert(ctx, label)
}

func (b *TaxonomyBackend) UpsertFlag(ctx context.Context, flag models.RawFlag) error {
	return b.Flags.Upsert(ctx, flag)
}

func (b *TaxonomyBackend) DeleteLabel(ctx context.Context, id string) error {
	return b.Labels.Delete(ctx, id)
}

func (b *TaxonomyBackend) DeleteFlag(ctx context.Context, id string) error {
	return b.Flags.Delete(ctx, id)
}

// Fingerprint hashes the collection's rows so writes from other processes are noticed by polling.
func (b *TaxonomyBackend) Fingerprint(ctx context.Context, c taxonomy.Collection) (string, error) {
	var (
		rows any
		err  error
	)
	switch c {
	case taxonomy.CollectionLabels:
		rows, err = b.FetchLabels(ctx)
	case taxonomy.CollectionFlags:
		rows, err = b.FetchFlags(ctx)
	default:
		return "", fmt.Errorf("%w: unknown collection %q", shared.ErrInvalidArgument, c)
	}
	if err != nil {
		return "", err
	}
	return taxonomy.HashRows(rows)
}
