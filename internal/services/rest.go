package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/desertthunder/pitchlog/internal/models"
	"github.com/desertthunder/pitchlog/internal/shared"
	"github.com/desertthunder/pitchlog/internal/taxonomy"
)

const restPrefix = "/rest/v1/"

// RESTBackend reads and writes the taxonomy collections of a PostgREST-style hosted database.
type RESTBackend struct {
	api *APIService
}

// NewRESTBackend creates a [RESTBackend] over api.
func NewRESTBackend(api *APIService) *RESTBackend {
	return &RESTBackend{api: api}
}

func (b *RESTBackend) FetchLabels(ctx context.Context) ([]models.RawLabel, error) {
	var labels []models.RawLabel
	if err := b.fetch(ctx, taxonomy.CollectionLabels, &labels); err != nil {
		return nil, err
	}
	return labels, nil
}

func (b *RESTBackend) FetchFlags(ctx context.Context) ([]models.RawFlag, error) {
	var flags []models.RawFlag
	if err := b.fetch(ctx, taxonomy.CollectionFlags, &flags); err != nil {
		return nil, err
	}
	return flags, nil
}

func (b *RESTBackend) UpsertLabel(ctx context.Context, label models.RawLabel) error {
	if label.ID == "" {
		return fmt.Errorf("%w: label id", shared.ErrMissingArgument)
	}
	return b.upsert(ctx, taxonomy.CollectionLabels, []models.RawLabel{label})
}

func (b *RESTBackend) UpsertFlag(ctx context.Context, flag models.RawFlag) error {
	if flag.ID == "" {
		return fmt.Errorf("%w: flag id", shared.ErrMissingArgument)
	}
	return b.upsert(ctx, taxonomy.CollectionFlags, []models.RawFlag{flag})
}

func (b *RESTBackend) DeleteLabel(ctx context.Context, id string) error {
	return b.delete(ctx, taxonomy.CollectionLabels, id, shared.ErrLabelNotFound)
}

func (b *RESTBackend) DeleteFlag(ctx context.Context, id string) error {
	return b.delete(ctx, taxonomy.CollectionFlags, id, shared.ErrFlagNotFound)
}

// Fingerprint hashes the rows currently served for c.
func (b *RESTBackend) Fingerprint(ctx context.Context, c taxonomy.Collection) (string, error) {
	var rows []json.RawMessage
	if err := b.fetch(ctx, c, &rows); err != nil {
		return "", err
	}
	return taxonomy.HashRows(rows)
}

func (b *RESTBackend) fetch(ctx context.Context, c taxonomy.Collection, into any) error {
	if err := checkCollection(c); err != nil {
		return err
	}

	resp, err := b.api.Get(ctx, restPrefix+string(c)+"?select=*&order=id.asc")
	if err != nil {
		return err
	}
	if err := resp.Err(); err != nil {
		return fmt.Errorf("failed to fetch %s: %w", c, err)
	}
	return resp.Decode(into)
}

// upsert replaces whole rows keyed by id.
func (b *RESTBackend) upsert(ctx context.Context, c taxonomy.Collection, rows any) error {
	data, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", c, err)
	}

	header := http.Header{}
	header.Set("Prefer", "resolution=merge-duplicates,return=minimal")

	resp, err := b.api.Post(ctx, restPrefix+string(c)+"?on_conflict=id", data, header)
	if err != nil {
		return err
	}
	if err := resp.Err(); err != nil {
		return fmt.Errorf("failed to upsert %s: %w", c, err)
	}
	return nil
}

func (b *RESTBackend) delete(ctx context.Context, c taxonomy.Collection, id string, notFound error) error {
	header := http.Header{}
	header.Set("Prefer", "return=representation")

	resp, err := b.api.Delete(ctx, restPrefix+string(c)+"?id=eq."+url.QueryEscape(id), header)
	if err != nil {
		return err
	}
	if err := resp.Err(); err != nil {
		return fmt.Errorf("failed to delete from %s: %w", c, err)
	}

	var deleted []json.RawMessage
	if err := resp.Decode(&deleted); err != nil {
		return err
	}
	if len(deleted) == 0 {
		return fmt.Errorf("%w: %s", notFound, id)
	}
	return nil
}

func checkCollection(c taxonomy.Collection) error {
	switch c {
	case taxonomy.CollectionLabels, taxonomy.CollectionFlags:
		return nil
	default:
		return fmt.Errorf("%w: unknown collection %q", shared.ErrInvalidArgument, c)
	}
}
