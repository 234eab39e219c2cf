package taxonomy

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/desertthunder/pitchlog/internal/models"
	"github.com/desertthunder/pitchlog/internal/shared"
)

// MemoryBackend keeps raw rows in memory. Rows are returned in id order.
type MemoryBackend struct {
	mu     sync.RWMutex
	labels map[string]models.RawLabel
	flags  map[string]models.RawFlag
}

func NewMemoryBackend(labels []models.RawLabel, flags []models.RawFlag) *MemoryBackend {
	m := &MemoryBackend{
		labels: make(map[string]models.RawLabel, len(labels)),
		flags:  make(map[string]models.RawFlag, len(flags)),
	}
	for _, l := range labels {
		m.labels[l.ID] = l
	}
	for _, f := range flags {
		m.flags[f.ID] = f
	}
	return m
}

func (m *MemoryBackend) FetchLabels(ctx context.Context) ([]models.RawLabel, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.RawLabel, 0, len(m.labels))
	for _, l := range m.labels {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryBackend) FetchFlags(ctx context.Context) ([]models.RawFlag, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.RawFlag, 0, len(m.flags))
	for _, f := range m.flags {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryBackend) UpsertLabel(ctx context.Context, label models.RawLabel) error {
	if label.ID == "" {
		return fmt.Errorf("%w: label id is required", shared.ErrMissingArgument)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.labels[label.ID] = label
	return nil
}

func (m *MemoryBackend) UpsertFlag(ctx context.Context, flag models.RawFlag) error {
	if flag.ID == "" {
		return fmt.Errorf("%w: flag id is required", shared.ErrMissingArgument)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.flags[flag.ID] = flag
	return nil
}

func (m *MemoryBackend) DeleteLabel(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.labels[id]; !ok {
		return fmt.Errorf("%w: %s", shared.ErrLabelNotFound, id)
	}
	delete(m.labels, id)
	return nil
}

func (m *MemoryBackend) DeleteFlag(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.flags[id]; !ok {
		return fmt.Errorf("%w: %s", shared.ErrFlagNotFound, id)
	}
	delete(m.flags, id)
	return nil
}

func (m *MemoryBackend) Fingerprint(ctx context.Context, c Collection) (string, error) {
	switch c {
	case CollectionLabels:
		rows, err := m.FetchLabels(ctx)
		if err != nil {
			return "", err
		}
		return HashRows(rows)
	case CollectionFlags:
		rows, err := m.FetchFlags(ctx)
		if err != nil {
			return "", err
		}
		return HashRows(rows)
	default:
		return "", fmt.Errorf("%w: unknown collection %q", shared.ErrInvalidArgument, c)
	}
}

// HashRows returns a hex SHA-256 of the JSON encoding of rows. Callers pass rows in a stable order.
func HashRows(rows any) (string, error) {
	data, err := json.Marshal(rows)
	if err != nil {
		return "", fmt.Errorf("failed to encode rows: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
