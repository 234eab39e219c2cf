package session

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/pitchlog/internal/models"
	"github.com/desertthunder/pitchlog/internal/shared"
)

// LogStore persists game events. Append assigns the event's sequence.
type LogStore interface {
	Append(ctx context.Context, e *models.GameEvent) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, criteria map[string]any) ([]models.GameEvent, error)
}

// EventLog is the append-only match log. Entries are never updated, only removed by id.
type EventLog struct {
	store  LogStore
	logger *log.Logger
	now    func() time.Time
}

// NewEventLog creates an event log over store. A nil store keeps events in memory.
func NewEventLog(store LogStore, logger *log.Logger) *EventLog {
	if store == nil {
		store = NewMemoryStore()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &EventLog{store: store, logger: logger, now: time.Now}
}

// Append validates and stores e, returning it with its sequence and creation time set.
func (l *EventLog) Append(ctx context.Context, e models.GameEvent) (models.GameEvent, error) {
	if err := e.Validate(); err != nil {
		return models.GameEvent{}, fmt.Errorf("%w: %v", shared.ErrValidation, err)
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = l.now().UTC()
	}

	if err := l.store.Append(ctx, &e); err != nil {
		return models.GameEvent{}, fmt.Errorf("failed to append event: %w", err)
	}

	l.logger.Info("event logged", "seq", e.Sequence, "player", e.Player.Name, "details", e.EventDetails)
	return e, nil
}

// Remove deletes the event with the given id.
func (l *EventLog) Remove(ctx context.Context, id string) error {
	if err := l.store.Delete(ctx, id); err != nil {
		return err
	}
	l.logger.Info("event removed", "id", id)
	return nil
}

// Events lists events matching criteria (team, player_id, limit), oldest first.
func (l *EventLog) Events(ctx context.Context, criteria map[string]any) ([]models.GameEvent, error) {
	return l.store.List(ctx, criteria)
}

// MemoryStore is an in-memory [LogStore].
type MemoryStore struct {
	mu     sync.RWMutex
	seq    int
	events []models.GameEvent
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Append(ctx context.Context, e *models.GameEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.events {
		if existing.ID == e.ID {
			return fmt.Errorf("%w: duplicate event id %s", shared.ErrInvalidInput, e.ID)
		}
	}
	m.seq++
	e.Sequence = m.seq
	m.events = append(m.events, *e)
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, e := range m.events {
		if e.ID == id {
			m.events = append(m.events[:i], m.events[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", shared.ErrEventNotFound, id)
}

func (m *MemoryStore) List(ctx context.Context, criteria map[string]any) ([]models.GameEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	team, _ := criteria["team"].(string)
	playerID, _ := criteria["player_id"].(string)
	limit, _ := criteria["limit"].(int)

	out := make([]models.GameEvent, 0, len(m.events))
	for _, e := range m.events {
		if team != "" && e.Team != team {
			continue
		}
		if playerID != "" && e.Player.ID != playerID {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Sequence < out[j].Sequence })

	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}
