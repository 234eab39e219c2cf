package taxonomy

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/pitchlog/internal/models"
)

// Collection names a stored taxonomy collection.
type Collection string

const (
	CollectionLabels Collection = "labels"
	CollectionFlags  Collection = "flags"
)

// Collections lists every taxonomy collection.
var Collections = []Collection{CollectionLabels, CollectionFlags}

// ChangeOp is the kind of row change that triggered a notification.
type ChangeOp string

const (
	OpUpsert ChangeOp = "upsert"
	OpDelete ChangeOp = "delete"
	OpRemote ChangeOp = "remote" // detected by fingerprint; the row is unknown
)

// Change notifies that at least one row of a collection changed.
type Change struct {
	Collection Collection
	ID         string
	Op         ChangeOp
}

// Backend reads and writes the raw taxonomy rows.
type Backend interface {
	FetchLabels(ctx context.Context) ([]models.RawLabel, error)
	FetchFlags(ctx context.Context) ([]models.RawFlag, error)
	UpsertLabel(ctx context.Context, label models.RawLabel) error
	UpsertFlag(ctx context.Context, flag models.RawFlag) error
	DeleteLabel(ctx context.Context, id string) error
	DeleteFlag(ctx context.Context, id string) error

	// Fingerprint summarizes a collection's contents; it changes whenever any row does.
	Fingerprint(ctx context.Context, c Collection) (string, error)
}

// Source is a [Backend] that can also notify about changes.
type Source interface {
	Backend

	// Subscribe delivers a [Change] whenever the collection changes, until ctx is done.
	Subscribe(ctx context.Context, c Collection) (<-chan Change, error)
}

// Broadcaster fans change notifications out to subscribers.
//
// Each subscriber channel holds one pending notification; further sends while it is full are dropped, since a
// subscriber reloads everything regardless of how many changes it missed.
type Broadcaster struct {
	mu   sync.RWMutex
	subs map[Collection]map[chan Change]struct{}
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[Collection]map[chan Change]struct{})}
}

// Subscribe registers a subscriber for c that is removed when ctx is done.
func (b *Broadcaster) Subscribe(ctx context.Context, c Collection) <-chan Change {
	ch := make(chan Change, 1)

	b.mu.Lock()
	if b.subs[c] == nil {
		b.subs[c] = make(map[chan Change]struct{})
	}
	b.subs[c][ch] = struct{}{}
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.subs[c], ch)
		b.mu.Unlock()
	}()

	return ch
}

// Publish notifies every subscriber of the change's collection without blocking.
func (b *Broadcaster) Publish(change Change) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for ch := range b.subs[change.Collection] {
		select {
		case ch <- change:
		default:
		}
	}
}

// Subscribers returns the number of subscribers for c.
func (b *Broadcaster) Subscribers(c Collection) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[c])
}

// WatchedSource adds change notifications to a [Backend].
//
// Writes made through the WatchedSource are published immediately. Writes made by other processes are found by
// polling each collection's fingerprint every interval; a zero interval disables polling.
type WatchedSource struct {
	Backend

	bus      *Broadcaster
	interval time.Duration
	logger   *log.Logger
}

// NewWatchedSource wraps backend. A nil logger uses the default logger.
func NewWatchedSource(backend Backend, interval time.Duration, logger *log.Logger) *WatchedSource {
	if logger == nil {
		logger = log.Default()
	}
	return &WatchedSource{Backend: backend, bus: NewBroadcaster(), interval: interval, logger: logger}
}

func (s *WatchedSource) UpsertLabel(ctx context.Context, label models.RawLabel) error {
	if err := s.Backend.UpsertLabel(ctx, label); err != nil {
		return err
	}
	s.bus.Publish(Change{Collection: CollectionLabels, ID: label.ID, Op: OpUpsert})
	return nil
}

func (s *WatchedSource) UpsertFlag(ctx context.Context, flag models.RawFlag) error {
	if err := s.Backend.UpsertFlag(ctx, flag); err != nil {
		return err
	}
	s.bus.Publish(Change{Collection: CollectionFlags, ID: flag.ID, Op: OpUpsert})
	return nil
}

func (s *WatchedSource) DeleteLabel(ctx context.Context, id string) error {
	if err := s.Backend.DeleteLabel(ctx, id); err != nil {
		return err
	}
	s.bus.Publish(Change{Collection: CollectionLabels, ID: id, Op: OpDelete})
	return nil
}

func (s *WatchedSource) DeleteFlag(ctx context.Context, id string) error {
	if err := s.Backend.DeleteFlag(ctx, id); err != nil {
		return err
	}
	s.bus.Publish(Change{Collection: CollectionFlags, ID: id, Op: OpDelete})
	return nil
}

// Subscribe implements [Source].
func (s *WatchedSource) Subscribe(ctx context.Context, c Collection) (<-chan Change, error) {
	if s.interval <= 0 {
		return s.bus.Subscribe(ctx, c), nil
	}

	last, err := s.Fingerprint(ctx, c)
	if err != nil {
		return nil, err
	}
	local := s.bus.Subscribe(ctx, c)

	out := make(chan Change, 1)
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		notify := func(change Change) {
			select {
			case out <- change:
			default:
			}
		}

		for {
			select {
			case <-ctx.Done():
				return
			case change := <-local:
				notify(change)
				if fp, err := s.Fingerprint(ctx, c); err == nil {
					last = fp
				}
			case <-ticker.C:
				fp, err := s.Fingerprint(ctx, c)
				if err != nil {
					s.logger.Warn("fingerprint poll failed", "collection", c, "error", err)
					continue
				}
				if fp != last {
					last = fp
					notify(Change{Collection: c, Op: OpRemote})
				}
			}
		}
	}()

	return out, nil
}
