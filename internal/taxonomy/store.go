package taxonomy

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/pitchlog/internal/shared"
	"golang.org/x/time/rate"
)

// DefaultReloadsPerSecond bounds how often change notifications can trigger a reload.
const DefaultReloadsPerSecond = 2.0

// FetchError reports which collection failed to load. It matches [shared.ErrDataFetch].
type FetchError struct {
	Collection Collection
	Err        error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch %s: %v", e.Collection, e.Err)
}

func (e *FetchError) Unwrap() []error {
	return []error{shared.ErrDataFetch, e.Err}
}

// ReloadFunc receives the snapshot after every load attempt. On failure err is set and snap is the previous snapshot,
// which may be nil.
type ReloadFunc func(snap *Snapshot, err error)

// Store loads the taxonomy from a [Source] and keeps the last good [Snapshot].
type Store struct {
	source  Source
	logger  *log.Logger
	limiter *rate.Limiter
	now     func() time.Time

	mu        sync.RWMutex
	current   *Snapshot
	listeners []ReloadFunc
}

// StoreOption configures a [Store].
type StoreOption func(*Store)

// WithStoreLogger sets the logger used for reload warnings.
func WithStoreLogger(logger *log.Logger) StoreOption {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithReloadRate sets the maximum reloads per second triggered by notifications.
func WithReloadRate(perSecond float64) StoreOption {
	return func(s *Store) {
		if perSecond > 0 {
			s.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		}
	}
}

// WithStoreClock overrides the time source used to stamp snapshots.
func WithStoreClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

func NewStore(source Source, opts ...StoreOption) *Store {
	s := &Store{
		source:  source,
		logger:  log.Default(),
		limiter: rate.NewLimiter(rate.Limit(DefaultReloadsPerSecond), 1),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Source returns the store's backing source.
func (s *Store) Source() Source {
	return s.source
}

// Snapshot returns the last successfully loaded snapshot, or nil before the first load.
func (s *Store) Snapshot() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// OnReload registers fn to run after every load attempt.
func (s *Store) OnReload(fn ReloadFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Load fetches and normalizes both collections.
//
// If either fetch fails the previous snapshot stays current and the error wraps [shared.ErrDataFetch].
func (s *Store) Load(ctx context.Context) (*Snapshot, error) {
	rawLabels, labelErr := s.source.FetchLabels(ctx)
	rawFlags, flagErr := s.source.FetchFlags(ctx)

	var errs []error
	if labelErr != nil {
		errs = append(errs, &FetchError{Collection: CollectionLabels, Err: labelErr})
	}
	if flagErr != nil {
		errs = append(errs, &FetchError{Collection: CollectionFlags, Err: flagErr})
	}
	if err := errors.Join(errs...); err != nil {
		prev := s.Snapshot()
		s.logger.Warn("taxonomy load failed, keeping previous snapshot", "error", err, "stale", prev != nil)
		s.notify(prev, err)
		return prev, err
	}

	snap := Normalize(rawLabels, rawFlags)
	snap.LoadedAt = s.now()

	s.mu.Lock()
	s.current = snap
	s.mu.Unlock()

	s.logger.Debug("taxonomy loaded", "labels", len(snap.Labels), "flags", len(snap.Flags), "issues", len(snap.Issues))
	s.notify(snap, nil)
	return snap, nil
}

func (s *Store) notify(snap *Snapshot, err error) {
	s.mu.RLock()
	listeners := make([]ReloadFunc, len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.RUnlock()

	for _, fn := range listeners {
		fn(snap, err)
	}
}

// Watch reloads both collections in full whenever either reports a change, until ctx is done.
//
// Notifications arriving while a reload is throttled are folded into that reload.
func (s *Store) Watch(ctx context.Context) error {
	labels, err := s.source.Subscribe(ctx, CollectionLabels)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", CollectionLabels, err)
	}
	flags, err := s.source.Subscribe(ctx, CollectionFlags)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", CollectionFlags, err)
	}

	for {
		var change Change
		select {
		case <-ctx.Done():
			return ctx.Err()
		case change = <-labels:
		case change = <-flags:
		}

		if err := s.limiter.Wait(ctx); err != nil {
			return ctx.Err()
		}
		drain(labels)
		drain(flags)

		s.logger.Debug("taxonomy changed, reloading", "collection", change.Collection, "id", change.ID, "op", change.Op)
		if _, err := s.Load(ctx); err != nil && ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

func drain(ch <-chan Change) {
	for {
		select {
		case <-ch:
		default:
			return
		}
	}
}
