// Package store holds the per-resource collection caches shared by every consumer.
package store

import (
	"context"
	"errors"
	"net/url"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/diewo77/backoffice/internal/metrics"
)

// State is the request state of a store.
type State int

const (
	Idle State = iota
	Loading
	Ready
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// ErrNoStatus is returned by ChangeStatus on a resource without a status endpoint.
var ErrNoStatus = errors.New("store: resource has no status endpoint")

// Identifiable is implemented by every read shape.
type Identifiable interface {
	GetID() uint
}

// Backend is the remote contract a store drives. *api.Resource satisfies it.
type Backend[R any, W any] interface {
	List(ctx context.Context, query url.Values) ([]R, error)
	Get(ctx context.Context, id uint) (R, error)
	Create(ctx context.Context, payload W) (R, error)
	Update(ctx context.Context, id uint, payload W) (R, error)
	Delete(ctx context.Context, id uint) error
}

// StatusBackend is implemented by backends of document-bearing resources.
type StatusBackend[R any] interface {
	SetStatus(ctx context.Context, id uint, status string) (R, error)
	OverrideStatus(ctx context.Context, id uint, status, reason string) (R, error)
}

// Store caches one resource collection. Results are merged in the order responses
// arrive; concurrent updates of the same item are not serialized and the last
// response to resolve wins. A failed call keeps the last known good collection.
// When a failure and a success overlap, the state follows whichever resolves last,
// so a failure can be hidden from State and Err; its caller still receives the error.
type Store[R Identifiable, W any] struct {
	name    string
	backend Backend[R, W]
	logger  *zap.Logger
	metrics *metrics.Metrics
	group   singleflight.Group

	mu       sync.RWMutex
	items    []R
	state    State
	err      error
	loaded   bool
	pending  int
	selected uint
}

type Option func(*options)

type options struct {
	logger  *zap.Logger
	metrics *metrics.Metrics
}

func WithLogger(l *zap.Logger) Option { return func(o *options) { o.logger = l } }

func WithMetrics(m *metrics.Metrics) Option { return func(o *options) { o.metrics = m } }

func New[R Identifiable, W any](name string, backend Backend[R, W], opts ...Option) *Store[R, W] {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	return &Store[R, W]{
		name:    name,
		backend: backend,
		logger:  o.logger.With(zap.String("store", name)),
		metrics: o.metrics,
	}
}

func (s *Store[R, W]) Name() string { return s.name }

func (s *Store[R, W]) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Err returns the error of the last failed call, nil after a success.
func (s *Store[R, W]) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// Loaded reports whether a full fetch has succeeded at least once.
func (s *Store[R, W]) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Items returns a copy of the collection.
func (s *Store[R, W]) Items() []R {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]R, len(s.items))
	copy(out, s.items)
	return out
}

func (s *Store[R, W]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Lookup returns the cached item with identifier id.
func (s *Store[R, W]) Lookup(id uint) (R, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOf(id); i >= 0 {
		return s.items[i], true
	}
	var zero R
	return zero, false
}

// Filter returns the cached items for which keep returns true.
func (s *Store[R, W]) Filter(keep func(R) bool) []R {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []R
	for _, it := range s.items {
		if keep(it) {
			out = append(out, it)
		}
	}
	return out
}

// Select marks id as the current item. Zero clears the selection.
func (s *Store[R, W]) Select(id uint) {
	s.mu.Lock()
	s.selected = id
	s.mu.Unlock()
}

// Selected resolves the selection against the collection, so it can never
// drift from the cached item.
func (s *Store[R, W]) Selected() (R, bool) {
	s.mu.RLock()
	id := s.selected
	s.mu.RUnlock()
	if id == 0 {
		var zero R
		return zero, false
	}
	return s.Lookup(id)
}

// FetchAll replaces the collection with the backend's. Concurrent calls share one request.
func (s *Store[R, W]) FetchAll(ctx context.Context) ([]R, error) {
	v, err, _ := s.group.Do("all", func() (any, error) {
		s.begin()
		items, err := s.backend.List(ctx, nil)
		s.finish("fetch_all", err, func() {
			s.items = items
			s.loaded = true
		})
		return items, err
	})
	if err != nil {
		return nil, err
	}
	items := v.([]R)
	out := make([]R, len(items))
	copy(out, items)
	return out, nil
}

// EnsureLoaded performs the initial load once. It is a no-op after a successful fetch.
func (s *Store[R, W]) EnsureLoaded(ctx context.Context) error {
	if s.Loaded() {
		return nil
	}
	_, err := s.FetchAll(ctx)
	return err
}

// Reload is FetchAll without the result.
func (s *Store[R, W]) Reload(ctx context.Context) error {
	_, err := s.FetchAll(ctx)
	return err
}

// FetchByID refreshes one item and merges it. The selection is left alone.
func (s *Store[R, W]) FetchByID(ctx context.Context, id uint) (R, error) {
	s.begin()
	item, err := s.backend.Get(ctx, id)
	s.finish("fetch_by_id", err, func() { s.upsert(item) })
	return item, err
}

// FetchAndSelect is FetchByID for detail views: on success the item becomes the selection.
func (s *Store[R, W]) FetchAndSelect(ctx context.Context, id uint) (R, error) {
	s.begin()
	item, err := s.backend.Get(ctx, id)
	s.finish("fetch_by_id", err, func() {
		s.upsert(item)
		s.selected = item.GetID()
	})
	return item, err
}

// Create appends the created item.
func (s *Store[R, W]) Create(ctx context.Context, payload W) (R, error) {
	s.begin()
	item, err := s.backend.Create(ctx, payload)
	s.finish("create", err, func() { s.items = append(s.items, item) })
	return item, err
}

// Update replaces the item in place, or appends it when it was not cached.
func (s *Store[R, W]) Update(ctx context.Context, id uint, payload W) (R, error) {
	s.begin()
	item, err := s.backend.Update(ctx, id, payload)
	s.finish("update", err, func() { s.upsert(item) })
	return item, err
}

// Delete removes the item. A selection on it is cleared.
func (s *Store[R, W]) Delete(ctx context.Context, id uint) error {
	s.begin()
	err := s.backend.Delete(ctx, id)
	s.finish("delete", err, func() {
		if i := s.indexOf(id); i >= 0 {
			s.items = append(s.items[:i:i], s.items[i+1:]...)
		}
		if s.selected == id {
			s.selected = 0
		}
	})
	return err
}

// ChangeStatus performs a status-only transition and merges the result.
func (s *Store[R, W]) ChangeStatus(ctx context.Context, id uint, status string) (R, error) {
	sb, ok := s.backend.(StatusBackend[R])
	if !ok {
		var zero R
		return zero, ErrNoStatus
	}
	s.begin()
	item, err := sb.SetStatus(ctx, id, status)
	s.finish("change_status", err, func() { s.upsert(item) })
	return item, err
}

// OverrideStatus is ChangeStatus for a manual correction carrying a reason.
func (s *Store[R, W]) OverrideStatus(ctx context.Context, id uint, status, reason string) (R, error) {
	sb, ok := s.backend.(StatusBackend[R])
	if !ok {
		var zero R
		return zero, ErrNoStatus
	}
	s.begin()
	item, err := sb.OverrideStatus(ctx, id, status, reason)
	s.finish("override_status", err, func() { s.upsert(item) })
	return item, err
}

func (s *Store[R, W]) begin() {
	s.mu.Lock()
	s.pending++
	s.state = Loading
	s.mu.Unlock()
}

// finish records the outcome of one call. merge runs under the lock on success only.
// The store leaves Loading when the last in-flight call resolves.
func (s *Store[R, W]) finish(op string, err error, merge func()) {
	s.mu.Lock()
	s.pending--
	if err != nil {
		s.err = err
	} else {
		s.err = nil
		merge()
	}
	if s.pending == 0 {
		if err != nil {
			s.state = Failed
		} else {
			s.state = Ready
		}
	}
	s.mu.Unlock()

	s.metrics.ObserveStore(s.name, op, err)
	if err != nil {
		s.logger.Warn("store operation failed", zap.String("op", op), zap.Error(err))
		return
	}
	s.logger.Debug("store operation", zap.String("op", op))
}

func (s *Store[R, W]) upsert(item R) {
	if i := s.indexOf(item.GetID()); i >= 0 {
		s.items[i] = item
		return
	}
	s.items = append(s.items, item)
}

func (s *Store[R, W]) indexOf(id uint) int {
	for i, it := range s.items {
		if it.GetID() == id {
			return i
		}
	}
	return -1
}
