package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/boardkeep/tabletop-league/internal/platform/resilience"
)

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// Store is a process-local TTL cache. Concurrent loads of the same key
// are collapsed into one loader call.
type Store[V any] struct {
	mu      sync.RWMutex
	entries map[string]entry[V]
	ttl     time.Duration
	flight  resilience.SingleFlight
}

func NewStore[V any](ttl time.Duration) *Store[V] {
	return &Store[V]{
		entries: make(map[string]entry[V]),
		ttl:     ttl,
	}
}

func (s *Store[V]) Get(_ context.Context, key string) (V, bool) {
	var zero V
	if key == "" {
		return zero, false
	}

	now := time.Now()
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return zero, false
	}
	if s.ttl > 0 && !e.expiresAt.After(now) {
		s.mu.Lock()
		delete(s.entries, key)
		s.mu.Unlock()
		return zero, false
	}

	return e.value, true
}

func (s *Store[V]) Set(_ context.Context, key string, value V) {
	if key == "" {
		return
	}

	expiresAt := time.Time{}
	if s.ttl > 0 {
		expiresAt = time.Now().Add(s.ttl)
	}

	s.mu.Lock()
	s.entries[key] = entry[V]{
		value:     value,
		expiresAt: expiresAt,
	}
	s.mu.Unlock()
}

func (s *Store[V]) Delete(_ context.Context, key string) {
	if key == "" {
		return
	}

	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
}

func (s *Store[V]) GetOrLoad(ctx context.Context, key string, loader func(context.Context) (V, error)) (V, error) {
	var zero V
	if loader == nil {
		return zero, fmt.Errorf("loader is required")
	}
	if key == "" {
		return loader(ctx)
	}

	if value, ok := s.Get(ctx, key); ok {
		return value, nil
	}

	value, err, _ := s.flight.Do(key, func() (any, error) {
		if cached, ok := s.Get(ctx, key); ok {
			return cached, nil
		}

		loaded, loadErr := loader(ctx)
		if loadErr != nil {
			return zero, loadErr
		}
		s.Set(ctx, key, loaded)
		return loaded, nil
	})
	if err != nil {
		return zero, err
	}

	return value.(V), nil
}
