package state

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"cwp_reporting/src/storage"
)

// KeyPrefix namespaces persisted slices in Redis
const KeyPrefix = "cwp:state:"

// Repository persists slices by key
type Repository interface {
	Load(ctx context.Context, key string) (*Slice, error)
	Save(ctx context.Context, slice *Slice) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context) ([]string, error)
}

// MemoryRepository is an in-memory implementation for development and tests
type MemoryRepository struct {
	mu     sync.RWMutex
	slices map[string]Slice
	ttl    time.Duration
	now    func() time.Time
}

// NewMemoryRepository creates a memory repository. A zero ttl never expires.
func NewMemoryRepository(ttl time.Duration) *MemoryRepository {
	return &MemoryRepository{
		slices: make(map[string]Slice),
		ttl:    ttl,
		now:    time.Now,
	}
}

func (m *MemoryRepository) expired(s Slice) bool {
	return m.ttl > 0 && m.now().Sub(s.UpdatedAt) > m.ttl
}

// Load returns storage.ErrNotFound for unknown or expired keys.
func (m *MemoryRepository) Load(ctx context.Context, key string) (*Slice, error) {
	m.mu.RLock()
	s, ok := m.slices[key]
	m.mu.RUnlock()
	if !ok || m.expired(s) {
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, key)
	}
	return &s, nil
}

// Save stores a copy of slice.
func (m *MemoryRepository) Save(ctx context.Context, slice *Slice) error {
	if slice == nil || slice.Key == "" {
		return fmt.Errorf("slice key cannot be empty")
	}
	m.mu.Lock()
	m.slices[slice.Key] = *slice
	m.mu.Unlock()
	return nil
}

func (m *MemoryRepository) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	delete(m.slices, key)
	m.mu.Unlock()
	return nil
}

// Keys lists live keys in sorted order and drops expired ones.
func (m *MemoryRepository) Keys(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.slices))
	for key, s := range m.slices {
		if m.expired(s) {
			delete(m.slices, key)
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

// RedisRepository keeps slices in Redis with a sliding ttl
type RedisRepository struct {
	store *storage.RedisStorage
	ttl   time.Duration
}

// NewRedisRepository shares the connection of store under KeyPrefix.
func NewRedisRepository(store *storage.RedisStorage, ttl time.Duration) *RedisRepository {
	return &RedisRepository{
		store: store.WithPrefix(KeyPrefix),
		ttl:   ttl,
	}
}

func (r *RedisRepository) Load(ctx context.Context, key string) (*Slice, error) {
	var s Slice
	if err := r.store.Get(ctx, key, &s); err != nil {
		return nil, err
	}

	// Refresh TTL
	if r.ttl > 0 {
		_ = r.store.ExtendTTL(ctx, key, r.ttl)
	}
	return &s, nil
}

func (r *RedisRepository) Save(ctx context.Context, slice *Slice) error {
	if slice == nil || slice.Key == "" {
		return fmt.Errorf("slice key cannot be empty")
	}
	return r.store.Set(ctx, slice.Key, slice, r.ttl)
}

func (r *RedisRepository) Delete(ctx context.Context, key string) error {
	return r.store.Delete(ctx, key)
}

func (r *RedisRepository) Keys(ctx context.Context) ([]string, error) {
	return r.store.Keys(ctx)
}

// isNotFound reports a repository miss.
func isNotFound(err error) bool {
	return errors.Is(err, storage.ErrNotFound)
}
