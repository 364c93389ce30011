package state

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Store is the single owner of all slices. Commands for any key are applied
// one at a time and written through to the repository.
type Store struct {
	mu     sync.Mutex
	repo   Repository
	slices map[string]*Slice
	now    func() time.Time
	log    zerolog.Logger
}

// NewStore creates a store. repo may be nil to keep state in process only.
func NewStore(repo Repository, log zerolog.Logger) *Store {
	return &Store{
		repo:   repo,
		slices: make(map[string]*Slice),
		now:    time.Now,
		log:    log,
	}
}

// Dispatch applies cmd to the slice under key and returns the result.
// Commands from a superseded request leave the slice untouched.
func (s *Store) Dispatch(ctx context.Context, key string, cmd Command) (Slice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	slice, err := s.load(ctx, key)
	if err != nil {
		return Slice{}, err
	}

	if !cmd.apply(slice, s.now()) {
		s.log.Debug().
			Str("key", key).
			Str("current_request", slice.RequestID).
			Str("command", fmt.Sprintf("%T", cmd)).
			Msg("ignoring stale command")
		return *slice, nil
	}
	s.slices[key] = slice

	if s.repo != nil {
		if err := s.repo.Save(ctx, slice); err != nil {
			return *slice, fmt.Errorf("failed to persist state %s: %w", key, err)
		}
	}
	return *slice, nil
}

// Get returns the slice under key, STANDBY when nothing ran yet.
func (s *Store) Get(ctx context.Context, key string) (Slice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	slice, err := s.load(ctx, key)
	if err != nil {
		return Slice{}, err
	}
	return *slice, nil
}

// Keys lists every known key, in memory or persisted.
func (s *Store) Keys(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]bool, len(s.slices))
	for key := range s.slices {
		seen[key] = true
	}
	if s.repo != nil {
		keys, err := s.repo.Keys(ctx)
		if err != nil {
			return nil, err
		}
		for _, key := range keys {
			seen[key] = true
		}
	}

	out := make([]string, 0, len(seen))
	for key := range seen {
		out = append(out, key)
	}
	sort.Strings(out)
	return out, nil
}

// load returns a working copy of the slice; callers hold mu.
func (s *Store) load(ctx context.Context, key string) (*Slice, error) {
	if slice, ok := s.slices[key]; ok {
		cp := *slice
		return &cp, nil
	}
	if s.repo == nil {
		return newSlice(key), nil
	}
	slice, err := s.repo.Load(ctx, key)
	if err != nil {
		if isNotFound(err) {
			return newSlice(key), nil
		}
		return nil, fmt.Errorf("failed to load state %s: %w", key, err)
	}
	return slice, nil
}
