package datalake

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"sort"
	"time"

	"cwp_reporting/src/model"
	"cwp_reporting/src/storage"

	"github.com/bytedance/sonic"
	"github.com/rs/zerolog"
)

// CachedAPI memoizes read calls in a storage.Cache. Cache failures are
// logged and fall through to the wrapped API.
type CachedAPI struct {
	api   API
	cache storage.Cache
	ttl   time.Duration
	log   zerolog.Logger
}

// NewCachedAPI wraps api
func NewCachedAPI(api API, cache storage.Cache, ttl time.Duration, log zerolog.Logger) *CachedAPI {
	if ttl <= 0 {
		ttl = storage.DefaultTTL
	}
	return &CachedAPI{api: api, cache: cache, ttl: ttl, log: log}
}

func (c *CachedAPI) EntitySetIDs(ctx context.Context, names ...string) (map[string]string, error) {
	key := cacheKey("entity-set-ids", sortedCopy(names))
	return cached(ctx, c, key, func() (map[string]string, error) {
		return c.api.EntitySetIDs(ctx, names...)
	})
}

func (c *CachedAPI) PropertyTypeIDs(ctx context.Context, fqns ...string) (map[string]string, error) {
	key := cacheKey("property-type-ids", sortedCopy(fqns))
	return cached(ctx, c, key, func() (map[string]string, error) {
		return c.api.PropertyTypeIDs(ctx, fqns...)
	})
}

func (c *CachedAPI) GetEntitySetData(ctx context.Context, entitySetID string) ([]model.Entity, error) {
	key := cacheKey("entity-set-data", entitySetID)
	return cached(ctx, c, key, func() ([]model.Entity, error) {
		return c.api.GetEntitySetData(ctx, entitySetID)
	})
}

func (c *CachedAPI) SearchEntitySetData(ctx context.Context, entitySetID string, query SearchQuery) ([]model.Entity, error) {
	key := cacheKey("search", entitySetID, query)
	return cached(ctx, c, key, func() ([]model.Entity, error) {
		return c.api.SearchEntitySetData(ctx, entitySetID, query)
	})
}

func (c *CachedAPI) SearchNeighbors(ctx context.Context, entitySetID string, filter NeighborFilter) (model.NeighborResult, error) {
	normalized := NeighborFilter{
		EntityKeyIDs:            sortedCopy(filter.EntityKeyIDs),
		SourceEntitySetIDs:      sortedCopy(filter.SourceEntitySetIDs),
		DestinationEntitySetIDs: sortedCopy(filter.DestinationEntitySetIDs),
	}
	key := cacheKey("neighbors", entitySetID, normalized)
	return cached(ctx, c, key, func() (model.NeighborResult, error) {
		return c.api.SearchNeighbors(ctx, entitySetID, filter)
	})
}

func cached[T any](ctx context.Context, c *CachedAPI, key string, load func() (T, error)) (T, error) {
	var hit T
	err := c.cache.Get(ctx, key, &hit)
	if err == nil {
		c.log.Debug().Str("key", key).Msg("cache hit")
		return hit, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		c.log.Warn().Err(err).Str("key", key).Msg("cache read failed")
	}

	value, err := load()
	if err != nil {
		return value, err
	}

	if err := c.cache.Set(ctx, key, value, c.ttl); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}
	return value, nil
}

// cacheKey digests the operation name and its arguments.
func cacheKey(op string, args ...any) string {
	h := sha256.New()
	h.Write([]byte(op))
	for _, arg := range args {
		data, err := sonic.ConfigStd.Marshal(arg)
		if err != nil {
			// unreachable for the plain types used above
			data = []byte(err.Error())
		}
		h.Write([]byte{0})
		h.Write(data)
	}
	return op + ":" + hex.EncodeToString(h.Sum(nil))
}

func sortedCopy(in []string) []string {
	out := append([]string(nil), in...)
	sort.Strings(out)
	return out
}
