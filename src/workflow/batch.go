package workflow

import (
	"context"
	"fmt"
	"sort"

	"cwp_reporting/src/datalake"
	"cwp_reporting/src/entity"
	"cwp_reporting/src/model"

	"golang.org/x/sync/errgroup"
)

// searchNeighbors searches the neighbors of ids in rootKind that belong to
// any of kinds. Large id lists are split into batches searched concurrently;
// a failing batch cancels the rest and no partial result is returned.
func (s *Service) searchNeighbors(ctx context.Context, rootKind entity.Kind, ids []string, kinds ...entity.Kind) (model.NeighborResult, error) {
	if len(ids) == 0 {
		return model.NeighborResult{}, nil
	}

	rootID, err := s.setID(rootKind)
	if err != nil {
		return nil, err
	}
	setIDs := make([]string, 0, len(kinds))
	for _, kind := range kinds {
		id, err := s.setID(kind)
		if err != nil {
			return nil, err
		}
		setIDs = append(setIDs, id)
	}

	batches := chunk(ids, s.batchSize)
	results := make([]model.NeighborResult, len(batches))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxConcurrency)
	for i, batch := range batches {
		i, batch := i, batch
		g.Go(func() error {
			result, err := s.api.SearchNeighbors(gctx, rootID, datalake.NeighborFilter{
				EntityKeyIDs:            batch,
				SourceEntitySetIDs:      setIDs,
				DestinationEntitySetIDs: setIDs,
			})
			if err != nil {
				return fmt.Errorf("neighbor search %s -> %v: %w", rootKind, kinds, err)
			}
			results[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := make(model.NeighborResult)
	for _, result := range results {
		merged.Merge(result)
	}

	s.log.Debug().
		Str("root", string(rootKind)).
		Interface("kinds", kinds).
		Int("roots", len(ids)).
		Int("batches", len(batches)).
		Int("hits", len(merged)).
		Msg("neighbor search")
	return merged, nil
}

// chunk splits ids into slices of at most size elements.
func chunk(ids []string, size int) [][]string {
	if size <= 0 {
		size = len(ids)
	}
	var out [][]string
	for start := 0; start < len(ids); start += size {
		end := min(start+size, len(ids))
		out = append(out, ids[start:end])
	}
	return out
}

func sortEntities(entities []model.Entity) {
	sort.Slice(entities, func(i, j int) bool { return entities[i].ID < entities[j].ID })
}
