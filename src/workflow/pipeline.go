package workflow

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"cwp_reporting/src/entity"
	"cwp_reporting/src/model"

	"github.com/cloudwego/eino/compose"
)

// branch is one independent neighbor lookup inside a hop
type branch func(ctx context.Context, ids []string) (model.NeighborResult, error)

// gather runs independent branches over the same root ids concurrently and
// returns their results by key. The first branch error cancels the other
// branches and is returned as is.
func gather(ctx context.Context, name string, ids []string, branches map[string]branch) (map[string]model.NeighborResult, error) {
	keys := make([]string, 0, len(branches))
	for key := range branches {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	// fan-out needs at least two nodes
	if len(keys) < 2 {
		out := make(map[string]model.NeighborResult, len(keys))
		for _, key := range keys {
			result, err := branches[key](ctx, ids)
			if err != nil {
				return nil, err
			}
			out[key] = result
		}
		return out, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		mu       sync.Mutex
		firstErr error
	)
	graph := compose.NewGraph[[]string, map[string]any]()
	for _, key := range keys {
		run := branches[key]
		node := compose.InvokableLambda(func(ctx context.Context, in []string) (model.NeighborResult, error) {
			result, err := run(ctx, in)
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				cancel()
				return nil, err
			}
			if result == nil {
				result = model.NeighborResult{}
			}
			return result, nil
		})
		if err := graph.AddLambdaNode(key, node, compose.WithOutputKey(key)); err != nil {
			return nil, fmt.Errorf("failed to add %s node %s: %w", name, key, err)
		}
		if err := graph.AddEdge(compose.START, key); err != nil {
			return nil, fmt.Errorf("failed to add %s edge %s: %w", name, key, err)
		}
		if err := graph.AddEdge(key, compose.END); err != nil {
			return nil, fmt.Errorf("failed to add %s edge %s: %w", name, key, err)
		}
	}

	runnable, err := graph.Compile(ctx, compose.WithGraphName(name))
	if err != nil {
		return nil, fmt.Errorf("failed to compile %s: %w", name, err)
	}

	raw, err := runnable.Invoke(ctx, ids)
	if err != nil {
		mu.Lock()
		defer mu.Unlock()
		if firstErr != nil {
			return nil, firstErr
		}
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	out := make(map[string]model.NeighborResult, len(raw))
	for _, key := range keys {
		result, ok := raw[key].(model.NeighborResult)
		if !ok {
			return nil, fmt.Errorf("%s: branch %s returned %T", name, key, raw[key])
		}
		out[key] = result
	}
	return out, nil
}

// neighborsOf builds a branch that searches neighbors of root ids in
// rootKind belonging to kind, in either direction.
func (s *Service) neighborsOf(rootKind entity.Kind, kinds ...entity.Kind) branch {
	return func(ctx context.Context, ids []string) (model.NeighborResult, error) {
		return s.searchNeighbors(ctx, rootKind, ids, kinds...)
	}
}
