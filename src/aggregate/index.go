package aggregate

import (
	"cwp_reporting/src/model"
)

// CountBy tallies items by key. Items for which key reports false are
// skipped. An empty input yields an empty, non-nil map.
func CountBy[T any, K comparable](items []T, key func(T) (K, bool)) map[K]int {
	counts := make(map[K]int)
	for _, item := range items {
		if k, ok := key(item); ok {
			counts[k]++
		}
	}
	return counts
}

// ChildToParent maps each neighbor id in entitySetID to the root it was found
// under. When a neighbor hangs off several roots the smallest root id wins so
// the mapping does not depend on map iteration order.
func ChildToParent(result model.NeighborResult, entitySetID string) map[string]string {
	index := make(map[string]string)
	for rootID, neighbors := range result {
		for _, n := range neighbors {
			if n.EntitySetID != entitySetID {
				continue
			}
			if current, ok := index[n.ID]; !ok || rootID < current {
				index[n.ID] = rootID
			}
		}
	}
	return index
}

// Neighbors collects the distinct neighbor entities in entitySetID keyed by id.
func Neighbors(result model.NeighborResult, entitySetID string) map[string]model.Neighbor {
	out := make(map[string]model.Neighbor)
	for _, neighbors := range result {
		for _, n := range neighbors {
			if n.EntitySetID != entitySetID {
				continue
			}
			if _, ok := out[n.ID]; !ok {
				out[n.ID] = n
			}
		}
	}
	return out
}

// IDs extracts entity ids preserving order.
func IDs(entities []model.Entity) []string {
	ids := make([]string, len(entities))
	for i, e := range entities {
		ids[i] = e.ID
	}
	return ids
}
