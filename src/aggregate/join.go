// Package aggregate joins neighbor-search results onto their root entities.
//
// A join takes the root entities of one entity set and any number of
// neighbor results keyed by root id, and produces one Record per root. Each
// Partition claims the neighbors of one entity set and stores either the
// first of them or all of them under its field name. Neighbors claimed by no
// partition, and edges whose root is not in the root set, are dropped.
//
// Join never mutates its inputs and keeps no state between calls.
package aggregate

import (
	"cwp_reporting/src/model"

	"github.com/bytedance/sonic"
)

// Cardinality says how many neighbors a partition keeps per root
type Cardinality int

const (
	One Cardinality = iota
	Many
)

// Partition claims neighbors of one entity set
type Partition struct {
	Field       string
	EntitySetID string
	Cardinality Cardinality
}

// Record is a root entity with its partitioned neighbors
type Record struct {
	ID         string
	Properties model.Properties
	single     map[string]model.Neighbor
	multi      map[string][]model.Neighbor
}

// NewRecord starts a record from a root entity. The properties are copied.
func NewRecord(root model.Entity) *Record {
	return &Record{
		ID:         root.ID,
		Properties: root.Properties.Clone(),
		single:     map[string]model.Neighbor{},
		multi:      map[string][]model.Neighbor{},
	}
}

// One returns the neighbor stored under a One partition.
func (r *Record) One(field string) (model.Neighbor, bool) {
	n, ok := r.single[field]
	return n, ok
}

// Many returns the neighbors stored under a Many partition.
func (r *Record) Many(field string) []model.Neighbor {
	return r.multi[field]
}

func (r *Record) add(p Partition, n model.Neighbor) {
	switch p.Cardinality {
	case One:
		if _, taken := r.single[p.Field]; !taken {
			r.single[p.Field] = n
		}
	case Many:
		r.multi[p.Field] = append(r.multi[p.Field], n)
	}
}

// MarshalJSON flattens the record: id, properties, then one key per
// populated neighbor field.
func (r *Record) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, 2+len(r.single)+len(r.multi))
	for f, n := range r.single {
		out[f] = n
	}
	for f, ns := range r.multi {
		out[f] = ns
	}
	out["id"] = r.ID
	out["properties"] = r.Properties
	return sonic.ConfigStd.Marshal(out)
}

// Join builds one record per root and distributes the neighbors of every
// result across partitions.
func Join(roots []model.Entity, partitions []Partition, results ...model.NeighborResult) map[string]*Record {
	records := make(map[string]*Record, len(roots))
	for _, root := range roots {
		if _, dup := records[root.ID]; dup {
			continue
		}
		records[root.ID] = NewRecord(root)
	}

	bySet := make(map[string][]Partition, len(partitions))
	for _, p := range partitions {
		bySet[p.EntitySetID] = append(bySet[p.EntitySetID], p)
	}

	for _, result := range results {
		for rootID, neighbors := range result {
			record, ok := records[rootID]
			if !ok {
				continue
			}
			for _, n := range neighbors {
				for _, p := range bySet[n.EntitySetID] {
					record.add(p, n)
				}
			}
		}
	}
	return records
}

// Sorted returns records in the order of roots, skipping ids without a record.
func Sorted(roots []model.Entity, records map[string]*Record) []*Record {
	out := make([]*Record, 0, len(records))
	seen := make(map[string]bool, len(roots))
	for _, root := range roots {
		if rec, ok := records[root.ID]; ok && !seen[root.ID] {
			seen[root.ID] = true
			out = append(out, rec)
		}
	}
	return out
}
