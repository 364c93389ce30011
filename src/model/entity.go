package model

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// Properties maps a property type FQN to all of its values.
//
// The data lake stores every property as a list. Nearly every consumer only
// wants one value, so the First* accessors implement the "first value wins"
// policy in one place. Use Values when all of them matter.
type Properties map[string][]any

// First returns the first value stored under fqn.
func (p Properties) First(fqn string) (any, bool) {
	values := p[fqn]
	if len(values) == 0 {
		return nil, false
	}
	return values[0], true
}

// FirstString returns the first value as a string, or "" when absent.
// Non-string scalars are formatted with fmt.
func (p Properties) FirstString(fqn string) string {
	v, ok := p.First(fqn)
	if !ok || v == nil {
		return ""
	}
	switch s := v.(type) {
	case string:
		return s
	case fmt.Stringer:
		return s.String()
	default:
		return fmt.Sprint(s)
	}
}

// FirstFloat returns the first value as a float64. Strings holding numbers
// are parsed; anything else yields 0.
func (p Properties) FirstFloat(fqn string) float64 {
	v, ok := p.First(fqn)
	if !ok {
		return 0
	}
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

// FirstTime parses the first value as an RFC 3339 timestamp or a bare date.
func (p Properties) FirstTime(fqn string) (time.Time, bool) {
	s := p.FirstString(fqn)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Values returns every value under fqn.
func (p Properties) Values(fqn string) []any {
	return p[fqn]
}

// Clone copies the map and the value slices.
func (p Properties) Clone() Properties {
	if p == nil {
		return nil
	}
	out := make(Properties, len(p))
	for k, v := range p {
		out[k] = append([]any(nil), v...)
	}
	return out
}

// Entity is a single row of an entity set
type Entity struct {
	ID         string     `json:"id"`
	Properties Properties `json:"properties"`
}

// Neighbor is one edge returned by a neighbor search, seen from the root
// entity the search was issued for.
type Neighbor struct {
	EntitySetID            string     `json:"entitySetId"`
	ID                     string     `json:"id"`
	Properties             Properties `json:"properties"`
	AssociationEntitySetID string     `json:"associationEntitySetId,omitempty"`
	AssociationID          string     `json:"associationId,omitempty"`
	AssociationProperties  Properties `json:"associationProperties,omitempty"`
}

// NeighborResult maps a root entity key id to its neighbors
type NeighborResult map[string][]Neighbor

// Merge appends every edge of other into r.
func (r NeighborResult) Merge(other NeighborResult) {
	for id, neighbors := range other {
		r[id] = append(r[id], neighbors...)
	}
}

// TimeRange is an inclusive date filter
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

var ErrInvalidTimeRange = errors.New("invalid time range")

// Validate checks that both bounds are set and ordered.
func (r TimeRange) Validate() error {
	if r.Start.IsZero() || r.End.IsZero() {
		return fmt.Errorf("%w: start and end are required", ErrInvalidTimeRange)
	}
	if r.End.Before(r.Start) {
		return fmt.Errorf("%w: end %s is before start %s", ErrInvalidTimeRange,
			r.End.Format(time.DateOnly), r.Start.Format(time.DateOnly))
	}
	return nil
}
