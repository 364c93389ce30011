package datalake

import (
	"context"
	"fmt"
	"time"

	"cwp_reporting/src/entity"
	"cwp_reporting/src/model"
)

// API is the part of the entity-data service the workflows consume
type API interface {
	EntitySetIDs(ctx context.Context, names ...string) (map[string]string, error)
	PropertyTypeIDs(ctx context.Context, fqns ...string) (map[string]string, error)
	GetEntitySetData(ctx context.Context, entitySetID string) ([]model.Entity, error)
	SearchEntitySetData(ctx context.Context, entitySetID string, query SearchQuery) ([]model.Entity, error)
	SearchNeighbors(ctx context.Context, entitySetID string, filter NeighborFilter) (model.NeighborResult, error)
}

// NeighborFilter restricts a neighbor search. Sources are entity sets whose
// entities point at the roots; destinations are sets the roots point at.
type NeighborFilter struct {
	EntityKeyIDs            []string `json:"entityKeyIds"`
	SourceEntitySetIDs      []string `json:"sourceEntitySetIds,omitempty"`
	DestinationEntitySetIDs []string `json:"destinationEntitySetIds,omitempty"`
}

// ConstraintType values understood by the search endpoint
const (
	ConstraintSimple    = "simple"
	ConstraintDateRange = "dateRange"
)

// Constraint is a single search predicate
type Constraint struct {
	Type           string `json:"type"`
	SearchTerm     string `json:"searchTerm,omitempty"`
	Fuzzy          bool   `json:"fuzzy,omitempty"`
	PropertyTypeID string `json:"propertyTypeId,omitempty"`
	StartDate      string `json:"startDate,omitempty"`
	EndDate        string `json:"endDate,omitempty"`
}

// SearchQuery is a paged constraint search over one entity set. All
// constraints must hold.
type SearchQuery struct {
	Constraints []Constraint `json:"constraints"`
	Start       int          `json:"start"`
	MaxHits     int          `json:"maxHits"`
}

// DateRange builds a constraint matching values of propertyTypeID inside r.
func DateRange(propertyTypeID string, r model.TimeRange) Constraint {
	return Constraint{
		Type:           ConstraintDateRange,
		PropertyTypeID: propertyTypeID,
		StartDate:      r.Start.Format(time.RFC3339),
		EndDate:        r.End.Format(time.RFC3339),
	}
}

// Term builds a simple full-text constraint.
func Term(term string) Constraint {
	return Constraint{Type: ConstraintSimple, SearchTerm: term}
}

// ---- wire types ----

type wireEntitySet struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type wireNeighbor struct {
	AssociationEntitySet wireEntitySet    `json:"associationEntitySet"`
	AssociationDetails   map[string][]any `json:"associationDetails"`
	NeighborEntitySet    *wireEntitySet   `json:"neighborEntitySet,omitempty"`
	NeighborID           string           `json:"neighborId,omitempty"`
	NeighborDetails      map[string][]any `json:"neighborDetails,omitempty"`
}

type wireSearchRequest struct {
	EntitySetIDs []string              `json:"entitySetIds"`
	Start        int                   `json:"start"`
	MaxHits      int                   `json:"maxHits"`
	Constraints  []wireConstraintGroup `json:"constraints"`
}

type wireConstraintGroup struct {
	Min         int          `json:"min"`
	Constraints []Constraint `json:"constraints"`
}

type wireSearchResponse struct {
	NumHits int                `json:"numHits"`
	Hits    []map[string][]any `json:"hits"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// toEntity splits the key id out of a raw property map.
func toEntity(raw map[string][]any) (model.Entity, error) {
	props := model.Properties(raw)
	id := props.FirstString(entity.FQNEntityKeyID)
	if id == "" {
		return model.Entity{}, fmt.Errorf("entity is missing %s", entity.FQNEntityKeyID)
	}
	return model.Entity{ID: id, Properties: props}, nil
}

func toEntities(raw []map[string][]any) ([]model.Entity, error) {
	out := make([]model.Entity, 0, len(raw))
	for _, r := range raw {
		e, err := toEntity(r)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// toNeighbor drops association-only edges; they carry no neighbor entity.
func toNeighbor(w wireNeighbor) (model.Neighbor, bool) {
	if w.NeighborEntitySet == nil || w.NeighborID == "" {
		return model.Neighbor{}, false
	}
	assoc := model.Properties(w.AssociationDetails)
	return model.Neighbor{
		EntitySetID:            w.NeighborEntitySet.ID,
		ID:                     w.NeighborID,
		Properties:             model.Properties(w.NeighborDetails),
		AssociationEntitySetID: w.AssociationEntitySet.ID,
		AssociationID:          assoc.FirstString(entity.FQNEntityKeyID),
		AssociationProperties:  assoc,
	}, true
}
