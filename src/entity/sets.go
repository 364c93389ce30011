// Package entity names the entity sets and property types the reporting
// workflows read from the data lake.
package entity

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

// Kind is a logical entity set, independent of its deployed name
type Kind string

const (
	People           Kind = "people"
	DiversionPlan    Kind = "diversion_plan"
	WorksitePlan     Kind = "worksite_plan"
	Worksite         Kind = "worksite"
	Appointment      Kind = "appointment"
	CheckIn          Kind = "check_in"
	ProgramOutcome   Kind = "program_outcome"
	EnrollmentStatus Kind = "enrollment_status"
	ChargeEvent      Kind = "charge_event"
	ArrestCharge     Kind = "arrest_charge"
	CourtCharge      Kind = "court_charge"
	CourtCase        Kind = "court_case"
	Infraction       Kind = "infraction"
)

// Kinds lists every kind the workflows need.
func Kinds() []Kind {
	return []Kind{
		People, DiversionPlan, WorksitePlan, Worksite, Appointment, CheckIn,
		ProgramOutcome, EnrollmentStatus, ChargeEvent, ArrestCharge,
		CourtCharge, CourtCase, Infraction,
	}
}

var ErrEntitySetNotFound = errors.New("entity set not found")

// Resolver maps entity set names to ids
type Resolver interface {
	EntitySetIDs(ctx context.Context, names ...string) (map[string]string, error)
}

// EntitySets holds resolved entity set ids by kind
type EntitySets map[Kind]string

// ID returns the id for kind or "" when it was not resolved.
func (s EntitySets) ID(kind Kind) string {
	return s[kind]
}

// Resolve looks up the id for every kind in names. A name the API does not
// know fails the whole resolution.
func Resolve(ctx context.Context, resolver Resolver, names map[Kind]string) (EntitySets, error) {
	if len(names) == 0 {
		return EntitySets{}, nil
	}

	list := make([]string, 0, len(names))
	for _, name := range names {
		list = append(list, name)
	}
	sort.Strings(list)

	ids, err := resolver.EntitySetIDs(ctx, list...)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve entity sets: %w", err)
	}

	sets := make(EntitySets, len(names))
	for kind, name := range names {
		id, ok := ids[name]
		if !ok || id == "" {
			return nil, fmt.Errorf("%w: %s (%s)", ErrEntitySetNotFound, name, kind)
		}
		sets[kind] = id
	}
	return sets, nil
}
