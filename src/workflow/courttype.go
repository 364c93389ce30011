package workflow

import (
	"context"

	"cwp_reporting/src/aggregate"
	"cwp_reporting/src/entity"
)

// CourtTypeStats groups enrollments and repeat participants by court type
type CourtTypeStats struct {
	Enrollments        map[string]int `json:"enrollments"`
	RepeatParticipants map[string]int `json:"repeatParticipants"`
	RepeatTotal        int            `json:"repeatTotal"`
}

// RepeatParticipantsByCourtType counts, per court case type, the people
// enrolled in more than one diversion plan. A repeat participant is counted
// once for every distinct court type among their plans. Plans without a
// court case are left out of both tallies.
func (s *Service) RepeatParticipantsByCourtType(ctx context.Context) (stats *CourtTypeStats, err error) {
	done := s.track(ctx, "repeat_participants_by_court_type")
	defer func() { done(err) }()

	sets, err := s.setIDs(entity.People, entity.CourtCase)
	if err != nil {
		return nil, err
	}

	plans, err := s.entities(ctx, entity.DiversionPlan)
	if err != nil {
		return nil, err
	}

	hop, err := gather(ctx, "court_type_plans", aggregate.IDs(plans), map[string]branch{
		fieldPerson:    s.neighborsOf(entity.DiversionPlan, entity.People),
		fieldCourtCase: s.neighborsOf(entity.DiversionPlan, entity.CourtCase),
	})
	if err != nil {
		return nil, err
	}

	records := aggregate.Sorted(plans, aggregate.Join(plans, []aggregate.Partition{
		{Field: fieldPerson, EntitySetID: sets[entity.People], Cardinality: aggregate.One},
		{Field: fieldCourtCase, EntitySetID: sets[entity.CourtCase], Cardinality: aggregate.One},
	}, hop[fieldPerson], hop[fieldCourtCase]))

	plansPerPerson := aggregate.CountBy(records, func(r *aggregate.Record) (string, bool) {
		person, ok := r.One(fieldPerson)
		return person.ID, ok
	})

	stats = &CourtTypeStats{
		Enrollments:        aggregate.CountBy(records, courtType),
		RepeatParticipants: map[string]int{},
	}

	seen := map[[2]string]bool{}
	repeaters := map[string]bool{}
	for _, r := range records {
		person, ok := r.One(fieldPerson)
		if !ok || plansPerPerson[person.ID] < 2 {
			continue
		}
		repeaters[person.ID] = true
		ct, ok := courtType(r)
		if !ok || seen[[2]string{ct, person.ID}] {
			continue
		}
		seen[[2]string{ct, person.ID}] = true
		stats.RepeatParticipants[ct]++
	}
	stats.RepeatTotal = len(repeaters)
	return stats, nil
}

func courtType(r *aggregate.Record) (string, bool) {
	cc, ok := r.One(fieldCourtCase)
	if !ok {
		return "", false
	}
	ct := cc.Properties.FirstString(entity.FQNCourtCaseType)
	return ct, ct != ""
}
