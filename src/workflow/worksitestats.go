package workflow

import (
	"context"
	"fmt"

	"cwp_reporting/src/aggregate"
	"cwp_reporting/src/datalake"
	"cwp_reporting/src/entity"
	"cwp_reporting/src/model"
)

// WorksiteTotals is the check-in total of one worksite
type WorksiteTotals struct {
	Name         string  `json:"name"`
	Hours        float64 `json:"hours"`
	Participants int     `json:"participants"`
}

// WorksiteStats sums check-in hours and distinct participants per worksite,
// keyed by worksite id
type WorksiteStats struct {
	TimeRange *model.TimeRange          `json:"timeRange,omitempty"`
	CheckIns  int                       `json:"checkIns"`
	Worksites map[string]WorksiteTotals `json:"worksites"`
}

// WorksiteStats walks check-ins back through their appointments and
// worksite plans to the worksite and the participant. A nil window covers
// every check-in; otherwise check-ins are pre-filtered by a date-range search
// on their completion date. Check-ins whose chain is incomplete are skipped.
func (s *Service) WorksiteStats(ctx context.Context, window *model.TimeRange) (stats *WorksiteStats, err error) {
	done := s.track(ctx, "worksite_stats")
	defer func() { done(err) }()

	if window != nil {
		if window.Start.IsZero() && window.End.IsZero() {
			return nil, fmt.Errorf("%w: time range", ErrValueNotDefined)
		}
		if err := window.Validate(); err != nil {
			return nil, err
		}
	}

	sets, err := s.setIDs(entity.CheckIn, entity.Appointment, entity.WorksitePlan, entity.Worksite, entity.People)
	if err != nil {
		return nil, err
	}

	checkIns, err := s.checkIns(ctx, sets[entity.CheckIn], window)
	if err != nil {
		return nil, err
	}

	// hop 1: check-in -> appointment
	apptResult, err := s.searchNeighbors(ctx, entity.CheckIn, aggregate.IDs(checkIns), entity.Appointment)
	if err != nil {
		return nil, err
	}
	checkInRecords := aggregate.Join(checkIns, []aggregate.Partition{
		{Field: fieldAppointment, EntitySetID: sets[entity.Appointment], Cardinality: aggregate.One},
	}, apptResult)

	// hop 2: appointment -> worksite plan
	appointments := asEntities(aggregate.Neighbors(apptResult, sets[entity.Appointment]))
	wpResult, err := s.searchNeighbors(ctx, entity.Appointment, aggregate.IDs(appointments), entity.WorksitePlan)
	if err != nil {
		return nil, err
	}
	apptRecords := aggregate.Join(appointments, []aggregate.Partition{
		{Field: fieldWorksitePlan, EntitySetID: sets[entity.WorksitePlan], Cardinality: aggregate.One},
	}, wpResult)

	// hop 3: worksite plan -> worksite and participant
	worksitePlans := asEntities(aggregate.Neighbors(wpResult, sets[entity.WorksitePlan]))
	hop3, err := gather(ctx, "worksite_stats_plans", aggregate.IDs(worksitePlans), map[string]branch{
		fieldWorksite: s.neighborsOf(entity.WorksitePlan, entity.Worksite),
		fieldPerson:   s.neighborsOf(entity.WorksitePlan, entity.People),
	})
	if err != nil {
		return nil, err
	}
	wpRecords := aggregate.Join(worksitePlans, []aggregate.Partition{
		{Field: fieldWorksite, EntitySetID: sets[entity.Worksite], Cardinality: aggregate.One},
		{Field: fieldPerson, EntitySetID: sets[entity.People], Cardinality: aggregate.One},
	}, hop3[fieldWorksite], hop3[fieldPerson])

	stats = &WorksiteStats{
		TimeRange: window,
		CheckIns:  len(checkIns),
		Worksites: map[string]WorksiteTotals{},
	}
	people := map[string]map[string]bool{}
	for _, ci := range aggregate.Sorted(checkIns, checkInRecords) {
		appt, ok := ci.One(fieldAppointment)
		if !ok {
			continue
		}
		apptRec, ok := apptRecords[appt.ID]
		if !ok {
			continue
		}
		wp, ok := apptRec.One(fieldWorksitePlan)
		if !ok {
			continue
		}
		wpRec, ok := wpRecords[wp.ID]
		if !ok {
			continue
		}
		site, ok := wpRec.One(fieldWorksite)
		if !ok {
			continue
		}
		totals := stats.Worksites[site.ID]
		totals.Name = site.Properties.FirstString(entity.FQNName)
		totals.Hours += ci.Properties.FirstFloat(entity.FQNHoursWorked)
		if person, ok := wpRec.One(fieldPerson); ok {
			if people[site.ID] == nil {
				people[site.ID] = map[string]bool{}
			}
			people[site.ID][person.ID] = true
			totals.Participants = len(people[site.ID])
		}
		stats.Worksites[site.ID] = totals
	}
	return stats, nil
}

// checkIns loads all check-ins, or only those completed inside window.
func (s *Service) checkIns(ctx context.Context, setID string, window *model.TimeRange) ([]model.Entity, error) {
	if window == nil {
		return s.entities(ctx, entity.CheckIn)
	}
	ptIDs, err := s.api.PropertyTypeIDs(ctx, entity.FQNCheckedInDate)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve property types: %w", err)
	}
	ptID, ok := ptIDs[entity.FQNCheckedInDate]
	if !ok {
		return nil, fmt.Errorf("property type %s not found", entity.FQNCheckedInDate)
	}
	rows, err := s.api.SearchEntitySetData(ctx, setID, datalake.SearchQuery{
		Constraints: []datalake.Constraint{datalake.DateRange(ptID, *window)},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search check-ins: %w", err)
	}
	return rows, nil
}
